package camera

// Camera models for projecting planet-centered cartesian points into image
// pixels. The photometric solve needs more than projection: it has to know
// where the sun and the camera sit, so the loader narrows a Camera to a
// SunViewer exactly once, failing fast when the capability is missing.

import(
	"errors"

	"github.com/lunokhod/sfsdem/pkg/emath"
)

// A Camera projects a planet-centered cartesian point into pixel
// coordinates. ok is false when the point does not image (e.g. it is
// behind the camera); that is a per-pixel condition, not an error.
type Camera interface {
	PointToPixel(p emath.Vec3) (px, py float64, ok bool)
}

// A SunViewer is a camera that also exposes the sun and camera positions
// (planet-centered cartesian, meters) from its telemetry.
type SunViewer interface {
	Camera
	SunPosition() emath.Vec3
	CameraPosition() emath.Vec3
}

// ErrCapability marks a camera model that cannot supply what the
// photometric solve needs. A caller/config bug, not a data problem.
var ErrCapability = errors.New("camera model lacks required capability")

// AsSunViewer narrows a generic camera, failing fast rather than letting a
// missing capability surface later as a nil dereference mid-solve.
func AsSunViewer(c Camera) (SunViewer, error) {
	sv, ok := c.(SunViewer)
	if !ok {
		return nil, ErrCapability
	}
	return sv, nil
}
