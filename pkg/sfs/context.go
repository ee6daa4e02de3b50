package sfs

// Shape-from-shading refinement of a DEM: adjust terrain heights until the
// predicted photometric reflectance, run through an affine brightness
// calibration, matches the observed image intensity at every cell. A
// curvature penalty regularizes the under-constrained photometric term and
// the border ring of the grid is pinned to anchor absolute height.

import(
	"github.com/lunokhod/sfsdem/pkg/camera"
	"github.com/lunokhod/sfsdem/pkg/dem"
	"github.com/lunokhod/sfsdem/pkg/photo"
)

// A Context gathers everything the residual blocks and the iteration
// observer read during a solve: the DEM being refined, the radiance image,
// the camera, the photometric parameters, and the shared brightness
// calibration block. Built once by the assembler; the residuals treat it
// as read-only.
type Context struct {
	DEM    *dem.Model
	Image  *Interp
	Cam    camera.SunViewer
	Model  photo.ModelParams
	Global photo.GlobalParams

	// A is the affine brightness calibration {A0, A1}: measured intensity
	// is approximately A0*reflectance + A1. Estimated once in closed form,
	// then held constant while heights are optimized.
	A []float64

	GridSpacing      float64
	SmoothnessWeight float64
}

func NewContext(m *dem.Model, img *Interp, cam camera.SunViewer,
	gp photo.GlobalParams, smoothnessWeight float64) *Context {

	return &Context{
		DEM:   m,
		Image: img,
		Cam:   cam,
		Model: photo.ModelParams{
			SunPosition:    cam.SunPosition(),
			CameraPosition: cam.CameraPosition(),
		},
		Global:           gp,
		A:                []float64{1, 0},
		GridSpacing:      m.Geo.GridSpacing(m.Cols(), m.Rows()),
		SmoothnessWeight: smoothnessWeight,
	}
}
