package camera

import(
	"fmt"

	"github.com/lunokhod/sfsdem/pkg/emath"
)

// A Pinhole is an ideal frame camera: world points are rotated into the
// camera frame and divided by depth. Good enough to stand in for a real
// orbiter frame camera once pose and focal length are known.
type Pinhole struct {
	pos   emath.Vec3
	sun   emath.Vec3
	world2cam emath.Mat3 // rows: right, down, forward
	focal  float64
	cx, cy float64
}

func NewPinhole(pos, target, up emath.Vec3, focalPx, cx, cy float64, sun emath.Vec3) (*Pinhole, error) {
	fwd := target.Sub(pos).Normalize()
	right := fwd.Cross(up).Normalize()
	if right.Norm() == 0 {
		return nil, fmt.Errorf("%w: pinhole view direction parallel to up vector", ErrCapability)
	}
	down := fwd.Cross(right)

	return &Pinhole{
		pos:       pos,
		sun:       sun,
		world2cam: emath.RowsToMat3(right, down, fwd),
		focal:     focalPx,
		cx:        cx,
		cy:        cy,
	}, nil
}

func (c *Pinhole)PointToPixel(p emath.Vec3) (float64, float64, bool) {
	q := c.world2cam.Apply(p.Sub(c.pos))
	if q[2] <= 0 {
		return 0, 0, false // behind the camera
	}
	return c.cx + c.focal*q[0]/q[2], c.cy + c.focal*q[1]/q[2], true
}

func (c *Pinhole)SunPosition() emath.Vec3    { return c.sun }
func (c *Pinhole)CameraPosition() emath.Vec3 { return c.pos }
