package camera

import(
	"github.com/lunokhod/sfsdem/pkg/dem"
	"github.com/lunokhod/sfsdem/pkg/emath"
)

// A Nadir camera looks straight down from above a surface point: world
// points project orthogonally onto the local tangent plane at the
// sub-point. An idealization, but it images every cell of a small DEM
// without pose fiddling, which makes it the camera of choice for synthetic
// scenes and tests.
type Nadir struct {
	pos    emath.Vec3
	sun    emath.Vec3
	origin emath.Vec3 // surface point below the camera
	east   emath.Vec3
	north  emath.Vec3
	scale  float64 // pixels per meter on the tangent plane
	cx, cy float64
}

func NewNadir(datum dem.Datum, lonDeg, latDeg, altitude, pixelsPerUnit, cx, cy float64, sun emath.Vec3) *Nadir {
	origin := datum.GeodeticToCartesian(lonDeg, latDeg, 0)
	up, east, north := datum.SurfaceFrame(lonDeg, latDeg)

	return &Nadir{
		pos:    origin.Add(up.Scale(altitude)),
		sun:    sun,
		origin: origin,
		east:   east,
		north:  north,
		scale:  pixelsPerUnit,
		cx:     cx,
		cy:     cy,
	}
}

func (c *Nadir)PointToPixel(p emath.Vec3) (float64, float64, bool) {
	d := p.Sub(c.origin)
	return c.cx + c.scale*d.Dot(c.east), c.cy + c.scale*d.Dot(c.north), true
}

func (c *Nadir)SunPosition() emath.Vec3    { return c.sun }
func (c *Nadir)CameraPosition() emath.Vec3 { return c.pos }
