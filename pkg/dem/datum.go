package dem

import(
	"math"

	"github.com/lunokhod/sfsdem/pkg/emath"
)

// A Datum maps geodetic (lon,lat,height) onto planet-centered cartesian
// coordinates, for a biaxial ellipsoid. E2 is the first eccentricity
// squared; zero gives a sphere.
type Datum struct {
	Name string  `yaml:"name"`
	A    float64 `yaml:"semimajor"` // semi-major axis, meters
	E2   float64 `yaml:"e2"`
}

var(
	WGS84 = Datum{Name: "WGS84", A: 6378137.0, E2: 6.69437999014e-3}
	Moon  = Datum{Name: "D_MOON", A: 1737400.0, E2: 0}
)

// GeodeticToCartesian converts lon/lat in degrees and height in meters
// above the ellipsoid into planet-centered XYZ meters.
func (d Datum)GeodeticToCartesian(lonDeg, latDeg, h float64) emath.Vec3 {
	lon := lonDeg * math.Pi / 180
	lat := latDeg * math.Pi / 180
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)

	n := d.A / math.Sqrt(1 - d.E2*sinLat*sinLat)
	return emath.Vec3{
		(n + h) * cosLat * cosLon,
		(n + h) * cosLat * sinLon,
		(n*(1-d.E2) + h) * sinLat,
	}
}

// SurfaceFrame returns the local up/east/north unit vectors at a geodetic
// position. Up is the ellipsoid normal, not the radial direction.
func (d Datum)SurfaceFrame(lonDeg, latDeg float64) (up, east, north emath.Vec3) {
	lon := lonDeg * math.Pi / 180
	lat := latDeg * math.Pi / 180
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)

	up = emath.Vec3{cosLat * cosLon, cosLat * sinLon, sinLat}
	east = emath.Vec3{-sinLon, cosLon, 0}
	north = up.Cross(east)
	return up, east, north
}
