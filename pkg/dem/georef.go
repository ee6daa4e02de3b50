package dem

import(
	"math"

	"github.com/lunokhod/sfsdem/pkg/emath"
)

// A GeoReference ties grid indices to geodetic coordinates: cell (col,row)
// sits at (LonUL + col*LonStep, LatUL + row*LatStep) on the datum. Steps
// are in degrees and LatStep is normally negative (rows run southward).
type GeoReference struct {
	Datum   Datum
	LonUL   float64
	LatUL   float64
	LonStep float64
	LatStep float64
}

func (geo GeoReference)IndexToLonLat(col, row float64) (lon, lat float64) {
	return geo.LonUL + col*geo.LonStep, geo.LatUL + row*geo.LatStep
}

func (geo GeoReference)IndexToCartesian(col, row int, h float64) emath.Vec3 {
	lon, lat := geo.IndexToLonLat(float64(col), float64(row))
	return geo.Datum.GeodeticToCartesian(lon, lat, h)
}

// GridSpacing is the average angular distance between adjacent cells, in
// degrees: the diagonal extent of the grid divided by the diagonal cell
// count. Computed once per solve and shared by all smoothness terms.
func (geo GeoReference)GridSpacing(cols, rows int) float64 {
	dLon := geo.LonStep * float64(cols-1)
	dLat := geo.LatStep * float64(rows-1)
	return math.Hypot(dLon, dLat) / math.Hypot(float64(cols-1), float64(rows-1))
}
