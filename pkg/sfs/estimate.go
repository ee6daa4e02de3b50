package sfs

import(
	"log"

	"github.com/lunokhod/sfsdem/pkg/dem"
	"github.com/lunokhod/sfsdem/pkg/emath"
	"github.com/lunokhod/sfsdem/pkg/photo"
)

// nodataWarnings dedups the no-data diagnostic across the whole process.
// Deliberately not atomic: under concurrent evaluation it may under-count
// and log a few extra lines, which only affects verbosity, never results.
var nodataWarnings int

func warnNoData() {
	if nodataWarnings == 0 {
		log.Printf("DEM has no-data heights; affected cells are excluded from the photometric term")
	}
	nodataWarnings++
}

// surfaceNormal turns the center, right (col+1) and top (row+1) height
// samples at a cell into a cartesian base point and a unit surface normal.
// Reports false if any sample is the no-data sentinel. The sign of the
// normal is fixed by convention to point away from the planet.
func (cx *Context)surfaceNormal(col, row int, centerH, rightH, topH float64) (base, normal emath.Vec3, ok bool) {
	for _, h := range []float64{centerH, rightH, topH} {
		if cx.DEM.IsNoData(h) {
			warnNoData()
			return base, normal, false
		}
	}

	base = cx.DEM.Geo.IndexToCartesian(col, row, centerH)
	right := cx.DEM.Geo.IndexToCartesian(col+1, row, rightH)
	top := cx.DEM.Geo.IndexToCartesian(col, row+1, topH)

	dx := right.Sub(base)
	dy := top.Sub(base)
	normal = dx.Cross(dy).Normalize().Neg()

	return base, normal, true
}

// reflectanceAndIntensity evaluates the photometric prediction at one cell
// given trial heights for (center, right, top): reflectance from the local
// surface normal, and the measured image intensity sampled at the cell's
// projection. ok is false when a height is no-data or the projection falls
// outside the interpolatable part of the image; the reflectance computed
// so far is still returned.
func (cx *Context)reflectanceAndIntensity(centerH, rightH, topH float64, col, row int) (refl, intensity float64, ok bool) {
	if col >= cx.DEM.Cols()-1 || row >= cx.DEM.Rows()-1 {
		return 0, 0, false
	}

	base, normal, ok := cx.surfaceNormal(col, row, centerH, rightH, topH)
	if !ok {
		return 0, 0, false
	}

	refl, _ = photo.Compute(normal, base, cx.Model, cx.Global)

	px, py, ok := cx.Cam.PointToPixel(base)
	if !ok {
		return refl, 0, false
	}
	if px < 0 || px >= float64(cx.Image.Cols()-1) ||
		py < 0 || py >= float64(cx.Image.Rows()-1) {
		return refl, 0, false
	}

	return refl, cx.Image.At(px, py), true
}

// A Prediction holds the reflectance and measured-intensity rasters from
// one full pass over the grid, with a validity flag per cell. Cells that
// failed keep zero values.
type Prediction struct {
	Reflectance *dem.Grid
	Intensity   *dem.Grid
	Valid       []bool // row-major, Cols()*Rows()
}

// Predict runs the photometric model over the whole grid at its current
// heights. Used for the closed-form calibration and by the iteration
// observer; the solver itself goes through the residual blocks instead.
func (cx *Context)Predict() Prediction {
	cols, rows := cx.DEM.Cols(), cx.DEM.Rows()
	p := Prediction{
		Reflectance: dem.NewGrid(cols, rows),
		Intensity:   dem.NewGrid(cols, rows),
		Valid:       make([]bool, cols*rows),
	}

	for col := 0; col < cols-1; col++ {
		for row := 0; row < rows-1; row++ {
			refl, inten, ok := cx.reflectanceAndIntensity(
				cx.DEM.Get(col, row), cx.DEM.Get(col+1, row), cx.DEM.Get(col, row+1),
				col, row)
			p.Reflectance.Set(col, row, refl)
			p.Intensity.Set(col, row, inten)
			p.Valid[row*cols+col] = ok
		}
	}
	return p
}
