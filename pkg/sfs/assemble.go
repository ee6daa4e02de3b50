package sfs

import(
	"fmt"

	"github.com/lunokhod/sfsdem/pkg/emath"
	"github.com/lunokhod/sfsdem/pkg/lsq"
)

// Calibrate estimates the affine brightness pair (A0, A1) in closed form
// from one pass over the current DEM:
//
//   A0 = stdev(intensity) / stdev(reflectance)
//   A1 = mean(intensity) - A0*mean(reflectance)
//
// over all cells where the prediction succeeded. The pair is then frozen
// for the height solve; joint estimation is a documented non-goal.
func (cx *Context)Calibrate() error {
	p := cx.Predict()

	var refl, inten []float64
	cols := cx.DEM.Cols()
	for row := 0; row < cx.DEM.Rows(); row++ {
		for col := 0; col < cols; col++ {
			if !p.Valid[row*cols+col] {
				continue
			}
			refl = append(refl, p.Reflectance.Get(col, row))
			inten = append(inten, p.Intensity.Get(col, row))
		}
	}

	if len(refl) == 0 {
		return fmt.Errorf("calibration found no cell with a valid photometric prediction")
	}

	rMean, rStdev := emath.MeanStdev(refl)
	iMean, iStdev := emath.MeanStdev(inten)

	// Flat reflectance means intensity carries no shape signal; the affine
	// fit collapses to the constant term.
	a0 := 0.0
	if rStdev > 0 {
		a0 = iStdev / rStdev
	}

	cx.A[0] = a0
	cx.A[1] = iMean - a0*rMean
	return nil
}

// stencil gathers the 9 height parameter blocks around (col,row) in the
// shared {tl, top, tr, left, center, right, bl, bottom, br} order.
func (cx *Context)stencil(col, row int) [][]float64 {
	g := cx.DEM.Grid
	return [][]float64{
		g.Cell(col-1, row+1), g.Cell(col, row+1), g.Cell(col+1, row+1),
		g.Cell(col-1, row), g.Cell(col, row), g.Cell(col+1, row),
		g.Cell(col-1, row-1), g.Cell(col, row-1), g.Cell(col+1, row-1),
	}
}

// BuildProblem registers one intensity block and one smoothness block for
// every interior cell, and pins the border ring. The ring never gets
// blocks of its own, but interior stencils reach into it; holding it
// constant anchors absolute height and tilt, which the pure
// second-derivative smoothness term cannot constrain (translations and
// linear ramps are in its null space).
func (cx *Context)BuildProblem() *lsq.Problem {
	p := lsq.NewProblem()
	g := cx.DEM.Grid
	cols, rows := g.Cols(), g.Rows()

	smooth := SmoothnessCost{
		Weight:      cx.SmoothnessWeight,
		GridSpacing: cx.GridSpacing,
		NoData:      cx.DEM.NoData,
		HasNoData:   cx.DEM.HasNoData,
	}

	for col := 1; col < cols-1; col++ {
		for row := 1; row < rows-1; row++ {
			stencil := cx.stencil(col, row)

			p.AddResidualBlock(IntensityCost{cx: cx, col: col, row: row},
				append([][]float64{cx.A}, stencil...)...)
			p.AddResidualBlock(smooth, stencil...)

			if col == 1 {
				p.SetBlockConstant(g.Cell(col-1, row-1))
				p.SetBlockConstant(g.Cell(col-1, row))
				p.SetBlockConstant(g.Cell(col-1, row+1))
			}
			if row == 1 {
				p.SetBlockConstant(g.Cell(col-1, row-1))
				p.SetBlockConstant(g.Cell(col, row-1))
				p.SetBlockConstant(g.Cell(col+1, row-1))
			}
			if col == cols-2 {
				p.SetBlockConstant(g.Cell(col+1, row-1))
				p.SetBlockConstant(g.Cell(col+1, row))
				p.SetBlockConstant(g.Cell(col+1, row+1))
			}
			if row == rows-2 {
				p.SetBlockConstant(g.Cell(col-1, row+1))
				p.SetBlockConstant(g.Cell(col, row+1))
				p.SetBlockConstant(g.Cell(col+1, row+1))
			}
		}
	}

	// The brightness calibration is frozen; only heights move.
	p.SetBlockConstant(cx.A)

	return p
}
