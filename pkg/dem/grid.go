package dem

import(
	"fmt"
	"math"
)

// A Grid is a rectangular raster of float64 values indexed by (col,row).
// It backs both terrain heights and intensity rasters.
type Grid struct {
	stride int
	values []float64
}

func NewGrid(cols, rows int) *Grid {
	return &Grid{
		stride: cols,
		values: make([]float64, cols*rows),
	}
}

func (g *Grid)Cols() int                     { return g.stride }
func (g *Grid)Rows() int                     { return len(g.values) / g.stride }
func (g *Grid)Get(col, row int) float64      { return g.values[g.stride*row + col] }
func (g *Grid)Set(col, row int, v float64)   { g.values[g.stride*row + col] = v }

func (g *Grid)Copy() *Grid {
	g2 := Grid{stride: g.stride, values: make([]float64, len(g.values))}
	copy(g2.values, g.values)
	return &g2
}

func (g *Grid)Fill(v float64) {
	for i := range g.values {
		g.values[i] = v
	}
}

// Cell returns the length-1 slice backing one grid value. A least-squares
// solver can bind it as a parameter block and update it in place.
func (g *Grid)Cell(col, row int) []float64 {
	i := g.stride*row + col
	return g.values[i : i+1 : i+1]
}

func (g *Grid)Stats() string {
	min := math.MaxFloat64
	max := -1.0 * min

	for i := 0; i < len(g.values); i++ {
		if g.values[i] > max { max = g.values[i] }
		if g.values[i] < min { min = g.values[i] }
	}
	return fmt.Sprintf("grid[%dx%d, vals{%f,%f}]", g.Cols(), g.Rows(), min, max)
}
