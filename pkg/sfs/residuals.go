package sfs

// The two residual blocks of the objective. Both bind the same 9-cell
// height stencil around a grid point:
//
//   tl   = h(c-1, r+1)  top    = h(c, r+1)  tr    = h(c+1, r+1)
//   left = h(c-1, r  )  center = h(c, r  )  right = h(c+1, r  )
//   bl   = h(c-1, r-1)  bottom = h(c, r-1)  br    = h(c+1, r-1)
//
// The intensity block additionally binds the shared brightness pair A as
// its first parameter block.

// failureSentinel is the residual reported when a block cannot be
// evaluated (no-data height, projection off the image). Large enough that
// the solver never rewards a step into a degenerate state, without
// crashing the solve.
const failureSentinel = 1e20

// Positions within the stencil parameter list.
const(
	sTL = iota
	sTop
	sTR
	sLeft
	sCenter
	sRight
	sBL
	sBottom
	sBR
)

// IntensityCost measures the brightness mismatch at one cell:
// intensity - (A0*reflectance + A1).
type IntensityCost struct {
	cx       *Context
	col, row int
}

func (c IntensityCost)NumResiduals() int { return 1 }

// Evaluate binds params as {A, tl, top, tr, left, center, right, bl,
// bottom, br}. Only (center, right, top) feed the surface normal; the
// rest of the stencil rides along so both blocks share one layout.
func (c IntensityCost)Evaluate(params [][]float64, residuals []float64) bool {
	residuals[0] = failureSentinel

	a := params[0]
	center := params[1+sCenter][0]
	right := params[1+sRight][0]
	top := params[1+sTop][0]

	refl, intensity, ok := c.cx.reflectanceAndIntensity(center, right, top, c.col, c.row)
	if !ok {
		return false
	}

	residuals[0] = intensity - (a[0]*refl + a[1])
	return true
}

// SmoothnessCost penalizes local curvature: the four second-order finite
// differences of the height stencil, scaled by the smoothness weight.
// Purely geometric; it is what keeps the photometric term from chasing
// noise, since one intensity constrains a slope but not a shape.
type SmoothnessCost struct {
	Weight      float64
	GridSpacing float64
	NoData      float64
	HasNoData   bool
}

func (c SmoothnessCost)NumResiduals() int { return 4 }

func (c SmoothnessCost)Evaluate(params [][]float64, residuals []float64) bool {
	if c.HasNoData {
		for _, p := range params {
			if p[0] == c.NoData {
				for i := range residuals {
					residuals[i] = failureSentinel
				}
				return false
			}
		}
	}

	gs := c.GridSpacing * c.GridSpacing
	tl, top, tr := params[sTL][0], params[sTop][0], params[sTR][0]
	left, center, right := params[sLeft][0], params[sCenter][0], params[sRight][0]
	bl, bottom, br := params[sBL][0], params[sBottom][0], params[sBR][0]

	residuals[0] = (left + right - 2*center) / gs        // u_xx
	residuals[1] = (tr + bl - tl - br) / 4.0 / gs        // u_xy
	residuals[2] = residuals[1]                          // u_yx
	residuals[3] = (top + bottom - 2*center) / gs        // u_yy

	for i := range residuals {
		residuals[i] *= c.Weight
	}
	return true
}
