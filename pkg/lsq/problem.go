package lsq

// Package lsq is a small Levenberg-Marquardt solver for sparse nonlinear
// least-squares problems built out of residual blocks. Parameter blocks
// are []float64 slices registered by the identity of their first element,
// so a caller can hand in sub-slices of one big array (say, single cells
// of a height grid) and the solver updates them in place.

// A Cost evaluates one residual block. params holds one value slice per
// bound parameter block, in binding order; these are scratch copies, never
// the live parameters. Evaluate writes NumResiduals values into residuals
// and reports false when the block cannot be evaluated at this point; the
// sentinel values it wrote still count toward the cost, but the block
// contributes no derivative information.
//
// Evaluate must be a pure function of params: the solver calls it
// concurrently and redundantly from many goroutines.
type Cost interface {
	NumResiduals() int
	Evaluate(params [][]float64, residuals []float64) bool
}

type paramBlock struct {
	values   []float64
	constant bool
	index    int // first free-variable column, -1 when constant
}

type residualBlock struct {
	cost   Cost
	params []*paramBlock
	row    int // first row in the stacked residual vector
}

type Problem struct {
	byPtr  map[*float64]*paramBlock
	params []*paramBlock // in registration order
	blocks []*residualBlock
	nRes   int
}

func NewProblem() *Problem {
	return &Problem{byPtr: map[*float64]*paramBlock{}}
}

func (p *Problem)block(values []float64) *paramBlock {
	if len(values) == 0 {
		panic("lsq: empty parameter block")
	}
	key := &values[0]
	if b, ok := p.byPtr[key]; ok {
		return b
	}
	b := &paramBlock{values: values, index: -1}
	p.byPtr[key] = b
	p.params = append(p.params, b)
	return b
}

// AddResidualBlock binds a cost function to its parameter blocks. Blocks
// are created on first sight and shared thereafter.
func (p *Problem)AddResidualBlock(c Cost, params ...[]float64) {
	rb := &residualBlock{cost: c, row: p.nRes}
	for _, v := range params {
		rb.params = append(rb.params, p.block(v))
	}
	p.blocks = append(p.blocks, rb)
	p.nRes += c.NumResiduals()
}

// SetBlockConstant pins a parameter block: the solver reads it but never
// updates it. Registering a block only ever seen as constant is fine.
func (p *Problem)SetBlockConstant(values []float64) {
	p.block(values).constant = true
}

func (p *Problem)NumResiduals() int       { return p.nRes }
func (p *Problem)NumResidualBlocks() int  { return len(p.blocks) }
func (p *Problem)NumParameterBlocks() int { return len(p.params) }

// indexParams assigns free-variable columns and returns the total count of
// free scalars.
func (p *Problem)indexParams() int {
	n := 0
	for _, b := range p.params {
		if b.constant {
			b.index = -1
			continue
		}
		b.index = n
		n += len(b.values)
	}
	return n
}
