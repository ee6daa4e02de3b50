package lsq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineCost is the residual for one (x,y) sample against y = m*x + b, with
// m and b bound as two separate parameter blocks.
type lineCost struct{ x, y float64 }

func (c lineCost)NumResiduals() int { return 1 }

func (c lineCost)Evaluate(params [][]float64, residuals []float64) bool {
	m, b := params[0][0], params[1][0]
	residuals[0] = c.y - (m*c.x + b)
	return true
}

// pairCost exercises multi-residual blocks: push both components of a
// 2-vector toward fixed targets.
type pairCost struct{ t0, t1 float64 }

func (c pairCost)NumResiduals() int { return 2 }

func (c pairCost)Evaluate(params [][]float64, residuals []float64) bool {
	residuals[0] = params[0][0] - c.t0
	residuals[1] = params[0][1] - c.t1
	return true
}

// brokenCost always fails, reporting the sentinel.
type brokenCost struct{}

func (brokenCost)NumResiduals() int { return 1 }

func (brokenCost)Evaluate(params [][]float64, residuals []float64) bool {
	residuals[0] = 1e20
	return false
}

type countingCallback struct {
	calls  int
	lastIt int
}

func (cb *countingCallback)OnIteration(s IterationSummary) {
	cb.calls++
	cb.lastIt = s.Iteration
}

func TestSolveLineFit(t *testing.T) {
	m := []float64{0}
	b := []float64{0}

	p := NewProblem()
	for _, xy := range [][2]float64{{0, 1}, {1, 3}, {2, 5}, {3, 7}, {-1, -1}} {
		p.AddResidualBlock(lineCost{x: xy[0], y: xy[1]}, m, b)
	}

	cb := &countingCallback{}
	opts := DefaultOptions()
	opts.Callbacks = append(opts.Callbacks, cb)

	summary := Solve(opts, p)

	assert.NotEqual(t, Failed, summary.Status)
	assert.InDelta(t, 2.0, m[0], 1e-6)
	assert.InDelta(t, 1.0, b[0], 1e-6)
	assert.Less(t, summary.FinalCost, summary.InitialCost)
	assert.GreaterOrEqual(t, cb.calls, 1)
	assert.Equal(t, cb.calls-1, cb.lastIt)
	assert.Equal(t, cb.calls, summary.Iterations)
}

func TestSolveRespectsConstantBlocks(t *testing.T) {
	m := []float64{0}
	b := []float64{5}

	p := NewProblem()
	for _, xy := range [][2]float64{{0, 1}, {1, 3}, {2, 5}, {3, 7}} {
		p.AddResidualBlock(lineCost{x: xy[0], y: xy[1]}, m, b)
	}
	p.SetBlockConstant(b)

	summary := Solve(DefaultOptions(), p)

	assert.NotEqual(t, Failed, summary.Status)
	assert.Equal(t, 5.0, b[0], "constant block must be bit-identical after solving")
	assert.NotEqual(t, 0.0, m[0])
}

func TestSolveMultiResidualBlock(t *testing.T) {
	v := []float64{10, -10}

	p := NewProblem()
	p.AddResidualBlock(pairCost{t0: 1, t1: 2}, v)

	summary := Solve(DefaultOptions(), p)
	assert.NotEqual(t, Failed, summary.Status)
	assert.InDelta(t, 1.0, v[0], 1e-6)
	assert.InDelta(t, 2.0, v[1], 1e-6)
	assert.Equal(t, 2, p.NumResiduals())
}

func TestSolveAtMinimumConvergesImmediately(t *testing.T) {
	v := []float64{1, 2}

	p := NewProblem()
	p.AddResidualBlock(pairCost{t0: 1, t1: 2}, v)

	summary := Solve(DefaultOptions(), p)
	assert.Equal(t, Converged, summary.Status)
	assert.Equal(t, 0, summary.Iterations)
	assert.Equal(t, []float64{1, 2}, v)
}

func TestSolveMaxIterationsZero(t *testing.T) {
	m := []float64{0}
	b := []float64{0}

	p := NewProblem()
	p.AddResidualBlock(lineCost{x: 1, y: 3}, m, b)

	opts := DefaultOptions()
	opts.MaxIterations = 0

	summary := Solve(opts, p)
	assert.Equal(t, MaxIterations, summary.Status)
	assert.Equal(t, []float64{0}, m)
	assert.Equal(t, []float64{0}, b)
}

func TestSolveNoFreeBlocks(t *testing.T) {
	v := []float64{4, 4}

	p := NewProblem()
	p.AddResidualBlock(pairCost{t0: 1, t1: 2}, v)
	p.SetBlockConstant(v)

	summary := Solve(DefaultOptions(), p)
	assert.Equal(t, Converged, summary.Status)
	assert.Equal(t, []float64{4, 4}, v)
}

func TestSolveToleratesFailingBlocks(t *testing.T) {
	// A permanently failing block must not stop the rest of the problem
	// from being optimized: its sentinel cancels out of every cost
	// comparison.
	m := []float64{0}
	b := []float64{0}
	orphan := []float64{3}

	p := NewProblem()
	for _, xy := range [][2]float64{{0, 1}, {1, 3}, {2, 5}, {3, 7}} {
		p.AddResidualBlock(lineCost{x: xy[0], y: xy[1]}, m, b)
	}
	p.AddResidualBlock(brokenCost{}, orphan)

	summary := Solve(DefaultOptions(), p)
	assert.NotEqual(t, Failed, summary.Status)
	// The sentinel dominates the total cost, so the relative function
	// tolerance trips early; only ask for a loose fit here.
	assert.InDelta(t, 2.0, m[0], 1e-2)
	assert.InDelta(t, 1.0, b[0], 1e-2)
	assert.Equal(t, 3.0, orphan[0], "no derivative information, so no update")
}

func TestSolveParallelMatchesSerial(t *testing.T) {
	build := func() (*Problem, []float64, []float64) {
		m := []float64{0}
		b := []float64{0}
		p := NewProblem()
		for i := 0; i < 50; i++ {
			x := float64(i) / 10
			p.AddResidualBlock(lineCost{x: x, y: 2*x + 1}, m, b)
		}
		return p, m, b
	}

	p1, m1, b1 := build()
	s1 := Solve(DefaultOptions(), p1)

	opts := DefaultOptions()
	opts.NumThreads = 4
	p2, m2, b2 := build()
	s2 := Solve(opts, p2)

	require.NotEqual(t, Failed, s1.Status)
	require.NotEqual(t, Failed, s2.Status)
	assert.Equal(t, m1[0], m2[0])
	assert.Equal(t, b1[0], b2[0])
	assert.Equal(t, s1.Iterations, s2.Iterations)
}

func TestProblemBlockIdentity(t *testing.T) {
	backing := make([]float64, 4)
	a := backing[0:1:1]
	b := backing[1:2:2]

	p := NewProblem()
	p.AddResidualBlock(pairCost{}, backing[0:2])
	p.AddResidualBlock(lineCost{}, a, b)

	// backing[0:2] and a share a first element, so they are one block;
	// b is distinct.
	assert.Equal(t, 2, p.NumParameterBlocks())
}
