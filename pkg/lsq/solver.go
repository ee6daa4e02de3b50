package lsq

import(
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

type Options struct {
	MaxIterations     int // number of accepted steps to allow
	NumThreads        int // goroutines used for residual/jacobian evaluation
	FunctionTolerance float64
	GradientTolerance float64
	InitialLambda     float64
	Callbacks         []IterationCallback
}

func DefaultOptions() Options {
	return Options{
		MaxIterations:     100,
		NumThreads:        1,
		FunctionTolerance: 1e-16,
		GradientTolerance: 1e-16,
		InitialLambda:     1e-4,
	}
}

// An IterationCallback fires after each accepted step, with the parameter
// blocks already updated to the new state. Callbacks must treat that state
// as read-only; they exist for diagnostics, not steering.
type IterationCallback interface {
	OnIteration(IterationSummary)
}

type IterationSummary struct {
	Iteration   int // accepted-step index, starting at 0
	Cost        float64
	CostChange  float64
	GradientMax float64
	Lambda      float64
}

type Status int

const(
	Converged Status = iota
	MaxIterations
	Failed
)

func (s Status)String() string {
	switch s {
	case Converged:     return "CONVERGED"
	case MaxIterations: return "MAX_ITERATIONS"
	case Failed:        return "FAILED"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type Summary struct {
	Status      Status
	Message     string
	InitialCost float64
	FinalCost   float64
	Iterations  int // accepted steps
}

func (s Summary)BriefReport() string {
	return fmt.Sprintf("lsq: status %s, iterations %d, initial cost %.6e, final cost %.6e (%s)",
		s.Status, s.Iterations, s.InitialCost, s.FinalCost, s.Message)
}

// relDiffStep sizes the central-difference probe relative to the value.
const relDiffStep = 1e-6

// maxStepAttempts bounds how far lambda is pushed up looking for a
// cost-decreasing step before declaring the iteration stuck.
const maxStepAttempts = 12

// Solve runs Levenberg-Marquardt on the problem, updating the free
// parameter blocks in place. The Jacobian comes from central differences;
// the normal equations are accumulated block by block into a symmetric
// matrix and solved by Cholesky factorization.
func Solve(opt Options, p *Problem) Summary {
	s := &solver{opt: opt, prob: p, nFree: p.indexParams()}

	if s.nFree == 0 {
		cost, _ := s.evalAll(s.blockCosts(nil))
		return Summary{
			Status:      Converged,
			Message:     "no free parameter blocks",
			InitialCost: cost,
			FinalCost:   cost,
		}
	}

	blockCost := s.blockCosts(nil)
	cost, success := s.evalAll(blockCost)

	summary := Summary{InitialCost: cost}
	lambda := opt.InitialLambda
	if lambda <= 0 {
		lambda = 1e-4
	}

	trialCost := s.blockCosts(nil)

	for {
		if summary.Iterations >= opt.MaxIterations {
			summary.Status = MaxIterations
			summary.Message = "iteration budget exhausted"
			break
		}

		h, g, gradMax := s.normalEquations(success)
		if gradMax < opt.GradientTolerance {
			summary.Status = Converged
			summary.Message = fmt.Sprintf("gradient tolerance reached (max |g| = %.3e)", gradMax)
			break
		}

		accepted := false
		failedFactorizations := 0
		for try := 0; try < maxStepAttempts; try++ {
			delta, ok := solveDamped(h, g, lambda)
			if !ok {
				failedFactorizations++
				lambda *= 10
				continue
			}

			backup := s.snapshot()
			s.applyStep(delta)

			_, trialSuccess := s.evalAll(trialCost)

			// Compare costs block by block so that a block stuck at its
			// failure sentinel cancels exactly instead of swamping the sum.
			change := 0.0
			for i := range blockCost {
				change += blockCost[i] - trialCost[i]
			}

			if change > 0 {
				cost -= change
				copy(blockCost, trialCost)
				copy(success, trialSuccess)
				lambda = math.Max(lambda/3, 1e-12)
				accepted = true

				is := IterationSummary{
					Iteration:   summary.Iterations,
					Cost:        cost,
					CostChange:  change,
					GradientMax: gradMax,
					Lambda:      lambda,
				}
				summary.Iterations++
				for _, cb := range opt.Callbacks {
					cb.OnIteration(is)
				}

				if change <= opt.FunctionTolerance*math.Max(cost, 1e-300) {
					summary.Status = Converged
					summary.Message = fmt.Sprintf("function tolerance reached (cost change %.3e)", change)
				}
				break
			}

			s.restore(backup)
			lambda *= 10
		}

		if summary.Status == Converged {
			break
		}
		if !accepted {
			if failedFactorizations == maxStepAttempts {
				summary.Status = Failed
				summary.Message = "normal equations not positive definite"
			} else {
				summary.Status = Converged
				summary.Message = "no step decreases the cost"
			}
			break
		}
	}

	summary.FinalCost = cost
	return summary
}

type solver struct {
	opt   Options
	prob  *Problem
	nFree int
}

func (s *solver)blockCosts(buf []float64) []float64 {
	if cap(buf) >= len(s.prob.blocks) {
		return buf[:len(s.prob.blocks)]
	}
	return make([]float64, len(s.prob.blocks))
}

// parallel fans fn out over [0,n) in contiguous chunks, one per worker.
func (s *solver)parallel(n int, fn func(lo, hi int)) {
	threads := s.opt.NumThreads
	if threads < 1 {
		threads = 1
	}
	if threads == 1 || n < 2 {
		fn(0, n)
		return
	}

	chunk := (n + threads - 1) / threads
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// scratchParams copies a residual block's current parameter values, so
// evaluation and finite differencing never touch live state.
func scratchParams(rb *residualBlock) [][]float64 {
	params := make([][]float64, len(rb.params))
	for i, b := range rb.params {
		params[i] = append([]float64(nil), b.values...)
	}
	return params
}

// evalAll evaluates every residual block at the current state, filling
// blockCost with per-block half-squared-norms. Returns the total cost and
// per-block success flags.
func (s *solver)evalAll(blockCost []float64) (float64, []bool) {
	success := make([]bool, len(s.prob.blocks))

	s.parallel(len(s.prob.blocks), func(lo, hi int) {
		for bi := lo; bi < hi; bi++ {
			rb := s.prob.blocks[bi]
			res := make([]float64, rb.cost.NumResiduals())
			success[bi] = rb.cost.Evaluate(scratchParams(rb), res)

			c := 0.0
			for _, r := range res {
				c += 0.5 * r * r
			}
			blockCost[bi] = c
		}
	})

	total := 0.0
	for _, c := range blockCost {
		total += c
	}
	return total, success
}

// normalEquations builds H = J'J and g = J'r over all residual blocks via
// central-difference Jacobians. Blocks that failed at the current state
// contribute nothing. Returns H, g and max |g|.
func (s *solver)normalEquations(success []bool) (*mat.SymDense, []float64, float64) {
	type blockJac struct {
		res  []float64
		jac  []float64 // m x len(cols), row-major
		cols []int     // global free-variable columns
	}
	jacs := make([]blockJac, len(s.prob.blocks))

	s.parallel(len(s.prob.blocks), func(lo, hi int) {
		for bi := lo; bi < hi; bi++ {
			if !success[bi] {
				continue
			}
			rb := s.prob.blocks[bi]
			m := rb.cost.NumResiduals()

			params := scratchParams(rb)
			res := make([]float64, m)
			if !rb.cost.Evaluate(params, res) {
				continue
			}

			var cols []int
			for _, b := range rb.params {
				if b.constant {
					continue
				}
				for k := range b.values {
					cols = append(cols, b.index+k)
				}
			}

			jac := make([]float64, m*len(cols))
			plus := make([]float64, m)
			minus := make([]float64, m)

			ci := 0
			for pi, b := range rb.params {
				if b.constant {
					continue
				}
				for k := range params[pi] {
					v := params[pi][k]
					step := relDiffStep * math.Max(math.Abs(v), 1)

					params[pi][k] = v + step
					okPlus := rb.cost.Evaluate(params, plus)
					params[pi][k] = v - step
					okMinus := rb.cost.Evaluate(params, minus)
					params[pi][k] = v

					if okPlus && okMinus {
						for i := 0; i < m; i++ {
							jac[i*len(cols)+ci] = (plus[i] - minus[i]) / (2 * step)
						}
					}
					ci++
				}
			}

			jacs[bi] = blockJac{res: res, jac: jac, cols: cols}
		}
	})

	h := mat.NewSymDense(s.nFree, nil)
	g := make([]float64, s.nFree)

	// Accumulation is single-threaded: blocks share columns.
	for bi := range jacs {
		bj := &jacs[bi]
		if bj.res == nil {
			continue
		}
		m := len(bj.res)
		nc := len(bj.cols)
		for j := 0; j < nc; j++ {
			cj := bj.cols[j]
			for i := 0; i < m; i++ {
				g[cj] += bj.jac[i*nc+j] * bj.res[i]
			}
			for k := j; k < nc; k++ {
				ck := bj.cols[k]
				dot := 0.0
				for i := 0; i < m; i++ {
					dot += bj.jac[i*nc+j] * bj.jac[i*nc+k]
				}
				if cj <= ck {
					h.SetSym(cj, ck, h.At(cj, ck)+dot)
				} else {
					h.SetSym(ck, cj, h.At(ck, cj)+dot)
				}
			}
		}
	}

	gradMax := 0.0
	for _, gi := range g {
		if a := math.Abs(gi); a > gradMax {
			gradMax = a
		}
	}
	return h, g, gradMax
}

// solveDamped solves (H + lambda*diag(H)) delta = g.
func solveDamped(h *mat.SymDense, g []float64, lambda float64) ([]float64, bool) {
	n := len(g)
	damped := mat.NewSymDense(n, nil)
	damped.CopySym(h)
	for i := 0; i < n; i++ {
		d := h.At(i, i)
		damped.SetSym(i, i, d+lambda*math.Max(d, 1e-12))
	}

	var chol mat.Cholesky
	if !chol.Factorize(damped) {
		return nil, false
	}

	var delta mat.VecDense
	if err := chol.SolveVecTo(&delta, mat.NewVecDense(n, g)); err != nil {
		return nil, false
	}
	return delta.RawVector().Data, true
}

func (s *solver)snapshot() []float64 {
	x := make([]float64, s.nFree)
	for _, b := range s.prob.params {
		if b.constant {
			continue
		}
		copy(x[b.index:b.index+len(b.values)], b.values)
	}
	return x
}

func (s *solver)restore(x []float64) {
	for _, b := range s.prob.params {
		if b.constant {
			continue
		}
		copy(b.values, x[b.index:b.index+len(b.values)])
	}
}

// applyStep moves the free parameters downhill: x <- x - delta.
func (s *solver)applyStep(delta []float64) {
	for _, b := range s.prob.params {
		if b.constant {
			continue
		}
		for k := range b.values {
			b.values[k] -= delta[b.index+k]
		}
	}
}
