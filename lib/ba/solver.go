package ba

import (
	"fmt"
	"log"
	"math"

	"github.com/geosfm/satba/lib/settings"
	"gonum.org/v1/gonum/mat"
)

// A Problem is a sparse nonlinear least-squares instance: initial
// parameters, residual function, Jacobian sparsity, robust loss choice
// and convergence tolerances.
type Problem struct {
	X0       []float64
	Fun      func([]float64) []float64
	Sparsity *SparsityPattern
	Loss     string
	FScale   float64
	Ftol     float64
	Xtol     float64
}

// A Result carries the solver output. Converged is false when the
// iteration budget ran out before the tolerances were met; callers
// decide what to do with a non-converged solution.
type Result struct {
	X          []float64
	Residuals  []float64
	Cost       float64
	Converged  bool
	Iterations int
}

// A Solver minimizes a robust least-squares problem. The production
// solver is external; LMSolver below is the in-process reference.
type Solver interface {
	Solve(problem *Problem) (*Result, error)
}

// LMSolver is a dense Levenberg-Marquardt implementation with a
// forward-difference Jacobian and iteratively reweighted robust loss.
// It ignores the sparsity pattern and is meant for moderate problem
// sizes and as a test double for the external solver.
type LMSolver struct {
	// 0 means 50.
	MaxIterations int
}

func (s *LMSolver) Solve(p *Problem) (*Result, error) {
	if len(p.X0) == 0 {
		return nil, fmt.Errorf("empty parameter vector")
	}
	maxIter := s.MaxIterations
	if maxIter == 0 {
		maxIter = 50
	}

	x := append([]float64(nil), p.X0...)
	f := p.Fun(x)
	if len(f)%2 != 0 {
		return nil, fmt.Errorf("residual vector has odd length %d", len(f))
	}
	cost := robustCost(f, p.Loss, p.FScale)
	lambda := 1e-3

	res := &Result{}
	for iter := 0; iter < maxIter; iter++ {
		res.Iterations = iter + 1
		jac := numericalJacobian(p.Fun, x, f)
		weights := lossWeights(f, p.Loss, p.FScale)
		wf := mat.NewVecDense(len(f), nil)
		for i := range f {
			w := math.Sqrt(weights[i])
			wf.SetVec(i, w*f[i])
			for j := 0; j < len(x); j++ {
				jac.Set(i, j, w*jac.At(i, j))
			}
		}

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		var g mat.VecDense
		g.MulVec(jac.T(), wf)

		accepted := false
		for try := 0; try < 10; try++ {
			damped := mat.DenseCopyOf(&jtj)
			for d := 0; d < len(x); d++ {
				damped.Set(d, d, jtj.At(d, d)*(1+lambda))
			}
			var step mat.VecDense
			if err := step.SolveVec(damped, &g); err != nil {
				lambda *= 10
				continue
			}
			xNew := make([]float64, len(x))
			for j := range x {
				xNew[j] = x[j] - step.AtVec(j)
			}
			fNew := p.Fun(xNew)
			costNew := robustCost(fNew, p.Loss, p.FScale)
			if costNew < cost {
				stepNorm := mat.Norm(&step, 2)
				xNorm := 0.0
				for _, v := range x {
					xNorm += v * v
				}
				xNorm = math.Sqrt(xNorm)
				costDrop := cost - costNew
				x, f, cost = xNew, fNew, costNew
				lambda = math.Max(lambda/10, 1e-12)
				accepted = true
				if costDrop < p.Ftol*cost || stepNorm < p.Xtol*(p.Xtol+xNorm) {
					res.Converged = true
				}
				break
			}
			lambda *= 10
		}
		if res.Converged || !accepted {
			if !accepted {
				// Every damping level failed to reduce the cost.
				res.Converged = true
			}
			break
		}
	}

	res.X = x
	res.Residuals = f
	res.Cost = cost
	if !res.Converged {
		log.Printf("solver stopped after %d iterations without meeting tolerances\n", res.Iterations)
	}
	return res, nil
}

func numericalJacobian(fun func([]float64) []float64, x []float64, f0 []float64) *mat.Dense {
	jac := mat.NewDense(len(f0), len(x), nil)
	xp := append([]float64(nil), x...)
	for j := range x {
		h := 1e-7 * math.Max(1, math.Abs(x[j]))
		xp[j] = x[j] + h
		fj := fun(xp)
		xp[j] = x[j]
		for i := range f0 {
			jac.Set(i, j, (fj[i]-f0[i])/h)
		}
	}
	return jac
}

// lossWeights returns the iteratively-reweighted least-squares weight
// per residual component for the configured robust loss.
func lossWeights(f []float64, loss string, fscale float64) []float64 {
	w := make([]float64, len(f))
	for i := range f {
		w[i] = 1
	}
	if loss != settings.LOSS_SOFT_L1 {
		return w
	}
	if fscale == 0 {
		fscale = 1
	}
	for i, r := range f {
		z := (r / fscale) * (r / fscale)
		w[i] = 1 / math.Sqrt(1+z)
	}
	return w
}

func robustCost(f []float64, loss string, fscale float64) float64 {
	cost := 0.0
	if loss != settings.LOSS_SOFT_L1 {
		for _, r := range f {
			cost += r * r
		}
		return 0.5 * cost
	}
	if fscale == 0 {
		fscale = 1
	}
	for _, r := range f {
		z := (r / fscale) * (r / fscale)
		cost += fscale * fscale * 2 * (math.Sqrt(1+z) - 1)
	}
	return 0.5 * cost
}
