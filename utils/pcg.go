package utils

import (
	"fmt"

	"github.com/notargets/dynmesh/types"
	"gonum.org/v1/gonum/floats"
)

type PCGResult struct {
	Iterations int
	Residual   float64 // ||b - Ax|| / ||b|| at exit
}

// SolvePCG solves A x = b for symmetric positive definite A using conjugate
// gradients with a Jacobi preconditioner. x holds the initial guess on entry.
// Residuals are tested against tol relative to ||b||.
func SolvePCG(A CSR, b, x []float64, tol float64, maxIter int) (res PCGResult, err error) {
	var (
		n     = len(b)
		r     = make([]float64, n)
		z     = make([]float64, n)
		p     = make([]float64, n)
		q     = make([]float64, n)
		diag  = A.Diagonal()
		bNorm = floats.Norm(b, 2)
	)
	if nr, nc := A.Dims(); nr != n || nc != n || len(x) != n {
		err = fmt.Errorf("%w: system is %dx%d, rhs %d, solution %d",
			types.ErrInvalidArgument, nr, nc, n, len(x))
		return
	}
	if bNorm == 0 {
		for i := range x {
			x[i] = 0
		}
		return
	}
	precondition := func() {
		for i := range r {
			if diag[i] > 0 {
				z[i] = r[i] / diag[i]
			} else {
				z[i] = r[i]
			}
		}
	}
	A.MulVecTo(q, x)
	floats.SubTo(r, b, q)
	precondition()
	copy(p, z)
	rz := floats.Dot(r, z)
	for res.Iterations = 0; ; res.Iterations++ {
		res.Residual = floats.Norm(r, 2) / bNorm
		if IsNan(res.Residual) {
			err = fmt.Errorf("%w: residual is NaN after %d iterations",
				types.ErrNumericalFailure, res.Iterations)
			return
		}
		if res.Residual <= tol {
			return
		}
		if res.Iterations == maxIter {
			break
		}
		A.MulVecTo(q, p)
		pq := floats.Dot(p, q)
		if pq <= 0 {
			err = fmt.Errorf("%w: conjugate gradient breakdown, p.Ap = %g at iteration %d",
				types.ErrNumericalFailure, pq, res.Iterations)
			return
		}
		alpha := rz / pq
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, q)
		precondition()
		rzNew := floats.Dot(r, z)
		beta := rzNew / rz
		rz = rzNew
		floats.AddScaledTo(p, z, beta, p)
	}
	err = fmt.Errorf("%w: conjugate gradient did not converge in %d iterations, residual %g > %g",
		types.ErrNumericalFailure, maxIter, res.Residual, tol)
	return
}
