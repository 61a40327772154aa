// Package qpsolver defines an abstract sparse quadratic-program solver for
// problems of the form
//
//	minimize   1/2 x'Px + q'x
//	subject to l <= Ax <= u
//
// and provides an operator-splitting (ADMM) implementation. Equality rows
// are expressed as l == u.
package qpsolver

import "gonum.org/v1/gonum/mat"

// Solver is the interface the path optimizer drives. Data setters must be
// called before Init; Solve and UpdateBounds may be called repeatedly
// afterwards. UpdateBounds keeps the internal factorization, making
// bounds-only re-solves cheap.
type Solver interface {
	SetHessian(p *mat.SymDense)
	SetGradient(q []float64)
	SetLinearConstraints(a *mat.Dense)
	SetBounds(lower, upper []float64)
	Init() error
	Solve() error
	UpdateBounds(lower, upper []float64) error
	Solution() []float64
}

// Infinity stands in for an absent bound; rows bounded by ±Infinity are
// effectively unconstrained.
const Infinity = 1e20

// Settings configures a solver instance.
type Settings struct {
	Verbose       bool
	WarmStart     bool
	MaxIterations int
	EpsAbs        float64
	EpsRel        float64
}

// DefaultSettings returns the settings the optimizer uses: warm starting on,
// quiet, 250 iteration cap.
func DefaultSettings() Settings {
	return Settings{
		Verbose:       false,
		WarmStart:     true,
		MaxIterations: 250,
		EpsAbs:        1e-4,
		EpsRel:        1e-4,
	}
}
