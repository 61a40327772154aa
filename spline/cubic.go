// Package spline provides natural cubic splines over a strictly increasing
// knot sequence, with first and second derivative queries. Outside the knot
// range the spline extrapolates linearly with the boundary slope.
package spline

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Cubic is a one-dimensional natural cubic spline y(x).
type Cubic struct {
	xs []float64
	ys []float64
	// m holds the second derivative at each knot; natural boundary
	// conditions pin m[0] and m[n-1] to zero.
	m []float64
}

// NewCubic fits a natural cubic spline through the given knots. xs must be
// strictly increasing and len(xs) == len(ys) >= 2.
func NewCubic(xs, ys []float64) (*Cubic, error) {
	n := len(xs)
	if n != len(ys) {
		return nil, errors.Errorf("knot count mismatch: %d x values, %d y values", n, len(ys))
	}
	if n < 2 {
		return nil, errors.New("need at least two knots")
	}
	for i := 1; i < n; i++ {
		if xs[i] <= xs[i-1] {
			return nil, errors.Errorf("knots must be strictly increasing, got %f after %f", xs[i], xs[i-1])
		}
	}
	s := &Cubic{
		xs: append([]float64{}, xs...),
		ys: append([]float64{}, ys...),
		m:  make([]float64, n),
	}
	if n == 2 {
		return s, nil
	}

	// Solve the tridiagonal system for the interior second derivatives.
	interior := n - 2
	a := mat.NewDense(interior, interior, nil)
	b := mat.NewVecDense(interior, nil)
	for i := 1; i <= interior; i++ {
		h0 := xs[i] - xs[i-1]
		h1 := xs[i+1] - xs[i]
		row := i - 1
		if row > 0 {
			a.Set(row, row-1, h0)
		}
		a.Set(row, row, 2*(h0+h1))
		if row < interior-1 {
			a.Set(row, row+1, h1)
		}
		b.SetVec(row, 6*((ys[i+1]-ys[i])/h1-(ys[i]-ys[i-1])/h0))
	}
	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return nil, errors.Wrap(err, "spline system is singular")
	}
	for i := 0; i < interior; i++ {
		s.m[i+1] = sol.AtVec(i)
	}
	return s, nil
}

// Domain returns the knot range [min, max].
func (s *Cubic) Domain() (float64, float64) {
	return s.xs[0], s.xs[len(s.xs)-1]
}

// segment returns the index i such that x falls in [xs[i], xs[i+1]], clamped
// to the boundary segments.
func (s *Cubic) segment(x float64) int {
	i := sort.SearchFloat64s(s.xs, x) - 1
	if i < 0 {
		return 0
	}
	if i > len(s.xs)-2 {
		return len(s.xs) - 2
	}
	return i
}

func (s *Cubic) coeffs(i int) (h, slope, b float64) {
	h = s.xs[i+1] - s.xs[i]
	slope = (s.ys[i+1] - s.ys[i]) / h
	b = slope - h*(2*s.m[i]+s.m[i+1])/6
	return h, slope, b
}

// At evaluates the spline at x.
func (s *Cubic) At(x float64) float64 {
	i := s.segment(x)
	h, _, b := s.coeffs(i)
	u := x - s.xs[i]
	if x < s.xs[0] {
		return s.ys[0] + b*u
	}
	if x > s.xs[len(s.xs)-1] {
		last := len(s.xs) - 2
		h, _, b = s.coeffs(last)
		endSlope := b + h*(s.m[last]+s.m[last+1])/2
		return s.ys[len(s.ys)-1] + endSlope*(x-s.xs[len(s.xs)-1])
	}
	return s.ys[i] + b*u + s.m[i]/2*u*u + (s.m[i+1]-s.m[i])/(6*h)*u*u*u
}

// Deriv evaluates dy/dx at x.
func (s *Cubic) Deriv(x float64) float64 {
	i := s.segment(x)
	h, _, b := s.coeffs(i)
	if x < s.xs[0] {
		return b
	}
	if x > s.xs[len(s.xs)-1] {
		last := len(s.xs) - 2
		h, _, b = s.coeffs(last)
		return b + h*(s.m[last]+s.m[last+1])/2
	}
	u := x - s.xs[i]
	return b + s.m[i]*u + (s.m[i+1]-s.m[i])/(2*h)*u*u
}

// Deriv2 evaluates d2y/dx2 at x. It is zero outside the knot range, matching
// the linear extrapolation.
func (s *Cubic) Deriv2(x float64) float64 {
	if x < s.xs[0] || x > s.xs[len(s.xs)-1] {
		return 0
	}
	i := s.segment(x)
	h := s.xs[i+1] - s.xs[i]
	u := x - s.xs[i]
	return s.m[i] + (s.m[i+1]-s.m[i])/h*u
}
