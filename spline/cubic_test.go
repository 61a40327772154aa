package spline

import (
	"testing"

	"go.viam.com/test"
)

func TestCubicInterpolatesKnots(t *testing.T) {
	xs := []float64{0, 1, 2.5, 4, 6}
	ys := []float64{0, 1, -0.5, 2, 1}
	s, err := NewCubic(xs, ys)
	test.That(t, err, test.ShouldBeNil)
	for i := range xs {
		test.That(t, s.At(xs[i]), test.ShouldAlmostEqual, ys[i], 1e-9)
	}
}

func TestCubicLine(t *testing.T) {
	// A spline through collinear points stays a line with exact derivatives.
	s, err := NewCubic([]float64{0, 1, 2, 3}, []float64{1, 3, 5, 7})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.At(1.5), test.ShouldAlmostEqual, 4, 1e-9)
	test.That(t, s.Deriv(0.7), test.ShouldAlmostEqual, 2, 1e-9)
	test.That(t, s.Deriv2(1.3), test.ShouldAlmostEqual, 0, 1e-9)
}

func TestCubicTwoKnots(t *testing.T) {
	s, err := NewCubic([]float64{0, 2}, []float64{0, 4})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.At(1), test.ShouldAlmostEqual, 2)
	test.That(t, s.Deriv(1), test.ShouldAlmostEqual, 2)
	test.That(t, s.Deriv2(1), test.ShouldAlmostEqual, 0)
}

func TestCubicDerivativeConsistency(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{0, 1, 0, -1, 0}
	s, err := NewCubic(xs, ys)
	test.That(t, err, test.ShouldBeNil)
	// Finite differences agree with the analytic derivatives.
	const h = 1e-6
	for _, x := range []float64{0.5, 1.5, 2.25, 3.7} {
		fd := (s.At(x+h) - s.At(x-h)) / (2 * h)
		test.That(t, s.Deriv(x), test.ShouldAlmostEqual, fd, 1e-5)
		fd2 := (s.Deriv(x+h) - s.Deriv(x-h)) / (2 * h)
		test.That(t, s.Deriv2(x), test.ShouldAlmostEqual, fd2, 1e-4)
	}
}

func TestCubicNaturalBoundary(t *testing.T) {
	s, err := NewCubic([]float64{0, 1, 2, 3}, []float64{0, 2, 1, 3})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Deriv2(0), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, s.Deriv2(3), test.ShouldAlmostEqual, 0, 1e-9)
}

func TestCubicExtrapolatesLinearly(t *testing.T) {
	s, err := NewCubic([]float64{0, 1, 2}, []float64{0, 1, 4})
	test.That(t, err, test.ShouldBeNil)
	startSlope := s.Deriv(0)
	endSlope := s.Deriv(2)
	test.That(t, s.At(-1), test.ShouldAlmostEqual, -startSlope, 1e-9)
	test.That(t, s.At(3), test.ShouldAlmostEqual, 4+endSlope, 1e-9)
	test.That(t, s.Deriv(-0.5), test.ShouldAlmostEqual, startSlope, 1e-9)
	test.That(t, s.Deriv(2.5), test.ShouldAlmostEqual, endSlope, 1e-9)
	test.That(t, s.Deriv2(-0.5), test.ShouldEqual, 0)
	test.That(t, s.Deriv2(2.5), test.ShouldEqual, 0)
}

func TestCubicRejectsBadKnots(t *testing.T) {
	_, err := NewCubic([]float64{0}, []float64{1})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewCubic([]float64{0, 0.5, 0.5}, []float64{1, 2, 3})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewCubic([]float64{0, 1}, []float64{1})
	test.That(t, err, test.ShouldNotBeNil)
}
