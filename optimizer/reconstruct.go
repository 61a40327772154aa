package optimizer

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ColleyLi/path-optimizer/spatialmath"
	"github.com/ColleyLi/path-optimizer/spline"
)

// cartesianResult maps the QP solution back through the reference frame:
// each sample's output position is the reference point displaced by q along
// the Frenet normal. Cumulative chord length is returned alongside.
func cartesianResult(samples []sample, solution []float64) (xs, ys, ss []float64) {
	n := len(samples)
	xs = make([]float64, n)
	ys = make([]float64, n)
	ss = make([]float64, n)
	total := 0.0
	for i, sp := range samples {
		q := solution[2*i+1]
		normal := spatialmath.WrapAngle(sp.heading + math.Pi/2)
		xs[i] = sp.x + q*math.Cos(normal)
		ys[i] = sp.y + q*math.Sin(normal)
		if i > 0 {
			total += math.Hypot(xs[i]-xs[i-1], ys[i]-ys[i-1])
		}
		ss[i] = total
	}
	return xs, ys, ss
}

// reconstructRaw emits one output state per sample, validating each against
// the collision checker. A collision at the first state fails the plan; a
// later collision emits the failing state and truncates.
func (o *Optimizer) reconstructRaw(samples []sample, solution []float64) ([]spatialmath.State, error) {
	xs, ys, ss := cartesianResult(samples, solution)
	path := make([]spatialmath.State, 0, len(samples))
	for i, sp := range samples {
		state := spatialmath.State{
			X:       xs[i],
			Y:       ys[i],
			Heading: sp.heading + solution[2*i],
			S:       ss[i],
		}
		if !o.checker.IsFree(state) {
			if i == 0 {
				return nil, errors.Wrap(ErrCollisionAtOutput, "first output state in collision")
			}
			o.logger.Debugw("output collision check failed", "index", i, "s", ss[i])
			path = append(path, state)
			return path, nil
		}
		path = append(path, state)
	}
	return path, nil
}

// reconstructDense refits cubic splines through the Cartesian result over
// cumulative chord length and resamples at the densify step. Validation
// stops at the first colliding state; a collision at the very first state
// fails the plan.
func (o *Optimizer) reconstructDense(samples []sample, solution []float64) ([]spatialmath.State, error) {
	xs, ys, ss := cartesianResult(samples, solution)
	xSpline, err := spline.NewCubic(ss, xs)
	if err != nil {
		return nil, errors.Wrap(err, "refitting x spline")
	}
	ySpline, err := spline.NewCubic(ss, ys)
	if err != nil {
		return nil, errors.Wrap(err, "refitting y spline")
	}
	maxS := ss[len(ss)-1]
	var path []spatialmath.State
	emit := func(s float64) (bool, error) {
		state := spatialmath.State{
			X:       xSpline.At(s),
			Y:       ySpline.At(s),
			Heading: math.Atan2(ySpline.Deriv(s), xSpline.Deriv(s)),
			S:       s,
		}
		xd, yd := xSpline.Deriv(s), ySpline.Deriv(s)
		xdd, ydd := xSpline.Deriv2(s), ySpline.Deriv2(s)
		state.Curvature = (xd*ydd - yd*xdd) / math.Pow(xd*xd+yd*yd, 1.5)
		if !o.checker.IsFree(state) {
			if len(path) == 0 {
				return false, errors.Wrap(ErrCollisionAtOutput, "first output state in collision")
			}
			o.logger.Debugw("output collision check failed", "s", s, "length", maxS)
			return false, nil
		}
		path = append(path, state)
		return true, nil
	}
	step := o.cfg.DensifyStep
	for s := 0.0; s < maxS; s += step {
		ok, err := emit(s)
		if err != nil {
			return nil, err
		}
		if !ok {
			return path, nil
		}
	}
	if ok, err := emit(maxS); err != nil {
		return nil, err
	} else if !ok {
		return path, nil
	}
	return path, nil
}
