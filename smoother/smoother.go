// Package smoother turns a coarse waypoint sequence into an
// arclength-parameterized reference curve. The optimizer consumes smoothers
// through the Smoother interface; ChordSmoother is the default
// implementation.
package smoother

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/ColleyLi/path-optimizer/spatialmath"
	"github.com/ColleyLi/path-optimizer/spline"
)

// Reference is a smoothed reference curve: cubic splines X(s), Y(s) over
// s in [0, MaxS], plus the coarse path the splines were fit through with
// arclength and heading filled in.
type Reference struct {
	X, Y   *spline.Cubic
	MaxS   float64
	Coarse []spatialmath.State
}

// Heading returns the tangent direction at s.
func (r *Reference) Heading(s float64) float64 {
	return math.Atan2(r.Y.Deriv(s), r.X.Deriv(s))
}

// Curvature returns the signed curvature at s.
func (r *Reference) Curvature(s float64) float64 {
	xd := r.X.Deriv(s)
	yd := r.Y.Deriv(s)
	xdd := r.X.Deriv2(s)
	ydd := r.Y.Deriv2(s)
	return (xd*ydd - yd*xdd) / math.Pow(xd*xd+yd*yd, 1.5)
}

// Smoother fits a reference curve through raw waypoints.
type Smoother interface {
	Smooth(waypoints []spatialmath.State, start spatialmath.State) (*Reference, error)
}

// ChordSmoother parameterizes the waypoints by cumulative chord length and
// fits natural cubic splines through them.
type ChordSmoother struct {
	logger golog.Logger
}

// NewChordSmoother returns a ChordSmoother.
func NewChordSmoother(logger golog.Logger) *ChordSmoother {
	return &ChordSmoother{logger: logger}
}

// minWaypointGap drops duplicate waypoints that would collapse spline knots.
const minWaypointGap = 1e-6

// Smooth implements Smoother.
func (cs *ChordSmoother) Smooth(waypoints []spatialmath.State, start spatialmath.State) (*Reference, error) {
	if len(waypoints) == 0 {
		return nil, errors.New("no waypoints")
	}
	ss := make([]float64, 0, len(waypoints))
	xs := make([]float64, 0, len(waypoints))
	ys := make([]float64, 0, len(waypoints))
	total := 0.0
	for i, wp := range waypoints {
		if i > 0 {
			gap := math.Hypot(wp.X-waypoints[i-1].X, wp.Y-waypoints[i-1].Y)
			if gap < minWaypointGap {
				continue
			}
			total += gap
		}
		ss = append(ss, total)
		xs = append(xs, wp.X)
		ys = append(ys, wp.Y)
	}
	if len(ss) < 2 {
		return nil, errors.New("need at least two distinct waypoints")
	}
	x, err := spline.NewCubic(ss, xs)
	if err != nil {
		return nil, errors.Wrap(err, "fitting x spline")
	}
	y, err := spline.NewCubic(ss, ys)
	if err != nil {
		return nil, errors.Wrap(err, "fitting y spline")
	}
	ref := &Reference{X: x, Y: y, MaxS: total}
	coarse := make([]spatialmath.State, len(ss))
	for i := range ss {
		coarse[i] = spatialmath.State{
			X:         xs[i],
			Y:         ys[i],
			S:         ss[i],
			Heading:   ref.Heading(ss[i]),
			Curvature: ref.Curvature(ss[i]),
		}
	}
	ref.Coarse = coarse
	cs.logger.Debugw("smoothed reference", "waypoints", len(waypoints), "knots", len(ss), "length", total)
	return ref, nil
}
