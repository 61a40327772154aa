package optimizer

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ColleyLi/path-optimizer/smoother"
	"github.com/ColleyLi/path-optimizer/spatialmath"
)

// sample is one discretized reference point. The pose is the rear-axle pose
// on the reference; the corridor is probed at the geometric-center offset.
type sample struct {
	s         float64
	x, y      float64
	heading   float64
	curvature float64
	// corridor packs [l0 r0 l1 r1 l2 r2 l3 r3], one (left, right) pair per
	// covering disc, left >= right.
	corridor [8]float64
}

// discretize samples the smoothed reference along arclength, computes the
// initial Frenet deviation, and probes the free corridor of every covering
// disc at every sample. A zero-width corridor near the end of the reference
// truncates the sample list and clears the terminal heading constraint; a
// start heading too far off the reference tangent aborts the plan.
func (o *Optimizer) discretize(ref *smoother.Reference, safety bool) ([]sample, error) {
	if ref.MaxS == 0 {
		return nil, errors.Wrap(ErrSmoothingFailed, "smoothed reference is empty")
	}

	first := spatialmath.State{
		X:       ref.X.At(0),
		Y:       ref.Y.At(0),
		Heading: ref.Heading(0),
	}
	local := spatialmath.GlobalToLocal(o.start, first)
	dist := spatialmath.Distance(o.start, first)
	if local.Y < 0 {
		o.cte = dist
	} else {
		o.cte = -dist
	}
	o.epsi = spatialmath.WrapAngle(o.start.Heading - first.Heading)
	if math.Abs(o.epsi) > o.cfg.MaxInitialHeadingError {
		return nil, errors.Wrapf(ErrInitialHeadingTooLarge, "epsi %.3f rad", o.epsi)
	}

	// Finer spacing near the start, where the deviation dynamics matter
	// most; skip it entirely when the start heading is already close.
	small := o.cfg.SmallSpacing
	large := o.cfg.SmallSpacing
	if o.densify {
		large = o.cfg.LargeSpacing
	}
	if math.Abs(o.epsi) < o.cfg.SparseHeadingError {
		small = large
	}
	breaks := []float64{0}
	for s := small; s < ref.MaxS; {
		breaks = append(breaks, s)
		if s <= o.cfg.SmallSpacingUntil {
			s += small
		} else {
			s += large
		}
	}
	if ref.MaxS-breaks[len(breaks)-1] > o.cfg.TailGap {
		breaks = append(breaks, ref.MaxS)
	}

	o.useEndHeading = true
	samples := make([]sample, 0, len(breaks))
	for _, s := range breaks {
		sp := sample{
			s:         s,
			x:         ref.X.At(s),
			y:         ref.Y.At(s),
			heading:   ref.Heading(s),
			curvature: ref.Curvature(s),
		}
		center := spatialmath.State{
			X:       sp.x + o.footprint.RearToCenter()*math.Cos(sp.heading),
			Y:       sp.y + o.footprint.RearToCenter()*math.Sin(sp.heading),
			Heading: sp.heading,
			S:       s,
		}
		corridor := o.clearanceFor4Discs(center, safety && s >= o.cfg.SafetyMarginMinS)
		blocked := false
		for k := 0; k < 4; k++ {
			if corridor[2*k] == corridor[2*k+1] {
				blocked = true
				break
			}
		}
		if blocked && s > o.cfg.TruncationFraction*ref.MaxS {
			// Collision is inevitable near the end; plan over the prefix
			// and let the terminal float.
			o.logger.Debugw("truncating sample list at blocked corridor", "s", s, "maxS", ref.MaxS)
			o.useEndHeading = false
			break
		}
		sp.corridor = corridor
		samples = append(samples, sp)
	}
	if len(samples) < o.cfg.MinSamples {
		return nil, errors.Wrapf(ErrInfeasibleCorridor, "%d usable samples", len(samples))
	}
	return samples, nil
}
