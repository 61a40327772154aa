package optimizer

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/ColleyLi/path-optimizer/gridmap"
	"github.com/ColleyLi/path-optimizer/spatialmath"
)

// lateralCorridor sweeps the distance field left and right along the normal
// of a disc center pose and returns the free interval [left, right], with
// left >= right (left positive, right typically negative). Equal bounds mean
// the disc has no lateral freedom.
//
// When the disc origin itself is in collision, both sides are probed up to
// half the search cap for an escape; the side that escapes sooner is walked
// outward to the far wall while the other bound is clamped to the escape
// distance, so the returned corridor contains the rescue direction.
func lateralCorridor(dm gridmap.DistanceMap, center spatialmath.State, radius float64, safety bool, cfg *Config) (float64, float64) {
	step := cfg.ClearanceStep
	leftAngle := spatialmath.WrapAngle(center.Heading + math.Pi/2)
	rightAngle := spatialmath.WrapAngle(center.Heading - math.Pi/2)
	leftDir := r2.Point{X: math.Cos(leftAngle), Y: math.Sin(leftAngle)}
	rightDir := r2.Point{X: math.Cos(rightAngle), Y: math.Sin(rightAngle)}
	origin := center.Point()
	n := int(cfg.ClearanceCap / step)

	free := func(p r2.Point) bool { return dm.ClearanceAt(p.X, p.Y) > radius }

	var leftBound, rightBound float64
	if free(origin) {
		rightS := 0.0
		for j := 0; j != n; j++ {
			rightS += step
			if !free(origin.Add(rightDir.Mul(rightS))) {
				break
			}
		}
		leftS := 0.0
		for j := 0; j != n; j++ {
			leftS += step
			if !free(origin.Add(leftDir.Mul(leftS))) {
				break
			}
		}
		rightBound = -(rightS - step)
		leftBound = leftS - step
	} else {
		// Already in collision; probe both sides for an escape.
		rightS := 0.0
		for j := 0; j != n/2; j++ {
			rightS += step
			if free(origin.Add(rightDir.Mul(rightS))) {
				break
			}
		}
		leftS := 0.0
		for j := 0; j != n/2; j++ {
			leftS += step
			if free(origin.Add(leftDir.Mul(leftS))) {
				break
			}
		}
		if leftS < rightS {
			// Left escapes sooner.
			rightBound = leftS
			for j := 0; j != n; j++ {
				leftS += step
				if !free(origin.Add(leftDir.Mul(leftS))) {
					break
				}
			}
			leftBound = leftS - step
		} else {
			leftBound = -rightS
			for j := 0; j != n; j++ {
				rightS += step
				if !free(origin.Add(rightDir.Mul(rightS))) {
					break
				}
			}
			rightBound = -(rightS - step)
		}
	}

	if safety {
		base := math.Max(leftBound-rightBound-cfg.CorridorShrinkSlack, 0)
		margin := math.Min(base*cfg.CorridorShrinkRatio, cfg.CorridorShrinkMax)
		leftBound -= margin
		rightBound += margin
	}
	return leftBound, rightBound
}

// clearanceFor4Discs probes the corridor of each covering disc around the
// geometric-center pose and returns the packed corridor vector
// [l0 r0 l1 r1 l2 r2 l3 r3]. Boundary vertices of the rear, center-front and
// front discs are recorded for visualization.
func (o *Optimizer) clearanceFor4Discs(center spatialmath.State, safety bool) [8]float64 {
	var corridor [8]float64
	discs := o.footprint.Discs()
	sin, cos := math.Sincos(center.Heading)
	var centers [4]spatialmath.State
	for k, d := range discs {
		centers[k] = spatialmath.State{
			X:       center.X + d.Offset*cos,
			Y:       center.Y + d.Offset*sin,
			Heading: center.Heading,
		}
		left, right := lateralCorridor(o.dm, centers[k], d.Radius, safety, &o.cfg)
		corridor[2*k] = left
		corridor[2*k+1] = right
	}

	normal := spatialmath.WrapAngle(center.Heading + math.Pi/2)
	record := func(buf *[]spatialmath.State, c spatialmath.State, offset float64) {
		*buf = append(*buf, spatialmath.Project(c, offset, normal))
	}
	record(&o.rearBounds, centers[0], corridor[0])
	record(&o.rearBounds, centers[0], corridor[1])
	record(&o.centerBounds, centers[2], corridor[4])
	record(&o.centerBounds, centers[2], corridor[5])
	record(&o.frontBounds, centers[3], corridor[6])
	record(&o.frontBounds, centers[3], corridor[7])
	return corridor
}
