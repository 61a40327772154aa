package gridmap

import (
	"math"

	"github.com/ColleyLi/path-optimizer/spatialmath"
)

// FootprintChecker is a CollisionChecker that covers the vehicle with discs
// and validates each disc center against a DistanceMap. States passed to
// IsFree are rear-axle poses; the disc offsets are longitudinal distances
// from the geometric center.
type FootprintChecker struct {
	dm           DistanceMap
	rearToCenter float64
	offsets      []float64
	radius       float64
}

// NewFootprintChecker builds a checker from the disc layout.
func NewFootprintChecker(dm DistanceMap, rearToCenter float64, offsets []float64, radius float64) *FootprintChecker {
	return &FootprintChecker{
		dm:           dm,
		rearToCenter: rearToCenter,
		offsets:      append([]float64{}, offsets...),
		radius:       radius,
	}
}

// IsFree reports whether every covering disc has clearance greater than its
// radius at the given state.
func (c *FootprintChecker) IsFree(state spatialmath.State) bool {
	sin, cos := math.Sincos(state.Heading)
	cx := state.X + c.rearToCenter*cos
	cy := state.Y + c.rearToCenter*sin
	for _, d := range c.offsets {
		if c.dm.ClearanceAt(cx+d*cos, cy+d*sin) <= c.radius {
			return false
		}
	}
	return true
}
