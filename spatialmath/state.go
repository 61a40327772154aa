// Package spatialmath implements the planar geometry used throughout the path optimizer.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
)

// State is a single vehicle or path state. X and Y are in meters, Heading in
// radians wrapped to (-pi, pi]. S is the arclength along a known curve and is
// only meaningful for states placed on one. Curvature is the signed curvature
// of that curve at S.
type State struct {
	X, Y      float64
	Heading   float64
	S         float64
	Curvature float64
}

// Point returns the position of the state.
func (s State) Point() r2.Point {
	return r2.Point{X: s.X, Y: s.Y}
}

// Distance returns the Euclidean distance between two states.
func Distance(a, b State) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// GlobalToLocal expresses pt in the 2D frame rooted at frame's position and
// rotated by frame's heading.
func GlobalToLocal(frame, pt State) State {
	dx := pt.X - frame.X
	dy := pt.Y - frame.Y
	sin, cos := math.Sincos(frame.Heading)
	return State{
		X:       dx*cos + dy*sin,
		Y:       -dx*sin + dy*cos,
		Heading: WrapAngle(pt.Heading - frame.Heading),
	}
}

// Project returns the state displaced by dist along direction angle.
func Project(s State, dist, angle float64) State {
	return State{
		X:       s.X + dist*math.Cos(angle),
		Y:       s.Y + dist*math.Sin(angle),
		Heading: s.Heading,
		S:       s.S,
	}
}
