// Package gridmap defines the map collaborators the path optimizer consumes:
// a signed-distance query over an occupancy grid and a full-footprint
// collision checker. It also provides concrete implementations of both.
package gridmap

import (
	"github.com/ColleyLi/path-optimizer/spatialmath"
)

// DistanceMap exposes the distance from a position to the nearest obstacle,
// in meters. Implementations return zero or a negative value inside
// obstacles and outside the mapped region.
type DistanceMap interface {
	ClearanceAt(x, y float64) float64
}

// CollisionChecker validates a single state against the full vehicle
// footprint.
type CollisionChecker interface {
	IsFree(state spatialmath.State) bool
}
