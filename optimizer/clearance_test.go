package optimizer

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/ColleyLi/path-optimizer/gridmap"
	"github.com/ColleyLi/path-optimizer/spatialmath"
)

const probeRadius = 1.1727 // hypot(4.9/8, 1.0), uninflated

func probeGrid(t *testing.T) *gridmap.Grid {
	t.Helper()
	g, err := gridmap.NewGrid(-6, -8, 32, 16, 0.1)
	test.That(t, err, test.ShouldBeNil)
	return g
}

func TestCorridorOpenSpace(t *testing.T) {
	g := probeGrid(t)
	cfg := DefaultConfig()
	left, right := lateralCorridor(g, spatialmath.State{X: 5, Y: 0}, probeRadius, false, &cfg)
	// Both walks run to the cap without meeting an obstacle; each bound is
	// recorded one step short of the cap.
	test.That(t, left, test.ShouldAlmostEqual, 4.8)
	test.That(t, right, test.ShouldAlmostEqual, -4.8)
}

func TestCorridorWallOnLeft(t *testing.T) {
	g := probeGrid(t)
	g.AddObstacleRect(-6, 2, 26, 8)
	cfg := DefaultConfig()
	left, right := lateralCorridor(g, spatialmath.State{X: 5, Y: 0}, probeRadius, false, &cfg)
	test.That(t, left, test.ShouldAlmostEqual, 0.8, 0.21)
	test.That(t, right, test.ShouldAlmostEqual, -4.8)
	test.That(t, left, test.ShouldBeGreaterThanOrEqualTo, right)
}

func TestCorridorSafetyShrink(t *testing.T) {
	g := probeGrid(t)
	g.AddObstacleRect(-6, 2, 26, 8)
	cfg := DefaultConfig()
	rawLeft, rawRight := lateralCorridor(g, spatialmath.State{X: 5, Y: 0}, probeRadius, false, &cfg)
	left, right := lateralCorridor(g, spatialmath.State{X: 5, Y: 0}, probeRadius, true, &cfg)
	base := math.Max(rawLeft-rawRight-cfg.CorridorShrinkSlack, 0)
	margin := math.Min(base*cfg.CorridorShrinkRatio, cfg.CorridorShrinkMax)
	test.That(t, left, test.ShouldAlmostEqual, rawLeft-margin, 1e-9)
	test.That(t, right, test.ShouldAlmostEqual, rawRight+margin, 1e-9)
}

func TestCorridorRescueRight(t *testing.T) {
	// The probe origin is inside the obstacle's inflation, with the nearer
	// escape below (to the right of the heading).
	g := probeGrid(t)
	g.AddObstacleDisc(5, 1, 1)
	cfg := DefaultConfig()
	left, right := lateralCorridor(g, spatialmath.State{X: 5, Y: 0.5}, probeRadius, false, &cfg)
	test.That(t, left, test.ShouldBeGreaterThanOrEqualTo, right)
	// The whole corridor sits on the escape side: the left bound is the
	// negated escape distance, clamping out the collision zone.
	test.That(t, left, test.ShouldBeLessThan, 0.0)
	test.That(t, right, test.ShouldBeLessThan, left)
}

func TestCorridorRescueLeftClampsRightBound(t *testing.T) {
	// Escape is upward; the right bound is clamped to the positive escape
	// distance, so the corridor contains the rescue direction only.
	g := probeGrid(t)
	g.AddObstacleDisc(5, -1, 1)
	cfg := DefaultConfig()
	left, right := lateralCorridor(g, spatialmath.State{X: 5, Y: -0.5}, probeRadius, false, &cfg)
	test.That(t, right, test.ShouldBeGreaterThan, 0.0)
	test.That(t, left, test.ShouldBeGreaterThan, right)
}

func TestCorridorFullyBlockedCollapses(t *testing.T) {
	// No escape within half the cap on either side: the bounds collapse to
	// an equal pair, signalling an infeasible disc.
	g := probeGrid(t)
	g.AddObstacleRect(0, -8, 10, 8)
	cfg := DefaultConfig()
	left, right := lateralCorridor(g, spatialmath.State{X: 5, Y: 0}, probeRadius, false, &cfg)
	test.That(t, left, test.ShouldEqual, right)
}

func TestClearanceFor4DiscsRecordsBounds(t *testing.T) {
	g := probeGrid(t)
	o := newStraightOptimizer(t, g, spatialmath.State{}, false, nil)
	corridor := o.clearanceFor4Discs(spatialmath.State{X: 5, Y: 0}, false)
	for k := 0; k < 4; k++ {
		test.That(t, corridor[2*k], test.ShouldBeGreaterThanOrEqualTo, corridor[2*k+1])
	}
	test.That(t, o.RearBounds(), test.ShouldHaveLength, 2)
	test.That(t, o.CenterBounds(), test.ShouldHaveLength, 2)
	test.That(t, o.FrontBounds(), test.ShouldHaveLength, 2)
}
