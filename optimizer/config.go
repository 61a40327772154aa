// Package optimizer implements a constrained path optimizer for an
// Ackermann-steered vehicle. Given coarse waypoints, a start and end pose,
// and a signed-distance map, it produces a smooth, collision-free path that
// tracks the waypoints: the reference is smoothed and discretized along
// arclength, the vehicle footprint is approximated with four covering discs
// whose lateral free corridors are probed in the distance field, and a
// convex QP over heading deviation, lateral offset and steering angle is
// solved in the Frenet frame of the reference.
package optimizer

import (
	"github.com/ColleyLi/path-optimizer/qpsolver"
	"github.com/ColleyLi/path-optimizer/utils"
)

// Weights is the objective weight quartet.
type Weights struct {
	// Heading penalizes heading deviation from the reference.
	Heading float64
	// Offset penalizes lateral offset from the reference.
	Offset float64
	// Steer penalizes steering magnitude.
	Steer float64
	// SteerRate penalizes steering change between adjacent samples.
	SteerRate float64
}

// Config collects the planner knobs. Zero values are not usable; start from
// DefaultConfig.
type Config struct {
	// Clearance probe.
	ClearanceStep float64 // lateral walk step
	ClearanceCap  float64 // one-sided search range
	// Corridor safety shrink: margin = min(ShrinkRatio*max(width-ShrinkSlack, 0), ShrinkMax),
	// applied only to samples with s >= SafetyMarginMinS.
	CorridorShrinkSlack float64
	CorridorShrinkRatio float64
	CorridorShrinkMax   float64
	SafetyMarginMinS    float64

	// Discretizer spacing.
	SmallSpacing      float64 // spacing near the start
	LargeSpacing      float64 // spacing past SmallSpacingUntil when densifying
	SmallSpacingUntil float64 // arclength where spacing switches
	TailGap           float64 // append S_max only if the gap exceeds this
	// TruncationFraction: a zero-width disc corridor past this fraction of
	// S_max truncates the sample list instead of failing the plan.
	TruncationFraction float64
	MinSamples         int

	// Heading thresholds.
	MaxInitialHeadingError float64 // reject plans beyond this epsi
	SparseHeadingError     float64 // below this, skip the fine start spacing
	MaxSteer               float64

	// Terminal handling.
	TerminalOffsetTol float64
	UseEndHeading     bool // honor the end pose heading in the single solve

	// Lateral sampling.
	LateralInterval float64
	LateralRange    float64 // full swept width cap

	// Output.
	DensifyStep float64

	Weights Weights
	Solver  qpsolver.Settings
}

// DefaultConfig returns the planner defaults.
func DefaultConfig() Config {
	return Config{
		ClearanceStep:          0.2,
		ClearanceCap:           5.0,
		CorridorShrinkSlack:    0.6,
		CorridorShrinkRatio:    0.2,
		CorridorShrinkMax:      0.5,
		SafetyMarginMinS:       10.0,
		SmallSpacing:           0.3,
		LargeSpacing:           1.0,
		SmallSpacingUntil:      2.0,
		TailGap:                1.0,
		TruncationFraction:     0.75,
		MinSamples:             3,
		MaxInitialHeadingError: utils.DegToRad(75),
		SparseHeadingError:     utils.DegToRad(20),
		MaxSteer:               utils.DegToRad(30),
		TerminalOffsetTol:      0.1,
		UseEndHeading:          false,
		LateralInterval:        0.3,
		LateralRange:           6.0,
		DensifyStep:            0.3,
		Weights: Weights{
			Heading:   0,
			Offset:    0.01,
			Steer:     10,
			SteerRate: 1000,
		},
		Solver: qpsolver.DefaultSettings(),
	}
}

// VehicleConfig describes the vehicle rectangle and axle geometry.
type VehicleConfig struct {
	Width            float64
	Length           float64
	SafetyMargin     float64 // added to the covering disc radius
	RearAxleToCenter float64
	Wheelbase        float64
}

// DefaultVehicleConfig returns the geometry of the reference vehicle.
func DefaultVehicleConfig() VehicleConfig {
	return VehicleConfig{
		Width:            2.0,
		Length:           4.9,
		SafetyMargin:     0.1,
		RearAxleToCenter: 1.45,
		Wheelbase:        2.85,
	}
}
