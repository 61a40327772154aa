package optimizer

import "math"

// Disc is one covering disc: a signed longitudinal offset from the vehicle's
// geometric center and a radius.
type Disc struct {
	Offset float64
	Radius float64
}

// Footprint overapproximates the vehicle rectangle with four covering discs
// of a common inflated radius, centered at +-3L/8 and +-L/8 from the
// geometric center. It is fixed for the lifetime of the optimizer.
type Footprint struct {
	discs        [4]Disc
	rearToCenter float64
	wheelbase    float64
}

// NewFootprint builds the disc cover for the given vehicle.
func NewFootprint(cfg VehicleConfig) Footprint {
	radius := math.Hypot(cfg.Length/8, cfg.Width/2) + cfg.SafetyMargin
	fp := Footprint{
		rearToCenter: cfg.RearAxleToCenter,
		wheelbase:    cfg.Wheelbase,
	}
	offsets := [4]float64{-3.0 / 8.0 * cfg.Length, -1.0 / 8.0 * cfg.Length, 1.0 / 8.0 * cfg.Length, 3.0 / 8.0 * cfg.Length}
	for i, d := range offsets {
		fp.discs[i] = Disc{Offset: d, Radius: radius}
	}
	return fp
}

// Discs returns the four covering discs, rear to front.
func (f Footprint) Discs() [4]Disc { return f.discs }

// Radius returns the common inflated disc radius.
func (f Footprint) Radius() float64 { return f.discs[0].Radius }

// DiscOffsets returns the longitudinal offsets of the discs from the
// geometric center.
func (f Footprint) DiscOffsets() []float64 {
	return []float64{f.discs[0].Offset, f.discs[1].Offset, f.discs[2].Offset, f.discs[3].Offset}
}

// RearToCenter returns the rear axle to geometric center distance.
func (f Footprint) RearToCenter() float64 { return f.rearToCenter }

// Wheelbase returns the axle distance.
func (f Footprint) Wheelbase() float64 { return f.wheelbase }
