package optimizer

import (
	"testing"

	"go.viam.com/test"

	"github.com/ColleyLi/path-optimizer/qpsolver"
	"github.com/ColleyLi/path-optimizer/utils"
)

func testSamples() []sample {
	mk := func(s, heading, curvature float64) sample {
		sp := sample{s: s, x: s, heading: heading, curvature: curvature}
		sp.corridor = [8]float64{2, -2, 2.1, -2.1, 2.2, -2.2, 2.3, -2.3}
		return sp
	}
	return []sample{mk(0, 0, 0), mk(1, 0.05, 0.1), mk(2.5, 0.1, 0.05)}
}

func TestBuildProblemDimensions(t *testing.T) {
	cfg := DefaultConfig()
	fp := NewFootprint(DefaultVehicleConfig())
	prob := buildProblem(testSamples(), fp, &cfg, 0.1, 0.2, terminalCondition{offsetTol: 0.1})

	n := 3
	test.That(t, prob.numVars(), test.ShouldEqual, 3*n-1)
	rows, cols := prob.constraints.Dims()
	test.That(t, rows, test.ShouldEqual, 9*n-1)
	test.That(t, cols, test.ShouldEqual, 3*n-1)
	hr, hc := prob.hessian.Dims()
	test.That(t, hr, test.ShouldEqual, 3*n-1)
	test.That(t, hc, test.ShouldEqual, 3*n-1)
	test.That(t, prob.gradient, test.ShouldHaveLength, 3*n-1)
	test.That(t, prob.lower, test.ShouldHaveLength, 9*n-1)
	test.That(t, prob.upper, test.ShouldHaveLength, 9*n-1)
	test.That(t, prob.terminalOffsetRow(), test.ShouldEqual, 4*n-1)
	test.That(t, prob.corridorRow(0), test.ShouldEqual, 5*n-1)

	// No linear objective term.
	for _, g := range prob.gradient {
		test.That(t, g, test.ShouldEqual, 0)
	}
}

func TestBuildProblemInitialState(t *testing.T) {
	cfg := DefaultConfig()
	fp := NewFootprint(DefaultVehicleConfig())
	prob := buildProblem(testSamples(), fp, &cfg, 0.1, 0.2, terminalCondition{offsetTol: 0.1})

	// psi_0 = epsi.
	test.That(t, prob.constraints.At(0, 0), test.ShouldEqual, 1)
	test.That(t, prob.lower[0], test.ShouldEqual, 0.1)
	test.That(t, prob.upper[0], test.ShouldEqual, 0.1)
	// q_0 = cte.
	test.That(t, prob.constraints.At(1, 1), test.ShouldEqual, 1)
	test.That(t, prob.lower[1], test.ShouldEqual, 0.2)
	test.That(t, prob.upper[1], test.ShouldEqual, 0.2)
}

func TestBuildProblemTransitions(t *testing.T) {
	cfg := DefaultConfig()
	fp := NewFootprint(DefaultVehicleConfig())
	samples := testSamples()
	prob := buildProblem(samples, fp, &cfg, 0, 0, terminalCondition{offsetTol: 0.1})
	n := len(samples)

	for i := 0; i < n-1; i++ {
		h := samples[i+1].s - samples[i].s
		// Lateral transition q_{i+1} - q_i - h*psi_i = 0.
		row := 2 + 2*i
		test.That(t, prob.constraints.At(row, 2*(i+1)+1), test.ShouldEqual, 1)
		test.That(t, prob.constraints.At(row, 2*i+1), test.ShouldEqual, -1)
		test.That(t, prob.constraints.At(row, 2*i), test.ShouldAlmostEqual, -h)
		test.That(t, prob.lower[row], test.ShouldEqual, 0)
		test.That(t, prob.upper[row], test.ShouldEqual, 0)

		// Heading transition with the linearized steering term.
		row = 3 + 2*i
		test.That(t, prob.constraints.At(row, 2*(i+1)), test.ShouldEqual, 1)
		test.That(t, prob.constraints.At(row, 2*i), test.ShouldEqual, -1)
		test.That(t, prob.constraints.At(row, 2*n+i), test.ShouldAlmostEqual, -h/fp.Wheelbase())
		test.That(t, prob.lower[row], test.ShouldAlmostEqual, -h*samples[i].curvature)
		test.That(t, prob.upper[row], test.ShouldAlmostEqual, -h*samples[i].curvature)
	}
}

func TestBuildProblemBounds(t *testing.T) {
	cfg := DefaultConfig()
	fp := NewFootprint(DefaultVehicleConfig())
	samples := testSamples()
	prob := buildProblem(samples, fp, &cfg, 0, 0, terminalCondition{offset: 0.5, offsetTol: 0.1})
	n := len(samples)

	// Steering rows.
	for i := 0; i < n-1; i++ {
		row := 4*n + i
		test.That(t, prob.constraints.At(row, 2*n+i), test.ShouldEqual, 1)
		test.That(t, prob.lower[row], test.ShouldAlmostEqual, -utils.DegToRad(30))
		test.That(t, prob.upper[row], test.ShouldAlmostEqual, utils.DegToRad(30))
	}

	// Terminal lateral pin at row 4N-1.
	row := prob.terminalOffsetRow()
	test.That(t, prob.constraints.At(row, 2*(n-1)+1), test.ShouldEqual, 1)
	test.That(t, prob.lower[row], test.ShouldAlmostEqual, 0.4)
	test.That(t, prob.upper[row], test.ShouldAlmostEqual, 0.6)

	// Interior lateral rows are free.
	test.That(t, prob.upper[3*n], test.ShouldEqual, qpsolver.Infinity)
	test.That(t, prob.lower[3*n], test.ShouldEqual, -qpsolver.Infinity)
}

func TestBuildProblemCorridorRows(t *testing.T) {
	cfg := DefaultConfig()
	fp := NewFootprint(DefaultVehicleConfig())
	samples := testSamples()
	prob := buildProblem(samples, fp, &cfg, 0, 0, terminalCondition{offsetTol: 0.1})
	offsets := fp.DiscOffsets()

	for i := range samples {
		for k := 0; k < 4; k++ {
			row := prob.corridorRow(i) + k
			test.That(t, prob.constraints.At(row, 2*i+1), test.ShouldEqual, 1)
			test.That(t, prob.constraints.At(row, 2*i), test.ShouldAlmostEqual, offsets[k])
			test.That(t, prob.upper[row], test.ShouldAlmostEqual, samples[i].corridor[2*k])
			test.That(t, prob.lower[row], test.ShouldAlmostEqual, samples[i].corridor[2*k+1])
		}
	}
}

func TestBuildProblemTerminalHeading(t *testing.T) {
	cfg := DefaultConfig()
	fp := NewFootprint(DefaultVehicleConfig())
	samples := testSamples()
	n := len(samples)

	free := buildProblem(samples, fp, &cfg, 0, 0, terminalCondition{offsetTol: 0.1})
	row := 2*n + n - 1
	test.That(t, free.lower[row], test.ShouldAlmostEqual, -cfg.MaxInitialHeadingError)
	test.That(t, free.upper[row], test.ShouldAlmostEqual, cfg.MaxInitialHeadingError)

	pinned := buildProblem(samples, fp, &cfg, 0, 0, terminalCondition{
		offsetTol:        0.1,
		heading:          0.3,
		constrainHeading: true,
	})
	wantPsi := 0.3 - samples[n-1].heading
	test.That(t, pinned.lower[row], test.ShouldAlmostEqual, wantPsi)
	test.That(t, pinned.upper[row], test.ShouldAlmostEqual, wantPsi)
}

func TestBuildProblemHessian(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = Weights{Heading: 1, Offset: 2, Steer: 3, SteerRate: 4}
	fp := NewFootprint(DefaultVehicleConfig())
	samples := testSamples()
	prob := buildProblem(samples, fp, &cfg, 0, 0, terminalCondition{offsetTol: 0.1})
	n := len(samples)

	test.That(t, prob.hessian.At(0, 0), test.ShouldEqual, 1)
	test.That(t, prob.hessian.At(1, 1), test.ShouldEqual, 2)
	// First steering variable carries the rate coupling once.
	d0, d1 := 2*n, 2*n+1
	test.That(t, prob.hessian.At(d0, d0), test.ShouldEqual, 3+4)
	test.That(t, prob.hessian.At(d1, d1), test.ShouldEqual, 3+4)
	test.That(t, prob.hessian.At(d0, d1), test.ShouldEqual, -4)
	test.That(t, prob.hessian.At(d1, d0), test.ShouldEqual, -4)
	// Cross terms between states and steering are zero.
	test.That(t, prob.hessian.At(0, d0), test.ShouldEqual, 0)
}
