package optimizer

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ColleyLi/path-optimizer/gridmap"
	"github.com/ColleyLi/path-optimizer/qpsolver"
	"github.com/ColleyLi/path-optimizer/smoother"
	"github.com/ColleyLi/path-optimizer/spatialmath"
	"github.com/ColleyLi/path-optimizer/spline"
)

// Optimizer plans a smooth, collision-free, kinematically plausible path
// tracking a coarse waypoint sequence. The grid map and collision checker
// are shared read-only references that must outlive every call; the solver
// handles are owned exclusively. Calls are blocking and single-threaded; an
// instance must not be used from two goroutines at once.
type Optimizer struct {
	cfg       Config
	footprint Footprint
	waypoints []spatialmath.State
	start     spatialmath.State
	end       spatialmath.State
	dm        gridmap.DistanceMap
	checker   gridmap.CollisionChecker
	densify   bool
	smoother  smoother.Smoother
	logger    golog.Logger

	// Plan state, rebuilt per call.
	cte           float64
	epsi          float64
	useEndHeading bool

	// Visualization buffers.
	smoothedPath []spatialmath.State
	rearBounds   []spatialmath.State
	centerBounds []spatialmath.State
	frontBounds  []spatialmath.State

	// Dynamic re-solve state; present once OptimizeDynamic has run.
	dynamic *dynamicSolver
}

// dynamicSolver holds the warm solver and the fixed reference of the
// dynamic re-plan mode.
type dynamicSolver struct {
	driver  *qpDriver
	samples []sample
}

// New creates an optimizer for one planning query. The waypoint list, start
// and end pose, and map collaborators are fixed for the optimizer's
// lifetime; densify selects dense spline resampling of the output.
func New(
	cfg Config,
	vehicle VehicleConfig,
	waypoints []spatialmath.State,
	start, end spatialmath.State,
	dm gridmap.DistanceMap,
	checker gridmap.CollisionChecker,
	densify bool,
	logger golog.Logger,
) *Optimizer {
	return &Optimizer{
		cfg:       cfg,
		footprint: NewFootprint(vehicle),
		waypoints: append([]spatialmath.State{}, waypoints...),
		start:     start,
		end:       end,
		dm:        dm,
		checker:   checker,
		densify:   densify,
		smoother:  smoother.NewChordSmoother(logger),
		logger:    logger,
	}
}

// Footprint returns the covering-disc model in use.
func (o *Optimizer) Footprint() Footprint { return o.footprint }

// SetSmoother replaces the reference smoother. The default is a
// chord-length spline smoother.
func (o *Optimizer) SetSmoother(s smoother.Smoother) { o.smoother = s }

// SmoothedPath returns the coarse smoothed reference of the last plan.
func (o *Optimizer) SmoothedPath() []spatialmath.State { return o.smoothedPath }

// RearBounds returns the rear disc corridor boundary vertices of the last
// plan, alternating left and right.
func (o *Optimizer) RearBounds() []spatialmath.State { return o.rearBounds }

// CenterBounds returns the center disc corridor boundary vertices.
func (o *Optimizer) CenterBounds() []spatialmath.State { return o.centerBounds }

// FrontBounds returns the front disc corridor boundary vertices.
func (o *Optimizer) FrontBounds() []spatialmath.State { return o.frontBounds }

func (o *Optimizer) resetVisualization() {
	o.smoothedPath = nil
	o.rearBounds = nil
	o.centerBounds = nil
	o.frontBounds = nil
}

// Solve produces the single best path.
func (o *Optimizer) Solve() ([]spatialmath.State, error) {
	if len(o.waypoints) == 0 {
		return nil, ErrEmptyInput
	}
	o.resetVisualization()
	ref, err := o.smoother.Smooth(o.waypoints, o.start)
	if err != nil {
		return nil, errors.Wrap(ErrSmoothingFailed, err.Error())
	}
	o.smoothedPath = ref.Coarse
	samples, err := o.discretize(ref, true)
	if err != nil {
		return nil, err
	}
	o.logger.Debugw("discretized reference", "samples", len(samples), "cte", o.cte, "epsi", o.epsi)

	prob := buildProblem(samples, o.footprint, &o.cfg, o.epsi, o.cte, terminalCondition{
		offset:           0,
		offsetTol:        o.cfg.TerminalOffsetTol,
		heading:          o.end.Heading,
		constrainHeading: o.cfg.UseEndHeading && o.useEndHeading,
	})
	driver, err := newQPDriver(qpsolver.NewADMM(o.cfg.Solver, o.logger), prob)
	if err != nil {
		return nil, errors.Wrap(ErrSolverFailed, err.Error())
	}
	solution, err := driver.solve()
	if err != nil {
		return nil, errors.Wrap(ErrSolverFailed, err.Error())
	}
	if o.densify {
		return o.reconstructDense(samples, solution)
	}
	return o.reconstructRaw(samples, solution)
}

// SamplePaths produces a set of alternative paths by solving the QP for a
// range of terminal lateral offsets at each requested longitudinal
// distance. Failures of individual candidates are swallowed; the call fails
// only when no candidate yields a path.
func (o *Optimizer) SamplePaths(lonSet, latSet []float64) ([][]spatialmath.State, error) {
	if len(o.waypoints) == 0 {
		return nil, ErrEmptyInput
	}
	o.resetVisualization()
	ref, err := o.smoother.Smooth(o.waypoints, o.start)
	if err != nil {
		return nil, errors.Wrap(ErrSmoothingFailed, err.Error())
	}
	o.smoothedPath = ref.Coarse
	samples, err := o.discretize(ref, false)
	if err != nil {
		return nil, err
	}

	initialOffset := 0.0
	if len(latSet) > 0 {
		initialOffset = latSet[0]
	}
	var paths [][]spatialmath.State
	var swallowed error
	for _, lon := range lonSet {
		prefix := samples
		for i, sp := range samples {
			if sp.s > lon {
				prefix = samples[:i]
				break
			}
		}
		if len(prefix) < o.cfg.MinSamples {
			swallowed = multierr.Append(swallowed, errors.Wrapf(ErrInfeasibleCorridor, "prefix at lon %.1f has %d samples", lon, len(prefix)))
			continue
		}
		found, err := o.sampleSingleLongitudinal(prefix, initialOffset)
		swallowed = multierr.Append(swallowed, err)
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		if swallowed != nil {
			o.logger.Debugw("lateral sampling produced no path", "error", swallowed)
		}
		return nil, ErrNoPathFound
	}
	return paths, nil
}

// sampleSingleLongitudinal solves the QP over the given sample prefix for
// every candidate terminal offset, reusing the solver via bounds updates.
func (o *Optimizer) sampleSingleLongitudinal(prefix []sample, initialOffset float64) ([][]spatialmath.State, error) {
	prob := buildProblem(prefix, o.footprint, &o.cfg, o.epsi, o.cte, terminalCondition{
		offset:    initialOffset,
		offsetTol: o.cfg.TerminalOffsetTol,
	})
	driver, err := newQPDriver(qpsolver.NewADMM(o.cfg.Solver, o.logger), prob)
	if err != nil {
		return nil, err
	}

	terminal := prefix[len(prefix)-1]
	var paths [][]spatialmath.State
	var swallowed error
	for _, offset := range o.terminalOffsets(terminal) {
		candidate := spatialmath.State{
			X:       terminal.x + offset*math.Cos(terminal.heading+math.Pi/2),
			Y:       terminal.y + offset*math.Sin(terminal.heading+math.Pi/2),
			Heading: terminal.heading,
		}
		if !o.checker.IsFree(candidate) {
			continue
		}
		if err := driver.setTerminalOffset(offset, o.cfg.TerminalOffsetTol); err != nil {
			swallowed = multierr.Append(swallowed, err)
			break
		}
		solution, err := driver.solve()
		if err != nil {
			swallowed = multierr.Append(swallowed, errors.Wrapf(err, "terminal offset %.2f", offset))
			continue
		}
		path, err := o.reconstructDense(prefix, solution)
		if err != nil {
			swallowed = multierr.Append(swallowed, errors.Wrapf(err, "terminal offset %.2f", offset))
			continue
		}
		if len(path) > 0 {
			paths = append(paths, path)
		}
	}
	o.logger.Debugw("sampled longitudinal", "s", terminal.s, "paths", len(paths))
	return paths, swallowed
}

// terminalOffsets enumerates the candidate terminal lateral offsets across
// the terminal rear-disc corridor, clipping the swept width to the
// configured range and always appending the zero offset last.
func (o *Optimizer) terminalOffsets(terminal sample) []float64 {
	left := terminal.corridor[0]
	right := terminal.corridor[1]
	width := left - right
	reduced := 0.0
	if width >= o.cfg.LateralRange {
		reduced = (width - o.cfg.LateralRange) / 2
	}
	var offsets []float64
	for i := 0; float64(i)*o.cfg.LateralInterval <= width-2*reduced; i++ {
		offsets = append(offsets, right+reduced+float64(i)*o.cfg.LateralInterval)
	}
	return append(offsets, 0)
}

// OptimizeDynamic re-plans on a caller-provided reference: sList fixes the
// arclength breakpoints on the splines through the construction waypoints
// (which must carry arclength), and clearances provides the packed corridor
// vector per breakpoint. The first call builds and solves the full QP;
// subsequent calls rewrite only the corridor bound rows and re-solve warm,
// so the caller must pass an identical sList each time. Output states are
// not collision checked.
func (o *Optimizer) OptimizeDynamic(sList []float64, clearances [][]float64) ([]spatialmath.State, error) {
	if len(sList) == 0 {
		return nil, ErrEmptyInput
	}
	if len(sList) != len(clearances) {
		return nil, errors.Errorf("got %d breakpoints but %d corridor entries", len(sList), len(clearances))
	}
	if o.dynamic == nil {
		samples, err := o.dynamicSamples(sList, clearances)
		if err != nil {
			return nil, err
		}
		prob := buildProblem(samples, o.footprint, &o.cfg, 0, 0, terminalCondition{
			offset:           0,
			offsetTol:        o.cfg.TerminalOffsetTol,
			heading:          o.end.Heading,
			constrainHeading: true,
		})
		driver, err := newQPDriver(qpsolver.NewADMM(o.cfg.Solver, o.logger), prob)
		if err != nil {
			return nil, errors.Wrap(ErrSolverFailed, err.Error())
		}
		o.dynamic = &dynamicSolver{driver: driver, samples: samples}
	} else {
		if len(sList) != len(o.dynamic.samples) {
			return nil, errors.Errorf("dynamic re-solve requires the original %d breakpoints, got %d", len(o.dynamic.samples), len(sList))
		}
		if err := o.dynamic.driver.setCorridors(clearances); err != nil {
			return nil, errors.Wrap(ErrSolverFailed, err.Error())
		}
	}
	solution, err := o.dynamic.driver.solve()
	if err != nil {
		return nil, errors.Wrap(ErrSolverFailed, err.Error())
	}
	xs, ys, ss := cartesianResult(o.dynamic.samples, solution)
	path := make([]spatialmath.State, len(xs))
	for i := range path {
		path[i] = spatialmath.State{
			X:       xs[i],
			Y:       ys[i],
			Heading: o.dynamic.samples[i].heading + solution[2*i],
			S:       ss[i],
		}
	}
	return path, nil
}

// dynamicSamples builds the sample list for the dynamic mode from splines
// fit through the construction waypoints by their arclength.
func (o *Optimizer) dynamicSamples(sList []float64, clearances [][]float64) ([]sample, error) {
	if len(o.waypoints) < 2 {
		return nil, errors.Wrap(ErrEmptyInput, "dynamic mode needs arclength waypoints")
	}
	ss := make([]float64, len(o.waypoints))
	xs := make([]float64, len(o.waypoints))
	ys := make([]float64, len(o.waypoints))
	for i, wp := range o.waypoints {
		ss[i] = wp.S
		xs[i] = wp.X
		ys[i] = wp.Y
	}
	xSpline, err := spline.NewCubic(ss, xs)
	if err != nil {
		return nil, errors.Wrap(err, "fitting dynamic x spline")
	}
	ySpline, err := spline.NewCubic(ss, ys)
	if err != nil {
		return nil, errors.Wrap(err, "fitting dynamic y spline")
	}
	samples := make([]sample, len(sList))
	for i, s := range sList {
		xd, yd := xSpline.Deriv(s), ySpline.Deriv(s)
		xdd, ydd := xSpline.Deriv2(s), ySpline.Deriv2(s)
		sp := sample{
			s:         s,
			x:         xSpline.At(s),
			y:         ySpline.At(s),
			heading:   math.Atan2(yd, xd),
			curvature: (xd*ydd - yd*xdd) / math.Pow(xd*xd+yd*yd, 1.5),
		}
		if len(clearances[i]) != 8 {
			return nil, errors.Errorf("corridor entry %d has %d bounds, want 8", i, len(clearances[i]))
		}
		copy(sp.corridor[:], clearances[i])
		samples[i] = sp
	}
	return samples, nil
}
