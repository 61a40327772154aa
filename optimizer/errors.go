package optimizer

import "github.com/pkg/errors"

var (
	// ErrEmptyInput is returned when no waypoints were provided.
	ErrEmptyInput = errors.New("empty waypoint input")
	// ErrSmoothingFailed is returned when the reference smoother fails.
	ErrSmoothingFailed = errors.New("reference smoothing failed")
	// ErrInitialHeadingTooLarge is returned when the start heading deviates
	// from the reference tangent beyond the linearization limit.
	ErrInitialHeadingTooLarge = errors.New("initial heading error too large")
	// ErrInfeasibleCorridor is returned when corridor truncation leaves too
	// few samples to form a solvable problem.
	ErrInfeasibleCorridor = errors.New("free corridor infeasible")
	// ErrSolverFailed is returned when the QP solver reports infeasibility
	// or hits its iteration cap.
	ErrSolverFailed = errors.New("qp solver failed")
	// ErrCollisionAtOutput is returned when the first reconstructed state
	// fails the final collision check.
	ErrCollisionAtOutput = errors.New("collision at first output state")
	// ErrNoPathFound is returned by SamplePaths when every candidate
	// terminal offset was rejected.
	ErrNoPathFound = errors.New("no feasible path in sample set")
)
