package optimizer

import (
	"github.com/pkg/errors"

	"github.com/ColleyLi/path-optimizer/qpsolver"
)

// qpDriver owns a solver handle for one problem shape. It is initialized
// once; alternative terminal conditions and refreshed corridors are applied
// through bounds-only updates, which keep the solver's factorization and
// warm-start state.
type qpDriver struct {
	solver qpsolver.Solver
	prob   *qpProblem
	lower  []float64
	upper  []float64
}

func newQPDriver(solver qpsolver.Solver, prob *qpProblem) (*qpDriver, error) {
	d := &qpDriver{
		solver: solver,
		prob:   prob,
		lower:  append([]float64{}, prob.lower...),
		upper:  append([]float64{}, prob.upper...),
	}
	solver.SetHessian(prob.hessian)
	solver.SetGradient(prob.gradient)
	solver.SetLinearConstraints(prob.constraints)
	solver.SetBounds(d.lower, d.upper)
	if err := solver.Init(); err != nil {
		return nil, errors.Wrap(err, "initializing qp solver")
	}
	return d, nil
}

// solve runs the solver and returns the solution vector.
func (d *qpDriver) solve() ([]float64, error) {
	if err := d.solver.Solve(); err != nil {
		return nil, err
	}
	return d.solver.Solution(), nil
}

// setTerminalOffset re-pins the terminal lateral offset and pushes the
// updated bounds.
func (d *qpDriver) setTerminalOffset(offset, tol float64) error {
	row := d.prob.terminalOffsetRow()
	d.lower[row] = offset - tol
	d.upper[row] = offset + tol
	return d.solver.UpdateBounds(d.lower, d.upper)
}

// setCorridors rewrites the four corridor rows of every sample. Each entry
// of clearances packs [l0 r0 l1 r1 l2 r2 l3 r3].
func (d *qpDriver) setCorridors(clearances [][]float64) error {
	if len(clearances) != d.prob.n {
		return errors.Errorf("got %d corridor entries, want %d", len(clearances), d.prob.n)
	}
	for i, cl := range clearances {
		if len(cl) != 8 {
			return errors.Errorf("corridor entry %d has %d bounds, want 8", i, len(cl))
		}
		row := d.prob.corridorRow(i)
		for k := 0; k < 4; k++ {
			d.upper[row+k] = cl[2*k]
			d.lower[row+k] = cl[2*k+1]
		}
	}
	return d.solver.UpdateBounds(d.lower, d.upper)
}
