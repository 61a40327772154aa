package optimizer

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ColleyLi/path-optimizer/qpsolver"
	"github.com/ColleyLi/path-optimizer/spatialmath"
)

// Decision vector layout for N samples (3N-1 variables):
//
//	[psi_0, q_0, psi_1, q_1, ..., psi_{N-1}, q_{N-1}, delta_0, ..., delta_{N-2}]
//
// psi is heading deviation from the reference, q lateral offset along the
// Frenet normal, delta steering angle.
//
// Constraint rows (9N-1):
//
//	[0, 2)        initial-state equalities psi_0 = epsi, q_0 = cte
//	[2, 2N)       linearized bicycle transitions, two per step
//	[2N, 3N)      heading-deviation bounds (terminal row becomes the
//	              end-heading equality when enabled)
//	[3N, 4N)      lateral-offset bounds; row 4N-1 pins the terminal offset
//	[4N, 5N-1)    steering bounds
//	[5N-1, 9N-1)  disc corridor rows, four per sample at 5N-1+4i
type qpProblem struct {
	n           int
	hessian     *mat.SymDense
	gradient    []float64
	constraints *mat.Dense
	lower       []float64
	upper       []float64
}

func (p *qpProblem) numVars() int { return 3*p.n - 1 }

// terminalOffsetRow is the row pinning q_{N-1}.
func (p *qpProblem) terminalOffsetRow() int { return 4*p.n - 1 }

// corridorRow is the first of the four corridor rows of sample i.
func (p *qpProblem) corridorRow(i int) int { return 5*p.n - 1 + 4*i }

type terminalCondition struct {
	offset           float64
	offsetTol        float64
	heading          float64 // absolute end heading
	constrainHeading bool
}

// buildProblem assembles the QP for a sample list and initial Frenet
// deviation. The sparsity pattern depends only on N, so a problem built once
// can be re-solved for different terminal conditions by updating bounds.
func buildProblem(samples []sample, fp Footprint, cfg *Config, epsi, cte float64, terminal terminalCondition) *qpProblem {
	n := len(samples)
	numVars := 3*n - 1
	numRows := 9*n - 1
	p := &qpProblem{
		n:           n,
		hessian:     mat.NewSymDense(numVars, nil),
		gradient:    make([]float64, numVars),
		constraints: mat.NewDense(numRows, numVars, nil),
		lower:       make([]float64, numRows),
		upper:       make([]float64, numRows),
	}
	psiVar := func(i int) int { return 2 * i }
	qVar := func(i int) int { return 2*i + 1 }
	steerVar := func(i int) int { return 2*n + i }

	// Objective: 1/2 z'Hz, no linear term.
	w := cfg.Weights
	for i := 0; i < n; i++ {
		p.hessian.SetSym(psiVar(i), psiVar(i), w.Heading)
		p.hessian.SetSym(qVar(i), qVar(i), w.Offset)
	}
	for i := 0; i < n-1; i++ {
		p.hessian.SetSym(steerVar(i), steerVar(i), p.hessian.At(steerVar(i), steerVar(i))+w.Steer)
	}
	for i := 0; i < n-2; i++ {
		a, b := steerVar(i), steerVar(i+1)
		p.hessian.SetSym(a, a, p.hessian.At(a, a)+w.SteerRate)
		p.hessian.SetSym(b, b, p.hessian.At(b, b)+w.SteerRate)
		p.hessian.SetSym(a, b, p.hessian.At(a, b)-w.SteerRate)
	}

	setRange := func(row int, lo, hi float64) {
		p.lower[row] = lo
		p.upper[row] = hi
	}

	// Initial state.
	p.constraints.Set(0, psiVar(0), 1)
	setRange(0, epsi, epsi)
	p.constraints.Set(1, qVar(0), 1)
	setRange(1, cte, cte)

	// Transitions, linearized about the reference:
	//   q_{i+1} - q_i - h*psi_i = 0
	//   psi_{i+1} - psi_i - (h/L)*delta_i = -h*kappa_i
	wheelbase := fp.Wheelbase()
	for i := 0; i < n-1; i++ {
		h := samples[i+1].s - samples[i].s
		row := 2 + 2*i
		p.constraints.Set(row, qVar(i+1), 1)
		p.constraints.Set(row, qVar(i), -1)
		p.constraints.Set(row, psiVar(i), -h)
		setRange(row, 0, 0)

		row = 3 + 2*i
		p.constraints.Set(row, psiVar(i+1), 1)
		p.constraints.Set(row, psiVar(i), -1)
		p.constraints.Set(row, steerVar(i), -h/wheelbase)
		setRange(row, -h*samples[i].curvature, -h*samples[i].curvature)
	}

	// Heading-deviation sanity bounds; the terminal row optionally pins the
	// end heading.
	for i := 0; i < n; i++ {
		row := 2*n + i
		p.constraints.Set(row, psiVar(i), 1)
		if i == n-1 && terminal.constrainHeading {
			endPsi := spatialmath.WrapAngle(terminal.heading - samples[n-1].heading)
			setRange(row, endPsi, endPsi)
		} else {
			setRange(row, -cfg.MaxInitialHeadingError, cfg.MaxInitialHeadingError)
		}
	}

	// Lateral-offset bounds; only the terminal is pinned.
	for i := 0; i < n; i++ {
		row := 3*n + i
		p.constraints.Set(row, qVar(i), 1)
		if i == n-1 {
			setRange(row, terminal.offset-terminal.offsetTol, terminal.offset+terminal.offsetTol)
		} else {
			setRange(row, -qpsolver.Infinity, qpsolver.Infinity)
		}
	}

	// Steering bounds.
	for i := 0; i < n-1; i++ {
		row := 4*n + i
		p.constraints.Set(row, steerVar(i), 1)
		setRange(row, -cfg.MaxSteer, cfg.MaxSteer)
	}

	// Disc corridors: the lateral offset of disc k at sample i is
	// q_i + d_k*psi_i under the small-angle projection.
	offsets := fp.DiscOffsets()
	for i := 0; i < n; i++ {
		for k := 0; k < 4; k++ {
			row := p.corridorRow(i) + k
			p.constraints.Set(row, qVar(i), 1)
			p.constraints.Set(row, psiVar(i), offsets[k])
			setRange(row, samples[i].corridor[2*k+1], samples[i].corridor[2*k])
		}
	}
	return p
}
