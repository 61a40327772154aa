package qpsolver

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/ColleyLi/path-optimizer/utils"
)

const (
	admmSigma   = 1e-6
	admmAlpha   = 1.6
	admmRho     = 0.1
	admmRhoEq   = 1e3 * admmRho
	eqTolerance = 1e-9
)

// ADMM solves QPs by the OSQP operator-splitting scheme: a single KKT
// factorization shared across iterations, with per-row penalty weights so
// equality rows converge tightly. The factorization survives UpdateBounds,
// which is what makes multi-shot terminal sampling cheap.
type ADMM struct {
	settings Settings
	logger   golog.Logger

	p     *mat.SymDense
	q     []float64
	a     *mat.Dense
	lower []float64
	upper []float64

	n, m int
	rho  []float64

	chol *mat.Cholesky

	x, y, z []float64

	initialized bool
}

// NewADMM creates an unconfigured solver.
func NewADMM(settings Settings, logger golog.Logger) *ADMM {
	if settings.MaxIterations <= 0 {
		settings.MaxIterations = DefaultSettings().MaxIterations
	}
	if settings.EpsAbs <= 0 {
		settings.EpsAbs = DefaultSettings().EpsAbs
	}
	if settings.EpsRel <= 0 {
		settings.EpsRel = DefaultSettings().EpsRel
	}
	return &ADMM{settings: settings, logger: logger}
}

// SetHessian sets the quadratic cost term.
func (s *ADMM) SetHessian(p *mat.SymDense) { s.p = p }

// SetGradient sets the linear cost term.
func (s *ADMM) SetGradient(q []float64) { s.q = append([]float64{}, q...) }

// SetLinearConstraints sets the constraint matrix A.
func (s *ADMM) SetLinearConstraints(a *mat.Dense) { s.a = a }

// SetBounds sets the constraint bounds l and u.
func (s *ADMM) SetBounds(lower, upper []float64) {
	s.lower = append([]float64{}, lower...)
	s.upper = append([]float64{}, upper...)
}

// Init validates the problem data and factorizes the KKT system.
func (s *ADMM) Init() error {
	if s.p == nil || s.a == nil || s.q == nil || s.lower == nil || s.upper == nil {
		return errors.New("problem data incomplete")
	}
	m, n := s.a.Dims()
	if r, c := s.p.Dims(); r != n || c != n {
		return errors.Errorf("hessian is %dx%d, want %dx%d", r, c, n, n)
	}
	if len(s.q) != n {
		return errors.Errorf("gradient has length %d, want %d", len(s.q), n)
	}
	if len(s.lower) != m || len(s.upper) != m {
		return errors.Errorf("bounds have lengths %d/%d, want %d", len(s.lower), len(s.upper), m)
	}
	for i := range s.lower {
		if s.lower[i] > s.upper[i] {
			return errors.Errorf("row %d has lower bound %f above upper bound %f", i, s.lower[i], s.upper[i])
		}
	}
	s.n, s.m = n, m

	// Stiffer penalty on equality rows.
	s.rho = make([]float64, m)
	for i := range s.rho {
		if s.upper[i]-s.lower[i] < eqTolerance {
			s.rho[i] = admmRhoEq
		} else {
			s.rho[i] = admmRho
		}
	}

	// K = P + sigma*I + A' diag(rho) A.
	var weighted mat.Dense
	weighted.CloneFrom(s.a)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			weighted.Set(i, j, s.rho[i]*s.a.At(i, j))
		}
	}
	var ata mat.Dense
	ata.Mul(s.a.T(), &weighted)
	kkt := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := s.p.At(i, j) + ata.At(i, j)
			if i == j {
				v += admmSigma
			}
			kkt.SetSym(i, j, v)
		}
	}
	s.chol = &mat.Cholesky{}
	if ok := s.chol.Factorize(kkt); !ok {
		return errors.New("kkt matrix is not positive definite")
	}

	s.x = make([]float64, n)
	s.y = make([]float64, m)
	s.z = make([]float64, m)
	s.initialized = true
	return nil
}

// UpdateBounds replaces l and u without refactorizing. The penalty
// classification of each row (equality vs inequality) must not change.
func (s *ADMM) UpdateBounds(lower, upper []float64) error {
	if !s.initialized {
		return errors.New("solver not initialized")
	}
	if len(lower) != s.m || len(upper) != s.m {
		return errors.Errorf("bounds have lengths %d/%d, want %d", len(lower), len(upper), s.m)
	}
	for i := range lower {
		if lower[i] > upper[i] {
			return errors.Errorf("row %d has lower bound %f above upper bound %f", i, lower[i], upper[i])
		}
	}
	copy(s.lower, lower)
	copy(s.upper, upper)
	return nil
}

// Solve runs the ADMM iteration from the current (possibly warm) iterate.
// It returns an error if the residuals do not converge within the iteration
// cap, leaving the iterate untouched for the caller to retry with different
// bounds.
func (s *ADMM) Solve() error {
	if !s.initialized {
		return errors.New("solver not initialized")
	}
	n, m := s.n, s.m
	x := append([]float64{}, s.x...)
	y := append([]float64{}, s.y...)
	z := append([]float64{}, s.z...)
	if !s.settings.WarmStart {
		for i := range x {
			x[i] = 0
		}
		for i := range y {
			y[i] = 0
		}
		for i := range z {
			z[i] = 0
		}
	}

	rhs := mat.NewVecDense(n, nil)
	xt := mat.NewVecDense(n, nil)
	ax := make([]float64, m)
	for iter := 0; iter < s.settings.MaxIterations; iter++ {
		// rhs = sigma*x - q + A'(rho.*z - y)
		for i := 0; i < n; i++ {
			v := admmSigma*x[i] - s.q[i]
			for j := 0; j < m; j++ {
				v += s.a.At(j, i) * (s.rho[j]*z[j] - y[j])
			}
			rhs.SetVec(i, v)
		}
		if err := s.chol.SolveVecTo(xt, rhs); err != nil {
			return errors.Wrap(err, "kkt solve failed")
		}
		for i := 0; i < n; i++ {
			x[i] = admmAlpha*xt.AtVec(i) + (1-admmAlpha)*x[i]
		}
		for j := 0; j < m; j++ {
			axt := 0.0
			for i := 0; i < n; i++ {
				axt += s.a.At(j, i) * xt.AtVec(i)
			}
			relaxed := admmAlpha*axt + (1-admmAlpha)*z[j]
			zNew := utils.Clamp(relaxed+y[j]/s.rho[j], s.lower[j], s.upper[j])
			y[j] += s.rho[j] * (relaxed - zNew)
			z[j] = zNew
		}

		if s.converged(x, y, z, ax) {
			copy(s.x, x)
			copy(s.y, y)
			copy(s.z, z)
			if s.settings.Verbose {
				s.logger.Debugw("qp solved", "iterations", iter+1)
			}
			return nil
		}
	}
	return errors.Errorf("no convergence within %d iterations", s.settings.MaxIterations)
}

func (s *ADMM) converged(x, y, z, ax []float64) bool {
	n, m := s.n, s.m
	var primRes, primScale float64
	for j := 0; j < m; j++ {
		v := 0.0
		for i := 0; i < n; i++ {
			v += s.a.At(j, i) * x[i]
		}
		ax[j] = v
		primRes = math.Max(primRes, math.Abs(v-z[j]))
		primScale = math.Max(primScale, math.Max(math.Abs(v), math.Abs(z[j])))
	}
	var dualRes, dualScale float64
	for i := 0; i < n; i++ {
		px := 0.0
		for j := 0; j < n; j++ {
			px += s.p.At(i, j) * x[j]
		}
		aty := 0.0
		for j := 0; j < m; j++ {
			aty += s.a.At(j, i) * y[j]
		}
		dualRes = math.Max(dualRes, math.Abs(px+s.q[i]+aty))
		dualScale = math.Max(dualScale, math.Max(math.Abs(px), math.Max(math.Abs(aty), math.Abs(s.q[i]))))
	}
	epsPrim := s.settings.EpsAbs + s.settings.EpsRel*primScale
	epsDual := s.settings.EpsAbs + s.settings.EpsRel*dualScale
	return primRes <= epsPrim && dualRes <= epsDual
}

// Solution returns a copy of the current primal iterate.
func (s *ADMM) Solution() []float64 {
	return append([]float64{}, s.x...)
}
