package integrators

import (
	"errors"
	"fmt"

	"github.com/san-kum/lorenz63/internal/dynamo"
)

// Midpoint advances states with the implicit mid-point method
//
//	z[n+1] = z[n] + dt * f((z[n] + z[n+1]) / 2)
//
// solved by fixed-point iteration. One Integrate call composes
// stepsPerUpdate equal steps per ensemble member, with members spread over
// a fixed number of workers.
type Midpoint struct {
	dyn            dynamo.System
	dt             float64
	stepsPerUpdate int
	tol            float64
	maxIters       int
	workers        int
}

var _ dynamo.BatchIntegrator = (*Midpoint)(nil)

func NewMidpoint(dyn dynamo.System, dt float64, stepsPerUpdate int, tol float64, maxIters, workers int) (*Midpoint, error) {
	switch {
	case dyn == nil:
		return nil, &dynamo.ConfigError{Field: "system", Message: "must not be nil"}
	case dt <= 0:
		return nil, &dynamo.ConfigError{Field: "dt", Message: fmt.Sprintf("must be positive, got %g", dt)}
	case stepsPerUpdate <= 0:
		return nil, &dynamo.ConfigError{Field: "steps_per_update", Message: fmt.Sprintf("must be positive, got %d", stepsPerUpdate)}
	case tol <= 0:
		return nil, &dynamo.ConfigError{Field: "tol", Message: fmt.Sprintf("must be positive, got %g", tol)}
	case maxIters <= 0:
		return nil, &dynamo.ConfigError{Field: "max_iters", Message: fmt.Sprintf("must be positive, got %d", maxIters)}
	case workers <= 0:
		return nil, &dynamo.ConfigError{Field: "workers", Message: fmt.Sprintf("must be positive, got %d", workers)}
	}
	return &Midpoint{
		dyn:            dyn,
		dt:             dt,
		stepsPerUpdate: stepsPerUpdate,
		tol:            tol,
		maxIters:       maxIters,
		workers:        workers,
	}, nil
}

func (m *Midpoint) StateDim() int { return m.dyn.StateDim() }

// Step performs one implicit mid-point step from x at time t. The iterate
// starts at x and is refined until the max-norm change between successive
// iterates falls below tol. Exceeding maxIters returns a ConvergenceError
// and no state.
func (m *Midpoint) Step(x dynamo.State, t float64) (dynamo.State, error) {
	n := len(x)
	z := x.Clone()
	prev := make(dynamo.State, n)
	mid := make(dynamo.State, n)
	tMid := t + 0.5*m.dt

	for iter := 0; iter < m.maxIters; iter++ {
		copy(prev, z)
		for i := 0; i < n; i++ {
			mid[i] = 0.5 * (x[i] + z[i])
		}
		d := m.dyn.Derive(mid, tMid)
		for i := 0; i < n; i++ {
			z[i] = x[i] + m.dt*d[i]
		}
		if z.MaxDiff(prev) < m.tol {
			return z, nil
		}
	}

	return nil, &dynamo.ConvergenceError{
		Member:   -1,
		Iters:    m.maxIters,
		Residual: z.MaxDiff(prev),
	}
}

// Integrate advances every ensemble member by stepsPerUpdate mid-point
// steps. Members are independent; output order matches input order
// regardless of scheduling. If any member fails to converge the whole batch
// fails, and the returned error joins one ConvergenceError per failing
// member.
func (m *Midpoint) Integrate(ens dynamo.Ensemble) (dynamo.Ensemble, error) {
	if ens.Len() == 0 {
		return nil, dynamo.ErrEmptyEnsemble
	}
	dim := m.dyn.StateDim()
	for i, s := range ens {
		if len(s) != dim {
			return nil, fmt.Errorf("member %d has dimension %d, system expects %d: %w",
				i, len(s), dim, dynamo.ErrDimensionMismatch)
		}
		if !s.IsValid() {
			return nil, fmt.Errorf("member %d: %w", i, dynamo.ErrInvalidState)
		}
	}

	out := make(dynamo.Ensemble, ens.Len())
	errs := make([]error, ens.Len())

	dynamo.ParallelFor(ens.Len(), m.workers, func(start, end int) {
		for i := start; i < end; i++ {
			out[i], errs[i] = m.integrateMember(ens[i], i)
		}
	})

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Midpoint) integrateMember(x0 dynamo.State, member int) (dynamo.State, error) {
	x := x0
	t := 0.0
	for s := 0; s < m.stepsPerUpdate; s++ {
		next, err := m.Step(x, t)
		if err != nil {
			var cerr *dynamo.ConvergenceError
			if errors.As(err, &cerr) {
				cerr.Member = member
			}
			return nil, err
		}
		x = next
		t += m.dt
	}
	return x, nil
}
