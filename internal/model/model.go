package model

import (
	"fmt"
	"sync"

	"github.com/san-kum/lorenz63/internal/dynamo"
)

// ObservationFunc maps a latent state to the observed quantity, before
// observation noise is added. It must be pure: stateless, side-effect-free,
// and total over finite states. The output dimension is probed once at
// construction by calling the function on an all-zero state.
type ObservationFunc func(dynamo.State) []float64

// Observation is one noisy observation vector.
type Observation []float64

// Params configures a forecast model. Std fields accept either a single
// value (broadcast across dimensions) or one value per dimension. A nil or
// all-zero StateNoiseStd gives purely deterministic transitions.
type Params struct {
	InitMean        []float64
	InitStd         []float64
	StateNoiseStd   []float64
	ObsNoiseStd     []float64
	ObservationFunc ObservationFunc
}

// Model is a stochastic forecast model over an injected batch integrator.
// Parameters are fixed at construction.
type Model struct {
	integ   dynamo.BatchIntegrator
	obsFunc ObservationFunc

	dimZ int
	dimX int

	initMean []float64
	initStd  []float64
	stateStd []float64 // nil => deterministic dynamics
	obsStd   []float64

	mu  sync.Mutex
	src dynamo.NoiseSource
}

// New validates params eagerly and probes the observation function on a
// zero state to fix the observation dimension for the model's lifetime.
func New(integ dynamo.BatchIntegrator, src dynamo.NoiseSource, p Params) (*Model, error) {
	if integ == nil {
		return nil, &dynamo.ConfigError{Field: "integrator", Message: "must not be nil"}
	}
	if src == nil {
		return nil, &dynamo.ConfigError{Field: "noise_source", Message: "must not be nil"}
	}
	dimZ := integ.StateDim()
	if dimZ <= 0 {
		return nil, &dynamo.ConfigError{Field: "integrator", Message: fmt.Sprintf("state dimension must be positive, got %d", dimZ)}
	}

	obsFunc := p.ObservationFunc
	if obsFunc == nil {
		obsFunc = func(s dynamo.State) []float64 { return s.Clone() }
	}
	dimX, err := probeObservation(obsFunc, dimZ)
	if err != nil {
		return nil, err
	}

	m := &Model{
		integ:   integ,
		obsFunc: obsFunc,
		dimZ:    dimZ,
		dimX:    dimX,
		src:     src,
	}

	if m.initMean, err = broadcast(p.InitMean, dimZ, "init_mean", false); err != nil {
		return nil, err
	}
	if m.initStd, err = broadcast(p.InitStd, dimZ, "init_std", true); err != nil {
		return nil, err
	}
	if m.stateStd, err = broadcast(p.StateNoiseStd, dimZ, "state_noise_std", true); err != nil {
		return nil, err
	}
	if m.obsStd, err = broadcast(p.ObsNoiseStd, dimX, "obs_noise_std", true); err != nil {
		return nil, err
	}

	if m.initMean == nil {
		m.initMean = make([]float64, dimZ)
	}
	if m.initStd == nil {
		m.initStd = make([]float64, dimZ)
	}
	if allZero(m.stateStd) {
		m.stateStd = nil
	}
	if m.obsStd == nil {
		m.obsStd = make([]float64, dimX)
	}

	return m, nil
}

// probeObservation learns the observation dimension from a zero state. A
// panicking or empty-result function is a configuration error.
func probeObservation(f ObservationFunc, dimZ int) (dimX int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &dynamo.ConfigError{
				Field:   "observation_func",
				Message: fmt.Sprintf("panicked on zero-state probe: %v", r),
			}
		}
	}()

	probe := f(make(dynamo.State, dimZ))
	if len(probe) == 0 {
		return 0, &dynamo.ConfigError{Field: "observation_func", Message: "returned empty observation on zero-state probe"}
	}
	return len(probe), nil
}

// broadcast expands a scalar-or-vector spec to dim values. nil stays nil.
func broadcast(vals []float64, dim int, field string, nonNegative bool) ([]float64, error) {
	if vals == nil {
		return nil, nil
	}
	if nonNegative {
		for _, v := range vals {
			if v < 0 {
				return nil, &dynamo.ConfigError{Field: field, Message: fmt.Sprintf("must be non-negative, got %g", v)}
			}
		}
	}
	switch len(vals) {
	case 1:
		out := make([]float64, dim)
		for i := range out {
			out[i] = vals[0]
		}
		return out, nil
	case dim:
		out := make([]float64, dim)
		copy(out, vals)
		return out, nil
	default:
		return nil, &dynamo.ConfigError{
			Field:   field,
			Message: fmt.Sprintf("expected 1 or %d values, got %d", dim, len(vals)),
		}
	}
}

func allZero(vals []float64) bool {
	for _, v := range vals {
		if v != 0 {
			return false
		}
	}
	return true
}

func (m *Model) StateDim() int { return m.dimZ }
func (m *Model) ObsDim() int   { return m.dimX }

// Deterministic reports whether forecast transitions carry process noise.
func (m *Model) Deterministic() bool { return m.stateStd == nil }

// SampleInitial draws n independent states from the diagonal-Gaussian
// initial distribution.
func (m *Model) SampleInitial(n int) (dynamo.Ensemble, error) {
	if n <= 0 {
		return nil, &dynamo.ConfigError{Field: "ensemble_size", Message: fmt.Sprintf("must be positive, got %d", n)}
	}

	ens := make(dynamo.Ensemble, n)

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range ens {
		s := make(dynamo.State, m.dimZ)
		for d := 0; d < m.dimZ; d++ {
			s[d] = m.initMean[d] + m.initStd[d]*m.src.NormFloat64()
		}
		ens[i] = s
	}
	return ens, nil
}

// Advance integrates the ensemble forward by one forecast update, then adds
// one diagonal-Gaussian process-noise draw per member when configured.
// Integrator errors propagate unchanged.
func (m *Model) Advance(ens dynamo.Ensemble) (dynamo.Ensemble, error) {
	out, err := m.integ.Integrate(ens)
	if err != nil {
		return nil, err
	}
	if m.stateStd == nil {
		return out, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range out {
		for d := 0; d < m.dimZ; d++ {
			out[i][d] += m.stateStd[d] * m.src.NormFloat64()
		}
	}
	return out, nil
}

// Observe maps every member through the observation function and adds one
// diagonal-Gaussian observation-noise draw per member. An observation whose
// shape drifts from the probed dimension is an ObservationError.
func (m *Model) Observe(ens dynamo.Ensemble) ([]Observation, error) {
	if ens.Len() == 0 {
		return nil, dynamo.ErrEmptyEnsemble
	}

	obs := make([]Observation, ens.Len())
	for i, s := range ens {
		if len(s) != m.dimZ {
			return nil, fmt.Errorf("member %d has dimension %d, model expects %d: %w",
				i, len(s), m.dimZ, dynamo.ErrDimensionMismatch)
		}
		y := m.obsFunc(s)
		if len(y) != m.dimX {
			return nil, &dynamo.ObservationError{Member: i, Want: m.dimX, Got: len(y)}
		}
		o := make(Observation, m.dimX)
		copy(o, y)
		obs[i] = o
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range obs {
		for d := 0; d < m.dimX; d++ {
			obs[i][d] += m.obsStd[d] * m.src.NormFloat64()
		}
	}
	return obs, nil
}
