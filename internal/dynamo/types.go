package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// MaxDiff returns the max-norm distance to other. States of unequal length
// compare as +Inf.
func (s State) MaxDiff(other State) float64 {
	if len(s) != len(other) {
		return math.Inf(1)
	}
	max := 0.0
	for i := range s {
		d := math.Abs(s[i] - other[i])
		if d > max {
			max = d
		}
	}
	return max
}

// Ensemble is an ordered batch of independent state samples. Index i refers
// to the same ensemble member across calls.
type Ensemble []State

func (e Ensemble) Clone() Ensemble {
	c := make(Ensemble, len(e))
	for i, s := range e {
		c[i] = s.Clone()
	}
	return c
}

func (e Ensemble) Len() int { return len(e) }

// Dim returns the state dimension of the first member, or 0 for an empty
// ensemble.
func (e Ensemble) Dim() int {
	if len(e) == 0 {
		return 0
	}
	return len(e[0])
}

// System is an autonomous ODE vector field dX/dt = f(X, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// BatchIntegrator advances every member of an ensemble by one forecast
// update (a fixed number of internal time steps). Output order matches
// input order.
type BatchIntegrator interface {
	Integrate(ens Ensemble) (Ensemble, error)
	StateDim() int
}

// NoiseSource supplies independent standard-normal variates. Implementations
// are stateful and not safe for concurrent use.
type NoiseSource interface {
	NormFloat64() float64
}
