package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for forecast operations.
var (
	// ErrNoConvergence indicates a fixed-point iteration hit its iteration
	// budget before reaching tolerance.
	ErrNoConvergence = errors.New("dynamo: fixed-point iteration did not converge")

	// ErrInvalidConfig indicates invalid construction parameters.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrObservation indicates the observation function misbehaved at runtime.
	ErrObservation = errors.New("dynamo: observation function fault")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrEmptyEnsemble indicates an integrate or observe call on zero members.
	ErrEmptyEnsemble = errors.New("dynamo: empty ensemble")
)

// ConvergenceError reports which ensemble member failed to converge, after
// how many iterations, and at what residual.
type ConvergenceError struct {
	Member   int
	Iters    int
	Residual float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("member %d: no convergence after %d iterations (residual %.3e)",
		e.Member, e.Iters, e.Residual)
}

func (e *ConvergenceError) Unwrap() error { return ErrNoConvergence }

// ConfigError reports an invalid construction parameter, detected eagerly
// before any integration runs.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// ObservationError reports an observation function returning a shape
// inconsistent with the dimension probed at construction.
type ObservationError struct {
	Member int
	Want   int
	Got    int
}

func (e *ObservationError) Error() string {
	return fmt.Sprintf("member %d: observation dimension %d, expected %d",
		e.Member, e.Got, e.Want)
}

func (e *ObservationError) Unwrap() error { return ErrObservation }
