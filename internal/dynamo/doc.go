// Package dynamo provides the core primitives for the stochastic forecast
// model.
//
// The package defines the fundamental types and interfaces shared across the
// module:
//
//   - [State]: vector representing the latent system state
//   - [Ensemble]: ordered batch of independent state samples
//   - [System]: interface for autonomous ODE vector fields (dX/dt = f(X))
//   - [BatchIntegrator]: advances a whole ensemble by one forecast update
//   - [NoiseSource]: external standard-normal generator contract
//
// # Example
//
//	field := physics.NewLorenz()
//	integ, _ := integrators.NewMidpoint(field, 0.01, 10, 1e-8, 100, 4)
//	out, _ := integ.Integrate(ens)
//
// # Thread Safety
//
// Ensemble members carry no shared mutable state, so batch integration is
// safe to spread over any number of workers. A NoiseSource is NOT safe for
// concurrent use; callers must serialize draws.
package dynamo
