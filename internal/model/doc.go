// Package model wraps a batch integrator into a stochastic state-space
// forecast model: diagonal-Gaussian initial sampling, deterministic forecast
// transitions with optional additive process noise, and noisy observations
// through a user-supplied observation function.
//
// New dynamical systems plug in by providing another
// [dynamo.BatchIntegrator]; the model itself never touches the dynamics.
//
// All random draws go through a single injected [dynamo.NoiseSource] and are
// serialized behind a mutex, so forecast results do not depend on worker
// scheduling inside the integrator.
package model
