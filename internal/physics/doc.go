// Package physics implements the dynamical systems driven by the forecast
// model. Each system satisfies [dynamo.System].
package physics
