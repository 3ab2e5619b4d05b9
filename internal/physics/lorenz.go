package physics

import "github.com/san-kum/lorenz63/internal/dynamo"

// Lorenz is the three-dimensional Lorenz-63 system
//
//	dx/dt = sigma * (y - x)
//	dy/dt = x * (rho - z) - y
//	dz/dt = x * y - beta * z
//
// Chaotic at the canonical parameters sigma=10, rho=28, beta=8/3.
type Lorenz struct{ sigma, rho, beta float64 }

// NewLorenz returns the system with the canonical chaotic parameters.
func NewLorenz() *Lorenz { return &Lorenz{10.0, 28.0, 8.0 / 3.0} }

// NewLorenzParams returns the system with explicit coefficients.
func NewLorenzParams(sigma, rho, beta float64) *Lorenz {
	return &Lorenz{sigma, rho, beta}
}

func (l *Lorenz) StateDim() int { return 3 }

// Derive evaluates the Lorenz vector field. The field is autonomous; t is
// ignored.
func (l *Lorenz) Derive(s dynamo.State, _ float64) dynamo.State {
	return dynamo.State{
		l.sigma * (s[1] - s[0]),
		s[0]*(l.rho-s[2]) - s[1],
		s[0]*s[1] - l.beta*s[2],
	}
}

func (l *Lorenz) GetParams() map[string]float64 {
	return map[string]float64{"sigma": l.sigma, "rho": l.rho, "beta": l.beta}
}
