// Package analysis provides trajectory diagnostics for the forecast model.
package analysis

import (
	"math"

	"github.com/san-kum/lorenz63/internal/dynamo"
	"github.com/san-kum/lorenz63/internal/integrators"
)

// LyapunovExponent estimates the largest Lyapunov exponent with the
// trajectory-separation method: run the reference and a perturbed trajectory
// side by side, renormalize the separation after every update, and average
// the log growth. A positive value indicates chaos.
func LyapunovExponent(integ *integrators.Midpoint, x0 dynamo.State, updates int, updateInterval, perturbation float64) (float64, error) {
	if updates <= 0 || perturbation <= 0 {
		return 0, &dynamo.ConfigError{Field: "lyapunov", Message: "updates and perturbation must be positive"}
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += perturbation

	sumLog := 0.0
	for u := 0; u < updates; u++ {
		out, err := integ.Integrate(dynamo.Ensemble{x, xp})
		if err != nil {
			return 0, err
		}
		x, xp = out[0], out[1]

		sep := x.MaxDiff(xp)
		if sep == 0 {
			// Trajectories collapsed to identical floats; no growth signal.
			continue
		}
		sumLog += math.Log(sep / perturbation)

		// Renormalize the perturbed trajectory back to the reference
		// separation along the current offset direction.
		scale := perturbation / sep
		for d := range xp {
			xp[d] = x[d] + (xp[d]-x[d])*scale
		}
	}

	return sumLog / (float64(updates) * updateInterval), nil
}
