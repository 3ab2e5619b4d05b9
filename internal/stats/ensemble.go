// Package stats computes per-dimension summaries of forecast ensembles.
package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/lorenz63/internal/dynamo"
)

// Summary holds per-dimension ensemble statistics.
type Summary struct {
	Mean []float64
	Std  []float64
	Min  []float64
	Max  []float64
}

// column extracts dimension d of every member into a flat slice.
func column(ens dynamo.Ensemble, d int) []float64 {
	col := make([]float64, ens.Len())
	for i, s := range ens {
		col[i] = s[d]
	}
	return col
}

// Mean returns the per-dimension ensemble mean.
func Mean(ens dynamo.Ensemble) []float64 {
	dim := ens.Dim()
	out := make([]float64, dim)
	for d := 0; d < dim; d++ {
		out[d] = stat.Mean(column(ens, d), nil)
	}
	return out
}

// Std returns the per-dimension sample standard deviation (the ensemble
// spread).
func Std(ens dynamo.Ensemble) []float64 {
	dim := ens.Dim()
	out := make([]float64, dim)
	for d := 0; d < dim; d++ {
		out[d] = stat.StdDev(column(ens, d), nil)
	}
	return out
}

// Summarize computes mean, spread, and range in one pass per dimension.
func Summarize(ens dynamo.Ensemble) Summary {
	dim := ens.Dim()
	s := Summary{
		Mean: make([]float64, dim),
		Std:  make([]float64, dim),
		Min:  make([]float64, dim),
		Max:  make([]float64, dim),
	}
	for d := 0; d < dim; d++ {
		col := column(ens, d)
		s.Mean[d] = stat.Mean(col, nil)
		s.Std[d] = stat.StdDev(col, nil)
		s.Min[d] = floats.Min(col)
		s.Max[d] = floats.Max(col)
	}
	return s
}
