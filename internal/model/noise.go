package model

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianSource is the default NoiseSource: a unit normal over a seeded
// PCG source. Not safe for concurrent use; the model serializes access.
type GaussianSource struct {
	norm distuv.Normal
}

func NewGaussianSource(seed uint64) *GaussianSource {
	return &GaussianSource{
		norm: distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)},
	}
}

func (g *GaussianSource) NormFloat64() float64 {
	return g.norm.Rand()
}
