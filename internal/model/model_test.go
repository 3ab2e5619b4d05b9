package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/lorenz63/internal/dynamo"
	"github.com/san-kum/lorenz63/internal/integrators"
	"github.com/san-kum/lorenz63/internal/model"
	"github.com/san-kum/lorenz63/internal/physics"
	"github.com/san-kum/lorenz63/internal/stats"
)

func newMidpoint(maxIters int) *integrators.Midpoint {
	integ, err := integrators.NewMidpoint(physics.NewLorenz(), 0.01, 10, 1e-8, maxIters, 4)
	Expect(err).NotTo(HaveOccurred())
	return integ
}

var _ = Describe("Model", func() {
	var integ *integrators.Midpoint

	BeforeEach(func() {
		integ = newMidpoint(100)
	})

	newModel := func(p model.Params, seed uint64) *model.Model {
		m, err := model.New(integ, model.NewGaussianSource(seed), p)
		Expect(err).NotTo(HaveOccurred())
		return m
	}

	Describe("construction", func() {
		It("rejects a nil integrator", func() {
			_, err := model.New(nil, model.NewGaussianSource(1), model.Params{})
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("rejects a nil noise source", func() {
			_, err := model.New(integ, nil, model.Params{})
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("rejects std specs of the wrong length", func() {
			_, err := model.New(integ, model.NewGaussianSource(1), model.Params{
				InitStd: []float64{0.1, 0.2},
			})
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("rejects negative stds", func() {
			_, err := model.New(integ, model.NewGaussianSource(1), model.Params{
				ObsNoiseStd: []float64{-1.0},
			})
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("rejects an observation function that panics on the probe", func() {
			_, err := model.New(integ, model.NewGaussianSource(1), model.Params{
				ObservationFunc: func(s dynamo.State) []float64 {
					panic("bad observation function")
				},
			})
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("rejects an observation function returning nothing", func() {
			_, err := model.New(integ, model.NewGaussianSource(1), model.Params{
				ObservationFunc: func(s dynamo.State) []float64 { return nil },
			})
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("fixes the observation dimension from the zero-state probe", func() {
			m := newModel(model.Params{
				ObservationFunc: func(s dynamo.State) []float64 { return s[:1] },
			}, 1)
			Expect(m.ObsDim()).To(Equal(1))
			Expect(m.StateDim()).To(Equal(3))
		})
	})

	Describe("SampleInitial", func() {
		It("returns n members of the state dimension", func() {
			m := newModel(model.Params{InitMean: []float64{1.0}, InitStd: []float64{0.05}}, 7)
			ens, err := m.SampleInitial(40)
			Expect(err).NotTo(HaveOccurred())
			Expect(ens.Len()).To(Equal(40))
			Expect(ens.Dim()).To(Equal(3))
		})

		It("rejects non-positive sizes", func() {
			m := newModel(model.Params{}, 7)
			_, err := m.SampleInitial(0)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("matches the configured mean and std empirically", func() {
			m := newModel(model.Params{InitMean: []float64{1.0}, InitStd: []float64{0.05}}, 42)
			ens, err := m.SampleInitial(20000)
			Expect(err).NotTo(HaveOccurred())

			mean := stats.Mean(ens)
			std := stats.Std(ens)
			for d := 0; d < 3; d++ {
				Expect(mean[d]).To(BeNumerically("~", 1.0, 0.01))
				Expect(std[d]).To(BeNumerically("~", 0.05, 0.005))
			}
		})
	})

	Describe("Advance", func() {
		input := dynamo.Ensemble{{1.0, 1.0, 1.0}, {2.0, -1.0, 20.0}}

		It("is deterministic without process noise", func() {
			m := newModel(model.Params{}, 7)
			Expect(m.Deterministic()).To(BeTrue())

			a, err := m.Advance(input.Clone())
			Expect(err).NotTo(HaveOccurred())
			b, err := m.Advance(input.Clone())
			Expect(err).NotTo(HaveOccurred())
			Expect(a).To(Equal(b))
		})

		It("treats an all-zero noise std as deterministic", func() {
			m := newModel(model.Params{StateNoiseStd: []float64{0.0}}, 7)
			Expect(m.Deterministic()).To(BeTrue())
		})

		It("perturbs transitions with the configured noise scale", func() {
			det := newModel(model.Params{}, 7)
			noisy := newModel(model.Params{StateNoiseStd: []float64{0.2}}, 99)

			base, err := det.Advance(dynamo.Ensemble{{1.0, 1.0, 1.0}})
			Expect(err).NotTo(HaveOccurred())

			trials := 4000
			diffs := make(dynamo.Ensemble, trials)
			for i := 0; i < trials; i++ {
				out, err := noisy.Advance(dynamo.Ensemble{{1.0, 1.0, 1.0}})
				Expect(err).NotTo(HaveOccurred())
				diffs[i] = dynamo.State{
					out[0][0] - base[0][0],
					out[0][1] - base[0][1],
					out[0][2] - base[0][2],
				}
			}

			mean := stats.Mean(diffs)
			std := stats.Std(diffs)
			for d := 0; d < 3; d++ {
				Expect(mean[d]).To(BeNumerically("~", 0.0, 0.02))
				Expect(std[d]).To(BeNumerically("~", 0.2, 0.02))
			}
		})

		It("propagates convergence failures unchanged", func() {
			starved, err := integrators.NewMidpoint(physics.NewLorenz(), 0.5, 1, 1e-12, 1, 2)
			Expect(err).NotTo(HaveOccurred())
			m, err := model.New(starved, model.NewGaussianSource(1), model.Params{})
			Expect(err).NotTo(HaveOccurred())

			_, err = m.Advance(dynamo.Ensemble{{8.0, 9.0, 25.0}})
			Expect(err).To(MatchError(dynamo.ErrNoConvergence))
		})
	})

	Describe("Observe", func() {
		It("applies the identity observation by default", func() {
			m := newModel(model.Params{}, 7)
			obs, err := m.Observe(dynamo.Ensemble{{1.0, 2.0, 3.0}})
			Expect(err).NotTo(HaveOccurred())
			Expect(obs).To(HaveLen(1))
			// zero obs noise: observation equals the state
			Expect(obs[0]).To(Equal(model.Observation{1.0, 2.0, 3.0}))
		})

		It("returns the probed dimension for every member", func() {
			m := newModel(model.Params{
				ObservationFunc: func(s dynamo.State) []float64 { return s[:1] },
			}, 7)
			obs, err := m.Observe(dynamo.Ensemble{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
			Expect(err).NotTo(HaveOccurred())
			for _, o := range obs {
				Expect(o).To(HaveLen(1))
			}
			Expect(obs[1][0]).To(Equal(4.0))
		})

		It("matches the configured observation noise std empirically", func() {
			m := newModel(model.Params{ObsNoiseStd: []float64{0.5}}, 21)

			trials := 4000
			ens := make(dynamo.Ensemble, trials)
			for i := range ens {
				ens[i] = dynamo.State{1.0, 2.0, 3.0}
			}
			obs, err := m.Observe(ens)
			Expect(err).NotTo(HaveOccurred())

			asEns := make(dynamo.Ensemble, trials)
			for i, o := range obs {
				asEns[i] = dynamo.State(o)
			}
			mean := stats.Mean(asEns)
			std := stats.Std(asEns)
			want := []float64{1.0, 2.0, 3.0}
			for d := 0; d < 3; d++ {
				Expect(mean[d]).To(BeNumerically("~", want[d], 0.05))
				Expect(std[d]).To(BeNumerically("~", 0.5, 0.05))
			}
		})

		It("rejects an empty ensemble", func() {
			m := newModel(model.Params{}, 7)
			_, err := m.Observe(nil)
			Expect(err).To(MatchError(dynamo.ErrEmptyEnsemble))
		})

		It("rejects members of the wrong dimension", func() {
			m := newModel(model.Params{}, 7)
			_, err := m.Observe(dynamo.Ensemble{{1.0, 2.0}})
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})

		It("flags observation shape drift as an ObservationError", func() {
			m := newModel(model.Params{
				ObservationFunc: func(s dynamo.State) []float64 {
					if s[0] > 0.5 {
						return s[:1]
					}
					return s
				},
			}, 7)

			_, err := m.Observe(dynamo.Ensemble{{1.0, 2.0, 3.0}})
			Expect(err).To(MatchError(dynamo.ErrObservation))
		})
	})
})
