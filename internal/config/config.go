// Package config loads and validates forecast run parameters.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/lorenz63/internal/dynamo"
)

// Defaults follow the canonical chaotic Lorenz-63 setup.
const (
	DefaultSigma          = 10.0
	DefaultRho            = 28.0
	DefaultBeta           = 8.0 / 3.0
	DefaultDt             = 0.01
	DefaultStepsPerUpdate = 10
	DefaultTol            = 1e-8
	DefaultMaxIters       = 100
	DefaultWorkers        = 4
	DefaultEnsembleSize   = 100
	DefaultUpdates        = 50
	DefaultInitMean       = 1.0
	DefaultInitStd        = 0.05
	DefaultObsStd         = 5.0
)

type Config struct {
	Sigma          float64 `yaml:"sigma"`
	Rho            float64 `yaml:"rho"`
	Beta           float64 `yaml:"beta"`
	Dt             float64 `yaml:"dt"`
	StepsPerUpdate int     `yaml:"steps_per_update"`
	Tol            float64 `yaml:"tol"`
	MaxIters       int     `yaml:"max_iters"`
	Workers        int     `yaml:"workers"`
	Seed           uint64  `yaml:"seed"`
	Updates        int     `yaml:"updates"`

	Ensemble EnsembleConfig `yaml:"ensemble"`
	Noise    NoiseConfig    `yaml:"noise"`
}

type EnsembleConfig struct {
	Size     int       `yaml:"size"`
	InitMean []float64 `yaml:"init_mean"`
	InitStd  []float64 `yaml:"init_std"`
}

type NoiseConfig struct {
	StateStd []float64 `yaml:"state_std"`
	ObsStd   []float64 `yaml:"obs_std"`
}

func DefaultConfig() *Config {
	return &Config{
		Sigma:          DefaultSigma,
		Rho:            DefaultRho,
		Beta:           DefaultBeta,
		Dt:             DefaultDt,
		StepsPerUpdate: DefaultStepsPerUpdate,
		Tol:            DefaultTol,
		MaxIters:       DefaultMaxIters,
		Workers:        DefaultWorkers,
		Updates:        DefaultUpdates,
		Ensemble: EnsembleConfig{
			Size:     DefaultEnsembleSize,
			InitMean: []float64{DefaultInitMean},
			InitStd:  []float64{DefaultInitStd},
		},
		Noise: NoiseConfig{
			ObsStd: []float64{DefaultObsStd},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every parameter before any model is built.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return &dynamo.ConfigError{Field: "dt", Message: fmt.Sprintf("must be positive, got %g", c.Dt)}
	}
	if c.StepsPerUpdate <= 0 {
		return &dynamo.ConfigError{Field: "steps_per_update", Message: fmt.Sprintf("must be positive, got %d", c.StepsPerUpdate)}
	}
	if c.Tol <= 0 {
		return &dynamo.ConfigError{Field: "tol", Message: fmt.Sprintf("must be positive, got %g", c.Tol)}
	}
	if c.MaxIters <= 0 {
		return &dynamo.ConfigError{Field: "max_iters", Message: fmt.Sprintf("must be positive, got %d", c.MaxIters)}
	}
	if c.Workers <= 0 {
		return &dynamo.ConfigError{Field: "workers", Message: fmt.Sprintf("must be positive, got %d", c.Workers)}
	}
	if c.Updates <= 0 {
		return &dynamo.ConfigError{Field: "updates", Message: fmt.Sprintf("must be positive, got %d", c.Updates)}
	}
	if c.Ensemble.Size <= 0 {
		return &dynamo.ConfigError{Field: "ensemble.size", Message: fmt.Sprintf("must be positive, got %d", c.Ensemble.Size)}
	}
	for _, v := range c.Ensemble.InitStd {
		if v < 0 {
			return &dynamo.ConfigError{Field: "ensemble.init_std", Message: fmt.Sprintf("must be non-negative, got %g", v)}
		}
	}
	for _, v := range c.Noise.StateStd {
		if v < 0 {
			return &dynamo.ConfigError{Field: "noise.state_std", Message: fmt.Sprintf("must be non-negative, got %g", v)}
		}
	}
	for _, v := range c.Noise.ObsStd {
		if v < 0 {
			return &dynamo.ConfigError{Field: "noise.obs_std", Message: fmt.Sprintf("must be non-negative, got %g", v)}
		}
	}
	return nil
}
