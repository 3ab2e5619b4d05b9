// Package store exports forecast runs as JSON.
package store

import (
	"encoding/json"
	"io"
	"os"
)

// ForecastData is the serialized form of one forecast run: per-update
// ensemble summaries plus the parameters that produced them.
type ForecastData struct {
	Sigma          float64 `json:"sigma"`
	Rho            float64 `json:"rho"`
	Beta           float64 `json:"beta"`
	Dt             float64 `json:"dt"`
	StepsPerUpdate int     `json:"steps_per_update"`
	EnsembleSize   int     `json:"ensemble_size"`
	Seed           uint64  `json:"seed"`

	Times        []float64     `json:"times"`
	Means        [][]float64   `json:"means"`
	Spreads      [][]float64   `json:"spreads"`
	Observations [][][]float64 `json:"observations,omitempty"`
}

func ExportJSON(path string, data *ForecastData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return encode(file, data)
}

func ExportJSONStdout(data *ForecastData) error {
	return encode(os.Stdout, data)
}

func encode(w io.Writer, data *ForecastData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
