package model

import (
	"errors"
	"fmt"
)

// StandardScaler holds the per-column centering and scaling fitted at
// training time.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Validate checks that the scaler covers exactly n columns.
func (s *StandardScaler) Validate(n int) error {
	if len(s.Mean) != n || len(s.Scale) != n {
		return fmt.Errorf("scaler: mean/scale lengths %d/%d, want %d", len(s.Mean), len(s.Scale), n)
	}
	return nil
}

// Transform standardises a single row. A zero scale counts as 1.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) || len(x) != len(s.Scale) {
		return nil, errors.New("scaler: feature count mismatch")
	}
	out := make([]float64, len(x))
	for j := range x {
		scale := s.Scale[j]
		if scale == 0 {
			scale = 1
		}
		out[j] = (x[j] - s.Mean[j]) / scale
	}
	return out, nil
}
