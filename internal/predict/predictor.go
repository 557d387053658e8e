// Package predict turns a form record into a risk probability and a
// per-column attribution breakdown.
package predict

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/kau-z/heart-disease/internal/features"
)

// TopFactors is how many attributions the result page shows.
const TopFactors = 5

// Scaler standardises an encoded row.
type Scaler interface {
	Transform(x []float64) ([]float64, error)
}

// Classifier returns p(y=1) for a scaled row.
type Classifier interface {
	PredictProba(x []float64) (float64, error)
}

// Explainer returns one signed contribution per column for the class-1
// output; positive values increase risk.
type Explainer interface {
	Explain(x []float64) ([]float64, error)
}

// Model is anything that both predicts and explains, such as *model.Forest.
type Model interface {
	Classifier
	Explainer
}

// Attribution is the contribution of one encoded column.
type Attribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// Magnitude is the absolute contribution.
func (a Attribution) Magnitude() float64 { return math.Abs(a.Value) }

// Increases reports whether the column pushes the risk up.
func (a Attribution) Increases() bool { return a.Value > 0 }

// Result is one prediction. Attributions follow schema order.
type Result struct {
	Probability  float64       `json:"probability"`
	Attributions []Attribution `json:"attributions"`
}

// Top returns the n attributions with the largest magnitude, largest first.
// Ties keep schema order.
func (r Result) Top(n int) []Attribution {
	sorted := slices.Clone(r.Attributions)
	slices.SortStableFunc(sorted, func(a, b Attribution) int {
		return cmp.Compare(b.Magnitude(), a.Magnitude())
	})
	if n < len(sorted) {
		sorted = sorted[:max(n, 0)]
	}
	return sorted
}

// Predictor runs encode -> scale -> classify/explain against a fixed schema.
type Predictor struct {
	schema features.Schema
	scaler Scaler
	model  Model
}

// New builds a Predictor from loaded artifacts.
func New(schema features.Schema, scaler Scaler, m Model) *Predictor {
	return &Predictor{schema: schema, scaler: scaler, model: m}
}

// Schema returns the column schema the predictor encodes against.
func (p *Predictor) Schema() features.Schema { return p.schema }

// Vector returns the scaled feature vector for r.
func (p *Predictor) Vector(r features.Record) ([]float64, error) {
	x, err := p.scaler.Transform(p.schema.Encode(r))
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}
	return x, nil
}

// Probability is the class-1 probability for r, without attributions.
func (p *Predictor) Probability(r features.Record) (float64, error) {
	x, err := p.Vector(r)
	if err != nil {
		return 0, err
	}
	prob, err := p.model.PredictProba(x)
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	return prob, nil
}

// Predict computes the probability and the attribution of every column.
// An explainer failure fails the whole prediction.
func (p *Predictor) Predict(r features.Record) (Result, error) {
	x, err := p.Vector(r)
	if err != nil {
		return Result{}, err
	}
	prob, err := p.model.PredictProba(x)
	if err != nil {
		return Result{}, fmt.Errorf("predict: %w", err)
	}
	phi, err := p.model.Explain(x)
	if err != nil {
		return Result{}, fmt.Errorf("explain: %w", err)
	}
	if len(phi) != len(p.schema) {
		return Result{}, fmt.Errorf("explain: got %d attributions, want %d", len(phi), len(p.schema))
	}

	attrs := make([]Attribution, len(p.schema))
	for i, col := range p.schema {
		attrs[i] = Attribution{Feature: col, Value: phi[i]}
	}
	return Result{Probability: prob, Attributions: attrs}, nil
}

// WhatIf re-scores r with cholesterol and resting blood pressure replaced by
// slider values. Attributions are not recomputed.
func (p *Predictor) WhatIf(r features.Record, cholesterol, restingBP int) (float64, error) {
	return p.Probability(r.WithWhatIf(cholesterol, restingBP))
}
