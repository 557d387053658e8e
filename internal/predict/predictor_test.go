package predict_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kau-z/heart-disease/internal/features"
	"github.com/kau-z/heart-disease/internal/model"
	"github.com/kau-z/heart-disease/internal/predict"
)

type identityScaler struct{}

func (identityScaler) Transform(x []float64) ([]float64, error) { return x, nil }

// stubModel returns a fixed risk based on the cholestoral column and records
// the rows it saw.
type stubModel struct {
	cholIndex  int
	phi        []float64
	explainErr error
	seen       [][]float64
}

func (m *stubModel) PredictProba(x []float64) (float64, error) {
	m.seen = append(m.seen, x)
	return x[m.cholIndex] / 1000, nil
}

func (m *stubModel) Explain(x []float64) ([]float64, error) {
	if m.explainErr != nil {
		return nil, m.explainErr
	}
	return m.phi, nil
}

var schema = features.Schema{
	"age", "resting_blood_pressure", "cholestoral", "Max_heart_rate", "oldpeak",
	"sex_Male", "slope_Flat",
}

func record() features.Record {
	r := features.DefaultRecord()
	r.Cholesterol = 300
	r.Sex = "Male"
	return r
}

func TestPredict(t *testing.T) {
	m := &stubModel{cholIndex: 2, phi: []float64{0.01, -0.2, 0.3, 0, 0.05, -0.4, 0.1}}
	p := predict.New(schema, identityScaler{}, m)

	res, err := p.Predict(record())
	require.NoError(t, err)
	assert.InDelta(t, 0.3, res.Probability, 1e-12)
	require.Len(t, res.Attributions, len(schema))
	for i, a := range res.Attributions {
		assert.Equal(t, schema[i], a.Feature)
	}
	require.Len(t, m.seen, 1)
	assert.Equal(t, []float64{50, 120, 300, 150, 1, 1, 0}, m.seen[0])
}

func TestPredictExplainerFailure(t *testing.T) {
	m := &stubModel{cholIndex: 2, explainErr: errors.New("boom")}
	p := predict.New(schema, identityScaler{}, m)

	_, err := p.Predict(record())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestPredictAttributionLengthMismatch(t *testing.T) {
	m := &stubModel{cholIndex: 2, phi: []float64{1}}
	_, err := predict.New(schema, identityScaler{}, m).Predict(record())
	require.Error(t, err)
}

func TestTop(t *testing.T) {
	res := predict.Result{Attributions: []predict.Attribution{
		{"a", 0.1}, {"b", -0.5}, {"c", 0.3}, {"d", 0}, {"e", -0.3}, {"f", 0.2}, {"g", 0.05},
	}}

	top := res.Top(predict.TopFactors)
	require.Len(t, top, 5)
	names := make([]string, len(top))
	for i, a := range top {
		names[i] = a.Feature
	}
	assert.Equal(t, []string{"b", "c", "e", "f", "a"}, names, "ties keep schema order")
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Magnitude(), top[i].Magnitude())
	}
	assert.True(t, top[1].Increases())
	assert.False(t, top[0].Increases())

	short := predict.Result{Attributions: []predict.Attribution{{"x", 1}, {"y", -2}}}
	assert.Len(t, short.Top(predict.TopFactors), 2)
	assert.Empty(t, short.Top(-1))
	assert.Equal(t, "x", short.Attributions[0].Feature, "Top does not reorder the result")
}

func TestWhatIf(t *testing.T) {
	m := &stubModel{cholIndex: 2}
	p := predict.New(schema, identityScaler{}, m)
	r := record()

	prob, err := p.WhatIf(r, 180, 110)
	require.NoError(t, err)
	assert.InDelta(t, 0.18, prob, 1e-12)
	assert.Equal(t, 110.0, m.seen[0][1])

	prob, err = p.WhatIf(r, 9000, 120)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, prob, 1e-12, "slider values are clamped")
	assert.Equal(t, 300, r.Cholesterol)
}

func TestPredictWithForest(t *testing.T) {
	cols := features.Schema{"cholestoral", "sex_Male"}
	forest := &model.Forest{
		Classes:   []int{0, 1},
		NFeatures: 2,
		Trees: []model.Tree{{
			ChildrenLeft:  []int{1, model.Leaf, model.Leaf},
			ChildrenRight: []int{2, model.Leaf, model.Leaf},
			Feature:       []int{0, -2, -2},
			Threshold:     []float64{0, -2, -2},
			Value:         [][]float64{{5, 5}, {8, 2}, {2, 8}},
			Cover:         []float64{10, 5, 5},
		}},
	}
	require.NoError(t, forest.Validate(2))
	scaler := &model.StandardScaler{Mean: []float64{240, 0.5}, Scale: []float64{40, 0.5}}

	p := predict.New(cols, scaler, forest)
	res, err := p.Predict(record())
	require.NoError(t, err)
	assert.InDelta(t, 0.8, res.Probability, 1e-12)
	assert.InDelta(t, 0.3, res.Attributions[0].Value, 1e-12)
	assert.Zero(t, res.Attributions[1].Value)

	for _, chol := range []int{100, 240, 241, 600} {
		prob, err := p.WhatIf(record(), chol, 120)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, prob, 0.0)
		assert.LessOrEqual(t, prob, 1.0)
	}
}
