package chart_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kau-z/heart-disease/internal/chart"
	"github.com/kau-z/heart-disease/internal/predict"
)

func TestContributionsPNG(t *testing.T) {
	data, err := chart.Contributions([]predict.Attribution{
		{Feature: "cholestoral", Value: 0.21},
		{Feature: "sex_Male", Value: -0.12},
		{Feature: "age", Value: 0.04},
	})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
	assert.Greater(t, img.Bounds().Dy(), 0)
}

func TestContributionsEmpty(t *testing.T) {
	_, err := chart.Contributions(nil)
	require.ErrorIs(t, err, chart.ErrNoData)
}
