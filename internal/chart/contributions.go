// Package chart renders the feature-contribution bar chart.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/kau-z/heart-disease/internal/predict"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("chart: no contributions")

var tomato = color.RGBA{R: 255, G: 99, B: 71, A: 255}

// Contributions draws a horizontal bar per attribution, bar length being the
// absolute value, the first attribution on top. It returns PNG bytes.
func Contributions(attrs []predict.Attribution) ([]byte, error) {
	if len(attrs) == 0 {
		return nil, ErrNoData
	}

	// bar 0 is drawn at the bottom, so reverse
	n := len(attrs)
	values := make(plotter.Values, n)
	names := make([]string, n)
	for i, a := range attrs {
		values[n-1-i] = a.Magnitude()
		names[n-1-i] = a.Feature
	}

	p := plot.New()
	p.Title.Text = "Top Feature Contributions"
	p.X.Label.Text = "Absolute SHAP value"

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	bars.Horizontal = true
	bars.Color = tomato
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(names...)

	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	return buf.Bytes(), nil
}
