// Package plot derives renderable chart geometry from a fitted linear model
// and its observations. Every function here is pure: the same result and
// variable list always produce the same output, and inputs are never
// modified.
package plot

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/iammorganparry/clive/apps/regression/internal/models"
)

const (
	// CurveSamples is the number of abscissas in a one-predictor curve.
	CurveSamples = 100
	// SurfaceSamples is the number of samples per axis of a two-predictor surface.
	SurfaceSamples = 25
)

// Point is a 2-D plot coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Point3 is a 3-D plot coordinate.
type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Segment is a straight reference line.
type Segment struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// Linspace returns n evenly spaced values from lo to hi inclusive. When
// lo == hi every value equals lo.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// Extent returns the minimum and maximum of values.
func Extent(values []float64) (lo, hi float64, err error) {
	if len(values) == 0 {
		return 0, 0, models.ErrEmptyObservationSet
	}
	return floats.Min(values), floats.Max(values), nil
}

// predictorValues pulls the named predictor out of every observation.
func predictorValues(obs []models.Observation, variable string) ([]float64, error) {
	out := make([]float64, len(obs))
	for i, o := range obs {
		v, ok := o.Value(variable)
		if !ok {
			return nil, fmt.Errorf("%w: observation %d has no value for %q", models.ErrInvalidVariable, i, variable)
		}
		out[i] = v
	}
	return out, nil
}

func actuals(obs []models.Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Actual
	}
	return out
}

func predictions(obs []models.Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Predicted
	}
	return out
}

func residuals(obs []models.Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Residual
	}
	return out
}

func coefficient(result *models.AnalysisResult, variable string) (float64, error) {
	c, ok := result.Coefficient(variable)
	if !ok {
		return 0, fmt.Errorf("%w: no coefficient for %q", models.ErrInvalidVariable, variable)
	}
	return c, nil
}

func zip(xs, ys []float64) []Point {
	out := make([]Point, len(xs))
	for i := range xs {
		out[i] = Point{X: xs[i], Y: ys[i]}
	}
	return out
}
