package render

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iammorganparry/clive/apps/regression/internal/models"
	"github.com/iammorganparry/clive/apps/regression/internal/plot"
	"github.com/iammorganparry/clive/apps/regression/internal/selection"
)

func sampleResult(independents ...string) *models.AnalysisResult {
	coefs := map[string]float64{}
	for i, v := range independents {
		coefs[v] = float64(i + 2)
	}
	obs := []models.Observation{
		{Actual: 5, Predicted: 5.2, Residual: -0.2, Values: map[string]float64{"X1": 1, "X2": 0}},
		{Actual: 8, Predicted: 7.9, Residual: 0.1, Values: map[string]float64{"X1": 2, "X2": 1}},
		{Actual: 11, Predicted: 11.1, Residual: -0.1, Values: map[string]float64{"X1": 3, "X2": 1}},
	}
	return &models.AnalysisResult{
		ID: "r", Dependent: "Y", Independents: independents,
		Intercept: 2, Coefficients: coefs, RSquared: 0.99, MeanSquaredError: 0.02,
		Observations: obs,
	}
}

func dashboardFor(t *testing.T, r *models.AnalysisResult) Dashboard {
	t.Helper()
	fp, err := plot.BuildFunctionCurve(r, r.Independents)
	require.NoError(t, err)
	parity, err := plot.BuildParityPlot(r)
	require.NoError(t, err)
	resid, err := plot.BuildResidualPlot(r)
	require.NoError(t, err)
	return Dashboard{
		Dependent: "Y",
		Equation:  plot.RenderEquation(r, "Y", r.Independents),
		Metrics:   plot.FormatMetrics(r),
		Function:  fp,
		Parity:    parity,
		Residuals: resid,
	}
}

func TestWriteDashboard(t *testing.T) {
	t.Run("one predictor", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteDashboard(&buf, dashboardFor(t, sampleResult("X1"))))
		html := buf.String()
		assert.Contains(t, html, "Regression function")
		assert.Contains(t, html, "Actual vs predicted")
		assert.Contains(t, html, "Residuals")
		assert.NotContains(t, html, "Regression plane")
	})

	t.Run("two predictors", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteDashboard(&buf, dashboardFor(t, sampleResult("X1", "X2"))))
		html := buf.String()
		assert.Contains(t, html, "Regression plane")
		assert.Contains(t, html, "not a partial-dependence plot")
	})

	t.Run("three predictors omit the function plot", func(t *testing.T) {
		r := sampleResult("X1", "X2", "X3")
		for i := range r.Observations {
			r.Observations[i].Values["X3"] = float64(i)
		}
		var buf bytes.Buffer
		require.NoError(t, WriteDashboard(&buf, dashboardFor(t, r)))
		html := buf.String()
		assert.NotContains(t, html, "Regression function")
		assert.NotContains(t, html, "Regression plane")
		assert.Contains(t, html, "Actual vs predicted")
	})
}

func TestBuildDashboard(t *testing.T) {
	sess := &models.Session{ID: "s", FileName: "data.csv"}

	t.Run("with predictor values", func(t *testing.T) {
		r := sampleResult("X1")
		d, err := BuildDashboard(plot.NewCache(4), sess, r, selection.Selection{Dependent: "Y", Independents: []string{"X1"}})
		require.NoError(t, err)
		assert.Equal(t, "Regression results - data.csv", d.Title)
		assert.Equal(t, 1, d.Function.Dimensions())
		assert.NotNil(t, d.Parity)
		assert.NotNil(t, d.Residuals)
	})

	t.Run("legacy observations drop only the function plot", func(t *testing.T) {
		for _, independents := range [][]string{{"X1"}, {"X1", "X2"}} {
			r := sampleResult(independents...)
			for i := range r.Observations {
				r.Observations[i].Values = nil
			}
			d, err := BuildDashboard(plot.NewCache(4), sess, r, selection.Selection{Dependent: "Y", Independents: independents})
			require.NoError(t, err, independents)
			assert.Nil(t, d.Function, independents)
			require.NotNil(t, d.Parity, independents)
			assert.Len(t, d.Parity.Points, 3)
			require.NotNil(t, d.Residuals, independents)

			var buf bytes.Buffer
			require.NoError(t, WriteDashboard(&buf, d))
			assert.NotContains(t, buf.String(), "Regression function")
			assert.Contains(t, buf.String(), "Actual vs predicted")
		}
	})

	t.Run("empty observations still fail", func(t *testing.T) {
		r := sampleResult("X1")
		r.Observations = nil
		_, err := BuildDashboard(plot.NewCache(4), sess, r, selection.Selection{Dependent: "Y", Independents: []string{"X1"}})
		assert.True(t, errors.Is(err, models.ErrEmptyObservationSet))
	})
}

func TestWriteFunctionImage(t *testing.T) {
	d := dashboardFor(t, sampleResult("X1"))

	t.Run("svg", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteFunctionImage(&buf, ImageSVG, d.Function))
		assert.Contains(t, buf.String(), "<svg")
	})

	t.Run("png", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteFunctionImage(&buf, ImagePNG, d.Function))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
	})

	t.Run("surface is unsupported", func(t *testing.T) {
		s := dashboardFor(t, sampleResult("X1", "X2"))
		err := WriteFunctionImage(&bytes.Buffer{}, ImagePNG, s.Function)
		assert.True(t, errors.Is(err, ErrUnsupportedChart))
	})
}

func TestWriteReferenceImageFlatRange(t *testing.T) {
	rp := &plot.ReferencePlot{
		Points:    []plot.Point{{X: 3, Y: 0}, {X: 3, Y: 0}},
		Reference: plot.Segment{From: plot.Point{X: 3}, To: plot.Point{X: 3}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteReferenceImage(&buf, ImageSVG, "Residuals", "Predicted", "Residual", rp))
	assert.Contains(t, buf.String(), "<svg")
}

func TestParseImageFormat(t *testing.T) {
	f, err := ParseImageFormat("svg")
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", f.ContentType())

	_, err = ParseImageFormat("gif")
	assert.ErrorIs(t, err, ErrUnsupportedChart)
}
