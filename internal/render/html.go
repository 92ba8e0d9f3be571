// Package render turns plot geometry into charts: an interactive HTML
// dashboard and static PNG/SVG images.
package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/iammorganparry/clive/apps/regression/internal/models"
	"github.com/iammorganparry/clive/apps/regression/internal/plot"
	"github.com/iammorganparry/clive/apps/regression/internal/selection"
)

// Dashboard is everything drawn on the HTML results page. Function is nil
// when the model has no curve or surface form.
type Dashboard struct {
	Title     string
	Dependent string
	Equation  string
	Metrics   plot.Metrics
	Function  *plot.FunctionPlot
	Parity    *plot.ReferencePlot
	Residuals *plot.ReferencePlot
}

// BuildDashboard derives every chart of an analyzed session through the
// plot cache. Observations without predictor values leave the function
// plot out; the parity and residual plots are still drawn.
func BuildDashboard(plots *plot.Cache, sess *models.Session, res *models.AnalysisResult, sel selection.Selection) (Dashboard, error) {
	fp, err := plots.FunctionCurve(res, sel.Independents)
	switch {
	case errors.Is(err, models.ErrInvalidVariable):
		fp = nil
	case err != nil:
		return Dashboard{}, err
	}
	parity, err := plots.Parity(res)
	if err != nil {
		return Dashboard{}, err
	}
	resid, err := plots.Residuals(res)
	if err != nil {
		return Dashboard{}, err
	}

	title := "Regression results"
	if sess != nil && sess.FileName != "" {
		title += " - " + sess.FileName
	}
	return Dashboard{
		Title:     title,
		Dependent: sel.Dependent,
		Equation:  plot.RenderEquation(res, sel.Dependent, sel.Independents),
		Metrics:   plot.FormatMetrics(res),
		Function:  fp,
		Parity:    parity,
		Residuals: resid,
	}, nil
}

const surfaceNote = "other predictors held at the intercept; not a partial-dependence plot"

// WriteDashboard renders d as a single HTML page.
func WriteDashboard(w io.Writer, d Dashboard) error {
	page := components.NewPage()
	page.PageTitle = d.Title
	if page.PageTitle == "" {
		page.PageTitle = "Regression results"
	}

	switch d.Function.Dimensions() {
	case 1:
		page.AddCharts(curveChart(d))
	case 2:
		surface, points := surfaceCharts(d)
		page.AddCharts(surface, points)
	}
	if d.Parity != nil {
		page.AddCharts(referenceChart(
			"Actual vs predicted",
			fmt.Sprintf("R² %s  MSE %s", d.Metrics.RSquared, d.Metrics.MSE),
			"Actual", "Predicted", "Identity", d.Parity,
		))
	}
	if d.Residuals != nil {
		page.AddCharts(referenceChart("Residuals", "", "Predicted", "Residual", "Zero", d.Residuals))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

func globalOpts(title, subtitle, xName, yName string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "bottom",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: xName,
			Type: "value",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: yName,
			Type: "value",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: "450px",
		}),
	}
}

func curveChart(d Dashboard) *charts.Line {
	c := d.Function.Curve

	line := charts.NewLine()
	line.SetGlobalOptions(globalOpts("Regression function", d.Equation, c.Variable, d.Dependent)...)
	line.AddSeries("Fitted", lineData(c.Fitted))

	points := charts.NewScatter()
	points.AddSeries("Actual", scatterData(c.Actual))
	points.AddSeries("Predicted", scatterData(c.Predicted))
	line.Overlap(points)
	return line
}

func surfaceCharts(d Dashboard) (*charts.Surface3D, *charts.Scatter3D) {
	s := d.Function.Surface

	axes := []charts.GlobalOpts{
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: s.XVariable, Type: "value"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: s.YVariable, Type: "value"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: d.Dependent, Type: "value"}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: "550px",
		}),
	}

	surface := charts.NewSurface3D()
	surface.SetGlobalOptions(append(axes,
		charts.WithTitleOpts(opts.Title{Title: "Regression plane", Subtitle: surfaceNote}),
	)...)
	surface.AddSeries("Fitted", surfaceData(s))

	points := charts.NewScatter3D()
	points.SetGlobalOptions(append(axes,
		charts.WithTitleOpts(opts.Title{Title: "Observations", Subtitle: d.Equation}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)...)
	points.AddSeries("Actual", chart3DData(s.Actual))
	points.AddSeries("Predicted", chart3DData(s.Predicted))
	return surface, points
}

func referenceChart(title, subtitle, xName, yName, refName string, p *plot.ReferencePlot) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(globalOpts(title, subtitle, xName, yName)...)
	scatter.AddSeries("Observations", scatterData(p.Points))

	ref := charts.NewLine()
	ref.AddSeries(refName, lineData([]plot.Point{p.Reference.From, p.Reference.To}))
	scatter.Overlap(ref)
	return scatter
}

func lineData(points []plot.Point) []opts.LineData {
	out := make([]opts.LineData, len(points))
	for i, p := range points {
		out[i] = opts.LineData{Value: []interface{}{p.X, p.Y}}
	}
	return out
}

func scatterData(points []plot.Point) []opts.ScatterData {
	out := make([]opts.ScatterData, len(points))
	for i, p := range points {
		out[i] = opts.ScatterData{Value: []interface{}{p.X, p.Y}}
	}
	return out
}

func chart3DData(points []plot.Point3) []opts.Chart3DData {
	out := make([]opts.Chart3DData, len(points))
	for i, p := range points {
		out[i] = opts.Chart3DData{Value: []interface{}{p.X, p.Y, p.Z}}
	}
	return out
}

func surfaceData(s *plot.Surface) []opts.Chart3DData {
	out := make([]opts.Chart3DData, 0, len(s.X)*len(s.Y))
	for r, y := range s.Y {
		for c, x := range s.X {
			out = append(out, opts.Chart3DData{Value: []interface{}{x, y, s.Z[r][c]}})
		}
	}
	return out
}
