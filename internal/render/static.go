package render

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/iammorganparry/clive/apps/regression/internal/plot"
)

// ErrUnsupportedChart is returned for plots with no static 2-D form.
var ErrUnsupportedChart = errors.New("chart has no static image form")

// ImageFormat is a static chart encoding.
type ImageFormat string

const (
	ImagePNG ImageFormat = "png"
	ImageSVG ImageFormat = "svg"
)

// ParseImageFormat accepts "png" or "svg".
func ParseImageFormat(s string) (ImageFormat, error) {
	switch ImageFormat(s) {
	case ImagePNG, ImageSVG:
		return ImageFormat(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedChart, s)
}

// ContentType is the MIME type of images in format f.
func (f ImageFormat) ContentType() string {
	if f == ImageSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f ImageFormat) provider() chart.RendererProvider {
	if f == ImageSVG {
		return chart.SVG
	}
	return chart.PNG
}

var (
	colorFitted    = chart.ColorBlue
	colorActual    = chart.ColorRed
	colorPredicted = chart.ColorGreen
	colorReference = drawing.ColorFromHex("888888")
)

// WriteFunctionImage draws a one-predictor curve. Surfaces return
// ErrUnsupportedChart.
func WriteFunctionImage(w io.Writer, f ImageFormat, fp *plot.FunctionPlot) error {
	if fp.Dimensions() != 1 {
		return fmt.Errorf("%w: %d-predictor function plot", ErrUnsupportedChart, fp.Dimensions())
	}
	c := fp.Curve

	xs, ys := split(c.Fitted)
	all := append(append(append([]plot.Point{}, c.Fitted...), c.Actual...), c.Predicted...)

	graph := chart.Chart{
		Title:  "Regression function",
		XAxis:  xAxis(c.Variable, all),
		YAxis:  yAxis(fp.Dependent, all),
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Fitted",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: colorFitted,
					StrokeWidth: 2,
				},
			},
			dots("Actual", c.Actual, colorActual),
			dots("Predicted", c.Predicted, colorPredicted),
		},
	}
	return renderChart(w, f, &graph)
}

// WriteReferenceImage draws a scatter plot against its reference line.
func WriteReferenceImage(w io.Writer, f ImageFormat, title, xName, yName string, rp *plot.ReferencePlot) error {
	ref := []plot.Point{rp.Reference.From, rp.Reference.To}
	rx, ry := split(ref)
	all := append(append([]plot.Point{}, rp.Points...), ref...)

	graph := chart.Chart{
		Title: title,
		XAxis: xAxis(xName, all),
		YAxis: yAxis(yName, all),
		Series: []chart.Series{
			dots("Observations", rp.Points, colorActual),
			chart.ContinuousSeries{
				Name:    "Reference",
				XValues: rx,
				YValues: ry,
				Style: chart.Style{
					StrokeColor:     colorReference,
					StrokeWidth:     1,
					StrokeDashArray: []float64{5, 5},
				},
			},
		},
	}
	return renderChart(w, f, &graph)
}

func renderChart(w io.Writer, f ImageFormat, graph *chart.Chart) error {
	graph.Background = chart.Style{
		Padding: chart.Box{
			Top:  20,
			Left: 20,
		},
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(graph),
	}
	if err := graph.Render(f.provider(), w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func dots(name string, points []plot.Point, color drawing.Color) chart.ContinuousSeries {
	xs, ys := split(points)
	return chart.ContinuousSeries{
		Name:    name,
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    3,
			DotColor:    color,
		},
	}
}

func split(points []plot.Point) (xs, ys []float64) {
	xs = make([]float64, len(points))
	ys = make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}

func xAxis(name string, points []plot.Point) chart.XAxis {
	return chart.XAxis{Name: name, Range: paddedRange(points, func(p plot.Point) float64 { return p.X })}
}

func yAxis(name string, points []plot.Point) chart.YAxis {
	return chart.YAxis{Name: name, Range: paddedRange(points, func(p plot.Point) float64 { return p.Y })}
}

// paddedRange fixes the axis range so a flat series still has a non-zero
// span, which go-chart refuses to draw otherwise.
func paddedRange(points []plot.Point, coord func(plot.Point) float64) *chart.ContinuousRange {
	if len(points) == 0 {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	lo, hi := coord(points[0]), coord(points[0])
	for _, p := range points[1:] {
		v := coord(p)
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo == hi {
		pad := 1.0
		if lo != 0 {
			pad = math.Abs(lo) * 0.1
		}
		return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
