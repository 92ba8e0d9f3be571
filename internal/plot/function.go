package plot

import (
	"github.com/iammorganparry/clive/apps/regression/internal/models"
)

// Curve is the fitted line of a one-predictor model with the observed
// points drawn against it.
type Curve struct {
	Variable  string  `json:"variable"`
	Fitted    []Point `json:"fitted"`
	Predicted []Point `json:"predicted"`
	Actual    []Point `json:"actual"`
}

// Surface is the fitted plane of a two-predictor model sampled on a regular
// grid. Z[r][c] is the model value at (X[c], Y[r]).
type Surface struct {
	XVariable string      `json:"xVariable"`
	YVariable string      `json:"yVariable"`
	X         []float64   `json:"x"`
	Y         []float64   `json:"y"`
	Z         [][]float64 `json:"z"`
	Predicted []Point3    `json:"predicted"`
	Actual    []Point3    `json:"actual"`
}

// FunctionPlot holds exactly one of Curve or Surface.
type FunctionPlot struct {
	Dependent string   `json:"dependent"`
	Curve     *Curve   `json:"curve,omitempty"`
	Surface   *Surface `json:"surface,omitempty"`
}

// Dimensions is the number of plotted predictors.
func (p *FunctionPlot) Dimensions() int {
	switch {
	case p == nil:
		return 0
	case p.Surface != nil:
		return 2
	case p.Curve != nil:
		return 1
	default:
		return 0
	}
}

// SupportsFunctionPlot reports whether a model over independents can be
// drawn as a curve or surface.
func SupportsFunctionPlot(independents []string) bool {
	return len(independents) == 1 || len(independents) == 2
}

// BuildFunctionCurve samples the fitted model over the observed domain.
// With one predictor it returns a 100-point curve, with two a 25x25
// surface. For any other number of predictors it returns nil and no error;
// callers must not draw a function plot in that case.
//
// The surface is the regression hyperplane restricted to the two plotted
// predictors. Other predictors are not held at their means; their effect
// is only whatever the intercept already carries.
func BuildFunctionCurve(result *models.AnalysisResult, independents []string) (*FunctionPlot, error) {
	if !SupportsFunctionPlot(independents) {
		return nil, nil
	}
	if len(result.Observations) == 0 {
		return nil, models.ErrEmptyObservationSet
	}

	plot := &FunctionPlot{Dependent: result.Dependent}
	var err error
	if len(independents) == 1 {
		plot.Curve, err = buildCurve(result, independents[0])
	} else {
		plot.Surface, err = buildSurface(result, independents[0], independents[1])
	}
	if err != nil {
		return nil, err
	}
	return plot, nil
}

func buildCurve(result *models.AnalysisResult, variable string) (*Curve, error) {
	coef, err := coefficient(result, variable)
	if err != nil {
		return nil, err
	}
	xs, err := predictorValues(result.Observations, variable)
	if err != nil {
		return nil, err
	}
	lo, hi, err := Extent(xs)
	if err != nil {
		return nil, err
	}

	samples := Linspace(lo, hi, CurveSamples)
	fitted := make([]Point, len(samples))
	for i, s := range samples {
		fitted[i] = Point{X: s, Y: result.Intercept + coef*s}
	}

	return &Curve{
		Variable:  variable,
		Fitted:    fitted,
		Predicted: zip(xs, predictions(result.Observations)),
		Actual:    zip(xs, actuals(result.Observations)),
	}, nil
}

func buildSurface(result *models.AnalysisResult, xVar, yVar string) (*Surface, error) {
	cx, err := coefficient(result, xVar)
	if err != nil {
		return nil, err
	}
	cy, err := coefficient(result, yVar)
	if err != nil {
		return nil, err
	}
	xs, err := predictorValues(result.Observations, xVar)
	if err != nil {
		return nil, err
	}
	ys, err := predictorValues(result.Observations, yVar)
	if err != nil {
		return nil, err
	}
	xLo, xHi, err := Extent(xs)
	if err != nil {
		return nil, err
	}
	yLo, yHi, err := Extent(ys)
	if err != nil {
		return nil, err
	}

	xGrid := Linspace(xLo, xHi, SurfaceSamples)
	yGrid := Linspace(yLo, yHi, SurfaceSamples)
	z := make([][]float64, SurfaceSamples)
	for r := range z {
		row := make([]float64, SurfaceSamples)
		for c := range row {
			row[c] = result.Intercept + cx*xGrid[c] + cy*yGrid[r]
		}
		z[r] = row
	}

	predicted := make([]Point3, len(xs))
	actual := make([]Point3, len(xs))
	for i, o := range result.Observations {
		predicted[i] = Point3{X: xs[i], Y: ys[i], Z: o.Predicted}
		actual[i] = Point3{X: xs[i], Y: ys[i], Z: o.Actual}
	}

	return &Surface{
		XVariable: xVar,
		YVariable: yVar,
		X:         xGrid,
		Y:         yGrid,
		Z:         z,
		Predicted: predicted,
		Actual:    actual,
	}, nil
}
