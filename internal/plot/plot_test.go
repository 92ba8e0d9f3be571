package plot

import (
	"errors"
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/iammorganparry/clive/apps/regression/internal/models"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func oneVarResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		ID:           "r1",
		Dependent:    "Y",
		Independents: []string{"X1"},
		Intercept:    2.0,
		Coefficients: map[string]float64{"X1": 3.0},
		PValues:      map[string]float64{"X1": 0.01},
		RSquared:     0.9,
		Observations: []models.Observation{
			{Actual: 5.1, Predicted: 5, Residual: 0.1, Values: map[string]float64{"X1": 1}},
			{Actual: 10.8, Predicted: 11, Residual: -0.2, Values: map[string]float64{"X1": 3}},
			{Actual: 8.0, Predicted: 8, Residual: 0, Values: map[string]float64{"X1": 2}},
		},
	}
}

func twoVarResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		ID:           "r2",
		Dependent:    "Y",
		Independents: []string{"X1", "X2"},
		Intercept:    1.0,
		Coefficients: map[string]float64{"X1": 2.0, "X2": -0.5},
		PValues:      map[string]float64{"X1": 0.001, "X2": 0.2},
		Observations: []models.Observation{
			{Actual: 1, Predicted: 1.5, Residual: -0.5, Values: map[string]float64{"X1": 0, "X2": -1}},
			{Actual: 7, Predicted: 6.5, Residual: 0.5, Values: map[string]float64{"X1": 3, "X2": 1}},
			{Actual: 4, Predicted: 4, Residual: 0, Values: map[string]float64{"X1": 2, "X2": 2}},
		},
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("Linspace[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	flat := Linspace(4, 4, CurveSamples)
	for i, v := range flat {
		if v != 4 {
			t.Fatalf("degenerate Linspace[%d] = %v, want 4", i, v)
		}
	}

	if got := Linspace(2, 9, 1); len(got) != 1 || got[0] != 2 {
		t.Errorf("Linspace(2, 9, 1) = %v, want [2]", got)
	}
	if got := Linspace(2, 9, 0); got != nil {
		t.Errorf("Linspace(2, 9, 0) = %v, want nil", got)
	}
}

func TestBuildFunctionCurveOnePredictor(t *testing.T) {
	result := oneVarResult()
	p, err := BuildFunctionCurve(result, []string{"X1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Dimensions() != 1 {
		t.Fatalf("dimensions = %d, want 1", p.Dimensions())
	}
	c := p.Curve
	if len(c.Fitted) != CurveSamples {
		t.Fatalf("fitted samples = %d, want %d", len(c.Fitted), CurveSamples)
	}
	if !almostEqual(c.Fitted[0].X, 1) || !almostEqual(c.Fitted[0].Y, 2+3*1) {
		t.Errorf("first sample = %+v, want (1, 5)", c.Fitted[0])
	}
	last := c.Fitted[CurveSamples-1]
	if !almostEqual(last.X, 3) || !almostEqual(last.Y, 2+3*3) {
		t.Errorf("last sample = %+v, want (3, 11)", last)
	}
	if len(c.Predicted) != 3 || len(c.Actual) != 3 {
		t.Fatalf("expected 3 discrete points, got %d/%d", len(c.Predicted), len(c.Actual))
	}
	if c.Actual[1] != (Point{X: 3, Y: 10.8}) || c.Predicted[1] != (Point{X: 3, Y: 11}) {
		t.Errorf("discrete points not in observation order: %+v %+v", c.Actual[1], c.Predicted[1])
	}
}

func TestBuildFunctionCurveFlatDomain(t *testing.T) {
	result := oneVarResult()
	for i := range result.Observations {
		result.Observations[i].Values = map[string]float64{"X1": 7}
	}
	p, err := BuildFunctionCurve(result, []string{"X1"})
	if err != nil {
		t.Fatal(err)
	}
	for _, pt := range p.Curve.Fitted {
		if pt.X != 7 || !almostEqual(pt.Y, 23) {
			t.Fatalf("flat sample = %+v, want (7, 23)", pt)
		}
	}
}

func TestBuildFunctionCurveTwoPredictors(t *testing.T) {
	result := twoVarResult()
	p, err := BuildFunctionCurve(result, []string{"X1", "X2"})
	if err != nil {
		t.Fatal(err)
	}
	s := p.Surface
	if s == nil || p.Curve != nil {
		t.Fatal("expected a surface only")
	}
	if len(s.X) != SurfaceSamples || len(s.Y) != SurfaceSamples || len(s.Z) != SurfaceSamples {
		t.Fatalf("grid axes = %d/%d/%d", len(s.X), len(s.Y), len(s.Z))
	}
	for r, row := range s.Z {
		if len(row) != SurfaceSamples {
			t.Fatalf("row %d has %d cells", r, len(row))
		}
	}
	// xMin=0, yMin=-1
	if want := 1.0 + 2*0 + -0.5*-1; !almostEqual(s.Z[0][0], want) {
		t.Errorf("z[0][0] = %v, want %v", s.Z[0][0], want)
	}
	// xMax=3, yMax=2
	if want := 1.0 + 2*3 + -0.5*2; !almostEqual(s.Z[SurfaceSamples-1][SurfaceSamples-1], want) {
		t.Errorf("z[24][24] = %v, want %v", s.Z[SurfaceSamples-1][SurfaceSamples-1], want)
	}
	// Row index follows Y, column index follows X.
	if want := 1.0 + 2*s.X[3] + -0.5*s.Y[7]; !almostEqual(s.Z[7][3], want) {
		t.Errorf("z[7][3] = %v, want %v", s.Z[7][3], want)
	}
	if s.Actual[1] != (Point3{X: 3, Y: 1, Z: 7}) {
		t.Errorf("actual[1] = %+v", s.Actual[1])
	}
}

func TestBuildFunctionCurveUnsupportedDimensions(t *testing.T) {
	result := twoVarResult()
	result.Coefficients["X3"] = 1
	for _, independents := range [][]string{nil, {"X1", "X2", "X3"}} {
		p, err := BuildFunctionCurve(result, independents)
		if err != nil || p != nil {
			t.Errorf("BuildFunctionCurve(%v) = %v, %v; want nil, nil", independents, p, err)
		}
	}
}

func TestBuildFunctionCurveErrors(t *testing.T) {
	t.Run("missing coefficient", func(t *testing.T) {
		_, err := BuildFunctionCurve(oneVarResult(), []string{"X9"})
		if !errors.Is(err, models.ErrInvalidVariable) {
			t.Errorf("expected ErrInvalidVariable, got %v", err)
		}
	})
	t.Run("observations without predictor values", func(t *testing.T) {
		r := oneVarResult()
		r.Observations[0].Values = nil
		_, err := BuildFunctionCurve(r, []string{"X1"})
		if !errors.Is(err, models.ErrInvalidVariable) {
			t.Errorf("expected ErrInvalidVariable, got %v", err)
		}
	})
	t.Run("no observations", func(t *testing.T) {
		r := oneVarResult()
		r.Observations = nil
		_, err := BuildFunctionCurve(r, []string{"X1"})
		if !errors.Is(err, models.ErrEmptyObservationSet) {
			t.Errorf("expected ErrEmptyObservationSet, got %v", err)
		}
	})
}

func TestParityPlot(t *testing.T) {
	result := &models.AnalysisResult{Observations: []models.Observation{
		{Actual: 1, Predicted: 1.2},
		{Actual: 2, Predicted: 1.8},
	}}
	p, err := BuildParityPlot(result)
	if err != nil {
		t.Fatal(err)
	}
	want := Segment{From: Point{X: 1, Y: 1}, To: Point{X: 2, Y: 2}}
	if p.Reference != want {
		t.Errorf("reference = %+v, want %+v", p.Reference, want)
	}
	if p.Points[0] != (Point{X: 1, Y: 1.2}) || p.Points[1] != (Point{X: 2, Y: 1.8}) {
		t.Errorf("points = %+v", p.Points)
	}
}

func TestResidualPlot(t *testing.T) {
	p, err := BuildResidualPlot(oneVarResult())
	if err != nil {
		t.Fatal(err)
	}
	want := Segment{From: Point{X: 5, Y: 0}, To: Point{X: 11, Y: 0}}
	if p.Reference != want {
		t.Errorf("reference = %+v, want %+v", p.Reference, want)
	}
	if p.Points[1] != (Point{X: 11, Y: -0.2}) {
		t.Errorf("points[1] = %+v", p.Points[1])
	}
}

func TestReferencePlotsRejectEmpty(t *testing.T) {
	empty := &models.AnalysisResult{}
	if _, err := BuildParityPlot(empty); !errors.Is(err, models.ErrEmptyObservationSet) {
		t.Errorf("parity: expected ErrEmptyObservationSet, got %v", err)
	}
	if _, err := BuildResidualPlot(empty); !errors.Is(err, models.ErrEmptyObservationSet) {
		t.Errorf("residuals: expected ErrEmptyObservationSet, got %v", err)
	}
}

func TestCurveSamplesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(t, "n")
		intercept := rapid.Float64Range(-1e3, 1e3).Draw(t, "intercept")
		coef := rapid.Float64Range(-1e3, 1e3).Draw(t, "coef")
		obs := make([]models.Observation, n)
		for i := range obs {
			x := rapid.Float64Range(-1e4, 1e4).Draw(t, "x")
			obs[i] = models.Observation{Values: map[string]float64{"X": x}}
		}
		result := &models.AnalysisResult{
			Intercept:    intercept,
			Coefficients: map[string]float64{"X": coef},
			Observations: obs,
		}

		p, err := BuildFunctionCurve(result, []string{"X"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		fitted := p.Curve.Fitted
		if len(fitted) != CurveSamples {
			t.Fatalf("got %d samples", len(fitted))
		}
		for i := 1; i < len(fitted); i++ {
			if fitted[i].X < fitted[i-1].X {
				t.Fatalf("abscissa decreases at %d: %v < %v", i, fitted[i].X, fitted[i-1].X)
			}
		}

		xs, _ := predictorValues(obs, "X")
		lo, hi, _ := Extent(xs)
		if !almostEqual(fitted[0].Y, intercept+coef*lo) {
			t.Fatalf("first ordinate %v, want %v", fitted[0].Y, intercept+coef*lo)
		}
		if math.Abs(fitted[CurveSamples-1].Y-(intercept+coef*hi)) > 1e-6*math.Max(1, math.Abs(coef*hi)) {
			t.Fatalf("last ordinate %v, want %v", fitted[CurveSamples-1].Y, intercept+coef*hi)
		}
	})
}

func TestBuildFunctionCurveIsDeterministic(t *testing.T) {
	result := twoVarResult()
	a, err := BuildFunctionCurve(result, []string{"X1", "X2"})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := BuildFunctionCurve(result, []string{"X1", "X2"})
	for r := range a.Surface.Z {
		for c := range a.Surface.Z[r] {
			if a.Surface.Z[r][c] != b.Surface.Z[r][c] {
				t.Fatalf("z[%d][%d] differs between runs", r, c)
			}
		}
	}
}
