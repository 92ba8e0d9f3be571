package plot

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/iammorganparry/clive/apps/regression/internal/models"
)

func TestRenderEquation(t *testing.T) {
	tests := []struct {
		name         string
		intercept    float64
		coefficients map[string]float64
		independents []string
		want         string
	}{
		{
			name:         "single positive term",
			intercept:    2,
			coefficients: map[string]float64{"X1": 3},
			independents: []string{"X1"},
			want:         "Y = 2.0000 + 3.0000 × X1",
		},
		{
			name:         "negative coefficient takes minus sign",
			intercept:    -1.23456,
			coefficients: map[string]float64{"X1": 0.5, "X2": -2.71828},
			independents: []string{"X1", "X2"},
			want:         "Y = -1.2346 + 0.5000 × X1 - 2.7183 × X2",
		},
		{
			name:         "follows independents order",
			intercept:    0,
			coefficients: map[string]float64{"A": 1, "B": 2},
			independents: []string{"B", "A"},
			want:         "Y = 0.0000 + 2.0000 × B + 1.0000 × A",
		},
		{
			name:         "skips variables without coefficient",
			intercept:    1,
			coefficients: map[string]float64{"A": 1},
			independents: []string{"A", "missing"},
			want:         "Y = 1.0000 + 1.0000 × A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &models.AnalysisResult{Intercept: tt.intercept, Coefficients: tt.coefficients}
			if got := RenderEquation(r, "Y", tt.independents); got != tt.want {
				t.Errorf("RenderEquation = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCoefficientTable(t *testing.T) {
	rows := CoefficientTable(twoVarResult(), []string{"X1", "X2"})
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].Variable != InterceptLabel || rows[0].PValue != nil || rows[0].Significant != nil {
		t.Errorf("intercept row = %+v", rows[0])
	}
	if rows[1].Variable != "X1" || !*rows[1].Significant {
		t.Errorf("X1 should be significant: %+v", rows[1])
	}
	if rows[2].Variable != "X2" || *rows[2].Significant {
		t.Errorf("X2 should not be significant: %+v", rows[2])
	}
}

func TestFormatMetrics(t *testing.T) {
	m := FormatMetrics(&models.AnalysisResult{RSquared: 0.87654, MeanSquaredError: 1.234567})
	if m.RSquared != "87.65%" {
		t.Errorf("RSquared = %q", m.RSquared)
	}
	if m.MSE != "1.2346" {
		t.Errorf("MSE = %q", m.MSE)
	}
}

func TestSummarizeResiduals(t *testing.T) {
	s, err := SummarizeResiduals(oneVarResult())
	if err != nil {
		t.Fatal(err)
	}
	if s.Count != 3 {
		t.Errorf("count = %d", s.Count)
	}
	if math.Abs(s.Mean-(-0.1/3)) > 1e-12 {
		t.Errorf("mean = %v", s.Mean)
	}
	if s.MaxAbs != 0.2 {
		t.Errorf("maxAbs = %v, want 0.2", s.MaxAbs)
	}
	if s.StdDev <= 0 {
		t.Errorf("stdDev = %v, want positive", s.StdDev)
	}

	if _, err := SummarizeResiduals(&models.AnalysisResult{}); !errors.Is(err, models.ErrEmptyObservationSet) {
		t.Errorf("expected ErrEmptyObservationSet, got %v", err)
	}
}

func TestCacheReturnsSameValue(t *testing.T) {
	c := NewCache(8)
	result := oneVarResult()

	a, err := c.FunctionCurve(result, []string{"X1"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.FunctionCurve(result, []string{"X1"})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected the cached plot to be reused")
	}

	p1, _ := c.Parity(result)
	p2, _ := c.Parity(result)
	if p1 != p2 {
		t.Error("expected the cached parity plot to be reused")
	}
	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
}

func TestCacheKeysOnIndependents(t *testing.T) {
	c := NewCache(8)
	result := twoVarResult()

	surface, err := c.FunctionCurve(result, []string{"X1", "X2"})
	if err != nil {
		t.Fatal(err)
	}
	curve, err := c.FunctionCurve(result, []string{"X1"})
	if err != nil {
		t.Fatal(err)
	}
	if surface.Dimensions() != 2 || curve.Dimensions() != 1 {
		t.Errorf("dimensions = %d/%d, want 2/1", surface.Dimensions(), curve.Dimensions())
	}
}

func TestCacheUnsupportedDimensions(t *testing.T) {
	c := NewCache(8)
	p, err := c.FunctionCurve(twoVarResult(), []string{"X1", "X2", "X3"})
	if err != nil || p != nil {
		t.Errorf("got %v, %v; want nil, nil", p, err)
	}
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	c := NewCache(8)
	empty := &models.AnalysisResult{ID: "empty"}
	if _, err := c.Residuals(empty); !errors.Is(err, models.ErrEmptyObservationSet) {
		t.Fatalf("expected ErrEmptyObservationSet, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("len = %d, want 0", c.Len())
	}
}

func TestCacheEvictsOldest(t *testing.T) {
	c := NewCache(2)
	for _, id := range []string{"a", "b", "c"} {
		r := oneVarResult()
		r.ID = id
		if _, err := c.Parity(r); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
}

func TestCacheConcurrentReads(t *testing.T) {
	c := NewCache(8)
	result := twoVarResult()

	var wg sync.WaitGroup
	plots := make([]*FunctionPlot, 16)
	for i := range plots {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.FunctionCurve(result, []string{"X1", "X2"})
			if err != nil {
				t.Errorf("FunctionCurve: %v", err)
				return
			}
			plots[i] = p
		}(i)
	}
	wg.Wait()

	for i, p := range plots {
		if p == nil || p.Surface == nil {
			t.Fatalf("plot %d missing surface", i)
		}
	}
}
