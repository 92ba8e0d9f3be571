package plot

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/iammorganparry/clive/apps/regression/internal/models"
)

// SignificanceLevel is the p-value below which a coefficient is reported as significant.
const SignificanceLevel = 0.05

func fixed4(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// RenderEquation formats the fitted model as
// "dependent = intercept ± coef × var ...", iterating independents in
// order. Variables without a coefficient are left out.
func RenderEquation(result *models.AnalysisResult, dependent string, independents []string) string {
	var b strings.Builder
	b.WriteString(dependent)
	b.WriteString(" = ")
	b.WriteString(fixed4(result.Intercept))
	for _, v := range independents {
		c, ok := result.Coefficient(v)
		if !ok {
			continue
		}
		sign := "+"
		if c < 0 {
			sign = "-"
		}
		fmt.Fprintf(&b, " %s %s × %s", sign, fixed4(math.Abs(c)), v)
	}
	return b.String()
}

// CoefficientRow is one line of the coefficient table.
type CoefficientRow struct {
	Variable    string   `json:"variable"`
	Coefficient float64  `json:"coefficient"`
	PValue      *float64 `json:"pValue,omitempty"`
	Significant *bool    `json:"significant,omitempty"`
}

// InterceptLabel names the intercept row of the coefficient table.
const InterceptLabel = "Intercept"

// CoefficientTable lists the intercept followed by each independent's
// coefficient and p-value.
func CoefficientTable(result *models.AnalysisResult, independents []string) []CoefficientRow {
	rows := make([]CoefficientRow, 0, len(independents)+1)
	rows = append(rows, CoefficientRow{Variable: InterceptLabel, Coefficient: result.Intercept})
	for _, v := range independents {
		c, ok := result.Coefficient(v)
		if !ok {
			continue
		}
		row := CoefficientRow{Variable: v, Coefficient: c}
		if p, ok := result.PValues[v]; ok {
			sig := p < SignificanceLevel
			row.PValue = &p
			row.Significant = &sig
		}
		rows = append(rows, row)
	}
	return rows
}

// Metrics is the display form of the goodness-of-fit numbers.
type Metrics struct {
	RSquared string `json:"rSquared"`
	MSE      string `json:"mse"`
}

// FormatMetrics renders R² as a percentage and MSE to four decimals.
func FormatMetrics(result *models.AnalysisResult) Metrics {
	return Metrics{
		RSquared: strconv.FormatFloat(result.RSquared*100, 'f', 2, 64) + "%",
		MSE:      fixed4(result.MeanSquaredError),
	}
}

// ResidualSummary describes the spread of the residuals.
type ResidualSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	MaxAbs float64 `json:"maxAbs"`
}

// SummarizeResiduals computes mean, sample standard deviation and largest
// absolute residual.
func SummarizeResiduals(result *models.AnalysisResult) (ResidualSummary, error) {
	res := residuals(result.Observations)
	if len(res) == 0 {
		return ResidualSummary{}, models.ErrEmptyObservationSet
	}
	mean, std := stat.MeanStdDev(res, nil)
	if len(res) == 1 {
		std = 0
	}
	return ResidualSummary{
		Count:  len(res),
		Mean:   mean,
		StdDev: std,
		MaxAbs: math.Max(math.Abs(floats.Min(res)), math.Abs(floats.Max(res))),
	}, nil
}
