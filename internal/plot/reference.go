package plot

import (
	"github.com/iammorganparry/clive/apps/regression/internal/models"
)

// ReferencePlot is a scatter series drawn against a straight reference line.
type ReferencePlot struct {
	Points    []Point `json:"points"`
	Reference Segment `json:"reference"`
}

// BuildParityPlot plots actual (x) against predicted (y) with the identity
// line spanning the observed actual range.
func BuildParityPlot(result *models.AnalysisResult) (*ReferencePlot, error) {
	actual := actuals(result.Observations)
	lo, hi, err := Extent(actual)
	if err != nil {
		return nil, err
	}
	return &ReferencePlot{
		Points: zip(actual, predictions(result.Observations)),
		Reference: Segment{
			From: Point{X: lo, Y: lo},
			To:   Point{X: hi, Y: hi},
		},
	}, nil
}

// BuildResidualPlot plots predicted (x) against residual (y) with a zero
// line spanning the predicted range.
func BuildResidualPlot(result *models.AnalysisResult) (*ReferencePlot, error) {
	predicted := predictions(result.Observations)
	lo, hi, err := Extent(predicted)
	if err != nil {
		return nil, err
	}
	return &ReferencePlot{
		Points: zip(predicted, residuals(result.Observations)),
		Reference: Segment{
			From: Point{X: lo, Y: 0},
			To:   Point{X: hi, Y: 0},
		},
	}, nil
}
