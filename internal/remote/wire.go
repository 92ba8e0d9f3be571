package remote

import (
	"fmt"
	"slices"

	"github.com/iammorganparry/clive/apps/regression/internal/models"
)

// analysisResponse is the analyze endpoint's body. Each observation is a
// flat object holding actual, predicted, residual and one key per
// independent variable. Older services send predicted_vs_actual without
// predictor values instead.
type analysisResponse struct {
	Intercept         float64                       `json:"intercept"`
	Coefficients      map[string]float64            `json:"coefficients"`
	PValues           map[string]float64            `json:"p_values"`
	RSquared          float64                       `json:"r_squared"`
	MSE               float64                       `json:"mse"`
	Observations      []map[string]float64          `json:"observations"`
	PredictedVsActual []map[string]float64          `json:"predicted_vs_actual"`
	CorrelationMatrix map[string]map[string]float64 `json:"correlation_matrix"`
}

const (
	keyActual    = "actual"
	keyPredicted = "predicted"
	keyResidual  = "residual"
)

func (w *analysisResponse) toResult(req models.AnalyzeRequest) (*models.AnalysisResult, error) {
	if err := sameKeys("coefficients", w.Coefficients, req.Independents); err != nil {
		return nil, err
	}
	if err := sameKeys("p_values", w.PValues, req.Independents); err != nil {
		return nil, err
	}

	rows := w.Observations
	if rows == nil {
		rows = w.PredictedVsActual
	}
	obs := make([]models.Observation, len(rows))
	for i, row := range rows {
		o, err := toObservation(row)
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
		obs[i] = o
	}

	return &models.AnalysisResult{
		Dependent:         req.Dependent,
		Independents:      slices.Clone(req.Independents),
		Intercept:         w.Intercept,
		Coefficients:      w.Coefficients,
		PValues:           w.PValues,
		RSquared:          w.RSquared,
		MeanSquaredError:  w.MSE,
		Observations:      obs,
		CorrelationMatrix: w.CorrelationMatrix,
	}, nil
}

// toObservation requires actual and predicted; a missing residual is
// derived from them.
func toObservation(row map[string]float64) (models.Observation, error) {
	actual, ok := row[keyActual]
	if !ok {
		return models.Observation{}, fmt.Errorf("missing %q", keyActual)
	}
	predicted, ok := row[keyPredicted]
	if !ok {
		return models.Observation{}, fmt.Errorf("missing %q", keyPredicted)
	}
	o := models.Observation{Actual: actual, Predicted: predicted}
	if r, ok := row[keyResidual]; ok {
		o.Residual = r
	} else {
		o.Residual = o.Actual - o.Predicted
	}
	for k, v := range row {
		switch k {
		case keyActual, keyPredicted, keyResidual:
			continue
		}
		if o.Values == nil {
			o.Values = make(map[string]float64)
		}
		o.Values[k] = v
	}
	return o, nil
}

func sameKeys(field string, m map[string]float64, want []string) error {
	if len(m) != len(want) {
		return fmt.Errorf("%s has %d entries, expected %d", field, len(m), len(want))
	}
	for _, v := range want {
		if _, ok := m[v]; !ok {
			return fmt.Errorf("%s is missing %q", field, v)
		}
	}
	return nil
}
