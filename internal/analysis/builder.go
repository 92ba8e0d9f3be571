// Package analysis assembles analyze requests from session and selection
// state. It performs no I/O.
package analysis

import (
	"fmt"
	"slices"

	"github.com/iammorganparry/clive/apps/regression/internal/models"
	"github.com/iammorganparry/clive/apps/regression/internal/selection"
)

// Build validates sel against sess and returns the request to send to the
// analysis service.
func Build(sess *models.Session, sel selection.Selection) (models.AnalyzeRequest, error) {
	if sess == nil {
		return models.AnalyzeRequest{}, models.ErrNoSession
	}
	if !sel.HasDependent() {
		return models.AnalyzeRequest{}, models.ErrIncompleteSelection
	}
	if len(sel.Independents) == 0 {
		return models.AnalyzeRequest{}, models.ErrEmptyIndependentSet
	}
	// The selection may outlive the session it was made against.
	for _, name := range append([]string{sel.Dependent}, sel.Independents...) {
		if !sess.HasColumn(name) {
			return models.AnalyzeRequest{}, fmt.Errorf("%w: %q is not a column of %s", models.ErrInvalidVariable, name, sess.FileName)
		}
	}
	return models.AnalyzeRequest{
		SessionID:    sess.ID,
		Dependent:    sel.Dependent,
		Independents: slices.Clone(sel.Independents),
	}, nil
}

// BuildReport validates the selection the same way as Build and attaches
// the report format.
func BuildReport(sess *models.Session, sel selection.Selection, format models.ReportFormat) (models.ReportRequest, error) {
	if !format.IsValid() {
		return models.ReportRequest{}, models.ErrInvalidFormat
	}
	req, err := Build(sess, sel)
	if err != nil {
		return models.ReportRequest{}, err
	}
	return models.ReportRequest{AnalyzeRequest: req, Format: format}, nil
}
