package models

import (
	"path/filepath"
	"slices"
	"strings"
)

// ReportFormat is the output format of a generated report.
type ReportFormat string

const (
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
)

var ValidReportFormats = map[ReportFormat]bool{
	ReportFormatPDF:  true,
	ReportFormatXLSX: true,
}

func (f ReportFormat) IsValid() bool {
	return ValidReportFormats[f]
}

// FileName is the name a delivered report is saved under.
func (f ReportFormat) FileName() string {
	return "regression_report." + string(f)
}

// AcceptedUploadExtensions lists the file extensions the analysis service parses.
var AcceptedUploadExtensions = []string{".csv", ".xlsx", ".xls"}

// IsAcceptedUpload reports whether name carries an accepted extension,
// compared case-insensitively.
func IsAcceptedUpload(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(AcceptedUploadExtensions, ext)
}

// --- Sessions ---

// Session is the record produced by a successful upload. It is never
// modified after creation; a new upload replaces it whole.
type Session struct {
	ID       string   `json:"sessionId"`
	FileName string   `json:"fileName,omitempty"`
	RowCount int      `json:"rowCount"`
	Columns  []string `json:"columns"`
}

// HasColumn reports whether name is one of the uploaded columns.
func (s *Session) HasColumn(name string) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.Columns, name)
}

// UploadResponse is the body returned by the service's upload endpoint.
type UploadResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	SessionID string   `json:"session_id"`
	Columns   []string `json:"columns"`
	Rows      int      `json:"rows"`
}

// --- Analysis ---

// AnalyzeRequest is the payload for the service's analyze endpoint.
type AnalyzeRequest struct {
	SessionID    string   `json:"session_id"`
	Dependent    string   `json:"dependent_variable"`
	Independents []string `json:"independent_variables"`
}

// ReportRequest is the payload for the service's report endpoint.
type ReportRequest struct {
	AnalyzeRequest
	Format ReportFormat `json:"report_format"`
}

// Observation is one fitted row: the observed response, the model's
// prediction, the residual and the predictor values that produced it.
type Observation struct {
	Actual    float64            `json:"actual"`
	Predicted float64            `json:"predicted"`
	Residual  float64            `json:"residual"`
	Values    map[string]float64 `json:"values,omitempty"`
}

// Value returns the predictor value recorded for variable.
func (o Observation) Value(variable string) (float64, bool) {
	v, ok := o.Values[variable]
	return v, ok
}

// AnalysisResult is the fitted model returned by one successful analyze
// call. It is shared read-only once committed.
type AnalysisResult struct {
	ID                string                        `json:"id"`
	Dependent         string                        `json:"dependent"`
	Independents      []string                      `json:"independents"`
	Intercept         float64                       `json:"intercept"`
	Coefficients      map[string]float64            `json:"coefficients"`
	PValues           map[string]float64            `json:"pValues"`
	RSquared          float64                       `json:"rSquared"`
	MeanSquaredError  float64                       `json:"meanSquaredError"`
	Observations      []Observation                 `json:"observations"`
	CorrelationMatrix map[string]map[string]float64 `json:"correlationMatrix,omitempty"`
}

// Coefficient returns the fitted weight for variable.
func (r *AnalysisResult) Coefficient(variable string) (float64, bool) {
	c, ok := r.Coefficients[variable]
	return c, ok
}

// HealthResponse is returned from GET /health.
type HealthResponse struct {
	Status          string       `json:"status"`
	AnalysisService ServiceCheck `json:"analysisService"`
	DB              ServiceCheck `json:"db"`
	Workbenches     int          `json:"workbenches"`
}

// ServiceCheck is the status of a single dependency.
type ServiceCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
