package models

// UploadRecord is a past upload kept in the history database.
type UploadRecord struct {
	SessionID   string            `json:"sessionId"`
	WorkbenchID string            `json:"workbenchId"`
	FileName    string            `json:"fileName,omitempty"`
	RowCount    int               `json:"rowCount"`
	Columns     []string          `json:"columns"`
	UploadedAt  int64             `json:"uploadedAt"`
	DiscardedAt *int64            `json:"discardedAt,omitempty"`
	Analyses    []*AnalysisRecord `json:"analyses,omitempty"`
}

// AnalysisRecord summarises one committed analysis.
type AnalysisRecord struct {
	ID               string   `json:"id"`
	SessionID        string   `json:"sessionId"`
	Dependent        string   `json:"dependent"`
	Independents     []string `json:"independents"`
	Intercept        float64  `json:"intercept"`
	RSquared         float64  `json:"rSquared"`
	MSE              float64  `json:"mse"`
	ObservationCount int      `json:"observationCount"`
	CreatedAt        int64    `json:"createdAt"`
}

// ReportRecord is a delivered report.
type ReportRecord struct {
	SessionID string       `json:"sessionId"`
	Format    ReportFormat `json:"format"`
	FileName  string       `json:"fileName"`
	Bytes     int64        `json:"bytes"`
	CreatedAt int64        `json:"createdAt"`
}
