package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/iammorganparry/clive/apps/regression/internal/models"
)

// HistoryStore records uploads, analyses and reports in SQLite.
type HistoryStore struct {
	db *DB
}

// NewHistoryStore creates a new history store.
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// RecordUpload stores a committed upload. Re-recording a session id
// replaces the earlier row and clears its discarded mark.
func (s *HistoryStore) RecordUpload(workbenchID string, sess *models.Session) error {
	cols, err := json.Marshal(sess.Columns)
	if err != nil {
		return fmt.Errorf("marshal columns: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO uploads (id, workbench_id, file_name, row_count, columns, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			workbench_id = excluded.workbench_id,
			file_name = excluded.file_name,
			row_count = excluded.row_count,
			columns = excluded.columns,
			uploaded_at = excluded.uploaded_at,
			discarded_at = NULL
	`, sess.ID, workbenchID, sess.FileName, sess.RowCount, string(cols), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

// RecordDiscard marks a session as discarded.
func (s *HistoryStore) RecordDiscard(sessionID string) error {
	_, err := s.db.Exec(`UPDATE uploads SET discarded_at = ? WHERE id = ?`, time.Now().Unix(), sessionID)
	return err
}

// RecordAnalysis stores the headline numbers of a committed analysis.
func (s *HistoryStore) RecordAnalysis(sessionID string, r *models.AnalysisResult) error {
	ind, err := json.Marshal(r.Independents)
	if err != nil {
		return fmt.Errorf("marshal independents: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO analyses (id, session_id, dependent, independents, intercept, r_squared, mse, observation_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, sessionID, r.Dependent, string(ind), r.Intercept, r.RSquared, r.MeanSquaredError, len(r.Observations), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// RecordReport stores a delivered report.
func (s *HistoryStore) RecordReport(rec models.ReportRecord) error {
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}
	_, err := s.db.Exec(`
		INSERT INTO reports (session_id, format, file_name, bytes, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.SessionID, string(rec.Format), rec.FileName, rec.Bytes, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetUpload fetches one upload by session id, or nil if unknown.
func (s *HistoryStore) GetUpload(sessionID string) (*models.UploadRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, workbench_id, file_name, row_count, columns, uploaded_at, discarded_at
		FROM uploads WHERE id = ?
	`, sessionID)
	rec, err := scanUpload(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return rec, nil
}

// ListUploads returns recent uploads, newest first, each with its analyses.
func (s *HistoryStore) ListUploads(limit int) ([]*models.UploadRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, workbench_id, file_name, row_count, columns, uploaded_at, discarded_at
		FROM uploads
		ORDER BY uploaded_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}

	var uploads []*models.UploadRecord
	for rows.Next() {
		rec, err := scanUpload(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		uploads = append(uploads, rec)
	}
	// Close before issuing more queries; the pool has a single connection.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, u := range uploads {
		u.Analyses, err = s.ListAnalyses(u.SessionID)
		if err != nil {
			return nil, err
		}
	}
	return uploads, nil
}

// ListAnalyses returns the analyses of a session in the order they ran.
func (s *HistoryStore) ListAnalyses(sessionID string) ([]*models.AnalysisRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, dependent, independents, intercept, r_squared, mse, observation_count, created_at
		FROM analyses
		WHERE session_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []*models.AnalysisRecord
	for rows.Next() {
		var a models.AnalysisRecord
		var ind string
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Dependent, &ind, &a.Intercept, &a.RSquared, &a.MSE, &a.ObservationCount, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		if err := json.Unmarshal([]byte(ind), &a.Independents); err != nil {
			return nil, fmt.Errorf("decode independents: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// ListReports returns the reports delivered for a session, oldest first.
func (s *HistoryStore) ListReports(sessionID string) ([]models.ReportRecord, error) {
	rows, err := s.db.Query(`
		SELECT session_id, format, file_name, bytes, created_at
		FROM reports WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []models.ReportRecord
	for rows.Next() {
		var r models.ReportRecord
		var format string
		if err := rows.Scan(&r.SessionID, &format, &r.FileName, &r.Bytes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.Format = models.ReportFormat(format)
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUpload(row rowScanner) (*models.UploadRecord, error) {
	var rec models.UploadRecord
	var fileName sql.NullString
	var cols string
	var discardedAt sql.NullInt64

	if err := row.Scan(&rec.SessionID, &rec.WorkbenchID, &fileName, &rec.RowCount, &cols, &rec.UploadedAt, &discardedAt); err != nil {
		return nil, err
	}
	if fileName.Valid {
		rec.FileName = fileName.String
	}
	if discardedAt.Valid {
		rec.DiscardedAt = &discardedAt.Int64
	}
	if err := json.Unmarshal([]byte(cols), &rec.Columns); err != nil {
		return nil, fmt.Errorf("decode columns: %w", err)
	}
	return &rec, nil
}
