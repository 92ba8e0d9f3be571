package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection with initialization logic.
type DB struct {
	*sql.DB
}

// Open creates or opens the SQLite database at the given path, runs schema
// initialization, and configures WAL mode for concurrent reads.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS uploads (
  id TEXT PRIMARY KEY,
  workbench_id TEXT NOT NULL,
  file_name TEXT,
  row_count INTEGER NOT NULL,
  columns TEXT NOT NULL,
  uploaded_at INTEGER NOT NULL,
  discarded_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_uploads_workbench ON uploads(workbench_id);
CREATE INDEX IF NOT EXISTS idx_uploads_uploaded_at ON uploads(uploaded_at);

CREATE TABLE IF NOT EXISTS analyses (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  dependent TEXT NOT NULL,
  independents TEXT NOT NULL,
  intercept REAL NOT NULL,
  r_squared REAL NOT NULL,
  mse REAL NOT NULL,
  created_at INTEGER NOT NULL,
  FOREIGN KEY (session_id) REFERENCES uploads(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_analyses_session ON analyses(session_id);
`
	_, err := db.Exec(schema)
	return err
}

// runMigrations applies schema changes added after the initial schema.
// Each step is idempotent so it is safe to call on every open.
func runMigrations(db *sql.DB) error {
	// --- Migration v2: observation count on analyses ---
	hasObsCount, err := columnExists(db, "analyses", "observation_count")
	if err != nil {
		return fmt.Errorf("check observation_count column: %w", err)
	}
	if !hasObsCount {
		if _, err := db.Exec(`ALTER TABLE analyses ADD COLUMN observation_count INTEGER NOT NULL DEFAULT 0`); err != nil {
			return fmt.Errorf("run migration v2: %w", err)
		}
	}

	// --- Migration v3: reports table ---
	return runReportsMigration(db)
}

func runReportsMigration(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			format TEXT NOT NULL,
			file_name TEXT NOT NULL,
			bytes INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (session_id) REFERENCES uploads(id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("create reports table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_reports_session ON reports(session_id)`); err != nil {
		return fmt.Errorf("create reports index: %w", err)
	}
	return nil
}

// UploadCount returns the number of recorded uploads.
func (db *DB) UploadCount() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM uploads").Scan(&count)
	return count, err
}

// columnExists checks if a column exists in a table. It properly closes the
// rows cursor before returning, avoiding deadlocks with MaxOpenConns(1).
func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(
		fmt.Sprintf("SELECT name FROM pragma_table_info('%s') WHERE name = ?", table),
		column,
	)
	if err != nil {
		return false, err
	}
	found := rows.Next()
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, err
	}
	return found, nil
}
