// Package logger persists advice and execution history to SQLite so
// runs can be audited after the fact.
package logger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"minos/trading"
)

// RunRecord one advice run with its execution outcomes
type RunRecord struct {
	ID         int64             `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Advice     *trading.Advice   `json:"advice"`
	Executions []ExecutionRecord `json:"executions"`
}

// ExecutionRecord one persisted order attempt
type ExecutionRecord struct {
	ID        int64     `json:"id"`
	RunID     int64     `json:"run_id"`
	Asset     string    `json:"asset"`
	Success   bool      `json:"success"`
	OrderID   *int64    `json:"order_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	Verified  bool      `json:"verified"`
	Timestamp time.Time `json:"timestamp"`
}

// ExecutionLogger append-only store for advice runs. A nil db means
// persistence is unavailable and writes become no-ops.
type ExecutionLogger struct {
	db *sql.DB
}

// NewExecutionLogger opens (or creates) the database under logDir.
// Failures are logged and produce a logger that drops writes, so a bad
// disk never blocks trading.
func NewExecutionLogger(logDir string) *ExecutionLogger {
	if logDir == "" {
		logDir = "execution_logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Printf("⚠ Failed to create log directory: %v", err)
		return &ExecutionLogger{}
	}

	dbPath := filepath.Join(logDir, "executions.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)")
	if err != nil {
		log.Printf("⚠ Failed to open SQLite database: %v", err)
		return &ExecutionLogger{}
	}
	if err := db.Ping(); err != nil {
		log.Printf("⚠ SQLite database connection failed: %v", err)
		db.Close()
		return &ExecutionLogger{}
	}

	l := &ExecutionLogger{db: db}
	if err := l.initDB(); err != nil {
		log.Printf("⚠ Failed to initialize database: %v", err)
		db.Close()
		return &ExecutionLogger{}
	}
	return l
}

func (l *ExecutionLogger) initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS advice_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		advice_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES advice_runs(id) ON DELETE CASCADE,
		asset TEXT NOT NULL,
		success BOOLEAN NOT NULL DEFAULT 0,
		order_id INTEGER,
		error TEXT,
		verified BOOLEAN NOT NULL DEFAULT 0,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON advice_runs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_executions_run ON executions(run_id);
	`
	_, err := l.db.Exec(schema)
	return err
}

// LogRun stores one advice document with its execution outcomes and
// returns the run id.
func (l *ExecutionLogger) LogRun(advice *trading.Advice, executions []trading.OrderExecution, verified map[int]bool) (int64, error) {
	if l.db == nil {
		return 0, nil
	}

	adviceJSON, err := json.Marshal(advice)
	if err != nil {
		return 0, fmt.Errorf("failed to encode advice: %w", err)
	}

	tx, err := l.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO advice_runs (timestamp, advice_json) VALUES (?, ?)",
		time.Now().UTC(), string(adviceJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for i, exec := range executions {
		var orderID interface{}
		if exec.OrderID != nil {
			orderID = *exec.OrderID
		}
		_, err := tx.Exec(
			"INSERT INTO executions (run_id, asset, success, order_id, error, verified, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)",
			runID, exec.Asset, exec.Success, orderID, exec.Error, verified[i], exec.Timestamp.UTC(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert execution: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RecentRuns returns the newest runs first, executions included.
func (l *ExecutionLogger) RecentRuns(limit int) ([]RunRecord, error) {
	if l.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := l.db.Query(
		"SELECT id, timestamp, advice_json FROM advice_runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		var adviceJSON string
		if err := rows.Scan(&run.ID, &run.Timestamp, &adviceJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(adviceJSON), &run.Advice); err != nil {
			return nil, fmt.Errorf("failed to decode advice for run %d: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		execs, err := l.executionsForRun(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Executions = execs
	}
	return runs, nil
}

// LatestRun returns the most recent run, or nil when none exist.
func (l *ExecutionLogger) LatestRun() (*RunRecord, error) {
	runs, err := l.RecentRuns(1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

func (l *ExecutionLogger) executionsForRun(runID int64) ([]ExecutionRecord, error) {
	rows, err := l.db.Query(
		"SELECT id, run_id, asset, success, order_id, error, verified, timestamp FROM executions WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var records []ExecutionRecord
	for rows.Next() {
		var rec ExecutionRecord
		var orderID sql.NullInt64
		var errText sql.NullString
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Asset, &rec.Success, &orderID, &errText, &rec.Verified, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		if orderID.Valid {
			id := orderID.Int64
			rec.OrderID = &id
		}
		rec.Error = errText.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (l *ExecutionLogger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}
