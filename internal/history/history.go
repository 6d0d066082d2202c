// Package history records federated training runs and their per-round
// results in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	// SQLite driver using pure Go implementation
	_ "modernc.org/sqlite"

	"github.com/fedfraud/fedfraud/internal/config"
	"github.com/fedfraud/fedfraud/internal/federated"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded training run.
type Run struct {
	ID         string
	Mode       string
	Status     string
	Config     string
	Metrics    map[string]float64
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			config TEXT NOT NULL,
			metrics TEXT,
			error TEXT,
			started_at INTEGER NOT NULL,
			finished_at INTEGER
		);

		CREATE TABLE IF NOT EXISTS rounds (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			round INTEGER NOT NULL,
			clients INTEGER NOT NULL,
			samples INTEGER NOT NULL,
			client_loss REAL NOT NULL,
			global_loss REAL NOT NULL,
			global_accuracy REAL NOT NULL,
			duration_ns INTEGER NOT NULL,
			PRIMARY KEY (run_id, round)
		);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records a new running run and returns its id.
func (s *Store) StartRun(ctx context.Context, cfg *config.Config) (string, error) {
	data, err := cfg.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, mode, status, config, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, cfg.Mode, StatusRunning, string(data), time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// RecordRound stores the result of one federated round.
func (s *Store) RecordRound(ctx context.Context, runID string, r federated.RoundResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rounds (run_id, round, clients, samples, client_loss, global_loss, global_accuracy, duration_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.Round, r.Clients, r.Samples, r.ClientLoss, r.GlobalLoss, r.GlobalAccuracy, int64(r.Duration))
	if err != nil {
		return fmt.Errorf("failed to insert round %d: %w", r.Round, err)
	}
	return nil
}

// FinishRun marks a run completed with its final metrics.
func (s *Store) FinishRun(ctx context.Context, runID string, metrics map[string]float64) error {
	data, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}
	return s.finish(ctx, runID, StatusCompleted, string(data), "")
}

// FailRun marks a run failed.
func (s *Store) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.finish(ctx, runID, StatusFailed, "", msg)
}

func (s *Store) finish(ctx context.Context, runID, status, metrics, msg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, metrics = NULLIF(?, ''), error = NULLIF(?, ''), finished_at = ? WHERE id = ?`,
		status, metrics, msg, time.Now().UnixNano(), runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// GetRun loads one run.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, mode, status, config, metrics, error, started_at, finished_at FROM runs WHERE id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}

// Runs lists all runs, most recent first.
func (s *Store) Runs(ctx context.Context) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, status, config, metrics, error, started_at, finished_at FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		r        Run
		metrics  sql.NullString
		msg      sql.NullString
		started  int64
		finished sql.NullInt64
	)
	if err := sc.Scan(&r.ID, &r.Mode, &r.Status, &r.Config, &metrics, &msg, &started, &finished); err != nil {
		return nil, err
	}
	r.Error = msg.String
	r.StartedAt = time.Unix(0, started)
	if finished.Valid {
		r.FinishedAt = time.Unix(0, finished.Int64)
	}
	if metrics.Valid {
		if err := json.Unmarshal([]byte(metrics.String), &r.Metrics); err != nil {
			return nil, fmt.Errorf("failed to decode metrics of run %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

// Rounds returns the recorded rounds of a run in order.
func (s *Store) Rounds(ctx context.Context, runID string) ([]federated.RoundResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT round, clients, samples, client_loss, global_loss, global_accuracy, duration_ns
		 FROM rounds WHERE run_id = ? ORDER BY round`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []federated.RoundResult
	for rows.Next() {
		var (
			r  federated.RoundResult
			ns int64
		)
		if err := rows.Scan(&r.Round, &r.Clients, &r.Samples, &r.ClientLoss, &r.GlobalLoss, &r.GlobalAccuracy, &ns); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(ns)
		out = append(out, r)
	}
	return out, rows.Err()
}
