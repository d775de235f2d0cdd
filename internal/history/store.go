// Package history implements a derived, rebuildable execution-history index
// read by the history CLI verb. Grounded on the
// teacher's internal/learning/store.go: database/sql over go-sqlite3, an
// embedded schema, and plain Record*/Get* methods — generalized from
// per-task-attempt adaptive-learning records to per-plan and per-job
// outcome snapshots. Unlike the State Store, this index is advisory: it can
// be deleted and rebuilt from plan.json/jobs.json without losing the
// canonical state.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/missionctl/missionctl/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// PlanRecord is one snapshot of a plan's outcome.
type PlanRecord struct {
	ID          int64
	PlanID      string
	PlanName    string
	Mode        string
	Status      string
	PRUrl       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// JobRecord is one snapshot of a job's outcome within a plan.
type JobRecord struct {
	ID            int64
	PlanID        string
	JobName       string
	Status        string
	Branch        string
	MergeOrder    int
	FailureReason string
	MergedAt      *time.Time
	RecordedAt    time.Time
}

// Store is the execution-history index for one project.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at dbPath and applies
// the embedded schema.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	s := &Store{db: db}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordPlan snapshots a plan's current status, whatever that status is;
// the plan, plan-cancel and merge verbs each add a snapshot.
func (s *Store) RecordPlan(ctx context.Context, plan *models.Plan) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plan_runs (plan_id, plan_name, mode, status, pr_url, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, plan.Name, string(plan.Mode), string(plan.Status), plan.PRUrl,
		plan.CreatedAt, plan.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("record plan run: %w", err)
	}
	return nil
}

// RecordJob snapshots one job's current status within a plan.
func (s *Store) RecordJob(ctx context.Context, planID string, job models.JobSpec) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_runs (plan_id, job_name, status, branch, merge_order, failure_reason, merged_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		planID, job.Name, string(job.Status), job.Branch, job.MergeOrder, job.FailureReason,
		job.MergedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record job run: %w", err)
	}
	return nil
}

// ListPlans returns the most recent plan snapshots, newest first, capped at
// limit (0 means unbounded).
func (s *Store) ListPlans(ctx context.Context, limit int) ([]PlanRecord, error) {
	query := `SELECT id, plan_id, plan_name, mode, status, pr_url, created_at, completed_at
		FROM plan_runs ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query plan runs: %w", err)
	}
	defer rows.Close()

	var out []PlanRecord
	for rows.Next() {
		var rec PlanRecord
		var prURL sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.PlanID, &rec.PlanName, &rec.Mode, &rec.Status, &prURL, &rec.CreatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan plan run: %w", err)
		}
		rec.PRUrl = prURL.String
		if completedAt.Valid {
			rec.CompletedAt = &completedAt.Time
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan runs: %w", err)
	}
	return out, nil
}

// ListJobs returns every recorded job snapshot for planID, newest first.
func (s *Store) ListJobs(ctx context.Context, planID string) ([]JobRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plan_id, job_name, status, branch, merge_order, failure_reason, merged_at, recorded_at
		FROM job_runs WHERE plan_id = ? ORDER BY id DESC`, planID)
	if err != nil {
		return nil, fmt.Errorf("query job runs: %w", err)
	}
	defer rows.Close()

	var out []JobRecord
	for rows.Next() {
		var rec JobRecord
		var branch, failureReason sql.NullString
		var mergedAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.PlanID, &rec.JobName, &rec.Status, &branch, &rec.MergeOrder, &failureReason, &mergedAt, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan job run: %w", err)
		}
		rec.Branch = branch.String
		rec.FailureReason = failureReason.String
		if mergedAt.Valid {
			rec.MergedAt = &mergedAt.Time
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job runs: %w", err)
	}
	return out, nil
}
