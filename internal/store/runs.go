package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// Run is a persisted batch evaluation.
type Run struct {
	ID            string
	CreatedAt     time.Time
	Source        string // dataset path
	ModelDir      string
	AllowRules    bool
	Total         int
	Valid         int
	Invalid       int
	Unknown       int
	Skipped       int
	Malformed     int
	AvgConfidence *float64
	Accuracy      *float64
	Degraded      bool
	Cancelled     bool
}

// RunResult is one decided proof within a run.
type RunResult struct {
	Position    int
	ProofID     string
	Verdict     string
	Confidence  float64
	Source      string
	Rule        string
	Expected    string
	FlawType    string
	Location    string // flaw span as "start-end"
	Explanation string
}

// SaveRun stores a run and its results in one transaction. An empty
// run.ID is replaced by a fresh UUID; the stored ID is returned.
func (s *Store) SaveRun(ctx context.Context, run Run, results []RunResult) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	q, args := sqlite.Insert("runs").
		Columns(runColumns...).
		Values(run.ID, run.CreatedAt, run.Source, run.ModelDir, run.AllowRules,
			run.Total, run.Valid, run.Invalid, run.Unknown, run.Skipped,
			run.Malformed, nullFloat(run.AvgConfidence), nullFloat(run.Accuracy),
			run.Degraded, run.Cancelled).
		Query()
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, r := range results {
		q, args := sqlite.Insert("run_results").
			Columns(resultColumns...).
			Values(run.ID, r.Position, r.ProofID, r.Verdict, r.Confidence, r.Source,
				r.Rule, r.Expected, r.FlawType, r.Location, r.Explanation).
			Query()
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return "", fmt.Errorf("insert result %s: %w", r.ProofID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return run.ID, nil
}

var runColumns = []string{
	"id", "created_at", "source", "model_dir", "allow_rules", "total",
	"valid_count", "invalid_count", "unknown_count", "skipped", "malformed",
	"avg_confidence", "accuracy", "degraded", "cancelled",
}

var resultColumns = []string{
	"run_id", "position", "proof_id", "verdict", "confidence", "source",
	"rule", "expected", "flaw_type", "location", "explanation",
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means
// no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	sel := sqlite.Select(runColumns...).
		From(sqlite.Table("runs")).
		OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		sel.Limit(limit)
	}
	return s.queryRuns(ctx, sel)
}

// GetRun looks a run up by ID or by a unique ID prefix.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	sel := sqlite.Select(runColumns...).
		From(sqlite.Table("runs")).
		Where(entsql.Or(entsql.EQ("id", id), entsql.HasPrefix("id", id))).
		Limit(2)
	found, err := s.queryRuns(ctx, sel)
	if err != nil {
		return nil, err
	}
	for i := range found {
		if found[i].ID == id {
			return &found[i], nil
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("run %q: %w", id, ErrNotFound)
	case 1:
		return &found[0], nil
	}
	return nil, fmt.Errorf("run prefix %q is ambiguous", id)
}

func (s *Store) queryRuns(ctx context.Context, sel *entsql.Selector) ([]Run, error) {
	q, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// RunResults returns the results of a run in position order.
func (s *Store) RunResults(ctx context.Context, runID string) ([]RunResult, error) {
	q, args := sqlite.Select(resultColumns[1:]...).
		From(sqlite.Table("run_results")).
		Where(entsql.EQ("run_id", runID)).
		OrderBy("position").
		Query()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []RunResult
	for rows.Next() {
		var r RunResult
		if err := rows.Scan(&r.Position, &r.ProofID, &r.Verdict, &r.Confidence,
			&r.Source, &r.Rule, &r.Expected, &r.FlawType, &r.Location,
			&r.Explanation); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		r        Run
		avg, acc sql.NullFloat64
	)
	err := sc.Scan(&r.ID, &r.CreatedAt, &r.Source, &r.ModelDir, &r.AllowRules,
		&r.Total, &r.Valid, &r.Invalid, &r.Unknown, &r.Skipped, &r.Malformed,
		&avg, &acc, &r.Degraded, &r.Cancelled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if avg.Valid {
		r.AvgConfidence = &avg.Float64
	}
	if acc.Valid {
		r.Accuracy = &acc.Float64
	}
	return &r, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
