package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMQuery filters LLM events.
type LLMQuery struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // exact match when set
}

// PurposeUsage aggregates token usage per purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates token usage per model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

var llmColumns = []string{
	"timestamp", "provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "request_body", "response_body",
}

// AppendLLMRequest records an LLM API call.
func (s *Store) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	q, args := sqlite.Insert("llm_requests").
		Columns(llmColumns...).
		Values(time.Now().UTC(), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorMessage, data.RequestBody, data.ResponseBody).
		Query()
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func selectLLMEvents() *entsql.Selector {
	return sqlite.Select(append([]string{"id"}, llmColumns...)...).
		From(sqlite.Table("llm_requests"))
}

func scanLLMEvent(sc scanner) (*LLMEvent, error) {
	var e LLMEvent
	err := sc.Scan(&e.ID, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose,
		&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success,
		&e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// QueryLLMEvents returns events newest first.
func (s *Store) QueryLLMEvents(ctx context.Context, q LLMQuery) ([]LLMEvent, error) {
	sel := selectLLMEvents().OrderBy(entsql.Desc("id"))
	if q.Purpose != "" {
		sel.Where(entsql.EQ("purpose", q.Purpose))
	}
	if q.Limit > 0 {
		sel.Limit(q.Limit)
	}

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMEvent
	for rows.Next() {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// GetLLMEvent returns one event by ID.
func (s *Store) GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error) {
	query, args := selectLLMEvents().Where(entsql.EQ("id", id)).Query()
	e, err := scanLLMEvent(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("LLM event %d: %w", id, notFound(err))
	}
	return e, nil
}

// LLMUsageByPurpose aggregates usage per purpose.
func (s *Store) LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	query, args := sqlite.Select("purpose", "COUNT(*)",
		"COALESCE(SUM(input_tokens), 0)", "COALESCE(SUM(output_tokens), 0)",
		"CAST(COALESCE(AVG(latency_ms), 0) AS INTEGER)").
		From(sqlite.Table("llm_requests")).
		GroupBy("purpose").
		OrderBy("purpose").
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage by purpose: %w", err)
	}
	defer rows.Close()

	var out []PurposeUsage
	for rows.Next() {
		var u PurposeUsage
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// LLMUsageByModel aggregates usage per model.
func (s *Store) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	query, args := sqlite.Select("model", "COUNT(*)",
		"COALESCE(SUM(input_tokens), 0)", "COALESCE(SUM(output_tokens), 0)").
		From(sqlite.Table("llm_requests")).
		GroupBy("model").
		OrderBy("model").
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage by model: %w", err)
	}
	defer rows.Close()

	var out []ModelUsage
	for rows.Next() {
		var u ModelUsage
		if err := rows.Scan(&u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
