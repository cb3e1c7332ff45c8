package metrics

import (
	"context"
	"database/sql"
	"fmt"
)

// Store handles llm_stage_metrics persistence.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save inserts one stage record.
func (s *Store) Save(ctx context.Context, r Record) error {
	var reason sql.NullString
	if r.Reason != "" {
		reason = sql.NullString{String: r.Reason, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_stage_metrics
			(request_id, stage, model, llm_calls, input_tokens, output_tokens,
			 latency_ms, cost_usd, cached, success, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, r.RequestID, r.Stage, r.Model, r.LLMCalls, r.InputTokens, r.OutputTokens,
		r.LatencyMs, r.CostUSD, r.Cached, r.Success, reason, r.Timestamp)
	if err != nil {
		return fmt.Errorf("insert stage metric: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, stage, model, llm_calls, input_tokens, output_tokens,
		       latency_ms, cost_usd, cached, success, reason, created_at
		FROM llm_stage_metrics
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query stage metrics: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var reason sql.NullString
		if err := rows.Scan(&r.RequestID, &r.Stage, &r.Model, &r.LLMCalls, &r.InputTokens, &r.OutputTokens,
			&r.LatencyMs, &r.CostUSD, &r.Cached, &r.Success, &reason, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan stage metric: %w", err)
		}
		r.Reason = reason.String
		out = append(out, r)
	}
	return out, rows.Err()
}
