package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var llmRequestColumns = []string{
	"sequence", "timestamp", "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "success", "error_message",
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	q, args := builder().
		Insert(LLMRequestEventsTable.Name).
		Columns(llmRequestColumns...).
		Values(seqNum, ts, data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success, data.ErrorMessage).
		Query()
	if err := r.drv.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}

	return nil
}

// LLMRequests returns recorded LLM calls, newest first. A non-empty purpose
// filters on it.
func (r *eventRepo) LLMRequests(ctx context.Context, purpose string, opts QueryOpts) ([]LLMRequestEventData, error) {
	sel := builder().
		Select(llmRequestColumns...).
		From(entsql.Table(LLMRequestEventsTable.Name))
	if purpose != "" {
		sel = sel.Where(entsql.EQ("purpose", purpose))
	}
	if !opts.From.IsZero() {
		sel = sel.Where(entsql.GTE("timestamp", opts.From))
	}
	if !opts.To.IsZero() {
		sel = sel.Where(entsql.LTE("timestamp", opts.To))
	}
	sel = sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}
	q, args := sel.Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("query LLM request events: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEventData
	for rows.Next() {
		var e LLMRequestEventData
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose,
			&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success, &e.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan LLM request event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LLMRequests returns recorded LLM calls, newest first.
func (s *Store) LLMRequests(ctx context.Context, purpose string, opts QueryOpts) ([]LLMRequestEventData, error) {
	r := &eventRepo{drv: s.drv, seq: s.seq}
	return r.LLMRequests(ctx, purpose, opts)
}
