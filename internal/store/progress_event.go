package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo backed by ent's SQL builder and the
// global sequence counter.
type eventRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

var progressEventColumns = []string{
	"sequence", "timestamp", "learner_id", "kind", "fact_id", "fact_set_id",
	"from_stage", "to_stage", "trigger", "streak", "fact_count",
}

func (r *eventRepo) AppendProgressEvent(ctx context.Context, data ProgressEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	q, args := builder().
		Insert(ProgressEventsTable.Name).
		Columns(progressEventColumns...).
		Values(seqNum, ts, data.LearnerID, data.Kind, data.FactID, data.FactSetID,
			data.FromStage, data.ToStage, data.Trigger, data.Streak, data.FactCount).
		Query()
	if err := r.drv.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("save progress event: %w", err)
	}
	return nil
}

func (r *eventRepo) ProgressEvents(ctx context.Context, learnerID string, opts QueryOpts) ([]ProgressEventData, error) {
	sel := builder().
		Select(progressEventColumns...).
		From(entsql.Table(ProgressEventsTable.Name)).
		Where(entsql.EQ("learner_id", learnerID))
	if opts.After > 0 {
		sel = sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel = sel.Where(entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		sel = sel.Where(entsql.GTE("timestamp", opts.From))
	}
	if !opts.To.IsZero() {
		sel = sel.Where(entsql.LTE("timestamp", opts.To))
	}
	sel = sel.OrderBy(entsql.Asc("sequence"))
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}
	q, args := sel.Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("query progress events: %w", err)
	}
	defer rows.Close()

	var out []ProgressEventData
	for rows.Next() {
		var e ProgressEventData
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.LearnerID, &e.Kind, &e.FactID, &e.FactSetID,
			&e.FromStage, &e.ToStage, &e.Trigger, &e.Streak, &e.FactCount); err != nil {
			return nil, fmt.Errorf("scan progress event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AppendProgressEvent implements EventLog on the store itself.
func (s *Store) AppendProgressEvent(ctx context.Context, data ProgressEventData) error {
	return s.EventRepo().AppendProgressEvent(ctx, data)
}

// ProgressEvents implements EventLog on the store itself.
func (s *Store) ProgressEvents(ctx context.Context, learnerID string, opts QueryOpts) ([]ProgressEventData, error) {
	return s.EventRepo().ProgressEvents(ctx, learnerID, opts)
}
