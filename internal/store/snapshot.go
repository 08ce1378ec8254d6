package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// snapshotRepo implements SnapshotRepo using ent's SQL builder.
type snapshotRepo struct {
	drv *entsql.Driver
}

var snapshotColumns = []string{"id", "key", "sequence", "timestamp", "data"}

func (r *snapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	q, args := builder().
		Insert(SnapshotsTable.Name).
		Columns("key", "sequence", "timestamp", "data").
		Values(snap.Key, snap.Sequence, snap.Timestamp, snap.Data).
		Query()
	if err := r.drv.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context, key string) (*Snapshot, error) {
	snaps, err := r.List(ctx, key, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

func (r *snapshotRepo) List(ctx context.Context, key string, limit int) ([]Snapshot, error) {
	sel := builder().
		Select(snapshotColumns...).
		From(entsql.Table(SnapshotsTable.Name)).
		Where(entsql.EQ("key", key)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	q, args := sel.Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Key, &s.Sequence, &s.Timestamp, &s.Data); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *snapshotRepo) Prune(ctx context.Context, key string, keep int) error {
	// Find the threshold: the sequence of the first snapshot past keep.
	q, args := builder().
		Select("sequence").
		From(entsql.Table(SnapshotsTable.Name)).
		Where(entsql.EQ("key", key)).
		OrderBy(entsql.Desc("sequence")).
		Offset(keep).
		Limit(1).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		return fmt.Errorf("query snapshots for prune: %w", err)
	}
	var threshold int64
	found := rows.Next()
	if found {
		if err := rows.Scan(&threshold); err != nil {
			rows.Close()
			return fmt.Errorf("scan prune threshold: %w", err)
		}
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close prune query: %w", err)
	}
	if !found {
		return nil // fewer than keep snapshots exist
	}

	dq, dargs := builder().
		Delete(SnapshotsTable.Name).
		Where(entsql.And(
			entsql.EQ("key", key),
			entsql.LTE("sequence", threshold),
		)).
		Query()
	if err := r.drv.Exec(ctx, dq, dargs, nil); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
