package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// builder returns an ent SQL builder for the SQLite dialect.
func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// Exists implements Persistence.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	q, args := builder().
		Select(entsql.Count("*")).
		From(entsql.Table(StudentStatesTable.Name)).
		Where(entsql.EQ("key", key)).
		Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, q, args, &rows); err != nil {
		return false, fmt.Errorf("query state %s: %w", key, err)
	}
	defer rows.Close()

	n, err := entsql.ScanInt(rows)
	if err != nil {
		return false, fmt.Errorf("scan state count: %w", err)
	}
	return n > 0, nil
}

// Load implements Persistence.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	q, args := builder().
		Select("data").
		From(entsql.Table(StudentStatesTable.Name)).
		Where(entsql.EQ("key", key)).
		Limit(1).
		Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("query state %s: %w", key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("read state %s: %w", key, err)
		}
		return nil, ErrNotFound
	}
	var data []byte
	if err := rows.Scan(&data); err != nil {
		return nil, fmt.Errorf("scan state %s: %w", key, err)
	}
	return data, nil
}

// Save implements Persistence. The current value is upserted and, when
// snapshot retention is enabled, a snapshot is recorded and old snapshots
// beyond the retention limit are pruned.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	now := time.Now().UTC()

	q, args := builder().
		Insert(StudentStatesTable.Name).
		Columns("key", "data", "updated_at").
		Values(key, data, now).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := s.drv.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("save state %s: %w", key, err)
	}

	if s.retention <= 0 {
		return nil
	}

	seqNum, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}
	repo := s.SnapshotRepo()
	if err := repo.Save(ctx, &Snapshot{Key: key, Sequence: seqNum, Timestamp: now, Data: data}); err != nil {
		return err
	}
	return repo.Prune(ctx, key, s.retention)
}

// Delete removes the current value and all snapshots stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	for _, table := range []string{StudentStatesTable.Name, SnapshotsTable.Name} {
		q, args := builder().Delete(table).Where(entsql.EQ("key", key)).Query()
		if err := s.drv.Exec(ctx, q, args, nil); err != nil {
			return fmt.Errorf("delete %s from %s: %w", key, table, err)
		}
	}
	return nil
}

// Keys returns every stored state key in ascending order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	q, args := builder().
		Select("key").
		From(entsql.Table(StudentStatesTable.Name)).
		OrderBy("key").
		Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("query state keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan state key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
