// Package learner owns a learner's StudentState for a session: it loads or
// creates it, migrates old schemas, materializes fact items for the
// catalog and persists it through a single serialized saver.
package learner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/timestables/internal/catalog"
	"github.com/abhisek/timestables/internal/clock"
	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/logger"
	"github.com/abhisek/timestables/internal/rng"
	"github.com/abhisek/timestables/internal/state"
	"github.com/abhisek/timestables/internal/store"
)

// ErrNotInitialized is returned when state is accessed before Initialize.
var ErrNotInitialized = errors.New("learner state not initialized")

// DefaultLearnerID is used when no learner is named.
const DefaultLearnerID = "default"

const saveTimeout = 10 * time.Second

// Key returns the persistence key for a learner's state.
func Key(learnerID string) string {
	return "student_state/" + learnerID
}

// Options configures a Store.
type Options struct {
	LearnerID        string
	AlwaysStartFresh bool
	// MaxAnswerRecords caps history on load; 0 keeps everything.
	MaxAnswerRecords int
	Logger           *logger.Logger
}

// Store is the single owner of one learner's StudentState.
type Store struct {
	id      string
	key     string
	persist store.Persistence
	cat     *catalog.Catalog
	stages  config.StageList
	clk     clock.Clock
	src     *rng.Source
	opts    Options
	log     *logger.Logger

	mu sync.Mutex
	st *state.StudentState

	saver saver
}

// New creates a learner store. Nothing is loaded until Initialize.
func New(p store.Persistence, cat *catalog.Catalog, stages config.StageList, clk clock.Clock, src *rng.Source, opts Options) *Store {
	id := opts.LearnerID
	if id == "" {
		id = DefaultLearnerID
	}
	s := &Store{
		id:      id,
		key:     Key(id),
		persist: p,
		cat:     cat,
		stages:  stages,
		clk:     clk,
		src:     src,
		opts:    opts,
		log:     opts.Logger.With("learner", id),
	}
	s.saver.init()
	return s
}

// LearnerID returns the learner this store belongs to.
func (s *Store) LearnerID() string { return s.id }

// Initialize loads, migrates or creates the state, materializes fact items
// for every catalog fact, prunes items for facts that no longer exist and
// persists the result. Persistence failures fall back to a fresh state.
func (s *Store) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	st := s.loadOrCreate(ctx)
	added := s.materialize(st)
	removed := st.PruneItems(s.cat.HasFact)

	s.mu.Lock()
	s.st = st
	s.mu.Unlock()

	s.log.Info("learner state ready",
		"facts", len(st.Facts),
		"history", len(st.History),
		"added", added,
		"pruned", len(removed))

	s.SaveState(ctx)
	return nil
}

func (s *Store) loadOrCreate(ctx context.Context) *state.StudentState {
	now := s.clk.Now()
	if s.opts.AlwaysStartFresh {
		return state.New(now)
	}

	ok, err := s.persist.Exists(ctx, s.key)
	if err != nil {
		s.log.Warn("checking saved state failed, starting fresh", "error", err)
		return state.New(now)
	}
	if !ok {
		return state.New(now)
	}

	data, err := s.persist.Load(ctx, s.key)
	if err != nil {
		s.log.Warn("loading saved state failed, starting fresh", "error", err)
		return state.New(now)
	}

	st, err := state.Unmarshal(data, state.MigrateOptions{IsKnownStage: s.stages.IsKnown})
	if err != nil {
		s.log.Warn("saved state unreadable, starting fresh", "error", err)
		return state.New(now)
	}
	if err := st.Validate(); err != nil {
		s.log.Warn("saved state invalid, starting fresh", "error", err)
		return state.New(now)
	}
	if s.opts.MaxAnswerRecords > 0 && len(st.History) > s.opts.MaxAnswerRecords {
		st.History = st.RecentAnswers(s.opts.MaxAnswerRecords)
	}
	return st
}

// materialize adds a fact item for every catalog fact the state lacks.
// Fact sets are visited in global order; new items within a set are added
// in random order at the first stage.
func (s *Store) materialize(st *state.StudentState) int {
	have := make(map[string]bool, len(st.Facts))
	for _, f := range st.Facts {
		have[f.FactID] = true
	}

	first := s.stages.First().ID
	added := 0
	for _, fs := range s.cat.FactSets() {
		var missing []catalog.Fact
		for _, f := range fs.Facts {
			if !have[f.ID] {
				missing = append(missing, f)
			}
		}
		s.src.Shuffle(len(missing), func(i, j int) {
			missing[i], missing[j] = missing[j], missing[i]
		})
		for _, f := range missing {
			st.AddItem(&state.FactItem{
				FactID:       f.ID,
				FactSetID:    fs.ID,
				StageID:      first,
				RandomFactor: s.src.Float64(),
			})
			have[f.ID] = true
			added++
		}
	}
	return added
}

// Initialized reports whether Initialize has completed.
func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st != nil
}

// WithState runs fn with exclusive access to the state.
func (s *Store) WithState(fn func(st *state.StudentState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st == nil {
		return ErrNotInitialized
	}
	fn(s.st)
	return nil
}

// Encode returns the current state as persisted bytes.
func (s *Store) Encode() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encodeLocked()
}

func (s *Store) encodeLocked() ([]byte, error) {
	if s.st == nil {
		return nil, ErrNotInitialized
	}
	return state.Marshal(s.st)
}

// Reset replaces the state with a fresh one and persists it.
func (s *Store) Reset(ctx context.Context) error {
	st := state.New(s.clk.Now())
	s.materialize(st)

	s.mu.Lock()
	s.st = st
	s.mu.Unlock()

	s.log.Info("learner state reset", "facts", len(st.Facts))
	s.SaveState(ctx)
	return nil
}

// SaveState persists the current state and waits for it. Failures are
// logged; the next save carries the full state again.
func (s *Store) SaveState(ctx context.Context) {
	if !s.SaveAsync() {
		return
	}
	if err := s.Flush(ctx); err != nil {
		s.log.Warn("waiting for state save", "error", err)
	}
}

// SaveAsync queues a save of the current state without waiting. At most
// one save runs at a time; requests made while one is running collapse
// into a single save of the newest state. Reports whether a save was
// queued.
func (s *Store) SaveAsync() bool {
	// Encoding and queueing happen under one lock so concurrent callers
	// queue snapshots in the order they were taken.
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.encodeLocked()
	if err != nil {
		if !errors.Is(err, ErrNotInitialized) {
			s.log.Error("encoding state failed", "error", err)
		}
		return false
	}
	s.saver.enqueue(data, s.write)
	return true
}

// Flush waits until no save is pending or running.
func (s *Store) Flush(ctx context.Context) error {
	select {
	case <-s.saver.idleCh():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flush learner state: %w", ctx.Err())
	}
}

// Close waits for outstanding saves.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	return s.Flush(ctx)
}

func (s *Store) write(data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.persist.Save(ctx, s.key, data); err != nil {
		s.log.Warn("saving state failed", "error", err, "bytes", len(data))
		return
	}
	s.log.Debug("state saved", "bytes", len(data))
}
