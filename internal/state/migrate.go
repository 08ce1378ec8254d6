package state

import (
	"encoding/json"
	"fmt"
)

// NeutralRandomFactor is the jitter assigned to facts migrated from
// schemas that did not carry one.
const NeutralRandomFactor = 0.5

// MigrateOptions supplies the context lossy upgrades need.
type MigrateOptions struct {
	// IsKnownStage reports whether a stage ID counts as "known". Used to
	// infer AnswerRecord.WasKnownFact for schemas that lack it.
	IsKnownStage func(stageID string) bool
}

func (o MigrateOptions) isKnown(stageID string) bool {
	if o.IsKnownStage == nil {
		return false
	}
	return o.IsKnownStage(stageID)
}

// Decode reads persisted bytes as whichever schema variant they declare.
// A missing version field is read as version 1.
func Decode(data []byte) (Snapshot, error) {
	var env struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode state version: %w", err)
	}

	var snap Snapshot
	switch env.Version {
	case 0, 1:
		snap = &StateV1{}
	case 2:
		snap = &StateV2{}
	case 3:
		snap = &StateV3{}
	case CurrentVersion:
		snap = &StudentState{}
	default:
		return nil, fmt.Errorf("unsupported state version %d", env.Version)
	}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("decode state v%d: %w", env.Version, err)
	}
	return snap, nil
}

// Migrate upgrades any schema variant to the current StudentState by
// chaining one pure transition per version. A current-version state is
// returned unchanged.
func Migrate(snap Snapshot, opts MigrateOptions) (*StudentState, error) {
	for {
		switch v := snap.(type) {
		case *StudentState:
			if v == nil {
				return nil, fmt.Errorf("migrate: nil state")
			}
			return v, nil
		case *StateV3:
			snap = migrateV3(v, opts)
		case *StateV2:
			snap = migrateV2(v)
		case *StateV1:
			snap = migrateV1(v)
		default:
			return nil, fmt.Errorf("migrate: unsupported schema variant %T", snap)
		}
	}
}

// Unmarshal decodes persisted bytes and migrates them to the current schema.
func Unmarshal(data []byte, opts MigrateOptions) (*StudentState, error) {
	snap, err := Decode(data)
	if err != nil {
		return nil, err
	}
	s, err := Migrate(snap, opts)
	if err != nil {
		return nil, err
	}
	if s.Stats == nil {
		s.Stats = make(map[string]*FactStats)
	}
	if s.Facts == nil {
		s.Facts = []*FactItem{}
	}
	if s.History == nil {
		s.History = []AnswerRecord{}
	}
	return s, nil
}

// Marshal encodes the state as JSON.
func Marshal(s *StudentState) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return b, nil
}

func migrateV1(old *StateV1) *StateV2 {
	setOf := make(map[string]string, len(old.Facts))
	facts := make([]FactItemV2, len(old.Facts))
	for i, f := range old.Facts {
		setOf[f.FactID] = f.FactSetID
		facts[i] = FactItemV2{
			FactID:             f.FactID,
			FactSetID:          f.FactSetID,
			StageID:            f.StageID,
			LastAsked:          f.LastAsked,
			ConsecutiveCorrect: f.ConsecutiveCorrect,
		}
	}

	stats := make(map[string]FactStats)
	history := make([]AnswerV2, len(old.History))
	for i, a := range old.History {
		outcome := Incorrect
		if a.Correct {
			outcome = Correct
		}
		history[i] = AnswerV2{
			FactID:    a.FactID,
			FactSetID: setOf[a.FactID],
			StageID:   a.StageID,
			Answer:    outcome,
			Timestamp: a.Timestamp,
		}

		st := stats[a.FactID]
		st.TimesShown++
		if a.Correct {
			st.TimesCorrect++
		} else {
			st.TimesIncorrect++
		}
		if st.LastSeen == nil || a.Timestamp.After(*st.LastSeen) {
			ts := a.Timestamp
			st.LastSeen = &ts
		}
		stats[a.FactID] = st
	}

	created := old.CreatedAt
	if created.IsZero() && len(old.History) > 0 {
		created = old.History[0].Timestamp
	}

	return &StateV2{
		Version:   2,
		CreatedAt: created,
		Stats:     stats,
		Facts:     facts,
		History:   history,
	}
}

func migrateV2(old *StateV2) *StateV3 {
	facts := make([]FactItemV3, len(old.Facts))
	for i, f := range old.Facts {
		facts[i] = FactItemV3{
			FactID:               f.FactID,
			FactSetID:            f.FactSetID,
			StageID:              f.StageID,
			LastAskedTime:        f.LastAsked,
			ConsecutiveCorrect:   f.ConsecutiveCorrect,
			ConsecutiveIncorrect: f.ConsecutiveIncorrect,
			RandomFactor:         NeutralRandomFactor,
		}
	}
	return &StateV3{
		Version:   3,
		CreatedAt: old.CreatedAt,
		Stats:     old.Stats,
		Facts:     facts,
		History:   old.History,
	}
}

func migrateV3(old *StateV3, opts MigrateOptions) *StudentState {
	s := &StudentState{
		Version:   CurrentVersion,
		CreatedAt: old.CreatedAt,
		Stats:     make(map[string]*FactStats, len(old.Stats)),
		Facts:     make([]*FactItem, len(old.Facts)),
		History:   make([]AnswerRecord, len(old.History)),
	}
	for id, st := range old.Stats {
		st := st
		s.Stats[id] = &st
	}
	for i, f := range old.Facts {
		s.Facts[i] = &FactItem{
			FactID:               f.FactID,
			FactSetID:            f.FactSetID,
			StageID:              f.StageID,
			LastAskedTime:        f.LastAskedTime,
			ConsecutiveCorrect:   f.ConsecutiveCorrect,
			ConsecutiveIncorrect: f.ConsecutiveIncorrect,
			RandomFactor:         f.RandomFactor,
		}
	}
	for i, a := range old.History {
		s.History[i] = AnswerRecord{
			FactID:       a.FactID,
			FactSetID:    a.FactSetID,
			StageID:      a.StageID,
			Answer:       a.Answer,
			Timestamp:    a.Timestamp,
			WasKnownFact: opts.isKnown(a.StageID),
		}
	}
	return s
}
