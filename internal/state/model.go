package state

import (
	"time"
)

// CurrentVersion is the schema version written by this build.
const CurrentVersion = 4

// Outcome classifies a submitted answer.
type Outcome string

const (
	Correct   Outcome = "correct"
	Incorrect Outcome = "incorrect"
	Skipped   Outcome = "skipped"
	TimedOut  Outcome = "timed_out"
)

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case Correct, Incorrect, Skipped, TimedOut:
		return true
	}
	return false
}

// IsCorrect reports whether the outcome counts as a correct answer.
func (o Outcome) IsCorrect() bool { return o == Correct }

// CountsAsIncorrect reports whether the outcome breaks a correct streak.
// Timing out is treated the same as a wrong answer.
func (o Outcome) CountsAsIncorrect() bool { return o == Incorrect || o == TimedOut }

// Progresses reports whether the outcome feeds the progression engine.
// Skipped answers are observed but never move a fact.
func (o Outcome) Progresses() bool { return o != Skipped }

// FactItem is the learner's progress on one fact.
type FactItem struct {
	FactID               string     `json:"fact_id"`
	FactSetID            string     `json:"fact_set_id"`
	StageID              string     `json:"stage_id"`
	LastAskedTime        *time.Time `json:"last_asked_time,omitempty"`
	ConsecutiveCorrect   int        `json:"consecutive_correct"`
	ConsecutiveIncorrect int        `json:"consecutive_incorrect"`
	// RandomFactor is a jitter in [0, 1) used to spread cooldowns per fact.
	RandomFactor float64 `json:"random_factor"`
}

// HasBeenAsked reports whether the fact was ever presented.
func (f *FactItem) HasBeenAsked() bool {
	return f.LastAskedTime != nil
}

// MarkAsked stamps the presentation time.
func (f *FactItem) MarkAsked(now time.Time) {
	t := now
	f.LastAskedTime = &t
}

// RecordCorrect extends the correct streak and clears the incorrect one.
func (f *FactItem) RecordCorrect() {
	f.ConsecutiveCorrect++
	f.ConsecutiveIncorrect = 0
}

// RecordIncorrect extends the incorrect streak and clears the correct one.
func (f *FactItem) RecordIncorrect() {
	f.ConsecutiveIncorrect++
	f.ConsecutiveCorrect = 0
}

// ResetStreaks zeroes both streak counters.
func (f *FactItem) ResetStreaks() {
	f.ConsecutiveCorrect = 0
	f.ConsecutiveIncorrect = 0
}

// AnswerRecord is one entry of the append-only answer history.
type AnswerRecord struct {
	FactID       string    `json:"fact_id"`
	FactSetID    string    `json:"fact_set_id"`
	StageID      string    `json:"stage_id"`
	Answer       Outcome   `json:"answer"`
	Timestamp    time.Time `json:"timestamp"`
	WasKnownFact bool      `json:"was_known_fact"`
}

// FactStats are observational per-fact counters.
type FactStats struct {
	TimesShown     int        `json:"times_shown"`
	TimesCorrect   int        `json:"times_correct"`
	TimesIncorrect int        `json:"times_incorrect"`
	LastSeen       *time.Time `json:"last_seen,omitempty"`
}

// Accuracy returns correct/(correct+incorrect), or 0 when nothing was graded.
func (s *FactStats) Accuracy() float64 {
	graded := s.TimesCorrect + s.TimesIncorrect
	if graded == 0 {
		return 0
	}
	return float64(s.TimesCorrect) / float64(graded)
}

// StudentState is the persisted aggregate root of a learner's progress.
type StudentState struct {
	Version   int                   `json:"version"`
	CreatedAt time.Time             `json:"created_at"`
	Stats     map[string]*FactStats `json:"stats"`
	Facts     []*FactItem           `json:"facts"`
	History   []AnswerRecord        `json:"history"`
}

// New returns an empty current-version state.
func New(now time.Time) *StudentState {
	return &StudentState{
		Version:   CurrentVersion,
		CreatedAt: now,
		Stats:     make(map[string]*FactStats),
		Facts:     []*FactItem{},
		History:   []AnswerRecord{},
	}
}

// SchemaVersion implements Snapshot.
func (s *StudentState) SchemaVersion() int { return CurrentVersion }

// Item returns the fact item for factID, or nil.
func (s *StudentState) Item(factID string) *FactItem {
	for _, f := range s.Facts {
		if f.FactID == factID {
			return f
		}
	}
	return nil
}

// AddItem appends a fact item.
func (s *StudentState) AddItem(item *FactItem) {
	s.Facts = append(s.Facts, item)
}

// ItemsIn returns the items sharing a fact set and stage, in state order.
func (s *StudentState) ItemsIn(factSetID, stageID string) []*FactItem {
	var out []*FactItem
	for _, f := range s.Facts {
		if f.FactSetID == factSetID && f.StageID == stageID {
			out = append(out, f)
		}
	}
	return out
}

// PruneItems removes items whose fact ID is rejected by keep and returns
// the removed fact IDs. Stats for removed facts are dropped too.
func (s *StudentState) PruneItems(keep func(factID string) bool) []string {
	var removed []string
	kept := s.Facts[:0]
	for _, f := range s.Facts {
		if keep(f.FactID) {
			kept = append(kept, f)
			continue
		}
		removed = append(removed, f.FactID)
		delete(s.Stats, f.FactID)
	}
	for i := len(kept); i < len(s.Facts); i++ {
		s.Facts[i] = nil
	}
	s.Facts = kept
	return removed
}

// AppendAnswer appends rec to the history. When max > 0 the oldest
// records are dropped so that at most max remain.
func (s *StudentState) AppendAnswer(rec AnswerRecord, max int) {
	s.History = append(s.History, rec)
	if max > 0 && len(s.History) > max {
		trimmed := make([]AnswerRecord, max)
		copy(trimmed, s.History[len(s.History)-max:])
		s.History = trimmed
	}
}

// RecentAnswers returns up to n most recent records, oldest first.
func (s *StudentState) RecentAnswers(n int) []AnswerRecord {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if n > len(s.History) {
		n = len(s.History)
	}
	out := make([]AnswerRecord, n)
	copy(out, s.History[len(s.History)-n:])
	return out
}

// RecentAnswersMatching returns up to n most recent records accepted by
// match, newest first.
func (s *StudentState) RecentAnswersMatching(n int, match func(AnswerRecord) bool) []AnswerRecord {
	var out []AnswerRecord
	for i := len(s.History) - 1; i >= 0 && len(out) < n; i-- {
		if match(s.History[i]) {
			out = append(out, s.History[i])
		}
	}
	return out
}

// StatsFor returns the stats for factID, creating them on first use.
func (s *StudentState) StatsFor(factID string) *FactStats {
	if s.Stats == nil {
		s.Stats = make(map[string]*FactStats)
	}
	st, ok := s.Stats[factID]
	if !ok {
		st = &FactStats{}
		s.Stats[factID] = st
	}
	return st
}

// RecordStats folds one outcome into the fact's stats.
func (s *StudentState) RecordStats(factID string, outcome Outcome, at time.Time) {
	st := s.StatsFor(factID)
	st.TimesShown++
	switch {
	case outcome.IsCorrect():
		st.TimesCorrect++
	case outcome.CountsAsIncorrect():
		st.TimesIncorrect++
	}
	t := at
	st.LastSeen = &t
}
