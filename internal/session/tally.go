package session

import (
	"sync"
	"time"

	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/events"
	"github.com/abhisek/timestables/internal/progression"
	"github.com/abhisek/timestables/internal/question"
	"github.com/abhisek/timestables/internal/state"
)

// Tally accumulates a Summary. Handle is an events.Handler and may be
// subscribed directly to the orchestrator.
type Tally struct {
	mu     sync.Mutex
	stages config.StageList
	sum    Summary
	sets   map[string]*SetResult
	recent []events.Event
}

func NewTally(stages config.StageList, started time.Time) *Tally {
	return &Tally{
		stages: stages,
		sum:    Summary{Started: started},
		sets:   make(map[string]*SetResult),
	}
}

// Answer records the feedback for one submission. Mock questions are
// ignored.
func (t *Tally) Answer(q *question.Question, fb progression.Feedback) {
	if q == nil || q.IsMock {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if fb.Retry {
		t.sum.Retries++
		return
	}
	t.sum.Answered++
	set := t.set(q.FactSetID)
	set.Answered++

	switch fb.Submission.Outcome {
	case state.Correct:
		t.sum.Correct++
		set.Correct++
	case state.Incorrect:
		t.sum.Incorrect++
	case state.TimedOut:
		t.sum.TimedOut++
	case state.Skipped:
		t.sum.Skipped++
	}
}

// Handle records a progression event.
func (t *Tally) Handle(e events.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.recent = append(t.recent, e)
	switch e := e.(type) {
	case events.IndividualFactProgression:
		if t.stages.Position(e.ToStage) > t.stages.Position(e.FromStage) {
			t.sum.Promotions++
			t.set(e.FactSetID).Promoted++
		} else {
			t.sum.Demotions++
		}
	case events.BulkPromotion:
		t.sum.BulkPromotions++
	case events.FactSetReviewReady:
		t.sum.ReviewReady = append(t.sum.ReviewReady, e.FactSetID)
	case events.FactSetCompletion:
		t.sum.Completed = append(t.sum.Completed, e.FactSetID)
	case events.DifficultyChanged:
		t.sum.DifficultyChanges = append(t.sum.DifficultyChanges, DifficultyChange{
			From: e.FromID, To: e.ToID, Accuracy: e.Accuracy,
		})
	}
}

// TakeRecent returns the events handled since the previous call.
func (t *Tally) TakeRecent() []events.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.recent
	t.recent = nil
	return out
}

// Summary snapshots the run so far.
func (t *Tally) Summary(now time.Time) Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.sum
	s.Duration = now.Sub(s.Started)
	s.ReviewReady = append([]string(nil), t.sum.ReviewReady...)
	s.Completed = append([]string(nil), t.sum.Completed...)
	s.DifficultyChanges = append([]DifficultyChange(nil), t.sum.DifficultyChanges...)
	s.Sets = sortedSets(t.sets)
	return s
}

func (t *Tally) set(id string) *SetResult {
	r, ok := t.sets[id]
	if !ok {
		r = &SetResult{FactSetID: id}
		t.sets[id] = r
	}
	return r
}
