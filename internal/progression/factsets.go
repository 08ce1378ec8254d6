package progression

import (
	"time"

	"github.com/abhisek/timestables/internal/catalog"
	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/events"
	"github.com/abhisek/timestables/internal/state"
)

// FactSetProgress summarizes one fact set for hosts.
type FactSetProgress struct {
	FactSetID string
	Name      string
	Total     int
	// ByStage counts facts per stage ID.
	ByStage     map[string]int
	ReviewReady bool
	Completed   bool
}

type setStatus struct {
	reviewReady bool
	completed   bool
}

// setTracker remembers each fact set's last seen status so transitions
// fire once. A set that falls back below a threshold can fire again.
type setTracker struct {
	cat         *catalog.Catalog
	stages      config.StageList
	reviewOrder int
	status      map[string]setStatus
}

func newSetTracker(cat *catalog.Catalog, stages config.StageList, st *state.StudentState) *setTracker {
	t := &setTracker{
		cat:         cat,
		stages:      stages,
		reviewOrder: reviewOrder(stages),
		status:      make(map[string]setStatus),
	}
	for _, p := range t.progress(st) {
		t.status[p.FactSetID] = setStatus{reviewReady: p.ReviewReady, completed: p.Completed}
	}
	return t
}

// reviewOrder is the order of the first review stage, or of the first
// known stage when no review stage is configured.
func reviewOrder(stages config.StageList) int {
	for _, s := range stages.All() {
		if s.Type == config.StageReview {
			return s.Order
		}
	}
	for _, s := range stages.All() {
		if s.IsKnownFact {
			return s.Order
		}
	}
	return stages.Last().Order
}

func (t *setTracker) progress(st *state.StudentState) []FactSetProgress {
	bySet := make(map[string][]*state.FactItem)
	for _, f := range st.Facts {
		bySet[f.FactSetID] = append(bySet[f.FactSetID], f)
	}

	sets := t.cat.FactSets()
	out := make([]FactSetProgress, 0, len(sets))
	for _, fs := range sets {
		items := bySet[fs.ID]
		p := FactSetProgress{
			FactSetID:   fs.ID,
			Name:        fs.Name,
			Total:       len(items),
			ByStage:     make(map[string]int),
			ReviewReady: len(items) > 0,
			Completed:   len(items) > 0,
		}
		for _, item := range items {
			stage := t.stages.Resolve(item.StageID)
			p.ByStage[stage.ID]++
			if stage.Order < t.reviewOrder {
				p.ReviewReady = false
			}
			if !stage.IsFullyLearned {
				p.Completed = false
			}
		}
		out = append(out, p)
	}
	return out
}

// update returns the events for sets that just became review-ready or
// complete.
func (t *setTracker) update(st *state.StudentState, now time.Time) []events.Event {
	var out []events.Event
	for _, p := range t.progress(st) {
		prev := t.status[p.FactSetID]
		if p.ReviewReady && !prev.reviewReady {
			out = append(out, events.FactSetReviewReady{FactSetID: p.FactSetID, At: now})
		}
		if p.Completed && !prev.completed {
			out = append(out, events.FactSetCompletion{FactSetID: p.FactSetID, At: now})
		}
		t.status[p.FactSetID] = setStatus{reviewReady: p.ReviewReady, completed: p.Completed}
	}
	return out
}

// FactSetProgress returns a summary per fact set in global order.
func (o *Orchestrator) FactSetProgress() ([]FactSetProgress, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []FactSetProgress
	err := o.learner.WithState(func(st *state.StudentState) {
		out = newSetTracker(o.cat, o.stages, st).progress(st)
	})
	return out, err
}
