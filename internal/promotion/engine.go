// Package promotion advances and regresses a fact's learning stage after
// each answer.
package promotion

import (
	"time"

	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/events"
	"github.com/abhisek/timestables/internal/logger"
	"github.com/abhisek/timestables/internal/state"
)

// Result describes what one PromoteFacts call changed.
type Result struct {
	FromStage string
	ToStage   string
	// Changed reports whether the answered fact changed stage.
	Changed bool
	// Bulk is set when the answer triggered a cohort promotion.
	Bulk bool
	// Moved lists every fact ID whose stage changed.
	Moved []string
}

// Engine is the stage state machine.
type Engine struct {
	stages config.StageList
	bus    *events.Bus
	log    *logger.Logger
}

// New creates an engine publishing on bus. A nil bus drops events.
func New(stages config.StageList, bus *events.Bus, log *logger.Logger) *Engine {
	return &Engine{stages: stages, bus: bus, log: log}
}

// PromoteFacts applies one answer to item. The answer must already be the
// newest entry of st.History so bulk promotion sees it.
func (e *Engine) PromoteFacts(st *state.StudentState, item *state.FactItem, answer state.Outcome, d config.Difficulty, now time.Time) Result {
	res := Result{FromStage: item.StageID, ToStage: item.StageID}
	correct := answer.IsCorrect()

	if correct {
		item.RecordCorrect()
	} else {
		item.RecordIncorrect()
	}

	current := e.stages.Resolve(item.StageID)
	if correct && current.IsReinforcement() {
		item.MarkAsked(now)
	}

	if correct && d.BulkPromotion.Enabled {
		if moved, ok := e.tryBulkPromotion(st, item, d, now); ok {
			res.Bulk = true
			res.Moved = moved
			res.ToStage = item.StageID
			res.Changed = res.ToStage != res.FromStage
			return res
		}
	}

	if correct {
		target := e.PromotionStage(item.StageID, d)
		if item.ConsecutiveCorrect >= d.PromotionThreshold(target.ID) {
			e.move(item, target, answer, item.ConsecutiveCorrect, false, now)
		}
	} else {
		target := e.DemotionStage(item.StageID, d)
		if item.ConsecutiveIncorrect >= d.DemotionThreshold(target.ID) {
			e.move(item, target, answer, item.ConsecutiveIncorrect, false, now)
		}
	}

	res.ToStage = item.StageID
	res.Changed = res.ToStage != res.FromStage
	if res.Changed {
		res.Moved = []string{item.FactID}
	}
	return res
}

// tryBulkPromotion promotes every fact sharing item's (fact set, stage)
// pair when the cohort has at least two facts, the most recent
// MinConsecutiveCorrect answers for the pair are all correct and enough of
// the cohort has been answered at least once.
func (e *Engine) tryBulkPromotion(st *state.StudentState, item *state.FactItem, d config.Difficulty, now time.Time) ([]string, bool) {
	bp := d.BulkPromotion
	cohort := st.ItemsIn(item.FactSetID, item.StageID)
	if len(cohort) < 2 {
		return nil, false
	}

	recent := st.RecentAnswersMatching(bp.MinConsecutiveCorrect, func(a state.AnswerRecord) bool {
		return a.FactSetID == item.FactSetID && a.StageID == item.StageID
	})
	if len(recent) < bp.MinConsecutiveCorrect {
		return nil, false
	}
	for _, a := range recent {
		if !a.Answer.IsCorrect() {
			return nil, false
		}
	}

	answered := make(map[string]bool)
	for _, a := range st.History {
		answered[a.FactID] = true
	}
	covered := 0
	for _, f := range cohort {
		if answered[f.FactID] {
			covered++
		}
	}
	if float64(covered)/float64(len(cohort)) < bp.MinFactSetCoveragePercent {
		return nil, false
	}

	fromStage := item.StageID
	target := e.PromotionStage(fromStage, d)
	if target.ID == fromStage {
		return nil, false
	}

	moved := make([]string, 0, len(cohort))
	for _, f := range cohort {
		e.move(f, target, state.Correct, f.ConsecutiveCorrect, true, now)
		moved = append(moved, f.FactID)
	}

	e.log.Info("bulk promotion",
		"fact_set", item.FactSetID, "from", fromStage, "to", target.ID, "facts", len(moved))
	e.bus.Publish(events.BulkPromotion{
		FactSetID: item.FactSetID,
		FromStage: fromStage,
		FactIDs:   moved,
		At:        now,
	})
	return moved, true
}

// move sets item's stage, resets its streaks and emits a progression
// event. Moving to the current stage is a no-op.
func (e *Engine) move(item *state.FactItem, to config.LearningStage, answer state.Outcome, streak int, bulk bool, now time.Time) {
	if item.StageID == to.ID {
		return
	}
	from := item.StageID
	item.StageID = to.ID
	item.ResetStreaks()

	e.log.Debug("fact stage changed", "fact", item.FactID, "from", from, "to", to.ID, "answer", answer)
	e.bus.Publish(events.IndividualFactProgression{
		FactID:    item.FactID,
		FactSetID: item.FactSetID,
		FromStage: from,
		ToStage:   to.ID,
		Trigger:   answer,
		Streak:    streak,
		Bulk:      bulk,
		At:        now,
	})
}

// PromotionStage scans forward from the stage after current and returns
// the first stage that is fully learned or has a positive promotion
// threshold. Stages with a zero threshold are passed through. Reaching the
// end lands on the last stage.
func (e *Engine) PromotionStage(current string, d config.Difficulty) config.LearningStage {
	pos := e.stages.Position(current)
	if pos < 0 {
		pos = 0
	}
	for i := pos + 1; i < e.stages.Len(); i++ {
		s := e.stages.At(i)
		if s.IsFullyLearned || d.PromotionThreshold(s.ID) > 0 {
			return s
		}
	}
	return e.stages.Last()
}

// DemotionStage scans backward from the stage before current and returns
// the first grounding stage or stage with a positive demotion threshold.
// The first stage is the floor.
func (e *Engine) DemotionStage(current string, d config.Difficulty) config.LearningStage {
	pos := e.stages.Position(current)
	for i := pos - 1; i >= 0; i-- {
		s := e.stages.At(i)
		if s.Type == config.StageGrounding || d.DemotionThreshold(s.ID) > 0 {
			return s
		}
	}
	return e.stages.First()
}
