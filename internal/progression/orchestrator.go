// Package progression is the façade hosts drive: ask for the next
// question, mark it presented, submit the answer. It wires difficulty,
// selection, question building, promotion and persistence together.
package progression

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/timestables/internal/catalog"
	"github.com/abhisek/timestables/internal/clock"
	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/difficulty"
	"github.com/abhisek/timestables/internal/distractor"
	"github.com/abhisek/timestables/internal/events"
	"github.com/abhisek/timestables/internal/learner"
	"github.com/abhisek/timestables/internal/logger"
	"github.com/abhisek/timestables/internal/promotion"
	"github.com/abhisek/timestables/internal/question"
	"github.com/abhisek/timestables/internal/rng"
	"github.com/abhisek/timestables/internal/selection"
	"github.com/abhisek/timestables/internal/state"
	"github.com/abhisek/timestables/internal/store"
)

// ErrNotInitialized is returned by question-flow methods before the
// learner state has been loaded.
var ErrNotInitialized = learner.ErrNotInitialized

// Feedback is returned for every submission.
type Feedback struct {
	Submission   question.Submission
	CorrectValue int
	// Delay is how long the host should show feedback before moving on.
	Delay time.Duration
	// Retry asks the host to present the same question again.
	Retry bool
	// Promotion is the stage change caused by this answer, if any.
	Promotion *promotion.Result
}

// Deps are the orchestrator's collaborators.
type Deps struct {
	Config  config.Config
	Catalog *catalog.Catalog
	Learner *learner.Store
	Clock   clock.Clock
	RNG     *rng.Source
	// Bus receives domain events. A new bus is created when nil.
	Bus *events.Bus
	// EventLog, when set, records every domain event for the learner.
	EventLog store.EventLog
	// Distractors overrides the default generator built from Config.
	Distractors *distractor.Generator
	Logger      *logger.Logger
}

// Orchestrator runs the question flow for one learner. Every public method
// is serialized by a mutex.
type Orchestrator struct {
	mu sync.Mutex

	cfg       config.Config
	cat       *catalog.Catalog
	stages    config.StageList
	learner   *learner.Store
	clk       clock.Clock
	bus       *events.Bus
	eventLog  store.EventLog
	log       *logger.Logger
	levels    *difficulty.Controller
	selector  *selection.Service
	promoter  *promotion.Engine
	questions *question.Factory

	sets    *setTracker
	pending []events.Event
}

// New validates the configuration and assembles an orchestrator.
func New(d Deps) (*Orchestrator, error) {
	if err := d.Config.Validate(); err != nil {
		return nil, err
	}
	if d.Catalog == nil {
		return nil, errors.New("progression: catalog is required")
	}
	if d.Learner == nil {
		return nil, errors.New("progression: learner store is required")
	}
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if d.RNG == nil {
		d.RNG = rng.NewTimeSeeded()
	}
	if d.Bus == nil {
		d.Bus = events.NewBus()
	}

	levels, err := difficulty.New(d.Config.Difficulties, d.Config.DifficultyControl.MinRecentAnswers)
	if err != nil {
		return nil, fmt.Errorf("progression: %w", err)
	}

	gen := d.Distractors
	if gen == nil {
		gen = distractor.New(d.Config.Distractors, d.RNG, distractor.WithLogger(d.Logger))
	}

	stages := d.Config.StageList()
	o := &Orchestrator{
		cfg:       d.Config,
		cat:       d.Catalog,
		stages:    stages,
		learner:   d.Learner,
		clk:       d.Clock,
		bus:       d.Bus,
		eventLog:  d.EventLog,
		log:       d.Logger.With("learner", d.Learner.LearnerID()),
		levels:    levels,
		selector:  selection.New(d.Catalog, stages, d.Config.Selection, d.RNG),
		promoter:  promotion.New(stages, d.Bus, d.Logger),
		questions: question.NewFactory(gen, d.Catalog.MaxOperand()),
	}

	levels.OnChange(func(from, to config.Difficulty, fromIndex, toIndex int, accuracy float64) {
		o.log.Info("difficulty changed", "from", from.ID, "to", to.ID, "accuracy", accuracy)
		o.bus.Publish(events.DifficultyChanged{
			FromID: from.ID, ToID: to.ID,
			FromIndex: fromIndex, ToIndex: toIndex,
			Accuracy: accuracy,
			At:       o.clk.Now(),
		})
	})
	o.bus.Subscribe(func(e events.Event) { o.pending = append(o.pending, e) })

	return o, nil
}

// Initialize loads the learner state, restores the difficulty level from
// recent history and records which fact sets are already review-ready or
// complete. Restoring the level publishes no DifficultyChanged event.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.learner.Initialize(ctx); err != nil {
		return err
	}
	o.sets = nil
	err := o.learner.WithState(func(st *state.StudentState) {
		o.levels.Restore(st.RecentAnswers(o.cfg.DifficultyControl.AccuracyWindow))
		o.sets = newSetTracker(o.cat, o.stages, st)
	})
	o.flushEvents(ctx)
	return err
}

// Reset replaces the learner's progress with a fresh state and drops back
// to the lowest difficulty level.
func (o *Orchestrator) Reset(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.learner.Reset(ctx); err != nil {
		return err
	}
	o.levels.Reset()
	o.pending = nil
	return o.learner.WithState(func(st *state.StudentState) {
		o.sets = newSetTracker(o.cat, o.stages, st)
	})
}

// Subscribe registers h for domain events. Handlers run synchronously
// while the orchestrator is locked and must not call back into it.
func (o *Orchestrator) Subscribe(h events.Handler) (unsubscribe func()) {
	return o.bus.Subscribe(h)
}

// Difficulty returns the active difficulty level and its index in
// ascending order.
func (o *Orchestrator) Difficulty() (config.Difficulty, int) {
	return o.levels.Current(), o.levels.Index()
}

// Stages returns the configured stages in order.
func (o *Orchestrator) Stages() config.StageList {
	return o.stages
}

// GetNextQuestion selects the next fact, stamps it as asked and builds its
// question. It returns (nil, nil) when nothing is eligible right now.
func (o *Orchestrator) GetNextQuestion(ctx context.Context) (*question.Question, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.clk.Now()
	d := o.levels.Current()

	var sel *selection.Selection
	err := o.learner.WithState(func(st *state.StudentState) {
		sel = o.selector.SelectNextFact(st, d, now)
		if sel != nil {
			o.selector.UpdateLastAskedTime(sel.Item, now)
		}
	})
	if err != nil {
		return nil, err
	}
	if sel == nil {
		o.log.Debug("no eligible fact")
		return nil, nil
	}

	q := o.questions.CreateQuestionForStage(ctx, sel.Fact, sel.Stage)
	o.log.Debug("question ready",
		"fact", q.FactID,
		"stage", q.Stage.ID,
		"known_pool", sel.FromKnownPool,
		"choices", len(q.Choices))
	o.learner.SaveAsync()
	return q, nil
}

// MockQuestion returns a tutorial question for fact that SubmitAnswer
// accepts without recording anything.
func (o *Orchestrator) MockQuestion(ctx context.Context, fact catalog.Fact) *question.Question {
	return o.questions.MockQuestion(ctx, fact)
}

// StartQuestion stamps the presentation time. It does not touch learner
// state.
func (o *Orchestrator) StartQuestion(q *question.Question) {
	if q == nil || q.PresentedAt != nil {
		return
	}
	now := o.clk.Now()
	q.PresentedAt = &now
}

// SubmitAnswer applies the learner's answer to q.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, q *question.Question, sub question.Submission) (Feedback, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.learner.Initialized() {
		return Feedback{}, ErrNotInitialized
	}
	if q == nil {
		return Feedback{}, errors.New("progression: nil question")
	}
	if !sub.Outcome.Valid() {
		return Feedback{}, fmt.Errorf("progression: invalid outcome %q", sub.Outcome)
	}

	fb := Feedback{
		Submission:   sub,
		CorrectValue: q.CorrectValue,
		Delay:        o.cfg.Session.FeedbackDelay,
	}

	if q.Mode == config.ModeGrounding && sub.Outcome.CountsAsIncorrect() {
		fb.Retry = true
		return fb, nil
	}
	if q.IsMock {
		return fb, nil
	}

	now := o.clk.Now()
	q.CompletedAt = &now

	if !sub.Outcome.Progresses() {
		err := o.learner.WithState(func(st *state.StudentState) {
			st.RecordStats(q.FactID, sub.Outcome, now)
		})
		if err != nil {
			return Feedback{}, err
		}
		o.learner.SaveAsync()
		return fb, nil
	}

	err := o.learner.WithState(func(st *state.StudentState) {
		item := st.Item(q.FactID)
		if item == nil {
			o.log.Warn("answer for unknown fact ignored", "fact", q.FactID)
			return
		}
		stage := o.stages.Resolve(item.StageID)

		st.AppendAnswer(state.AnswerRecord{
			FactID:       item.FactID,
			FactSetID:    item.FactSetID,
			StageID:      item.StageID,
			Answer:       sub.Outcome,
			Timestamp:    now,
			WasKnownFact: stage.IsKnownFact,
		}, o.cfg.Session.MaxAnswerRecords)
		st.RecordStats(item.FactID, sub.Outcome, now)

		res := o.promoter.PromoteFacts(st, item, sub.Outcome, o.levels.Current(), now)
		if res.Changed || res.Bulk {
			fb.Promotion = &res
		}

		o.levels.Update(st.RecentAnswers(o.cfg.DifficultyControl.AccuracyWindow))

		if o.sets == nil {
			o.sets = newSetTracker(o.cat, o.stages, st)
		}
		for _, e := range o.sets.update(st, now) {
			o.bus.Publish(e)
		}
	})
	if err != nil {
		return Feedback{}, err
	}

	o.flushEvents(ctx)
	o.learner.SaveAsync()
	return fb, nil
}

// Pools returns the current selection partition, for reporting.
func (o *Orchestrator) Pools() (selection.Pools, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var p selection.Pools
	now := o.clk.Now()
	err := o.learner.WithState(func(st *state.StudentState) {
		p = o.selector.Pools(st, o.levels.Current(), now)
	})
	return p, err
}

// Flush waits for queued saves.
func (o *Orchestrator) Flush(ctx context.Context) error {
	return o.learner.Flush(ctx)
}

// Close waits for queued saves.
func (o *Orchestrator) Close() error {
	return o.learner.Close()
}
