package progression

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/timestables/internal/catalog"
	"github.com/abhisek/timestables/internal/clock"
	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/events"
	"github.com/abhisek/timestables/internal/learner"
	"github.com/abhisek/timestables/internal/question"
	"github.com/abhisek/timestables/internal/rng"
	"github.com/abhisek/timestables/internal/state"
	"github.com/abhisek/timestables/internal/store"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func level(id string, minAccuracy float64, maxLearning int) config.Difficulty {
	return config.Difficulty{
		ID:                   id,
		Name:                 id,
		MinAccuracy:          minAccuracy,
		MaxFactsBeingLearned: maxLearning,
		PromotionThresholds: map[string]int{
			"practice-slow": 1,
			"practice-fast": 1,
			"review":        1,
			"repetition":    1,
			"mastered":      1,
		},
		DemotionThresholds: map[string]int{"practice-slow": 1},
		KnownFactMinRatio:  0,
		KnownFactMaxRatio:  1,
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Selection.MinQuestionIntervalSeconds = 0
	cfg.Selection.RandomizeIntervals = false
	cfg.Difficulties = []config.Difficulty{level("only", 0, 2)}
	return cfg
}

func oneSet(t *testing.T, n int) *catalog.Catalog {
	t.Helper()
	fs := catalog.FactSet{ID: "table-2", Name: "2 times table", Order: 1}
	for b := 1; b <= n; b++ {
		fs.Facts = append(fs.Facts, catalog.Fact{A: 2, B: b})
	}
	cat, err := catalog.New([]catalog.FactSet{fs})
	require.NoError(t, err)
	return cat
}

type fixture struct {
	o   *Orchestrator
	mem *store.Memory
	clk *clock.Manual
	rec *events.Recorder
	ls  *learner.Store
}

func newFixture(t *testing.T, cfg config.Config, cat *catalog.Catalog, initialize bool) *fixture {
	t.Helper()
	mem := store.NewMemory()
	clk := clock.NewManual(t0)
	src := rng.New(11)
	ls := learner.New(mem, cat, cfg.StageList(), clk, src, learner.Options{})
	o, err := New(Deps{
		Config:   cfg,
		Catalog:  cat,
		Learner:  ls,
		Clock:    clk,
		RNG:      src,
		EventLog: mem,
	})
	require.NoError(t, err)
	rec := &events.Recorder{}
	o.Subscribe(rec.Handle)
	if initialize {
		require.NoError(t, o.Initialize(context.Background()))
	}
	t.Cleanup(func() { _ = o.Close() })
	return &fixture{o: o, mem: mem, clk: clk, rec: rec, ls: ls}
}

func (f *fixture) state(t *testing.T) *state.StudentState {
	t.Helper()
	var out *state.StudentState
	require.NoError(t, f.ls.WithState(func(st *state.StudentState) { out = st }))
	return out
}

func answer(t *testing.T, f *fixture, q *question.Question, outcome state.Outcome) Feedback {
	t.Helper()
	f.o.StartQuestion(q)
	value := q.CorrectValue
	if outcome != state.Correct {
		value = q.CorrectValue + 1
	}
	fb, err := f.o.SubmitAnswer(context.Background(), q, question.Submission{Value: value, Outcome: outcome})
	require.NoError(t, err)
	return fb
}

func TestNew_FailsFastOnBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Difficulties = nil
	cat := oneSet(t, 3)
	ls := learner.New(store.NewMemory(), cat, cfg.StageList(), clock.NewManual(t0), rng.New(1), learner.Options{})

	_, err := New(Deps{Config: cfg, Catalog: cat, Learner: ls})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no difficulty levels defined")
}

func TestNotInitialized(t *testing.T) {
	f := newFixture(t, testConfig(), oneSet(t, 3), false)

	_, err := f.o.GetNextQuestion(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = f.o.SubmitAnswer(context.Background(), &question.Question{}, question.Submission{Outcome: state.Correct})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestGetNextQuestion_FreshStateAdmitsFromUnknownPool(t *testing.T) {
	f := newFixture(t, testConfig(), oneSet(t, 3), true)

	q, err := f.o.GetNextQuestion(context.Background())
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, "table-2", q.FactSetID)
	assert.Equal(t, "assessment", q.Stage.ID)
	assert.Equal(t, config.ModeAssessment, q.Mode)

	item := f.state(t).Item(q.FactID)
	require.NotNil(t, item.LastAskedTime, "stamped at selection time")
	assert.Equal(t, t0, *item.LastAskedTime)

	p, err := f.o.Pools()
	require.NoError(t, err)
	assert.Equal(t, 2, p.NeverAsked)
	assert.Equal(t, 1, p.NotAdmitted, "one fact stays outside the learning slots")
}

func TestStartQuestion_StampsOnce(t *testing.T) {
	f := newFixture(t, testConfig(), oneSet(t, 3), true)
	q, err := f.o.GetNextQuestion(context.Background())
	require.NoError(t, err)

	f.o.StartQuestion(q)
	require.NotNil(t, q.PresentedAt)
	first := *q.PresentedAt
	f.clk.Advance(time.Second)
	f.o.StartQuestion(q)
	assert.Equal(t, first, *q.PresentedAt)
}

func TestSubmitAnswer_CorrectPromotesAndPersists(t *testing.T) {
	f := newFixture(t, testConfig(), oneSet(t, 3), true)
	q, err := f.o.GetNextQuestion(context.Background())
	require.NoError(t, err)

	fb := answer(t, f, q, state.Correct)
	assert.False(t, fb.Retry)
	assert.Equal(t, q.CorrectValue, fb.CorrectValue)
	assert.Equal(t, testConfig().Session.FeedbackDelay, fb.Delay)
	require.NotNil(t, fb.Promotion)
	assert.Equal(t, "practice-slow", fb.Promotion.ToStage, "grounding has no threshold and is skipped")
	require.NotNil(t, q.CompletedAt)

	st := f.state(t)
	require.Len(t, st.History, 1)
	assert.Equal(t, "assessment", st.History[0].StageID)
	assert.Equal(t, 1, st.Stats[q.FactID].TimesCorrect)

	require.NoError(t, f.o.Flush(context.Background()))
	data, ok := f.mem.Get(learner.Key(learner.DefaultLearnerID))
	require.True(t, ok)
	saved, err := state.Unmarshal(data, state.MigrateOptions{})
	require.NoError(t, err)
	assert.Len(t, saved.History, 1)
	assert.Equal(t, "practice-slow", saved.Item(q.FactID).StageID)

	logged, err := f.mem.ProgressEvents(context.Background(), learner.DefaultLearnerID, store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, string(events.KindIndividualFactProgression), logged[0].Kind)
	assert.Equal(t, "assessment", logged[0].FromStage)
	assert.Equal(t, "practice-slow", logged[0].ToStage)
	assert.Equal(t, "correct", logged[0].Trigger)
}

func TestSubmitAnswer_GroundingIncorrectIsRetry(t *testing.T) {
	f := newFixture(t, testConfig(), oneSet(t, 3), true)
	grounding, ok := f.o.Stages().Get("grounding")
	require.True(t, ok)
	fact, _ := oneSet(t, 3).Fact("2x1")
	q := f.o.questions.CreateQuestionForStage(context.Background(), fact, grounding)

	fb := answer(t, f, q, state.Incorrect)
	assert.True(t, fb.Retry)

	st := f.state(t)
	assert.Empty(t, st.History)
	assert.Empty(t, st.Stats)
	assert.Zero(t, st.Item("2x1").ConsecutiveIncorrect)
	assert.Nil(t, q.CompletedAt)
}

func TestSubmitAnswer_MockChangesNothing(t *testing.T) {
	f := newFixture(t, testConfig(), oneSet(t, 3), true)
	fact, _ := oneSet(t, 3).Fact("2x2")
	q := f.o.MockQuestion(context.Background(), fact)

	fb := answer(t, f, q, state.Correct)
	assert.False(t, fb.Retry)
	assert.Nil(t, fb.Promotion)

	st := f.state(t)
	assert.Empty(t, st.History)
	assert.Empty(t, st.Stats)
	assert.Equal(t, "assessment", st.Item("2x2").StageID)
	assert.Empty(t, f.rec.Events())
}

func TestSubmitAnswer_SkippedOnlyTouchesStats(t *testing.T) {
	f := newFixture(t, testConfig(), oneSet(t, 3), true)
	q, err := f.o.GetNextQuestion(context.Background())
	require.NoError(t, err)

	fb := answer(t, f, q, state.Skipped)
	assert.Nil(t, fb.Promotion)

	st := f.state(t)
	assert.Empty(t, st.History)
	assert.Equal(t, 1, st.Stats[q.FactID].TimesShown)
	assert.Zero(t, st.Stats[q.FactID].TimesCorrect)
	assert.Equal(t, "assessment", st.Item(q.FactID).StageID)
}

func TestSubmitAnswer_TimedOutDemotes(t *testing.T) {
	f := newFixture(t, testConfig(), oneSet(t, 3), true)
	require.NoError(t, f.ls.WithState(func(st *state.StudentState) {
		for _, it := range st.Facts {
			it.StageID = "practice-fast"
		}
	}))
	q, err := f.o.GetNextQuestion(context.Background())
	require.NoError(t, err)
	require.Equal(t, "practice-fast", q.Stage.ID)

	fb := answer(t, f, q, state.TimedOut)
	require.NotNil(t, fb.Promotion)
	assert.Equal(t, "practice-slow", fb.Promotion.ToStage)
	assert.Equal(t, 1, f.state(t).Stats[q.FactID].TimesIncorrect)
}

func TestSubmitAnswer_InvalidOutcome(t *testing.T) {
	f := newFixture(t, testConfig(), oneSet(t, 3), true)
	q, err := f.o.GetNextQuestion(context.Background())
	require.NoError(t, err)
	_, err = f.o.SubmitAnswer(context.Background(), q, question.Submission{Outcome: "maybe"})
	assert.Error(t, err)
}

func TestDifficultyRisesWithAccuracy(t *testing.T) {
	cfg := testConfig()
	cfg.Difficulties = []config.Difficulty{level("easy", 0, 2), level("hard", 0.8, 3)}
	cfg.DifficultyControl.MinRecentAnswers = 3
	f := newFixture(t, cfg, oneSet(t, 5), true)

	d, idx := f.o.Difficulty()
	assert.Equal(t, "easy", d.ID)
	assert.Zero(t, idx)

	for i := 0; i < 3; i++ {
		q, err := f.o.GetNextQuestion(context.Background())
		require.NoError(t, err)
		require.NotNil(t, q)
		answer(t, f, q, state.Correct)
	}

	d, idx = f.o.Difficulty()
	assert.Equal(t, "hard", d.ID)
	assert.Equal(t, 1, idx)

	changes := f.rec.Of(events.KindDifficultyChanged)
	require.Len(t, changes, 1)
	assert.Equal(t, "hard", changes[0].(events.DifficultyChanged).ToID)

	logged, err := f.mem.ProgressEvents(context.Background(), learner.DefaultLearnerID, store.QueryOpts{})
	require.NoError(t, err)
	var kinds []string
	for _, e := range logged {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, string(events.KindDifficultyChanged))
}

func TestDrivingAFactSetToCompletion(t *testing.T) {
	f := newFixture(t, testConfig(), oneSet(t, 2), true)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		progress, err := f.o.FactSetProgress()
		require.NoError(t, err)
		if progress[0].Completed {
			break
		}
		q, err := f.o.GetNextQuestion(ctx)
		require.NoError(t, err)
		if q == nil {
			f.clk.Advance(25 * time.Hour)
			continue
		}
		answer(t, f, q, state.Correct)
		f.clk.Advance(time.Second)
	}

	progress, err := f.o.FactSetProgress()
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.True(t, progress[0].Completed)
	assert.True(t, progress[0].ReviewReady)
	assert.Equal(t, 2, progress[0].ByStage["mastered"])

	assert.Len(t, f.rec.Of(events.KindFactSetReviewReady), 1)
	assert.Len(t, f.rec.Of(events.KindFactSetCompletion), 1)
	assert.Len(t, f.rec.Of(events.KindIndividualFactProgression), 10, "five steps per fact")

	q, err := f.o.GetNextQuestion(ctx)
	require.NoError(t, err)
	assert.Nil(t, q, "mastered facts are never selected")
}

func TestInitialize_KnownSetsDoNotRefire(t *testing.T) {
	cfg := testConfig()
	cat := oneSet(t, 2)
	mem := store.NewMemory()
	mem.Put(learner.Key(learner.DefaultLearnerID), []byte(`{
	  "version": 4, "created_at": "2025-03-01T09:00:00Z", "stats": {}, "history": [],
	  "facts": [
	    {"fact_id": "2x1", "fact_set_id": "table-2", "stage_id": "mastered", "random_factor": 0.1},
	    {"fact_id": "2x2", "fact_set_id": "table-2", "stage_id": "repetition", "random_factor": 0.2}
	  ]
	}`))
	clk := clock.NewManual(t0)
	ls := learner.New(mem, cat, cfg.StageList(), clk, rng.New(3), learner.Options{})
	o, err := New(Deps{Config: cfg, Catalog: cat, Learner: ls, Clock: clk, RNG: rng.New(3)})
	require.NoError(t, err)
	rec := &events.Recorder{}
	o.Subscribe(rec.Handle)
	require.NoError(t, o.Initialize(context.Background()))
	defer o.Close()

	q, err := o.GetNextQuestion(context.Background())
	require.NoError(t, err)
	require.NotNil(t, q)
	require.Equal(t, "2x2", q.FactID)
	_, err = o.SubmitAnswer(context.Background(), q, question.Submission{Value: q.CorrectValue, Outcome: state.Correct})
	require.NoError(t, err)

	assert.Empty(t, rec.Of(events.KindFactSetReviewReady), "already review-ready at load")
	assert.Len(t, rec.Of(events.KindFactSetCompletion), 1)
}

func TestConcurrentSubmissionsSerialize(t *testing.T) {
	cfg := testConfig()
	cfg.Difficulties = []config.Difficulty{level("wide", 0, 40)}
	f := newFixture(t, cfg, catalog.Default(), true)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		submitted int
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				q, err := f.o.GetNextQuestion(ctx)
				if err != nil || q == nil {
					continue
				}
				if _, err := f.o.SubmitAnswer(ctx, q, question.Submission{Value: q.CorrectValue, Outcome: state.Correct}); err == nil {
					mu.Lock()
					submitted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Len(t, f.state(t).History, submitted)
	require.NoError(t, f.state(t).Validate())
}

func TestReset(t *testing.T) {
	f := newFixture(t, testConfig(), oneSet(t, 3), true)
	q, err := f.o.GetNextQuestion(context.Background())
	require.NoError(t, err)
	answer(t, f, q, state.Correct)

	require.NoError(t, f.o.Reset(context.Background()))
	st := f.state(t)
	assert.Empty(t, st.History)
	for _, it := range st.Facts {
		assert.Equal(t, "assessment", it.StageID)
	}
}

func TestReset_ReturnsToLowestDifficulty(t *testing.T) {
	cfg := testConfig()
	cfg.Difficulties = []config.Difficulty{level("easy", 0, 2), level("hard", 0.8, 3)}
	cfg.DifficultyControl.MinRecentAnswers = 3
	f := newFixture(t, cfg, oneSet(t, 5), true)

	for i := 0; i < 3; i++ {
		q, err := f.o.GetNextQuestion(context.Background())
		require.NoError(t, err)
		require.NotNil(t, q)
		answer(t, f, q, state.Correct)
	}
	d, _ := f.o.Difficulty()
	require.Equal(t, "hard", d.ID)

	require.NoError(t, f.o.Reset(context.Background()))
	d, idx := f.o.Difficulty()
	assert.Equal(t, "easy", d.ID)
	assert.Zero(t, idx)
}

func TestInitialize_RestoresDifficultyWithoutLogging(t *testing.T) {
	cfg := testConfig()
	cfg.Difficulties = []config.Difficulty{level("easy", 0, 2), level("hard", 0.8, 3)}
	cfg.DifficultyControl.MinRecentAnswers = 3
	cat := oneSet(t, 5)
	f := newFixture(t, cfg, cat, true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		q, err := f.o.GetNextQuestion(ctx)
		require.NoError(t, err)
		require.NotNil(t, q)
		answer(t, f, q, state.Correct)
	}
	require.NoError(t, f.o.Flush(ctx))

	countChanges := func() int {
		logged, err := f.mem.ProgressEvents(ctx, learner.DefaultLearnerID, store.QueryOpts{})
		require.NoError(t, err)
		n := 0
		for _, e := range logged {
			if e.Kind == string(events.KindDifficultyChanged) {
				n++
			}
		}
		return n
	}
	require.Equal(t, 1, countChanges())

	for i := 0; i < 3; i++ {
		clk := clock.NewManual(t0)
		ls := learner.New(f.mem, cat, cfg.StageList(), clk, rng.New(5), learner.Options{})
		o, err := New(Deps{Config: cfg, Catalog: cat, Learner: ls, Clock: clk, RNG: rng.New(5), EventLog: f.mem})
		require.NoError(t, err)
		rec := &events.Recorder{}
		o.Subscribe(rec.Handle)
		require.NoError(t, o.Initialize(ctx))

		d, idx := o.Difficulty()
		assert.Equal(t, "hard", d.ID)
		assert.Equal(t, 1, idx)
		assert.Empty(t, rec.Of(events.KindDifficultyChanged))
		require.NoError(t, o.Close())
	}
	assert.Equal(t, 1, countChanges())
}
