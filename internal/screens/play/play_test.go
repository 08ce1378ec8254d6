package play

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/timestables/internal/catalog"
	"github.com/abhisek/timestables/internal/clock"
	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/distractor"
	"github.com/abhisek/timestables/internal/events"
	"github.com/abhisek/timestables/internal/learner"
	"github.com/abhisek/timestables/internal/progression"
	"github.com/abhisek/timestables/internal/question"
	"github.com/abhisek/timestables/internal/rng"
	"github.com/abhisek/timestables/internal/router"
	"github.com/abhisek/timestables/internal/state"
	"github.com/abhisek/timestables/internal/store"
)

var t0 = time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC)

// fakeEngine hands out queued questions and canned feedback.
type fakeEngine struct {
	mu          sync.Mutex
	questions   []*question.Question
	feedback    progression.Feedback
	err         error
	submissions []question.Submission
	started     int
	bus         *events.Bus
	emit        []events.Event
}

func newFakeEngine(qs ...*question.Question) *fakeEngine {
	return &fakeEngine{questions: qs, bus: events.NewBus()}
}

func (f *fakeEngine) GetNextQuestion(context.Context) (*question.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.questions) == 0 {
		return nil, nil
	}
	q := f.questions[0]
	f.questions = f.questions[1:]
	return q, nil
}

func (f *fakeEngine) StartQuestion(*question.Question) {
	f.mu.Lock()
	f.started++
	f.mu.Unlock()
}

func (f *fakeEngine) SubmitAnswer(_ context.Context, q *question.Question, sub question.Submission) (progression.Feedback, error) {
	f.mu.Lock()
	f.submissions = append(f.submissions, sub)
	emit := f.emit
	f.emit = nil
	fb := f.feedback
	f.mu.Unlock()

	for _, e := range emit {
		f.bus.Publish(e)
	}
	fb.Submission = sub
	fb.CorrectValue = q.CorrectValue
	return fb, nil
}

func (f *fakeEngine) Subscribe(h events.Handler) func() { return f.bus.Subscribe(h) }

func (f *fakeEngine) Stages() config.StageList { return config.Default().StageList() }

func timedQuestion(id string) *question.Question {
	stage := config.Default().StageList().Resolve("practice-fast")
	return &question.Question{
		ID:        id,
		FactID:    "7x8",
		FactSetID: "table-7",
		Text:      "7 × 8",
		Choices: []distractor.Choice{
			{Value: 54}, {Value: 56, Correct: true}, {Value: 63}, {Value: 48},
		},
		CorrectValue: 56,
		TimeLimit:    5 * time.Second,
		Mode:         config.ModePractice,
		Stage:        stage,
	}
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// run feeds cmd's message back into the screen. It must only be used
// for commands that do not sleep.
func run(t *testing.T, s *PlayScreen, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	_, next := s.Update(cmd())
	return next
}

func started(t *testing.T, eng Engine, clk clock.Clock) *PlayScreen {
	t.Helper()
	s := New(eng, clk)
	run(t, s, s.Init())
	if s.phase != phaseQuestion {
		t.Fatalf("phase = %d, want question", s.phase)
	}
	return s
}

func TestPlayScreen_Title(t *testing.T) {
	s := New(newFakeEngine(), clock.NewManual(t0))
	if s.Title() != "Practice" {
		t.Errorf("Title = %q", s.Title())
	}
}

func TestPlayScreen_CorrectAnswer(t *testing.T) {
	eng := newFakeEngine(timedQuestion("q1"), timedQuestion("q2"))
	eng.feedback = progression.Feedback{Delay: time.Second}
	clk := clock.NewManual(t0)
	s := started(t, eng, clk)

	clk.Advance(2 * time.Second)
	_, cmd := s.Update(keyPress('b'))
	if s.phase != phaseSubmitting {
		t.Fatalf("phase = %d, want submitting", s.phase)
	}
	run(t, s, cmd)

	if len(eng.submissions) != 1 {
		t.Fatalf("submissions = %d", len(eng.submissions))
	}
	sub := eng.submissions[0]
	if sub.Value != 56 || sub.Outcome != state.Correct || sub.Elapsed != 2*time.Second {
		t.Errorf("submission = %+v", sub)
	}
	if s.phase != phaseFeedback {
		t.Fatalf("phase = %d, want feedback", s.phase)
	}
	if !strings.Contains(s.View(80, 24), "Correct!") {
		t.Error("feedback view should say Correct!")
	}

	// Any key moves on to the next question.
	_, cmd = s.Update(keyPress('x'))
	run(t, s, cmd)
	if s.q == nil || s.q.ID != "q2" {
		t.Fatalf("expected q2, got %+v", s.q)
	}
	if sum := s.Summary(); sum.Answered != 1 || sum.Correct != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestPlayScreen_NumberKeysAndWrongAnswer(t *testing.T) {
	eng := newFakeEngine(timedQuestion("q1"))
	s := started(t, eng, clock.NewManual(t0))

	_, cmd := s.Update(keyPress('4'))
	run(t, s, cmd)

	if got := eng.submissions[0]; got.Value != 48 || got.Outcome != state.Incorrect {
		t.Errorf("submission = %+v", got)
	}
	view := s.View(80, 24)
	if !strings.Contains(view, "Not quite") || !strings.Contains(view, "7 × 8 = 56") {
		t.Errorf("feedback should show the right answer:\n%s", view)
	}
}

func TestPlayScreen_Skip(t *testing.T) {
	eng := newFakeEngine(timedQuestion("q1"))
	s := started(t, eng, clock.NewManual(t0))

	_, cmd := s.Update(keyPress('s'))
	run(t, s, cmd)
	if got := eng.submissions[0].Outcome; got != state.Skipped {
		t.Errorf("outcome = %q, want skipped", got)
	}
}

func TestPlayScreen_TimerExpires(t *testing.T) {
	eng := newFakeEngine(timedQuestion("q1"))
	clk := clock.NewManual(t0)
	s := started(t, eng, clk)

	clk.Advance(3 * time.Second)
	_, cmd := s.Update(timerTickMsg{QuestionID: "q1"})
	if cmd == nil || s.phase != phaseQuestion {
		t.Fatal("timer should keep ticking with time left")
	}
	if s.remaining != 2*time.Second {
		t.Errorf("remaining = %s", s.remaining)
	}

	clk.Advance(3 * time.Second)
	_, cmd = s.Update(timerTickMsg{QuestionID: "q1"})
	run(t, s, cmd)
	if got := eng.submissions[0]; got.Outcome != state.TimedOut || got.Elapsed != 5*time.Second {
		t.Errorf("submission = %+v", got)
	}
	if !strings.Contains(s.View(80, 24), "Out of time") {
		t.Error("expected the out of time message")
	}
}

func TestPlayScreen_StaleTickIgnored(t *testing.T) {
	eng := newFakeEngine(timedQuestion("q1"))
	clk := clock.NewManual(t0)
	s := started(t, eng, clk)

	clk.Advance(time.Minute)
	if _, cmd := s.Update(timerTickMsg{QuestionID: "old"}); cmd != nil {
		t.Fatal("a tick for another question must be dropped")
	}
	if len(eng.submissions) != 0 {
		t.Fatal("stale tick submitted an answer")
	}
}

func TestPlayScreen_RetryShowsSameQuestion(t *testing.T) {
	q := timedQuestion("q1")
	eng := newFakeEngine(q, timedQuestion("q2"))
	eng.feedback = progression.Feedback{Retry: true}
	s := started(t, eng, clock.NewManual(t0))

	_, cmd := s.Update(keyPress('a'))
	run(t, s, cmd)
	if !strings.Contains(s.View(80, 24), "try that one again") {
		t.Error("retry feedback missing")
	}

	_, cmd = s.Update(keyPress('x'))
	if s.q != q || s.phase != phaseQuestion {
		t.Fatalf("expected the same question again, got %+v", s.q)
	}
	if s.choices.Chosen != -1 {
		t.Error("choices should be cleared for the retry")
	}
	if cmd == nil {
		t.Error("the retried question should restart its timer")
	}
	if sum := s.Summary(); sum.Retries != 1 || sum.Answered != 0 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestPlayScreen_FeedbackAutoAdvance(t *testing.T) {
	eng := newFakeEngine(timedQuestion("q1"), timedQuestion("q2"))
	eng.feedback = progression.Feedback{Delay: time.Second}
	s := started(t, eng, clock.NewManual(t0))

	_, cmd := s.Update(keyPress('b'))
	run(t, s, cmd)

	if _, cmd := s.Update(feedbackDoneMsg{QuestionID: "other"}); cmd != nil {
		t.Fatal("stale feedbackDone should be ignored")
	}
	_, cmd = s.Update(feedbackDoneMsg{QuestionID: "q1"})
	run(t, s, cmd)
	if s.q.ID != "q2" {
		t.Errorf("expected q2, got %s", s.q.ID)
	}
}

func TestPlayScreen_Banners(t *testing.T) {
	eng := newFakeEngine(timedQuestion("q1"))
	eng.emit = []events.Event{
		events.IndividualFactProgression{FactID: "7x8", FactSetID: "table-7", FromStage: "practice-fast", ToStage: "review"},
		events.FactSetReviewReady{FactSetID: "table-7"},
	}
	s := started(t, eng, clock.NewManual(t0))

	_, cmd := s.Update(keyPress('b'))
	run(t, s, cmd)

	view := s.View(100, 30)
	for _, want := range []string{"7x8: practice-fast → review", "table-7 is ready for review"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing banner %q", want)
		}
	}
	if sum := s.Summary(); sum.Promotions != 1 {
		t.Errorf("promotions = %d", sum.Promotions)
	}
}

func TestPlayScreen_IdleWhenNothingDue(t *testing.T) {
	eng := newFakeEngine()
	s := New(eng, clock.NewManual(t0))
	_, cmd := s.Update(s.Init()())
	if s.phase != phaseIdle || cmd == nil {
		t.Fatalf("phase = %d, want idle with a poll", s.phase)
	}
	if !strings.Contains(s.View(80, 24), "Nothing is due") {
		t.Error("idle view missing")
	}

	eng.questions = []*question.Question{timedQuestion("q1")}
	_, cmd = s.Update(pollMsg{})
	run(t, s, cmd)
	if s.phase != phaseQuestion {
		t.Errorf("phase = %d after poll", s.phase)
	}
}

func TestPlayScreen_QuitConfirm(t *testing.T) {
	eng := newFakeEngine(timedQuestion("q1"))
	s := started(t, eng, clock.NewManual(t0))

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if !s.confirmQuit {
		t.Fatal("esc should ask before finishing")
	}
	s.Update(keyPress('n'))
	if s.confirmQuit {
		t.Fatal("n should dismiss the prompt")
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	_, cmd := s.Update(keyPress('y'))
	if cmd == nil {
		t.Fatal("y should finish the run")
	}
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", cmd())
	}
	if msg.Screen.Title() != "Practice Summary" {
		t.Errorf("replaced with %q", msg.Screen.Title())
	}
}

func TestPlayScreen_ErrorGoesBack(t *testing.T) {
	eng := newFakeEngine()
	eng.err = errors.New("disk on fire")
	s := New(eng, clock.NewManual(t0))
	s.Update(s.Init()())

	if !strings.Contains(s.View(80, 24), "disk on fire") {
		t.Error("error not shown")
	}
	_, cmd := s.Update(keyPress('x'))
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("any key should pop after an error")
	}
}

func TestPlayScreen_WithOrchestrator(t *testing.T) {
	cfg := config.Default()
	cfg.Selection.MinQuestionIntervalSeconds = 0
	cfg.Selection.RandomizeIntervals = false

	fs := catalog.FactSet{ID: "table-2", Name: "2 times table", Order: 1}
	for b := 1; b <= 4; b++ {
		fs.Facts = append(fs.Facts, catalog.Fact{A: 2, B: b})
	}
	cat, err := catalog.New([]catalog.FactSet{fs})
	if err != nil {
		t.Fatal(err)
	}

	mem := store.NewMemory()
	clk := clock.NewManual(t0)
	src := rng.New(5)
	ls := learner.New(mem, cat, cfg.StageList(), clk, src, learner.Options{})
	o, err := progression.New(progression.Deps{
		Config: cfg, Catalog: cat, Learner: ls, Clock: clk, RNG: src, EventLog: mem,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = o.Close() })
	if err := o.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}

	s := started(t, o, clk)
	correct := s.correctIndex()
	if correct < 0 {
		t.Fatal("question has no correct choice")
	}
	clk.Advance(time.Second)
	_, cmd := s.Update(keyPress(rune('a' + correct)))
	run(t, s, cmd)

	if s.phase != phaseFeedback {
		t.Fatalf("phase = %d, want feedback", s.phase)
	}
	if s.feedback.Submission.Outcome != state.Correct {
		t.Errorf("outcome = %q", s.feedback.Submission.Outcome)
	}
	if sum := s.Summary(); sum.Answered != 1 || sum.Correct != 1 {
		t.Errorf("summary = %+v", sum)
	}
}
