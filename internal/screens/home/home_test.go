package home

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/timestables/internal/clock"
	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/events"
	"github.com/abhisek/timestables/internal/progression"
	"github.com/abhisek/timestables/internal/question"
	"github.com/abhisek/timestables/internal/router"
	"github.com/abhisek/timestables/internal/store"
)

type fakeEngine struct {
	sets []progression.FactSetProgress
	err  error
}

func (f *fakeEngine) GetNextQuestion(context.Context) (*question.Question, error) { return nil, nil }
func (f *fakeEngine) StartQuestion(*question.Question)                           {}
func (f *fakeEngine) SubmitAnswer(context.Context, *question.Question, question.Submission) (progression.Feedback, error) {
	return progression.Feedback{}, nil
}
func (f *fakeEngine) Subscribe(events.Handler) func() { return func() {} }
func (f *fakeEngine) Stages() config.StageList        { return config.Default().StageList() }
func (f *fakeEngine) FactSetProgress() ([]progression.FactSetProgress, error) {
	return f.sets, f.err
}
func (f *fakeEngine) Difficulty() (config.Difficulty, int) {
	return config.Default().Difficulties[1], 1
}

func testEngine() *fakeEngine {
	return &fakeEngine{sets: []progression.FactSetProgress{
		{FactSetID: "table-2", Total: 10, ByStage: map[string]int{"review": 6, "mastered": 4}, ReviewReady: true},
		{FactSetID: "table-5", Total: 10, ByStage: map[string]int{"mastered": 10}, ReviewReady: true, Completed: true},
		{FactSetID: "table-3", Total: 10, ByStage: map[string]int{"assessment": 8, "practice-fast": 2}},
	}}
}

func newHome(eng Engine, log store.EventLog) *HomeScreen {
	h := New(Deps{Engine: eng, Clock: clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)), EventLog: log, LearnerID: "kid"})
	h.Update(h.Init()())
	return h
}

func TestComputeStats(t *testing.T) {
	s := computeStats(testEngine().sets, config.Default().StageList())
	want := Stats{FactsKnown: 20, FactsTotal: 30, ReviewReady: 2, Mastered: 1}
	if s != want {
		t.Errorf("stats = %+v, want %+v", s, want)
	}
}

func TestHomeScreen_View(t *testing.T) {
	h := newHome(testEngine(), store.NewMemory())
	view := h.View(100, 40)
	for _, want := range []string{"20/30 FACTS KNOWN", "PRACTICE", "PROGRESS", "Steady"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if h.View(60, 20) == "" {
		t.Error("compact view empty")
	}
}

func TestHomeScreen_MenuPushesScreens(t *testing.T) {
	tests := []struct {
		key   rune
		title string
	}{
		{'p', "Practice"},
		{'g', "Progress"},
		{'h', "History"},
	}
	for _, tt := range tests {
		h := newHome(testEngine(), store.NewMemory())
		_, cmd := h.Update(tea.KeyPressMsg{Code: tt.key, Text: string(tt.key)})
		if cmd == nil {
			t.Fatalf("%q: expected a command", tt.key)
		}
		push, ok := cmd().(router.PushScreenMsg)
		if !ok {
			t.Fatalf("%q: expected PushScreenMsg", tt.key)
		}
		if push.Screen.Title() != tt.title {
			t.Errorf("%q pushed %q, want %q", tt.key, push.Screen.Title(), tt.title)
		}
	}
}

func TestHomeScreen_HistoryDisabledWithoutLog(t *testing.T) {
	h := newHome(testEngine(), nil)
	if _, cmd := h.Update(tea.KeyPressMsg{Code: 'h', Text: "h"}); cmd != nil {
		t.Error("history should be disabled without an event log")
	}
}

func TestHomeScreen_ResumeRefreshes(t *testing.T) {
	eng := testEngine()
	h := newHome(eng, nil)
	eng.sets = eng.sets[:1]
	h.Update(h.Resume()())
	if h.stats.FactsTotal != 10 {
		t.Errorf("FactsTotal = %d after resume", h.stats.FactsTotal)
	}
}

func TestHomeScreen_LoadError(t *testing.T) {
	eng := &fakeEngine{err: errors.New("boom")}
	h := newHome(eng, nil)
	if h.err == nil {
		t.Fatal("expected the load error to be kept")
	}
	if h.View(100, 40) == "" {
		t.Error("view should still render")
	}
}
