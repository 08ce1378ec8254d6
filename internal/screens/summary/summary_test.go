package summary

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/timestables/internal/router"
	"github.com/abhisek/timestables/internal/session"
)

func testSummary() session.Summary {
	return session.Summary{
		Duration:   4*time.Minute + 5*time.Second,
		Answered:   12,
		Correct:    9,
		Incorrect:  2,
		TimedOut:   1,
		Promotions: 4,
		Demotions:  1,
		Sets: []session.SetResult{
			{FactSetID: "table-2", Answered: 7, Correct: 6, Promoted: 3},
			{FactSetID: "table-3", Answered: 5, Correct: 3},
		},
		ReviewReady:       []string{"table-2"},
		DifficultyChanges: []session.DifficultyChange{{From: "gentle", To: "steady", Accuracy: 0.8}},
	}
}

func TestSummaryScreen_Title(t *testing.T) {
	s := New(testSummary())
	if s.Title() != "Practice Summary" {
		t.Errorf("Title = %q, want %q", s.Title(), "Practice Summary")
	}
}

func TestSummaryScreen_Display(t *testing.T) {
	view := New(testSummary()).View(80, 24)
	for _, want := range []string{"4:05", "Accuracy: 75%", "table-2", "table-3", "ready for review", "gentle → steady"} {
		if !strings.Contains(view, want) {
			t.Errorf("summary view missing %q", want)
		}
	}
}

func TestSummaryScreen_Empty(t *testing.T) {
	view := New(session.Summary{}).View(80, 24)
	if !strings.Contains(view, "No questions answered") {
		t.Errorf("expected empty-run message, got:\n%s", view)
	}
}

func TestSummaryScreen_Navigation(t *testing.T) {
	for _, key := range []tea.KeyPressMsg{{Code: tea.KeyEnter}, {Code: tea.KeyEscape}} {
		s := New(testSummary())
		_, cmd := s.Update(key)
		if cmd == nil {
			t.Fatalf("expected a command on %q", key.String())
		}
		if _, ok := cmd().(router.PopScreenMsg); !ok {
			t.Errorf("%q should pop back home", key.String())
		}
	}
}

func TestSummaryScreen_KeyHints(t *testing.T) {
	if hints := New(testSummary()).KeyHints(); len(hints) != 2 {
		t.Errorf("KeyHints length = %d, want 2", len(hints))
	}
}
