package history

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/timestables/internal/events"
	"github.com/abhisek/timestables/internal/router"
	"github.com/abhisek/timestables/internal/store"
)

func seeded(t *testing.T) *store.Memory {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()
	at := time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)
	data := []store.ProgressEventData{
		{LearnerID: "kid", Kind: string(events.KindIndividualFactProgression), FactID: "2x3", FromStage: "assessment", ToStage: "practice-slow"},
		{LearnerID: "kid", Kind: string(events.KindFactSetReviewReady), FactSetID: "table-2"},
		{LearnerID: "other", Kind: string(events.KindFactSetCompletion), FactSetID: "table-9"},
		{LearnerID: "kid", Kind: string(events.KindDifficultyChanged), FromStage: "gentle", ToStage: "steady"},
	}
	for i, d := range data {
		d.Timestamp = at.Add(time.Duration(i) * time.Minute)
		if err := mem.AppendProgressEvent(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	return mem
}

func TestHistoryScreen_NewestFirst(t *testing.T) {
	s := New(seeded(t), "kid")
	s.Update(s.Init()())

	if len(s.entries) != 3 {
		t.Fatalf("entries = %d, want 3 (other learners excluded)", len(s.entries))
	}
	view := s.View(100, 20)
	diff := strings.Index(view, "difficulty gentle → steady")
	fact := strings.Index(view, "assessment → practice-slow")
	if diff < 0 || fact < 0 {
		t.Fatalf("view missing entries:\n%s", view)
	}
	if diff > fact {
		t.Error("newest event should be listed first")
	}
	if strings.Contains(view, "table-9") {
		t.Error("another learner's event leaked in")
	}
}

func TestHistoryScreen_Empty(t *testing.T) {
	s := New(store.NewMemory(), "kid")
	s.Update(s.Init()())
	if !strings.Contains(s.View(80, 20), "Nothing yet") {
		t.Error("expected empty message")
	}
}

func TestHistoryScreen_KeepsNewest(t *testing.T) {
	mem := store.NewMemory()
	for i := 0; i < maxEntries+5; i++ {
		_ = mem.AppendProgressEvent(context.Background(), store.ProgressEventData{
			LearnerID: "kid", Kind: string(events.KindFactSetReviewReady), FactSetID: fmt.Sprintf("set-%d", i),
		})
	}
	s := New(mem, "kid")
	s.Update(s.Init()())
	if len(s.entries) != maxEntries {
		t.Fatalf("entries = %d", len(s.entries))
	}
	if got := s.entries[0].FactSetID; got != fmt.Sprintf("set-%d", maxEntries+4) {
		t.Errorf("first entry = %s", got)
	}
}

func TestHistoryScreen_Back(t *testing.T) {
	s := New(store.NewMemory(), "kid")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("esc should pop")
	}
}
