package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/timestables/internal/screen"
)

type stubScreen struct {
	title   string
	inits   int
	resumed int
	got     []tea.Msg
}

func (s *stubScreen) Init() tea.Cmd { s.inits++; return nil }
func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.got = append(s.got, msg)
	return s, nil
}
func (s *stubScreen) View(int, int) string { return s.title }
func (s *stubScreen) Title() string        { return s.title }

type resumingScreen struct{ stubScreen }

func (s *resumingScreen) Resume() tea.Cmd { s.resumed++; return nil }

func TestPushRunsInit(t *testing.T) {
	r := New(&stubScreen{title: "home"})
	play := &stubScreen{title: "play"}
	r.Update(PushScreenMsg{Screen: play})

	if r.Depth() != 2 || r.Active().Title() != "play" {
		t.Fatalf("depth=%d active=%q", r.Depth(), r.Active().Title())
	}
	if play.inits != 1 {
		t.Errorf("Init ran %d times", play.inits)
	}
}

func TestPopResumesScreenBelow(t *testing.T) {
	home := &resumingScreen{stubScreen{title: "home"}}
	r := New(home)
	r.Push(&stubScreen{title: "play"})
	r.Update(PopScreenMsg{})

	if r.Depth() != 1 || r.Active().Title() != "home" {
		t.Fatalf("depth=%d active=%q", r.Depth(), r.Active().Title())
	}
	if home.resumed != 1 {
		t.Errorf("Resume ran %d times", home.resumed)
	}
}

func TestPopKeepsBottomScreen(t *testing.T) {
	r := New(&stubScreen{title: "home"})
	r.Pop()
	if r.Depth() != 1 {
		t.Fatalf("depth = %d", r.Depth())
	}
}

func TestReplaceSwapsTop(t *testing.T) {
	r := New(&stubScreen{title: "home"})
	r.Push(&stubScreen{title: "play"})
	summary := &stubScreen{title: "summary"}
	r.Update(ReplaceScreenMsg{Screen: summary})

	if r.Depth() != 2 || r.Active().Title() != "summary" {
		t.Fatalf("depth=%d active=%q", r.Depth(), r.Active().Title())
	}
	if summary.inits != 1 {
		t.Errorf("Init ran %d times", summary.inits)
	}
	r.Pop()
	if r.Active().Title() != "home" {
		t.Fatalf("popping the replacement should reveal home, got %q", r.Active().Title())
	}
}

func TestReplaceBottom(t *testing.T) {
	r := New(&stubScreen{title: "welcome"})
	r.Replace(&stubScreen{title: "home"})
	if r.Depth() != 1 || r.Active().Title() != "home" {
		t.Fatalf("depth=%d active=%q", r.Depth(), r.Active().Title())
	}
}

func TestUpdateForwardsToActive(t *testing.T) {
	home := &stubScreen{title: "home"}
	play := &stubScreen{title: "play"}
	r := New(home)
	r.Push(play)

	r.Update("tick")
	if len(play.got) != 1 || len(home.got) != 0 {
		t.Fatalf("play got %d, home got %d", len(play.got), len(home.got))
	}
	if r.View(10, 10) != "play" {
		t.Errorf("View = %q", r.View(10, 10))
	}
}
