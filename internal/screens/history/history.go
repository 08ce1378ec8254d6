// Package history lists a learner's recorded progression events, newest
// first.
package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/timestables/internal/events"
	"github.com/abhisek/timestables/internal/router"
	"github.com/abhisek/timestables/internal/screen"
	"github.com/abhisek/timestables/internal/store"
	"github.com/abhisek/timestables/internal/ui/layout"
	"github.com/abhisek/timestables/internal/ui/theme"
)

// maxEntries bounds how many of the newest events are shown.
const maxEntries = 200

type historyLoadedMsg struct {
	Events []store.ProgressEventData
	Err    error
}

// HistoryScreen displays recorded progression events.
type HistoryScreen struct {
	log       store.EventLog
	learnerID string
	entries   []store.ProgressEventData
	offset    int
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

func New(log store.EventLog, learnerID string) *HistoryScreen {
	return &HistoryScreen{log: log, learnerID: learnerID}
}

func (s *HistoryScreen) Init() tea.Cmd {
	log, id := s.log, s.learnerID
	return func() tea.Msg {
		evs, err := log.ProgressEvents(context.Background(), id, store.QueryOpts{})
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		if len(evs) > maxEntries {
			evs = evs[len(evs)-maxEntries:]
		}
		newest := make([]store.ProgressEventData, len(evs))
		for i, e := range evs {
			newest[len(evs)-1-i] = e
		}
		return historyLoadedMsg{Events: newest}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.entries = msg.Events
		}
		s.loaded = true
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.offset > 0 {
				s.offset--
			}
		case "down", "j":
			if s.offset < len(s.entries)-1 {
				s.offset++
			}
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.entries) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  Nothing yet. Start practicing!")
	}

	var b strings.Builder
	b.WriteString("\n")
	rows := max(height-2, 1)
	for i := s.offset; i < len(s.entries) && i < s.offset+rows; i++ {
		e := s.entries[i]
		when := lipgloss.NewStyle().Foreground(theme.TextDim).Render(e.Timestamp.Local().Format("Jan 02 15:04"))
		text, style := describe(e)
		b.WriteString("  " + when + "  " + style.Render(text))
		b.WriteString("\n")
	}
	return b.String()
}

func describe(e store.ProgressEventData) (string, lipgloss.Style) {
	plain := lipgloss.NewStyle().Foreground(theme.Text)
	switch events.Kind(e.Kind) {
	case events.KindIndividualFactProgression:
		return fmt.Sprintf("%-8s %s → %s", e.FactID, e.FromStage, e.ToStage), plain
	case events.KindBulkPromotion:
		return fmt.Sprintf("%s: %d facts moved up from %s", e.FactSetID, e.FactCount, e.FromStage),
			lipgloss.NewStyle().Foreground(theme.Secondary)
	case events.KindFactSetReviewReady:
		return fmt.Sprintf("%s ready for review", e.FactSetID), lipgloss.NewStyle().Foreground(theme.Secondary)
	case events.KindFactSetCompletion:
		return fmt.Sprintf("%s mastered", e.FactSetID), theme.Correct
	case events.KindDifficultyChanged:
		return fmt.Sprintf("difficulty %s → %s", e.FromStage, e.ToStage), theme.Banner
	}
	return e.Kind, plain
}
