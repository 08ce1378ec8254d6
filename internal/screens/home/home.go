// Package home is the main menu with a dashboard of the learner's
// progress.
package home

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/timestables/internal/clock"
	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/progression"
	"github.com/abhisek/timestables/internal/router"
	"github.com/abhisek/timestables/internal/screen"
	"github.com/abhisek/timestables/internal/screens/history"
	"github.com/abhisek/timestables/internal/screens/play"
	"github.com/abhisek/timestables/internal/screens/progress"
	"github.com/abhisek/timestables/internal/store"
	"github.com/abhisek/timestables/internal/ui/components"
	"github.com/abhisek/timestables/internal/ui/layout"
)

// Engine is everything the screens reachable from home need from the
// orchestrator.
type Engine interface {
	play.Engine
	progress.Source
	Difficulty() (config.Difficulty, int)
}

// Deps are the home screen's collaborators.
type Deps struct {
	Engine Engine
	Clock  clock.Clock
	// EventLog backs the history screen; nil hides it.
	EventLog  store.EventLog
	LearnerID string
}

// Stats is the dashboard summary.
type Stats struct {
	FactsKnown  int
	FactsTotal  int
	ReviewReady int
	Mastered    int
}

type statsMsg struct {
	stats Stats
	err   error
}

// HomeScreen is the main home screen of the application.
type HomeScreen struct {
	deps  Deps
	menu  components.Menu
	stats Stats
	err   error
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)
var _ screen.Resumer = (*HomeScreen)(nil)

func New(deps Deps) *HomeScreen {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	h := &HomeScreen{deps: deps}

	items := []components.MenuItem{
		{Label: "PRACTICE", Key: "p", Action: func() tea.Cmd {
			return push(play.New(deps.Engine, deps.Clock))
		}},
		{Label: "PROGRESS", Key: "g", Action: func() tea.Cmd {
			return push(progress.New(deps.Engine))
		}},
		{Label: "HISTORY", Key: "h", Disabled: deps.EventLog == nil, Action: func() tea.Cmd {
			return push(history.New(deps.EventLog, deps.LearnerID))
		}},
		{Label: "QUIT", Key: "q", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}
	h.menu = components.NewMenu(items)
	return h
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadStats()
}

// Resume refreshes the dashboard after a practice run.
func (h *HomeScreen) Resume() tea.Cmd {
	return h.loadStats()
}

func (h *HomeScreen) loadStats() tea.Cmd {
	src := h.deps.Engine
	return func() tea.Msg {
		sets, err := src.FactSetProgress()
		if err != nil {
			return statsMsg{err: err}
		}
		return statsMsg{stats: computeStats(sets, src.Stages())}
	}
}

func computeStats(sets []progression.FactSetProgress, stages config.StageList) Stats {
	known := make(map[string]bool)
	for _, st := range stages.All() {
		known[st.ID] = st.IsKnownFact
	}

	var s Stats
	for _, set := range sets {
		s.FactsTotal += set.Total
		for id, n := range set.ByStage {
			if known[id] {
				s.FactsKnown += n
			}
		}
		if set.ReviewReady {
			s.ReviewReady++
		}
		if set.Completed {
			s.Mastered++
		}
	}
	return s
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(statsMsg); ok {
		h.stats, h.err = msg.stats, msg.err
		return h, nil
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Q", Description: "Quit"},
	}
}

func (h *HomeScreen) View(width, height int) string {
	compact := height < 26 || width < 80
	cw := contentWidth(width)

	variant := MascotIdle
	switch {
	case h.err != nil:
		variant = MascotAlert
	case h.stats.Mastered > 0:
		variant = MascotCelebrating
	}

	var sections []string
	sections = append(sections, renderTitle(cw, compact))
	if !compact {
		sections = append(sections, renderMascotBox(variant, cw))
	}
	level, _ := h.deps.Engine.Difficulty()
	sections = append(sections, renderStatsBar(h.stats, level.Name, cw, compact))

	labels := make([]string, len(h.menu.Items))
	disabled := make(map[int]bool)
	for i, item := range h.menu.Items {
		labels[i] = item.Label
		disabled[i] = item.Disabled
	}
	if compact {
		sections = append(sections, renderArcadeMenuCompact(labels, h.menu.Selected, cw, disabled))
	} else {
		sections = append(sections, renderArcadeMenu(labels, h.menu.Selected, cw, disabled))
	}

	return renderCabinetFrame(strings.Join(sections, "\n\n"), width, height)
}
