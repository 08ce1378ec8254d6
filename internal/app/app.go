// Package app is the root Bubble Tea model: it owns the router and draws
// the frame around the active screen.
package app

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/timestables/internal/clock"
	"github.com/abhisek/timestables/internal/router"
	"github.com/abhisek/timestables/internal/screen"
	"github.com/abhisek/timestables/internal/screens/home"
	"github.com/abhisek/timestables/internal/screens/welcome"
	"github.com/abhisek/timestables/internal/store"
	"github.com/abhisek/timestables/internal/ui/layout"
)

// Engine is what the screens need from the orchestrator, including the
// tutorial.
type Engine interface {
	home.Engine
	welcome.Tutor
}

// Options configure the TUI.
type Options struct {
	Engine    Engine
	Clock     clock.Clock
	EventLog  store.EventLog
	LearnerID string
	// Welcome starts with the splash and tutorial instead of home.
	Welcome bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	engine Engine
	width  int
	height int
}

func newAppModel(opts Options) AppModel {
	newHome := func() screen.Screen {
		return home.New(home.Deps{
			Engine:    opts.Engine,
			Clock:     opts.Clock,
			EventLog:  opts.EventLog,
			LearnerID: opts.LearnerID,
		})
	}

	var first screen.Screen
	if opts.Welcome {
		first = welcome.New(newHome, opts.Engine)
	} else {
		first = newHome()
	}
	return AppModel{router: router.New(first), engine: opts.Engine}
}

func (m AppModel) Init() tea.Cmd {
	if s := m.router.Active(); s != nil {
		return s.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m AppModel) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.status(), m.width)
	footer := layout.RenderFooter(m.hints(active), m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// status is the header's right side: the difficulty level.
func (m AppModel) status() string {
	if m.engine == nil {
		return ""
	}
	level, idx := m.engine.Difficulty()
	return fmt.Sprintf("%s (%d) ", level.Name, idx+1)
}

func (m AppModel) hints(active screen.Screen) []layout.KeyHint {
	var hints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		hints = p.KeyHints()
	} else if m.router.Depth() > 1 {
		hints = []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	return err
}
