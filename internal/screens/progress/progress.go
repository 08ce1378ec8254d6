// Package progress shows every fact set as a bar of facts per learning
// stage.
package progress

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/progression"
	"github.com/abhisek/timestables/internal/router"
	"github.com/abhisek/timestables/internal/screen"
	"github.com/abhisek/timestables/internal/ui/components"
	"github.com/abhisek/timestables/internal/ui/layout"
	"github.com/abhisek/timestables/internal/ui/theme"
)

// Source supplies the per fact set summaries.
type Source interface {
	FactSetProgress() ([]progression.FactSetProgress, error)
	Stages() config.StageList
}

type loadedMsg struct {
	sets []progression.FactSetProgress
	err  error
}

// ProgressScreen lists fact sets with a stage bar each.
type ProgressScreen struct {
	src          Source
	stages       config.StageList
	sets         []progression.FactSetProgress
	err          error
	loaded       bool
	cursor       int
	scrollOffset int
}

var _ screen.Screen = (*ProgressScreen)(nil)
var _ screen.KeyHintProvider = (*ProgressScreen)(nil)
var _ screen.Resumer = (*ProgressScreen)(nil)

func New(src Source) *ProgressScreen {
	return &ProgressScreen{src: src, stages: src.Stages()}
}

func (s *ProgressScreen) Init() tea.Cmd {
	return s.load()
}

// Resume reloads after the detail screen closes.
func (s *ProgressScreen) Resume() tea.Cmd {
	return s.load()
}

func (s *ProgressScreen) load() tea.Cmd {
	src := s.src
	return func() tea.Msg {
		sets, err := src.FactSetProgress()
		return loadedMsg{sets: sets, err: err}
	}
}

func (s *ProgressScreen) Title() string {
	return "Progress"
}

func (s *ProgressScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Details"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ProgressScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loaded = true
		s.sets, s.err = msg.sets, msg.err
		if s.cursor >= len(s.sets) {
			s.cursor = max(len(s.sets)-1, 0)
		}
	case tea.KeyPressMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.sets)-1 {
				s.cursor++
			}
		case "enter":
			if s.cursor < len(s.sets) {
				detail := newSetDetail(s.sets[s.cursor], s.stages)
				return s, func() tea.Msg { return router.PushScreenMsg{Screen: detail} }
			}
		case "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *ProgressScreen) View(width, height int) string {
	switch {
	case s.err != nil:
		return lipgloss.NewStyle().Foreground(theme.Error).Padding(1, 2).
			Render("Could not load progress: " + s.err.Error())
	case !s.loaded:
		return lipgloss.NewStyle().Foreground(theme.TextDim).Padding(1, 2).Render("Loading...")
	case len(s.sets) == 0:
		return lipgloss.NewStyle().Foreground(theme.TextDim).Padding(1, 2).Render("No fact sets in the catalog.")
	}

	legend := s.renderLegend()
	rows := max(height-lipgloss.Height(legend)-1, 1)
	s.adjustScroll(rows)

	var lines []string
	for i := s.scrollOffset; i < len(s.sets) && i < s.scrollOffset+rows; i++ {
		lines = append(lines, s.renderRow(s.sets[i], i == s.cursor, width))
	}
	return legend + "\n" + strings.Join(lines, "\n")
}

func (s *ProgressScreen) adjustScroll(rows int) {
	if s.cursor < s.scrollOffset {
		s.scrollOffset = s.cursor
	}
	if s.cursor >= s.scrollOffset+rows {
		s.scrollOffset = s.cursor - rows + 1
	}
}

func (s *ProgressScreen) renderLegend() string {
	var parts []string
	for _, st := range s.stages.All() {
		swatch := lipgloss.NewStyle().Background(theme.StageColor(st.Type)).Render("  ")
		parts = append(parts, swatch+" "+lipgloss.NewStyle().Foreground(theme.TextDim).Render(st.ID))
	}
	return lipgloss.NewStyle().Padding(1, 2, 0, 2).Render(strings.Join(parts, "  "))
}

func (s *ProgressScreen) renderRow(p progression.FactSetProgress, selected bool, width int) string {
	cursor := "  "
	if selected {
		cursor = "▸ "
	}
	badge := "  "
	switch {
	case p.Completed:
		badge = lipgloss.NewStyle().Foreground(theme.Success).Render("★ ")
	case p.ReviewReady:
		badge = lipgloss.NewStyle().Foreground(theme.Secondary).Render("◆ ")
	}

	bar := components.StageBar{
		Label:    p.Name,
		Segments: segments(p, s.stages),
		Total:    p.Total,
		Width:    width - 8,
	}
	line := "  " + cursor + badge + bar.View()
	if selected {
		return lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(line)
	}
	return line
}

// segments orders a fact set's stage counts by stage order.
func segments(p progression.FactSetProgress, stages config.StageList) []components.Segment {
	out := make([]components.Segment, 0, stages.Len())
	for _, st := range stages.All() {
		if n := p.ByStage[st.ID]; n > 0 {
			out = append(out, components.Segment{Count: n, Color: theme.StageColor(st.Type)})
		}
	}
	return out
}

func percent(n, total int) string {
	if total == 0 {
		return "  0%"
	}
	return fmt.Sprintf("%3d%%", n*100/total)
}
