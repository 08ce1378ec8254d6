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
	"github.com/abhisek/timestables/internal/ui/layout"
	"github.com/abhisek/timestables/internal/ui/theme"
)

// SetDetailScreen breaks one fact set down by stage.
type SetDetailScreen struct {
	set    progression.FactSetProgress
	stages config.StageList
}

var _ screen.Screen = (*SetDetailScreen)(nil)
var _ screen.KeyHintProvider = (*SetDetailScreen)(nil)

func newSetDetail(set progression.FactSetProgress, stages config.StageList) *SetDetailScreen {
	return &SetDetailScreen{set: set, stages: stages}
}

func (d *SetDetailScreen) Init() tea.Cmd { return nil }
func (d *SetDetailScreen) Title() string { return d.set.Name }

func (d *SetDetailScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		switch kmsg.String() {
		case "esc", "q", "enter":
			return d, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return d, nil
}

func (d *SetDetailScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
}

func (d *SetDetailScreen) View(width, height int) string {
	set := d.set
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).
		Render(fmt.Sprintf("  %s", set.Name)))
	b.WriteString("\n")

	status := fmt.Sprintf("  %d facts", set.Total)
	switch {
	case set.Completed:
		status += "  ·  mastered"
	case set.ReviewReady:
		status += "  ·  ready for review"
	}
	b.WriteString(dim.Render(status))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render("  Stages"))
	b.WriteString("\n")
	for _, st := range d.stages.All() {
		n := set.ByStage[st.ID]
		swatch := lipgloss.NewStyle().Background(theme.StageColor(st.Type)).Render("  ")
		style := dim
		if n > 0 {
			style = lipgloss.NewStyle().Foreground(theme.Text)
		}
		b.WriteString(fmt.Sprintf("  %s %s", swatch,
			style.Render(fmt.Sprintf("%-16s %3d  %s", st.ID, n, percent(n, set.Total)))))
		b.WriteString("\n")
	}

	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, "\n"+b.String())
}
