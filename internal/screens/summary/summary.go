package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/timestables/internal/router"
	"github.com/abhisek/timestables/internal/screen"
	"github.com/abhisek/timestables/internal/session"
	"github.com/abhisek/timestables/internal/ui/layout"
	"github.com/abhisek/timestables/internal/ui/theme"
)

// SummaryScreen shows the tally of a finished practice run.
type SummaryScreen struct {
	summary session.Summary
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

func New(summary session.Summary) *SummaryScreen {
	return &SummaryScreen{summary: summary}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Practice Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		switch kmsg.String() {
		case "enter", "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	center := func(style lipgloss.Style, text string) string {
		return style.Width(width).Align(lipgloss.Center).Render(text)
	}

	var b strings.Builder
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true), "Practice complete!"))
	b.WriteString("\n\n")

	mins := int(sum.Duration.Minutes())
	secs := int(sum.Duration.Seconds()) % 60
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim), fmt.Sprintf("Duration: %d:%02d", mins, secs)))
	b.WriteString("\n\n")

	if sum.Answered == 0 {
		b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Text), "No questions answered this time."))
		return b.String()
	}

	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Text),
		fmt.Sprintf("Answered: %d      Correct: %d      Accuracy: %.0f%%",
			sum.Answered, sum.Correct, sum.Accuracy()*100)))
	b.WriteString("\n")
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim),
		fmt.Sprintf("Wrong: %d   Too slow: %d   Skipped: %d", sum.Incorrect, sum.TimedOut, sum.Skipped)))
	b.WriteString("\n\n")

	moves := fmt.Sprintf("Moved up: %d   Moved back: %d", sum.Promotions, sum.Demotions)
	if sum.BulkPromotions > 0 {
		moves += fmt.Sprintf("   Fast-tracked: %d", sum.BulkPromotions)
	}
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Secondary), moves))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))
	b.WriteString(layout.Center(lipgloss.NewStyle().Foreground(theme.TextDim).Render("Tables"), width))
	b.WriteString("\n")
	b.WriteString(layout.Center(divider, width))
	b.WriteString("\n")

	for _, set := range sum.Sets {
		line := fmt.Sprintf("%-14s %2d/%-2d correct", set.FactSetID, set.Correct, set.Answered)
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if set.Promoted > 0 {
			line += fmt.Sprintf("   +%d", set.Promoted)
			style = style.Foreground(theme.Success)
		}
		b.WriteString(layout.Center(style.Render(line), width))
		b.WriteString("\n")
	}

	var milestones []string
	for _, id := range sum.ReviewReady {
		milestones = append(milestones, fmt.Sprintf("%s is ready for review", id))
	}
	for _, id := range sum.Completed {
		milestones = append(milestones, fmt.Sprintf("%s mastered!", id))
	}
	for _, d := range sum.DifficultyChanges {
		milestones = append(milestones, fmt.Sprintf("Difficulty %s → %s", d.From, d.To))
	}
	if len(milestones) > 0 {
		b.WriteString("\n")
		for _, m := range milestones {
			b.WriteString(center(theme.Banner, m))
			b.WriteString("\n")
		}
	}

	return b.String()
}
