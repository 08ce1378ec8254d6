package play

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/timestables/internal/state"
	"github.com/abhisek/timestables/internal/ui/layout"
	"github.com/abhisek/timestables/internal/ui/theme"
)

func (s *PlayScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return centered(width, lipgloss.NewStyle().Foreground(theme.Error),
			fmt.Sprintf("\n\n\nError: %s\n\nPress any key to go back.", s.errMsg))
	case s.confirmQuit:
		return renderQuitConfirm(width)
	}

	switch s.phase {
	case phaseLoading:
		return centered(width, lipgloss.NewStyle().Foreground(theme.TextDim), "\n\n\nPicking a question...")
	case phaseIdle:
		return centered(width, lipgloss.NewStyle().Foreground(theme.TextDim),
			"\n\n\nNothing is due right now.\nWaiting for the next fact to come around...")
	}
	return s.renderQuestion(width)
}

func (s *PlayScreen) renderQuestion(width int) string {
	if s.q == nil {
		return ""
	}
	sum := s.Summary()

	var b strings.Builder

	stage := lipgloss.NewStyle().Foreground(theme.StageColor(s.q.Stage.Type)).Bold(true).
		Render("  " + s.q.Stage.ID)
	stats := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("%s %d/%d  %s", lipgloss.NewStyle().Foreground(theme.Success).Render("✓"),
			sum.Correct, sum.Answered, s.timerText()))
	gap := width - lipgloss.Width(stage) - lipgloss.Width(stats) - 4
	b.WriteString(stage)
	if gap > 0 {
		b.WriteString(strings.Repeat(" ", gap) + stats)
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	b.WriteString(layout.Center(theme.Card.Render(theme.Title.Render(s.q.Text+" = ?")), width))
	b.WriteString("\n\n")
	b.WriteString(layout.Center(s.choices.View(), width))
	b.WriteString("\n")

	if s.phase == phaseFeedback {
		b.WriteString(s.renderFeedback(width))
	} else if s.phase == phaseQuestion {
		b.WriteString(centered(width, theme.Hint, "Press A-D (or 1-4) to answer, S to skip"))
	}
	return b.String()
}

func (s *PlayScreen) timerText() string {
	if s.q == nil || !s.q.Timed() {
		return ""
	}
	secs := int(s.remaining.Seconds() + 0.999)
	style := lipgloss.NewStyle().Foreground(theme.Accent)
	if secs <= 3 {
		style = style.Foreground(theme.Error).Bold(true)
	}
	return style.Render(fmt.Sprintf("⏱ %ds", secs))
}

func (s *PlayScreen) renderFeedback(width int) string {
	fb := s.feedback
	var b strings.Builder

	switch fb.Submission.Outcome {
	case state.Correct:
		b.WriteString(centered(width, theme.Correct, "Correct!"))
	case state.TimedOut:
		b.WriteString(centered(width, theme.Incorrect, "Out of time"))
	case state.Skipped:
		b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.TextDim), "Skipped"))
	default:
		b.WriteString(centered(width, theme.Incorrect, "Not quite"))
	}
	b.WriteString("\n")
	if fb.Submission.Outcome != state.Correct {
		b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Text),
			fmt.Sprintf("%s = %d", s.q.Text, fb.CorrectValue)))
		b.WriteString("\n")
	}
	if fb.Retry {
		b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Secondary), "Let's try that one again."))
		b.WriteString("\n")
	}

	for _, banner := range s.banners {
		b.WriteString("\n")
		b.WriteString(centered(width, theme.Banner, banner))
	}
	b.WriteString("\n\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.TextDim), "Press any key to continue..."))
	return b.String()
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Text).Bold(true), "Finish practicing?"))
	b.WriteString("\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.TextDim), "Your progress is already saved."))
	b.WriteString("\n\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Success), "[Y] Yes, show my summary"))
	b.WriteString("\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Primary), "[N] No, keep going"))
	return b.String()
}

func centered(width int, style lipgloss.Style, text string) string {
	return style.Width(width).Align(lipgloss.Center).Render(text)
}
