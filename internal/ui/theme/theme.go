// Package theme holds the shared lipgloss palette and styles.
package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/timestables/internal/config"
)

var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#0EA5E9") // Sky
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E")
	Error     = lipgloss.Color("#EF4444")
	Text      = lipgloss.Color("#F8FAFC")
	TextDim   = lipgloss.Color("#94A3B8")
	BgCard    = lipgloss.Color("#1E293B")
	Border    = lipgloss.Color("#334155")
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	// Card frames the question text.
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 4)

	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	// Banner highlights progression events after an answer.
	Banner = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)

// StageColor gives each stage type a stable color for progress bars and
// badges.
func StageColor(t config.StageType) color.Color {
	switch t {
	case config.StageAssessment:
		return lipgloss.Color("#64748B")
	case config.StageGrounding:
		return lipgloss.Color("#A855F7")
	case config.StagePracticeSlow:
		return lipgloss.Color("#F97316")
	case config.StagePracticeFast:
		return Accent
	case config.StageReview:
		return Secondary
	case config.StageRepetition:
		return lipgloss.Color("#14B8A6")
	case config.StageMastered:
		return Success
	}
	return Border
}
