package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/timestables/internal/ui/theme"
)

const arcadeTitleFull = ` ╔╦╗╦╔╦╗╔═╗╔═╗  ═╦═  ╔╦╗╔═╗╔╗ ╦  ╔═╗╔═╗
  ║ ║║║║║╣ ╚═╗   ║    ║ ╠═╣╠╩╗║  ║╣ ╚═╗
  ╩ ╩╩ ╩╚═╝╚═╝  ═╩═   ╩ ╩ ╩╚═╝╩═╝╚═╝╚═╝`

const arcadeTitleCompact = "T I M E S  ×  T A B L E S"

// contentWidth returns the inner width shared by every section so the
// boxes line up.
func contentWidth(frameWidth int) int {
	return min(max(frameWidth-6, 20), 60)
}

func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	title := arcadeTitleFull
	if compact || cw < lipgloss.Width(arcadeTitleFull) {
		title = arcadeTitleCompact
	}
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(style.Render(title))
}

func renderStatsBar(s Stats, level string, cw int, compact bool) string {
	knownStyle := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	reviewStyle := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	masteredStyle := lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
	levelStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	var stats string
	if compact {
		stats = fmt.Sprintf("%s %s %s %s",
			knownStyle.Render(fmt.Sprintf("✓%d/%d", s.FactsKnown, s.FactsTotal)),
			reviewStyle.Render(fmt.Sprintf("◆%d", s.ReviewReady)),
			masteredStyle.Render(fmt.Sprintf("★%d", s.Mastered)),
			levelStyle.Render(level),
		)
	} else {
		stats = fmt.Sprintf("%s  %s  %s\n%s",
			knownStyle.Render(fmt.Sprintf("✓ %d/%d FACTS KNOWN", s.FactsKnown, s.FactsTotal)),
			reviewStyle.Render(fmt.Sprintf("◆ %d IN REVIEW", s.ReviewReady)),
			masteredStyle.Render(fmt.Sprintf("★ %d MASTERED", s.Mastered)),
			levelStyle.Render("difficulty: "+level),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(stats)
}

// buttonWidth is the fixed width for menu buttons.
const buttonWidth = 22

func renderArcadeMenu(items []string, selected int, cw int, disabled map[int]bool) string {
	base := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	selectedBtn := base.
		Bold(true).
		Foreground(theme.BgCard).
		Background(theme.Accent).
		BorderForeground(theme.Accent)
	normalBtn := base.Foreground(theme.Text).BorderForeground(theme.Border)
	disabledBtn := base.Foreground(theme.TextDim).BorderForeground(theme.Border)

	var buttons []string
	for i, label := range items {
		switch {
		case disabled[i]:
			buttons = append(buttons, disabledBtn.Render(label))
		case i == selected:
			buttons = append(buttons, selectedBtn.Render("▸ "+label))
		default:
			buttons = append(buttons, normalBtn.Render(label))
		}
	}
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(strings.Join(buttons, "\n"))
}

// renderArcadeMenuCompact drops the button borders for small terminals.
func renderArcadeMenuCompact(items []string, selected int, cw int, disabled map[int]bool) string {
	var lines []string
	for i, label := range items {
		var line string
		switch {
		case disabled[i]:
			line = lipgloss.NewStyle().Foreground(theme.TextDim).Render("   " + label)
		case i == selected:
			line = lipgloss.NewStyle().
				Foreground(theme.BgCard).
				Background(theme.Accent).
				Bold(true).
				Render(" ▸ " + label + " ")
		default:
			line = lipgloss.NewStyle().Foreground(theme.Text).Render("   " + label)
		}
		lines = append(lines, line)
	}
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(strings.Join(lines, "\n"))
}

func renderMascotBox(variant MascotVariant, cw int) string {
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(RenderMascot(variant))
}

// renderCabinetFrame wraps content in a double border, centered both
// ways.
func renderCabinetFrame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Primary).
		Width(width - 2).
		Height(height - 2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
