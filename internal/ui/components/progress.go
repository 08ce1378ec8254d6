package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/timestables/internal/ui/theme"
)

// Segment is one colored run of a StageBar.
type Segment struct {
	Count int
	Color color.Color
}

// StageBar draws a fact set's facts as proportional colored segments, one
// per learning stage.
type StageBar struct {
	Label    string
	Segments []Segment
	Total    int
	Width    int
}

func (p StageBar) View() string {
	var out string
	if p.Label != "" {
		out = lipgloss.NewStyle().Foreground(theme.Text).Width(18).Render(p.Label) + " "
	}

	barWidth := p.Width - lipgloss.Width(out) - 4
	if barWidth < 4 {
		barWidth = 4
	}

	used := 0
	for _, seg := range p.Segments {
		if p.Total <= 0 || seg.Count <= 0 {
			continue
		}
		w := max(seg.Count*barWidth/p.Total, 1)
		w = min(w, barWidth-used)
		if w <= 0 {
			break
		}
		out += lipgloss.NewStyle().Background(seg.Color).Render(strings.Repeat(" ", w))
		used += w
	}
	if used < barWidth {
		out += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-used))
	}

	return out + lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf(" %3d", p.Total))
}
