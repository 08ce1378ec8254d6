package home

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/timestables/internal/ui/theme"
)

// MascotVariant selects which mascot art to display.
type MascotVariant int

const (
	MascotIdle        MascotVariant = iota
	MascotCelebrating               // a fact set is mastered
	MascotAlert                     // progress could not be loaded
)

const mascotIdle = `┌─────┐
│ ◉ ◉ │
│  ▽  │
│ 2×5 │
└─────┘`

const mascotCelebrating = `┌─────┐
│ ★ ★ │
│  ▿  │
│ 2×5 │
└─╥═╥─┘
  ╚═╝`

const mascotAlert = `┌─────┐
│ ◉ ◉ │ !
│  ▽  │
│ 2×5 │
└─────┘`

// RenderMascot returns the mascot art for variant.
func RenderMascot(variant MascotVariant) string {
	art, fg := mascotIdle, theme.Primary
	switch variant {
	case MascotCelebrating:
		art, fg = mascotCelebrating, theme.Accent
	case MascotAlert:
		art, fg = mascotAlert, theme.Error
	}
	return lipgloss.NewStyle().Foreground(fg).Render(art)
}
