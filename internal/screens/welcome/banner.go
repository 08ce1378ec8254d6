package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/timestables/internal/ui/theme"
)

const bannerArt = `
 ████████╗██╗███╗   ███╗███████╗███████╗
 ╚══██╔══╝██║████╗ ████║██╔════╝██╔════╝
    ██║   ██║██╔████╔██║█████╗  ███████╗
    ██║   ██║██║╚██╔╝██║██╔══╝  ╚════██║
    ██║   ██║██║ ╚═╝ ██║███████╗███████║
    ╚═╝   ╚═╝╚═╝     ╚═╝╚══════╝╚══════╝
          × T A B L E S ×`

const bannerCompact = "T I M E S  ×  T A B L E S"

// RenderBanner returns the banner in the primary color, or a one-line
// version below 44 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 44 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
