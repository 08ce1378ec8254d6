package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/timestables/internal/ui/theme"
)

// ChoiceLabels are the keys shown next to each option.
var ChoiceLabels = []string{"A", "B", "C", "D"}

// ChoiceList is a lettered answer picker. Options are chosen with A-D,
// 1-4, or the arrows plus Enter.
type ChoiceList struct {
	Options  []string
	Cursor   int
	Chosen   int // -1 until a choice is made
	Revealed bool
	Correct  int // index shown as correct once revealed
}

func NewChoiceList(options []string) ChoiceList {
	return ChoiceList{Options: options, Chosen: -1, Correct: -1}
}

// Update moves the cursor or records a choice. picked is true on the
// message that made the choice.
func (c ChoiceList) Update(msg tea.Msg) (ChoiceList, bool) {
	if c.Chosen >= 0 {
		return c, false
	}
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return c, false
	}

	key := strings.ToLower(kmsg.String())
	switch key {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
		return c, false
	case "down", "j":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
		return c, false
	case "enter":
		c.Chosen = c.Cursor
		return c, true
	}

	if idx := choiceIndex(key); idx >= 0 && idx < len(c.Options) {
		c.Cursor, c.Chosen = idx, idx
		return c, true
	}
	return c, false
}

func choiceIndex(key string) int {
	if len(key) != 1 {
		return -1
	}
	switch ch := key[0]; {
	case ch >= 'a' && ch <= 'd':
		return int(ch - 'a')
	case ch >= '1' && ch <= '4':
		return int(ch - '1')
	}
	return -1
}

// Reveal marks the correct option for the feedback view.
func (c ChoiceList) Reveal(correct int) ChoiceList {
	c.Revealed = true
	c.Correct = correct
	return c
}

// Reset clears the choice so the same options can be answered again.
func (c ChoiceList) Reset() ChoiceList {
	c.Chosen, c.Revealed, c.Correct = -1, false, -1
	return c
}

func (c ChoiceList) View() string {
	var b strings.Builder
	for i, opt := range c.Options {
		label := "?"
		if i < len(ChoiceLabels) {
			label = ChoiceLabels[i]
		}
		prefix := "  "
		if i == c.Cursor && !c.Revealed {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, label, opt)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case c.Revealed && i == c.Correct:
			style = theme.Correct
		case c.Revealed && i == c.Chosen:
			style = theme.Incorrect
		case c.Revealed:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == c.Cursor:
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
