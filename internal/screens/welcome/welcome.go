// Package welcome is the first-run splash followed by a one-question
// tutorial that does not touch the learner's progress.
package welcome

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/timestables/internal/catalog"
	"github.com/abhisek/timestables/internal/progression"
	"github.com/abhisek/timestables/internal/question"
	"github.com/abhisek/timestables/internal/router"
	"github.com/abhisek/timestables/internal/screen"
	"github.com/abhisek/timestables/internal/state"
	"github.com/abhisek/timestables/internal/ui/components"
	"github.com/abhisek/timestables/internal/ui/layout"
	"github.com/abhisek/timestables/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	phase1End    = 500 * time.Millisecond
	phase2End    = 1500 * time.Millisecond
	totalDur     = 2500 * time.Millisecond
)

const mascotArt = `  ╭───────────╮
  │  ┌─────┐  │
  │  │ ◉ ◉ │  │
  │  │  ▽  │  │
  │  ├─────┤  │
  │  │ 2×5 │  │
  │  └─────┘  │
  ╰───────────╯`

var sparkleFrames = []string{"★", "✦"}

// tutorialFact is the fact used for the practice question.
var tutorialFact = catalog.Fact{ID: catalog.FactID(2, 5), A: 2, B: 5, Text: catalog.FactText(2, 5)}

// Tutor builds and grades the tutorial question. The orchestrator
// satisfies it.
type Tutor interface {
	MockQuestion(ctx context.Context, fact catalog.Fact) *question.Question
	SubmitAnswer(ctx context.Context, q *question.Question, sub question.Submission) (progression.Feedback, error)
}

type tickMsg time.Time

type tutorialGradedMsg struct {
	Feedback progression.Feedback
	Err      error
}

type stage int

const (
	stageSplash stage = iota
	stageTutorial
	stageGraded
)

// WelcomeScreen plays the splash animation, then the tutorial question,
// then replaces itself with the home screen.
type WelcomeScreen struct {
	homeFactory  func() screen.Screen
	tutor        Tutor
	elapsed      time.Duration
	tickCount    int
	stage        stage
	q            *question.Question
	choices      components.ChoiceList
	feedback     progression.Feedback
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)
var _ screen.KeyHintProvider = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen. A nil tutor skips the tutorial.
func New(homeFactory func() screen.Screen, tutor Tutor) *WelcomeScreen {
	return &WelcomeScreen{homeFactory: homeFactory, tutor: tutor}
}

func (w *WelcomeScreen) Title() string {
	if w.stage == stageSplash {
		return ""
	}
	return "How to play"
}

func (w *WelcomeScreen) KeyHints() []layout.KeyHint {
	switch w.stage {
	case stageTutorial:
		return []layout.KeyHint{{Key: "A-D", Description: "Answer"}}
	default:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	}
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return nextTick()
}

func nextTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if w.stage != stageSplash {
			return w, nil
		}
		if w.elapsed < totalDur {
			w.elapsed += tickInterval
		}
		w.tickCount++
		return w, nextTick()

	case tutorialGradedMsg:
		if msg.Err != nil {
			return w, w.transition()
		}
		w.feedback = msg.Feedback
		w.choices = w.choices.Reveal(w.correctIndex())
		w.stage = stageGraded
		return w, nil

	case tea.KeyPressMsg:
		switch w.stage {
		case stageSplash:
			if w.elapsed < totalDur {
				w.elapsed = totalDur
				return w, nil
			}
			return w, w.startTutorial()
		case stageTutorial:
			var picked bool
			w.choices, picked = w.choices.Update(msg)
			if picked {
				return w, w.grade()
			}
			return w, nil
		case stageGraded:
			return w, w.transition()
		}
	}
	return w, nil
}

func (w *WelcomeScreen) startTutorial() tea.Cmd {
	if w.tutor == nil {
		return w.transition()
	}
	q := w.tutor.MockQuestion(context.Background(), tutorialFact)
	if q == nil || len(q.Choices) == 0 {
		return w.transition()
	}
	w.q = q
	options := make([]string, len(q.Choices))
	for i, c := range q.Choices {
		options[i] = strconv.Itoa(c.Value)
	}
	w.choices = components.NewChoiceList(options)
	w.stage = stageTutorial
	return nil
}

func (w *WelcomeScreen) grade() tea.Cmd {
	tutor, q := w.tutor, w.q
	value := q.Choices[w.choices.Chosen].Value
	return func() tea.Msg {
		fb, err := tutor.SubmitAnswer(context.Background(), q, question.Submission{
			Value:   value,
			Outcome: q.Classify(value, false),
		})
		return tutorialGradedMsg{Feedback: fb, Err: err}
	}
}

func (w *WelcomeScreen) correctIndex() int {
	for i, c := range w.q.Choices {
		if c.Correct {
			return i
		}
	}
	return -1
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	homeScreen := w.homeFactory()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: homeScreen}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	if w.stage != stageSplash {
		return w.renderTutorial(width, height)
	}

	var sections []string
	rendered := lipgloss.NewStyle().Foreground(theme.Primary).Render(mascotArt)

	if w.elapsed >= phase1End {
		sparkle := sparkleFrames[w.tickCount%len(sparkleFrames)]
		s1 := lipgloss.NewStyle().Foreground(theme.Accent).Render(sparkle)
		s2 := lipgloss.NewStyle().Foreground(theme.Secondary).Render(sparkle)

		lines := strings.Split(rendered, "\n")
		for _, i := range []int{0, 3, 6} {
			if i < len(lines) {
				lines[i] = s1 + "  " + lines[i] + "  " + s2
				s1, s2 = s2, s1
			}
		}
		rendered = strings.Join(lines, "\n")
	}
	sections = append(sections, rendered)

	if w.elapsed >= phase2End {
		sections = append(sections,
			"",
			RenderBanner(width),
			"",
			lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render("Every table, one fact at a time."),
			"",
			lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).Render("press any key to continue"),
		)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}

func (w *WelcomeScreen) renderTutorial(width, height int) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	sections := []string{
		dim.Render("Each question shows a fact and four answers."),
		dim.Render("Press the letter (or number) of your answer. This one is just practice."),
		"",
		theme.Card.Render(theme.Title.Render(w.q.Text + " = ?")),
		"",
		w.choices.View(),
	}

	if w.stage == stageGraded {
		if w.feedback.Submission.Outcome == state.Correct {
			sections = append(sections, theme.Correct.Render("That's it! You're ready."))
		} else {
			sections = append(sections,
				theme.Incorrect.Render(fmt.Sprintf("Close! %s = %d.", w.q.Text, w.feedback.CorrectValue)),
				dim.Render("Wrong answers just mean you'll see a fact again sooner."))
		}
		sections = append(sections, "", dim.Italic(true).Render("press any key to start"))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}
