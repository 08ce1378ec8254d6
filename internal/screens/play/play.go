// Package play is the practice screen: it asks the orchestrator for
// questions, runs the countdown and reports answers back.
package play

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/timestables/internal/clock"
	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/events"
	"github.com/abhisek/timestables/internal/progression"
	"github.com/abhisek/timestables/internal/question"
	"github.com/abhisek/timestables/internal/router"
	"github.com/abhisek/timestables/internal/screen"
	"github.com/abhisek/timestables/internal/screens/summary"
	"github.com/abhisek/timestables/internal/session"
	"github.com/abhisek/timestables/internal/state"
	"github.com/abhisek/timestables/internal/ui/components"
	"github.com/abhisek/timestables/internal/ui/layout"
)

// Engine is the part of the orchestrator the screen drives.
type Engine interface {
	GetNextQuestion(ctx context.Context) (*question.Question, error)
	StartQuestion(q *question.Question)
	SubmitAnswer(ctx context.Context, q *question.Question, sub question.Submission) (progression.Feedback, error)
	Subscribe(h events.Handler) (unsubscribe func())
	Stages() config.StageList
}

type phase int

const (
	phaseLoading phase = iota
	phaseQuestion
	phaseSubmitting
	phaseFeedback
	phaseIdle
)

const (
	tickInterval = time.Second
	// idlePoll is how long to wait before asking again when every fact is
	// cooling down.
	idlePoll = 3 * time.Second
)

// PlayScreen implements screen.Screen for a practice run.
type PlayScreen struct {
	engine      Engine
	clk         clock.Clock
	tally       *session.Tally
	unsubscribe func()

	phase     phase
	q         *question.Question
	choices   components.ChoiceList
	startedAt time.Time
	remaining time.Duration
	feedback  progression.Feedback
	banners   []string

	confirmQuit bool
	errMsg      string
}

var _ screen.Screen = (*PlayScreen)(nil)
var _ screen.KeyHintProvider = (*PlayScreen)(nil)

func New(engine Engine, clk clock.Clock) *PlayScreen {
	return &PlayScreen{
		engine: engine,
		clk:    clk,
		tally:  session.NewTally(engine.Stages(), clk.Now()),
	}
}

func (s *PlayScreen) Init() tea.Cmd {
	if s.unsubscribe == nil {
		s.unsubscribe = s.engine.Subscribe(s.tally.Handle)
	}
	return s.nextQuestion()
}

func (s *PlayScreen) Title() string {
	return "Practice"
}

// Summary snapshots the run so far.
func (s *PlayScreen) Summary() session.Summary {
	return s.tally.Summary(s.clk.Now())
}

func (s *PlayScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.confirmQuit:
		return []layout.KeyHint{
			{Key: "Y", Description: "Finish"},
			{Key: "N", Description: "Keep going"},
		}
	case s.phase == phaseFeedback:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	case s.phase == phaseQuestion:
		return []layout.KeyHint{
			{Key: "A-D", Description: "Answer"},
			{Key: "S", Description: "Skip"},
			{Key: "Esc", Description: "Finish"},
		}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Finish"}}
}

func (s *PlayScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case questionMsg:
		return s.handleQuestion(msg)
	case answeredMsg:
		return s.handleAnswered(msg)
	case timerTickMsg:
		return s.handleTick(msg)
	case feedbackDoneMsg:
		if s.phase == phaseFeedback && s.q != nil && msg.QuestionID == s.q.ID {
			return s.advance()
		}
		return s, nil
	case pollMsg:
		if s.phase == phaseIdle {
			s.phase = phaseLoading
			return s, s.nextQuestion()
		}
		return s, nil
	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *PlayScreen) nextQuestion() tea.Cmd {
	engine := s.engine
	return func() tea.Msg {
		q, err := engine.GetNextQuestion(context.Background())
		return questionMsg{Question: q, Err: err}
	}
}

func (s *PlayScreen) submit(sub question.Submission) tea.Cmd {
	engine, q := s.engine, s.q
	s.phase = phaseSubmitting
	return func() tea.Msg {
		fb, err := engine.SubmitAnswer(context.Background(), q, sub)
		return answeredMsg{Question: q, Feedback: fb, Err: err}
	}
}

func tick(questionID string) tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return timerTickMsg{QuestionID: questionID}
	})
}

func (s *PlayScreen) handleQuestion(msg questionMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	if msg.Question == nil {
		s.phase = phaseIdle
		return s, tea.Tick(idlePoll, func(time.Time) tea.Msg { return pollMsg{} })
	}
	return s.present(msg.Question)
}

// present shows q and starts its countdown.
func (s *PlayScreen) present(q *question.Question) (screen.Screen, tea.Cmd) {
	s.q = q
	s.engine.StartQuestion(q)
	s.phase = phaseQuestion
	s.banners = nil

	options := make([]string, len(q.Choices))
	for i, c := range q.Choices {
		options[i] = strconv.Itoa(c.Value)
	}
	s.choices = components.NewChoiceList(options)

	s.startedAt = s.clk.Now()
	s.remaining = q.TimeLimit
	if !q.Timed() {
		return s, nil
	}
	return s, tick(q.ID)
}

func (s *PlayScreen) handleTick(msg timerTickMsg) (screen.Screen, tea.Cmd) {
	if s.phase != phaseQuestion || s.q == nil || msg.QuestionID != s.q.ID || !s.q.Timed() {
		return s, nil
	}
	s.remaining = s.q.TimeLimit - s.clk.Now().Sub(s.startedAt)
	if s.remaining > 0 {
		return s, tick(s.q.ID)
	}
	// A quit prompt does not stop the clock.
	s.confirmQuit = false
	s.remaining = 0
	return s, s.submit(question.Submission{
		Outcome: state.TimedOut,
		Elapsed: s.q.TimeLimit,
	})
}

func (s *PlayScreen) handleAnswered(msg answeredMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	if s.q == nil || msg.Question != s.q {
		return s, nil
	}

	s.tally.Answer(msg.Question, msg.Feedback)
	s.feedback = msg.Feedback
	s.banners = describe(s.tally.TakeRecent())
	s.choices = s.choices.Reveal(s.correctIndex())
	s.phase = phaseFeedback

	id := s.q.ID
	delay := msg.Feedback.Delay
	if delay <= 0 {
		return s, nil
	}
	return s, tea.Tick(delay, func(time.Time) tea.Msg { return feedbackDoneMsg{QuestionID: id} })
}

// advance leaves the feedback pause: the same question again on a retry,
// otherwise the next one.
func (s *PlayScreen) advance() (screen.Screen, tea.Cmd) {
	if s.feedback.Retry {
		q := s.q
		s.q = nil
		return s.present(q)
	}
	s.phase = phaseLoading
	return s, s.nextQuestion()
}

func (s *PlayScreen) finish() (screen.Screen, tea.Cmd) {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	sum := s.Summary()
	return s, func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: summary.New(sum)}
	}
}

func (s *PlayScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		if s.unsubscribe != nil {
			s.unsubscribe()
			s.unsubscribe = nil
		}
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			return s.finish()
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	switch s.phase {
	case phaseFeedback:
		return s.advance()

	case phaseQuestion:
		switch key {
		case "esc":
			s.confirmQuit = true
			return s, nil
		case "s", "S":
			return s, s.submit(question.Submission{
				Outcome: state.Skipped,
				Elapsed: s.elapsed(),
			})
		}
		var picked bool
		s.choices, picked = s.choices.Update(msg)
		if !picked {
			return s, nil
		}
		value := s.q.Choices[s.choices.Chosen].Value
		return s, s.submit(question.Submission{
			Value:   value,
			Outcome: s.q.Classify(value, false),
			Elapsed: s.elapsed(),
		})

	case phaseIdle, phaseLoading:
		if key == "esc" {
			return s.finish()
		}
	}
	return s, nil
}

func (s *PlayScreen) elapsed() time.Duration {
	return s.clk.Now().Sub(s.startedAt)
}

func (s *PlayScreen) correctIndex() int {
	for i, c := range s.q.Choices {
		if c.Correct {
			return i
		}
	}
	return -1
}

// describe turns progression events into one-line banners.
func describe(evs []events.Event) []string {
	var out []string
	for _, e := range evs {
		switch e := e.(type) {
		case events.IndividualFactProgression:
			if e.Bulk {
				continue
			}
			out = append(out, fmt.Sprintf("%s: %s → %s", e.FactID, e.FromStage, e.ToStage))
		case events.BulkPromotion:
			out = append(out, fmt.Sprintf("%d facts in %s moved up together!", len(e.FactIDs), e.FactSetID))
		case events.FactSetReviewReady:
			out = append(out, fmt.Sprintf("%s is ready for review", e.FactSetID))
		case events.FactSetCompletion:
			out = append(out, fmt.Sprintf("%s mastered!", e.FactSetID))
		case events.DifficultyChanged:
			out = append(out, fmt.Sprintf("Difficulty: %s → %s", e.FromID, e.ToID))
		}
	}
	return out
}
