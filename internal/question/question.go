// Package question turns a selected fact and stage into a presentable
// multiple-choice question.
package question

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/timestables/internal/catalog"
	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/distractor"
	"github.com/abhisek/timestables/internal/state"
)

// Question is one presented fact with its answer choices.
type Question struct {
	ID           string
	FactID       string
	FactSetID    string
	Text         string
	Choices      []distractor.Choice
	CorrectValue int
	// TimeLimit is 0 for untimed stages.
	TimeLimit time.Duration
	Mode      config.LearningMode
	Stage     config.LearningStage
	// IsMock marks tutorial questions that never touch learner state.
	IsMock      bool
	PresentedAt *time.Time
	CompletedAt *time.Time
}

// Timed reports whether the question has a time limit.
func (q *Question) Timed() bool {
	return q.TimeLimit > 0
}

// Classify maps a chosen value and whether the timer ran out to an outcome.
func (q *Question) Classify(value int, timedOut bool) state.Outcome {
	switch {
	case timedOut:
		return state.TimedOut
	case value == q.CorrectValue:
		return state.Correct
	default:
		return state.Incorrect
	}
}

// Submission is the host's report of how a question was answered.
type Submission struct {
	// Value is the chosen answer; ignored for skipped and timed-out outcomes.
	Value   int
	Outcome state.Outcome
	Elapsed time.Duration
}

// Factory builds questions.
type Factory struct {
	distractors *distractor.Generator
	maxOperand  int
}

// NewFactory returns a factory. maxOperand is the catalog's largest
// operand; it bounds distractor values.
func NewFactory(gen *distractor.Generator, maxOperand int) *Factory {
	return &Factory{distractors: gen, maxOperand: maxOperand}
}

// CreateQuestionForStage builds a question for fact at stage.
func (f *Factory) CreateQuestionForStage(ctx context.Context, fact catalog.Fact, stage config.LearningStage) *Question {
	mode := stage.Type.Mode()
	choices := f.distractors.Generate(ctx, distractor.Request{
		Fact:       fact,
		StageType:  stage.Type,
		Mode:       mode,
		MaxOperand: f.maxOperand,
	})
	return &Question{
		ID:           uuid.NewString(),
		FactID:       fact.ID,
		FactSetID:    fact.FactSetID,
		Text:         fact.Text,
		Choices:      choices,
		CorrectValue: fact.Answer(),
		TimeLimit:    stage.TimeLimit(),
		Mode:         mode,
		Stage:        stage,
	}
}

// MockQuestion builds an untimed practice question that the orchestrator
// accepts without recording progress.
func (f *Factory) MockQuestion(ctx context.Context, fact catalog.Fact) *Question {
	stage := config.LearningStage{ID: "mock", Type: config.StagePracticeSlow}
	q := f.CreateQuestionForStage(ctx, fact, stage)
	q.IsMock = true
	return q
}
