// Package events defines the progression engine's domain events and a
// small synchronous publish/subscribe bus.
package events

import (
	"time"

	"github.com/abhisek/timestables/internal/state"
)

// Kind identifies an event type.
type Kind string

const (
	KindIndividualFactProgression Kind = "individual_fact_progression"
	KindBulkPromotion             Kind = "bulk_promotion"
	KindFactSetReviewReady        Kind = "fact_set_review_ready"
	KindFactSetCompletion         Kind = "fact_set_completion"
	KindDifficultyChanged         Kind = "difficulty_changed"
)

// Event is any domain event.
type Event interface {
	Kind() Kind
	OccurredAt() time.Time
}

// IndividualFactProgression is emitted whenever a single fact changes stage.
type IndividualFactProgression struct {
	FactID    string
	FactSetID string
	FromStage string
	ToStage   string
	Trigger   state.Outcome
	// Streak is the streak value that triggered the change.
	Streak int
	// Bulk is set when the change is part of a bulk promotion.
	Bulk bool
	At   time.Time
}

func (e IndividualFactProgression) Kind() Kind            { return KindIndividualFactProgression }
func (e IndividualFactProgression) OccurredAt() time.Time { return e.At }

// BulkPromotion is emitted once after a whole fact-set/stage cohort has
// been promoted together.
type BulkPromotion struct {
	FactSetID string
	FromStage string
	FactIDs   []string
	At        time.Time
}

func (e BulkPromotion) Kind() Kind            { return KindBulkPromotion }
func (e BulkPromotion) OccurredAt() time.Time { return e.At }

// FactSetReviewReady is emitted when no fact of a set remains below the
// first known stage.
type FactSetReviewReady struct {
	FactSetID string
	At        time.Time
}

func (e FactSetReviewReady) Kind() Kind            { return KindFactSetReviewReady }
func (e FactSetReviewReady) OccurredAt() time.Time { return e.At }

// FactSetCompletion is emitted when every fact of a set is fully learned.
type FactSetCompletion struct {
	FactSetID string
	At        time.Time
}

func (e FactSetCompletion) Kind() Kind            { return KindFactSetCompletion }
func (e FactSetCompletion) OccurredAt() time.Time { return e.At }

// DifficultyChanged is emitted when the difficulty controller switches level.
type DifficultyChanged struct {
	FromID    string
	ToID      string
	FromIndex int
	ToIndex   int
	Accuracy  float64
	At        time.Time
}

func (e DifficultyChanged) Kind() Kind            { return KindDifficultyChanged }
func (e DifficultyChanged) OccurredAt() time.Time { return e.At }
