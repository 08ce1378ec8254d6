package config

import (
	"sort"
	"time"
)

// StageType classifies a learning stage.
type StageType string

const (
	StageAssessment   StageType = "assessment"
	StageGrounding    StageType = "grounding"
	StagePracticeSlow StageType = "practice_slow"
	StagePracticeFast StageType = "practice_fast"
	StageReview       StageType = "review"
	StageRepetition   StageType = "repetition"
	StageMastered     StageType = "mastered"
)

// AllStageTypes returns every stage type in progression order.
func AllStageTypes() []StageType {
	return []StageType{
		StageAssessment,
		StageGrounding,
		StagePracticeSlow,
		StagePracticeFast,
		StageReview,
		StageRepetition,
		StageMastered,
	}
}

// Valid reports whether t is a known stage type.
func (t StageType) Valid() bool {
	for _, known := range AllStageTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// LearningMode is how a question is presented, derived from the stage type.
type LearningMode string

const (
	ModeAssessment LearningMode = "assessment"
	ModeGrounding  LearningMode = "grounding"
	ModePractice   LearningMode = "practice"
)

// Mode returns the learning mode for questions asked at this stage type.
func (t StageType) Mode() LearningMode {
	switch t {
	case StageAssessment:
		return ModeAssessment
	case StageGrounding:
		return ModeGrounding
	default:
		return ModePractice
	}
}

// LearningStage is one position in the learning progression.
type LearningStage struct {
	ID             string    `mapstructure:"id"`
	Order          int       `mapstructure:"order"`
	Type           StageType `mapstructure:"type"`
	IsKnownFact    bool      `mapstructure:"is_known_fact"`
	IsFullyLearned bool      `mapstructure:"is_fully_learned"`
	// TimerSeconds is the answer time limit; 0 means untimed.
	TimerSeconds float64 `mapstructure:"timer_seconds"`
	// ReviewDelayMinutes is the base re-ask delay for review stages.
	ReviewDelayMinutes float64 `mapstructure:"review_delay_minutes"`
	// RepetitionDelayDays is the base re-ask delay for repetition stages.
	RepetitionDelayDays float64 `mapstructure:"repetition_delay_days"`
}

// TimeLimit returns the answer time limit, or 0 if the stage is untimed.
func (s LearningStage) TimeLimit() time.Duration {
	if s.TimerSeconds <= 0 {
		return 0
	}
	return time.Duration(s.TimerSeconds * float64(time.Second))
}

// ReinforcementDelay returns the base re-ask delay for review and
// repetition stages, and 0 for every other stage type.
func (s LearningStage) ReinforcementDelay() time.Duration {
	switch s.Type {
	case StageReview:
		return time.Duration(s.ReviewDelayMinutes * float64(time.Minute))
	case StageRepetition:
		return time.Duration(s.RepetitionDelayDays * 24 * float64(time.Hour))
	default:
		return 0
	}
}

// IsReinforcement reports whether the stage re-asks on a delay schedule.
func (s LearningStage) IsReinforcement() bool {
	return s.Type == StageReview || s.Type == StageRepetition
}

// StageList is an immutable, order-sorted view over the configured stages.
type StageList struct {
	stages []LearningStage
	index  map[string]int
}

// NewStageList sorts stages by ascending Order and indexes them by ID.
func NewStageList(stages []LearningStage) StageList {
	sorted := make([]LearningStage, len(stages))
	copy(sorted, stages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	idx := make(map[string]int, len(sorted))
	for i, s := range sorted {
		idx[s.ID] = i
	}
	return StageList{stages: sorted, index: idx}
}

// All returns the stages in ascending order.
func (l StageList) All() []LearningStage {
	out := make([]LearningStage, len(l.stages))
	copy(out, l.stages)
	return out
}

// Len returns the number of stages.
func (l StageList) Len() int { return len(l.stages) }

// At returns the stage at position i.
func (l StageList) At(i int) LearningStage { return l.stages[i] }

// First returns the lowest-order stage.
func (l StageList) First() LearningStage {
	if len(l.stages) == 0 {
		return LearningStage{}
	}
	return l.stages[0]
}

// Last returns the highest-order stage.
func (l StageList) Last() LearningStage {
	if len(l.stages) == 0 {
		return LearningStage{}
	}
	return l.stages[len(l.stages)-1]
}

// Get looks up a stage by ID.
func (l StageList) Get(id string) (LearningStage, bool) {
	i, ok := l.index[id]
	if !ok {
		return LearningStage{}, false
	}
	return l.stages[i], true
}

// Position returns the index of the stage in ascending order, or -1.
func (l StageList) Position(id string) int {
	if i, ok := l.index[id]; ok {
		return i
	}
	return -1
}

// Resolve looks up a stage by ID and falls back to the first stage when the
// ID is unknown, so state written against an older stage config still loads.
func (l StageList) Resolve(id string) LearningStage {
	if s, ok := l.Get(id); ok {
		return s
	}
	return l.First()
}

// IsKnown reports whether the stage with the given ID is a known-fact stage.
func (l StageList) IsKnown(id string) bool {
	s, ok := l.Get(id)
	return ok && s.IsKnownFact
}

// IsFullyLearned reports whether the stage with the given ID is terminal.
func (l StageList) IsFullyLearned(id string) bool {
	s, ok := l.Get(id)
	return ok && s.IsFullyLearned
}
