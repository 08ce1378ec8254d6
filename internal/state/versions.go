package state

import "time"

// Frozen historical schemas. These shapes match what older builds wrote
// and must never change.

// Snapshot is any persisted schema variant.
type Snapshot interface {
	SchemaVersion() int
}

// StateV1 is the original schema: no stats, boolean answers and a single
// correct-answer streak.
type StateV1 struct {
	Version   int          `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	Facts     []FactItemV1 `json:"facts"`
	History   []AnswerV1   `json:"history"`
}

type FactItemV1 struct {
	FactID             string     `json:"fact_id"`
	FactSetID          string     `json:"fact_set_id"`
	StageID            string     `json:"stage_id"`
	LastAsked          *time.Time `json:"last_asked,omitempty"`
	ConsecutiveCorrect int        `json:"consecutive_correct"`
}

type AnswerV1 struct {
	FactID    string    `json:"fact_id"`
	StageID   string    `json:"stage_id"`
	Correct   bool      `json:"correct"`
	Timestamp time.Time `json:"timestamp"`
}

func (*StateV1) SchemaVersion() int { return 1 }

// StateV2 adds the incorrect streak, the outcome enum, answer fact sets
// and per-fact stats.
type StateV2 struct {
	Version   int                  `json:"version"`
	CreatedAt time.Time            `json:"created_at"`
	Stats     map[string]FactStats `json:"stats"`
	Facts     []FactItemV2         `json:"facts"`
	History   []AnswerV2           `json:"history"`
}

type FactItemV2 struct {
	FactID               string     `json:"fact_id"`
	FactSetID            string     `json:"fact_set_id"`
	StageID              string     `json:"stage_id"`
	LastAsked            *time.Time `json:"last_asked,omitempty"`
	ConsecutiveCorrect   int        `json:"consecutive_correct"`
	ConsecutiveIncorrect int        `json:"consecutive_incorrect"`
}

type AnswerV2 struct {
	FactID    string    `json:"fact_id"`
	FactSetID string    `json:"fact_set_id"`
	StageID   string    `json:"stage_id"`
	Answer    Outcome   `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

func (*StateV2) SchemaVersion() int { return 2 }

// StateV3 adds the per-fact jitter.
type StateV3 struct {
	Version   int                  `json:"version"`
	CreatedAt time.Time            `json:"created_at"`
	Stats     map[string]FactStats `json:"stats"`
	Facts     []FactItemV3         `json:"facts"`
	History   []AnswerV2           `json:"history"`
}

type FactItemV3 struct {
	FactID               string     `json:"fact_id"`
	FactSetID            string     `json:"fact_set_id"`
	StageID              string     `json:"stage_id"`
	LastAskedTime        *time.Time `json:"last_asked_time,omitempty"`
	ConsecutiveCorrect   int        `json:"consecutive_correct"`
	ConsecutiveIncorrect int        `json:"consecutive_incorrect"`
	RandomFactor         float64    `json:"random_factor"`
}

func (*StateV3) SchemaVersion() int { return 3 }
