// Package session tallies one practice run: answers, stage moves and
// fact-set milestones, for the summary screen and the simulate command.
package session

import (
	"sort"
	"time"
)

// Summary is the result of a practice run.
type Summary struct {
	Started  time.Time
	Duration time.Duration

	Answered  int // every non-retry submission, skips included
	Correct   int
	Incorrect int
	TimedOut  int
	Skipped   int
	// Retries counts grounding answers that were sent back.
	Retries int

	Promotions     int
	Demotions      int
	BulkPromotions int

	ReviewReady []string // fact set IDs, in the order they became ready
	Completed   []string

	DifficultyChanges []DifficultyChange
	Sets              []SetResult
}

// DifficultyChange is one switch of difficulty level during the run.
type DifficultyChange struct {
	From, To string
	Accuracy float64
}

// SetResult is the per-fact-set breakdown.
type SetResult struct {
	FactSetID string
	Answered  int
	Correct   int
	Promoted  int
}

// Accuracy is correct over graded answers. Skips are not graded.
func (s Summary) Accuracy() float64 {
	graded := s.Answered - s.Skipped
	if graded <= 0 {
		return 0
	}
	return float64(s.Correct) / float64(graded)
}

func sortedSets(m map[string]*SetResult) []SetResult {
	out := make([]SetResult, 0, len(m))
	for _, r := range m {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FactSetID < out[j].FactSetID })
	return out
}
