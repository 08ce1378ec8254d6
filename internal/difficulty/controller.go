// Package difficulty maps a rolling accuracy window to one of an ordered
// list of difficulty levels.
package difficulty

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/state"
)

// ErrNoLevels is returned by New when no difficulty levels are configured.
var ErrNoLevels = errors.New("difficulty: no difficulty levels defined")

// ChangeFunc observes a difficulty switch.
type ChangeFunc func(from, to config.Difficulty, fromIndex, toIndex int, accuracy float64)

// Controller holds the active difficulty level.
type Controller struct {
	mu         sync.RWMutex
	levels     []config.Difficulty
	current    int
	minAnswers int
	onChange   ChangeFunc
}

// New builds a controller over levels, ordered by ascending MinAccuracy.
// The lowest level starts active. Update is a no-op until at least
// minAnswers recent answers are supplied.
func New(levels []config.Difficulty, minAnswers int) (*Controller, error) {
	if len(levels) == 0 {
		return nil, ErrNoLevels
	}
	sorted := make([]config.Difficulty, len(levels))
	copy(sorted, levels)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinAccuracy < sorted[j].MinAccuracy
	})
	return &Controller{levels: sorted, minAnswers: minAnswers}, nil
}

// Current returns the active level.
func (c *Controller) Current() config.Difficulty {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.levels[c.current]
}

// Index returns the active level's position in ascending order.
func (c *Controller) Index() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Levels returns the levels in ascending order.
func (c *Controller) Levels() []config.Difficulty {
	out := make([]config.Difficulty, len(c.levels))
	copy(out, c.levels)
	return out
}

// OnChange registers fn to run after every level switch.
func (c *Controller) OnChange(fn ChangeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// SetCurrent activates the level with the given ID.
func (c *Controller) SetCurrent(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, l := range c.levels {
		if l.ID == id {
			c.current = i
			return nil
		}
	}
	return fmt.Errorf("difficulty: unknown level %q", id)
}

// Update recomputes the level from recent answers and reports whether it
// changed. Fewer than the minimum number of answers leaves it unchanged,
// as does an accuracy below every level's threshold.
func (c *Controller) Update(recent []state.AnswerRecord) bool {
	c.mu.Lock()
	target, accuracy, ok := c.target(recent)
	if !ok {
		c.mu.Unlock()
		return false
	}

	from, fromIndex := c.levels[c.current], c.current
	c.current = target
	to := c.levels[target]
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(from, to, fromIndex, target, accuracy)
	}
	return true
}

// Restore starts over at the lowest level and then applies recent answers
// the way Update does, without notifying the OnChange hook.
func (c *Controller) Restore(recent []state.AnswerRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = 0
	if target, _, ok := c.target(recent); ok {
		c.current = target
	}
}

// Reset activates the lowest level without notifying the OnChange hook.
func (c *Controller) Reset() {
	c.Restore(nil)
}

// target returns the level recent answers select when it differs from the
// active one. Callers hold c.mu.
func (c *Controller) target(recent []state.AnswerRecord) (int, float64, bool) {
	accuracy, total := Accuracy(recent)
	if total < c.minAnswers || total == 0 {
		return 0, accuracy, false
	}
	target := -1
	for i, l := range c.levels {
		if l.MinAccuracy <= accuracy {
			target = i
		}
	}
	if target < 0 || target == c.current {
		return 0, accuracy, false
	}
	return target, accuracy, true
}

// Accuracy returns correct/total over graded answers and the graded count.
// Skipped answers are not graded; timeouts count as incorrect.
func Accuracy(recent []state.AnswerRecord) (float64, int) {
	var correct, total int
	for _, a := range recent {
		if !a.Answer.Progresses() {
			continue
		}
		total++
		if a.Answer.IsCorrect() {
			correct++
		}
	}
	if total == 0 {
		return 0, 0
	}
	return float64(correct) / float64(total), total
}
