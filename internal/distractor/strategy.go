package distractor

import (
	"context"

	"github.com/abhisek/timestables/internal/catalog"
	"github.com/abhisek/timestables/internal/config"
)

// Strategy names as they appear in configuration.
const (
	NameFactorVariation = "factor-variation"
	NameCommonMistakes  = "common-mistakes"
	NameTableNeighbors  = "table-neighbors"
	NameLLM             = "llm"
)

// Strategy proposes wrong answers for a fact. Candidates may be out of
// range or repeat; the generator filters them.
type Strategy interface {
	Name() string
	Generate(ctx context.Context, c *Context) []int
}

// Context is what a strategy sees about the question being built.
type Context struct {
	Fact       catalog.Fact
	Correct    int
	StageType  config.StageType
	Mode       config.LearningMode
	MaxOperand int
	MinValue   int
	MaxValue   int
	// Used holds values already taken, including the correct answer.
	Used map[int]bool
}

// Valid reports whether v may be offered as a distractor.
func (c *Context) Valid(v int) bool {
	return v >= c.MinValue && v <= c.MaxValue && !c.Used[v]
}

// DefaultStrategies returns the rule-based strategies.
func DefaultStrategies() []Strategy {
	return []Strategy{
		FactorVariation{},
		CommonMistakes{},
		TableNeighbors{},
	}
}
