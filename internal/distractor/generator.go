// Package distractor builds the wrong answers shown next to the correct
// one. Several pluggable strategies each contribute a weighted share of
// candidates; a random-offset fallback tops the set up when they fall
// short.
package distractor

import (
	"context"
	"math"

	"github.com/abhisek/timestables/internal/catalog"
	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/logger"
	"github.com/abhisek/timestables/internal/rng"
)

// Needed is the number of distractors per question.
const Needed = 3

// Choice is one answer option.
type Choice struct {
	Value   int
	Correct bool
}

// Request describes the question distractors are generated for.
type Request struct {
	Fact       catalog.Fact
	StageType  config.StageType
	Mode       config.LearningMode
	MaxOperand int
}

// Option configures a Generator.
type Option func(*Generator)

// WithStrategy registers an additional strategy. It participates only if
// the configuration enables it by name.
func WithStrategy(s Strategy) Option {
	return func(g *Generator) { g.strategies = append(g.strategies, s) }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// Generator runs the weighted strategy ensemble.
type Generator struct {
	cfg        config.DistractorConfig
	src        *rng.Source
	strategies []Strategy
	log        *logger.Logger
}

// New returns a generator with the default strategies plus any added via
// options.
func New(cfg config.DistractorConfig, src *rng.Source, opts ...Option) *Generator {
	g := &Generator{
		cfg:        cfg,
		src:        src,
		strategies: DefaultStrategies(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// MaxValue returns the upper bound used for a catalog whose largest
// operand is maxOperand.
func (g *Generator) MaxValue(maxOperand int) int {
	if g.cfg.MaxValue > 0 {
		return g.cfg.MaxValue
	}
	return maxOperand*maxOperand + maxOperand
}

type share struct {
	strategy Strategy
	count    int
}

// shares normalizes enabled weights and converts them to candidate counts.
func (g *Generator) shares() []share {
	var total float64
	for _, s := range g.strategies {
		if sc, ok := g.cfg.Strategies[s.Name()]; ok && sc.Enabled && sc.Weight > 0 {
			total += sc.Weight
		}
	}
	if total == 0 {
		return nil
	}

	var out []share
	for _, s := range g.strategies {
		sc, ok := g.cfg.Strategies[s.Name()]
		if !ok || !sc.Enabled || sc.Weight <= 0 {
			continue
		}
		n := int(math.Round(sc.Weight / total * Needed))
		if sc.MaxContribution > 0 && n > sc.MaxContribution {
			n = sc.MaxContribution
		}
		if n == 0 {
			continue
		}
		out = append(out, share{strategy: s, count: n})
	}
	return out
}

// Generate returns the correct answer plus up to Needed distinct
// distractors in random order. Exactly one choice is flagged correct.
// When too few valid values exist the result has fewer than four choices.
func (g *Generator) Generate(ctx context.Context, req Request) []Choice {
	correct := req.Fact.Answer()
	c := &Context{
		Fact:       req.Fact,
		Correct:    correct,
		StageType:  req.StageType,
		Mode:       req.Mode,
		MaxOperand: req.MaxOperand,
		MinValue:   g.cfg.MinValue,
		MaxValue:   g.MaxValue(req.MaxOperand),
		Used:       map[int]bool{correct: true},
	}

	var pool []int
	for _, sh := range g.shares() {
		cands := g.filter(c, sh.strategy.Generate(ctx, c))
		g.src.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
		if len(cands) > sh.count {
			cands = cands[:sh.count]
		}
		pool = append(pool, cands...)
	}

	pool = g.filter(c, pool)
	g.src.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > Needed {
		pool = pool[:Needed]
	}
	for _, v := range pool {
		c.Used[v] = true
	}

	if len(pool) < Needed {
		pool = append(pool, g.offsetFallback(c, Needed-len(pool))...)
	}
	if len(pool) < Needed {
		pool = append(pool, g.rangeFallback(c, Needed-len(pool))...)
	}
	if len(pool) < Needed {
		g.log.Debug("distractor shortfall", "fact", req.Fact.ID, "have", len(pool))
	}

	choices := make([]Choice, 0, len(pool)+1)
	choices = append(choices, Choice{Value: correct, Correct: true})
	for _, v := range pool {
		choices = append(choices, Choice{Value: v})
	}
	g.src.Shuffle(len(choices), func(i, j int) { choices[i], choices[j] = choices[j], choices[i] })
	return choices
}

// filter drops out-of-range, used and repeated values, keeping order.
func (g *Generator) filter(c *Context, vals []int) []int {
	seen := make(map[int]bool, len(vals))
	out := make([]int, 0, len(vals))
	for _, v := range vals {
		if !c.Valid(v) || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// offsetFallback tries small random offsets from the correct answer.
func (g *Generator) offsetFallback(c *Context, want int) []int {
	span := g.cfg.FallbackMaxOffset
	if span <= 0 {
		return nil
	}
	var out []int
	for i := 0; i < g.cfg.FallbackAttempts && len(out) < want; i++ {
		off := g.src.IntN(2*span+1) - span
		if off == 0 {
			continue
		}
		v := c.Correct + off
		if c.Valid(v) {
			c.Used[v] = true
			out = append(out, v)
		}
	}
	return out
}

// rangeFallback draws single candidates from the whole valid range, a
// bounded number of times.
func (g *Generator) rangeFallback(c *Context, want int) []int {
	width := c.MaxValue - c.MinValue + 1
	if width <= 0 {
		return nil
	}
	var out []int
	for i := 0; i < g.cfg.FallbackAttempts && len(out) < want; i++ {
		v := c.MinValue + g.src.IntN(width)
		if c.Valid(v) {
			c.Used[v] = true
			out = append(out, v)
		}
	}
	return out
}
