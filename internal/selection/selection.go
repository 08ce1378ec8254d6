// Package selection picks the next fact and stage to ask.
package selection

import (
	"sort"
	"time"

	"github.com/abhisek/timestables/internal/catalog"
	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/rng"
	"github.com/abhisek/timestables/internal/state"
)

// Selection is the outcome of SelectNextFact.
type Selection struct {
	Fact  catalog.Fact
	Stage config.LearningStage
	Item  *state.FactItem
	// FromKnownPool reports which pool the fact was drawn from.
	FromKnownPool bool
}

// Service implements the fact selection algorithm.
type Service struct {
	catalog *catalog.Catalog
	stages  config.StageList
	cfg     config.SelectionConfig
	rng     *rng.Source
}

// New creates a selection service.
func New(cat *catalog.Catalog, stages config.StageList, cfg config.SelectionConfig, src *rng.Source) *Service {
	return &Service{catalog: cat, stages: stages, cfg: cfg, rng: src}
}

// RandomizedInterval spreads base by ±25% using a fact's jitter in [0, 1).
// With randomization disabled it returns base unchanged.
func RandomizedInterval(base time.Duration, jitter float64, enabled bool) time.Duration {
	if !enabled {
		return base
	}
	return time.Duration(float64(base) * (0.75 + 0.5*jitter))
}

// UpdateLastAskedTime stamps the presentation time and draws a fresh
// jitter factor for the fact.
func (s *Service) UpdateLastAskedTime(item *state.FactItem, now time.Time) {
	item.MarkAsked(now)
	item.RandomFactor = s.rng.Float64()
}

// SelectNextFact returns the next fact to ask, or nil when nothing is
// eligible right now.
func (s *Service) SelectNextFact(st *state.StudentState, d config.Difficulty, now time.Time) *Selection {
	p := s.Pools(st, d, now)
	if len(p.Known) == 0 && len(p.Unknown) == 0 {
		return nil
	}

	useKnown := s.useKnownPool(st, d, p)
	pool := p.Unknown
	if useKnown {
		pool = p.Known
	}
	s.sortPool(pool, useKnown)

	item := pool[0]
	fact, _ := s.catalog.Fact(item.FactID)
	return &Selection{
		Fact:          fact,
		Stage:         s.stages.Resolve(item.StageID),
		Item:          item,
		FromKnownPool: useKnown,
	}
}

// useKnownPool decides which pool to draw from.
func (s *Service) useKnownPool(st *state.StudentState, d config.Difficulty, p Pools) bool {
	if len(p.Known) == 0 {
		return false
	}
	if len(p.Unknown) == 0 {
		return true
	}

	recent := st.RecentAnswers(s.cfg.RecentAnswersWindow)
	if len(recent) == 0 {
		return s.rng.Bool(0.5)
	}
	ratio := KnownRatio(recent)
	switch {
	case ratio < d.KnownFactMinRatio:
		return true
	case ratio > d.KnownFactMaxRatio:
		return false
	default:
		return s.rng.Bool(0.5)
	}
}

// KnownRatio returns the fraction of answers given on known facts.
func KnownRatio(recent []state.AnswerRecord) float64 {
	if len(recent) == 0 {
		return 0
	}
	known := 0
	for _, a := range recent {
		if a.WasKnownFact {
			known++
		}
	}
	return float64(known) / float64(len(recent))
}

// sortPool orders by fact-set order, then stage order, then (known pool
// only) next reinforcement time, then last-asked time with never-asked first.
func (s *Service) sortPool(pool []*state.FactItem, known bool) {
	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		if oa, ob := s.catalog.SetOrder(a.FactSetID), s.catalog.SetOrder(b.FactSetID); oa != ob {
			return oa < ob
		}
		if sa, sb := s.stages.Resolve(a.StageID).Order, s.stages.Resolve(b.StageID).Order; sa != sb {
			return sa < sb
		}
		if known {
			na, nb := s.nextReinforcement(a), s.nextReinforcement(b)
			if !na.Equal(nb) {
				return na.Before(nb)
			}
		}
		return askedBefore(a, b)
	})
}

func askedBefore(a, b *state.FactItem) bool {
	switch {
	case a.LastAskedTime == nil && b.LastAskedTime == nil:
		return false
	case a.LastAskedTime == nil:
		return true
	case b.LastAskedTime == nil:
		return false
	default:
		return a.LastAskedTime.Before(*b.LastAskedTime)
	}
}

// nextReinforcement returns when a known fact's reinforcement cooldown
// ends. Never-asked facts and stages without a delay return the zero time.
func (s *Service) nextReinforcement(item *state.FactItem) time.Time {
	if item.LastAskedTime == nil {
		return time.Time{}
	}
	delay := s.stages.Resolve(item.StageID).ReinforcementDelay()
	if delay <= 0 {
		return time.Time{}
	}
	return item.LastAskedTime.Add(RandomizedInterval(delay, item.RandomFactor, s.cfg.RandomizeIntervals))
}

// inGeneralCooldown reports whether the minimum question interval since
// the last ask has not yet elapsed.
func (s *Service) inGeneralCooldown(item *state.FactItem, now time.Time) bool {
	if item.LastAskedTime == nil {
		return false
	}
	interval := RandomizedInterval(s.cfg.MinQuestionInterval(), item.RandomFactor, s.cfg.RandomizeIntervals)
	return now.Sub(*item.LastAskedTime) < interval
}

// inReinforcementCooldown reports whether a known fact's stage delay has
// not yet elapsed.
func (s *Service) inReinforcementCooldown(item *state.FactItem, now time.Time) bool {
	next := s.nextReinforcement(item)
	return !next.IsZero() && now.Before(next)
}
