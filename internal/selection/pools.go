package selection

import (
	"sort"
	"time"

	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/state"
)

// Pools is the partition of a learner's facts at one instant.
type Pools struct {
	// Known holds eligible facts at known stages.
	Known []*state.FactItem
	// Unknown is the working pool: eligible being-learned facts plus the
	// never-asked facts admitted into free learning slots.
	Unknown []*state.FactItem

	BeingLearned   int // asked, not known, not fully learned
	NeverAsked     int // never asked, not known
	NotAdmitted    int // never asked and left out for lack of slots
	CoolingDown    int // known or being-learned facts held back by a cooldown
	FullyLearned   int
	AvailableSlots int
}

// Pools partitions the learner's facts for difficulty d at now.
func (s *Service) Pools(st *state.StudentState, d config.Difficulty, now time.Time) Pools {
	var (
		p           Pools
		neverAsked  []*state.FactItem
		activeAsked int
	)

	for _, item := range st.Facts {
		if !s.catalog.HasFact(item.FactID) {
			continue
		}
		stage := s.stages.Resolve(item.StageID)
		if stage.IsFullyLearned {
			p.FullyLearned++
			continue
		}
		if item.HasBeenAsked() {
			activeAsked++
		}

		switch {
		case stage.IsKnownFact:
			if s.inGeneralCooldown(item, now) || s.inReinforcementCooldown(item, now) {
				p.CoolingDown++
				continue
			}
			p.Known = append(p.Known, item)
		case item.HasBeenAsked():
			p.BeingLearned++
			if s.inGeneralCooldown(item, now) {
				p.CoolingDown++
				continue
			}
			p.Unknown = append(p.Unknown, item)
		default:
			neverAsked = append(neverAsked, item)
		}
	}

	p.NeverAsked = len(neverAsked)
	p.AvailableSlots = d.MaxFactsBeingLearned - activeAsked
	if p.AvailableSlots < 0 {
		p.AvailableSlots = 0
	}

	sort.SliceStable(neverAsked, func(i, j int) bool {
		return s.catalog.SetOrder(neverAsked[i].FactSetID) < s.catalog.SetOrder(neverAsked[j].FactSetID)
	})
	admit := p.AvailableSlots
	if admit > len(neverAsked) {
		admit = len(neverAsked)
	}
	p.NotAdmitted = len(neverAsked) - admit
	p.Unknown = append(neverAsked[:admit:admit], p.Unknown...)

	return p
}
