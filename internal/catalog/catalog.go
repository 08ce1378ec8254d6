package catalog

import (
	"fmt"
	"sort"
)

// Catalog is the immutable fact-set/fact graph for a session, with
// precomputed indices.
type Catalog struct {
	sets       []FactSet
	setByID    map[string]*FactSet
	factByID   map[string]*Fact
	setOrder   map[string]int
	maxOperand int
}

// New builds a catalog from fact sets. Sets are sorted by Order (ties by
// ID) and each fact inherits its owning set's ID. Missing fact IDs and
// texts are derived from the operands.
func New(sets []FactSet) (*Catalog, error) {
	normalized := make([]FactSet, len(sets))
	for i, fs := range sets {
		facts := make([]Fact, len(fs.Facts))
		for j, f := range fs.Facts {
			f.FactSetID = fs.ID
			if f.ID == "" {
				f.ID = FactID(f.A, f.B)
			}
			if f.Text == "" {
				f.Text = FactText(f.A, f.B)
			}
			facts[j] = f
		}
		fs.Facts = facts
		normalized[i] = fs
	}

	if err := validateSets(normalized); err != nil {
		return nil, err
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		if normalized[i].Order != normalized[j].Order {
			return normalized[i].Order < normalized[j].Order
		}
		return normalized[i].ID < normalized[j].ID
	})

	c := &Catalog{
		sets:     normalized,
		setByID:  make(map[string]*FactSet, len(normalized)),
		factByID: make(map[string]*Fact),
		setOrder: make(map[string]int, len(normalized)),
	}
	for i := range c.sets {
		fs := &c.sets[i]
		c.setByID[fs.ID] = fs
		c.setOrder[fs.ID] = i
		for j := range fs.Facts {
			f := &fs.Facts[j]
			c.factByID[f.ID] = f
			if m := f.MaxOperand(); m > c.maxOperand {
				c.maxOperand = m
			}
		}
	}
	return c, nil
}

// FactSets returns all fact sets in global order.
func (c *Catalog) FactSets() []FactSet {
	out := make([]FactSet, len(c.sets))
	copy(out, c.sets)
	return out
}

// FactSet returns a fact set by ID.
func (c *Catalog) FactSet(id string) (FactSet, bool) {
	fs, ok := c.setByID[id]
	if !ok {
		return FactSet{}, false
	}
	return *fs, true
}

// Fact returns a fact by ID.
func (c *Catalog) Fact(id string) (Fact, bool) {
	f, ok := c.factByID[id]
	if !ok {
		return Fact{}, false
	}
	return *f, true
}

// HasFact reports whether the fact ID exists in the catalog.
func (c *Catalog) HasFact(id string) bool {
	_, ok := c.factByID[id]
	return ok
}

// SetOrder returns the position of a fact set in the global order. Unknown
// sets sort after every known set.
func (c *Catalog) SetOrder(factSetID string) int {
	if i, ok := c.setOrder[factSetID]; ok {
		return i
	}
	return len(c.sets)
}

// MaxOperand returns the largest operand of any fact in the catalog.
func (c *Catalog) MaxOperand() int {
	return c.maxOperand
}

// FactCount returns the total number of facts.
func (c *Catalog) FactCount() int {
	return len(c.factByID)
}

func (c *Catalog) String() string {
	return fmt.Sprintf("catalog(%d sets, %d facts)", len(c.sets), len(c.factByID))
}
