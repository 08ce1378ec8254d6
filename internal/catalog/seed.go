package catalog

import "fmt"

// DefaultTableOrder is the order in which times tables are introduced:
// the easy anchors first, then the tables that build on them.
var DefaultTableOrder = []int{1, 2, 10, 5, 3, 4, 6, 9, 7, 8}

// DefaultMaxMultiplier is the largest second operand in the built-in tables.
const DefaultMaxMultiplier = 10

// Default returns the built-in times-table catalog, one fact set per table.
func Default() *Catalog {
	sets := make([]FactSet, 0, len(DefaultTableOrder))
	for i, table := range DefaultTableOrder {
		fs := FactSet{
			ID:    fmt.Sprintf("table-%d", table),
			Name:  fmt.Sprintf("%d times table", table),
			Order: i,
		}
		for b := 1; b <= DefaultMaxMultiplier; b++ {
			fs.Facts = append(fs.Facts, Fact{A: table, B: b})
		}
		sets = append(sets, fs)
	}

	c, err := New(sets)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}
