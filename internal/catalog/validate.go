package catalog

import (
	"fmt"
	"strings"
)

// validateSets performs all structural checks on the given fact sets.
// Returns a combined error describing all problems found, or nil if valid.
func validateSets(sets []FactSet) error {
	var errs []string

	if len(sets) == 0 {
		errs = append(errs, "catalog has no fact sets")
	}

	setIDs := make(map[string]bool, len(sets))
	factOwner := make(map[string]string)

	for _, fs := range sets {
		if fs.ID == "" {
			errs = append(errs, "fact set with empty ID")
		}
		if setIDs[fs.ID] {
			errs = append(errs, fmt.Sprintf("duplicate fact set ID: %q", fs.ID))
		}
		setIDs[fs.ID] = true

		if len(fs.Facts) == 0 {
			errs = append(errs, fmt.Sprintf("fact set %q has no facts", fs.ID))
		}
		for _, f := range fs.Facts {
			if owner, ok := factOwner[f.ID]; ok {
				errs = append(errs, fmt.Sprintf("fact %q appears in both %q and %q", f.ID, owner, fs.ID))
			}
			factOwner[f.ID] = fs.ID
			if f.A < 0 || f.B < 0 {
				errs = append(errs, fmt.Sprintf("fact %q has a negative operand", f.ID))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
