package state

import (
	"fmt"
	"strings"
)

// Validate checks the structural invariants of a current-version state.
// Returns a combined error describing every problem found, or nil if valid.
func (s *StudentState) Validate() error {
	if s == nil {
		return fmt.Errorf("student state is nil")
	}

	var errs []string
	if s.Version != CurrentVersion {
		errs = append(errs, fmt.Sprintf("version is %d, want %d", s.Version, CurrentVersion))
	}
	if s.CreatedAt.IsZero() {
		errs = append(errs, "created_at is not set")
	}
	if s.Stats == nil {
		errs = append(errs, "stats map is nil")
	}

	seen := make(map[string]bool, len(s.Facts))
	for i, f := range s.Facts {
		if f == nil {
			errs = append(errs, fmt.Sprintf("fact item %d is nil", i))
			continue
		}
		if f.FactID == "" {
			errs = append(errs, fmt.Sprintf("fact item %d has an empty fact id", i))
		}
		if seen[f.FactID] {
			errs = append(errs, fmt.Sprintf("duplicate fact item %q", f.FactID))
		}
		seen[f.FactID] = true
		if f.StageID == "" {
			errs = append(errs, fmt.Sprintf("fact item %q has an empty stage id", f.FactID))
		}
		if f.ConsecutiveCorrect < 0 || f.ConsecutiveIncorrect < 0 {
			errs = append(errs, fmt.Sprintf("fact item %q has a negative streak", f.FactID))
		}
		if f.ConsecutiveCorrect > 0 && f.ConsecutiveIncorrect > 0 {
			errs = append(errs, fmt.Sprintf("fact item %q has both correct and incorrect streaks", f.FactID))
		}
		if f.RandomFactor < 0 || f.RandomFactor > 1 {
			errs = append(errs, fmt.Sprintf("fact item %q random_factor %f outside [0, 1]", f.FactID, f.RandomFactor))
		}
	}

	for i, a := range s.History {
		if a.FactID == "" {
			errs = append(errs, fmt.Sprintf("answer %d has an empty fact id", i))
		}
		if !a.Answer.Valid() {
			errs = append(errs, fmt.Sprintf("answer %d has unknown outcome %q", i, a.Answer))
		}
	}

	for id, st := range s.Stats {
		if st == nil {
			errs = append(errs, fmt.Sprintf("stats for %q are nil", id))
			continue
		}
		if st.TimesCorrect+st.TimesIncorrect > st.TimesShown {
			errs = append(errs, fmt.Sprintf("stats for %q grade more answers than were shown", id))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid student state:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
