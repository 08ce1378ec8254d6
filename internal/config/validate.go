package config

import (
	"fmt"
	"strings"
)

// Validate performs all structural checks on the configuration.
// Returns a combined error describing every problem found, or nil if valid.
func (c Config) Validate() error {
	var errs []string

	errs = append(errs, validateStages(c.Stages)...)

	stageIDs := make(map[string]bool, len(c.Stages))
	for _, s := range c.Stages {
		stageIDs[s.ID] = true
	}
	errs = append(errs, validateDifficulties(c.Difficulties, stageIDs)...)

	if c.Selection.MinQuestionIntervalSeconds < 0 {
		errs = append(errs, fmt.Sprintf("selection.min_question_interval_seconds must be >= 0, got %f", c.Selection.MinQuestionIntervalSeconds))
	}
	if c.Selection.RecentAnswersWindow <= 0 {
		errs = append(errs, fmt.Sprintf("selection.recent_answers_window must be > 0, got %d", c.Selection.RecentAnswersWindow))
	}
	if c.DifficultyControl.MinRecentAnswers < 0 {
		errs = append(errs, fmt.Sprintf("difficulty_control.min_recent_answers must be >= 0, got %d", c.DifficultyControl.MinRecentAnswers))
	}
	if c.DifficultyControl.AccuracyWindow <= 0 {
		errs = append(errs, fmt.Sprintf("difficulty_control.accuracy_window must be > 0, got %d", c.DifficultyControl.AccuracyWindow))
	}

	d := c.Distractors
	if d.MaxValue != 0 && d.MaxValue <= d.MinValue {
		errs = append(errs, fmt.Sprintf("distractors.max_value (%d) must exceed min_value (%d)", d.MaxValue, d.MinValue))
	}
	if d.FallbackAttempts < 0 {
		errs = append(errs, "distractors.fallback_attempts must be >= 0")
	}
	for name, sc := range d.Strategies {
		if sc.Weight < 0 {
			errs = append(errs, fmt.Sprintf("distractors.strategies.%s.weight must be >= 0", name))
		}
		if sc.MaxContribution < 0 {
			errs = append(errs, fmt.Sprintf("distractors.strategies.%s.max_contribution must be >= 0", name))
		}
	}

	if c.Session.MaxAnswerRecords < 0 {
		errs = append(errs, "session.max_answer_records must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func validateStages(stages []LearningStage) []string {
	if len(stages) == 0 {
		return []string{"no learning stages defined"}
	}

	var errs []string
	ids := make(map[string]bool, len(stages))
	orders := make(map[int]string, len(stages))
	for _, s := range stages {
		if s.ID == "" {
			errs = append(errs, fmt.Sprintf("stage with order %d has an empty id", s.Order))
			continue
		}
		if ids[s.ID] {
			errs = append(errs, fmt.Sprintf("duplicate stage ID: %q", s.ID))
		}
		ids[s.ID] = true
		if other, ok := orders[s.Order]; ok {
			errs = append(errs, fmt.Sprintf("stages %q and %q share order %d", other, s.ID, s.Order))
		}
		orders[s.Order] = s.ID
		if !s.Type.Valid() {
			errs = append(errs, fmt.Sprintf("stage %q has unknown type %q", s.ID, s.Type))
		}
		if s.TimerSeconds < 0 {
			errs = append(errs, fmt.Sprintf("stage %q: timer_seconds must be >= 0", s.ID))
		}
		if s.Type == StageReview && s.ReviewDelayMinutes < 0 {
			errs = append(errs, fmt.Sprintf("stage %q: review_delay_minutes must be >= 0", s.ID))
		}
		if s.Type == StageRepetition && s.RepetitionDelayDays < 0 {
			errs = append(errs, fmt.Sprintf("stage %q: repetition_delay_days must be >= 0", s.ID))
		}
	}
	return errs
}

func validateDifficulties(levels []Difficulty, stageIDs map[string]bool) []string {
	if len(levels) == 0 {
		return []string{"no difficulty levels defined"}
	}

	var errs []string
	ids := make(map[string]bool, len(levels))
	for _, d := range levels {
		prefix := fmt.Sprintf("difficulty %q", d.ID)
		if d.ID == "" {
			errs = append(errs, "difficulty with empty id")
		}
		if ids[d.ID] {
			errs = append(errs, fmt.Sprintf("duplicate difficulty ID: %q", d.ID))
		}
		ids[d.ID] = true

		if d.MinAccuracy < 0 || d.MinAccuracy > 1 {
			errs = append(errs, fmt.Sprintf("%s: min_accuracy must be in [0, 1], got %f", prefix, d.MinAccuracy))
		}
		if d.MaxFactsBeingLearned <= 0 {
			errs = append(errs, fmt.Sprintf("%s: max_facts_being_learned must be > 0, got %d", prefix, d.MaxFactsBeingLearned))
		}
		if d.KnownFactMinRatio < 0 || d.KnownFactMaxRatio > 1 || d.KnownFactMinRatio > d.KnownFactMaxRatio {
			errs = append(errs, fmt.Sprintf("%s: known fact ratios must satisfy 0 <= min <= max <= 1, got [%f, %f]",
				prefix, d.KnownFactMinRatio, d.KnownFactMaxRatio))
		}
		for id, n := range d.PromotionThresholds {
			if !stageIDs[id] {
				errs = append(errs, fmt.Sprintf("%s: promotion threshold references unknown stage %q", prefix, id))
			}
			if n < 0 {
				errs = append(errs, fmt.Sprintf("%s: promotion threshold for %q must be >= 0", prefix, id))
			}
		}
		for id, n := range d.DemotionThresholds {
			if !stageIDs[id] {
				errs = append(errs, fmt.Sprintf("%s: demotion threshold references unknown stage %q", prefix, id))
			}
			if n < 0 {
				errs = append(errs, fmt.Sprintf("%s: demotion threshold for %q must be >= 0", prefix, id))
			}
		}
		if bp := d.BulkPromotion; bp.Enabled {
			if bp.MinConsecutiveCorrect < 1 {
				errs = append(errs, fmt.Sprintf("%s: bulk_promotion.min_consecutive_correct must be >= 1", prefix))
			}
			if bp.MinFactSetCoveragePercent <= 0 || bp.MinFactSetCoveragePercent > 1 {
				errs = append(errs, fmt.Sprintf("%s: bulk_promotion.min_fact_set_coverage_percent must be in (0, 1], got %f",
					prefix, bp.MinFactSetCoveragePercent))
			}
		}
	}
	return errs
}
