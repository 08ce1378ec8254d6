package config

// BulkPromotion configures cohort promotion of a whole (fact set, stage) pair.
type BulkPromotion struct {
	Enabled               bool `mapstructure:"enabled"`
	MinConsecutiveCorrect int  `mapstructure:"min_consecutive_correct"`
	// MinFactSetCoveragePercent is a fraction in (0, 1].
	MinFactSetCoveragePercent float64 `mapstructure:"min_fact_set_coverage_percent"`
}

// Difficulty is one adaptive difficulty level.
type Difficulty struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
	// MinAccuracy is the rolling accuracy at which this level activates.
	MinAccuracy          float64 `mapstructure:"min_accuracy"`
	MaxFactsBeingLearned int     `mapstructure:"max_facts_being_learned"`
	// PromotionThresholds and DemotionThresholds are keyed by the target
	// stage ID. 0 or absent means the stage is a pass-through waypoint.
	PromotionThresholds map[string]int `mapstructure:"promotion_thresholds"`
	DemotionThresholds  map[string]int `mapstructure:"demotion_thresholds"`
	KnownFactMinRatio   float64        `mapstructure:"known_fact_min_ratio"`
	KnownFactMaxRatio   float64        `mapstructure:"known_fact_max_ratio"`
	BulkPromotion       BulkPromotion  `mapstructure:"bulk_promotion"`
	// SpawnFrequency is a pacing hint for the host game; the engine never
	// reads it.
	SpawnFrequency float64 `mapstructure:"spawn_frequency"`
}

// PromotionThreshold returns the consecutive-correct count needed to enter
// the stage with the given ID.
func (d Difficulty) PromotionThreshold(stageID string) int {
	return d.PromotionThresholds[stageID]
}

// DemotionThreshold returns the consecutive-incorrect count needed to fall
// back into the stage with the given ID.
func (d Difficulty) DemotionThreshold(stageID string) int {
	return d.DemotionThresholds[stageID]
}
