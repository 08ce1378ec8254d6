package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// TIMESTABLES_SELECTION_MIN_QUESTION_INTERVAL_SECONDS.
const EnvPrefix = "TIMESTABLES"

// Config holds all engine configuration.
type Config struct {
	Stages            []LearningStage         `mapstructure:"stages"`
	Difficulties      []Difficulty            `mapstructure:"difficulties"`
	Selection         SelectionConfig         `mapstructure:"selection"`
	DifficultyControl DifficultyControlConfig `mapstructure:"difficulty_control"`
	Distractors       DistractorConfig        `mapstructure:"distractors"`
	Session           SessionConfig           `mapstructure:"session"`
}

// SelectionConfig tunes the fact selection service.
type SelectionConfig struct {
	// MinQuestionIntervalSeconds is the general cooldown before a fact may
	// be asked again.
	MinQuestionIntervalSeconds float64 `mapstructure:"min_question_interval_seconds"`
	// RandomizeIntervals spreads cooldowns by ±25% using each fact's jitter.
	RandomizeIntervals bool `mapstructure:"randomize_intervals"`
	// RecentAnswersWindow is how many recent answers feed the known-ratio
	// pool choice.
	RecentAnswersWindow int `mapstructure:"recent_answers_window"`
}

// MinQuestionInterval returns the general cooldown as a duration.
func (s SelectionConfig) MinQuestionInterval() time.Duration {
	return time.Duration(s.MinQuestionIntervalSeconds * float64(time.Second))
}

// DifficultyControlConfig tunes the difficulty controller.
type DifficultyControlConfig struct {
	// MinRecentAnswers is the minimum window size before difficulty moves.
	MinRecentAnswers int `mapstructure:"min_recent_answers"`
	// AccuracyWindow is the rolling window size.
	AccuracyWindow int `mapstructure:"accuracy_window"`
}

// StrategyConfig configures one distractor strategy.
type StrategyConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	Weight          float64 `mapstructure:"weight"`
	MaxContribution int     `mapstructure:"max_contribution"`
}

// DistractorConfig tunes the distractor generator.
type DistractorConfig struct {
	MinValue int `mapstructure:"min_value"`
	// MaxValue bounds generated values; 0 derives it from the catalog.
	MaxValue          int                       `mapstructure:"max_value"`
	FallbackAttempts  int                       `mapstructure:"fallback_attempts"`
	FallbackMaxOffset int                       `mapstructure:"fallback_max_offset"`
	Strategies        map[string]StrategyConfig `mapstructure:"strategies"`
	// LLMTimeout bounds the optional LLM strategy per question.
	LLMTimeout time.Duration `mapstructure:"llm_timeout"`
}

// SessionConfig holds learner-session settings.
type SessionConfig struct {
	AlwaysStartFresh bool          `mapstructure:"always_start_fresh"`
	MaxAnswerRecords int           `mapstructure:"max_answer_records"`
	FeedbackDelay    time.Duration `mapstructure:"feedback_delay"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Stages: []LearningStage{
			{ID: "assessment", Order: 0, Type: StageAssessment, TimerSeconds: 10},
			{ID: "grounding", Order: 1, Type: StageGrounding},
			{ID: "practice-slow", Order: 2, Type: StagePracticeSlow, TimerSeconds: 12},
			{ID: "practice-fast", Order: 3, Type: StagePracticeFast, TimerSeconds: 5},
			{ID: "review", Order: 4, Type: StageReview, IsKnownFact: true, TimerSeconds: 5, ReviewDelayMinutes: 10},
			{ID: "repetition", Order: 5, Type: StageRepetition, IsKnownFact: true, TimerSeconds: 5, RepetitionDelayDays: 1},
			{ID: "mastered", Order: 6, Type: StageMastered, IsKnownFact: true, IsFullyLearned: true},
		},
		Difficulties: []Difficulty{
			{
				ID:                   "gentle",
				Name:                 "Gentle",
				MinAccuracy:          0,
				MaxFactsBeingLearned: 2,
				PromotionThresholds: map[string]int{
					"practice-slow": 1,
					"practice-fast": 2,
					"review":        3,
					"repetition":    1,
					"mastered":      1,
				},
				DemotionThresholds: map[string]int{
					"practice-slow": 2,
					"practice-fast": 2,
				},
				KnownFactMinRatio: 0.3,
				KnownFactMaxRatio: 0.6,
				SpawnFrequency:    0.8,
			},
			{
				ID:                   "steady",
				Name:                 "Steady",
				MinAccuracy:          0.7,
				MaxFactsBeingLearned: 4,
				PromotionThresholds: map[string]int{
					"practice-slow": 1,
					"practice-fast": 2,
					"review":        2,
					"repetition":    1,
					"mastered":      1,
				},
				DemotionThresholds: map[string]int{
					"practice-slow": 2,
					"practice-fast": 2,
				},
				KnownFactMinRatio: 0.2,
				KnownFactMaxRatio: 0.5,
				BulkPromotion: BulkPromotion{
					Enabled:                   true,
					MinConsecutiveCorrect:     4,
					MinFactSetCoveragePercent: 1.0,
				},
				SpawnFrequency: 1.0,
			},
			{
				ID:                   "challenging",
				Name:                 "Challenging",
				MinAccuracy:          0.9,
				MaxFactsBeingLearned: 6,
				PromotionThresholds: map[string]int{
					"practice-fast": 1,
					"review":        2,
					"repetition":    1,
					"mastered":      1,
				},
				DemotionThresholds: map[string]int{
					"practice-slow": 1,
					"practice-fast": 2,
				},
				KnownFactMinRatio: 0.1,
				KnownFactMaxRatio: 0.4,
				BulkPromotion: BulkPromotion{
					Enabled:                   true,
					MinConsecutiveCorrect:     3,
					MinFactSetCoveragePercent: 0.8,
				},
				SpawnFrequency: 1.3,
			},
		},
		Selection: SelectionConfig{
			MinQuestionIntervalSeconds: 20,
			RandomizeIntervals:         true,
			RecentAnswersWindow:        10,
		},
		DifficultyControl: DifficultyControlConfig{
			MinRecentAnswers: 5,
			AccuracyWindow:   10,
		},
		Distractors: DistractorConfig{
			MinValue:          0,
			FallbackAttempts:  20,
			FallbackMaxOffset: 5,
			LLMTimeout:        3 * time.Second,
			Strategies: map[string]StrategyConfig{
				"factor-variation": {Enabled: true, Weight: 0.4, MaxContribution: 2},
				"common-mistakes":  {Enabled: true, Weight: 0.3, MaxContribution: 2},
				"table-neighbors":  {Enabled: true, Weight: 0.3, MaxContribution: 2},
				"llm":              {Enabled: false, Weight: 0, MaxContribution: 3},
			},
		},
		Session: SessionConfig{
			MaxAnswerRecords: 2000,
			FeedbackDelay:    1500 * time.Millisecond,
		},
	}
}

// Load reads a config file (YAML, JSON or TOML, detected by extension) on
// top of Default and applies TIMESTABLES_* environment overrides. An empty
// path returns the defaults with environment overrides only.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// Lists replace the defaults wholesale instead of merging element-wise.
	if v.IsSet("stages") {
		cfg.Stages = nil
	}
	if v.IsSet("difficulties") {
		cfg.Difficulties = nil
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// bindEnvKeys registers scalar keys so AutomaticEnv values are visible to
// Unmarshal even when no config file sets them.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"selection.min_question_interval_seconds",
		"selection.randomize_intervals",
		"selection.recent_answers_window",
		"difficulty_control.min_recent_answers",
		"difficulty_control.accuracy_window",
		"distractors.min_value",
		"distractors.max_value",
		"distractors.fallback_attempts",
		"distractors.fallback_max_offset",
		"distractors.llm_timeout",
		"session.always_start_fresh",
		"session.max_answer_records",
		"session.feedback_delay",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

// StageList returns the stages sorted by order.
func (c Config) StageList() StageList {
	return NewStageList(c.Stages)
}
