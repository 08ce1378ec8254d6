package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate_NoDifficulties(t *testing.T) {
	cfg := Default()
	cfg.Difficulties = nil
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no difficulty levels defined")
}

func TestValidate_NoStages(t *testing.T) {
	cfg := Default()
	cfg.Stages = nil
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no learning stages defined")
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Stages = append(cfg.Stages, LearningStage{ID: "review", Order: 99, Type: "bogus"})
	cfg.Difficulties[0].PromotionThresholds["nowhere"] = 1
	cfg.Difficulties[1].KnownFactMinRatio = 0.9
	cfg.Difficulties[1].BulkPromotion.MinFactSetCoveragePercent = 0

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `duplicate stage ID: "review"`)
	assert.Contains(t, msg, `unknown type "bogus"`)
	assert.Contains(t, msg, `unknown stage "nowhere"`)
	assert.Contains(t, msg, "known fact ratios")
	assert.Contains(t, msg, "min_fact_set_coverage_percent")
}

func TestStageList_SortedAndResolve(t *testing.T) {
	list := NewStageList([]LearningStage{
		{ID: "c", Order: 2},
		{ID: "a", Order: 0},
		{ID: "b", Order: 1},
	})

	ids := []string{}
	for _, s := range list.All() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, "a", list.First().ID)
	assert.Equal(t, "c", list.Last().ID)
	assert.Equal(t, 1, list.Position("b"))
	assert.Equal(t, -1, list.Position("zzz"))
	assert.Equal(t, "a", list.Resolve("zzz").ID, "unknown ids fall back to the first stage")
}

func TestReinforcementDelay(t *testing.T) {
	review := LearningStage{Type: StageReview, ReviewDelayMinutes: 10, RepetitionDelayDays: 3}
	rep := LearningStage{Type: StageRepetition, ReviewDelayMinutes: 10, RepetitionDelayDays: 2}
	other := LearningStage{Type: StagePracticeFast, ReviewDelayMinutes: 10}

	assert.Equal(t, 10*time.Minute, review.ReinforcementDelay())
	assert.Equal(t, 48*time.Hour, rep.ReinforcementDelay())
	assert.Zero(t, other.ReinforcementDelay())
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	doc := `
selection:
  min_question_interval_seconds: 5
  randomize_intervals: false
session:
  feedback_delay: 750ms
difficulties:
  - id: only
    name: Only
    min_accuracy: 0
    max_facts_being_learned: 3
    known_fact_min_ratio: 0.1
    known_fact_max_ratio: 0.9
    promotion_thresholds:
      practice-fast: 2
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5.0, cfg.Selection.MinQuestionIntervalSeconds)
	assert.False(t, cfg.Selection.RandomizeIntervals)
	assert.Equal(t, 750*time.Millisecond, cfg.Session.FeedbackDelay)
	require.Len(t, cfg.Difficulties, 1, "difficulties replace the defaults")
	assert.Equal(t, 2, cfg.Difficulties[0].PromotionThreshold("practice-fast"))
	assert.Len(t, cfg.Stages, len(Default().Stages), "stages keep their defaults")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TIMESTABLES_SELECTION_RECENT_ANSWERS_WINDOW", "7")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Selection.RecentAnswersWindow)
}

func TestLoad_InvalidFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("selection:\n  recent_answers_window: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recent_answers_window")
}

func TestStageTypeMode(t *testing.T) {
	assert.Equal(t, ModeAssessment, StageAssessment.Mode())
	assert.Equal(t, ModeGrounding, StageGrounding.Mode())
	for _, st := range []StageType{StagePracticeSlow, StagePracticeFast, StageReview, StageRepetition, StageMastered} {
		assert.Equal(t, ModePractice, st.Mode(), string(st))
	}
}
