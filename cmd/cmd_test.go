package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/timestables/internal/catalog"
	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/logger"
	"github.com/abhisek/timestables/internal/store"
)

func testEnvironment(seed uint64) *environment {
	return &environment{v: viper.New(), cfg: config.Default(), cat: catalog.Default(), log: logger.Nop(), seed: seed}
}

func TestSimulateLearner_PerfectLearnerProgresses(t *testing.T) {
	env := testEnvironment(7)
	p := simParams{answers: 60, accuracy: 1, think: 4 * time.Second, idle: time.Minute}

	res, err := simulateLearner(context.Background(), env, 0, p)
	require.NoError(t, err)

	assert.Equal(t, "sim-1", res.learnerID)
	assert.Equal(t, 60, res.summary.Answered)
	assert.Equal(t, res.summary.Answered, res.summary.Correct)
	assert.Zero(t, res.summary.Retries)
	assert.Positive(t, res.summary.Promotions)
	assert.Zero(t, res.summary.Demotions)
	assert.Len(t, res.progress, len(env.cat.FactSets()))
	assert.True(t, res.elapsed > 0, "simulated time advances")
}

func TestSimulateLearner_SameSeedSameRun(t *testing.T) {
	p := simParams{answers: 40, accuracy: 0.6, think: 3 * time.Second, idle: time.Minute}

	a, err := simulateLearner(context.Background(), testEnvironment(11), 0, p)
	require.NoError(t, err)
	b, err := simulateLearner(context.Background(), testEnvironment(11), 0, p)
	require.NoError(t, err)

	assert.Equal(t, a.summary.Correct, b.summary.Correct)
	assert.Equal(t, a.summary.Promotions, b.summary.Promotions)
	assert.Equal(t, a.summary.Demotions, b.summary.Demotions)
	assert.Equal(t, a.progress, b.progress)
}

func TestSimulateLearner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := simulateLearner(ctx, testEnvironment(3), 0, simParams{answers: 5, accuracy: 1, think: time.Second, idle: time.Minute})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveFacts(t *testing.T) {
	cat := catalog.Default()

	facts, err := resolveFacts(cat, "7x8")
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, 56, facts[0].Answer())

	set := cat.FactSets()[0]
	facts, err = resolveFacts(cat, set.ID)
	require.NoError(t, err)
	assert.Len(t, facts, len(set.Facts))

	_, err = resolveFacts(cat, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), set.ID)
}

func TestAggregateLLM(t *testing.T) {
	events := []store.LLMRequestEventData{
		{Purpose: "distractors", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true},
		{Purpose: "distractors", InputTokens: 20, OutputTokens: 5, LatencyMs: 300},
		{Purpose: "other", InputTokens: 1, OutputTokens: 1, LatencyMs: 50, Success: true},
	}

	usage := aggregateLLM(events, func(e store.LLMRequestEventData) string { return e.Purpose })
	require.Len(t, usage, 2)
	assert.Equal(t, "distractors", usage[0].key)
	assert.Equal(t, 2, usage[0].calls)
	assert.Equal(t, 1, usage[0].failures)
	assert.Equal(t, 30, usage[0].inputTokens)
	assert.Equal(t, int64(200), usage[0].avgLatency())
}

func TestSetAccuracy(t *testing.T) {
	assert.Equal(t, "-", setAccuracy{shown: 3}.String())
	assert.Equal(t, "75%", setAccuracy{shown: 4, correct: 3, incorrect: 1}.String())
}
