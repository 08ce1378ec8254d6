package cmd

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/timestables/internal/clock"
	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/progression"
	"github.com/abhisek/timestables/internal/question"
	"github.com/abhisek/timestables/internal/rng"
	"github.com/abhisek/timestables/internal/session"
	"github.com/abhisek/timestables/internal/state"
	"github.com/abhisek/timestables/internal/store"
)

// simStart is the manual clock's origin so runs with the same seed print
// the same timeline.
var simStart = time.Date(2026, 1, 5, 16, 0, 0, 0, time.UTC)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the engine headless against synthetic learners",
	Long: `Drives one orchestrator per synthetic learner on a manual clock and in-memory
storage. Nothing is written to the database. Each learner answers correctly with
the given probability and otherwise picks a wrong choice.`,
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.Int("answers", 200, "Answers per learner")
	f.Float64("accuracy", 0.85, "Probability of a correct answer")
	f.Int("learners", 1, "Number of learners simulated concurrently")
	f.Duration("think", 4*time.Second, "Simulated time spent on each question")
	f.Duration("idle", time.Minute, "Simulated wait when nothing is due")
}

type simParams struct {
	answers  int
	accuracy float64
	think    time.Duration
	idle     time.Duration
}

type simResult struct {
	learnerID string
	summary   session.Summary
	progress  []progression.FactSetProgress
	level     config.Difficulty
	elapsed   time.Duration
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	env, err := loadEnvironment(cmd, false)
	if err != nil {
		return err
	}
	defer env.log.Sync()

	learners := env.v.GetInt("learners")
	p := simParams{
		answers:  env.v.GetInt("answers"),
		accuracy: env.v.GetFloat64("accuracy"),
		think:    env.v.GetDuration("think"),
		idle:     env.v.GetDuration("idle"),
	}
	if learners < 1 || p.answers < 1 {
		return fmt.Errorf("--learners and --answers must be >= 1")
	}
	if p.accuracy < 0 || p.accuracy > 1 {
		return fmt.Errorf("--accuracy must be in [0, 1], got %f", p.accuracy)
	}

	results := make([]simResult, learners)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := range learners {
		g.Go(func() error {
			res, err := simulateLearner(gctx, env, i, p)
			if err != nil {
				return fmt.Errorf("learner %d: %w", i+1, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	stages := env.cfg.StageList()
	for i, res := range results {
		if i > 0 {
			fmt.Println()
		}
		printSimResult(res, stages)
	}
	return nil
}

// simulateLearner runs one synthetic learner to completion on its own
// orchestrator, clock and memory store.
func simulateLearner(ctx context.Context, env *environment, n int, p simParams) (simResult, error) {
	id := fmt.Sprintf("sim-%d", n+1)
	clk := clock.NewManual(simStart)
	mem := store.NewMemory()
	engineRNG := env.source(uint64(2 * n))
	behaviour := env.source(uint64(2*n + 1))

	o, _, err := env.newOrchestrator(ctx, engineDeps{
		Persistence: mem,
		EventLog:    mem,
		LLMLog:      mem,
		LearnerID:   id,
		Clock:       clk,
		RNG:         engineRNG,
	})
	if err != nil {
		return simResult{}, err
	}
	defer o.Close()

	if err := o.Initialize(ctx); err != nil {
		return simResult{}, err
	}
	tally := session.NewTally(o.Stages(), clk.Now())
	unsubscribe := o.Subscribe(tally.Handle)
	defer unsubscribe()

	// Bound idle polling so a catalog with nothing due cannot spin forever.
	maxIdle := p.answers * 10
	for answered, idle := 0, 0; answered < p.answers; {
		if err := ctx.Err(); err != nil {
			return simResult{}, err
		}
		q, err := o.GetNextQuestion(ctx)
		if err != nil {
			return simResult{}, err
		}
		if q == nil {
			if idle++; idle > maxIdle {
				env.log.Warn("simulation stalled", "learner", id, "answered", answered)
				break
			}
			clk.Advance(p.idle)
			continue
		}

		retry := false
		for {
			o.StartQuestion(q)
			clk.Advance(p.think)
			// A sent-back grounding answer is always followed by the right one.
			sub := simAnswer(q, p, behaviour, retry)
			fb, err := o.SubmitAnswer(ctx, q, sub)
			if err != nil {
				return simResult{}, err
			}
			tally.Answer(q, fb)
			clk.Advance(fb.Delay)
			if !fb.Retry {
				break
			}
			retry = true
		}
		answered++
	}

	if err := o.Flush(ctx); err != nil {
		return simResult{}, err
	}
	progress, err := o.FactSetProgress()
	if err != nil {
		return simResult{}, err
	}
	level, _ := o.Difficulty()
	return simResult{
		learnerID: id,
		summary:   tally.Summary(clk.Now()),
		progress:  progress,
		level:     level,
		elapsed:   clk.Now().Sub(simStart),
	}, nil
}

func simAnswer(q *question.Question, p simParams, src *rng.Source, forceCorrect bool) question.Submission {
	sub := question.Submission{Elapsed: p.think}
	if forceCorrect || src.Float64() < p.accuracy {
		sub.Value = q.CorrectValue
		sub.Outcome = state.Correct
		return sub
	}

	var wrong []int
	for _, c := range q.Choices {
		if c.Value != q.CorrectValue {
			wrong = append(wrong, c.Value)
		}
	}
	// Some misses on timed questions are the clock running out.
	if q.Timed() && (len(wrong) == 0 || src.Float64() < 0.3) {
		sub.Outcome = state.TimedOut
		sub.Elapsed = q.TimeLimit
		return sub
	}
	if len(wrong) == 0 {
		sub.Outcome = state.Skipped
		return sub
	}
	sub.Value = wrong[src.IntN(len(wrong))]
	sub.Outcome = state.Incorrect
	return sub
}

func printSimResult(res simResult, stages config.StageList) {
	s := res.summary
	fmt.Printf("Learner %s  (%s simulated, difficulty %s)\n", res.learnerID, res.elapsed.Round(time.Minute), res.level.Name)
	fmt.Println(strings.Repeat("─", 72))
	fmt.Printf("Answered %d  correct %d  wrong %d  too slow %d  retries %d  accuracy %.0f%%\n",
		s.Answered, s.Correct, s.Incorrect, s.TimedOut, s.Retries, s.Accuracy()*100)
	fmt.Printf("Promotions %d  demotions %d  bulk promotions %d\n", s.Promotions, s.Demotions, s.BulkPromotions)
	for _, id := range s.ReviewReady {
		fmt.Printf("  %s ready for review\n", id)
	}
	for _, id := range s.Completed {
		fmt.Printf("  %s completed\n", id)
	}
	for _, dc := range s.DifficultyChanges {
		fmt.Printf("  difficulty %s -> %s at %.0f%% accuracy\n", dc.From, dc.To, dc.Accuracy*100)
	}

	fmt.Println()
	printStageTable(res.progress, stages)
}

// printStageTable prints one row per fact set with a column per stage.
func printStageTable(progress []progression.FactSetProgress, stages config.StageList) {
	all := stages.All()
	fmt.Printf("%-12s", "Fact set")
	for _, st := range all {
		fmt.Printf("  %*s", stageColumnWidth(st.ID), st.ID)
	}
	fmt.Println()

	totals := make(map[string]int, len(all))
	for _, p := range progress {
		fmt.Printf("%-12s", truncate(p.FactSetID, 12))
		for _, st := range all {
			n := p.ByStage[st.ID]
			totals[st.ID] += n
			fmt.Printf("  %*d", stageColumnWidth(st.ID), n)
		}
		fmt.Println(setBadge(p))
	}

	fmt.Printf("%-12s", "TOTAL")
	for _, st := range all {
		fmt.Printf("  %*d", stageColumnWidth(st.ID), totals[st.ID])
	}
	fmt.Println()
}

func stageColumnWidth(id string) int {
	return max(len(id), 4)
}

func setBadge(p progression.FactSetProgress) string {
	switch {
	case p.Completed:
		return "  completed"
	case p.ReviewReady:
		return "  review-ready"
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
