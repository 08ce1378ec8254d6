package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/timestables/internal/catalog"
	"github.com/abhisek/timestables/internal/question"
	"github.com/abhisek/timestables/internal/state"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview generated questions for a fact or fact set (no database)",
	Long: `Generate and interactively answer questions for a fact or a fact set.

This is a stateless developer tool. Nothing is saved and no events are recorded.
Useful for checking distractor quality, including the LLM strategy when enabled.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("fact", "", "Fact ID (e.g. 7x8) or fact set ID (required)")
	previewCmd.Flags().String("stage", "practice-fast", "Stage the questions are built for")
	previewCmd.Flags().Int("count", 5, "Number of questions to generate")
	_ = previewCmd.MarkFlagRequired("fact")
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	env, err := loadEnvironment(cmd, false)
	if err != nil {
		return err
	}
	defer env.log.Sync()

	facts, err := resolveFacts(env.cat, env.v.GetString("fact"))
	if err != nil {
		return err
	}
	stage, ok := env.cfg.StageList().Get(env.v.GetString("stage"))
	if !ok {
		return fmt.Errorf("unknown stage %q", env.v.GetString("stage"))
	}
	count := env.v.GetInt("count")

	src := env.source(0)
	factory := question.NewFactory(env.distractors(ctx, src, nil), env.cat.MaxOperand())
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Printf("Stage: %s (%s, %s)\n", stage.ID, stage.Type, timeLimitLabel(stage.TimeLimit().Seconds()))
	fmt.Printf("Generating %d questions...\n\n", count)

	var correct int
	for i := 1; i <= count; i++ {
		fact := facts[src.IntN(len(facts))]
		q := factory.CreateQuestionForStage(ctx, fact, stage)

		fmt.Printf("── Question %d/%d ──\n", i, count)
		fmt.Printf("%s = ?\n", q.Text)
		for j, c := range q.Choices {
			fmt.Printf("  %d) %d\n", j+1, c.Value)
		}

		fmt.Print("\nYour answer: ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			break
		}
		pick, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || pick < 1 || pick > len(q.Choices) {
			fmt.Print("(skipped)\n\n")
			continue
		}

		if q.Classify(q.Choices[pick-1].Value, false) == state.Correct {
			correct++
			fmt.Println("\033[32m✓ Correct!\033[0m")
		} else {
			fmt.Printf("\033[31m✗ Wrong.\033[0m Answer: %d\n", q.CorrectValue)
		}
		fmt.Println()
	}

	fmt.Printf("── Summary: %d/%d correct ──\n", correct, count)
	return nil
}

func timeLimitLabel(seconds float64) string {
	if seconds <= 0 {
		return "untimed"
	}
	return fmt.Sprintf("%.0fs", seconds)
}

// resolveFacts finds a fact by ID first, then falls back to every fact of a
// fact set with that ID.
func resolveFacts(cat *catalog.Catalog, val string) ([]catalog.Fact, error) {
	if f, ok := cat.Fact(val); ok {
		return []catalog.Fact{f}, nil
	}
	if fs, ok := cat.FactSet(val); ok && len(fs.Facts) > 0 {
		return fs.Facts, nil
	}

	var ids []string
	for _, fs := range cat.FactSets() {
		ids = append(ids, fs.ID)
	}
	return nil, fmt.Errorf("no fact or fact set found for %q (fact sets: %s)", val, strings.Join(ids, ", "))
}
