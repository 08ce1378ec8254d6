package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/timestables/internal/state"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE:  runStats,
}

// setAccuracy aggregates per-fact counters for one fact set.
type setAccuracy struct {
	shown, correct, incorrect int
}

func (a setAccuracy) String() string {
	graded := a.correct + a.incorrect
	if graded == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", float64(a.correct)/float64(graded)*100)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	env, err := loadEnvironment(cmd, false)
	if err != nil {
		return err
	}
	defer env.log.Sync()

	o, ls, st, existed, err := env.openLearner(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	defer o.Close()

	id := env.learnerID()
	if !existed {
		fmt.Printf("No progress recorded for learner %q yet.\n", id)
		return nil
	}
	if err := o.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize learner: %w", err)
	}

	progress, err := o.FactSetProgress()
	if err != nil {
		return err
	}
	acc := make(map[string]*setAccuracy)
	var answers int
	err = ls.WithState(func(s *state.StudentState) {
		answers = len(s.History)
		for factID, fs := range s.Stats {
			f, ok := env.cat.Fact(factID)
			if !ok {
				continue
			}
			a := acc[f.FactSetID]
			if a == nil {
				a = &setAccuracy{}
				acc[f.FactSetID] = a
			}
			a.shown += fs.TimesShown
			a.correct += fs.TimesCorrect
			a.incorrect += fs.TimesIncorrect
		}
	})
	if err != nil {
		return err
	}

	level, index := o.Difficulty()
	fmt.Printf("Learner %s  difficulty %s (%d of %d)  %d answers recorded\n",
		id, level.Name, index+1, len(env.cfg.Difficulties), answers)
	fmt.Println(strings.Repeat("─", 72))

	stages := o.Stages()
	printStageTable(progress, stages)

	fmt.Println()
	fmt.Printf("%-12s  %6s  %8s\n", "Fact set", "Shown", "Accuracy")
	fmt.Println(strings.Repeat("─", 30))
	for _, p := range progress {
		a := setAccuracy{}
		if got := acc[p.FactSetID]; got != nil {
			a = *got
		}
		fmt.Printf("%-12s  %6d  %8s\n", truncate(p.FactSetID, 12), a.shown, a)
	}
	return nil
}
