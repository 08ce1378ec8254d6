package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/timestables/internal/app"
	"github.com/abhisek/timestables/internal/clock"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a practice session",
	RunE:  runPlay,
}

// runPlay opens the learner and launches the TUI. New learners start with
// the welcome tutorial.
func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	env, err := loadEnvironment(cmd, true)
	if err != nil {
		return err
	}
	defer env.log.Sync()

	o, _, st, existed, err := env.openLearner(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	defer o.Close()

	if err := o.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize learner: %w", err)
	}

	runErr := app.Run(app.Options{
		Engine:    o,
		Clock:     clock.Real{},
		EventLog:  st,
		LearnerID: env.learnerID(),
		Welcome:   !existed,
	})
	if err := o.Flush(ctx); err != nil && runErr == nil {
		runErr = fmt.Errorf("save progress: %w", err)
	}
	return runErr
}
