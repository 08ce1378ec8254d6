package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset learner progress",
	Long:  "Replaces the learner's saved state with a fresh one. The event history is kept.",
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	env, err := loadEnvironment(cmd, false)
	if err != nil {
		return err
	}
	defer env.log.Sync()

	id := env.learnerID()
	if !env.v.GetBool("yes") {
		fmt.Printf("Reset all progress for learner %q? [y/N] ", id)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	o, _, st, existed, err := env.openLearner(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	defer o.Close()

	if !existed {
		fmt.Printf("Learner %q has no saved progress.\n", id)
		return nil
	}
	if err := o.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize learner: %w", err)
	}
	if err := o.Reset(ctx); err != nil {
		return fmt.Errorf("reset learner: %w", err)
	}
	if err := o.Flush(ctx); err != nil {
		return err
	}
	fmt.Printf("Progress for learner %q has been reset.\n", id)
	return nil
}
