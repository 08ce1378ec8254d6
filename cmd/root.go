package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/learner"
	"github.com/abhisek/timestables/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "timestables",
	Short: "Adaptive multiplication tables practice",
	Long: "timestables walks a learner through the times tables one fact at a time, " +
		"moving each fact through assessment, practice and review until it is mastered.",
	SilenceUsage: true,
	RunE:         runPlay,
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides TIMESTABLES_DB)")
	pf.String("config", "", "Engine configuration file (YAML, JSON or TOML)")
	pf.String("catalog", "", "Fact catalog YAML file (defaults to the built-in tables)")
	pf.String("learner", learner.DefaultLearnerID, "Learner ID")
	pf.Uint64("seed", 0, "Random seed; 0 seeds from the clock")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// viperForCmd layers TIMESTABLES_* environment variables under the
// command's flags, e.g. TIMESTABLES_LEARNER or TIMESTABLES_LOG_LEVEL.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// resolveDBPath returns the database path using --db or TIMESTABLES_DB,
// then the default XDG path.
func resolveDBPath(v *viper.Viper) (string, error) {
	if p := v.GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func openStore(v *viper.Viper) (*store.Store, error) {
	dbPath, err := resolveDBPath(v)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}
