package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/timestables/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viperForCmd(cmd)
		s, err := openStore(v)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.LLMRequests(cmd.Context(), v.GetString("purpose"), store.QueryOpts{Limit: v.GetInt("limit")})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No LLM events found.")
			return nil
		}

		fmt.Printf("%-6s  %-19s  %-12s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"Seq", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 100))
		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗ " + truncate(e.ErrorMessage, 40)
			}
			fmt.Printf("%-6d  %-19s  %-12s  %-28s  %-6d  %-6d  %-7d  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.Purpose, 12),
				truncate(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

// llmUsage aggregates requests sharing a key.
type llmUsage struct {
	key          string
	calls        int
	failures     int
	inputTokens  int
	outputTokens int
	latencyMs    int64
}

func (u llmUsage) avgLatency() int64 {
	if u.calls == 0 {
		return 0
	}
	return u.latencyMs / int64(u.calls)
}

func aggregateLLM(events []store.LLMRequestEventData, key func(store.LLMRequestEventData) string) []llmUsage {
	byKey := make(map[string]*llmUsage)
	for _, e := range events {
		k := key(e)
		u := byKey[k]
		if u == nil {
			u = &llmUsage{key: k}
			byKey[k] = u
		}
		u.calls++
		if !e.Success {
			u.failures++
		}
		u.inputTokens += e.InputTokens
		u.outputTokens += e.OutputTokens
		u.latencyMs += e.LatencyMs
	}
	out := make([]llmUsage, 0, len(byKey))
	for _, u := range byKey {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].calls > out[j].calls })
	return out
}

func printLLMUsage(title, column string, usage []llmUsage) {
	fmt.Println(title)
	fmt.Println(strings.Repeat("─", 80))
	fmt.Printf("%-28s  %6s  %6s  %10s  %10s  %8s\n", column, "Calls", "Failed", "Input", "Output", "Avg Ms")
	fmt.Println(strings.Repeat("─", 80))
	var calls, in, out int
	for _, u := range usage {
		fmt.Printf("%-28s  %6d  %6d  %10d  %10d  %8d\n",
			truncate(u.key, 28), u.calls, u.failures, u.inputTokens, u.outputTokens, u.avgLatency())
		calls += u.calls
		in += u.inputTokens
		out += u.outputTokens
	}
	fmt.Println(strings.Repeat("─", 80))
	fmt.Printf("%-28s  %6d  %6s  %10d  %10d\n", "TOTAL", calls, "", in, out)
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(viperForCmd(cmd))
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.LLMRequests(cmd.Context(), "", store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		printLLMUsage("Usage by Purpose", "Purpose", aggregateLLM(events, func(e store.LLMRequestEventData) string { return e.Purpose }))
		fmt.Println()
		printLLMUsage("Usage by Model", "Model", aggregateLLM(events, func(e store.LLMRequestEventData) string {
			return e.Provider + "/" + e.Model
		}))
		return nil
	},
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. distractors)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
