package main

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress <content-key>",
	Short: "Show watch progress for a content key",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgressCmd,
}

var continueCmd = &cobra.Command{
	Use:   "continue",
	Short: "Continue-watching list across all connected volumes",
	Long: `Show the most recently watched, not yet finished titles across every
connected volume, most recent first.`,
	Args: cobra.NoArgs,
	RunE: runContinueCmd,
}

func init() {
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(continueCmd)
	continueCmd.Flags().Int("limit", 20, "Maximum entries")
}

func runProgressCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	var rec ProgressResponse
	if err := client.get("/api/v1/progress?key="+url.QueryEscape(args[0]), &rec); err != nil {
		return fmt.Errorf("progress fetch failed: %w", err)
	}

	if jsonOutput {
		printJSON(rec)
		return nil
	}
	printProgress(rec)
	return nil
}

func runContinueCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	limit, _ := cmd.Flags().GetInt("limit")

	var entries []ProgressResponse
	if err := client.get(fmt.Sprintf("/api/v1/continue?limit=%d", limit), &entries); err != nil {
		return fmt.Errorf("continue fetch failed: %w", err)
	}

	if jsonOutput {
		printJSON(entries)
		return nil
	}
	if len(entries) == 0 {
		fmt.Println("Nothing in progress.")
		return nil
	}
	for _, e := range entries {
		printProgress(e)
	}
	return nil
}

func printProgress(rec ProgressResponse) {
	pos := time.Duration(rec.PositionMS) * time.Millisecond
	dur := time.Duration(rec.DurationMS) * time.Millisecond
	state := fmt.Sprintf("%.0f%%", rec.Percentage*100)
	if rec.Completed {
		state = "completed"
	}
	fmt.Printf("%s  %s / %s (%s)  %s\n",
		rec.RelPath, pos.Round(time.Second), dur.Round(time.Second), state,
		rec.LastWatched.Local().Format("2006-01-02 15:04"))
}
