package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	serverURL  string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "drivebay",
	Short: "CLI client for the drivebay media daemon",
	Long: `drivebay - CLI client for the drivebay media daemon

Browse per-volume media catalogs, trigger scans, inspect watch
progress and drive playback routing.

Run 'drivebayd' to start the daemon.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8590", "Daemon URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("drivebay {{.Version}}\n")
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
		return
	}
	fmt.Println(string(out))
}
