package main

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play <path>",
	Short: "Start playback of a file on a connected volume",
	Long: `Start or attach to playback of a media file. The daemon decides
whether the embedded renderer can handle it or routes it to the
external decoding path.

Examples:
  drivebay play /media/usb/Movies/Heat\ \(1995\)/heat.mkv
  drivebay play --resume-from 420000 <path>    # Resume at 7 minutes
  drivebay play --force-external <path>        # Skip the embedded attempt`,
	Args: cobra.ExactArgs(1),
	RunE: runPlayCmd,
}

var stopCmd = &cobra.Command{
	Use:   "stop <content-key>",
	Short: "Stop the playback session for a content key",
	Args:  cobra.ExactArgs(1),
	RunE:  runStopCmd,
}

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(stopCmd)
	playCmd.Flags().Int64("resume-from", -1, "Resume position in milliseconds (default: saved progress)")
	playCmd.Flags().Bool("force-external", false, "Skip the embedded attempt")
	playCmd.Flags().String("codec", "", "Primary codec hint for transcode session reuse")
}

func runPlayCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	body := map[string]any{"path": path}
	if resumeFrom, _ := cmd.Flags().GetInt64("resume-from"); resumeFrom >= 0 {
		body["resume_from_ms"] = resumeFrom
	}
	if forceExternal, _ := cmd.Flags().GetBool("force-external"); forceExternal {
		body["force_external"] = true
	}
	if codec, _ := cmd.Flags().GetString("codec"); codec != "" {
		body["codec"] = codec
	}

	var session PlaybackResponse
	if err := client.send("POST", "/api/v1/playback", body, &session); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}

	if jsonOutput {
		printJSON(session)
		return nil
	}
	fmt.Printf("Session: %s\n", session.ContentKey)
	fmt.Printf("State:   %s (%s)\n", session.State, session.Backend)
	if session.Degraded != "" {
		fmt.Printf("Warning: %s\n", session.Degraded)
	}
	return nil
}

func runStopCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	if err := client.send("DELETE", "/api/v1/playback?key="+url.QueryEscape(args[0]), nil, nil); err != nil {
		return fmt.Errorf("stop failed: %w", err)
	}
	if !jsonOutput {
		fmt.Println("Stopped.")
	}
	return nil
}
