package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var volumesCmd = &cobra.Command{
	Use:   "volumes",
	Short: "List registered volumes",
	Long: `List every volume the daemon has ever seen, connected or not.

Examples:
  drivebay volumes               # All known volumes
  drivebay volumes --connected   # Only currently mounted volumes`,
	Args: cobra.NoArgs,
	RunE: runVolumesCmd,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Daemon status",
	Args:  cobra.NoArgs,
	RunE:  runStatusCmd,
}

var scanCmd = &cobra.Command{
	Use:   "scan <volume-id>",
	Short: "Trigger a rescan of a connected volume",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanCmd,
}

func init() {
	rootCmd.AddCommand(volumesCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(scanCmd)
	volumesCmd.Flags().Bool("connected", false, "Only show connected volumes")
}

func runVolumesCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	onlyConnected, _ := cmd.Flags().GetBool("connected")

	path := "/api/v1/volumes"
	if onlyConnected {
		path += "?connected=true"
	}

	var vols []VolumeResponse
	if err := client.get(path, &vols); err != nil {
		return fmt.Errorf("list volumes failed: %w", err)
	}

	if jsonOutput {
		printJSON(vols)
		return nil
	}

	if len(vols) == 0 {
		fmt.Println("No volumes registered.")
		return nil
	}
	for _, v := range vols {
		state := "disconnected"
		if v.Connected {
			state = "connected at " + v.MountRoot
		}
		flags := ""
		if v.ScanBlocked {
			flags = " [scan blocked]"
		}
		fmt.Printf("%s  %-16s %s%s\n", v.ID, v.Label, state, flags)
	}
	return nil
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	var status StatusResponse
	if err := client.get("/api/v1/status", &status); err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	if jsonOutput {
		printJSON(status)
		return nil
	}
	fmt.Printf("Server:  %s\n", serverURL)
	fmt.Printf("Status:  %s (%s)\n", status.Status, status.Version)
	fmt.Printf("Volumes: %d connected\n", status.VolumesConnected)
	return nil
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	var resp map[string]string
	if err := client.send("POST", "/api/v1/volumes/"+args[0]+"/scan", nil, &resp); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if jsonOutput {
		printJSON(resp)
		return nil
	}
	fmt.Printf("Scan started for volume %s\n", args[0])
	return nil
}
