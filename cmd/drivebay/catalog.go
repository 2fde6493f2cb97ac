package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [query]",
	Short: "Browse the catalogs of connected volumes",
	Long: `List movies and shows across every connected volume, or search by
title. The query is fuzzy: typos and partial titles still match.

Examples:
  drivebay catalog                      # Everything on every volume
  drivebay catalog incepton             # Fuzzy title search
  drivebay catalog --volume <id>        # One volume only`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalogCmd,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().String("volume", "", "Restrict to one volume id")
}

func runCatalogCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	volume, _ := cmd.Flags().GetString("volume")

	params := url.Values{}
	if volume != "" {
		params.Set("volume", volume)
	}
	if len(args) > 0 {
		params.Set("q", args[0])
	}
	path := "/api/v1/catalog"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var cat CatalogResponse
	if err := client.get(path, &cat); err != nil {
		return fmt.Errorf("catalog fetch failed: %w", err)
	}

	if jsonOutput {
		printJSON(cat)
		return nil
	}

	if len(cat.Volumes) == 0 {
		fmt.Println("No connected volumes.")
		return nil
	}
	for _, vc := range cat.Volumes {
		fmt.Printf("Volume %s\n", vc.VolumeID)
		if len(vc.Movies) == 0 && len(vc.Shows) == 0 {
			fmt.Println("  (nothing matched)")
			continue
		}
		for _, m := range vc.Movies {
			year := ""
			if m.Year > 0 {
				year = fmt.Sprintf(" (%d)", m.Year)
			}
			fmt.Printf("  movie  %s%s  %s\n", m.Title, year, m.RelPath)
		}
		for _, sh := range vc.Shows {
			fmt.Printf("  show   %s  %d episode(s)\n", sh.Title, len(sh.Episodes))
			for _, ep := range sh.Episodes {
				title := ""
				if ep.Title != "" {
					title = "  " + ep.Title
				}
				fmt.Printf("         S%02dE%02d%s\n", ep.Season, ep.Number, title)
			}
		}
	}
	return nil
}
