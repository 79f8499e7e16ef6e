package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/varoOP/cinelist/internal/app"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape URL...",
	Short: "Scrape one or more lists into a store",
	Long: `Scrape walks every page of each list URL and appends the titles that are
not yet in the store. Supported sites are MDBList, Trakt and Letterboxd.

New titles are resolved against TMDB unless --no-resolve is given:
  Title (2022) [95396]           resolved series
  Title (2016) [movie:329865]    resolved film
  Title [Error]                  no match, fix later with 'cinelist fix errors'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _ := cmd.Flags().GetString("store")
		noResolve, _ := cmd.Flags().GetBool("no-resolve")
		noYear, _ := cmd.Flags().GetBool("no-year")

		return withApp(func(a *app.App) error {
			stats, err := a.Scrape(cmd.Context(), store, args, app.ScrapeOptions{
				NoResolve: noResolve,
				NoYear:    noYear,
			})
			if err != nil {
				return fmt.Errorf("scrape failed: %w", err)
			}

			fmt.Printf("%d titles scraped, %d new (%d from cache), %d already present\n",
				stats.Titles, stats.New, stats.CacheHits, stats.Skipped)
			return nil
		})
	},
}

func init() {
	scrapeCmd.Flags().StringP("store", "s", "", "store to write to, relative to the root path (required)")
	scrapeCmd.Flags().Bool("no-resolve", false, "write bare titles without TMDB lookups")
	scrapeCmd.Flags().Bool("no-year", false, "do not append the release year to resolved titles")
	scrapeCmd.MarkFlagRequired("store")
	rootCmd.AddCommand(scrapeCmd)
}
