package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/varoOP/cinelist/internal/app"
)

var searchCmd = &cobra.Command{
	Use:   "search TITLE",
	Short: "Look up a title on TMDB and print its store line",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			line, m, err := a.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Println(line)
			if m.Matched {
				fmt.Printf("https://www.themoviedb.org/%s/%d\n", m.Kind, m.ID)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
