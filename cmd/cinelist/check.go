package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/varoOP/cinelist/internal/app"
)

var checkCmd = &cobra.Command{
	Use:   "check [STORE...]",
	Short: "Count [Error] lines and duplicates without changing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			results, err := a.Check(cmd.Context(), args)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Store, strconv.Itoa(r.Errors()), strconv.Itoa(r.Duplicates())})
			}
			fmt.Println(renderTable([]string{"Store", "Errors", "Duplicates"}, rows, 2, 3))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
