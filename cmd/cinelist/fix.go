package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/varoOP/cinelist/internal/app"
	"github.com/varoOP/cinelist/internal/domain"
	"github.com/varoOP/cinelist/internal/maintain"
)

var fixCmd = &cobra.Command{
	Use:   "fix errors|duplicates|all [STORE...]",
	Short: "Repair [Error] lines and remove duplicates",
	Long: `Fix repairs stores in place. With no stores given, every .txt store under
the root path is fixed.

  errors       re-resolve [Error] lines from other stores, then TMDB
  duplicates   keep one line per title and year, preferring resolved lines
  all          errors, then duplicates`,
	Args:      cobra.MinimumNArgs(1),
	ValidArgs: []string{"errors", "duplicates", "all"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds, err := parseKinds(args[0])
		if err != nil {
			return err
		}

		return withApp(func(a *app.App) error {
			results, err := a.Fix(cmd.Context(), kinds, args[1:])
			if err != nil {
				return fmt.Errorf("fix failed: %w", err)
			}

			fmt.Println(fixTable(results))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(fixCmd)
}

func parseKinds(arg string) ([]domain.CheckKind, error) {
	switch arg {
	case "errors":
		return []domain.CheckKind{domain.CheckErrors}, nil
	case "duplicates", "dupes":
		return []domain.CheckKind{domain.CheckDuplicates}, nil
	case "all":
		return []domain.CheckKind{domain.CheckErrors, domain.CheckDuplicates}, nil
	default:
		return nil, fmt.Errorf("unknown fix %q (must be 'errors', 'duplicates' or 'all')", arg)
	}
}

func fixTable(results []maintain.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		row := []string{r.Store, "-", "-", "-", "-"}
		if r.Repair != nil {
			row[1] = strconv.Itoa(r.Repair.Found)
			row[2] = strconv.Itoa(r.Repair.Fixed())
		}
		if r.Dedupe != nil {
			row[3] = strconv.Itoa(r.Dedupe.Found)
			row[4] = strconv.Itoa(r.Dedupe.Removed)
		}
		rows = append(rows, row)
	}
	return renderTable([]string{"Store", "Errors", "Fixed", "Duplicates", "Removed"}, rows, 2, 3, 4, 5)
}
