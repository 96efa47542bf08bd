package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"folio.dev/internal/metrics"
)

func newValidateCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the content documents and summarize what would be served",
		Long: `Load and validate the content documents without starting the server.

Prints how many projects were accepted, which fields caused rejections and
which fields were corrected. With --strict any rejection or unreadable
document makes the command fail.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := metrics.New()
			content := a.newContent(m)
			snap, err := content.Build(cmd.Context())
			if err != nil {
				return err
			}

			rejected, err := m.Totals("portfolio_projects_rejected_total", "field")
			if err != nil {
				return errors.Wrap(err, "gather rejections")
			}
			corrected, err := m.Totals("portfolio_field_corrections_total", "field")
			if err != nil {
				return errors.Wrap(err, "gather corrections")
			}

			out := a.out
			fmt.Fprintf(out, "Projects accepted: %d\n", len(snap.Projects))
			fmt.Fprintf(out, "Categories: %d\n", len(snap.Categories))
			for _, c := range snap.Categories {
				fmt.Fprintf(out, "  - %s\n", c)
			}
			rejectedTotal := printTotals(out, "Rejected projects by field", rejected)
			printTotals(out, "Corrected fields", corrected)
			fmt.Fprintf(out, "Hero: %s (%s)\n", snap.Hero.Name, snap.Hero.Title)
			fmt.Fprintf(out, "Profile: %d experience, %d education, %d publications\n",
				len(snap.Profile.Experience), len(snap.Profile.Education), len(snap.Profile.Publications))
			for _, p := range snap.Problems {
				fmt.Fprintf(out, "Problem: %s\n", p)
			}
			if snap.Error != "" {
				fmt.Fprintf(out, "Error: %s\n", snap.Error)
			}

			if strict && (rejectedTotal > 0 || len(snap.Problems) > 0) {
				return errors.Errorf("validation failed: %d rejected projects, %d problems", rejectedTotal, len(snap.Problems))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any project is rejected")
	return cmd
}

func printTotals(out io.Writer, title string, totals map[string]float64) int {
	keys := make([]string, 0, len(totals))
	sum := 0
	for k, v := range totals {
		keys = append(keys, k)
		sum += int(v)
	}
	sort.Strings(keys)
	fmt.Fprintf(out, "%s: %d\n", title, sum)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %d\n", k, int(totals[k]))
	}
	return sum
}
