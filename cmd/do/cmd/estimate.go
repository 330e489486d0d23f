package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/templui/ecoscan/internal/emission"
)

func EstimateCmd() *cobra.Command {
	var category string
	var list bool

	c := &cobra.Command{
		Use:   "estimate [description]",
		Short: "Print the CO₂ estimate for an activity description",
		Example: `  do estimate --category transport "drove 20 km to work"
  do estimate --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if list {
				for _, cat := range emission.Categories() {
					fmt.Fprintf(out, "%-12s %-12s %.2f\n", cat.ID, cat.Label, cat.Factor)
				}
				return nil
			}

			if _, ok := emission.Lookup(category); !ok {
				return fmt.Errorf("unknown category %q (see do estimate --list)", category)
			}
			desc := strings.TrimSpace(strings.Join(args, " "))
			if desc == "" {
				return fmt.Errorf("description is required")
			}

			co2 := emission.Estimate(category, desc)
			fmt.Fprintf(out, "%.2f kg CO₂ (%s)\n", co2, emission.Classify(co2).Label)
			return nil
		},
	}

	c.Flags().StringVarP(&category, "category", "c", "transport", "activity category")
	c.Flags().BoolVarP(&list, "list", "l", false, "list categories and their coefficients")
	return c
}
