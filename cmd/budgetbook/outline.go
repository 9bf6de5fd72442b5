// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"

	"github.com/civictech-fuji/budgetbook"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var outlineYAML bool

var outlineCmd = &cobra.Command{
	Use:   "outline <book.pdf>",
	Short: "Scan chapter headers and suggest flow page ranges",
	Long: `Outline walks every page looking for chapter headers (款) and prints
where each chapter starts. The flow boundary is inferred from the chapter
numbering restarting at 1 deep into the book.

With --yaml the suggested ranges are emitted as a complete layout profile
ready for --layout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		layout, err := activeLayout()
		if err != nil {
			return err
		}

		book, err := budgetbook.OpenBook(args[0])
		if err != nil {
			return err
		}
		defer book.Close()

		spans, err := budgetbook.ScanOutline(cmd.Context(), book, layout.RowTolerance)
		if err != nil {
			return err
		}
		if len(spans) == 0 {
			return fmt.Errorf("no chapter headers found in %s", args[0])
		}

		out := cmd.OutOrStdout()
		revenue, expenditure, ok := budgetbook.SuggestRanges(spans)

		if outlineYAML {
			if !ok {
				return fmt.Errorf("could not locate both flows; rerun without --yaml to inspect the spans")
			}
			profile := *layout
			profile.Revenue = revenue
			profile.Expenditure = expenditure
			data, err := yaml.Marshal(&profile)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		}

		for _, span := range spans {
			fmt.Fprintf(out, "%s %s %s %s\n",
				dimStyle.Render(fmt.Sprintf("%-12s", span.Flow)),
				fmt.Sprintf("%2d款", span.Number),
				titleStyle.Render(span.Name),
				dimStyle.Render(fmt.Sprintf("pages %d-%d", span.First, span.Last)),
			)
		}
		if ok {
			fmt.Fprintf(out, "\n%s revenue %d-%d, expenditure %d-%d\n",
				successStyle.Render("suggested ranges:"),
				revenue.First, revenue.Last, expenditure.First, expenditure.Last)
		}
		return nil
	},
}

func init() {
	outlineCmd.Flags().BoolVar(&outlineYAML, "yaml", false, "Emit the suggested ranges as a layout profile")

	rootCmd.AddCommand(outlineCmd)
}
