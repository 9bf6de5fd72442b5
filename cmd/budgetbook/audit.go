// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/civictech-fuji/budgetbook"
	"github.com/spf13/cobra"
)

var auditReportPath string

var auditCmd = &cobra.Command{
	Use:   "audit <document.json>",
	Short: "Cross-check a document's printed amounts against its structure",
	Long: `Audit lints the document tree and compares every printed parent amount
with the sum of its children. With --report it also checks the 計 rows the
extraction observed against the reconstructed section sums.

Findings are pointers for human review; the document is never modified.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		doc, err := budgetbook.ParseDocument(data)
		if err != nil {
			return fmt.Errorf("parse document %s: %w", args[0], err)
		}

		findings := budgetbook.AuditDocument(doc)

		if auditReportPath != "" {
			report, err := readRunReport(auditReportPath)
			if err != nil {
				return err
			}
			if report.Revenue != nil {
				findings = append(findings, budgetbook.AuditTotals(budgetbook.FlowRevenue, doc.Revenue, report.Revenue.Totals)...)
			}
			if report.Expenditure != nil {
				findings = append(findings, budgetbook.AuditTotals(budgetbook.FlowExpenditure, doc.Expenditure, report.Expenditure.Totals)...)
			}
		}

		out := cmd.OutOrStdout()
		if len(findings) == 0 {
			fmt.Fprintln(out, successStyle.Render("audit clean: all cross-checks passed"))
			return nil
		}
		for _, f := range findings {
			fmt.Fprintf(out, "%s %s\n", errorStyle.Render(f.Path+":"), f.Message)
		}
		return fmt.Errorf("%d findings", len(findings))
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditReportPath, "report", "", "Run report JSON from extract --report, enables total-row checks")

	rootCmd.AddCommand(auditCmd)
}

func readRunReport(path string) (*budgetbook.RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var report budgetbook.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &report, nil
}
