// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/civictech-fuji/budgetbook"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// successStyle for success indicators
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// warnStyle for recoverable extraction losses
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// errorStyle for error indicators
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for the run summary with rounded border
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// printExtractSummary renders the per-flow node counts and any losses the
// run report recorded.
func printExtractSummary(w io.Writer, path string, doc *budgetbook.Document, report *budgetbook.RunReport) {
	rev := budgetbook.CountFlow(doc.Revenue)
	exp := budgetbook.CountFlow(doc.Expenditure)

	content := fmt.Sprintf("%s\n%s %s\n%s %s",
		titleStyle.Render(path),
		dimStyle.Render("revenue:    "), flowLine(rev),
		dimStyle.Render("expenditure:"), flowLine(exp),
	)
	for _, loss := range lossLines(report) {
		content += "\n" + warnStyle.Render(loss)
	}

	fmt.Fprintln(w, boxStyle.Render(content))
}

func flowLine(st budgetbook.FlowStats) string {
	return fmt.Sprintf("%d chapters, %d sections, %d items, %d clauses",
		st.Chapters, st.Sections, st.Items, st.Clauses)
}

func lossLines(report *budgetbook.RunReport) []string {
	var lines []string
	each := func(flow string, r *budgetbook.Report) {
		if r == nil {
			return
		}
		if n := len(r.EmptyPages); n > 0 {
			lines = append(lines, fmt.Sprintf("%s: %d empty pages", flow, n))
		}
		if r.UnknownRows > 0 {
			lines = append(lines, fmt.Sprintf("%s: %d unclassified rows", flow, r.UnknownRows))
		}
		if r.OrphanSections > 0 || r.OrphanItems > 0 {
			lines = append(lines, fmt.Sprintf("%s: %d orphan sections, %d orphan items", flow, r.OrphanSections, r.OrphanItems))
		}
		if r.DroppedClauses > 0 {
			lines = append(lines, fmt.Sprintf("%s: %d dropped clauses", flow, r.DroppedClauses))
		}
	}
	each("revenue", report.Revenue)
	each("expenditure", report.Expenditure)
	return lines
}
