// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/civictech-fuji/budgetbook"
	"github.com/spf13/cobra"
)

var extractOut string
var extractReportPath string
var extractStrict bool
var extractWorkers int
var extractTimeout time.Duration
var extractRetries int

var extractCmd = &cobra.Command{
	Use:   "extract <book.pdf>",
	Short: "Extract the revenue and expenditure trees from a budget book",
	Long: `Extract tokenizes the pages of both flow ranges, reconstructs the
chapter/section/item/clause hierarchy and writes it as JSON.

In best-effort mode (the default) unreadable pages fold as empty spreads
and are listed in the run report; --strict aborts on the first bad page.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		layout, err := activeLayout()
		if err != nil {
			return err
		}

		cfg := budgetbook.NewDefaultConfig()
		cfg.MaxWorkersPerBook = extractWorkers
		cfg.WorkerTimeout = extractTimeout
		cfg.MaxRetries = extractRetries
		cfg.DebugOn = debugOn
		cfg.Logger = newLogFunc()
		if extractStrict {
			cfg.ParsingMode = budgetbook.Strict
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		book, err := budgetbook.OpenBook(args[0])
		if err != nil {
			return err
		}
		defer book.Close()

		proc := budgetbook.NewProcessor(cfg, layout)
		doc, report, err := proc.ExtractDocument(cmd.Context(), book)
		if err != nil {
			return err
		}

		out := io.Writer(cmd.OutOrStdout())
		if extractOut != "" {
			f, err := os.Create(extractOut)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			out = f
		}
		if err := doc.Encode(out); err != nil {
			return err
		}

		if extractReportPath != "" {
			if err := writeRunReport(extractReportPath, report); err != nil {
				return err
			}
		}

		printExtractSummary(cmd.ErrOrStderr(), args[0], doc, report)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractOut, "output", "o", "", "Write the document JSON to a file instead of stdout")
	extractCmd.Flags().StringVar(&extractReportPath, "report", "", "Write the run report JSON to a file")
	extractCmd.Flags().BoolVar(&extractStrict, "strict", false, "Abort on the first unreadable page")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 4, "Page tokenization workers")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 30*time.Second, "Per-page tokenization timeout")
	extractCmd.Flags().IntVar(&extractRetries, "retries", 2, "Retries per failed page")

	rootCmd.AddCommand(extractCmd)
}

func writeRunReport(path string, report *budgetbook.RunReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
