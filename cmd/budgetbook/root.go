// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/civictech-fuji/budgetbook"
	"github.com/civictech-fuji/budgetbook/logger"
	"github.com/spf13/cobra"
)

var debugOn bool
var layoutPath string

var rootCmd = &cobra.Command{
	Use:   "budgetbook",
	Short: "Reconstruct structured budget data from municipal budget book PDFs",
	Long: `budgetbook reads the positioned text of a Japanese municipal budget book
and rebuilds the ledger hierarchy it prints: chapters (款), sections (項),
items (目) and clauses (節), with the clause rationale text structured into
sub-items and annotations.

Page geometry and flow page ranges come from a layout profile; the built-in
profile matches the Fuji City general-account budget book.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetLogger(newLogFunc())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugOn, "debug", false, "Emit debug logs as JSON on stderr")
	rootCmd.PersistentFlags().StringVar(&layoutPath, "layout", "", "YAML layout profile (default: built-in Fuji City layout)")
}

// Execute runs the root command
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

// newLogFunc returns nil unless --debug is set, leaving the library's
// no-op logger in place.
func newLogFunc() logger.LogFunc {
	if !debugOn {
		return nil
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return logger.Slog(slog.New(handler))
}

func activeLayout() (*budgetbook.Layout, error) {
	if layoutPath == "" {
		return budgetbook.DefaultLayout(), nil
	}
	return budgetbook.LoadLayout(layoutPath)
}
