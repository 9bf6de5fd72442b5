// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/civictech-fuji/budgetbook"
	"github.com/spf13/cobra"
)

var csvOut string

var csvCmd = &cobra.Command{
	Use:   "csv <document.json>",
	Short: "Flatten an extracted document into spreadsheet-ready CSV",
	Long: `CSV emits one row per node with the full chapter/section/item/clause
path spelled out, UTF-8 with BOM so spreadsheet applications detect the
encoding.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		doc, err := budgetbook.ParseDocument(data)
		if err != nil {
			return fmt.Errorf("parse document %s: %w", args[0], err)
		}

		out := io.Writer(cmd.OutOrStdout())
		if csvOut != "" {
			f, err := os.Create(csvOut)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			out = f
		}
		return budgetbook.WriteCSV(out, doc)
	},
}

func init() {
	csvCmd.Flags().StringVarP(&csvOut, "output", "o", "", "Write CSV to a file instead of stdout")

	rootCmd.AddCommand(csvCmd)
}
