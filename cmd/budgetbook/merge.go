// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/civictech-fuji/budgetbook"
	"github.com/spf13/cobra"
)

var mergeRevenue []string
var mergeExpenditure []string
var mergeOut string

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Normalize per-chapter JSON files and merge them into one document",
	Long: `Merge takes hand-maintained or legacy per-chapter JSON files, normalizes
their key variants (Japanese aliases, flat name fields) to the canonical
shape, and assembles them into a single document. Chapters keep the order
the files were given in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(mergeRevenue) == 0 && len(mergeExpenditure) == 0 {
			return fmt.Errorf("nothing to merge: pass --revenue and/or --expenditure files")
		}

		revenue, err := readChapterFiles(mergeRevenue)
		if err != nil {
			return err
		}
		expenditure, err := readChapterFiles(mergeExpenditure)
		if err != nil {
			return err
		}

		merged, err := budgetbook.MergeChapters(revenue, expenditure)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := json.Indent(&buf, merged, "", "  "); err != nil {
			return err
		}
		buf.WriteByte('\n')

		out := io.Writer(cmd.OutOrStdout())
		if mergeOut != "" {
			f, err := os.Create(mergeOut)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			out = f
		}
		_, err = out.Write(buf.Bytes())
		return err
	},
}

func init() {
	mergeCmd.Flags().StringSliceVar(&mergeRevenue, "revenue", nil, "Revenue chapter JSON files, in book order")
	mergeCmd.Flags().StringSliceVar(&mergeExpenditure, "expenditure", nil, "Expenditure chapter JSON files, in book order")
	mergeCmd.Flags().StringVarP(&mergeOut, "output", "o", "", "Write the merged document to a file instead of stdout")

	rootCmd.AddCommand(mergeCmd)
}

func readChapterFiles(paths []string) ([][]byte, error) {
	chunks := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, data)
	}
	return chunks, nil
}
