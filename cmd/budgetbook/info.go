// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"github.com/civictech-fuji/budgetbook"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <book.pdf>",
	Short: "Print PDF metadata for a budget book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := budgetbook.OpenBook(args[0])
		if err != nil {
			return err
		}
		defer book.Close()

		return book.InfoJSON(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
