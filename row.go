// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"math"
	"sort"
	"strings"
)

// Row is one logical print line across a spread. Left carries the
// hierarchy columns, Right carries the clause description column; both are
// the row's tokens joined with single spaces in x order.
type Row struct {
	Y     float64
	Left  string
	Right string
}

// GroupRows buckets tokens into rows by rounding each token's vertical
// position to the nearest multiple of tolerance. Tokens whose rounded
// positions coincide share a row regardless of which page they came from.
// Rows are returned top to bottom.
func GroupRows(tokens []TaggedToken, tolerance float64) []Row {
	if tolerance <= 0 || len(tokens) == 0 {
		return nil
	}

	buckets := make(map[float64][]TaggedToken)
	for _, t := range tokens {
		y := math.Round(t.Top/tolerance) * tolerance
		buckets[y] = append(buckets[y], t)
	}

	ys := make([]float64, 0, len(buckets))
	for y := range buckets {
		ys = append(ys, y)
	}
	sort.Float64s(ys)

	rows := make([]Row, 0, len(ys))
	for _, y := range ys {
		group := buckets[y]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Left < group[j].Left
		})

		var leftParts, rightParts []string
		for _, t := range group {
			if t.Side == RightPage {
				rightParts = append(rightParts, t.Text)
			} else {
				leftParts = append(leftParts, t.Text)
			}
		}
		rows = append(rows, Row{
			Y:     y,
			Left:  strings.Join(leftParts, " "),
			Right: strings.Join(rightParts, " "),
		})
	}
	return rows
}
