// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"regexp"
	"strconv"
	"strings"
)

// Clause is a fourth-level (節) entry reconstructed from the right page of
// a spread. Anchor and Lines are working state for assembly: Anchor is the
// row position used to claim the clause for an item, Lines collects the
// raw description text that StructureRationale later parses.
type Clause struct {
	Name      string
	Amount    int64
	Anchor    float64
	Lines     []string
	Rationale *Rationale
}

var clauseAmountRe = regexp.MustCompile(`^[0-9,]+$`)

// ExtractClauses scans one row's right-column text for clause starts. A
// bare integer token opens a candidate; the following non-numeric tokens
// concatenate (without separators, the column prints names one glyph per
// token) into the clause name until a comma-grouped number at or above the
// layout's minimum is read as the amount. Everything after the amount
// becomes the clause's first description line, and scanning resumes right
// after the amount token so one row can yield several clauses.
func ExtractClauses(rightText string, anchor float64, layout *Layout) []*Clause {
	parts := strings.Fields(foldWidth(rightText))

	var clauses []*Clause
	i := 0
	for i < len(parts) {
		if !isDigits(parts[i]) {
			i++
			continue
		}

		var nameParts []string
		var amount *int64
		j := i + 1
		for j < len(parts) {
			if clauseAmountRe.MatchString(parts[j]) {
				val, err := strconv.ParseInt(strings.ReplaceAll(parts[j], ",", ""), 10, 64)
				if err == nil && val >= layout.MinClauseAmount {
					scaled := val * layout.UnitScale
					amount = &scaled
					break
				}
			}
			nameParts = append(nameParts, parts[j])
			j++
		}

		if len(nameParts) > 0 && amount != nil {
			c := &Clause{
				Name:   strings.Join(nameParts, ""),
				Amount: *amount,
				Anchor: anchor,
			}
			if rest := strings.Join(parts[j+1:], " "); rest != "" {
				c.Lines = append(c.Lines, rest)
			}
			clauses = append(clauses, c)
			i = j + 1
			continue
		}
		i++
	}
	return clauses
}

// ExtractSpreadClauses runs the clause scan over every row of a spread.
// Rows that start no clause extend the most recently started one, so a
// description that wraps over several print lines stays with its clause.
// Each clause's rationale is structured once its lines are complete.
func ExtractSpreadClauses(rows []Row, layout *Layout) []*Clause {
	var clauses []*Clause
	var open *Clause
	for _, row := range rows {
		text := strings.TrimSpace(foldWidth(row.Right))
		if text == "" || isClauseNoise(text) {
			continue
		}
		found := ExtractClauses(row.Right, row.Y, layout)
		if len(found) > 0 {
			clauses = append(clauses, found...)
			open = found[len(found)-1]
			continue
		}
		if open != nil {
			open.Lines = append(open.Lines, text)
		}
	}
	for _, c := range clauses {
		c.Rationale = StructureRationale(c.Name, c.Lines, layout)
	}
	return clauses
}

// isClauseNoise filters the right page's recurring furniture: the 節/説明
// column header, the 区分/金額 banner, unit-only rows and page numbers.
func isClauseNoise(text string) bool {
	if strings.Contains(text, "節") && strings.Contains(text, "説") {
		return true
	}
	if strings.Contains(text, "区 分") || strings.Contains(text, "金 額") {
		return true
	}
	if allFieldsAre(text, "千円") {
		return true
	}
	return pageNumberRe.MatchString(text)
}

// isDigits reports whether s is entirely ASCII digits. A comma-grouped
// amount is not a clause start; only bare sequence numbers are.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
