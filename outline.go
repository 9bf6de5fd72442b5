// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/civictech-fuji/budgetbook/logger"
)

// ChapterSpan marks the pages a chapter heading covers: from the page its
// heading first appears on to the page before the next heading.
type ChapterSpan struct {
	Flow   string `json:"flow"`
	Number int    `json:"number"`
	Name   string `json:"name"`
	First  int    `json:"first"`
	Last   int    `json:"last"`
}

var outlineChapterRe = regexp.MustCompile(`([0-9]{1,2})款\s*([^\s]+)`)

// ScanOutline walks every page of the book looking for 款 headings. The
// printed chapter numbers restart at 1 when the book switches from revenue
// to expenditure, so a number falling back to 1 after a high-numbered
// chapter marks the flow transition. Pages that fail to tokenize are
// skipped; the outline is advisory.
func ScanOutline(ctx context.Context, src TokenSource, tolerance float64) ([]ChapterSpan, error) {
	total := src.NumPages()
	type flowKey struct {
		flow string
		num  int
	}
	type firstSeen struct {
		page int
		name string
	}

	seen := make(map[flowKey]firstSeen)
	var order []flowKey
	flow := FlowRevenue
	prev := 0

	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := src.PageTokens(ctx, n)
		if err != nil {
			logger.Debug(fmt.Sprintf("Outline: skipping unreadable page: page=%d err=%v", n, err))
			continue
		}
		rows := GroupRows(AlignSpread(page, Page{}), tolerance)
		for _, row := range rows {
			text := foldWidth(row.Left)
			for _, m := range outlineChapterRe.FindAllStringSubmatch(text, -1) {
				num, err := strconv.Atoi(m[1])
				if err != nil || num == 0 {
					continue
				}
				// Expenditure chapters restart at 1 after the last
				// revenue chapter (around 20 in the general account).
				if flow == FlowRevenue && prev >= 20 && num == 1 {
					flow = FlowExpenditure
				}
				k := flowKey{flow, num}
				if _, ok := seen[k]; !ok {
					seen[k] = firstSeen{page: n, name: m[2]}
					order = append(order, k)
				}
				prev = num
			}
		}
	}

	spans := make([]ChapterSpan, 0, len(order))
	for _, k := range order {
		fs := seen[k]
		spans = append(spans, ChapterSpan{
			Flow:   k.flow,
			Number: k.num,
			Name:   fs.name,
			First:  fs.page,
		})
	}
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].First < spans[j].First
	})
	for i := range spans {
		if i+1 < len(spans) {
			spans[i].Last = spans[i+1].First - 1
		} else {
			spans[i].Last = total
		}
	}
	return spans, nil
}

// SuggestRanges derives the flow page ranges implied by scanned spans,
// ready to drop into a Layout. ok is false when either flow has no spans.
func SuggestRanges(spans []ChapterSpan) (revenue, expenditure PageRange, ok bool) {
	for _, s := range spans {
		switch s.Flow {
		case FlowRevenue:
			if revenue.First == 0 {
				revenue.First = s.First
			}
			revenue.Last = s.Last
		case FlowExpenditure:
			if expenditure.First == 0 {
				expenditure.First = s.First
			}
			expenditure.Last = s.Last
		}
	}
	ok = revenue.First > 0 && expenditure.First > 0
	return revenue, expenditure, ok
}
