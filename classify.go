// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// RowTag is the structural role of one left-column row.
type RowTag int

const (
	TagEmpty RowTag = iota
	TagHeaderNoise
	TagPageNumber
	TagChapterHeader
	TagSectionHeader
	TagItemRow
	TagTotalRow
	TagUnknown
)

func (t RowTag) String() string {
	switch t {
	case TagEmpty:
		return "empty"
	case TagHeaderNoise:
		return "header-noise"
	case TagPageNumber:
		return "page-number"
	case TagChapterHeader:
		return "chapter-header"
	case TagSectionHeader:
		return "section-header"
	case TagItemRow:
		return "item-row"
	case TagTotalRow:
		return "total-row"
	default:
		return "unknown"
	}
}

// RowClass is the outcome of classifying one row: its tag plus whatever
// fields the matching rule extracted. Amount fields are nil when the
// printed text was not a readable number.
type RowClass struct {
	Tag     RowTag
	Number  string
	Name    string
	Current *int64
	Prior   *int64
	Delta   *int64
}

// The left column of a spread repeats one print template per row. Each
// rule pairs a predicate with an extractor; the first rule that applies
// wins, so order encodes precedence (計 before generic numbered rows, for
// example). Inputs are width-folded first, so the patterns only need the
// ASCII digit forms.
var (
	pageNumberRe = regexp.MustCompile(`^-\s*[0-9]+\s*-$`)
	chapterRe    = regexp.MustCompile(`^\(?([0-9]+)款\s+(.+?)\s+([0-9,]+)千円`)
	sectionRe    = regexp.MustCompile(`^([0-9]+)項\s+(.+?)\s+([0-9,]+)千円`)
	totalRe      = regexp.MustCompile(`^計\s+([0-9,△-]+)\s+([0-9,△-]+)\s+([0-9,△-]+)`)
	itemRe       = regexp.MustCompile(`^([0-9]+)\s+(.+?)\s+([0-9,△-]+)\s+([0-9,△-]+)\s+([0-9,△-]+)`)
)

type rowRule struct {
	tag   RowTag
	match func(s string, scale int64) *RowClass
}

var rowRules = []rowRule{
	{TagEmpty, matchEmpty},
	{TagHeaderNoise, matchHeaderNoise},
	{TagPageNumber, matchPageNumber},
	{TagChapterHeader, matchChapterHeader},
	{TagSectionHeader, matchSectionHeader},
	{TagTotalRow, matchTotalRow},
	{TagItemRow, matchItemRow},
}

// ClassifyRow tags one left-column row. The function is total: every input
// maps to exactly one tag, with TagUnknown as the fallback carrying the
// folded text in Name for diagnostics. scale converts printed amounts
// (thousands of yen) into yen.
func ClassifyRow(left string, scale int64) RowClass {
	s := strings.TrimSpace(foldWidth(left))
	for _, rule := range rowRules {
		if c := rule.match(s, scale); c != nil {
			return *c
		}
	}
	return RowClass{Tag: TagUnknown, Name: s}
}

func matchEmpty(s string, _ int64) *RowClass {
	if s == "" {
		return &RowClass{Tag: TagEmpty}
	}
	return nil
}

func matchHeaderNoise(s string, _ int64) *RowClass {
	if strings.Contains(s, "本年度予算額") || strings.Contains(s, "前年度予算額") {
		return &RowClass{Tag: TagHeaderNoise}
	}
	if allFieldsAre(s, "千円") {
		return &RowClass{Tag: TagHeaderNoise}
	}
	return nil
}

func matchPageNumber(s string, _ int64) *RowClass {
	if pageNumberRe.MatchString(s) {
		return &RowClass{Tag: TagPageNumber}
	}
	return nil
}

func matchChapterHeader(s string, scale int64) *RowClass {
	m := chapterRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	return &RowClass{
		Tag:     TagChapterHeader,
		Number:  m[1],
		Name:    strings.TrimSpace(m[2]),
		Current: parseAmount(m[3], scale),
	}
}

func matchSectionHeader(s string, scale int64) *RowClass {
	m := sectionRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	return &RowClass{
		Tag:     TagSectionHeader,
		Number:  m[1],
		Name:    strings.TrimSpace(m[2]),
		Current: parseAmount(m[3], scale),
	}
}

func matchTotalRow(s string, scale int64) *RowClass {
	m := totalRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	return &RowClass{
		Tag:     TagTotalRow,
		Current: parseAmount(m[1], scale),
		Prior:   parseAmount(m[2], scale),
		Delta:   parseAmount(m[3], scale),
	}
}

func matchItemRow(s string, scale int64) *RowClass {
	m := itemRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	return &RowClass{
		Tag:     TagItemRow,
		Number:  m[1],
		Name:    strings.TrimSpace(m[2]),
		Current: parseAmount(m[3], scale),
		Prior:   parseAmount(m[4], scale),
		Delta:   parseAmount(m[5], scale),
	}
}

// foldWidth canonicalizes full-width digits, punctuation and spaces to
// their half-width forms so one pattern set covers both print variants.
func foldWidth(s string) string {
	return width.Fold.String(s)
}

// allFieldsAre reports whether the row consists solely of the given word,
// repeated one or more times. The unit banner row prints 千円 once per
// amount column.
func allFieldsAre(s, word string) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if f != word {
			return false
		}
	}
	return true
}

// parseAmount converts a printed amount into yen. △ is the bookkeeping
// minus sign; 千円 suffixes and digit group commas are stripped. Returns
// nil when the remainder is not an integer, so a smudged or OCR-damaged
// cell degrades to a null amount instead of a wrong one.
func parseAmount(s string, scale int64) *int64 {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "△", "-")
	s = strings.ReplaceAll(s, "千円", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	n *= scale
	return &n
}
