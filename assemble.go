// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"fmt"
	"math"

	"github.com/civictech-fuji/budgetbook/logger"
)

// TotalObservation records a printed 計 row. Totals are checkable output,
// never tree nodes; AuditTotals compares them against reconstructed sums.
type TotalObservation struct {
	Chapter string `json:"chapter,omitempty"`
	Section string `json:"section,omitempty"`
	Current *int64 `json:"current"`
	Prior   *int64 `json:"prior"`
	Delta   *int64 `json:"delta"`
	Page    int    `json:"page"`
}

// Report tallies what one flow's assembly observed and what it had to
// drop. Page-acquisition failures surface here as empty pages.
type Report struct {
	Spreads        int                `json:"spreads"`
	Rows           int                `json:"rows"`
	UnknownRows    int                `json:"unknownRows"`
	OrphanSections int                `json:"orphanSections"`
	OrphanItems    int                `json:"orphanItems"`
	DroppedClauses int                `json:"droppedClauses"`
	EmptyPages     []int              `json:"emptyPages,omitempty"`
	Totals         []TotalObservation `json:"totals,omitempty"`
}

// RunReport pairs the per-flow assembly reports of one extraction run.
type RunReport struct {
	Revenue     *Report `json:"revenue"`
	Expenditure *Report `json:"expenditure"`
}

// AssemblyState threads the fold across spreads: the open chapter and
// section, the chapter-scoped section registry (continuation spreads
// restate section headers, which must resume rather than duplicate), and
// the most recently appended item, which stays claimable so clause lines
// wrapping onto the next spread still reach it.
type AssemblyState struct {
	chapters []*Chapter
	chapter  *Chapter
	section  *Section
	sections map[string]*Section
	lastItem *Item
	report   *Report
}

func NewAssemblyState() *AssemblyState {
	return &AssemblyState{report: &Report{}}
}

// Assembler folds classified spreads into a chapter tree.
type Assembler struct {
	layout *Layout
}

func NewAssembler(layout *Layout) *Assembler {
	if layout == nil {
		layout = DefaultLayout()
	}
	return &Assembler{layout: layout}
}

// AssembleRange walks one flow's page range in facing pairs: (First,
// First+1), (First+2, First+3) and so on. A trailing unpaired page is not
// processed. Missing or empty pages fold as empty spreads and are recorded.
// The range should already be clamped to the book's page count.
func (a *Assembler) AssembleRange(pages map[int]Page, rng PageRange) ([]*Chapter, *Report) {
	st := NewAssemblyState()
	for left := rng.First; left < rng.Last; left += 2 {
		lp, ok := pages[left]
		if !ok {
			lp = Page{Number: left}
		}
		rp, ok := pages[left+1]
		if !ok {
			rp = Page{Number: left + 1}
		}
		if len(lp.Tokens) == 0 {
			st.report.EmptyPages = append(st.report.EmptyPages, left)
		}
		if len(rp.Tokens) == 0 {
			st.report.EmptyPages = append(st.report.EmptyPages, left+1)
		}
		a.FoldSpread(st, lp, rp)
	}
	return a.Finish(st)
}

// FoldSpread folds one facing-page pair into the state. Classification
// runs over every row first so item claim intervals are known before any
// clause is assigned: an item claims the clauses anchored in
// [itemY-margin, nextItemY-margin), the last item's interval extending to
// the bottom of the spread.
func (a *Assembler) FoldSpread(st *AssemblyState, left, right Page) {
	st.report.Spreads++
	rows := GroupRows(AlignSpread(left, right), a.layout.RowTolerance)
	if len(rows) == 0 {
		return
	}
	st.report.Rows += len(rows)

	classes := make([]RowClass, len(rows))
	var itemYs []float64
	for i, row := range rows {
		classes[i] = ClassifyRow(row.Left, a.layout.UnitScale)
		if classes[i].Tag == TagItemRow {
			itemYs = append(itemYs, row.Y)
		}
	}

	pending := ExtractSpreadClauses(rows, a.layout)

	// Clause lines printed above the first item row continue the previous
	// spread's last item.
	if len(itemYs) > 0 {
		var head []*Clause
		head, pending = splitClausesBefore(pending, itemYs[0]-a.layout.ClaimMargin)
		st.attachCarried(head)
	} else {
		st.attachCarried(pending)
		pending = nil
	}

	itemIdx := 0
	for i, row := range rows {
		rc := classes[i]
		switch rc.Tag {
		case TagChapterHeader:
			st.openChapter(rc)
		case TagSectionHeader:
			st.openSection(rc)
		case TagItemRow:
			lo := row.Y - a.layout.ClaimMargin
			hi := math.Inf(1)
			if itemIdx+1 < len(itemYs) {
				hi = itemYs[itemIdx+1] - a.layout.ClaimMargin
			}
			itemIdx++

			it := st.appendItem(rc)
			if it == nil {
				continue
			}
			it.Clauses, pending = claimClauses(pending, lo, hi)
		case TagTotalRow:
			st.recordTotal(rc, left.Number)
		case TagUnknown:
			st.report.UnknownRows++
			logger.Debug(fmt.Sprintf("Assembler: unclassified row: page=%d text=%q", left.Number, rc.Name))
		}
	}

	if len(pending) > 0 {
		st.report.DroppedClauses += len(pending)
		logger.Debug(fmt.Sprintf("Assembler: dropped unclaimed clauses: page=%d count=%d", right.Number, len(pending)))
	}
}

// Finish flushes the open chapter and returns the assembled tree.
func (a *Assembler) Finish(st *AssemblyState) ([]*Chapter, *Report) {
	st.flushChapter()
	st.lastItem = nil
	return st.chapters, st.report
}

func (st *AssemblyState) openChapter(rc RowClass) {
	if st.chapter != nil && st.chapter.Name != rc.Name {
		st.flushChapter()
	}
	if st.chapter == nil {
		st.chapter = &Chapter{Name: rc.Name, Number: rc.Number, Current: rc.Current}
		st.sections = make(map[string]*Section)
		st.lastItem = nil
		logger.Debug(fmt.Sprintf("Assembler: opened chapter: number=%s name=%s", rc.Number, rc.Name), true)
	}
	// A repeated header on a continuation spread restates the chapter; the
	// section context still resets until its own header repeats.
	st.section = nil
}

func (st *AssemblyState) flushChapter() {
	if st.chapter == nil {
		return
	}
	logger.Debug(fmt.Sprintf("Assembler: closed chapter: name=%s sections=%d", st.chapter.Name, len(st.chapter.Sections)), true)
	st.chapters = append(st.chapters, st.chapter)
	st.chapter = nil
	st.section = nil
	st.sections = nil
}

func (st *AssemblyState) openSection(rc RowClass) {
	if st.chapter == nil {
		st.report.OrphanSections++
		logger.Debug(fmt.Sprintf("Assembler: section header with no open chapter: name=%s", rc.Name))
		return
	}
	if sec, ok := st.sections[rc.Name]; ok {
		st.section = sec
		return
	}
	sec := &Section{Name: rc.Name, Number: rc.Number, Current: rc.Current}
	st.sections[rc.Name] = sec
	st.chapter.Sections = append(st.chapter.Sections, sec)
	st.section = sec
}

func (st *AssemblyState) appendItem(rc RowClass) *Item {
	if st.section == nil {
		st.report.OrphanItems++
		logger.Debug(fmt.Sprintf("Assembler: item row with no open section: name=%s", rc.Name))
		return nil
	}
	it := &Item{
		Name:    rc.Name,
		Number:  rc.Number,
		Current: rc.Current,
		Prior:   rc.Prior,
		Delta:   rc.Delta,
	}
	st.section.Items = append(st.section.Items, it)
	st.lastItem = it
	return it
}

func (st *AssemblyState) recordTotal(rc RowClass, page int) {
	obs := TotalObservation{
		Current: rc.Current,
		Prior:   rc.Prior,
		Delta:   rc.Delta,
		Page:    page,
	}
	if st.chapter != nil {
		obs.Chapter = st.chapter.Name
	}
	if st.section != nil {
		obs.Section = st.section.Name
	}
	st.report.Totals = append(st.report.Totals, obs)
}

func (st *AssemblyState) attachCarried(clauses []*Clause) {
	if len(clauses) == 0 {
		return
	}
	if st.lastItem == nil {
		st.report.DroppedClauses += len(clauses)
		logger.Debug(fmt.Sprintf("Assembler: dropped clauses with no item to claim them: count=%d", len(clauses)))
		return
	}
	st.lastItem.Clauses = append(st.lastItem.Clauses, clauses...)
}

func splitClausesBefore(clauses []*Clause, y float64) (before, after []*Clause) {
	for _, c := range clauses {
		if c.Anchor < y {
			before = append(before, c)
		} else {
			after = append(after, c)
		}
	}
	return before, after
}

func claimClauses(clauses []*Clause, lo, hi float64) (claimed, rest []*Clause) {
	for _, c := range clauses {
		if c.Anchor >= lo && c.Anchor < hi {
			claimed = append(claimed, c)
		} else {
			rest = append(rest, c)
		}
	}
	return claimed, rest
}
