// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves pages from fixed maps. Both maps are read-only after
// construction, so concurrent PageTokens calls are safe.
type fakeSource struct {
	pages map[int]Page
	fail  map[int]error
	total int
}

func (f *fakeSource) NumPages() int { return f.total }

func (f *fakeSource) PageTokens(ctx context.Context, number int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if err, ok := f.fail[number]; ok {
		return Page{}, err
	}
	if page, ok := f.pages[number]; ok {
		return page, nil
	}
	return Page{Number: number}, nil
}

func expenditurePages() map[int]Page {
	return map[int]Page{
		34: {Number: 34, Width: 612, Tokens: []Token{
			word("1款", 40, 50), word("議会費", 80, 50), word("306,000千円", 200, 50),
			word("1項", 40, 100), word("議会費", 80, 100), word("306,000千円", 200, 100),
			word("1", 40, 150), word("議会費", 60, 150), word("306,000", 150, 150),
			word("300,000", 250, 150), word("6,000", 350, 150),
		}},
		35: {Number: 35, Width: 612, Tokens: []Token{
			word("1", 40, 150), word("議員報酬", 60, 150), word("150,000", 200, 150),
		}},
	}
}

func testLayout() *Layout {
	layout := DefaultLayout()
	layout.Revenue = PageRange{First: 28, Last: 33}
	layout.Expenditure = PageRange{First: 34, Last: 37}
	return layout
}

func newTestSource(fail map[int]error) *fakeSource {
	pages := samplePages()
	for n, p := range expenditurePages() {
		pages[n] = p
	}
	return &fakeSource{pages: pages, fail: fail, total: 37}
}

// create a Processor
func newTestProcessor(mode ParsingMode) *processor {
	cfg := NewDefaultConfig()
	cfg.ParsingMode = mode
	return NewProcessor(cfg, testLayout())
}

func TestProcessor_ExtractDocument(t *testing.T) {
	proc := newTestProcessor(BestEffort)
	doc, report, err := proc.ExtractDocument(context.Background(), newTestSource(nil))
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.NotNil(t, report)

	rev := CountFlow(doc.Revenue)
	assert.Equal(t, FlowStats{Chapters: 2, Sections: 2, Items: 4, Clauses: 4}, rev)

	require.Len(t, doc.Expenditure, 1)
	gikai := doc.Expenditure[0]
	assert.Equal(t, "議会費", gikai.Name)
	require.Len(t, gikai.Sections, 1)
	require.Len(t, gikai.Sections[0].Items, 1)
	item := gikai.Sections[0].Items[0]
	assert.Equal(t, i64(306000000), item.Current)
	require.Len(t, item.Clauses, 1)
	assert.Equal(t, "議員報酬", item.Clauses[0].Name)
	assert.Equal(t, int64(150000000), item.Clauses[0].Amount)

	// Pages 36 and 37 exist but carry no tokens.
	assert.Equal(t, []int{36, 37}, report.Expenditure.EmptyPages)
	assert.Empty(t, report.Revenue.EmptyPages)
}

// Strict mode aborts on the first unreadable page.
func TestProcessor_ExtractDocument_Strict(t *testing.T) {
	proc := newTestProcessor(Strict)
	src := newTestSource(map[int]error{30: assert.AnError})

	_, _, err := proc.ExtractDocument(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict mode failed on page 30")
}

// Best-effort mode folds an unreadable page as an empty spread half and
// reports it.
func TestProcessor_ExtractDocument_BestEffort(t *testing.T) {
	proc := newTestProcessor(BestEffort)
	src := newTestSource(map[int]error{30: assert.AnError})

	doc, report, err := proc.ExtractDocument(context.Background(), src)
	require.NoError(t, err)
	assert.Contains(t, report.Revenue.EmptyPages, 30)

	// With page 30 gone the 固定資産税 item never appears; the clauses of
	// its spread carry to the last item still open.
	require.Len(t, doc.Revenue, 2)
	sec := doc.Revenue[0].Sections[0]
	require.Len(t, sec.Items, 2)
	hojin := sec.Items[1]
	assert.Equal(t, "法人", hojin.Name)
	assert.Len(t, hojin.Clauses, 3)
}

func TestProcessor_ExtractDocument_CancelledContext(t *testing.T) {
	proc := newTestProcessor(BestEffort)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := proc.ExtractDocument(ctx, newTestSource(nil))
	assert.Error(t, err)
}

func TestNewProcessor_PanicsOnInvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MaxConcurrentBooks = 0

	assert.Panics(t, func() {
		NewProcessor(cfg, nil)
	})
}

func TestNewProcessor_PanicsOnInvalidLayout(t *testing.T) {
	layout := DefaultLayout()
	layout.RowTolerance = -1

	assert.Panics(t, func() {
		NewProcessor(NewDefaultConfig(), layout)
	})
}

// StrictExtractor
func TestStrictExtractor_ExtractPage(t *testing.T) {
	src := newTestSource(map[int]error{30: assert.AnError})
	ex := &StrictExtractor{}

	page, err := ex.ExtractPage(context.Background(), src, 28)
	require.NoError(t, err)
	assert.NotEmpty(t, page.Tokens)

	_, err = ex.ExtractPage(context.Background(), src, 30)
	assert.Error(t, err)
}

// BestEffortExtractor
func TestBestEffortExtractor_ExtractPage(t *testing.T) {
	src := newTestSource(map[int]error{30: assert.AnError})
	ex := &BestEffortExtractor{}

	page, err := ex.ExtractPage(context.Background(), src, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, page.Number)
	assert.Empty(t, page.Tokens)
}

func TestAdjustWorkerCount(t *testing.T) {
	proc := &processor{}

	assert.Equal(t, 1, proc.adjustWorkerCount(0))
	assert.Equal(t, runtime.NumCPU(), proc.adjustWorkerCount(runtime.NumCPU()))
}

func TestClampRange(t *testing.T) {
	assert.Equal(t, PageRange{First: 28, Last: 30}, clampRange(PageRange{First: 28, Last: 175}, 30))
	assert.Equal(t, PageRange{First: 28, Last: 175}, clampRange(PageRange{First: 28, Last: 175}, 600))
	// A range entirely beyond the book collapses.
	rng := clampRange(PageRange{First: 176, Last: 596}, 30)
	assert.Equal(t, rng.First, rng.Last)
}

func TestNeededPages(t *testing.T) {
	pages := neededPages(PageRange{First: 28, Last: 33}, PageRange{First: 34, Last: 37})
	assert.Equal(t, []int{28, 29, 30, 31, 32, 33, 34, 35, 36, 37}, pages)

	// A collapsed range needs nothing.
	assert.Empty(t, neededPages(PageRange{First: 30, Last: 30}))

	// Overlapping ranges deduplicate.
	pages = neededPages(PageRange{First: 28, Last: 31}, PageRange{First: 28, Last: 31})
	assert.Equal(t, []int{28, 29, 30, 31}, pages)
}
