// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/civictech-fuji/budgetbook/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Processor defines the contract for reconstructing a budget document
// from a positioned-token source.
type Processor interface {
	ExtractDocument(ctx context.Context, src TokenSource) (*Document, *RunReport, error)
}

// TokenExtractor defines how tokens for a single page are acquired.
// Different strategies handle errors differently (strict vs. best-effort).
type TokenExtractor interface {
	ExtractPage(ctx context.Context, src TokenSource, number int) (Page, error)
}

// StrictExtractor enforces strict parsing.
// If any page fails, the entire extraction fails.
type StrictExtractor struct{}

func (s *StrictExtractor) ExtractPage(ctx context.Context, src TokenSource, number int) (Page, error) {
	return src.PageTokens(ctx, number)
}

// BestEffortExtractor tolerates errors.
// A failed page folds as an empty spread half instead of aborting the run.
type BestEffortExtractor struct{}

func (b *BestEffortExtractor) ExtractPage(ctx context.Context, src TokenSource, number int) (Page, error) {
	page, err := src.PageTokens(ctx, number)
	if err != nil {
		logger.Debug(fmt.Sprintf("BestEffortExtractor: failed to read page tokens, ignoring error: page=%d err=%v", number, err), true)
		return Page{Number: number}, nil
	}
	return page, nil
}

// processor manages extraction with concurrency control and delegates
// page-level work to the chosen TokenExtractor.
type processor struct {
	cfg       *Config
	layout    *Layout
	sem       *semaphore.Weighted
	extractor TokenExtractor
}

// NewProcessor validates the config and layout and creates a new processor.
// Selects the correct TokenExtractor (Strict or BestEffort).
func NewProcessor(cfg *Config, layout *Layout) *processor {
	var extractor TokenExtractor
	switch cfg.ParsingMode {
	case Strict:
		extractor = &StrictExtractor{}
	case BestEffort:
		extractor = &BestEffortExtractor{}
	}

	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	if layout == nil {
		layout = DefaultLayout()
	}
	if err := layout.Validate(); err != nil {
		panic(err)
	}

	if cfg.Logger != nil {
		logger.SetLogger(cfg.Logger)
	}

	logger.Debug(fmt.Sprintf("Processor initialized: parsing_mode=%v, max_concurrent_books=%d, max_workers_per_book=%d",
		cfg.ParsingMode, cfg.MaxConcurrentBooks, cfg.MaxWorkersPerBook), true)

	return &processor{
		cfg:       cfg,
		layout:    layout,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrentBooks)),
		extractor: extractor,
	}
}

// ExtractDocument tokenizes every page both flow ranges need with a worker
// pool, then assembles the revenue and expenditure trees from the collected
// pages. In strict mode the first failed page aborts the run; in
// best-effort mode failed pages fold as empty spreads and show up in the
// report.
func (p *processor) ExtractDocument(ctx context.Context, src TokenSource) (*Document, *RunReport, error) {
	logger.Debug("Starting document extraction", true)

	if err := p.acquireSlot(ctx); err != nil {
		logger.Debug(fmt.Sprintf("Failed to acquire slot: err=%v", err), true)
		return nil, nil, err
	}
	defer p.sem.Release(1)

	total := src.NumPages()
	logger.Debug(fmt.Sprintf("Total pages detected: pages=%d", total), true)

	revenue := clampRange(p.layout.Revenue, total)
	expenditure := clampRange(p.layout.Expenditure, total)
	needed := neededPages(revenue, expenditure)

	if len(needed) == 0 {
		logger.Debug("No pages fall inside the configured ranges", true)
		return &Document{}, &RunReport{Revenue: &Report{}, Expenditure: &Report{}}, nil
	}

	numWorkers := p.adjustWorkerCount(p.cfg.MaxWorkersPerBook)
	logger.Debug(fmt.Sprintf("Starting workers: count=%d pages=%d", numWorkers, len(needed)), true)

	jobs, results := make(chan int, len(needed)), make(chan pageResult, len(needed))

	var wg sync.WaitGroup
	p.startWorkers(ctx, src, jobs, results, numWorkers, &wg)
	p.feedJobs(ctx, needed, jobs)
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	pages := make(map[int]Page, len(needed))
	for res := range results {
		if res.err != nil {
			if p.cfg.ParsingMode == Strict {
				logger.Debug(fmt.Sprintf("Strict mode error, stopping extraction: page=%d err=%v", res.number, res.err))
				return nil, nil, fmt.Errorf("strict mode failed on page %d: %w", res.number, res.err)
			}
			continue
		}
		pages[res.number] = res.page
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	// The two flows share nothing but the read-only page map, so they
	// assemble in parallel.
	var doc Document
	report := &RunReport{}
	g := new(errgroup.Group)
	asm := NewAssembler(p.layout)
	g.Go(func() error {
		doc.Revenue, report.Revenue = asm.AssembleRange(pages, revenue)
		return nil
	})
	g.Go(func() error {
		doc.Expenditure, report.Expenditure = asm.AssembleRange(pages, expenditure)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	logger.Debug(fmt.Sprintf("Extraction completed: revenue_chapters=%d expenditure_chapters=%d",
		len(doc.Revenue), len(doc.Expenditure)), true)
	return &doc, report, nil
}

func (p *processor) acquireSlot(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	logger.Debug("Slot acquired successfully", true)
	return nil
}

func (p *processor) adjustWorkerCount(maxWorkers int) int {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if maxWorkers > runtime.NumCPU()/2 {
		maxWorkers = runtime.NumCPU()
	}
	logger.Debug(fmt.Sprintf("Adjusted worker count: workers=%d", maxWorkers), true)
	return maxWorkers
}

type pageResult struct {
	number int
	page   Page
	err    error
}

func (p *processor) startWorkers(ctx context.Context, src TokenSource, jobs <-chan int, results chan<- pageResult, numWorkers int, wg *sync.WaitGroup) {
	logger.Debug(fmt.Sprintf("Spawning workers: num_workers=%d", numWorkers), true)
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Debug(fmt.Sprintf("Worker started: id=%d", id), true)
			for n := range jobs {
				page, err := p.extractPageWithRetries(ctx, src, n)
				results <- pageResult{n, page, err}
				if err != nil {
					logger.Debug(fmt.Sprintf("Worker: page tokenization error: worker_id=%d page=%d err=%v", id, n, err), true)
				} else {
					logger.Debug(fmt.Sprintf("Worker: page tokenized: worker_id=%d page=%d tokens=%d", id, n, len(page.Tokens)), true)
				}
			}
			logger.Debug(fmt.Sprintf("Worker finished: id=%d", id), true)
		}(w)
	}
}

func (p *processor) extractPageWithRetries(ctx context.Context, src TokenSource, number int) (Page, error) {
	var page Page
	var err error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		ctxPage, cancel := context.WithTimeout(ctx, p.cfg.WorkerTimeout)
		page, err = p.extractor.ExtractPage(ctxPage, src, number)
		cancel()
		if err == nil {
			break
		}
		logger.Debug(fmt.Sprintf("Retrying page tokenization: page=%d attempt=%d err=%v", number, attempt, err), true)
	}
	return page, err
}

func (p *processor) feedJobs(ctx context.Context, pages []int, jobs chan<- int) error {
	for _, n := range pages {
		select {
		case <-ctx.Done():
			logger.Debug("Context cancelled while feeding jobs", true)
			return ctx.Err()
		case jobs <- n:
		}
	}
	logger.Debug(fmt.Sprintf("All jobs queued: total_pages=%d", len(pages)), true)
	return nil
}

// clampRange trims a configured range to the pages the book actually has.
// Ranges entirely beyond the book collapse to an empty interval.
func clampRange(rng PageRange, total int) PageRange {
	if rng.Last > total {
		rng.Last = total
	}
	if rng.First > rng.Last {
		rng.First = rng.Last
	}
	return rng
}

// neededPages lists, in ascending order, every page a spread of either
// flow range will read. Trailing unpaired pages are excluded the same way
// AssembleRange skips them.
func neededPages(ranges ...PageRange) []int {
	set := make(map[int]bool)
	for _, rng := range ranges {
		for left := rng.First; left < rng.Last; left += 2 {
			set[left] = true
			set[left+1] = true
		}
	}
	pages := make([]int, 0, len(set))
	for n := range set {
		pages = append(pages, n)
	}
	sort.Ints(pages)
	return pages
}
