// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

const (
	// Glyph baselines within this distance share a print line.
	glyphLineTolerance = 2.0
	// Horizontal gaps above this fraction of the font size split words;
	// the floor keeps tiny fonts from splitting on kerning.
	wordGapFactor = 0.3
	minWordGap    = 1.0
	// US-Letter, used when a page carries no MediaBox.
	fallbackPageWidth  = 612.0
	fallbackPageHeight = 792.0
)

// BookSource reads positioned word tokens from a budget book PDF. The
// underlying reader is safe for concurrent page access, so one BookSource
// can feed the processor's whole worker pool.
type BookSource struct {
	path   string
	file   *os.File
	reader *pdflib.Reader
}

// OpenBook opens a budget book PDF as a TokenSource.
func OpenBook(path string) (*BookSource, error) {
	f, r, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open budget book %s: %w", path, err)
	}
	return &BookSource{path: path, file: f, reader: r}, nil
}

// Path returns the file the source was opened from.
func (b *BookSource) Path() string { return b.path }

// Close releases the underlying file.
func (b *BookSource) Close() error { return b.file.Close() }

// NumPages returns the page count of the book.
func (b *BookSource) NumPages() int { return b.reader.NumPage() }

// PageTokens extracts one page's glyphs and assembles them into word
// tokens with top-down coordinates. The content-stream parser panics on
// malformed input, so the scan is fenced with a recover and surfaces the
// panic as an ordinary error.
func (b *BookSource) PageTokens(ctx context.Context, number int) (page Page, err error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if number < 1 || number > b.reader.NumPage() {
		return Page{}, fmt.Errorf("page %d out of range (book has %d pages)", number, b.reader.NumPage())
	}

	defer func() {
		if r := recover(); r != nil {
			page = Page{}
			err = fmt.Errorf("parse page %d: %v", number, r)
		}
	}()

	p := b.reader.Page(number)
	if p.V.IsNull() {
		return Page{}, fmt.Errorf("page %d: null page", number)
	}

	w, h := pageSize(p)
	tokens := assembleTokens(p.Content().Text, h)
	return Page{Number: number, Width: w, Tokens: tokens}, nil
}

// pageSize resolves the page's MediaBox, walking up the page tree because
// the entry is inheritable.
func pageSize(p pdflib.Page) (w, h float64) {
	box := inheritedAttr(p.V, "MediaBox")
	if box.Kind() != pdflib.Array || box.Len() < 4 {
		return fallbackPageWidth, fallbackPageHeight
	}
	w = box.Index(2).Float64() - box.Index(0).Float64()
	h = box.Index(3).Float64() - box.Index(1).Float64()
	if w <= 0 || h <= 0 {
		return fallbackPageWidth, fallbackPageHeight
	}
	return w, h
}

func inheritedAttr(v pdflib.Value, key string) pdflib.Value {
	for ; !v.IsNull(); v = v.Key("Parent") {
		if r := v.Key(key); !r.IsNull() {
			return r
		}
	}
	return pdflib.Value{}
}

// assembleTokens groups per-glyph text fragments into word tokens. The
// content stream yields one fragment per glyph with a bottom-up baseline
// Y; glyphs are lined up by baseline, ordered by X, and merged while the
// horizontal gap stays small. Whitespace glyphs never join a word, they
// only separate. Output positions are top-down.
func assembleTokens(glyphs []pdflib.Text, pageHeight float64) []Token {
	type line struct {
		y      float64
		glyphs []pdflib.Text
	}
	var lines []*line
	for _, g := range glyphs {
		placed := false
		for _, ln := range lines {
			if math.Abs(g.Y-ln.y) < glyphLineTolerance {
				ln.glyphs = append(ln.glyphs, g)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, &line{y: g.Y, glyphs: []pdflib.Text{g}})
		}
	}

	var tokens []Token
	for _, ln := range lines {
		sort.SliceStable(ln.glyphs, func(i, j int) bool {
			return ln.glyphs[i].X < ln.glyphs[j].X
		})

		top := pageHeight - ln.y
		var cur *Token
		var curEnd float64
		flush := func() {
			if cur != nil && cur.Text != "" {
				cur.Right = curEnd
				tokens = append(tokens, *cur)
			}
			cur = nil
		}
		for _, g := range ln.glyphs {
			if strings.TrimSpace(g.S) == "" {
				flush()
				continue
			}
			maxGap := g.FontSize * wordGapFactor
			if maxGap < minWordGap {
				maxGap = minWordGap
			}
			if cur != nil && g.X-curEnd > maxGap {
				flush()
			}
			if cur == nil {
				cur = &Token{Left: g.X, Top: top}
			}
			cur.Text += g.S
			curEnd = g.X + g.W
		}
		flush()
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		if tokens[i].Top != tokens[j].Top {
			return tokens[i].Top < tokens[j].Top
		}
		return tokens[i].Left < tokens[j].Left
	})
	return tokens
}
