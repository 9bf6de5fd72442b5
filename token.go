// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import "context"

// Token is one positioned word on a page. Coordinates are in page units
// with the origin at the top-left corner, so Top grows downward.
type Token struct {
	Text  string
	Left  float64
	Right float64
	Top   float64
}

// Page is the token-level view of one physical page.
type Page struct {
	Number int
	Width  float64
	Tokens []Token
}

// TokenSource yields positioned tokens page by page. Implementations must
// be safe for concurrent PageTokens calls; the processor fans pages out to
// a worker pool.
type TokenSource interface {
	NumPages() int
	PageTokens(ctx context.Context, number int) (Page, error)
}

// PageSide marks which half of a facing-page spread a token came from.
type PageSide string

const (
	LeftPage  PageSide = "left"
	RightPage PageSide = "right"
)

// TaggedToken is a token placed on the merged coordinate plane of a spread,
// remembering which physical page it came from. The left page holds the
// chapter/section/item columns, the right page holds clause descriptions.
type TaggedToken struct {
	Token
	Side PageSide
}

// AlignSpread merges a facing left/right page pair into one coordinate
// plane: right-page x positions are shifted by the left page's width so a
// printed line that continues across the fold stays a single logical row.
// Vertical positions are kept as-is.
func AlignSpread(left, right Page) []TaggedToken {
	merged := make([]TaggedToken, 0, len(left.Tokens)+len(right.Tokens))
	for _, t := range left.Tokens {
		merged = append(merged, TaggedToken{Token: t, Side: LeftPage})
	}
	for _, t := range right.Tokens {
		t.Left += left.Width
		t.Right += left.Width
		merged = append(merged, TaggedToken{Token: t, Side: RightPage})
	}
	return merged
}
