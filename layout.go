// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// PageRange is a 1-indexed, inclusive interval of physical pages.
type PageRange struct {
	First int `yaml:"first" validate:"min=1"`
	Last  int `yaml:"last" validate:"min=1,gtefield=First"`
}

// Contains reports whether page n falls inside the range.
func (r PageRange) Contains(n int) bool {
	return n >= r.First && n <= r.Last
}

// AnnotationLabel maps a printed annotation literal (as it appears in the
// clause description column) to the key used in the structured output.
type AnnotationLabel struct {
	Literal string `yaml:"literal" validate:"required"`
	Key     string `yaml:"key" validate:"required"`
}

// Layout describes the recurring print template of one budget book edition:
// which pages hold which flow, how rows are bucketed vertically, and how
// clause descriptions are annotated. Amounts in the book are printed in
// thousands of yen; UnitScale converts them to yen.
type Layout struct {
	Revenue     PageRange `yaml:"revenue"`
	Expenditure PageRange `yaml:"expenditure"`

	// RowTolerance buckets token y-positions into rows.
	RowTolerance float64 `yaml:"rowTolerance" validate:"gt=0"`
	// ClaimMargin widens an item's vertical claim interval upward so that
	// clause lines printed slightly above the item row still attach to it.
	ClaimMargin float64 `yaml:"claimMargin" validate:"gte=0"`
	// MinClauseAmount is the smallest printed value (pre-scale) accepted as
	// a clause amount; smaller integers are treated as part of the name.
	MinClauseAmount int64 `yaml:"minClauseAmount" validate:"gte=0"`
	// UnitScale multiplies printed amounts into yen.
	UnitScale int64 `yaml:"unitScale" validate:"min=1"`

	Annotations []AnnotationLabel `yaml:"annotations" validate:"dive"`
}

// DefaultLayout returns the template of the Fuji City general-account
// budget book: revenue on pages 28-175, expenditure on pages 176-596.
func DefaultLayout() *Layout {
	return &Layout{
		Revenue:         PageRange{First: 28, Last: 175},
		Expenditure:     PageRange{First: 176, Last: 596},
		RowTolerance:    12,
		ClaimMargin:     20,
		MinClauseAmount: 100,
		UnitScale:       1000,
		Annotations: []AnnotationLabel{
			{Literal: "調定見込額", Key: "assessedBase"},
			{Literal: "算定標準額", Key: "standardBase"},
		},
	}
}

func (l *Layout) Validate() error {
	validate := validator.New()
	return validate.Struct(l)
}

// LoadLayout reads a YAML layout profile. Fields absent from the file keep
// their DefaultLayout values, so a profile only has to state what differs.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	layout := DefaultLayout()
	if err := yaml.Unmarshal(data, layout); err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", path, err)
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout %s: %w", path, err)
	}
	return layout, nil
}
