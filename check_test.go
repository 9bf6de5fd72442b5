// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// auditDoc returns a document whose printed figures all roll up: section
// amounts sum to the chapter, items to the section, sub-items to their
// clause, and every delta equals current minus prior.
func auditDoc() *Document {
	return &Document{
		Revenue: []*Chapter{
			{
				Name:    "市税",
				Number:  "1",
				Current: i64(1000),
				Sections: []*Section{
					{
						Name:    "市民税",
						Number:  "1",
						Current: i64(600),
						Items: []*Item{
							{
								Name:    "個人",
								Number:  "1",
								Current: i64(400),
								Prior:   i64(300),
								Delta:   i64(100),
								Clauses: []*Clause{
									{
										Name:   "現年課税分",
										Amount: 350,
										Rationale: &Rationale{
											SubItems: []*SubItem{
												{Name: "均等割", Amount: 150},
												{Name: "所得割", Amount: 200},
											},
										},
									},
									{Name: "滞納繰越分", Amount: 50},
								},
							},
							{
								Name:    "法人",
								Number:  "2",
								Current: i64(200),
								Prior:   i64(250),
								Delta:   i64(-50),
								Clauses: []*Clause{
									// remark-only rationale has nothing to sum
									{
										Name:      "現年課税分",
										Amount:    200,
										Rationale: &Rationale{Notes: []Note{{Key: "remark", Value: "税率 8.4%"}}},
									},
								},
							},
						},
					},
					{
						Name:    "固定資産税",
						Number:  "2",
						Current: i64(400),
						Items:   []*Item{{Name: "土地", Number: "1", Current: i64(400)}},
					},
				},
			},
		},
		Expenditure: []*Chapter{
			{
				Name:    "議会費",
				Number:  "1",
				Current: i64(30),
				Sections: []*Section{
					{
						Name:    "議会費",
						Number:  "1",
						Current: i64(30),
						Items:   []*Item{{Name: "議会費", Number: "1", Current: i64(30)}},
					},
				},
			},
		},
	}
}

func messages(findings []Finding) []string {
	var msgs []string
	for _, f := range findings {
		msgs = append(msgs, f.Message)
	}
	return msgs
}

func TestAuditDocument(t *testing.T) {
	t.Run("consistent document is clean", func(t *testing.T) {
		assert.Empty(t, AuditDocument(auditDoc()))
	})

	t.Run("section sum mismatch", func(t *testing.T) {
		doc := auditDoc()
		doc.Revenue[0].Current = i64(999)

		findings := AuditDocument(doc)
		require.Len(t, findings, 1)
		assert.Equal(t, "revenue/市税", findings[0].Path)
		assert.Equal(t, "section currentAmount sum 1000 differs from chapter amount 999", findings[0].Message)
	})

	t.Run("item sum mismatch", func(t *testing.T) {
		doc := auditDoc()
		doc.Revenue[0].Sections[0].Current = i64(601)

		findings := AuditDocument(doc)
		require.Len(t, findings, 2)
		assert.Contains(t, messages(findings), "section currentAmount sum 1001 differs from chapter amount 1000")
		assert.Contains(t, messages(findings), "item currentAmount sum 600 differs from section amount 601")
	})

	t.Run("printed delta mismatch", func(t *testing.T) {
		doc := auditDoc()
		doc.Revenue[0].Sections[0].Items[0].Delta = i64(99)

		findings := AuditDocument(doc)
		require.Len(t, findings, 1)
		assert.Equal(t, "revenue/市税/市民税/個人", findings[0].Path)
		assert.Equal(t, "printed delta 99 differs from computed 100", findings[0].Message)
	})

	t.Run("sub-item sum mismatch", func(t *testing.T) {
		doc := auditDoc()
		doc.Revenue[0].Sections[0].Items[0].Clauses[0].Rationale.SubItems[0].Amount = 151

		findings := AuditDocument(doc)
		require.Len(t, findings, 1)
		assert.Equal(t, "revenue/市税/市民税/個人/現年課税分", findings[0].Path)
		assert.Equal(t, "sub-item sum 351 differs from clause amount 350", findings[0].Message)
	})

	t.Run("missing structure", func(t *testing.T) {
		doc := &Document{
			Revenue: []*Chapter{{Name: "市債", Current: i64(1)}},
			Expenditure: []*Chapter{
				{
					Name: "",
					Sections: []*Section{
						{Name: ""},
						{Name: "総務管理費", Items: []*Item{{Name: ""}}},
					},
				},
			},
		}

		msgs := messages(AuditDocument(doc))
		assert.Contains(t, msgs, "chapter has no sections")
		assert.Contains(t, msgs, "chapter with empty name")
		assert.Contains(t, msgs, "section with empty name")
		assert.Contains(t, msgs, "section has no items")
		assert.Contains(t, msgs, "item with empty name")
		assert.Contains(t, msgs, "item has no readable currentAmount")
	})

	t.Run("partial figures are not compared", func(t *testing.T) {
		// A chapter with no printed amount and sections with no printed
		// amounts has nothing to cross-check.
		doc := &Document{
			Revenue: []*Chapter{
				{
					Name: "寄附金",
					Sections: []*Section{
						{Name: "寄附金", Items: []*Item{{Name: "一般寄附金", Current: i64(10)}}},
					},
				},
			},
		}
		assert.Empty(t, AuditDocument(doc))
	})
}

func TestAuditTotals(t *testing.T) {
	chapters := auditDoc().Revenue

	t.Run("matching totals are clean", func(t *testing.T) {
		totals := []TotalObservation{
			{Chapter: "市税", Section: "市民税", Current: i64(600), Prior: i64(550), Delta: i64(50), Page: 28},
			{Chapter: "市税", Section: "固定資産税", Current: i64(400), Page: 30},
		}
		assert.Empty(t, AuditTotals(FlowRevenue, chapters, totals))
	})

	t.Run("mismatched totals", func(t *testing.T) {
		totals := []TotalObservation{
			{Chapter: "市税", Section: "市民税", Current: i64(601), Prior: i64(551), Delta: i64(49), Page: 28},
		}

		findings := AuditTotals(FlowRevenue, chapters, totals)
		require.Len(t, findings, 3)
		for _, f := range findings {
			assert.Equal(t, "revenue/市税/市民税 (page 28)", f.Path)
		}
		msgs := messages(findings)
		assert.Contains(t, msgs, "printed current total 601 differs from item sum 600")
		assert.Contains(t, msgs, "printed prior total 551 differs from item sum 550")
		assert.Contains(t, msgs, "printed delta total 49 differs from item sum 50")
	})

	t.Run("total row with no matching section", func(t *testing.T) {
		totals := []TotalObservation{
			{Chapter: "市税", Section: "軽自動車税", Current: i64(120), Page: 34},
		}

		findings := AuditTotals(FlowRevenue, chapters, totals)
		require.Len(t, findings, 1)
		assert.Equal(t, "revenue/市税/軽自動車税 (page 34)", findings[0].Path)
		assert.Equal(t, "total row matches no reconstructed section", findings[0].Message)
	})

	t.Run("blank printed columns are skipped", func(t *testing.T) {
		totals := []TotalObservation{
			{Chapter: "市税", Section: "市民税", Page: 28},
		}
		assert.Empty(t, AuditTotals(FlowRevenue, chapters, totals))
	})

	t.Run("column no item carries is not compared", func(t *testing.T) {
		// 固定資産税 items never printed a prior-year figure, so a prior
		// total on its 計 row has no sum to compare against.
		totals := []TotalObservation{
			{Chapter: "市税", Section: "固定資産税", Prior: i64(123), Page: 30},
		}
		assert.Empty(t, AuditTotals(FlowRevenue, chapters, totals))
	})
}
