// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import "fmt"

// Finding is one audit observation. Audits report divergence between
// printed figures and reconstructed structure; they never correct it.
type Finding struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// AuditDocument lints a document's structure and cross-checks printed
// parent amounts against the sums of their children. Books round and
// consolidate, so a mismatch is a review pointer, not proof of a bug.
func AuditDocument(doc *Document) []Finding {
	var findings []Finding
	findings = append(findings, auditFlow(FlowRevenue, doc.Revenue)...)
	findings = append(findings, auditFlow(FlowExpenditure, doc.Expenditure)...)
	return findings
}

func auditFlow(flow string, chapters []*Chapter) []Finding {
	var findings []Finding
	add := func(path, format string, args ...interface{}) {
		findings = append(findings, Finding{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	for _, ch := range chapters {
		chPath := flow + "/" + ch.Name
		if ch.Name == "" {
			add(flow, "chapter with empty name")
		}
		if len(ch.Sections) == 0 {
			add(chPath, "chapter has no sections")
		}
		var secSum int64
		var secSeen bool
		for _, sec := range ch.Sections {
			if sec.Current != nil {
				secSum += *sec.Current
				secSeen = true
			}
		}
		if secSeen && ch.Current != nil && secSum != *ch.Current {
			add(chPath, "section currentAmount sum %d differs from chapter amount %d", secSum, *ch.Current)
		}

		for _, sec := range ch.Sections {
			secPath := chPath + "/" + sec.Name
			if sec.Name == "" {
				add(chPath, "section with empty name")
			}
			if len(sec.Items) == 0 {
				add(secPath, "section has no items")
			}
			if sum, seen := sumItems(sec.Items, pickCurrent); seen && sec.Current != nil && sum != *sec.Current {
				add(secPath, "item currentAmount sum %d differs from section amount %d", sum, *sec.Current)
			}

			for _, it := range sec.Items {
				itPath := secPath + "/" + it.Name
				if it.Name == "" {
					add(secPath, "item with empty name")
				}
				if it.Current == nil {
					add(itPath, "item has no readable currentAmount")
				}
				if it.Current != nil && it.Prior != nil && it.Delta != nil && *it.Current-*it.Prior != *it.Delta {
					add(itPath, "printed delta %d differs from computed %d", *it.Delta, *it.Current-*it.Prior)
				}
				for _, cl := range it.Clauses {
					if cl.Name == "" {
						add(itPath, "clause with empty name")
					}
					if cl.Rationale.Empty() || len(cl.Rationale.SubItems) == 0 {
						continue
					}
					var subSum int64
					for _, sub := range cl.Rationale.SubItems {
						subSum += sub.Amount
					}
					if subSum != cl.Amount {
						add(itPath+"/"+cl.Name, "sub-item sum %d differs from clause amount %d", subSum, cl.Amount)
					}
				}
			}
		}
	}
	return findings
}

// AuditTotals compares printed 計 rows recorded during assembly with the
// reconstructed section sums they should equal.
func AuditTotals(flow string, chapters []*Chapter, totals []TotalObservation) []Finding {
	var findings []Finding
	index := make(map[string]*Section)
	for _, ch := range chapters {
		for _, sec := range ch.Sections {
			index[ch.Name+"\x00"+sec.Name] = sec
		}
	}

	for _, obs := range totals {
		path := fmt.Sprintf("%s/%s/%s (page %d)", flow, obs.Chapter, obs.Section, obs.Page)
		sec, ok := index[obs.Chapter+"\x00"+obs.Section]
		if !ok {
			findings = append(findings, Finding{Path: path, Message: "total row matches no reconstructed section"})
			continue
		}
		checkTotal(&findings, path, "current", obs.Current, sec.Items, pickCurrent)
		checkTotal(&findings, path, "prior", obs.Prior, sec.Items, pickPrior)
		checkTotal(&findings, path, "delta", obs.Delta, sec.Items, pickDelta)
	}
	return findings
}

func checkTotal(findings *[]Finding, path, label string, printed *int64, items []*Item, pick func(*Item) *int64) {
	if printed == nil {
		return
	}
	sum, seen := sumItems(items, pick)
	if seen && sum != *printed {
		*findings = append(*findings, Finding{
			Path:    path,
			Message: fmt.Sprintf("printed %s total %d differs from item sum %d", label, *printed, sum),
		})
	}
}

func sumItems(items []*Item, pick func(*Item) *int64) (sum int64, seen bool) {
	for _, it := range items {
		if v := pick(it); v != nil {
			sum += *v
			seen = true
		}
	}
	return sum, seen
}

func pickCurrent(it *Item) *int64 { return it.Current }
func pickPrior(it *Item) *int64   { return it.Prior }
func pickDelta(it *Item) *int64   { return it.Delta }
