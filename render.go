// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var csvHeader = []string{
	"flow", "chapter", "section", "item", "clause", "detail",
	"currentAmount", "priorAmount", "delta",
}

// WriteCSV flattens a document into one spreadsheet row per tree node:
// chapter and section rows carry only the current amount, item rows carry
// all three amounts, clause and sub-item rows carry their single amount.
// The output opens with a UTF-8 BOM so spreadsheet tools pick the right
// encoding for the Japanese names.
func WriteCSV(w io.Writer, doc *Document) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	writeFlowCSV(cw, FlowRevenue, doc.Revenue)
	writeFlowCSV(cw, FlowExpenditure, doc.Expenditure)
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writeFlowCSV(cw *csv.Writer, flow string, chapters []*Chapter) {
	for _, ch := range chapters {
		cw.Write([]string{flow, ch.Name, "", "", "", "", csvAmount(ch.Current), "", ""})
		for _, sec := range ch.Sections {
			cw.Write([]string{flow, ch.Name, sec.Name, "", "", "", csvAmount(sec.Current), "", ""})
			for _, it := range sec.Items {
				cw.Write([]string{flow, ch.Name, sec.Name, it.Name, "", "",
					csvAmount(it.Current), csvAmount(it.Prior), csvAmount(it.Delta)})
				for _, cl := range it.Clauses {
					writeClauseCSV(cw, flow, ch.Name, sec.Name, it.Name, cl)
				}
			}
		}
	}
}

func writeClauseCSV(cw *csv.Writer, flow, chapter, section, item string, cl *Clause) {
	amount := strconv.FormatInt(cl.Amount, 10)
	cw.Write([]string{flow, chapter, section, item, cl.Name, "", amount, "", ""})
	if cl.Rationale.Empty() {
		return
	}
	for _, sub := range cl.Rationale.SubItems {
		cw.Write([]string{flow, chapter, section, item, cl.Name, sub.Name,
			strconv.FormatInt(sub.Amount, 10), "", ""})
	}
	for _, n := range cl.Rationale.Notes {
		cw.Write([]string{flow, chapter, section, item, cl.Name, n.Key + " " + n.Value, "", "", ""})
	}
}

func csvAmount(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
