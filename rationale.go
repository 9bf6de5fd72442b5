// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"regexp"
	"strings"
)

// Note is one annotation attached to a clause or sub-item, keyed by the
// output key its printed label maps to (調定見込額 → assessedBase).
type Note struct {
	Key   string
	Value string
}

// SubItem is one named amount inside a clause description, for example the
// 均等割/所得割 split of a tax clause. Notes keep first-appearance key order
// with a restated label overwriting its value; Remark accumulates in print
// order.
type SubItem struct {
	Name   string
	Amount int64
	Notes  []Note
	Remark string
}

// Rationale is the structured form of a clause's description column.
// SubItems preserve print order. Notes holds clause-level annotations:
// serialized flat when there are no sub-items, under a reserved _detail
// key otherwise.
type Rationale struct {
	SubItems []*SubItem
	Notes    []Note
}

// Empty reports whether nothing was structured out of the description.
func (r *Rationale) Empty() bool {
	return r == nil || (len(r.SubItems) == 0 && len(r.Notes) == 0)
}

var subItemRe = regexp.MustCompile(`^([^0-9]+?)\s*([0-9,]+)$`)

// StructureRationale parses a clause's accumulated description lines.
// Three line shapes are recognized, in this order:
//
//   - annotation lines containing a configured label literal; the value is
//     the line with every label literal removed, attached to the open
//     sub-item or to the clause itself (a restated label overwrites the
//     value under its key),
//   - "name amount" lines opening a sub-item; a line restating the clause's
//     own name closes the open sub-item instead (the column restates the
//     clause total before annotating it), and a name seen before is skipped,
//   - anything else appends to the open sub-item's remark.
//
// Returns nil when no line produced structure.
func StructureRationale(clauseName string, lines []string, layout *Layout) *Rationale {
	var subItems []*SubItem
	var clauseNotes []Note
	var open *SubItem
	seen := make(map[string]bool)

	for _, line := range lines {
		line = strings.TrimSpace(foldWidth(line))
		if line == "" {
			continue
		}

		if key, ok := annotationKey(line, layout); ok {
			value := line
			for _, lab := range layout.Annotations {
				value = strings.ReplaceAll(value, lab.Literal, "")
			}
			note := Note{Key: key, Value: strings.TrimSpace(value)}
			if open != nil {
				open.Notes = upsertNote(open.Notes, note)
			} else {
				clauseNotes = upsertNote(clauseNotes, note)
			}
			continue
		}

		if m := subItemRe.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			if name == clauseName {
				// Restatement of the clause total: following annotations
				// belong to the clause, not to a sub-item.
				open = nil
				continue
			}
			if seen[name] {
				continue
			}
			if amount := parseAmount(m[2], layout.UnitScale); amount != nil {
				sub := &SubItem{Name: name, Amount: *amount}
				subItems = append(subItems, sub)
				seen[name] = true
				open = sub
			}
			continue
		}

		if open != nil {
			if open.Remark == "" {
				open.Remark = line
			} else {
				open.Remark += " " + line
			}
		}
	}

	if len(subItems) == 0 && len(clauseNotes) == 0 {
		return nil
	}
	return &Rationale{SubItems: subItems, Notes: clauseNotes}
}

// upsertNote replaces the value of an existing key in place, appending a
// new note otherwise. A restated label keeps the last printed value under
// a single key.
func upsertNote(notes []Note, note Note) []Note {
	for i := range notes {
		if notes[i].Key == note.Key {
			notes[i].Value = note.Value
			return notes
		}
	}
	return append(notes, note)
}

// annotationKey returns the output key of the first configured label whose
// literal appears in the line.
func annotationKey(line string, layout *Layout) (string, bool) {
	for _, lab := range layout.Annotations {
		if strings.Contains(line, lab.Literal) {
			return lab.Key, true
		}
	}
	return "", false
}
