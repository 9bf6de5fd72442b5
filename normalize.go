// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Hand-fixed and legacy chapter files drift from the output contract in
// recurring ways: the node name appears as a field (名称/項名/name) instead
// of the wrapping key, amount and child-list keys use Japanese or older
// English spellings, and numbering fields linger. NormalizeChapter
// rewrites any mix of those shapes into the canonical named-node form.
// Field values pass through verbatim, so number formatting and rationale
// contents survive untouched.

const (
	levelChapter = iota
	levelSection
	levelItem
	levelClause
)

var (
	nameKeys = []string{"名称", "款名", "項名", "目名", "節名", "名", "名前", "name"}

	childAliases = [][]string{
		levelChapter: {"sections", "項", "items"},
		levelSection: {"items", "目", "targets"},
		levelItem:    {"clauses", "節"},
	}

	currentAliases   = []string{"currentAmount", "本年度予算額", "予算額", "budget"}
	priorAliases     = []string{"priorAmount", "前年度予算額", "prev_budget"}
	deltaAliases     = []string{"delta", "比較", "comparison"}
	amountAliases    = []string{"amount", "金額"}
	rationaleAliases = []string{"rationale", "説明"}
)

// NormalizeChapter canonicalizes one chapter document. Nodes below the
// chapter that cannot be named, and clauses without an amount, are
// dropped the way a human fixing the file would delete them.
func NormalizeChapter(raw []byte) ([]byte, error) {
	node := json.RawMessage(bytes.TrimSpace(raw))
	pairs, err := orderedPairs(node)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	// unwrap a {"款": {...}} envelope
	for _, p := range pairs {
		if p.key == "款" && isJSONObject(p.raw) {
			node = p.raw
			break
		}
	}
	out, err := normalizeNode(node, levelChapter)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("normalize: chapter node has no recognizable name")
	}
	return out, nil
}

// MergeChapters normalizes per-chapter files and assembles them, in the
// order given, into one document-shaped JSON.
func MergeChapters(revenue, expenditure [][]byte) ([]byte, error) {
	flow := func(chunks [][]byte) ([]byte, error) {
		var arr bytes.Buffer
		arr.WriteByte('[')
		for i, chunk := range chunks {
			n, err := NormalizeChapter(chunk)
			if err != nil {
				return nil, fmt.Errorf("chapter %d: %w", i+1, err)
			}
			if arr.Len() > 1 {
				arr.WriteByte(',')
			}
			arr.Write(n)
		}
		arr.WriteByte(']')
		w := newObjectWriter()
		w.raw("chapters", arr.Bytes())
		return w.done()
	}

	rev, err := flow(revenue)
	if err != nil {
		return nil, fmt.Errorf("merge revenue: %w", err)
	}
	exp, err := flow(expenditure)
	if err != nil {
		return nil, fmt.Errorf("merge expenditure: %w", err)
	}
	w := newObjectWriter()
	w.raw(FlowRevenue, rev)
	w.raw(FlowExpenditure, exp)
	return w.done()
}

func normalizeNode(raw json.RawMessage, level int) ([]byte, error) {
	name, fields, err := nodeFields(raw)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}

	get := func(aliases []string) json.RawMessage {
		for _, a := range aliases {
			for _, p := range fields {
				if p.key == a {
					return p.raw
				}
			}
		}
		return nil
	}

	body := newObjectWriter()
	switch level {
	case levelChapter, levelSection:
		body.raw("currentAmount", orNull(get(currentAliases)))
		children, err := normalizeList(get(childAliases[level]), level+1)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", name, err)
		}
		key := "sections"
		if level == levelSection {
			key = "items"
		}
		body.raw(key, children)
	case levelItem:
		body.raw("currentAmount", orNull(get(currentAliases)))
		body.raw("priorAmount", orNull(get(priorAliases)))
		body.raw("delta", orNull(get(deltaAliases)))
		children, err := normalizeList(get(childAliases[level]), level+1)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", name, err)
		}
		if !bytes.Equal(children, []byte("[]")) {
			body.raw("clauses", children)
		}
	case levelClause:
		amount := get(amountAliases)
		if amount == nil {
			return nil, nil
		}
		body.raw("amount", amount)
		if r := get(rationaleAliases); isJSONObject(r) {
			body.raw("rationale", r)
		}
	}

	b, err := body.done()
	if err != nil {
		return nil, err
	}
	return marshalNamed(name, b), nil
}

// nodeFields accepts both node shapes: the canonical single-key
// {"<name>": {fields}} and the flat {<name field>, fields...} variant.
func nodeFields(raw json.RawMessage) (string, []rawPair, error) {
	pairs, err := orderedPairs(raw)
	if err != nil {
		return "", nil, err
	}
	if len(pairs) == 1 && isJSONObject(pairs[0].raw) && !isAliasKey(pairs[0].key) {
		inner, err := orderedPairs(pairs[0].raw)
		if err != nil {
			return "", nil, err
		}
		return pairs[0].key, inner, nil
	}
	for _, k := range nameKeys {
		for _, p := range pairs {
			if p.key != k {
				continue
			}
			var s string
			if err := json.Unmarshal(p.raw, &s); err == nil && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), pairs, nil
			}
		}
	}
	return "", pairs, nil
}

func normalizeList(raw json.RawMessage, level int) ([]byte, error) {
	if raw == nil {
		return []byte("[]"), nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		// a stray scalar where a list belongs is legacy noise
		return []byte("[]"), nil
	}
	var out bytes.Buffer
	out.WriteByte('[')
	for _, e := range elems {
		if !isJSONObject(e) {
			continue
		}
		n, err := normalizeNode(e, level)
		if err != nil {
			return nil, err
		}
		if n == nil {
			continue
		}
		if out.Len() > 1 {
			out.WriteByte(',')
		}
		out.Write(n)
	}
	out.WriteByte(']')
	return out.Bytes(), nil
}

func isAliasKey(key string) bool {
	for _, k := range nameKeys {
		if key == k {
			return true
		}
	}
	groups := [][]string{currentAliases, priorAliases, deltaAliases, amountAliases, rationaleAliases}
	for _, g := range groups {
		for _, k := range g {
			if key == k {
				return true
			}
		}
	}
	for _, g := range childAliases {
		for _, k := range g {
			if key == k {
				return true
			}
		}
	}
	return false
}

func orNull(raw json.RawMessage) []byte {
	if raw == nil {
		return []byte("null")
	}
	return raw
}
