// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

const (
	FlowRevenue     = "revenue"
	FlowExpenditure = "expenditure"
)

// detailKey is reserved in rationale objects for clause-level annotations
// that coexist with sub-items. Sub-item names never start with an
// underscore in print.
const detailKey = "_detail"

// Item is a third-level (目) entry. Number is the printed sequence number;
// it drives nothing after classification and is not serialized.
type Item struct {
	Name    string
	Number  string
	Current *int64
	Prior   *int64
	Delta   *int64
	Clauses []*Clause
}

// Section is a second-level (項) entry.
type Section struct {
	Name    string
	Number  string
	Current *int64
	Items   []*Item
}

// Chapter is a top-level (款) entry.
type Chapter struct {
	Name     string
	Number   string
	Current  *int64
	Sections []*Section
}

// Document is the reconstructed budget: one chapter tree per flow.
type Document struct {
	Revenue     []*Chapter
	Expenditure []*Chapter
}

// Encode writes the document as indented JSON.
func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// ParseDocument reads a document previously produced by Encode or
// MarshalJSON, preserving rationale key order.
func ParseDocument(data []byte) (*Document, error) {
	doc := new(Document)
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// FlowStats counts the nodes of one flow's chapter tree.
type FlowStats struct {
	Chapters int `json:"chapters"`
	Sections int `json:"sections"`
	Items    int `json:"items"`
	Clauses  int `json:"clauses"`
}

// CountFlow tallies a chapter tree for run summaries.
func CountFlow(chapters []*Chapter) FlowStats {
	var s FlowStats
	s.Chapters = len(chapters)
	for _, ch := range chapters {
		s.Sections += len(ch.Sections)
		for _, sec := range ch.Sections {
			s.Items += len(sec.Items)
			for _, it := range sec.Items {
				s.Clauses += len(it.Clauses)
			}
		}
	}
	return s
}

// ---- JSON encoding ----------------------------------------------------
//
// Every tree node serializes as a single-key object {"<name>": {...}} and
// rationale objects keep their print order, so the encoder writes objects
// by hand instead of going through maps.

// objectWriter builds a JSON object with fields in insertion order.
type objectWriter struct {
	buf   bytes.Buffer
	wrote bool
	err   error
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) raw(key string, raw []byte) {
	if w.err != nil {
		return
	}
	k, err := json.Marshal(key)
	if err != nil {
		w.err = err
		return
	}
	if w.wrote {
		w.buf.WriteByte(',')
	}
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(raw)
	w.wrote = true
}

func (w *objectWriter) field(key string, v interface{}) {
	if w.err != nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		w.err = err
		return
	}
	w.raw(key, raw)
}

func (w *objectWriter) done() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}

// marshalNamed wraps a node body as {"<name>": <body>}.
func marshalNamed(name string, body []byte) []byte {
	key, _ := json.Marshal(name)
	out := make([]byte, 0, len(key)+len(body)+2)
	out = append(out, '{')
	out = append(out, key...)
	out = append(out, ':')
	out = append(out, body...)
	out = append(out, '}')
	return out
}

func (d *Document) MarshalJSON() ([]byte, error) {
	flow := func(chapters []*Chapter) ([]byte, error) {
		if chapters == nil {
			chapters = []*Chapter{}
		}
		w := newObjectWriter()
		w.field("chapters", chapters)
		return w.done()
	}
	rev, err := flow(d.Revenue)
	if err != nil {
		return nil, err
	}
	exp, err := flow(d.Expenditure)
	if err != nil {
		return nil, err
	}
	w := newObjectWriter()
	w.raw(FlowRevenue, rev)
	w.raw(FlowExpenditure, exp)
	return w.done()
}

func (c *Chapter) MarshalJSON() ([]byte, error) {
	sections := c.Sections
	if sections == nil {
		sections = []*Section{}
	}
	node := newObjectWriter()
	node.field("currentAmount", c.Current)
	node.field("sections", sections)
	body, err := node.done()
	if err != nil {
		return nil, err
	}
	return marshalNamed(c.Name, body), nil
}

func (s *Section) MarshalJSON() ([]byte, error) {
	items := s.Items
	if items == nil {
		items = []*Item{}
	}
	node := newObjectWriter()
	node.field("currentAmount", s.Current)
	node.field("items", items)
	body, err := node.done()
	if err != nil {
		return nil, err
	}
	return marshalNamed(s.Name, body), nil
}

func (it *Item) MarshalJSON() ([]byte, error) {
	node := newObjectWriter()
	node.field("currentAmount", it.Current)
	node.field("priorAmount", it.Prior)
	node.field("delta", it.Delta)
	if len(it.Clauses) > 0 {
		node.field("clauses", it.Clauses)
	}
	body, err := node.done()
	if err != nil {
		return nil, err
	}
	return marshalNamed(it.Name, body), nil
}

func (c *Clause) MarshalJSON() ([]byte, error) {
	node := newObjectWriter()
	node.field("amount", c.Amount)
	if !c.Rationale.Empty() {
		node.field("rationale", c.Rationale)
	}
	body, err := node.done()
	if err != nil {
		return nil, err
	}
	return marshalNamed(c.Name, body), nil
}

func (r *Rationale) MarshalJSON() ([]byte, error) {
	obj := newObjectWriter()
	for _, sub := range r.SubItems {
		body := newObjectWriter()
		body.field("amount", sub.Amount)
		for _, n := range sub.Notes {
			body.field(n.Key, n.Value)
		}
		if sub.Remark != "" {
			body.field("remark", sub.Remark)
		}
		raw, err := body.done()
		if err != nil {
			return nil, err
		}
		obj.raw(sub.Name, raw)
	}
	if len(r.Notes) > 0 {
		if len(r.SubItems) == 0 {
			for _, n := range r.Notes {
				obj.field(n.Key, n.Value)
			}
		} else {
			detail := newObjectWriter()
			for _, n := range r.Notes {
				detail.field(n.Key, n.Value)
			}
			raw, err := detail.done()
			if err != nil {
				return nil, err
			}
			obj.raw(detailKey, raw)
		}
	}
	return obj.done()
}

// ---- JSON decoding ----------------------------------------------------

type rawPair struct {
	key string
	raw json.RawMessage
}

// orderedPairs splits a JSON object into key/value pairs, preserving the
// key order the standard map decoding would lose.
func orderedPairs(data []byte) ([]rawPair, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}
	var pairs []rawPair
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		pairs = append(pairs, rawPair{key: key, raw: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// splitNamed unwraps the {"<name>": {...}} node shape.
func splitNamed(data []byte) (string, json.RawMessage, error) {
	pairs, err := orderedPairs(data)
	if err != nil {
		return "", nil, err
	}
	if len(pairs) != 1 {
		return "", nil, fmt.Errorf("expected a single-key named node, got %d keys", len(pairs))
	}
	return pairs[0].key, pairs[0].raw, nil
}

func isJSONObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b == '{'
		}
	}
	return false
}

func (d *Document) UnmarshalJSON(data []byte) error {
	type flowNode struct {
		Chapters []*Chapter `json:"chapters"`
	}
	var raw struct {
		Revenue     flowNode `json:"revenue"`
		Expenditure flowNode `json:"expenditure"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Revenue = raw.Revenue.Chapters
	d.Expenditure = raw.Expenditure.Chapters
	return nil
}

func (c *Chapter) UnmarshalJSON(data []byte) error {
	name, body, err := splitNamed(data)
	if err != nil {
		return fmt.Errorf("chapter: %w", err)
	}
	var raw struct {
		Current  *int64     `json:"currentAmount"`
		Sections []*Section `json:"sections"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("chapter %q: %w", name, err)
	}
	c.Name = name
	c.Current = raw.Current
	c.Sections = raw.Sections
	return nil
}

func (s *Section) UnmarshalJSON(data []byte) error {
	name, body, err := splitNamed(data)
	if err != nil {
		return fmt.Errorf("section: %w", err)
	}
	var raw struct {
		Current *int64  `json:"currentAmount"`
		Items   []*Item `json:"items"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("section %q: %w", name, err)
	}
	s.Name = name
	s.Current = raw.Current
	s.Items = raw.Items
	return nil
}

func (it *Item) UnmarshalJSON(data []byte) error {
	name, body, err := splitNamed(data)
	if err != nil {
		return fmt.Errorf("item: %w", err)
	}
	var raw struct {
		Current *int64    `json:"currentAmount"`
		Prior   *int64    `json:"priorAmount"`
		Delta   *int64    `json:"delta"`
		Clauses []*Clause `json:"clauses"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("item %q: %w", name, err)
	}
	it.Name = name
	it.Current = raw.Current
	it.Prior = raw.Prior
	it.Delta = raw.Delta
	it.Clauses = raw.Clauses
	return nil
}

func (c *Clause) UnmarshalJSON(data []byte) error {
	name, body, err := splitNamed(data)
	if err != nil {
		return fmt.Errorf("clause: %w", err)
	}
	var raw struct {
		Amount    int64           `json:"amount"`
		Rationale json.RawMessage `json:"rationale"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("clause %q: %w", name, err)
	}
	c.Name = name
	c.Amount = raw.Amount
	c.Rationale = nil
	if len(raw.Rationale) > 0 && !bytes.Equal(bytes.TrimSpace(raw.Rationale), []byte("null")) {
		r := new(Rationale)
		if err := json.Unmarshal(raw.Rationale, r); err != nil {
			return fmt.Errorf("clause %q: %w", name, err)
		}
		c.Rationale = r
	}
	return nil
}

func (r *Rationale) UnmarshalJSON(data []byte) error {
	pairs, err := orderedPairs(data)
	if err != nil {
		return err
	}
	r.SubItems = nil
	r.Notes = nil
	for _, p := range pairs {
		if p.key == detailKey {
			notes, err := decodeNotes(p.raw)
			if err != nil {
				return fmt.Errorf("rationale %s: %w", detailKey, err)
			}
			r.Notes = append(r.Notes, notes...)
			continue
		}
		if isJSONObject(p.raw) {
			sub := &SubItem{Name: p.key}
			if err := decodeSubItem(p.raw, sub); err != nil {
				return fmt.Errorf("rationale %q: %w", p.key, err)
			}
			r.SubItems = append(r.SubItems, sub)
			continue
		}
		var value string
		if err := json.Unmarshal(p.raw, &value); err != nil {
			return fmt.Errorf("rationale %q: %w", p.key, err)
		}
		r.Notes = append(r.Notes, Note{Key: p.key, Value: value})
	}
	return nil
}

func decodeSubItem(data []byte, sub *SubItem) error {
	pairs, err := orderedPairs(data)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		switch p.key {
		case "amount":
			if err := json.Unmarshal(p.raw, &sub.Amount); err != nil {
				return err
			}
		case "remark":
			if err := json.Unmarshal(p.raw, &sub.Remark); err != nil {
				return err
			}
		default:
			var value string
			if err := json.Unmarshal(p.raw, &value); err != nil {
				return err
			}
			sub.Notes = append(sub.Notes, Note{Key: p.key, Value: value})
		}
	}
	return nil
}

func decodeNotes(data []byte) ([]Note, error) {
	pairs, err := orderedPairs(data)
	if err != nil {
		return nil, err
	}
	notes := make([]Note, 0, len(pairs))
	for _, p := range pairs {
		var value string
		if err := json.Unmarshal(p.raw, &value); err != nil {
			return nil, err
		}
		notes = append(notes, Note{Key: p.key, Value: value})
	}
	return notes, nil
}
