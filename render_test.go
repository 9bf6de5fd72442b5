// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	doc := sampleDocument()
	doc.Revenue[0].Sections[0].Items[0].Clauses[0].Rationale.Notes = []Note{
		{Key: "assessedBase", Value: "851,126千円"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, doc))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\xEF\xBB\xBF"), "expected UTF-8 BOM")

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\xEF\xBB\xBF"))).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, csvHeader, records[0])

	// chapter, section, item, clause, two sub-items, one note, second
	// clause, then the expenditure rows.
	assert.Equal(t, []string{"revenue", "市税", "", "", "", "", "46460600000", "", ""}, records[1])
	assert.Equal(t, []string{"revenue", "市税", "市民税", "", "", "", "21113500000", "", ""}, records[2])
	assert.Equal(t, []string{"revenue", "市税", "市民税", "個人", "", "", "10636700000", "10274700000", "362000000"}, records[3])
	assert.Equal(t, []string{"revenue", "市税", "市民税", "個人", "現年課税分", "", "10446700000", "", ""}, records[4])
	assert.Equal(t, []string{"revenue", "市税", "市民税", "個人", "現年課税分", "均等割", "400000000", "", ""}, records[5])
	assert.Equal(t, []string{"revenue", "市税", "市民税", "個人", "現年課税分", "所得割", "10046700000", "", ""}, records[6])
	assert.Equal(t, []string{"revenue", "市税", "市民税", "個人", "現年課税分", "assessedBase 851,126千円", "", "", ""}, records[7])
	assert.Equal(t, []string{"revenue", "市税", "市民税", "個人", "滞納繰越分", "", "190000000", "", ""}, records[8])

	last := records[len(records)-1]
	assert.Equal(t, "expenditure", last[0])
	assert.Equal(t, "議会費", last[3])
}

func TestWriteCSV_EmptyDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &Document{}))

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\xEF\xBB\xBF"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, csvHeader, records[0])
}

func TestCSVAmount(t *testing.T) {
	assert.Equal(t, "", csvAmount(nil))
	assert.Equal(t, "-198000000", csvAmount(i64(-198000000)))
}
