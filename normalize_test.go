// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeChapter_LegacyShape(t *testing.T) {
	// A hand-maintained chapter file: 款 envelope, Japanese keys, node
	// names as fields, one clause missing its amount.
	legacy := `{"款":{"名称":"市税","本年度予算額":46460600000,"項":[` +
		`{"項名":"市民税","予算額":21113500000,"目":[` +
		`{"名":"個人","本年度予算額":10636700000,"前年度予算額":10274700000,"比較":362000000,"節":[` +
		`{"名称":"現年課税分","金額":10446700000,"説明":{"均等割":{"amount":400000000}}},` +
		`{"名称":"ダミー"}]}]}]}}`

	out, err := NormalizeChapter([]byte(legacy))
	require.NoError(t, err)

	want := `{"市税":{"currentAmount":46460600000,"sections":[` +
		`{"市民税":{"currentAmount":21113500000,"items":[` +
		`{"個人":{"currentAmount":10636700000,"priorAmount":10274700000,"delta":362000000,"clauses":[` +
		`{"現年課税分":{"amount":10446700000,"rationale":{"均等割":{"amount":400000000}}}}]}}]}}]}}`
	assert.Equal(t, want, string(out))
}

// Already-canonical files come back unchanged.
func TestNormalizeChapter_CanonicalPassthrough(t *testing.T) {
	canonical := `{"市税":{"currentAmount":100,"sections":[]}}`
	out, err := NormalizeChapter([]byte(canonical))
	require.NoError(t, err)
	assert.Equal(t, canonical, string(out))
}

func TestNormalizeChapter_Errors(t *testing.T) {
	t.Run("no recognizable name", func(t *testing.T) {
		_, err := NormalizeChapter([]byte(`{"本年度予算額":100}`))
		assert.Error(t, err)
	})

	t.Run("not an object", func(t *testing.T) {
		_, err := NormalizeChapter([]byte(`[1,2,3]`))
		assert.Error(t, err)
	})
}

func TestNormalizeChapter_DropsNoise(t *testing.T) {
	// A scalar where the section list belongs, unnamed children, and
	// non-object list entries all drop silently.
	in := `{"市税":{"currentAmount":1,"sections":"そのうち"}}`
	out, err := NormalizeChapter([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, `{"市税":{"currentAmount":1,"sections":[]}}`, string(out))

	in = `{"市税":{"currentAmount":1,"sections":[42,{"予算額":5},{"項名":"市民税","予算額":5}]}}`
	out, err = NormalizeChapter([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, `{"市税":{"currentAmount":1,"sections":[{"市民税":{"currentAmount":5,"items":[]}}]}}`, string(out))
}

func TestMergeChapters(t *testing.T) {
	tax := `{"款":{"名称":"市税","本年度予算額":46460600000}}`
	bonds := `{"市債":{"currentAmount":4000000000,"sections":[]}}`
	council := `{"議会費":{"currentAmount":306000000,"sections":[]}}`

	merged, err := MergeChapters([][]byte{[]byte(tax), []byte(bonds)}, [][]byte{[]byte(council)})
	require.NoError(t, err)

	// The merged bytes are a full document: parseable, flows in place,
	// chapter order preserved.
	doc, err := ParseDocument(merged)
	require.NoError(t, err)
	require.Len(t, doc.Revenue, 2)
	assert.Equal(t, "市税", doc.Revenue[0].Name)
	assert.Equal(t, "市債", doc.Revenue[1].Name)
	assert.Equal(t, i64(4000000000), doc.Revenue[1].Current)
	require.Len(t, doc.Expenditure, 1)
	assert.Equal(t, "議会費", doc.Expenditure[0].Name)
}

func TestMergeChapters_BadChunk(t *testing.T) {
	_, err := MergeChapters([][]byte{[]byte(`{"amount":1}`)}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chapter 1")
}

func TestMergeChapters_Empty(t *testing.T) {
	merged, err := MergeChapters(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"revenue":{"chapters":[]},"expenditure":{"chapters":[]}}`, string(merged))
}
