package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copysmith-ai-api/internal/domain/entity"
)

func TestSimilaritySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"pricing psychology for saas", "saas pricing tactics"},
		{"", "anything"},
		{"identical words", "identical words"},
		{"Hello, World!", "hello world"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]),
			"similarity(%q,%q) must be symmetric", p[0], p[1])
	}
}

func TestSimilarityBounds(t *testing.T) {
	cases := [][2]string{
		{"a b c", "c d e"},
		{"completely different", "nothing shared"},
		{"", ""},
		{"one", "one two three four five"},
	}
	for _, c := range cases {
		s := Similarity(c[0], c[1])
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestSimilarityIdentity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("pricing psychology", "pricing psychology"))
	// 大小写与标点不影响词项集合
	assert.Equal(t, 1.0, Similarity("Hello, World!", "hello world"))
	// 重复词不增加权重
	assert.Equal(t, 1.0, Similarity("go go go", "go"))
}

func TestSimilarityBothEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("...", "!!!"))
}

func TestRetrieveOrdering(t *testing.T) {
	// corpus[2] 与查询的 Jaccard 为 3/4，高于 corpus[1] 的 3/5
	corpus := []entity.CorpusExample{
		{Text: "gardening tips for beginners"},
		{Text: "saas pricing strategy and psychology"},
		{Text: "saas pricing psychology guide"},
	}
	r := NewRetriever(corpus)

	results := r.Retrieve("saas pricing psychology", 3)

	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
	assert.Equal(t, corpus[2].Text, results[0].Example.Text)
}

func TestRetrieveStableTieBreak(t *testing.T) {
	// 两条语料与查询的相似度相同，保持语料原始顺序
	corpus := []entity.CorpusExample{
		{Text: "alpha beta"},
		{Text: "alpha gamma"},
	}
	r := NewRetriever(corpus)

	results := r.Retrieve("alpha", 2)

	require.Len(t, results, 2)
	assert.Equal(t, results[0].Similarity, results[1].Similarity)
	assert.Equal(t, "alpha beta", results[0].Example.Text)
	assert.Equal(t, "alpha gamma", results[1].Example.Text)
}

func TestRetrieveKClamped(t *testing.T) {
	corpus := []entity.CorpusExample{
		{Text: "one"},
		{Text: "two"},
	}
	r := NewRetriever(corpus)

	assert.Len(t, r.Retrieve("one", 10), 2)
	assert.Len(t, r.Retrieve("one", 1), 1)
	assert.Nil(t, r.Retrieve("one", 0))
	assert.Nil(t, r.Retrieve("one", -1))
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	r := NewRetriever(nil)

	assert.Nil(t, r.Retrieve("anything", 5))
	assert.Equal(t, 0, r.Size())
}
