package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copysmith-ai-api/internal/domain/entity"
	"copysmith-ai-api/internal/workflow/prompt"
)

func TestParseRoundTrip(t *testing.T) {
	parser := NewParser()
	raw := strings.Join([]string{"one", "two", "three"}, prompt.ArtifactDelimiter)

	artifacts, degraded := parser.Parse(raw, prompt.ArtifactDelimiter, entity.KindShortNote)

	assert.False(t, degraded)
	require.Len(t, artifacts, 3)
	assert.Equal(t, "one", artifacts[0].Content)
	assert.Equal(t, "two", artifacts[1].Content)
	assert.Equal(t, "three", artifacts[2].Content)
	for i, a := range artifacts {
		assert.Equal(t, i, a.Index)
		assert.Equal(t, entity.KindShortNote, a.Kind)
	}
}

func TestParseTrimsAndDropsEmptySegments(t *testing.T) {
	parser := NewParser()
	raw := "  one  " + prompt.ArtifactDelimiter + "   " + prompt.ArtifactDelimiter + "\ntwo\n"

	artifacts, degraded := parser.Parse(raw, prompt.ArtifactDelimiter, entity.KindTitle)

	assert.False(t, degraded)
	require.Len(t, artifacts, 2)
	assert.Equal(t, "one", artifacts[0].Content)
	assert.Equal(t, "two", artifacts[1].Content)
}

func TestParseStripsReasoningSpans(t *testing.T) {
	parser := NewParser()
	raw := "<think>let me plan the notes first</think>one" +
		prompt.ArtifactDelimiter + "<think>more pondering</think>two"

	artifacts, degraded := parser.Parse(raw, prompt.ArtifactDelimiter, entity.KindShortNote)

	assert.False(t, degraded)
	require.Len(t, artifacts, 2)
	assert.Equal(t, "one", artifacts[0].Content)
	assert.Equal(t, "two", artifacts[1].Content)
}

func TestParseDanglingReasoningTag(t *testing.T) {
	parser := NewParser()
	raw := "finished content" + prompt.ArtifactDelimiter + "<think>never closed"

	artifacts, _ := parser.Parse(raw, prompt.ArtifactDelimiter, entity.KindShortNote)

	require.Len(t, artifacts, 1)
	assert.Equal(t, "finished content", artifacts[0].Content)
}

func TestParseStripsLeadingNumbering(t *testing.T) {
	parser := NewParser()
	raw := "1. first title" + prompt.ArtifactDelimiter + "2) second title"

	artifacts, _ := parser.Parse(raw, prompt.ArtifactDelimiter, entity.KindTitle)

	require.Len(t, artifacts, 2)
	assert.Equal(t, "first title", artifacts[0].Content)
	assert.Equal(t, "second title", artifacts[1].Content)
}

func TestParseFallbackNeverEmpty(t *testing.T) {
	parser := NewParser()

	artifacts, _ := parser.Parse("Sentence one. Sentence two.", "NO_SUCH_DELIMITER", entity.KindLongFormNote)

	require.NotEmpty(t, artifacts)
	require.Len(t, artifacts, 1)
	assert.NotEmpty(t, artifacts[0].Content)
}

func TestParseDegenerateInputUsesFallback(t *testing.T) {
	parser := NewParser()
	// 整个响应只有分隔符和空白，切分后一个段都不剩
	raw := prompt.ArtifactDelimiter + "  \n  " + prompt.ArtifactDelimiter

	artifacts, degraded := parser.Parse(raw, prompt.ArtifactDelimiter, entity.KindShortNote)

	assert.True(t, degraded)
	assert.Empty(t, artifacts)
}

func TestSentenceFallbackSplitsBoundaries(t *testing.T) {
	out := sentenceFallback("First point. Second point! Third point? Tail")

	assert.Equal(t, "First point.\nSecond point!\nThird point?\nTail", out)
}
