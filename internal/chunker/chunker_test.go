package chunker

import (
	"strings"
	"testing"

	"github.com/loomnotes/loom/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runeTokenizer treats every rune as one token. It is exactly invertible,
// which makes the window arithmetic in tests deterministic.
type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) []int {
	runes := []rune(text)
	tokens := make([]int, len(runes))
	for i, r := range runes {
		tokens[i] = int(r)
	}
	return tokens
}

func (runeTokenizer) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, tok := range tokens {
		runes[i] = rune(tok)
	}
	return string(runes)
}

func newTestChunker(target, overlap int) *Chunker {
	return NewWithTokenizer(runeTokenizer{}, Config{TargetTokens: target, OverlapTokens: overlap})
}

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	c := newTestChunker(500, 50)
	text := "A short deployment note."

	drafts, err := c.Chunk(text, nil)

	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, text, drafts[0].Text)
	assert.Equal(t, 0, drafts[0].Order)
	assert.Equal(t, len([]rune(text)), drafts[0].TokenCount)
	assert.Empty(t, drafts[0].HeadingPath)
}

func TestChunk_ShortTextTakesFirstSectionHeading(t *testing.T) {
	c := newTestChunker(500, 50)
	sections := []Section{
		{HeadingPath: []string{"Deployment", "Steps"}, Text: "A short deployment note."},
	}

	drafts, err := c.Chunk("A short deployment note.", sections)

	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, []string{"Deployment", "Steps"}, drafts[0].HeadingPath)
}

func TestChunk_EmptyTextIsError(t *testing.T) {
	c := newTestChunker(500, 50)

	_, err := c.Chunk("   \n\t ", nil)

	assert.ErrorIs(t, err, domain.ErrNoChunksProduced)
}

func TestChunk_OrdersAreContiguousFromZero(t *testing.T) {
	c := newTestChunker(80, 10)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)

	drafts, err := c.Chunk(text, nil)

	require.NoError(t, err)
	require.Greater(t, len(drafts), 1)
	for i, d := range drafts {
		assert.Equal(t, i, d.Order)
		assert.NotEmpty(t, strings.TrimSpace(d.Text))
		assert.LessOrEqual(t, d.TokenCount, 80+boundaryLookaheadTokens)
	}
}

func TestChunk_PrefersSentenceBoundary(t *testing.T) {
	c := newTestChunker(60, 0)
	text := strings.Repeat("Alpha beta gamma delta epsilon zeta. ", 20)

	drafts, err := c.Chunk(text, nil)

	require.NoError(t, err)
	require.Greater(t, len(drafts), 1)
	// Every chunk except possibly the last should end on a sentence boundary
	// rather than a hard token cut.
	for _, d := range drafts[:len(drafts)-1] {
		assert.True(t, strings.HasSuffix(d.Text, ". "), "chunk %q should end at a sentence", d.Text)
	}
}

func TestChunk_PrefersParagraphBoundaryOverSentence(t *testing.T) {
	c := newTestChunker(50, 0)
	para := "First paragraph sentence one. Sentence two here.\n\nSecond paragraph starts."
	text := para + strings.Repeat(" More trailing text to force a second chunk.", 5)

	drafts, err := c.Chunk(text, nil)

	require.NoError(t, err)
	require.Greater(t, len(drafts), 1)
	assert.True(t, strings.HasSuffix(drafts[0].Text, "Sentence two here."),
		"first chunk should cut at the paragraph break, got %q", drafts[0].Text)
}

// Overlap-aware reconstruction: stitching consecutive chunks back together by
// removing the shared overlap must reproduce the original text.
func TestChunk_ReconstructsOriginalText(t *testing.T) {
	c := newTestChunker(100, 20)
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("Section ")
		b.WriteByte(byte('a' + i%26))
		b.WriteString(" covers onboarding, deployment, and rotation duties. ")
	}
	text := b.String()

	drafts, err := c.Chunk(text, nil)
	require.NoError(t, err)
	require.Greater(t, len(drafts), 2)

	reconstructed := drafts[0].Text
	for _, d := range drafts[1:] {
		joined := false
		max := len(d.Text)
		if max > len(reconstructed) {
			max = len(reconstructed)
		}
		for k := max; k >= 0; k-- {
			if strings.HasSuffix(reconstructed, d.Text[:k]) {
				reconstructed += d.Text[k:]
				joined = true
				break
			}
		}
		require.True(t, joined)
	}

	assert.Equal(t, text, reconstructed)
}

func TestChunk_OverlapLargerThanTargetStillProgresses(t *testing.T) {
	c := newTestChunker(20, 50)
	text := strings.Repeat("overlap stress test input. ", 30)

	drafts, err := c.Chunk(text, nil)

	require.NoError(t, err)
	assert.NotEmpty(t, drafts)
	// A pathological overlap must not loop forever or emit unbounded chunks.
	assert.Less(t, len(drafts), len([]rune(text)))
}

func TestChunk_HeadingAttributionFirstMatchWins(t *testing.T) {
	c := newTestChunker(40, 0)
	intro := "Welcome to the engineering handbook, read carefully before deploying."
	deploy := "Deployment requires approval from the on-call lead before any rollout."
	sections := []Section{
		{HeadingPath: []string{"Intro"}, Text: intro},
		{HeadingPath: []string{"Ops", "Deploy"}, Text: deploy},
	}

	drafts, err := c.Chunk(intro+" "+deploy, sections)

	require.NoError(t, err)
	require.Greater(t, len(drafts), 1)
	assert.Equal(t, []string{"Intro"}, drafts[0].HeadingPath)
}

func TestChunk_NoHeadingMatchYieldsEmptyPath(t *testing.T) {
	c := newTestChunker(500, 50)
	sections := []Section{
		{HeadingPath: []string{"Unrelated"}, Text: "Totally different content here."},
	}

	drafts, err := c.Chunk("Rotation duties for the platform team.", nil)
	require.NoError(t, err)
	assert.Empty(t, drafts[0].HeadingPath)

	drafts, err = c.Chunk(strings.Repeat("Rotation duties for the platform team. ", 30), sections)
	require.NoError(t, err)
	for _, d := range drafts {
		assert.Empty(t, d.HeadingPath)
	}
}
