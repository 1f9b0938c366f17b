// Package chunker splits normalized document text into overlapping,
// token-bounded segments for embedding and retrieval.
package chunker

import (
	"fmt"
	"strings"

	"github.com/loomnotes/loom/internal/domain"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultEncoding is the tiktoken encoding shared with the embedding side.
	DefaultEncoding = "cl100k_base"

	// boundaryLookaheadTokens is how far past the hard token cut we look for a
	// natural boundary.
	boundaryLookaheadTokens = 80
	// boundaryScanChars bounds the backward scan for a boundary within the
	// lookahead window.
	boundaryScanChars = 150
	// headingMatchChars is the prefix length used for heading attribution.
	headingMatchChars = 100
)

// softSeparators are tried in order; the first match wins.
var softSeparators = []string{"\n\n", "\n", ". ", "! ", "? "}

// Section is a heading-delimited region of the source text.
type Section struct {
	HeadingPath []string
	Text        string
}

// Draft is a chunk before it is attached to a parent item and embedded.
type Draft struct {
	Text        string
	HeadingPath []string
	TokenCount  int
	Order       int
}

// Config controls chunk sizing.
type Config struct {
	TargetTokens  int
	OverlapTokens int
}

// DefaultConfig provides sane defaults for chunking.
func DefaultConfig() Config {
	return Config{
		TargetTokens:  500,
		OverlapTokens: 50,
	}
}

// Tokenizer is the encoding used to measure and slice text.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenAdapter struct {
	enc *tiktoken.Tiktoken
}

func (a *tiktokenAdapter) Encode(text string) []int {
	return a.enc.Encode(text, nil, nil)
}

func (a *tiktokenAdapter) Decode(tokens []int) string {
	return a.enc.Decode(tokens)
}

// Chunker splits text using a fixed tokenizer and configuration.
type Chunker struct {
	tok Tokenizer
	cfg Config
}

// New creates a Chunker backed by the cl100k_base tiktoken encoding.
func New(cfg Config) (*Chunker, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", DefaultEncoding, err)
	}
	return NewWithTokenizer(&tiktokenAdapter{enc: enc}, cfg), nil
}

// NewWithTokenizer creates a Chunker with an explicit tokenizer.
func NewWithTokenizer(tok Tokenizer, cfg Config) *Chunker {
	if cfg.TargetTokens <= 0 {
		cfg = DefaultConfig()
	}
	return &Chunker{tok: tok, cfg: cfg}
}

// Chunk splits text into overlapping drafts of at most TargetTokens tokens.
// Consecutive drafts overlap by approximately OverlapTokens. Chunk boundaries
// prefer paragraph breaks, line breaks, then sentence ends over hard token
// cuts. A text that yields no non-empty chunks is an error, not an empty
// result.
func (c *Chunker) Chunk(text string, sections []Section) ([]Draft, error) {
	tokens := c.tok.Encode(text)
	total := len(tokens)

	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrNoChunksProduced
	}

	if total <= c.cfg.TargetTokens {
		var heading []string
		if len(sections) > 0 {
			heading = sections[0].HeadingPath
		}
		return []Draft{{
			Text:        text,
			HeadingPath: heading,
			TokenCount:  total,
			Order:       0,
		}}, nil
	}

	drafts := make([]Draft, 0, total/c.cfg.TargetTokens+1)
	pos := 0

	for pos < total {
		end := pos + c.cfg.TargetTokens
		if end > total {
			end = total
		}

		chunkText := c.tok.Decode(tokens[pos:end])

		// Look a little past the hard cut and scan backward for a natural
		// boundary so sentences are not severed mid-way.
		windowEnd := end + boundaryLookaheadTokens
		if windowEnd > total {
			windowEnd = total
		}
		windowText := c.tok.Decode(tokens[pos:windowEnd])

		if idx, ok := findBoundary(windowText); ok {
			chunkText = windowText[:idx]
		}

		heading := matchHeading(chunkText, sections)
		tokenCount := len(c.tok.Encode(chunkText))

		if strings.TrimSpace(chunkText) != "" {
			drafts = append(drafts, Draft{
				Text:        chunkText,
				HeadingPath: heading,
				TokenCount:  tokenCount,
				Order:       len(drafts),
			})
		}

		// Overlap larger than the chunk must still move the cursor forward.
		advance := tokenCount - c.cfg.OverlapTokens
		if advance < 1 {
			advance = 1
		}
		pos += advance
	}

	if len(drafts) == 0 {
		return nil, domain.ErrNoChunksProduced
	}

	return drafts, nil
}

// findBoundary looks for the last soft separator within the final
// boundaryScanChars of the window. Returns the byte index to cut at.
func findBoundary(windowText string) (int, bool) {
	scanFrom := len(windowText) - boundaryScanChars
	if scanFrom < 0 {
		scanFrom = 0
	}

	for _, sep := range softSeparators {
		idx := strings.LastIndex(windowText[scanFrom:], sep)
		if idx < 0 {
			continue
		}
		cut := scanFrom + idx
		// Sentence punctuation stays in the chunk; newlines do not.
		if !strings.HasPrefix(sep, "\n") {
			cut += len(sep)
		}
		return cut, true
	}

	return 0, false
}

// matchHeading attributes a heading breadcrumb by best-effort containment:
// the first section whose opening text appears in the chunk, or whose text
// contains the chunk's opening, wins.
func matchHeading(chunkText string, sections []Section) []string {
	if len(sections) == 0 {
		return nil
	}

	chunkLower := strings.ToLower(chunkText)
	chunkStart := strings.ToLower(strings.TrimSpace(prefix(chunkText, headingMatchChars)))

	for _, section := range sections {
		snippet := strings.ToLower(strings.TrimSpace(prefix(section.Text, headingMatchChars)))
		if snippet == "" {
			continue
		}
		if strings.Contains(chunkLower, snippet) {
			return section.HeadingPath
		}
		if chunkStart != "" && strings.Contains(strings.ToLower(section.Text), chunkStart) {
			return section.HeadingPath
		}
	}

	return nil
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
