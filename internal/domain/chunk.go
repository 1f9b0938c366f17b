package domain

import "time"

// ParentKind identifies which content source a chunk belongs to.
type ParentKind string

const (
	ParentKindDocument ParentKind = "document"
	ParentKindHandover ParentKind = "handover"
)

// Chunk is a token-bounded slice of an item's text, the unit of embedding and retrieval.
// Exactly one of the parent IDs is set, matching ParentKind.
type Chunk struct {
	ID          string
	DocID       string
	HandoverID  string
	ParentKind  ParentKind
	ChunkIndex  int
	Text        string
	HeadingPath []string
	TokenCount  int
	Embedding   []float32
	CreatedAt   time.Time
}

// ParentID returns the ID of the owning item regardless of kind.
func (c *Chunk) ParentID() string {
	if c.ParentKind == ParentKindHandover {
		return c.HandoverID
	}
	return c.DocID
}

// RetrievedCandidate is an ephemeral retrieval result. It carries the similarity
// score from vector search and, after reranking, a cross-encoder relevance score.
type RetrievedCandidate struct {
	Chunk           Chunk
	Title           string
	SourceURI       string
	SimilarityScore float64
	RelevanceScore  float64
}
