package service

import (
	"context"
	"strings"
	"time"

	"github.com/loomnotes/loom/internal/domain"
	"github.com/loomnotes/loom/internal/telemetry"
)

// Retriever produces access-filtered candidates for a query embedding.
type Retriever interface {
	Retrieve(ctx context.Context, identity *domain.Identity, embedding []float32) ([]*domain.RetrievedCandidate, error)
}

// CandidateReranker narrows candidates to the final context window.
type CandidateReranker interface {
	Rerank(ctx context.Context, query string, candidates []*domain.RetrievedCandidate) ([]*domain.RetrievedCandidate, error)
}

// Synthesizer turns the final chunks into a grounded answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, candidates []*domain.RetrievedCandidate) (string, error)
}

// AuditRecorder records provenance without blocking or failing the caller.
type AuditRecorder interface {
	Record(employeeID, query string, usedItemIDs []string)
}

// Citation points an answer back at one retrieved chunk.
type Citation struct {
	ItemID          string            `json:"item_id"`
	Kind            domain.ParentKind `json:"kind"`
	Title           string            `json:"title"`
	SourceURI       string            `json:"source_uri,omitempty"`
	ChunkIndex      int               `json:"chunk_index"`
	HeadingPath     []string          `json:"heading_path,omitempty"`
	SimilarityScore float64           `json:"similarity_score"`
	RelevanceScore  float64           `json:"relevance_score"`
}

// Answer is the result of one pipeline run.
type Answer struct {
	Text        string     `json:"answer"`
	Citations   []Citation `json:"citations"`
	UsedItemIDs []string   `json:"used_item_ids"`
}

// AskTimeouts bound each remote stage of the pipeline.
type AskTimeouts struct {
	Embed  time.Duration
	Rerank time.Duration
	LLM    time.Duration
}

// AskService orchestrates the full query pipeline: embed, retrieve, rerank,
// synthesize, audit.
type AskService struct {
	embedder    Embedder
	retriever   Retriever
	reranker    CandidateReranker
	synthesizer Synthesizer
	audit       AuditRecorder
	timeouts    AskTimeouts
}

func NewAskService(embedder Embedder, retriever Retriever, reranker CandidateReranker, synthesizer Synthesizer, audit AuditRecorder, timeouts AskTimeouts) *AskService {
	return &AskService{
		embedder:    embedder,
		retriever:   retriever,
		reranker:    reranker,
		synthesizer: synthesizer,
		audit:       audit,
		timeouts:    timeouts,
	}
}

// Ask answers a question against everything the identity may see. A failed
// mandatory stage surfaces as an error; a run where the model legitimately
// finds nothing is still a success.
func (s *AskService) Ask(ctx context.Context, identity *domain.Identity, query string) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	ctx, span := telemetry.StartSpan(ctx, "ask.pipeline", telemetry.SpanAttributes{
		EmployeeID: identity.ID,
		Operation:  "ask",
	})
	defer span.End()

	embedCtx, cancel := withTimeout(ctx, s.timeouts.Embed)
	embedding, err := s.embedder.EmbedQuery(embedCtx, query)
	cancel()
	if err != nil {
		span.SetError(err)
		return nil, domain.NewUpstreamError("embed", err)
	}

	candidates, err := s.retriever.Retrieve(ctx, identity, embedding)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	rerankCtx, cancel := withTimeout(ctx, s.timeouts.Rerank)
	final, err := s.reranker.Rerank(rerankCtx, query, candidates)
	cancel()
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	llmCtx, cancel := withTimeout(ctx, s.timeouts.LLM)
	text, err := s.synthesizer.Synthesize(llmCtx, query, final)
	cancel()
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	usedIDs := usedItemIDs(final)
	s.audit.Record(identity.ID, query, usedIDs)

	citations := make([]Citation, 0, len(final))
	for _, c := range final {
		citations = append(citations, Citation{
			ItemID:          c.Chunk.ParentID(),
			Kind:            c.Chunk.ParentKind,
			Title:           c.Title,
			SourceURI:       c.SourceURI,
			ChunkIndex:      c.Chunk.ChunkIndex,
			HeadingPath:     c.Chunk.HeadingPath,
			SimilarityScore: c.SimilarityScore,
			RelevanceScore:  c.RelevanceScore,
		})
	}

	return &Answer{
		Text:        text,
		Citations:   citations,
		UsedItemIDs: usedIDs,
	}, nil
}

// usedItemIDs collects parent item IDs, deduplicated, in first-appearance order.
func usedItemIDs(candidates []*domain.RetrievedCandidate) []string {
	seen := make(map[string]struct{}, len(candidates))
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		id := c.Chunk.ParentID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
