package service

import (
	"context"

	"github.com/loomnotes/loom/internal/domain"
	"github.com/loomnotes/loom/internal/telemetry"
)

// RerankService narrows an oversampled candidate list to the final context
// window using a cross-encoder relevance model.
type RerankService struct {
	reranker Reranker
	finalK   int
}

func NewRerankService(reranker Reranker, finalK int) *RerankService {
	return &RerankService{
		reranker: reranker,
		finalK:   finalK,
	}
}

// Rerank scores each candidate's text against the query and returns the top
// candidates in relevance order. An empty input returns empty without a
// remote call.
func (s *RerankService) Rerank(ctx context.Context, query string, candidates []*domain.RetrievedCandidate) ([]*domain.RetrievedCandidate, error) {
	if len(candidates) == 0 {
		return []*domain.RetrievedCandidate{}, nil
	}

	ctx, span := telemetry.StartSpan(ctx, "retrieval.rerank", telemetry.SpanAttributes{
		Operation: "rerank",
	})
	defer span.End()

	documents := make([]string, len(candidates))
	for i, c := range candidates {
		documents[i] = c.Chunk.Text
	}

	results, err := s.reranker.Rerank(ctx, query, documents, s.finalK)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewUpstreamError("rerank", err)
	}

	reranked := make([]*domain.RetrievedCandidate, 0, len(results))
	for _, r := range results {
		cand := candidates[r.Index]
		cand.RelevanceScore = r.RelevanceScore
		reranked = append(reranked, cand)
	}
	if len(reranked) > s.finalK {
		reranked = reranked[:s.finalK]
	}
	return reranked, nil
}
