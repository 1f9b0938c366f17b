package service

import (
	"context"
	"sort"

	"github.com/loomnotes/loom/internal/domain"
	"github.com/loomnotes/loom/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// RetrievalService runs permission-partitioned nearest-neighbor search over
// both chunk sources and merges the results into one ranked candidate list.
type RetrievalService struct {
	chunks      ChunkRepositoryInterface
	dimensions  int
	oversampleK int
}

func NewRetrievalService(chunks ChunkRepositoryInterface, dimensions, oversampleK int) *RetrievalService {
	return &RetrievalService{
		chunks:      chunks,
		dimensions:  dimensions,
		oversampleK: oversampleK,
	}
}

// Retrieve searches document and handover chunks concurrently, each with the
// requester's access rule pushed into the query, and merges both result sets
// ordered by similarity. The merged list is capped at the oversample size.
func (s *RetrievalService) Retrieve(ctx context.Context, identity *domain.Identity, embedding []float32) ([]*domain.RetrievedCandidate, error) {
	ctx, span := telemetry.StartSpan(ctx, "retrieval.retrieve", telemetry.SpanAttributes{
		EmployeeID: identity.ID,
		Operation:  "vector_search",
	})
	defer span.End()

	if len(embedding) != s.dimensions {
		return nil, domain.NewEmbeddingDimensionError(s.dimensions, len(embedding))
	}

	var docResults, handoverResults []*domain.RetrievedCandidate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docResults, err = s.chunks.SearchDocumentChunks(gctx, embedding, identity.ProjectMemberships, s.oversampleK)
		return err
	})
	g.Go(func() error {
		var err error
		handoverResults, err = s.chunks.SearchHandoverChunks(gctx, embedding, identity.ID, s.oversampleK)
		return err
	})
	if err := g.Wait(); err != nil {
		span.SetError(err)
		return nil, domain.NewUpstreamError("search", err)
	}

	merged := make([]*domain.RetrievedCandidate, 0, len(docResults)+len(handoverResults))
	merged = append(merged, docResults...)
	merged = append(merged, handoverResults...)

	sortCandidates(merged)

	if len(merged) > s.oversampleK {
		merged = merged[:s.oversampleK]
	}
	return merged, nil
}

// sortCandidates orders by similarity descending. Ties rank documents before
// handovers, then fall back to chunk ID so ordering is deterministic.
func sortCandidates(candidates []*domain.RetrievedCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.SimilarityScore != b.SimilarityScore {
			return a.SimilarityScore > b.SimilarityScore
		}
		if a.Chunk.ParentKind != b.Chunk.ParentKind {
			return a.Chunk.ParentKind == domain.ParentKindDocument
		}
		return a.Chunk.ID < b.Chunk.ID
	})
}
