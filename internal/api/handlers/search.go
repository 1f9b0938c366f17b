package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/loomnotes/loom/internal/api"
	"github.com/loomnotes/loom/internal/api/middleware"
	"github.com/loomnotes/loom/internal/domain"
	"github.com/loomnotes/loom/internal/service"
)

type AskService interface {
	Ask(ctx context.Context, identity *domain.Identity, query string) (*service.Answer, error)
}

type SearchHandler struct {
	svc AskService
}

func NewSearchHandler(svc AskService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Query string `json:"query"`
}

type CitationResponse struct {
	ItemID          string   `json:"item_id"`
	Kind            string   `json:"kind"`
	Title           string   `json:"title"`
	SourceURI       string   `json:"source_uri,omitempty"`
	ChunkIndex      int      `json:"chunk_index"`
	HeadingPath     []string `json:"heading_path,omitempty"`
	SimilarityScore float64  `json:"similarity_score"`
	RelevanceScore  float64  `json:"relevance_score"`
}

type SearchResponse struct {
	Answer      string             `json:"answer"`
	Citations   []CitationResponse `json:"citations"`
	UsedItemIDs []string           `json:"used_item_ids"`
}

// Search runs the full retrieval pipeline for the authenticated employee.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := h.svc.Ask(r.Context(), identity, req.Query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	citations := make([]CitationResponse, len(answer.Citations))
	for i, c := range answer.Citations {
		citations[i] = CitationResponse{
			ItemID:          c.ItemID,
			Kind:            string(c.Kind),
			Title:           c.Title,
			SourceURI:       c.SourceURI,
			ChunkIndex:      c.ChunkIndex,
			HeadingPath:     c.HeadingPath,
			SimilarityScore: c.SimilarityScore,
			RelevanceScore:  c.RelevanceScore,
		}
	}

	api.Success(w, http.StatusOK, SearchResponse{
		Answer:      answer.Text,
		Citations:   citations,
		UsedItemIDs: answer.UsedItemIDs,
	})
}
