package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/loomnotes/loom/internal/api"
	"github.com/loomnotes/loom/internal/api/middleware"
	"github.com/loomnotes/loom/internal/domain"
	"github.com/loomnotes/loom/internal/service"
)

type DocumentReader interface {
	Get(ctx context.Context, identity *domain.Identity, id string) (*domain.Document, error)
	List(ctx context.Context, identity *domain.Identity) ([]*domain.Document, error)
	Delete(ctx context.Context, identity *domain.Identity, id string) error
}

type DocumentCreator interface {
	CreateDocument(ctx context.Context, input service.CreateDocumentInput) (*domain.Document, error)
}

type DocumentHandler struct {
	docs    DocumentReader
	creator DocumentCreator
}

func NewDocumentHandler(docs DocumentReader, creator DocumentCreator) *DocumentHandler {
	return &DocumentHandler{docs: docs, creator: creator}
}

type CreateDocumentRequest struct {
	Title        string `json:"title"`
	OwnerProject string `json:"owner_project,omitempty"`
	Visibility   string `json:"visibility"`
	Body         string `json:"body"`
}

type DocumentResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	OwnerProject string `json:"owner_project,omitempty"`
	Visibility   string `json:"visibility"`
	SourceURI    string `json:"source_uri,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type DocumentListResponse struct {
	Documents []*DocumentResponse `json:"documents"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:           d.ID,
		Title:        d.Title,
		OwnerProject: d.OwnerProject,
		Visibility:   string(d.Visibility),
		SourceURI:    d.SourceURI,
		CreatedAt:    d.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    d.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	visibility := domain.Visibility(req.Visibility)
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}

	doc, err := h.creator.CreateDocument(r.Context(), service.CreateDocumentInput{
		Title:        req.Title,
		OwnerProject: req.OwnerProject,
		Visibility:   visibility,
		Body:         req.Body,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, documentToResponse(doc))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	docs, err := h.docs.List(r.Context(), identity)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*DocumentResponse, len(docs))
	for i, d := range docs {
		responses[i] = documentToResponse(d)
	}

	api.Success(w, http.StatusOK, DocumentListResponse{Documents: responses})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	doc, err := h.docs.Get(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.docs.Delete(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "deleted"})
}
