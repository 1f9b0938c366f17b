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

type HandoverManager interface {
	Create(ctx context.Context, identity *domain.Identity, input service.CreateHandoverInput) (*domain.Handover, error)
	Get(ctx context.Context, identity *domain.Identity, id string) (*domain.Handover, error)
	List(ctx context.Context, identity *domain.Identity) ([]*domain.Handover, error)
	UpdateStatus(ctx context.Context, identity *domain.Identity, id string, status domain.HandoverStatus) (*domain.Handover, error)
	Delete(ctx context.Context, identity *domain.Identity, id string) error
}

type HandoverHandler struct {
	svc HandoverManager
}

func NewHandoverHandler(svc HandoverManager) *HandoverHandler {
	return &HandoverHandler{svc: svc}
}

type CreateHandoverRequest struct {
	Title           string                    `json:"title"`
	ToEmployee      string                    `json:"to_employee"`
	CCEmployees     []string                  `json:"cc_employees,omitempty"`
	ProjectID       string                    `json:"project_id,omitempty"`
	Context         string                    `json:"context,omitempty"`
	NextSteps       []domain.HandoverStep     `json:"next_steps,omitempty"`
	Resources       []domain.HandoverResource `json:"resources,omitempty"`
	Contacts        []domain.HandoverContact  `json:"contacts,omitempty"`
	AdditionalNotes string                    `json:"additional_notes,omitempty"`
}

type UpdateHandoverStatusRequest struct {
	Status string `json:"status"`
}

type HandoverResponse struct {
	ID              string                    `json:"id"`
	Title           string                    `json:"title"`
	FromEmployee    string                    `json:"from_employee"`
	ToEmployee      string                    `json:"to_employee"`
	CCEmployees     []string                  `json:"cc_employees,omitempty"`
	Status          string                    `json:"status"`
	ProjectID       string                    `json:"project_id,omitempty"`
	Context         string                    `json:"context,omitempty"`
	NextSteps       []domain.HandoverStep     `json:"next_steps,omitempty"`
	Resources       []domain.HandoverResource `json:"resources,omitempty"`
	Contacts        []domain.HandoverContact  `json:"contacts,omitempty"`
	AdditionalNotes string                    `json:"additional_notes,omitempty"`
	AcknowledgedAt  string                    `json:"acknowledged_at,omitempty"`
	CompletedAt     string                    `json:"completed_at,omitempty"`
	CreatedAt       string                    `json:"created_at"`
}

type HandoverListResponse struct {
	Handovers []*HandoverResponse `json:"handovers"`
}

func handoverToResponse(h *domain.Handover) *HandoverResponse {
	resp := &HandoverResponse{
		ID:              h.ID,
		Title:           h.Title,
		FromEmployee:    h.FromEmployee,
		ToEmployee:      h.ToEmployee,
		CCEmployees:     h.CCEmployees,
		Status:          string(h.Status),
		ProjectID:       h.ProjectID,
		Context:         h.Context,
		NextSteps:       h.NextSteps,
		Resources:       h.Resources,
		Contacts:        h.Contacts,
		AdditionalNotes: h.AdditionalNotes,
		CreatedAt:       h.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if h.AcknowledgedAt != nil {
		resp.AcknowledgedAt = h.AcknowledgedAt.UTC().Format(time.RFC3339Nano)
	}
	if h.CompletedAt != nil {
		resp.CompletedAt = h.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	return resp
}

func (h *HandoverHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateHandoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.ToEmployee == "" {
		api.Error(w, http.StatusBadRequest, "to_employee is required")
		return
	}

	handover, err := h.svc.Create(r.Context(), identity, service.CreateHandoverInput{
		Title:           req.Title,
		ToEmployee:      req.ToEmployee,
		CCEmployees:     req.CCEmployees,
		ProjectID:       req.ProjectID,
		Context:         req.Context,
		NextSteps:       req.NextSteps,
		Resources:       req.Resources,
		Contacts:        req.Contacts,
		AdditionalNotes: req.AdditionalNotes,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, handoverToResponse(handover))
}

func (h *HandoverHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	handover, err := h.svc.Get(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, handoverToResponse(handover))
}

func (h *HandoverHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	handovers, err := h.svc.List(r.Context(), identity)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*HandoverResponse, len(handovers))
	for i, item := range handovers {
		responses[i] = handoverToResponse(item)
	}

	api.Success(w, http.StatusOK, HandoverListResponse{Handovers: responses})
}

func (h *HandoverHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateHandoverStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Status == "" {
		api.Error(w, http.StatusBadRequest, "status is required")
		return
	}

	handover, err := h.svc.UpdateStatus(r.Context(), identity, chi.URLParam(r, "id"), domain.HandoverStatus(req.Status))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, handoverToResponse(handover))
}

func (h *HandoverHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.svc.Delete(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "deleted"})
}
