package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loomnotes/loom/internal/domain"
	"github.com/loomnotes/loom/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockHandoverService struct {
	mock.Mock
}

func (m *MockHandoverService) Create(ctx context.Context, identity *domain.Identity, input service.CreateHandoverInput) (*domain.Handover, error) {
	args := m.Called(ctx, identity, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Handover), args.Error(1)
}

func (m *MockHandoverService) Get(ctx context.Context, identity *domain.Identity, id string) (*domain.Handover, error) {
	args := m.Called(ctx, identity, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Handover), args.Error(1)
}

func (m *MockHandoverService) List(ctx context.Context, identity *domain.Identity) ([]*domain.Handover, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Handover), args.Error(1)
}

func (m *MockHandoverService) UpdateStatus(ctx context.Context, identity *domain.Identity, id string, status domain.HandoverStatus) (*domain.Handover, error) {
	args := m.Called(ctx, identity, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Handover), args.Error(1)
}

func (m *MockHandoverService) Delete(ctx context.Context, identity *domain.Identity, id string) error {
	args := m.Called(ctx, identity, id)
	return args.Error(0)
}

func newTestHandover() *domain.Handover {
	return &domain.Handover{
		ID:           "ho-1",
		Title:        "Payments rotation",
		FromEmployee: "emp-1",
		ToEmployee:   "emp-2",
		Status:       domain.HandoverStatusPending,
		Context:      "Taking over the pager.",
		NextSteps:    []domain.HandoverStep{{Task: "Rotate the keys", Done: false}},
		CreatedAt:    time.Now().UTC(),
	}
}

func TestHandoverHandler_Create_Success(t *testing.T) {
	mockSvc := new(MockHandoverService)
	handler := NewHandoverHandler(mockSvc)

	mockSvc.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(input service.CreateHandoverInput) bool {
		return input.Title == "Payments rotation" && input.ToEmployee == "emp-2"
	})).Return(newTestHandover(), nil)

	body := `{"title":"Payments rotation","to_employee":"emp-2","context":"Taking over the pager.","next_steps":[{"task":"Rotate the keys","done":false}]}`
	req := requestWithIdentity(http.MethodPost, "/handovers", []byte(body))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Data HandoverResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ho-1", resp.Data.ID)
	assert.Equal(t, "pending", resp.Data.Status)
	require.Len(t, resp.Data.NextSteps, 1)
	assert.Equal(t, "Rotate the keys", resp.Data.NextSteps[0].Task)
}

func TestHandoverHandler_Create_MissingRecipient(t *testing.T) {
	mockSvc := new(MockHandoverService)
	handler := NewHandoverHandler(mockSvc)

	req := requestWithIdentity(http.MethodPost, "/handovers", []byte(`{"title":"No recipient"}`))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandoverHandler_Create_SelfTarget(t *testing.T) {
	mockSvc := new(MockHandoverService)
	handler := NewHandoverHandler(mockSvc)

	mockSvc.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrHandoverSelfTarget)

	body := `{"title":"To myself","to_employee":"emp-1"}`
	req := requestWithIdentity(http.MethodPost, "/handovers", []byte(body))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandoverHandler_Get_Forbidden(t *testing.T) {
	mockSvc := new(MockHandoverService)
	handler := NewHandoverHandler(mockSvc)

	mockSvc.On("Get", mock.Anything, mock.Anything, "ho-1").Return(nil, domain.ErrAccessDenied)

	req := withURLParam(requestWithIdentity(http.MethodGet, "/handovers/ho-1", nil), "id", "ho-1")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandoverHandler_List_Success(t *testing.T) {
	mockSvc := new(MockHandoverService)
	handler := NewHandoverHandler(mockSvc)

	mockSvc.On("List", mock.Anything, mock.Anything).
		Return([]*domain.Handover{newTestHandover()}, nil)

	req := requestWithIdentity(http.MethodGet, "/handovers", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data HandoverListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Handovers, 1)
}

func TestHandoverHandler_UpdateStatus_Success(t *testing.T) {
	mockSvc := new(MockHandoverService)
	handler := NewHandoverHandler(mockSvc)

	updated := newTestHandover()
	updated.Status = domain.HandoverStatusAcknowledged
	now := time.Now().UTC()
	updated.AcknowledgedAt = &now

	mockSvc.On("UpdateStatus", mock.Anything, mock.Anything, "ho-1", domain.HandoverStatusAcknowledged).
		Return(updated, nil)

	req := withURLParam(requestWithIdentity(http.MethodPatch, "/handovers/ho-1", []byte(`{"status":"acknowledged"}`)), "id", "ho-1")
	w := httptest.NewRecorder()

	handler.UpdateStatus(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data HandoverResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "acknowledged", resp.Data.Status)
	assert.NotEmpty(t, resp.Data.AcknowledgedAt)
}

func TestHandoverHandler_UpdateStatus_NotRecipient(t *testing.T) {
	mockSvc := new(MockHandoverService)
	handler := NewHandoverHandler(mockSvc)

	mockSvc.On("UpdateStatus", mock.Anything, mock.Anything, "ho-1", domain.HandoverStatusCompleted).
		Return(nil, domain.ErrNotHandoverTarget)

	req := withURLParam(requestWithIdentity(http.MethodPatch, "/handovers/ho-1", []byte(`{"status":"completed"}`)), "id", "ho-1")
	w := httptest.NewRecorder()

	handler.UpdateStatus(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandoverHandler_UpdateStatus_InvalidTransition(t *testing.T) {
	mockSvc := new(MockHandoverService)
	handler := NewHandoverHandler(mockSvc)

	mockSvc.On("UpdateStatus", mock.Anything, mock.Anything, "ho-1", domain.HandoverStatusPending).
		Return(nil, domain.ErrInvalidStatusTransition)

	req := withURLParam(requestWithIdentity(http.MethodPatch, "/handovers/ho-1", []byte(`{"status":"pending"}`)), "id", "ho-1")
	w := httptest.NewRecorder()

	handler.UpdateStatus(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandoverHandler_Delete_NotSender(t *testing.T) {
	mockSvc := new(MockHandoverService)
	handler := NewHandoverHandler(mockSvc)

	mockSvc.On("Delete", mock.Anything, mock.Anything, "ho-1").Return(domain.ErrNotHandoverSender)

	req := withURLParam(requestWithIdentity(http.MethodDelete, "/handovers/ho-1", nil), "id", "ho-1")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
