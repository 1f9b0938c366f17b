package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/loomnotes/loom/internal/api/handlers"
	"github.com/loomnotes/loom/internal/domain"
	"github.com/loomnotes/loom/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("router-test-secret")

type MockIdentityResolver struct {
	mock.Mock
}

func (m *MockIdentityResolver) ResolveIdentity(ctx context.Context, employeeID string) (*domain.Identity, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

type MockAskService struct {
	mock.Mock
}

func (m *MockAskService) Ask(ctx context.Context, identity *domain.Identity, query string) (*service.Answer, error) {
	args := m.Called(ctx, identity, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Answer), args.Error(1)
}

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Get(ctx context.Context, identity *domain.Identity, id string) (*domain.Document, error) {
	args := m.Called(ctx, identity, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, identity *domain.Identity) ([]*domain.Document, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, identity *domain.Identity, id string) error {
	args := m.Called(ctx, identity, id)
	return args.Error(0)
}

type MockDocumentCreator struct {
	mock.Mock
}

func (m *MockDocumentCreator) CreateDocument(ctx context.Context, input service.CreateDocumentInput) (*domain.Document, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

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

func setupRouter() (http.Handler, *MockIdentityResolver, *MockAskService, *MockDocumentService, *MockHandoverService) {
	resolver := new(MockIdentityResolver)
	askSvc := new(MockAskService)
	docSvc := new(MockDocumentService)
	handoverSvc := new(MockHandoverService)

	cfg := RouterConfig{
		JWTSecret:        testSecret,
		IdentityResolver: resolver,
		SearchHandler:    handlers.NewSearchHandler(askSvc),
		DocumentHandler:  handlers.NewDocumentHandler(docSvc, new(MockDocumentCreator)),
		HandoverHandler:  handlers.NewHandoverHandler(handoverSvc),
	}

	return NewRouter(cfg), resolver, askSvc, docSvc, handoverSvc
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: subject})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_AuthenticatedRoutes_RequireAuth(t *testing.T) {
	router, _, _, _, _ := setupRouter()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/search"},
		{http.MethodPost, "/documents"},
		{http.MethodGet, "/documents"},
		{http.MethodGet, "/documents/123"},
		{http.MethodDelete, "/documents/123"},
		{http.MethodPost, "/handovers"},
		{http.MethodGet, "/handovers"},
		{http.MethodGet, "/handovers/123"},
		{http.MethodPatch, "/handovers/123"},
		{http.MethodDelete, "/handovers/123"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_Search_WithValidToken(t *testing.T) {
	router, resolver, askSvc, _, _ := setupRouter()

	identity := &domain.Identity{ID: "emp-1", ProjectMemberships: []string{"atlas"}}
	resolver.On("ResolveIdentity", mock.Anything, "emp-1").Return(identity, nil)
	askSvc.On("Ask", mock.Anything, identity, "how do I deploy?").
		Return(&service.Answer{Text: "run make deploy", UsedItemIDs: []string{"doc-1"}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"how do I deploy?"}`))
	req.Header.Set("Authorization", "Bearer "+signToken(t, "emp-1"))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resolver.AssertExpectations(t)
	askSvc.AssertExpectations(t)
}

func TestRouter_RejectsForgedToken(t *testing.T) {
	router, resolver, _, _, _ := setupRouter()

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "emp-1"})
	signed, err := forged.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resolver.AssertNotCalled(t, "ResolveIdentity", mock.Anything, mock.Anything)
}

func TestRouter_HandoverStatusPatch(t *testing.T) {
	router, resolver, _, _, handoverSvc := setupRouter()

	identity := &domain.Identity{ID: "emp-2"}
	resolver.On("ResolveIdentity", mock.Anything, "emp-2").Return(identity, nil)
	handoverSvc.On("UpdateStatus", mock.Anything, identity, "ho-1", domain.HandoverStatusCompleted).
		Return(&domain.Handover{ID: "ho-1", FromEmployee: "emp-1", ToEmployee: "emp-2", Status: domain.HandoverStatusCompleted}, nil)

	req := httptest.NewRequest(http.MethodPatch, "/handovers/ho-1", strings.NewReader(`{"status":"completed"}`))
	req.Header.Set("Authorization", "Bearer "+signToken(t, "emp-2"))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	handoverSvc.AssertExpectations(t)
}
