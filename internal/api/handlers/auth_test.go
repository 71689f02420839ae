package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) CreateOrg(ctx context.Context, name string) (*domain.Organization, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *MockAuthService) CreateAPIKey(ctx context.Context, orgID, name string) (string, error) {
	args := m.Called(ctx, orgID, name)
	return args.String(0), args.Error(1)
}

func TestAuthHandler_CreateOrg(t *testing.T) {
	mockSvc := new(MockAuthService)
	handler := NewAuthHandler(mockSvc)

	org := &domain.Organization{
		ID:        "org-1",
		Name:      "Acme Corp",
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	mockSvc.On("CreateOrg", mock.Anything, "Acme Corp").Return(org, nil)

	body, _ := json.Marshal(CreateOrgRequest{Name: "Acme Corp"})
	req := httptest.NewRequest(http.MethodPost, "/orgs", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.CreateOrg(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data OrgResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "org-1", resp.Data.ID)
	assert.Equal(t, "Acme Corp", resp.Data.Name)
}

func TestAuthHandler_CreateOrg_MissingName(t *testing.T) {
	handler := NewAuthHandler(new(MockAuthService))

	req := httptest.NewRequest(http.MethodPost, "/orgs", bytes.NewReader([]byte("{}")))
	rec := httptest.NewRecorder()

	handler.CreateOrg(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_CreateAPIKey(t *testing.T) {
	mockSvc := new(MockAuthService)
	handler := NewAuthHandler(mockSvc)

	token := "aeo_" + strings.Repeat("ab", 32)
	mockSvc.On("CreateAPIKey", mock.Anything, "org-1", "ci key").Return(token, nil)

	body, _ := json.Marshal(CreateAPIKeyRequest{OrgID: "org-1", Name: "ci key"})
	req := httptest.NewRequest(http.MethodPost, "/apikeys", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.CreateAPIKey(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data APIKeyResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, token, resp.Data.Token)
	assert.Equal(t, "ci key", resp.Data.Name)
}

func TestAuthHandler_CreateAPIKey_Validation(t *testing.T) {
	handler := NewAuthHandler(new(MockAuthService))

	tests := []struct {
		name string
		body CreateAPIKeyRequest
	}{
		{"missing org_id", CreateAPIKeyRequest{Name: "ci key"}},
		{"missing name", CreateAPIKeyRequest{OrgID: "org-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/apikeys", bytes.NewReader(body))
			rec := httptest.NewRecorder()

			handler.CreateAPIKey(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAuthHandler_CreateAPIKey_OrgNotFound(t *testing.T) {
	mockSvc := new(MockAuthService)
	handler := NewAuthHandler(mockSvc)

	mockSvc.On("CreateAPIKey", mock.Anything, "missing", "ci key").Return("", domain.ErrOrganizationNotFound)

	body, _ := json.Marshal(CreateAPIKeyRequest{OrgID: "missing", Name: "ci key"})
	req := httptest.NewRequest(http.MethodPost, "/apikeys", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.CreateAPIKey(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
