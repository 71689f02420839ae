package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aeotrackhq/aeotrack/internal/domain"
	"github.com/aeotrackhq/aeotrack/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Export(ctx context.Context, orgID, projectID string, days int) (*service.ExportResult, error) {
	args := m.Called(ctx, orgID, projectID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportResult), args.Error(1)
}

func TestExportHandler_Create(t *testing.T) {
	mockSvc := new(MockExportService)
	handler := NewExportHandler(mockSvc)

	result := &service.ExportResult{
		Key:         "exports/project-1/checks-20260308-150405.csv",
		DownloadURL: "https://s3.example/signed",
		Rows:        42,
	}
	mockSvc.On("Export", mock.Anything, "org-1", "project-1", 30).Return(result, nil)

	body, _ := json.Marshal(CreateExportRequest{ProjectID: "project-1", Days: 30})
	req := withOrg(httptest.NewRequest(http.MethodPost, "/exports", bytes.NewReader(body)), "org-1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data service.ExportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, result.Key, resp.Data.Key)
	assert.Equal(t, 42, resp.Data.Rows)
}

func TestExportHandler_Create_MissingProjectID(t *testing.T) {
	handler := NewExportHandler(new(MockExportService))

	req := withOrg(httptest.NewRequest(http.MethodPost, "/exports", bytes.NewReader([]byte("{}"))), "org-1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportHandler_Create_StorageUnconfigured(t *testing.T) {
	mockSvc := new(MockExportService)
	handler := NewExportHandler(mockSvc)

	mockSvc.On("Export", mock.Anything, "org-1", "project-1", 0).
		Return(nil, domain.NewDomainError(domain.ErrCodeInternalError, "export storage is not configured"))

	body, _ := json.Marshal(CreateExportRequest{ProjectID: "project-1"})
	req := withOrg(httptest.NewRequest(http.MethodPost, "/exports", bytes.NewReader(body)), "org-1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
