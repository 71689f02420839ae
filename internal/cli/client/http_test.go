package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api, err := NewAPIClientWithConfig("aeo_testkey", srv.URL)
	require.NoError(t, err)
	return api
}

func TestAPIClient_Get_SendsAuthHeader(t *testing.T) {
	var gotAuth, gotContentType string
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"id":"project-1"}}`))
	})

	resp, err := api.Get("/projects/project-1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer aeo_testkey", gotAuth)
	assert.Equal(t, "application/json", gotContentType)

	var data map[string]string
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "project-1", data["id"])
}

func TestAPIClient_Post_MarshalsBody(t *testing.T) {
	var gotBody map[string]string
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"new-id"}}`))
	})

	_, err := api.Post("/projects", map[string]string{"name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", gotBody["name"])
}

func TestAPIClient_ErrorResponse(t *testing.T) {
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"project not found"}`))
	})

	_, err := api.Get("/projects/missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "project not found", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "404")
}

func TestAPIClient_ErrorResponse_NonJSON(t *testing.T) {
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	})

	_, err := api.Get("/projects")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestAPIClient_NoContent(t *testing.T) {
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	resp, err := api.Delete("/projects/project-1")
	require.NoError(t, err)
	assert.Empty(t, resp.Data)
	assert.Empty(t, resp.Error)
}

func TestAPIClient_DownloadFile(t *testing.T) {
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("id,project_id\nabc,project-1\n"))
	})

	outPath := filepath.Join(t.TempDir(), "checks.csv")
	require.NoError(t, api.DownloadFile(api.baseURL+"/file", outPath))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "project-1")
}

func TestNewAPIClientWithCmd_EnvFallback(t *testing.T) {
	os.Setenv(envAPIKey, "aeo_envkey")
	os.Setenv(envAPIURL, "http://example.test:9999")
	defer func() {
		os.Unsetenv(envAPIKey)
		os.Unsetenv(envAPIURL)
	}()

	api, err := NewAPIClientWithCmd(nil)
	require.NoError(t, err)
	assert.Equal(t, "aeo_envkey", api.apiKey)
	assert.Equal(t, "http://example.test:9999", api.baseURL)
}

func TestNewAPIClientWithCmd_MissingKey(t *testing.T) {
	os.Unsetenv(envAPIKey)
	os.Unsetenv(envAPIURL)

	tmpDir := t.TempDir()
	oldGetConfigPath := getConfigPathFunc
	getConfigPathFunc = func() (string, error) {
		return filepath.Join(tmpDir, "config.json"), nil
	}
	defer func() { getConfigPathFunc = oldGetConfigPath }()

	_, err := NewAPIClientWithCmd(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AEOTRACK_API_KEY")
}
