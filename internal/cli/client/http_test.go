package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressReader_ReportsProgress(t *testing.T) {
	data := []byte("hello world this is test data")

	var last struct{ current, total int64 }
	calls := 0
	pr := &progressReader{
		reader: bytes.NewReader(data),
		total:  int64(len(data)),
		onProgress: func(current, total int64) {
			calls++
			last.current, last.total = current, total
		},
	}

	result, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, data, result)
	assert.Positive(t, calls)
	assert.Equal(t, int64(len(data)), last.current)
	assert.Equal(t, int64(len(data)), last.total)
}

func TestProgressReader_NilCallback(t *testing.T) {
	data := []byte("hello world")
	pr := &progressReader{reader: bytes.NewReader(data), total: int64(len(data))}

	result, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, data, result)
}

func TestAPIClient_PostSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/search", r.URL.Path)

		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "oauth", req.Query)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"query":"oauth","k":5,"results":[]}}`))
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig("secret", srv.URL)
	resp, err := api.Post("/api/search", SearchRequest{Query: "oauth"})
	require.NoError(t, err)

	var out SearchResponse
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.Equal(t, 5, out.K)
}

func TestAPIClient_NoTokenOmitsHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	_, err := NewAPIClientWithConfig("", srv.URL).Delete("/api/documents/pdf:a.pdf")
	assert.NoError(t, err)
}

func TestAPIClient_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"document not found"}`))
	}))
	defer srv.Close()

	_, err := NewAPIClientWithConfig("", srv.URL).Get("/api/documents/x")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "document not found", apiErr.Message)
}

func TestAPIClient_ErrorPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewAPIClientWithConfig("", srv.URL).PostRaw("/api/generate/markdown", GenerateRequest{Request: "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "bad gateway")
}

func TestAPIClient_UploadFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "design.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 test"), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 1)
		assert.Equal(t, "design.pdf", files[0].Filename)
		_, _ = w.Write([]byte(`{"data":{"items":[{"source":"design.pdf","ok":true,"chunks":1}],"succeeded":1,"failed":0}}`))
	}))
	defer srv.Close()

	var reported int64
	resp, err := NewAPIClientWithConfig("", srv.URL).UploadFiles("/api/documents/pdf", []string{path}, func(current, total int64) {
		reported = current
	})
	require.NoError(t, err)
	assert.Positive(t, reported)

	var batch BatchResult
	require.NoError(t, json.Unmarshal(resp.Data, &batch))
	assert.Equal(t, 1, batch.Succeeded)
}

func TestAPIClient_UploadFiles_MissingFile(t *testing.T) {
	_, err := NewAPIClientWithConfig("", "http://127.0.0.1:0").UploadFiles("/api/documents/pdf", []string{"missing.pdf"}, nil)
	assert.Error(t, err)
}

func TestNewAPIClientWithCmd_DefaultURL(t *testing.T) {
	withConfigDir(t)
	t.Setenv(envAPIToken, "")
	t.Setenv(envAPIURL, "")

	api, err := NewAPIClientWithCmd(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultAPIURL, api.baseURL)
	assert.Empty(t, api.apiToken)
}
