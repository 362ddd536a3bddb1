package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/devraulu/linkscrub/pkg/cleaner"
	"github.com/devraulu/linkscrub/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMux(t *testing.T) (*http.ServeMux, *storage.MemoryStorage) {
	t.Helper()
	rule, err := cleaner.CompileReserveRule(`^https?://www\.example\.com/.*`, []string{"t"})
	require.NoError(t, err)

	store := storage.NewMemoryStorage()
	return newMux(cleaner.New(cleaner.Options{Rules: []cleaner.ReserveRule{rule}}), store), store
}

func TestHandleClean(t *testing.T) {
	mux, store := newTestMux(t)

	target := "https://www.example.com/video/ABC?t=360&track_id=2"
	req := httptest.NewRequest(http.MethodGet, "/clean?url="+url.QueryEscape(target), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp CleanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, target, resp.OriginalURL)
	assert.Equal(t, "https://www.example.com/video/ABC?t=360", resp.CleanedURL)
	assert.Empty(t, resp.Error)

	req = httptest.NewRequest(http.MethodGet, "/recent?limit=5", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var links []LinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &links))
	require.Len(t, links, 1)
	assert.Equal(t, "https://www.example.com/video/ABC?t=360", links[0].CleanedURL)

	saved, _ := store.RecentLinks(req.Context(), 1)
	assert.Equal(t, "https://example.com/video/ABC?t=360", saved[0].NormalizedURL)
}

func TestHandleCleanErrors(t *testing.T) {
	mux, _ := newTestMux(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{name: "missing url", target: "/clean", status: http.StatusBadRequest},
		{name: "invalid url", target: "/clean?url=" + url.QueryEscape("no-scheme/path"), status: http.StatusUnprocessableEntity},
		{name: "bad limit", target: "/recent?limit=abc", status: http.StatusBadRequest},
		{name: "wrong method", target: "/clean", status: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodGet
			if tt.status == http.StatusMethodNotAllowed {
				method = http.MethodPost
			}
			req := httptest.NewRequest(method, tt.target, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHealthz(t *testing.T) {
	mux, _ := newTestMux(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}
