package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/pagefill/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	mock.Mock
}

func (m *mockSearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchResult), args.Error(1)
}

func (m *mockSearchService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func TestHandleSearch(t *testing.T) {
	searcher := new(mockSearchService)
	searcher.On("Search", mock.Anything, "lunar module", domain.SearchOptions{MatchCount: 30}).
		Return([]domain.SearchResult{
			{ID: "p1", ParentRecordID: "r1", PageNumber: "2", Content: "the lunar module", Similarity: 0.91},
		}, nil)

	server := NewServer(0, searcher, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=lunar+module", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results []searchResponse `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, "p1", body.Results[0].ID)
	assert.Equal(t, "2", body.Results[0].PageNumber)
	assert.InDelta(t, 0.91, body.Results[0].Similarity, 1e-9)
	searcher.AssertExpectations(t)
}

func TestHandleSearchCustomMatchCount(t *testing.T) {
	searcher := new(mockSearchService)
	searcher.On("Search", mock.Anything, "q", domain.SearchOptions{MatchCount: 5}).
		Return([]domain.SearchResult{}, nil)

	server := NewServer(0, searcher, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=q&match_count=5", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	searcher.AssertExpectations(t)
}

func TestHandleSearchInvalidMatchCount(t *testing.T) {
	server := NewServer(0, new(mockSearchService), nil)

	for _, raw := range []string{"abc", "0", "-3"} {
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=q&match_count="+raw, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "match_count=%s", raw)
	}
}

func TestHandleSearchServiceError(t *testing.T) {
	searcher := new(mockSearchService)
	searcher.On("Search", mock.Anything, "q", mock.Anything).
		Return(nil, domain.ErrSearchFailed)

	server := NewServer(0, searcher, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=q", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleSearchMethodNotAllowed(t *testing.T) {
	server := NewServer(0, new(mockSearchService), nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader("{}")))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	server := NewServer(0, new(mockSearchService), nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestChatProxyForwardsRequest(t *testing.T) {
	var gotPath, gotAuth, gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"textResponse":"The records show..."}`))
	}))
	defer upstream.Close()

	proxy := NewChatProxy(ProxyConfig{
		UpstreamURL: upstream.URL,
		Workspace:   "archive",
		APIKey:      "secret-key",
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"who wrote this memo?","mode":"chat"}`))
	proxy.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/v1/workspace/archive/chat", gotPath)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.JSONEq(t, `{"message":"who wrote this memo?","mode":"chat"}`, gotBody)
	assert.JSONEq(t, `{"textResponse":"The records show..."}`, rec.Body.String())
}

func TestChatProxyUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer upstream.Close()

	proxy := NewChatProxy(ProxyConfig{UpstreamURL: upstream.URL, Workspace: "archive", APIKey: "k"})

	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, proxyErrorBody, rec.Body.String())
}

func TestChatProxyUnreachableUpstream(t *testing.T) {
	proxy := NewChatProxy(ProxyConfig{UpstreamURL: "http://127.0.0.1:1", Workspace: "archive", APIKey: "k"})

	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, proxyErrorBody, rec.Body.String())
}

func TestChatProxyMethodNotAllowed(t *testing.T) {
	proxy := NewChatProxy(ProxyConfig{UpstreamURL: "http://example.com", Workspace: "w", APIKey: "k"})

	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestChatRouteAbsentWithoutProxy(t *testing.T) {
	server := NewServer(0, new(mockSearchService), nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
