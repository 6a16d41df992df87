package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/pagefill/internal/core/domain"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := NewStore(Config{URL: srv.URL, Key: "test-key"})
	require.NoError(t, err)
	return store
}

func TestNewStoreValidation(t *testing.T) {
	_, err := NewStore(Config{Key: "k"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewStore(Config{URL: "https://x.supabase.co"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFetchErrorBatch(t *testing.T) {
	var gotQuery, gotAPIKey string
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAPIKey = r.Header.Get("apikey")
		ocr := "ERROR: unreadable"
		json.NewEncoder(w).Encode([]pageRow{ //nolint:errcheck
			{ID: "p1", PageNumber: "4", OCRResult: &ocr, Error: boolPtr(true)},
		})
	})

	pages, err := store.FetchErrorBatch(context.Background(), 1000)
	require.NoError(t, err)

	require.Len(t, pages, 1)
	assert.Equal(t, "p1", pages[0].ID)
	assert.True(t, pages[0].Error)
	assert.Contains(t, gotQuery, "error=eq.true")
	assert.Contains(t, gotQuery, "limit=1000")
	assert.Equal(t, "test-key", gotAPIKey)
}

func TestFetchPendingEmbeddingPredicates(t *testing.T) {
	var gotQuery string
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte("[]")) //nolint:errcheck
	})

	pages, err := store.FetchPendingEmbedding(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pages)
	assert.Contains(t, gotQuery, "ocr_result=not.is.null")
	assert.Contains(t, gotQuery, "embedding=is.null")
}

func TestGetPageNotFound(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("[]")) //nolint:errcheck
	})

	_, err := store.GetPage(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdatePagePartialPatch(t *testing.T) {
	var gotMethod, gotQuery string
	var gotFields map[string]any
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotFields))
		w.WriteHeader(http.StatusNoContent)
	})

	text := "recovered text"
	errFalse := false
	err := store.UpdatePage(context.Background(), "p1", domain.PageUpdate{
		OCRResult: &text,
		Embedding: []float32{0.5, 0.25},
		Error:     &errFalse,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "id=eq.p1", gotQuery)
	assert.Equal(t, "recovered text", gotFields["ocr_result"])
	assert.Equal(t, false, gotFields["error"])
	// Fields left nil in the update are absent from the patch.
	assert.NotContains(t, gotFields, "updated_at")
}

func TestMarkErrorTouchesOnlyFlagAndTimestamp(t *testing.T) {
	var gotFields map[string]any
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotFields))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, store.MarkError(context.Background(), "p1"))

	assert.Len(t, gotFields, 2)
	assert.Equal(t, true, gotFields["error"])
	assert.Contains(t, gotFields, "updated_at")
}

func TestStoreFailureWrapped(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "permission denied", http.StatusForbidden)
	})

	_, err := store.FetchErrorBatch(context.Background(), 10)
	assert.ErrorIs(t, err, domain.ErrStoreFailed)
}

func TestHybridSearch(t *testing.T) {
	var gotPath string
	var gotArgs map[string]any
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotArgs))
		json.NewEncoder(w).Encode([]searchRow{ //nolint:errcheck
			{ID: "p1", OCRResult: "lunar module checklist", Similarity: 0.91},
			{ID: "p2", Error: "ERROR: bad row", Similarity: 0.88},
		})
	})

	results, err := store.HybridSearch(context.Background(), "lunar module", []float32{0.1}, 30)
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/rpc/hybrid_search", gotPath)
	assert.Equal(t, "lunar module", gotArgs["query_text"])
	assert.Equal(t, float64(30), gotArgs["match_count"])

	require.Len(t, results, 2)
	assert.False(t, results[0].Error)
	assert.True(t, results[1].Error, "error marker rows surface as Error=true")
}

func TestEmbedSearch(t *testing.T) {
	var gotPath string
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`[{"id":"p9","similarity":0.5}]`)) //nolint:errcheck
	})

	results, err := store.EmbedSearch(context.Background(), "query", 5)
	require.NoError(t, err)
	assert.Equal(t, "/functions/v1/embed-search", gotPath)
	require.Len(t, results, 1)
	assert.Equal(t, "p9", results[0].ID)
}

func TestDecodeVectorForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []float32
	}{
		{name: "null", raw: `null`, want: nil},
		{name: "json array", raw: `[0.5,0.25]`, want: []float32{0.5, 0.25}},
		{name: "pgvector string", raw: `"[0.5,0.25]"`, want: []float32{0.5, 0.25}},
		{name: "empty pgvector string", raw: `"[]"`, want: []float32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeVector(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := decodeVector(json.RawMessage(`"[a,b]"`))
	assert.Error(t, err)
}

func TestCatalogRows(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/v1/issue":
			assert.Contains(t, r.URL.RawQuery, "order=created_at.desc")
			w.Write([]byte(`[{"id":"i1","title":"Batch one"}]`)) //nolint:errcheck
		case "/rest/v1/record":
			w.Write([]byte(`[{"id":"r1","record_number":"104-10001"}]`)) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	})

	issues, err := store.Issues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Batch one", issues[0].Title)

	records, err := store.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "104-10001", records[0].RecordNumber)
}

func boolPtr(b bool) *bool { return &b }
