package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/pagefill/internal/core/domain"
)

// --- Mock implementations ---

// mockPageStore implements driven.PageStore for testing.
type mockPageStore struct {
	mu sync.Mutex

	pages map[string]*domain.Page

	errorBatches [][]domain.Page
	fetchCalls   int
	fetchErr     error
	getErr       error
	updateErr    error
	markErr      error

	updates    []string
	markErrors []string
}

func newMockPageStore(pages ...*domain.Page) *mockPageStore {
	m := &mockPageStore{pages: make(map[string]*domain.Page)}
	for _, p := range pages {
		m.pages[p.ID] = p
	}
	return m
}

func (m *mockPageStore) FetchErrorBatch(_ context.Context, _ int) ([]domain.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	m.fetchCalls++
	if len(m.errorBatches) == 0 {
		return nil, nil
	}
	batch := m.errorBatches[0]
	m.errorBatches = m.errorBatches[1:]
	return batch, nil
}

func (m *mockPageStore) FetchPendingEmbedding(_ context.Context) ([]domain.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	m.fetchCalls++
	var pending []domain.Page
	for _, p := range m.pages {
		if p.NeedsEmbedding() {
			pending = append(pending, *p)
		}
	}
	return pending, nil
}

func (m *mockPageStore) GetPage(_ context.Context, id string) (*domain.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.pages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPageStore) UpdatePage(_ context.Context, id string, update domain.PageUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	p, ok := m.pages[id]
	if !ok {
		return domain.ErrNotFound
	}
	if update.OCRResult != nil {
		p.OCRResult = update.OCRResult
	}
	if update.Embedding != nil {
		p.Embedding = update.Embedding
	}
	if update.Error != nil {
		p.Error = *update.Error
	}
	if update.UpdatedAt != nil {
		p.UpdatedAt = *update.UpdatedAt
	}
	m.updates = append(m.updates, id)
	return nil
}

func (m *mockPageStore) MarkError(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	if p, ok := m.pages[id]; ok {
		p.Error = true
		p.UpdatedAt = time.Now().UTC()
	}
	m.markErrors = append(m.markErrors, id)
	return nil
}

func (m *mockPageStore) ListByRecord(_ context.Context, parentRecordID string) ([]domain.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pages []domain.Page
	for _, p := range m.pages {
		if p.ParentRecordID == parentRecordID {
			pages = append(pages, *p)
		}
	}
	return pages, nil
}

// mockOCREngine implements driven.OCREngine for testing.
type mockOCREngine struct {
	text  string
	err   error
	calls []string
}

func (m *mockOCREngine) ExtractText(_ context.Context, imageURL string) (string, error) {
	m.calls = append(m.calls, imageURL)
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	embedding []float32
	embedErr  error
	pingErr   error
	inputs    []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.inputs = append(m.inputs, text)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbedder) Dimensions() int              { return len(m.embedding) }
func (m *mockEmbedder) ModelName() string            { return "mock-model" }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.pingErr }
func (m *mockEmbedder) Close() error                 { return nil }

// --- Helpers ---

func errorPage(id string, withImage bool) *domain.Page {
	sentinel := "ERROR: previous attempt failed"
	p := &domain.Page{
		ID:        id,
		OCRResult: &sentinel,
		Error:     true,
	}
	if withImage {
		p.Cloudinary = &domain.Cloudinary{
			SecureURL: "https://img.example.com/" + id + ".jpg",
			PublicID:  id,
		}
	}
	return p
}

// --- Tests ---

func TestRetryErrorsProcessesBatch(t *testing.T) {
	// Batch of 3 error rows: 2 with valid image descriptors, 1 with none.
	p1 := errorPage("p1", true)
	p2 := errorPage("p2", true)
	p3 := errorPage("p3", false)

	store := newMockPageStore(p1, p2, p3)
	store.errorBatches = [][]domain.Page{{*p1, *p2, *p3}}

	ocr := &mockOCREngine{text: "lunar module checklist"}
	embedder := &mockEmbedder{embedding: []float32{0.1, 0.2, 0.3}}

	b := NewBackfiller(store, ocr, embedder, BackfillConfig{})
	report, err := b.RetryErrors(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, domain.ModeErrorRetry, report.Mode)
	assert.NotEmpty(t, report.RunID)

	// The two processable rows succeed: error cleared, text and vector set.
	for _, id := range []string{"p1", "p2"} {
		page := store.pages[id]
		assert.False(t, page.Error, id)
		require.NotNil(t, page.OCRResult, id)
		assert.Equal(t, "lunar module checklist", *page.OCRResult, id)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, page.Embedding, id)
		assert.False(t, page.UpdatedAt.IsZero(), id)
	}

	// The imageless row stays flagged, with updated_at bumped.
	assert.True(t, store.pages["p3"].Error)
	assert.False(t, store.pages["p3"].UpdatedAt.IsZero())
	assert.Contains(t, store.markErrors, "p3")
}

func TestRetryErrorsEmptyFetchTerminates(t *testing.T) {
	store := newMockPageStore()
	embedder := &mockEmbedder{embedding: []float32{1}}

	b := NewBackfiller(store, &mockOCREngine{}, embedder, BackfillConfig{})
	report, err := b.RetryErrors(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 0, report.Failed)
	// One fetch came back empty; no further store calls followed.
	assert.Equal(t, 1, store.fetchCalls)
	assert.Empty(t, store.updates)
	assert.Empty(t, store.markErrors)
}

func TestRetryErrorsLoopsUntilExhausted(t *testing.T) {
	p1 := errorPage("p1", true)
	p2 := errorPage("p2", true)

	store := newMockPageStore(p1, p2)
	store.errorBatches = [][]domain.Page{{*p1}, {*p2}}

	ocr := &mockOCREngine{text: "text"}
	embedder := &mockEmbedder{embedding: []float32{1}}

	b := NewBackfiller(store, ocr, embedder, BackfillConfig{})
	report, err := b.RetryErrors(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Processed)
	// Two non-empty batches plus the terminating empty fetch.
	assert.Equal(t, 3, store.fetchCalls)
}

func TestRetryErrorsOCRFailureFlagsRow(t *testing.T) {
	p1 := errorPage("p1", true)
	store := newMockPageStore(p1)
	store.errorBatches = [][]domain.Page{{*p1}}

	ocr := &mockOCREngine{err: errors.New("image unreadable")}
	embedder := &mockEmbedder{embedding: []float32{1}}

	b := NewBackfiller(store, ocr, embedder, BackfillConfig{})
	report, err := b.RetryErrors(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.True(t, store.pages["p1"].Error)
	assert.Contains(t, store.markErrors, "p1")
}

func TestRetryErrorsEmbeddingFailureFlagsRow(t *testing.T) {
	p1 := errorPage("p1", true)
	store := newMockPageStore(p1)
	store.errorBatches = [][]domain.Page{{*p1}}

	ocr := &mockOCREngine{text: "text"}
	embedder := &mockEmbedder{embedErr: errors.New("backend error")}

	b := NewBackfiller(store, ocr, embedder, BackfillConfig{})
	report, err := b.RetryErrors(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.True(t, store.pages["p1"].Error)
}

func TestRetryErrorsRowFailureDoesNotAbortBatch(t *testing.T) {
	bad := errorPage("bad", false)
	good := errorPage("good", true)

	store := newMockPageStore(bad, good)
	// Failing row first: the batch must continue past it.
	store.errorBatches = [][]domain.Page{{*bad, *good}}

	ocr := &mockOCREngine{text: "text"}
	embedder := &mockEmbedder{embedding: []float32{1}}

	b := NewBackfiller(store, ocr, embedder, BackfillConfig{})
	report, err := b.RetryErrors(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Failed)
	assert.False(t, store.pages["good"].Error)
}

func TestRetryErrorsSkipsOCRWhenTextPresent(t *testing.T) {
	// Error flag set by a failed embedding step; usable text committed.
	text := "committed text from a prior pass"
	p := &domain.Page{ID: "p1", OCRResult: &text, Error: true}

	store := newMockPageStore(p)
	store.errorBatches = [][]domain.Page{{*p}}

	ocr := &mockOCREngine{text: "should not be used"}
	embedder := &mockEmbedder{embedding: []float32{0.5}}

	b := NewBackfiller(store, ocr, embedder, BackfillConfig{})
	report, err := b.RetryErrors(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Empty(t, ocr.calls, "OCR must be skipped for non-error text")
	assert.Equal(t, []string{text}, embedder.inputs)
	assert.False(t, store.pages["p1"].Error)
	assert.Equal(t, text, *store.pages["p1"].OCRResult)
}

func TestRetryErrorsPingFailureAborts(t *testing.T) {
	store := newMockPageStore()
	embedder := &mockEmbedder{pingErr: errors.New("model load failed")}

	b := NewBackfiller(store, &mockOCREngine{}, embedder, BackfillConfig{})
	_, err := b.RetryErrors(context.Background())
	require.Error(t, err)

	// Process-level failure: no store calls at all.
	assert.Equal(t, 0, store.fetchCalls)
}

func TestEmbeddingPassSetsVectors(t *testing.T) {
	text := "page text"
	p1 := &domain.Page{ID: "p1", OCRResult: &text}
	p2 := &domain.Page{ID: "p2", OCRResult: &text, Embedding: []float32{9}}

	store := newMockPageStore(p1, p2)
	embedder := &mockEmbedder{embedding: []float32{0.1, 0.2}}

	b := NewBackfiller(store, nil, embedder, BackfillConfig{})
	report, err := b.EmbeddingPass(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, domain.ModeEmbedding, report.Mode)
	assert.Equal(t, []float32{0.1, 0.2}, store.pages["p1"].Embedding)
	// Already-embedded row untouched.
	assert.Equal(t, []float32{9}, store.pages["p2"].Embedding)
}

func TestEmbeddingPassIdempotent(t *testing.T) {
	text := "stable text"
	p := &domain.Page{ID: "p1", OCRResult: &text}

	store := newMockPageStore(p)
	embedder := &mockEmbedder{embedding: []float32{0.25, -0.5}}
	b := NewBackfiller(store, nil, embedder, BackfillConfig{})

	_, err := b.EmbeddingPass(context.Background())
	require.NoError(t, err)
	first := store.pages["p1"].Embedding

	// Force a second run over the same committed text.
	store.pages["p1"].Embedding = nil
	_, err = b.EmbeddingPass(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, store.pages["p1"].Embedding)
}

func TestRunEmbeddingsStopsOnCancel(t *testing.T) {
	store := newMockPageStore()
	embedder := &mockEmbedder{embedding: []float32{1}}
	b := NewBackfiller(store, nil, embedder, BackfillConfig{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.RunEmbeddings(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("RunEmbeddings did not stop after cancellation")
	}
}

func TestRunEmbeddingsStoreFailureAborts(t *testing.T) {
	store := newMockPageStore()
	store.fetchErr = errors.New("connection refused")
	embedder := &mockEmbedder{embedding: []float32{1}}

	b := NewBackfiller(store, nil, embedder, BackfillConfig{PollInterval: time.Millisecond})
	err := b.RunEmbeddings(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch pending embeddings")
}
