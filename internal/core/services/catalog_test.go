package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/pagefill/internal/core/domain"
)

// mockCatalogSource implements driven.CatalogSource for testing.
type mockCatalogSource struct {
	issues  []domain.Issue
	records []domain.Record
	err     error

	issueCalls  int
	recordCalls int
}

func (m *mockCatalogSource) Issues(_ context.Context) ([]domain.Issue, error) {
	m.issueCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.issues, nil
}

func (m *mockCatalogSource) Records(_ context.Context) ([]domain.Record, error) {
	m.recordCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func TestCatalogPrefersSnapshot(t *testing.T) {
	snapshot := &mockCatalogSource{
		records: []domain.Record{{ID: "r1", RecordNumber: "104-10001"}},
		issues:  []domain.Issue{{ID: "i1", Title: "Release batch one"}},
	}
	live := &mockCatalogSource{
		records: []domain.Record{{ID: "live"}},
	}

	svc := NewCatalogService(snapshot, live)

	records, err := svc.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "r1", records[0].ID)
	// Snapshot present and non-empty: the live store is never queried.
	assert.Equal(t, 0, live.recordCalls)

	issues, err := svc.Issues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "i1", issues[0].ID)
	assert.Equal(t, 0, live.issueCalls)
}

func TestCatalogFallsBackOnEmptySnapshot(t *testing.T) {
	snapshot := &mockCatalogSource{err: domain.ErrEmptySnapshot}
	live := &mockCatalogSource{
		records: []domain.Record{{ID: "live-r"}},
		issues:  []domain.Issue{{ID: "live-i"}},
	}

	svc := NewCatalogService(snapshot, live)

	records, err := svc.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "live-r", records[0].ID)

	issues, err := svc.Issues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "live-i", issues[0].ID)
}

func TestCatalogFallsBackOnZeroLengthSnapshot(t *testing.T) {
	// Snapshot parses fine but holds nothing.
	snapshot := &mockCatalogSource{}
	live := &mockCatalogSource{issues: []domain.Issue{{ID: "live-i"}}}

	svc := NewCatalogService(snapshot, live)
	issues, err := svc.Issues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "live-i", issues[0].ID)
}

func TestCatalogNilSnapshotGoesLive(t *testing.T) {
	live := &mockCatalogSource{records: []domain.Record{{ID: "live-r"}}}

	svc := NewCatalogService(nil, live)
	records, err := svc.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "live-r", records[0].ID)
}

func TestCatalogLiveFailurePropagates(t *testing.T) {
	snapshot := &mockCatalogSource{err: domain.ErrEmptySnapshot}
	live := &mockCatalogSource{err: errors.New("store down")}

	svc := NewCatalogService(snapshot, live)
	_, err := svc.Records(context.Background())
	assert.Error(t, err)
}
