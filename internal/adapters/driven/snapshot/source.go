// Package snapshot serves the archive catalog from static export files
// on disk. Deployments ship an issues.json and records.csv alongside
// the binary so browsing works without touching the live store; the
// catalog service falls back to the live store whenever the snapshot
// is missing or empty.
package snapshot

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/archivist-labs/pagefill/internal/core/domain"
	"github.com/archivist-labs/pagefill/internal/core/ports/driven"
	"github.com/archivist-labs/pagefill/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.CatalogSource = (*Source)(nil)

const (
	issuesFile  = "issues.json"
	recordsFile = "records.csv"
)

// Source reads catalog snapshots from a directory. Loads are lazy and
// cached; Watch invalidates the cache when the files change on disk.
type Source struct {
	dir string

	mu      sync.RWMutex
	issues  []domain.Issue
	records []domain.Record
}

// NewSource creates a snapshot source rooted at dir.
func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// Issues returns the issues from the snapshot file.
// Returns domain.ErrEmptySnapshot when the file is missing, empty or
// unparseable.
func (s *Source) Issues(_ context.Context) ([]domain.Issue, error) {
	s.mu.RLock()
	if s.issues != nil {
		defer s.mu.RUnlock()
		return s.issues, nil
	}
	s.mu.RUnlock()

	issues, err := loadIssues(filepath.Join(s.dir, issuesFile))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.issues = issues
	s.mu.Unlock()
	return issues, nil
}

// Records returns the records from the snapshot file.
// Returns domain.ErrEmptySnapshot when the file is missing, empty or
// unparseable.
func (s *Source) Records(_ context.Context) ([]domain.Record, error) {
	s.mu.RLock()
	if s.records != nil {
		defer s.mu.RUnlock()
		return s.records, nil
	}
	s.mu.RUnlock()

	records, err := loadRecords(filepath.Join(s.dir, recordsFile))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return records, nil
}

// Watch invalidates the cached snapshot when either file changes, so
// refreshed exports are picked up without a restart. Blocks until ctx
// is cancelled.
func (s *Source) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watching %s: %w", s.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
				!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
				continue
			}
			name := filepath.Base(event.Name)
			if name != issuesFile && name != recordsFile {
				continue
			}
			logger.Debug("Snapshot file %s changed, invalidating cache", name)
			s.invalidate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Snapshot watcher error: %v", err)
		}
	}
}

func (s *Source) invalidate() {
	s.mu.Lock()
	s.issues = nil
	s.records = nil
	s.mu.Unlock()
}

type issueRow struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func loadIssues(path string) ([]domain.Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrEmptySnapshot
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var rows []issueRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", domain.ErrEmptySnapshot, issuesFile, err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrEmptySnapshot
	}

	issues := make([]domain.Issue, len(rows))
	for i, r := range rows {
		issues[i] = domain.Issue{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
		}
	}
	return issues, nil
}

func loadRecords(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrEmptySnapshot
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s header: %w", domain.ErrEmptySnapshot, recordsFile, err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []domain.Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %w", domain.ErrEmptySnapshot, recordsFile, err)
		}

		record := domain.Record{
			ID:           field(row, "id"),
			RecordNumber: field(row, "record_number"),
			Title:        field(row, "title"),
			Agency:       field(row, "agency"),
		}
		if pages := field(row, "pages"); pages != "" {
			n, err := strconv.Atoi(pages)
			if err != nil {
				return nil, fmt.Errorf("%w: parsing %s pages: %w", domain.ErrEmptySnapshot, recordsFile, err)
			}
			record.Pages = n
		}
		if created := field(row, "created_at"); created != "" {
			t, err := time.Parse(time.RFC3339, created)
			if err == nil {
				record.CreatedAt = t
			}
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, domain.ErrEmptySnapshot
	}
	return records, nil
}
