package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/archivist-labs/pagefill/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/archivist-labs/pagefill/internal/core/domain"
	"github.com/archivist-labs/pagefill/internal/core/ports/driven"
)

// Interface assertions.
var (
	_ driven.PageStore     = (*Store)(nil)
	_ driven.SearchGateway = (*Store)(nil)
	_ driven.CatalogSource = (*Store)(nil)
)

// rrfK is the reciprocal rank fusion constant. 60 keeps top ranks from
// dominating the merged score.
const rrfK = 60

// Store is a local-archive store backed by a single SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.pagefill/data/archive.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".pagefill", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "archive.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Page Store ====================

const pageColumns = "id, parent_record_id, page_number, cloudinary, ocr_result, embedding, error, updated_at"

// SavePage inserts or replaces a page row. Used when mirroring the
// archive locally; the backfill loop itself only patches derived fields.
func (s *Store) SavePage(ctx context.Context, page domain.Page) error {
	var cloudinaryJSON sql.NullString
	if page.Cloudinary != nil {
		data, err := json.Marshal(page.Cloudinary)
		if err != nil {
			return fmt.Errorf("%w: marshalling cloudinary: %w", domain.ErrStoreFailed, err)
		}
		cloudinaryJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (id, parent_record_id, page_number, cloudinary, ocr_result, embedding, error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_record_id = excluded.parent_record_id,
			page_number = excluded.page_number,
			cloudinary = excluded.cloudinary,
			ocr_result = excluded.ocr_result,
			embedding = excluded.embedding,
			error = excluded.error,
			updated_at = excluded.updated_at
	`, page.ID, page.ParentRecordID, page.PageNumber, cloudinaryJSON,
		nullString(page.OCRResult), float32SliceToBytes(page.Embedding),
		page.Error, nullTime(page.UpdatedAt))

	if err != nil {
		return fmt.Errorf("%w: saving page: %w", domain.ErrStoreFailed, err)
	}
	return nil
}

// FetchErrorBatch returns up to limit pages flagged error=true.
func (s *Store) FetchErrorBatch(ctx context.Context, limit int) ([]domain.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE error = 1 LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying error pages: %w", domain.ErrStoreFailed, err)
	}
	defer rows.Close()

	return scanPages(rows)
}

// FetchPendingEmbedding returns all pages with OCR text but no vector.
func (s *Store) FetchPendingEmbedding(ctx context.Context) ([]domain.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE ocr_result IS NOT NULL AND embedding IS NULL")
	if err != nil {
		return nil, fmt.Errorf("%w: querying pending pages: %w", domain.ErrStoreFailed, err)
	}
	defer rows.Close()

	return scanPages(rows)
}

// GetPage retrieves a page by ID.
func (s *Store) GetPage(ctx context.Context, id string) (*domain.Page, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE id = ?", id)

	page, err := scanPage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning page: %w", domain.ErrStoreFailed, err)
	}
	return page, nil
}

// ListByRecord returns all pages belonging to a parent record.
func (s *Store) ListByRecord(ctx context.Context, parentRecordID string) ([]domain.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE parent_record_id = ?", parentRecordID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying record pages: %w", domain.ErrStoreFailed, err)
	}
	defer rows.Close()

	return scanPages(rows)
}

// UpdatePage applies a partial update to one page row in a single
// statement, so readers never observe partial field writes.
func (s *Store) UpdatePage(ctx context.Context, id string, update domain.PageUpdate) error {
	var sets []string
	var args []any

	if update.OCRResult != nil {
		sets = append(sets, "ocr_result = ?")
		args = append(args, *update.OCRResult)
	}
	if update.Embedding != nil {
		sets = append(sets, "embedding = ?")
		args = append(args, float32SliceToBytes(update.Embedding))
	}
	if update.Error != nil {
		sets = append(sets, "error = ?")
		args = append(args, *update.Error)
	}
	if update.UpdatedAt != nil {
		sets = append(sets, "updated_at = ?")
		args = append(args, update.UpdatedAt.UTC())
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE pages SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("%w: updating page: %w", domain.ErrStoreFailed, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: updating page: %w", domain.ErrStoreFailed, err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkError sets error=true and refreshes updated_at, nothing else.
func (s *Store) MarkError(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE pages SET error = 1, updated_at = ? WHERE id = ?",
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: marking error: %w", domain.ErrStoreFailed, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: marking error: %w", domain.ErrStoreFailed, err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Search Gateway ====================

// HybridSearch ranks pages by merging a term-frequency pass over the
// OCR text with cosine similarity over stored vectors, combined with
// reciprocal rank fusion. The whole computation is local; rows flagged
// error=true surface with an error marker so callers can filter them
// the same way they filter the live backend's rows.
func (s *Store) HybridSearch(
	ctx context.Context, queryText string, embedding []float32, matchCount int,
) ([]domain.SearchResult, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE ocr_result IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("%w: querying pages: %w", domain.ErrSearchFailed, err)
	}
	defer rows.Close()

	pages, err := scanPages(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchFailed, err)
	}

	lexical := rankLexical(pages, queryText)
	vector := rankVector(pages, embedding)
	merged := reciprocalRankFusion(lexical, vector)

	if matchCount > 0 && len(merged) > matchCount {
		merged = merged[:matchCount]
	}

	byID := make(map[string]domain.Page, len(pages))
	for _, p := range pages {
		byID[p.ID] = p
	}

	results := make([]domain.SearchResult, len(merged))
	for i, m := range merged {
		page := byID[m.id]
		content := ""
		if page.OCRResult != nil {
			content = *page.OCRResult
		}
		results[i] = domain.SearchResult{
			ID:             page.ID,
			ParentRecordID: page.ParentRecordID,
			PageNumber:     page.PageNumber,
			Content:        content,
			Similarity:     m.score,
			Error:          page.Error || !page.HasText(),
		}
	}
	return results, nil
}

// EmbedSearch requires the remote edge function; the local store cannot
// embed queries itself.
func (s *Store) EmbedSearch(_ context.Context, _ string, _ int) ([]domain.SearchResult, error) {
	return nil, fmt.Errorf("%w: embed-search requires the live backend", domain.ErrSearchFailed)
}

// scoredPage holds an intermediate ranking entry.
type scoredPage struct {
	id    string
	score float64
}

// rankLexical orders pages by query term frequency in the OCR text.
func rankLexical(pages []domain.Page, query string) []scoredPage {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	var ranked []scoredPage
	for _, p := range pages {
		if !p.HasText() {
			continue
		}
		text := strings.ToLower(*p.OCRResult)
		score := 0
		for _, term := range terms {
			score += strings.Count(text, term)
		}
		if score > 0 {
			ranked = append(ranked, scoredPage{id: p.ID, score: float64(score)})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

// rankVector orders pages by cosine similarity to the query embedding.
func rankVector(pages []domain.Page, embedding []float32) []scoredPage {
	if len(embedding) == 0 {
		return nil
	}

	var ranked []scoredPage
	for _, p := range pages {
		if len(p.Embedding) != len(embedding) {
			continue
		}
		ranked = append(ranked, scoredPage{id: p.ID, score: domain.Cosine(embedding, p.Embedding)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

// reciprocalRankFusion merges two ranked lists. Each entry scores
// 1/(k+rank+1) per list it appears in.
func reciprocalRankFusion(list1, list2 []scoredPage) []scoredPage {
	scores := make(map[string]float64)

	for rank, p := range list1 {
		scores[p.id] += 1.0 / float64(rrfK+rank+1)
	}
	for rank, p := range list2 {
		scores[p.id] += 1.0 / float64(rrfK+rank+1)
	}

	merged := make([]scoredPage, 0, len(scores))
	for id, score := range scores {
		merged = append(merged, scoredPage{id: id, score: score})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].score != merged[j].score {
			return merged[i].score > merged[j].score
		}
		return merged[i].id < merged[j].id
	})
	return merged
}

// ==================== Catalog Source ====================

// SaveRecord inserts or replaces a record row.
func (s *Store) SaveRecord(ctx context.Context, record domain.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, record_number, title, agency, pages, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			record_number = excluded.record_number,
			title = excluded.title,
			agency = excluded.agency,
			pages = excluded.pages,
			created_at = excluded.created_at
	`, record.ID, record.RecordNumber, record.Title, record.Agency,
		record.Pages, nullTime(record.CreatedAt))
	if err != nil {
		return fmt.Errorf("%w: saving record: %w", domain.ErrStoreFailed, err)
	}
	return nil
}

// SaveIssue inserts or replaces an issue row.
func (s *Store) SaveIssue(ctx context.Context, issue domain.Issue) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO issues (id, title, description, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			created_at = excluded.created_at
	`, issue.ID, issue.Title, issue.Description, nullTime(issue.CreatedAt))
	if err != nil {
		return fmt.Errorf("%w: saving issue: %w", domain.ErrStoreFailed, err)
	}
	return nil
}

// Issues returns all issues, newest first.
func (s *Store) Issues(ctx context.Context) ([]domain.Issue, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, description, created_at FROM issues ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("%w: querying issues: %w", domain.ErrStoreFailed, err)
	}
	defer rows.Close()

	var issues []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		var createdAt sql.NullTime
		if err := rows.Scan(&issue.ID, &issue.Title, &issue.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scanning issue: %w", domain.ErrStoreFailed, err)
		}
		issue.CreatedAt = createdAt.Time
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// Records returns all records.
func (s *Store) Records(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, record_number, title, agency, pages, created_at FROM records")
	if err != nil {
		return nil, fmt.Errorf("%w: querying records: %w", domain.ErrStoreFailed, err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var record domain.Record
		var createdAt sql.NullTime
		if err := rows.Scan(&record.ID, &record.RecordNumber, &record.Title,
			&record.Agency, &record.Pages, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scanning record: %w", domain.ErrStoreFailed, err)
		}
		record.CreatedAt = createdAt.Time
		records = append(records, record)
	}
	return records, rows.Err()
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanner abstracts *sql.Row and *sql.Rows for page scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanPageFields(sc scanner) (*domain.Page, error) {
	var page domain.Page
	var cloudinaryJSON, ocrResult sql.NullString
	var embeddingBlob []byte
	var updatedAt sql.NullTime

	if err := sc.Scan(&page.ID, &page.ParentRecordID, &page.PageNumber,
		&cloudinaryJSON, &ocrResult, &embeddingBlob, &page.Error, &updatedAt); err != nil {
		return nil, err
	}

	if cloudinaryJSON.Valid {
		var c domain.Cloudinary
		if err := json.Unmarshal([]byte(cloudinaryJSON.String), &c); err != nil {
			return nil, fmt.Errorf("unmarshaling cloudinary: %w", err)
		}
		page.Cloudinary = &c
	}
	if ocrResult.Valid {
		page.OCRResult = &ocrResult.String
	}
	page.Embedding = bytesToFloat32Slice(embeddingBlob)
	page.UpdatedAt = updatedAt.Time

	return &page, nil
}

func scanPage(row *sql.Row) (*domain.Page, error) {
	return scanPageFields(row)
}

func scanPages(rows *sql.Rows) ([]domain.Page, error) {
	var pages []domain.Page
	for rows.Next() {
		page, err := scanPageFields(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *page)
	}
	return pages, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
