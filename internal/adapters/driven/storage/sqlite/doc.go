// Package sqlite provides a local-archive implementation of the driven
// port interfaces over a single SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. It implements several
// ports through one database connection:
//
//   - PageStore: page rows with derived OCR text and embeddings
//   - CatalogSource: records and issues for browsing
//   - SearchGateway: hybrid search computed locally (term frequency +
//     cosine similarity, merged with reciprocal rank fusion)
//
// Local mode exists so a downloaded copy of the archive can be backfilled
// and searched without a Supabase project. Embeddings are stored as
// little-endian float32 blobs.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory as .up.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.pagefill/data/archive.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
