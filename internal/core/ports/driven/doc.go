// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - PageStore: Typed access to the page table
//   - EmbeddingService: Generates vector embeddings
//   - SearchGateway: Server-side hybrid search
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - OCREngine: Only required by the error-retry backfill mode; the
//     embedding-only mode never touches images.
//   - CatalogSource: Snapshot variant is optional; with no snapshot the
//     catalog service goes straight to the live store.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
