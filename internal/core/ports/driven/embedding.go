package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Vectors are mean-pooled over token representations and L2-normalized,
// so embedding the same text twice yields bit-for-bit equal vectors.
// The model is loaded once per process and reused across calls; there is
// never more than one in-flight inference call.
//
// Implementations may include:
//   - Supabase edge function (remote, used by the search path)
//   - Ollama (local inference server, used by the backfill loop)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Failures wrap domain.ErrEmbeddingFailed.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384 for
	// gte-small). This is fixed by the model and must match the
	// dimensionality of the store's vectors; a mismatch is a
	// configuration error, not a per-row error.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable, warming the model if the
	// backend loads lazily. Called once at startup before any batch work.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
