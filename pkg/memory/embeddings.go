// Package memory defines the embeddings abstraction and the pgvector-backed
// store used for semantic FAQ/feature lookup and optional cross-session
// visitor profile recall (spec §9 supplemental: long-term memory).
package memory

import "context"

// EmbeddingsProvider is the abstraction over any text-embedding backend. All
// vectors from a single provider instance share the same dimensionality.
type EmbeddingsProvider interface {
	// Embed computes the embedding vector for a single text string.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch computes vectors for a batch of texts in one call, used
	// when indexing a page's FAQ/feature list after extraction.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed vector length for this provider.
	Dimensions() int

	// ModelID returns the provider-specific embedding model identifier.
	ModelID() string
}
