package index

import (
	"context"

	"github.com/kailas-cloud/knosis/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorStore defines the storage contract for the knowledge index.
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string, dim int) error
	Upsert(ctx context.Context, collection string, docs []domain.KnowledgeDocument) error
	Query(ctx context.Context, collection string, vector []float32, topK int) ([]domain.VectorHit, error)
	Delete(ctx context.Context, collection, id string) error
	DeleteCollection(ctx context.Context, name string) error
}

// WebSearcher queries an external web search engine.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]domain.WebHit, error)
}

// ContentStore reads workspace content for indexing.
type ContentStore interface {
	Search(ctx context.Context, query string) ([]domain.ContentItem, error)
	GetText(ctx context.Context, id string) (string, error)
}
