package health

import "context"

// DBPinger checks vector database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexReadiness reports whether the knowledge index is initialized.
type IndexReadiness interface {
	Initialized() bool
}
