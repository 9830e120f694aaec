// Package db defines the low-level storage contract for the vector backend.
package db

import (
	"context"
	"time"
)

// IndexDefinition describes a vector search index over HASH keys.
type IndexDefinition struct {
	Name            string
	Prefix          string
	VectorDim       int
	HNSWM           int
	HNSWEFConstruct int
}

// KNNQuery is a k-nearest-neighbor search request.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchEntry is a raw hit from the search backend. Distance is the cosine
// distance reported by the index; similarity conversion happens upstream.
type SearchEntry struct {
	Key      string
	Distance float64
	Fields   map[string]string
}

// SearchResult is the raw outcome of an FT.SEARCH call.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// Store is the low-level vector store contract implemented by the Redis driver.
type Store interface {
	Ping(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()

	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)

	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) error

	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}
