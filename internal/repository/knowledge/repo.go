// Package knowledge implements the vector store contract of the knowledge
// index on top of the Redis db layer.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/knosis/internal/db"
	"github.com/kailas-cloud/knosis/internal/domain"
)

// KeyPrefix namespaces all knosis keys in the shared Redis instance.
const KeyPrefix = "knosis:"

// store is the consumer interface for knowledge storage operations (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/index.VectorStore.
type Repo struct {
	store           store
	hnswM           int
	hnswEFConstruct int
}

// New creates a knowledge repository.
func New(s store, hnswM, hnswEFConstruct int) *Repo {
	return &Repo{store: s, hnswM: hnswM, hnswEFConstruct: hnswEFConstruct}
}

// EnsureCollection creates the vector index for a collection if absent. Idempotent.
func (r *Repo) EnsureCollection(ctx context.Context, name string, dim int) error {
	indexName := indexName(name)

	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("probe index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	err = r.store.CreateIndex(ctx, &db.IndexDefinition{
		Name:            indexName,
		Prefix:          docPrefix(name),
		VectorDim:       dim,
		HNSWM:           r.hnswM,
		HNSWEFConstruct: r.hnswEFConstruct,
	})
	if err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// Upsert writes documents keyed by their stable ids. Existing documents with
// the same id are overwritten, which makes bulk re-indexing idempotent.
func (r *Repo) Upsert(ctx context.Context, collection string, docs []domain.KnowledgeDocument) error {
	prefix := docPrefix(collection)
	for i := range docs {
		if err := r.store.HSet(ctx, prefix+docs[i].ID(), docToFields(&docs[i])); err != nil {
			return fmt.Errorf("upsert document %s: %w", docs[i].ID(), err)
		}
	}
	return nil
}

// Query runs a k-NN search and returns raw hits with cosine distances.
func (r *Repo) Query(
	ctx context.Context, collection string, vector []float32, k int,
) ([]domain.VectorHit, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(collection),
		Vector:       vector,
		K:            k,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", collection, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	prefix := docPrefix(collection)
	hits := make([]domain.VectorHit, 0, len(sr.Entries))
	for i := range sr.Entries {
		id := strings.TrimPrefix(sr.Entries[i].Key, prefix)
		hits = append(hits, entryToHit(id, &sr.Entries[i]))
	}
	return hits, nil
}

// Delete removes a single document by id. Deleting an absent key is a no-op
// in Redis, so the operation is idempotent.
func (r *Repo) Delete(ctx context.Context, collection, id string) error {
	if err := r.store.Del(ctx, docPrefix(collection)+id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// DeleteCollection drops the index together with all indexed documents.
// A missing index is not an error.
func (r *Repo) DeleteCollection(ctx context.Context, name string) error {
	err := r.store.DropIndex(ctx, indexName(name), true)
	if err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	return nil
}

func indexName(collection string) string {
	return fmt.Sprintf("%s%s:idx", KeyPrefix, collection)
}

func docPrefix(collection string) string {
	return fmt.Sprintf("%sdoc:%s:", KeyPrefix, collection)
}
