package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/kailas-cloud/knosis/internal/db"
)

// CreateIndex creates an FT index over HASH keys with a single HNSW vector
// field plus text/tag fields for document payload retrieval.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex removes an FT index by name. With deleteDocs, the indexed hashes
// are deleted too (FT.DROPINDEX ... DD).
func (s *Store) DropIndex(ctx context.Context, name string, deleteDocs bool) error {
	args := []string{name}
	if deleteDocs {
		args = append(args, "DD")
	}

	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

func buildCreateArgs(def *db.IndexDefinition) ([]string, error) {
	if def.Name == "" {
		return nil, errors.New("index name is required")
	}
	if def.Prefix == "" {
		return nil, errors.New("key prefix is required")
	}
	if def.VectorDim <= 0 {
		return nil, errors.New("vector dimension must be positive")
	}

	m := def.HNSWM
	if m <= 0 {
		m = 16
	}
	efConstruct := def.HNSWEFConstruct
	if efConstruct <= 0 {
		efConstruct = 200
	}

	return []string{
		def.Name,
		"ON", "HASH",
		"PREFIX", "1", def.Prefix,
		"SCHEMA",
		"vector", "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(def.VectorDim),
		"DISTANCE_METRIC", "COSINE",
		"M", strconv.Itoa(m),
		"EF_CONSTRUCTION", strconv.Itoa(efConstruct),
		"text", "TEXT",
		"title", "TAG",
		"source", "TAG",
	}, nil
}
