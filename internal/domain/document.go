package domain

import (
	"fmt"
	"time"
)

// SourceKind identifies where an indexed document originated.
type SourceKind string

// Document sources.
const (
	SourceNotion   SourceKind = "notion"
	SourceWeb      SourceKind = "web"
	SourceDocument SourceKind = "document"
)

// Valid reports whether the source kind is a known value.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceNotion, SourceWeb, SourceDocument:
		return true
	}
	return false
}

// DocumentMetadata describes the provenance of a knowledge document.
type DocumentMetadata struct {
	Title        string
	Source       SourceKind
	URL          string
	LastModified time.Time
}

// KnowledgeDocument is an indexed text passage with its embedding (immutable value object).
// Re-indexing the same logical source overwrites by id; documents are never patched in place.
type KnowledgeDocument struct {
	id        string
	text      string
	embedding []float32
	meta      DocumentMetadata
}

// NewKnowledgeDocument validates and creates a KnowledgeDocument without an embedding.
// The embedding is attached later via WithEmbedding, after the provider call.
func NewKnowledgeDocument(id, text string, meta DocumentMetadata) (KnowledgeDocument, error) {
	if id == "" {
		return KnowledgeDocument{}, fmt.Errorf("document ID is required")
	}
	if text == "" {
		return KnowledgeDocument{}, fmt.Errorf("document text is required")
	}
	if !meta.Source.Valid() {
		return KnowledgeDocument{}, fmt.Errorf("unknown source kind %q", meta.Source)
	}
	return KnowledgeDocument{id: id, text: text, meta: meta}, nil
}

// ReconstructKnowledgeDocument creates a KnowledgeDocument without validation (storage hydration).
func ReconstructKnowledgeDocument(
	id, text string, embedding []float32, meta DocumentMetadata,
) KnowledgeDocument {
	return KnowledgeDocument{id: id, text: text, embedding: embedding, meta: meta}
}

// ID returns the stable document identifier.
func (d *KnowledgeDocument) ID() string { return d.id }

// Text returns the indexed text.
func (d *KnowledgeDocument) Text() string { return d.text }

// Embedding returns the embedding vector.
func (d *KnowledgeDocument) Embedding() []float32 { return d.embedding }

// Metadata returns the document provenance metadata.
func (d *KnowledgeDocument) Metadata() DocumentMetadata { return d.meta }

// WithEmbedding returns a copy with the given embedding attached.
func (d *KnowledgeDocument) WithEmbedding(v []float32) KnowledgeDocument {
	return KnowledgeDocument{id: d.id, text: d.text, embedding: v, meta: d.meta}
}
