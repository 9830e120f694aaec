package knowledge

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/kailas-cloud/knosis/internal/db"
	"github.com/kailas-cloud/knosis/internal/domain"
)

// Hash field names for a stored knowledge document.
const (
	fieldText         = "text"
	fieldTitle        = "title"
	fieldSource       = "source"
	fieldURL          = "url"
	fieldLastModified = "last_modified"
	fieldVector       = "vector"
)

// returnFields are requested back from FT.SEARCH for hit hydration.
var returnFields = []string{fieldText, fieldTitle, fieldSource, fieldURL, fieldLastModified, "__vector_score"}

func docToFields(doc *domain.KnowledgeDocument) map[string]string {
	meta := doc.Metadata()
	fields := map[string]string{
		fieldText:   doc.Text(),
		fieldTitle:  meta.Title,
		fieldSource: string(meta.Source),
		fieldVector: vectorToBytes(doc.Embedding()),
	}
	if meta.URL != "" {
		fields[fieldURL] = meta.URL
	}
	if !meta.LastModified.IsZero() {
		fields[fieldLastModified] = meta.LastModified.UTC().Format(time.RFC3339)
	}
	return fields
}

func entryToHit(id string, entry *db.SearchEntry) domain.VectorHit {
	meta := domain.DocumentMetadata{
		Title:  entry.Fields[fieldTitle],
		Source: domain.SourceKind(entry.Fields[fieldSource]),
		URL:    entry.Fields[fieldURL],
	}
	if ts, err := time.Parse(time.RFC3339, entry.Fields[fieldLastModified]); err == nil {
		meta.LastModified = ts
	}
	return domain.VectorHit{
		ID:       id,
		Text:     entry.Fields[fieldText],
		Metadata: meta,
		Distance: entry.Distance,
	}
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
