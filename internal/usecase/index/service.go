// Package index implements the semantic knowledge index: ingestion of
// workspace content, vector retrieval, web augmentation, and context assembly.
package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/knosis/internal/domain"
	"github.com/kailas-cloud/knosis/internal/metrics"
)

const (
	contextIndexedLimit = 5
	contextWebLimit     = 3

	indexedSnippetBudget = 500
	webSnippetBudget     = 300

	// Web hits carry no vector similarity; they get a fixed mid-high score
	// and are never ranked against indexed results.
	webHitScore = 0.8
)

// Service is the knowledge index usecase.
type Service struct {
	store   VectorStore
	embed   Embedder
	web     WebSearcher
	content ContentStore

	collection string
	dim        int
	logger     *zap.Logger

	initialized atomic.Bool
}

// New creates a knowledge index service. The web searcher and content store
// may be nil; the corresponding operations then degrade or fail gracefully.
func New(store VectorStore, embed Embedder, web WebSearcher, content ContentStore, collection string, dim int, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		embed:      embed,
		web:        web,
		content:    content,
		collection: collection,
		dim:        dim,
		logger:     logger,
	}
}

// Initialize ensures the vector collection exists. The index stays unusable
// until this succeeds.
func (s *Service) Initialize(ctx context.Context) error {
	if err := s.store.EnsureCollection(ctx, s.collection, s.dim); err != nil {
		return fmt.Errorf("%w: ensure collection: %w", domain.ErrIndexUnavailable, err)
	}
	s.initialized.Store(true)
	return nil
}

// Initialized reports whether the index is ready to serve queries.
func (s *Service) Initialized() bool {
	return s.initialized.Load()
}

// IndexAll pulls every reachable workspace page, concatenates its title with
// its body text, embeds the result, and upserts it into the index. Items with
// neither title nor body are skipped; per-item embedding failures are logged
// and skipped so one bad page never aborts the rebuild. Returns the number of
// documents indexed.
func (s *Service) IndexAll(ctx context.Context) (int, error) {
	if !s.initialized.Load() {
		return 0, domain.ErrIndexNotInitialized
	}
	if s.content == nil {
		return 0, fmt.Errorf("%w: no content store configured", domain.ErrContentStoreError)
	}

	items, err := s.content.Search(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list content items: %w", err)
	}

	indexed := 0
	for _, item := range items {
		body, err := s.content.GetText(ctx, item.ID)
		if err != nil {
			s.logger.Warn("skipping item, fetch failed",
				zap.String("item_id", item.ID), zap.Error(err))
			continue
		}
		// The title carries signal the body often lacks; a title-only page is
		// still worth indexing.
		text := strings.TrimSpace(item.Title + "\n" + body)
		if text == "" {
			continue
		}

		meta := domain.DocumentMetadata{
			Title:        item.Title,
			Source:       domain.SourceNotion,
			LastModified: item.LastEdited,
		}
		if _, err := s.indexText(ctx, "notion-"+item.ID, text, meta); err != nil {
			s.logger.Warn("skipping item, indexing failed",
				zap.String("item_id", item.ID), zap.Error(err))
			continue
		}
		indexed++
	}

	s.logger.Info("index rebuild complete",
		zap.Int("indexed", indexed), zap.Int("total", len(items)))
	return indexed, nil
}

// AddDocument embeds and stores an ad-hoc document outside the workspace sync.
// Returns the generated document ID.
func (s *Service) AddDocument(ctx context.Context, title, text string) (string, error) {
	if !s.initialized.Load() {
		return "", domain.ErrIndexNotInitialized
	}

	id := "document-" + uuid.New().String()
	if _, err := s.indexText(ctx, id, text, domain.DocumentMetadata{
		Title:  title,
		Source: domain.SourceDocument,
	}); err != nil {
		return "", err
	}
	return id, nil
}

// RemoveDocument drops a single document from the index by its id. Removing
// an absent document is not an error.
func (s *Service) RemoveDocument(ctx context.Context, id string) error {
	if !s.initialized.Load() {
		return domain.ErrIndexNotInitialized
	}
	if err := s.store.Delete(ctx, s.collection, id); err != nil {
		return fmt.Errorf("remove document %s: %w", id, err)
	}
	return nil
}

// indexText embeds text and upserts the resulting document.
func (s *Service) indexText(ctx context.Context, id, text string, meta domain.DocumentMetadata) (domain.KnowledgeDocument, error) {
	doc, err := domain.NewKnowledgeDocument(id, text, meta)
	if err != nil {
		return domain.KnowledgeDocument{}, fmt.Errorf("build document: %w", err)
	}

	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return domain.KnowledgeDocument{}, fmt.Errorf("embed document: %w", err)
	}
	doc = doc.WithEmbedding(emb.Embedding)

	if err := s.store.Upsert(ctx, s.collection, []domain.KnowledgeDocument{doc}); err != nil {
		return domain.KnowledgeDocument{}, fmt.Errorf("upsert document: %w", err)
	}

	metrics.IndexedDocumentsTotal.Inc()
	return doc, nil
}

// Search runs a semantic query over the index. Results carry similarity
// scores in [0,1], highest first.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if !s.initialized.Load() {
		return nil, domain.ErrIndexNotInitialized
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	hits, err := s.store.Query(ctx, s.collection, emb.Embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, domain.SearchResult{
			ID:       h.ID,
			Text:     h.Text,
			Metadata: h.Metadata,
			Score:    distanceToScore(h.Distance),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

// WebSearch queries the web provider. Failures degrade to an empty result set
// so callers can always proceed on indexed knowledge alone.
func (s *Service) WebSearch(ctx context.Context, query string, limit int) []domain.SearchResult {
	if s.web == nil {
		return []domain.SearchResult{}
	}

	hits, err := s.web.Search(ctx, query)
	if err != nil {
		s.logger.Warn("web search failed, continuing without web results",
			zap.String("query", query), zap.Error(err))
		return []domain.SearchResult{}
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, domain.SearchResult{
			ID:   h.URL,
			Text: h.Snippet,
			Metadata: domain.DocumentMetadata{
				Title:  h.Title,
				Source: domain.SourceWeb,
				URL:    h.URL,
			},
			Score: webHitScore,
		})
	}
	return results
}

// GetContext assembles a bounded context block for a query: indexed knowledge
// first, then web findings. The two sections keep separate score spaces and
// are never interleaved.
func (s *Service) GetContext(ctx context.Context, query string, includeWeb bool) (domain.ContextBundle, error) {
	indexed, err := s.Search(ctx, query, contextIndexedLimit)
	if err != nil {
		return domain.ContextBundle{}, err
	}

	var web []domain.SearchResult
	if includeWeb {
		web = s.WebSearch(ctx, query, contextWebLimit)
	}

	var b strings.Builder
	if len(indexed) > 0 {
		b.WriteString("Relevant knowledge:\n")
		for _, r := range indexed {
			fmt.Fprintf(&b, "- [%s] %s\n", r.Metadata.Title, truncate(r.Text, indexedSnippetBudget))
		}
	}
	if len(web) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Web findings:\n")
		for _, r := range web {
			fmt.Fprintf(&b, "- [%s] %s (%s)\n", r.Metadata.Title, truncate(r.Text, webSnippetBudget), r.Metadata.URL)
		}
	}

	return domain.ContextBundle{
		Text:    b.String(),
		Indexed: indexed,
		Web:     web,
	}, nil
}

// Clear drops all indexed documents and recreates the empty collection.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if err := s.store.EnsureCollection(ctx, s.collection, s.dim); err != nil {
		return fmt.Errorf("%w: recreate collection: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// distanceToScore converts a cosine distance into a similarity score clamped
// to [0,1].
func distanceToScore(distance float64) float64 {
	score := 1 - distance
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// truncate cuts text to a character budget on a rune boundary.
func truncate(text string, budget int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return string(runes[:budget]) + "..."
}
