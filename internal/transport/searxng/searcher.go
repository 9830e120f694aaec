// Package searxng implements the web search provider against a SearXNG
// instance's JSON API.
package searxng

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knosis/internal/domain"
	"github.com/kailas-cloud/knosis/internal/metrics"
)

// Searcher queries a SearXNG instance.
type Searcher struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// Config holds SearXNG connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// New creates a SearXNG web searcher.
func New(cfg *Config) *Searcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Searcher{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}
}

// searchResponse mirrors the SearXNG JSON result envelope.
type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search implements the index usecase WebSearcher contract.
func (s *Searcher) Search(ctx context.Context, query string) ([]domain.WebHit, error) {
	u := fmt.Sprintf("%s/search?q=%s&format=json", s.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.WebSearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("web search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.WebSearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("web search status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.WebSearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	metrics.WebSearchRequestsTotal.WithLabelValues("success").Inc()

	hits := make([]domain.WebHit, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		hits = append(hits, domain.WebHit{
			Title:   r.Title,
			Snippet: r.Content,
			URL:     r.URL,
		})
	}
	return hits, nil
}
