// Package notion implements the content store collaborator against the
// Notion REST API.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knosis/internal/domain"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"

	// Notion rejects rich text fragments longer than 2000 characters.
	maxBlockChars = 2000
)

// Store is a Notion-backed content store.
type Store struct {
	token   string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// Config holds Notion API settings.
type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// New creates a Notion content store.
func New(cfg *Config) *Store {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		token:   cfg.Token,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}
}

// Search finds workspace pages matching the query. An empty query lists all
// pages the integration can access.
func (s *Store) Search(ctx context.Context, query string) ([]domain.ContentItem, error) {
	body := map[string]any{
		"page_size": 100,
		"filter":    map[string]string{"value": "page", "property": "object"},
	}
	if query != "" {
		body["query"] = query
	}

	var parsed struct {
		Results []struct {
			ID             string                     `json:"id"`
			LastEditedTime time.Time                  `json:"last_edited_time"`
			Properties     map[string]json.RawMessage `json:"properties"`
		} `json:"results"`
	}
	if err := s.do(ctx, http.MethodPost, "/search", body, &parsed); err != nil {
		return nil, fmt.Errorf("search pages: %w", err)
	}

	items := make([]domain.ContentItem, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		items = append(items, domain.ContentItem{
			ID:         r.ID,
			Title:      extractTitle(r.Properties),
			LastEdited: r.LastEditedTime,
		})
	}
	return items, nil
}

// GetText returns the plain text of a page's block children. Non-text blocks
// contribute nothing and are skipped.
func (s *Store) GetText(ctx context.Context, id string) (string, error) {
	var buf bytes.Buffer
	cursor := ""

	for {
		path := fmt.Sprintf("/blocks/%s/children?page_size=100", id)
		if cursor != "" {
			path += "&start_cursor=" + cursor
		}

		var parsed struct {
			Results    []block `json:"results"`
			HasMore    bool    `json:"has_more"`
			NextCursor string  `json:"next_cursor"`
		}
		if err := s.do(ctx, http.MethodGet, path, nil, &parsed); err != nil {
			return "", fmt.Errorf("get blocks %s: %w", id, err)
		}

		for _, b := range parsed.Results {
			if text := b.plainText(); text != "" {
				buf.WriteString(text)
				buf.WriteString("\n")
			}
		}

		if !parsed.HasMore || parsed.NextCursor == "" {
			break
		}
		cursor = parsed.NextCursor
	}

	return buf.String(), nil
}

// CreateItem creates a page with the given title and body under parentID.
func (s *Store) CreateItem(ctx context.Context, title, text, parentID string) (string, error) {
	body := map[string]any{
		"parent": map[string]string{"page_id": parentID},
		"properties": map[string]any{
			"title": map[string]any{
				"title": []any{richText(title)},
			},
		},
		"children": paragraphBlocks(text),
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, "/pages", body, &parsed); err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	return parsed.ID, nil
}

// AppendText appends paragraph blocks to an existing page.
func (s *Store) AppendText(ctx context.Context, id, text string) error {
	body := map[string]any{"children": paragraphBlocks(text)}
	if err := s.do(ctx, http.MethodPatch, "/blocks/"+id+"/children", body, nil); err != nil {
		return fmt.Errorf("append blocks %s: %w", id, err)
	}
	return nil
}

// do executes an authenticated Notion API call and decodes the response into out.
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Notion-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrContentStoreError)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("notion API status %d: %s: %w", resp.StatusCode, raw, domain.ErrContentStoreError)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// block is the subset of a Notion block needed for text extraction.
type block struct {
	Type string `json:"type"`

	Paragraph        *richTextHolder `json:"paragraph"`
	Heading1         *richTextHolder `json:"heading_1"`
	Heading2         *richTextHolder `json:"heading_2"`
	Heading3         *richTextHolder `json:"heading_3"`
	BulletedListItem *richTextHolder `json:"bulleted_list_item"`
	NumberedListItem *richTextHolder `json:"numbered_list_item"`
	ToDo             *richTextHolder `json:"to_do"`
	Quote            *richTextHolder `json:"quote"`
	Code             *richTextHolder `json:"code"`
}

type richTextHolder struct {
	RichText []struct {
		PlainText string `json:"plain_text"`
	} `json:"rich_text"`
}

// plainText extracts the concatenated plain text of a block, or "" for
// unsupported block types (images, embeds, tables and the like).
func (b *block) plainText() string {
	holders := []*richTextHolder{
		b.Paragraph, b.Heading1, b.Heading2, b.Heading3,
		b.BulletedListItem, b.NumberedListItem, b.ToDo, b.Quote, b.Code,
	}
	for _, h := range holders {
		if h == nil {
			continue
		}
		var buf bytes.Buffer
		for _, rt := range h.RichText {
			buf.WriteString(rt.PlainText)
		}
		return buf.String()
	}
	return ""
}

// extractTitle finds the title property of a page. Pages always carry exactly
// one property of type "title", but its name varies per database.
func extractTitle(props map[string]json.RawMessage) string {
	for _, raw := range props {
		var p struct {
			Type  string `json:"type"`
			Title []struct {
				PlainText string `json:"plain_text"`
			} `json:"title"`
		}
		if err := json.Unmarshal(raw, &p); err != nil || p.Type != "title" {
			continue
		}
		var buf bytes.Buffer
		for _, t := range p.Title {
			buf.WriteString(t.PlainText)
		}
		return buf.String()
	}
	return ""
}

func richText(content string) map[string]any {
	return map[string]any{
		"type": "text",
		"text": map[string]string{"content": content},
	}
}

// paragraphBlocks splits text into paragraph blocks within Notion's rich text
// size limit. The limit counts characters, so chunks are cut on rune
// boundaries.
func paragraphBlocks(text string) []map[string]any {
	var blocks []map[string]any
	runes := []rune(text)
	for len(runes) > 0 {
		n := len(runes)
		if n > maxBlockChars {
			n = maxBlockChars
		}
		chunk := string(runes[:n])
		runes = runes[n:]

		blocks = append(blocks, map[string]any{
			"object": "block",
			"type":   "paragraph",
			"paragraph": map[string]any{
				"rich_text": []any{richText(chunk)},
			},
		})
	}
	return blocks
}
