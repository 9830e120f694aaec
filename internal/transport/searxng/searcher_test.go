package searxng

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knosis/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterProviderMetrics()
	os.Exit(m.Run())
}

func TestSearcher_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "quantum computing" {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("format = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": [
				{"title": "Qubits 101", "url": "https://example.com/q", "content": "intro to qubits"},
				{"title": "Entanglement", "url": "https://example.com/e", "content": "spooky action"}
			]
		}`))
	}))
	defer server.Close()

	s := New(&Config{BaseURL: server.URL, Logger: zap.NewNop()})

	hits, err := s.Search(context.Background(), "quantum computing")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Title != "Qubits 101" || hits[0].Snippet != "intro to qubits" {
		t.Errorf("hit[0] = %+v", hits[0])
	}
	if hits[1].URL != "https://example.com/e" {
		t.Errorf("hit[1].URL = %q", hits[1].URL)
	}
}

func TestSearcher_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	s := New(&Config{BaseURL: server.URL, Logger: zap.NewNop()})

	if _, err := s.Search(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestSearcher_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	s := New(&Config{BaseURL: server.URL, Logger: zap.NewNop()})

	if _, err := s.Search(context.Background(), "anything"); err == nil {
		t.Fatal("expected decode error")
	}
}
