package research

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knosis/internal/domain"
	"github.com/kailas-cloud/knosis/internal/usecase/agent"
)

// --- Mocks ---

type mockGenerator struct {
	out string
	err error
}

func (m *mockGenerator) Complete(_ context.Context, _ []domain.ChatMessage, _ float32, _ int) (string, error) {
	return m.out, m.err
}

type mockContextProvider struct {
	bundle domain.ContextBundle
	err    error
}

func (m *mockContextProvider) GetContext(_ context.Context, _ string, _ bool) (domain.ContextBundle, error) {
	return m.bundle, m.err
}

type mockContentStore struct {
	id        string
	err       error
	created   bool
	lastTitle string
	lastText  string
}

func (m *mockContentStore) CreateItem(_ context.Context, title, text, _ string) (string, error) {
	m.created = true
	m.lastTitle = title
	m.lastText = text
	return m.id, m.err
}

func newBase(gen *mockGenerator, ctxp *mockContextProvider) agent.Base {
	return agent.NewBase(gen, ctxp, zap.NewNop())
}

// --- Tests ---

func TestExecute_ReturnsAnswerWithSources(t *testing.T) {
	ctxp := &mockContextProvider{bundle: domain.ContextBundle{
		Text:    "Relevant knowledge:\n- stuff\n",
		Indexed: []domain.SearchResult{{ID: "notion-a", Score: 0.9}},
		Web:     []domain.SearchResult{{ID: "https://b", Score: 0.8}},
	}}
	a := New(newBase(&mockGenerator{out: "the answer"}, ctxp))

	task := domain.NewTask("t1", domain.AgentContentResearch, "what is X", nil)
	res, err := a.Execute(context.Background(), task, domain.NewConversation("c1", "", nil))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	r, ok := res.(Result)
	if !ok {
		t.Fatalf("result type = %T", res)
	}
	if r.Answer != "the answer" || res.Summary() != "the answer" {
		t.Errorf("answer = %q", r.Answer)
	}
	if len(r.Sources) != 2 {
		t.Errorf("got %d sources, want 2", len(r.Sources))
	}
	if r.Relevance <= 0.5 {
		t.Errorf("relevance = %v, want > 0.5 with sources present", r.Relevance)
	}
}

func TestExecute_GenerationFailurePropagates(t *testing.T) {
	a := New(newBase(&mockGenerator{err: domain.ErrGenerationFailed}, &mockContextProvider{}))

	task := domain.NewTask("t1", domain.AgentContentResearch, "q", nil)
	_, err := a.Execute(context.Background(), task, nil)
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Errorf("error = %v, want ErrGenerationFailed", err)
	}
}

func TestExecute_PersistsWhenRequested(t *testing.T) {
	store := &mockContentStore{id: "page-1"}
	a := New(
		newBase(&mockGenerator{out: "findings"}, &mockContextProvider{}),
		WithContentStore(store, "parent-1"),
	)

	task := domain.NewTask("t1", domain.AgentContentResearch, "q", map[string]any{
		"save_to_workspace": true,
		"title":             "My findings",
	})
	res, err := a.Execute(context.Background(), task, nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !store.created {
		t.Fatal("CreateItem not called")
	}
	if store.lastTitle != "My findings" || store.lastText != "findings" {
		t.Errorf("saved title=%q text=%q", store.lastTitle, store.lastText)
	}
	if res.(Result).SavedPageID != "page-1" {
		t.Errorf("SavedPageID = %q", res.(Result).SavedPageID)
	}
}

func TestExecute_PersistFailureIsBestEffort(t *testing.T) {
	store := &mockContentStore{err: domain.ErrContentStoreError}
	a := New(
		newBase(&mockGenerator{out: "findings"}, &mockContextProvider{}),
		WithContentStore(store, "parent-1"),
	)

	task := domain.NewTask("t1", domain.AgentContentResearch, "q", map[string]any{"save_to_workspace": true})
	res, err := a.Execute(context.Background(), task, nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.(Result).SavedPageID != "" {
		t.Errorf("SavedPageID = %q, want empty on save failure", res.(Result).SavedPageID)
	}
}

func TestExecute_NoPersistWithoutFlag(t *testing.T) {
	store := &mockContentStore{id: "page-1"}
	a := New(
		newBase(&mockGenerator{out: "findings"}, &mockContextProvider{}),
		WithContentStore(store, "parent-1"),
	)

	task := domain.NewTask("t1", domain.AgentContentResearch, "q", nil)
	if _, err := a.Execute(context.Background(), task, nil); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if store.created {
		t.Error("CreateItem called without save_to_workspace")
	}
}

func TestExecute_GeneratedTitleKeepsRuneBoundaries(t *testing.T) {
	store := &mockContentStore{id: "page-1"}
	a := New(
		newBase(&mockGenerator{out: "findings"}, &mockContextProvider{}),
		WithContentStore(store, "parent-1"),
	)

	query := strings.Repeat("é", 70)
	task := domain.NewTask("t1", domain.AgentContentResearch, query, map[string]any{"save_to_workspace": true})
	if _, err := a.Execute(context.Background(), task, nil); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := "Research: " + strings.Repeat("é", 60) + "..."
	if store.lastTitle != want {
		t.Errorf("title = %q, want %q", store.lastTitle, want)
	}
	if !utf8.ValidString(store.lastTitle) {
		t.Error("title is not valid UTF-8")
	}
}

func TestDefaultScore(t *testing.T) {
	idx := func(n int, score float64) []domain.SearchResult {
		out := make([]domain.SearchResult, n)
		for i := range out {
			out[i] = domain.SearchResult{Score: score}
		}
		return out
	}

	tests := []struct {
		name    string
		indexed []domain.SearchResult
		web     []domain.SearchResult
		want    float64
	}{
		{"no sources", nil, nil, 0.5},
		{"indexed bonus caps at 0.3", idx(10, 0), nil, 0.8},
		{"web bonus caps at 0.2", nil, idx(10, 0), 0.7},
		{"avg similarity adds up to 0.3", idx(1, 1.0), nil, 0.9},
		{"total clamps at 1", idx(10, 1.0), idx(10, 0), 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := defaultScore(tt.indexed, tt.web)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("defaultScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithScoreFunc_Override(t *testing.T) {
	a := New(
		newBase(&mockGenerator{out: "x"}, &mockContextProvider{}),
		WithScoreFunc(func(_, _ []domain.SearchResult) float64 { return 0.42 }),
	)

	task := domain.NewTask("t1", domain.AgentContentResearch, "q", nil)
	res, err := a.Execute(context.Background(), task, nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.(Result).Relevance != 0.42 {
		t.Errorf("relevance = %v, want 0.42", res.(Result).Relevance)
	}
}
