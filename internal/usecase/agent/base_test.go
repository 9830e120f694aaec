package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knosis/internal/domain"
)

func TestGenerateResponse_MessageLayout(t *testing.T) {
	gen := &mockGenerator{out: "answer"}
	b := NewBase(gen, nil, zap.NewNop())

	conv := domain.NewConversation("c1", "", nil)
	for i := 0; i < 8; i++ {
		conv.Append(domain.NewChatMessage(domain.RoleUser, "old turn", nil))
	}

	out, err := b.GenerateResponse(context.Background(), conv, "system prompt", "question", "context block")
	if err != nil {
		t.Fatalf("GenerateResponse failed: %v", err)
	}
	if out != "answer" {
		t.Errorf("out = %q", out)
	}

	// system + 5 history + user
	if len(gen.lastMsgs) != 7 {
		t.Fatalf("got %d messages, want 7", len(gen.lastMsgs))
	}
	if gen.lastMsgs[0].Role != domain.RoleSystem || gen.lastMsgs[0].Content != "system prompt" {
		t.Errorf("messages[0] = %+v", gen.lastMsgs[0])
	}
	last := gen.lastMsgs[len(gen.lastMsgs)-1]
	if last.Role != domain.RoleUser {
		t.Errorf("last role = %q", last.Role)
	}
	if !strings.HasPrefix(last.Content, "context block") || !strings.HasSuffix(last.Content, "question") {
		t.Errorf("last content = %q", last.Content)
	}
}

func TestGenerateResponse_NoContextPrefix(t *testing.T) {
	gen := &mockGenerator{out: "answer"}
	b := NewBase(gen, nil, zap.NewNop())

	if _, err := b.GenerateResponse(context.Background(), nil, "sys", "question", ""); err != nil {
		t.Fatalf("GenerateResponse failed: %v", err)
	}
	last := gen.lastMsgs[len(gen.lastMsgs)-1]
	if last.Content != "question" {
		t.Errorf("content = %q, want bare question", last.Content)
	}
}

func TestContext_DegradesOnError(t *testing.T) {
	b := NewBase(&mockGenerator{}, &mockContextProvider{err: errors.New("index broke")}, zap.NewNop())

	bundle := b.Context(context.Background(), "q", true)
	if bundle.Text != "" || len(bundle.Indexed) != 0 {
		t.Errorf("expected empty bundle, got %+v", bundle)
	}
}

func TestContext_NotInitializedIsQuietDegrade(t *testing.T) {
	b := NewBase(&mockGenerator{}, &mockContextProvider{err: domain.ErrIndexNotInitialized}, zap.NewNop())

	bundle := b.Context(context.Background(), "q", false)
	if bundle.Text != "" {
		t.Errorf("expected empty bundle, got %+v", bundle)
	}
}

func TestGenerateStructured_ParsesEmbeddedJSON(t *testing.T) {
	type plan struct {
		Title string `json:"title"`
	}
	gen := &mockGenerator{out: "Here you go:\n```json\n{\"title\": \"launch\"}\n```"}
	b := NewBase(gen, nil, zap.NewNop())

	resp, err := GenerateStructured[plan](context.Background(), b, nil, "sys", "prompt", "")
	if err != nil {
		t.Fatalf("GenerateStructured failed: %v", err)
	}
	if !resp.OK {
		t.Fatalf("OK = false, ParseErr = %v", resp.ParseErr)
	}
	if resp.Value.Title != "launch" {
		t.Errorf("Title = %q", resp.Value.Title)
	}
	if gen.lastTemp != structuredTemperature {
		t.Errorf("temperature = %v, want %v", gen.lastTemp, structuredTemperature)
	}
}

func TestGenerateStructured_KeepsRawOnParseFailure(t *testing.T) {
	gen := &mockGenerator{out: "no json here, just prose"}
	b := NewBase(gen, nil, zap.NewNop())

	resp, err := GenerateStructured[map[string]any](context.Background(), b, nil, "sys", "prompt", "")
	if err != nil {
		t.Fatalf("GenerateStructured failed: %v", err)
	}
	if resp.OK {
		t.Error("OK = true for unparseable output")
	}
	if resp.Raw != "no json here, just prose" {
		t.Errorf("Raw = %q", resp.Raw)
	}
	if resp.ParseErr == nil {
		t.Error("ParseErr is nil")
	}
}

func TestGenerateStructured_GenerationErrorPropagates(t *testing.T) {
	gen := &mockGenerator{err: domain.ErrGenerationFailed}
	b := NewBase(gen, nil, zap.NewNop())

	_, err := GenerateStructured[map[string]any](context.Background(), b, nil, "sys", "prompt", "")
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Errorf("error = %v, want ErrGenerationFailed", err)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"prose around", `Sure! {"a":1} Hope that helps.`, `{"a":1}`, true},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`, true},
		{"no object", "just text", "", false},
		{"only open brace", "{ broken", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSON(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("extractJSON(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
