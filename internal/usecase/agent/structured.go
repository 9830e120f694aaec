package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/knosis/internal/domain"
)

// StructuredResponse holds the outcome of a structured generation. When the
// model output does not parse, OK is false and Raw keeps the text so callers
// can fall back to prose instead of failing the task.
type StructuredResponse[T any] struct {
	Value    T
	OK       bool
	Raw      string
	ParseErr error
}

// GenerateStructured runs a completion expected to yield a single JSON object
// and decodes it into T. Generation failures are errors; parse failures are
// not — they surface through OK and ParseErr.
func GenerateStructured[T any](ctx context.Context, b Base, conv *domain.Conversation, systemPrompt, userPrompt, contextText string) (StructuredResponse[T], error) {
	messages := b.buildMessages(conv, systemPrompt, userPrompt, contextText)

	out, err := b.gen.Complete(ctx, messages, structuredTemperature, responseMaxTokens)
	if err != nil {
		return StructuredResponse[T]{}, fmt.Errorf("generate structured response: %w", err)
	}

	resp := StructuredResponse[T]{Raw: out}

	payload, ok := extractJSON(out)
	if !ok {
		resp.ParseErr = fmt.Errorf("no JSON object in model output")
		return resp, nil
	}
	if err := json.Unmarshal([]byte(payload), &resp.Value); err != nil {
		resp.ParseErr = fmt.Errorf("decode model output: %w", err)
		return resp, nil
	}

	resp.OK = true
	return resp, nil
}

// extractJSON cuts the first-'{' to last-'}' span out of model output,
// tolerating prose or fences around the object.
func extractJSON(out string) (string, bool) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return out[start : end+1], true
}
