// Package agent defines the task execution agent contract and the shared
// generation plumbing agents build on.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/knosis/internal/domain"
)

const (
	// historyWindow bounds how many recent turns are replayed into prompts.
	historyWindow = 5

	responseMaxTokens = 1024

	proseTemperature      = 0.7
	structuredTemperature = 0.3
)

// Base carries the collaborators every agent needs.
type Base struct {
	gen    TextGenerator
	ctxp   ContextProvider
	logger *zap.Logger
}

// NewBase creates the shared agent base.
func NewBase(gen TextGenerator, ctxp ContextProvider, logger *zap.Logger) Base {
	return Base{gen: gen, ctxp: ctxp, logger: logger}
}

// Logger exposes the agent logger to embedders.
func (b Base) Logger() *zap.Logger { return b.logger }

// Context assembles knowledge context for a query. An uninitialized or failing
// index degrades to an empty bundle so agents keep working on history alone.
func (b Base) Context(ctx context.Context, query string, includeWeb bool) domain.ContextBundle {
	if b.ctxp == nil {
		return domain.ContextBundle{}
	}
	bundle, err := b.ctxp.GetContext(ctx, query, includeWeb)
	if err != nil {
		if !errors.Is(err, domain.ErrIndexNotInitialized) {
			b.logger.Warn("context assembly failed, continuing without knowledge context",
				zap.Error(err))
		}
		return domain.ContextBundle{}
	}
	return bundle
}

// GenerateResponse runs a prose completion: system prompt, a window of recent
// history, then the user prompt prefixed with any knowledge context.
func (b Base) GenerateResponse(ctx context.Context, conv *domain.Conversation, systemPrompt, userPrompt, contextText string) (string, error) {
	messages := b.buildMessages(conv, systemPrompt, userPrompt, contextText)

	out, err := b.gen.Complete(ctx, messages, proseTemperature, responseMaxTokens)
	if err != nil {
		return "", fmt.Errorf("generate response: %w", err)
	}
	return out, nil
}

func (b Base) buildMessages(conv *domain.Conversation, systemPrompt, userPrompt, contextText string) []domain.ChatMessage {
	var messages []domain.ChatMessage
	messages = append(messages, domain.NewChatMessage(domain.RoleSystem, systemPrompt, nil))
	if conv != nil {
		messages = append(messages, conv.LastN(historyWindow)...)
	}

	content := userPrompt
	if contextText != "" {
		content = contextText + "\n\n" + userPrompt
	}
	messages = append(messages, domain.NewChatMessage(domain.RoleUser, content, nil))
	return messages
}

// NewTaskID returns a fresh task identifier.
func NewTaskID() string {
	return uuid.New().String()
}
