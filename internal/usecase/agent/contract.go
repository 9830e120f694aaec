package agent

import (
	"context"

	"github.com/kailas-cloud/knosis/internal/domain"
)

// TextGenerator produces chat completions.
type TextGenerator interface {
	Complete(ctx context.Context, messages []domain.ChatMessage, temperature float32, maxTokens int) (string, error)
}

// ContextProvider assembles knowledge context for a query.
type ContextProvider interface {
	GetContext(ctx context.Context, query string, includeWeb bool) (domain.ContextBundle, error)
}

// ContentStore persists agent output back into the workspace.
type ContentStore interface {
	CreateItem(ctx context.Context, title, text, parentID string) (string, error)
}

// Result is what an agent produces for a task.
type Result interface {
	// Summary returns the user-facing response text.
	Summary() string
}

// Agent executes tasks of one type against a conversation.
type Agent interface {
	Type() domain.AgentType
	Execute(ctx context.Context, task *domain.Task, conv *domain.Conversation) (Result, error)
}
