package orchestrator

import (
	"github.com/kailas-cloud/knosis/internal/domain"
)

// ConversationStore holds live conversation state and serializes writers per
// conversation id.
type ConversationStore interface {
	Put(conv *domain.Conversation)
	Get(id string) (*domain.Conversation, bool)
	Delete(id string)
	Clear()
	Acquire(id string) func()
}
