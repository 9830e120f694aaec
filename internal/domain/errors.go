package domain

import "errors"

var (
	// ErrIndexUnavailable signals that the vector store backing the knowledge index is unreachable.
	ErrIndexUnavailable = errors.New("knowledge index unavailable")
	// ErrIndexNotInitialized signals a query against an index that was never initialized.
	ErrIndexNotInitialized = errors.New("knowledge index not initialized")
	// ErrAgentNotRegistered signals a routing target with no registered agent instance.
	ErrAgentNotRegistered = errors.New("agent not registered")
	// ErrConversationNotFound signals a missing conversation context.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrInvalidTransition signals an illegal task status transition.
	ErrInvalidTransition = errors.New("invalid task status transition")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationFailed signals a text generation provider failure.
	ErrGenerationFailed = errors.New("text generation failed")
	// ErrContentStoreError signals a content workspace API failure.
	ErrContentStoreError = errors.New("content store error")
)
