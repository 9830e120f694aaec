package domain

// EmbeddingResult carries a computed embedding with provider token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
