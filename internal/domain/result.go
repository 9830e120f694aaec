package domain

// SearchResult is a single retrieval hit. Score is a similarity in [0,1]
// (1 − cosine distance for indexed content, a fixed placeholder for web hits);
// the two scales are not numerically comparable, so result sets from different
// sources are never merge-sorted together.
type SearchResult struct {
	ID       string
	Text     string
	Metadata DocumentMetadata
	Score    float64
}

// VectorHit is a raw k-NN hit from the vector store, before score conversion.
type VectorHit struct {
	ID       string
	Text     string
	Metadata DocumentMetadata
	Distance float64
}

// WebHit is a single web search provider result.
type WebHit struct {
	Title   string
	Snippet string
	URL     string
}

// ContextBundle is the augmented context served to agents: the assembled
// human-readable string plus the raw result sequences it was built from.
type ContextBundle struct {
	Text    string
	Indexed []SearchResult
	Web     []SearchResult
}
