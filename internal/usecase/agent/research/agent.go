// Package research implements the content research agent: web-augmented
// knowledge retrieval feeding a prose answer.
package research

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knosis/internal/domain"
	"github.com/kailas-cloud/knosis/internal/usecase/agent"
)

const systemPrompt = `You are a research assistant with access to a knowledge workspace and web search results.
Answer the user's question using the provided context. Cite which sources informed your answer.
If the context does not cover the question, say so and answer from general knowledge.`

// ScoreFunc estimates how well the retrieved context covers a query.
type ScoreFunc func(indexed, web []domain.SearchResult) float64

// Agent is the content research agent.
type Agent struct {
	agent.Base
	store    agent.ContentStore
	parentID string
	score    ScoreFunc
}

// Option configures the research agent.
type Option func(*Agent)

// WithContentStore enables persisting findings to the workspace under the
// given parent page.
func WithContentStore(store agent.ContentStore, parentID string) Option {
	return func(a *Agent) {
		a.store = store
		a.parentID = parentID
	}
}

// WithScoreFunc replaces the default relevance heuristic.
func WithScoreFunc(fn ScoreFunc) Option {
	return func(a *Agent) { a.score = fn }
}

// New creates a content research agent.
func New(base agent.Base, opts ...Option) *Agent {
	a := &Agent{Base: base, score: defaultScore}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Type implements agent.Agent.
func (a *Agent) Type() domain.AgentType { return domain.AgentContentResearch }

// Result is a research outcome.
type Result struct {
	Answer      string
	Sources     []domain.SearchResult
	Relevance   float64
	SavedPageID string
}

// Summary implements agent.Result.
func (r Result) Summary() string { return r.Answer }

// Execute researches the task description against indexed knowledge and the
// web, then generates a sourced answer. When the task carries
// save_to_workspace=true and a content store is configured, the findings are
// written back as a new page.
func (a *Agent) Execute(ctx context.Context, task *domain.Task, conv *domain.Conversation) (agent.Result, error) {
	query := task.Description()
	bundle := a.Context(ctx, query, true)

	answer, err := a.GenerateResponse(ctx, conv, systemPrompt, query, bundle.Text)
	if err != nil {
		return nil, fmt.Errorf("research: %w", err)
	}

	res := Result{
		Answer:    answer,
		Sources:   append(append([]domain.SearchResult{}, bundle.Indexed...), bundle.Web...),
		Relevance: a.score(bundle.Indexed, bundle.Web),
	}

	if a.store != nil && boolParam(task, "save_to_workspace") {
		title := stringParam(task, "title")
		if title == "" {
			title = "Research: " + truncateTitle(query)
		}
		id, err := a.store.CreateItem(ctx, title, answer, a.parentID)
		if err != nil {
			// Persistence is best-effort: the answer still stands.
			a.Logger().Warn("saving research findings failed",
				zap.String("task_id", task.ID()), zap.Error(err))
		} else {
			res.SavedPageID = id
		}
	}

	return res, nil
}

// defaultScore combines source counts with average indexed similarity. Web
// hits contribute volume only; their fixed scores say nothing about fit.
func defaultScore(indexed, web []domain.SearchResult) float64 {
	score := 0.5

	idxBonus := 0.1 * float64(len(indexed))
	if idxBonus > 0.3 {
		idxBonus = 0.3
	}
	webBonus := 0.05 * float64(len(web))
	if webBonus > 0.2 {
		webBonus = 0.2
	}
	score += idxBonus + webBonus

	if len(indexed) > 0 {
		sum := 0.0
		for _, r := range indexed {
			sum += r.Score
		}
		score += 0.3 * (sum / float64(len(indexed)))
	}

	if score > 1 {
		return 1
	}
	return score
}

func boolParam(task *domain.Task, key string) bool {
	v, ok := task.Parameters()[key].(bool)
	return ok && v
}

func stringParam(task *domain.Task, key string) string {
	v, _ := task.Parameters()[key].(string)
	return v
}

// truncateTitle cuts a query to a page-title length on a rune boundary.
func truncateTitle(query string) string {
	const maxLen = 60
	runes := []rune(query)
	if len(runes) <= maxLen {
		return query
	}
	return string(runes[:maxLen]) + "..."
}
