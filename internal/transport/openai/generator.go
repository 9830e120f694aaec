package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/knosis/internal/domain"
	"github.com/kailas-cloud/knosis/internal/metrics"
)

// Generator is a chat completion provider using the OpenAI-compatible API.
type Generator struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// GeneratorConfig holds the text generation provider settings.
type GeneratorConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Provider string
	Logger   *zap.Logger
}

// NewGenerator creates an OpenAI-compatible chat completion provider.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Generator{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Complete implements the agent usecase TextGenerator contract.
func (g *Generator) Complete(
	ctx context.Context, messages []domain.ChatMessage, temperature float32, maxTokens int,
) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    toAPIMessages(messages),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return "", wrapAPIError("generation", err, domain.ErrGenerationFailed)
	}

	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrGenerationFailed)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.GenerationTokensTotal.
			WithLabelValues(g.provider, g.model, "prompt").
			Add(float64(resp.Usage.PromptTokens))
		metrics.GenerationTokensTotal.
			WithLabelValues(g.provider, g.model, "completion").
			Add(float64(resp.Usage.CompletionTokens))
	}

	return resp.Choices[0].Message.Content, nil
}

func toAPIMessages(messages []domain.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    toAPIRole(m.Role),
			Content: m.Content,
		})
	}
	return out
}

func toAPIRole(r domain.Role) string {
	switch r {
	case domain.RoleSystem:
		return openai.ChatMessageRoleSystem
	case domain.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
