package agent

import (
	"context"

	"github.com/kailas-cloud/knosis/internal/domain"
)

// --- Mocks ---

type mockGenerator struct {
	out      string
	err      error
	lastMsgs []domain.ChatMessage
	lastTemp float32
}

func (m *mockGenerator) Complete(_ context.Context, messages []domain.ChatMessage, temperature float32, _ int) (string, error) {
	m.lastMsgs = messages
	m.lastTemp = temperature
	return m.out, m.err
}

type mockContextProvider struct {
	bundle domain.ContextBundle
	err    error
}

func (m *mockContextProvider) GetContext(_ context.Context, _ string, _ bool) (domain.ContextBundle, error) {
	return m.bundle, m.err
}
