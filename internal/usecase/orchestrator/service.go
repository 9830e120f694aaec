// Package orchestrator routes chat turns to specialized agents and owns the
// conversation and task lifecycles.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/knosis/internal/domain"
	"github.com/kailas-cloud/knosis/internal/metrics"
	"github.com/kailas-cloud/knosis/internal/usecase/agent"
)

// Service is the agent orchestrator.
type Service struct {
	agents map[domain.AgentType]agent.Agent
	convs  ConversationStore
	logger *zap.Logger
}

// New creates an orchestrator with the given agents registered.
func New(convs ConversationStore, logger *zap.Logger, agents ...agent.Agent) *Service {
	s := &Service{
		agents: make(map[domain.AgentType]agent.Agent, len(agents)),
		convs:  convs,
		logger: logger,
	}
	for _, a := range agents {
		s.agents[a.Type()] = a
	}
	return s
}

// RegisterAgent adds or replaces an agent in the registry.
func (s *Service) RegisterAgent(a agent.Agent) {
	s.agents[a.Type()] = a
}

// CreateContext registers a fresh conversation and returns its id.
func (s *Service) CreateContext(userID string, sessionData map[string]any) string {
	id := uuid.New().String()
	s.convs.Put(domain.NewConversation(id, userID, sessionData))
	return id
}

// ChatResponse is the outcome of one chat turn.
type ChatResponse struct {
	ConversationID string
	Response       string
	Agent          domain.AgentType
	TaskID         string
	Suggestions    []string
}

// Chat runs one conversation turn: route the message to an agent, execute it
// as a task, and append both sides to history. An empty convID starts a fresh
// conversation; its id comes back in the response. The user message is
// appended before agent execution, so a failed turn still leaves it in
// history. A non-empty preferredAgent bypasses intent detection entirely;
// unknown agent types fail with ErrAgentNotRegistered.
func (s *Service) Chat(ctx context.Context, convID, message string, preferredAgent domain.AgentType) (ChatResponse, error) {
	if convID == "" {
		convID = s.CreateContext("", nil)
	}

	unlock := s.convs.Acquire(convID)
	defer unlock()

	conv, ok := s.convs.Get(convID)
	if !ok {
		return ChatResponse{}, fmt.Errorf("conversation %s: %w", convID, domain.ErrConversationNotFound)
	}

	conv.Append(domain.NewChatMessage(domain.RoleUser, message, nil))

	agentType := preferredAgent
	if agentType == "" {
		agentType = DetectIntent(message)
	}

	task := domain.NewTask(agent.NewTaskID(), agentType, message, nil)
	result, err := s.runTask(ctx, task, conv)
	if err != nil {
		metrics.ChatTurnsTotal.WithLabelValues(string(agentType), "error").Inc()
		return ChatResponse{}, err
	}

	conv.Append(domain.NewChatMessage(domain.RoleAssistant, result.Summary(), map[string]any{
		"agent":   string(agentType),
		"task_id": task.ID(),
	}))

	metrics.ChatTurnsTotal.WithLabelValues(string(agentType), "success").Inc()
	s.logger.Debug("chat turn complete",
		zap.String("conversation_id", convID),
		zap.String("agent", string(agentType)),
		zap.String("task_id", task.ID()))

	return ChatResponse{
		ConversationID: convID,
		Response:       result.Summary(),
		Agent:          agentType,
		TaskID:         task.ID(),
		Suggestions:    Suggestions(agentType),
	}, nil
}

// ExecuteTask runs a one-off task outside any conversation.
func (s *Service) ExecuteTask(ctx context.Context, agentType domain.AgentType, description string, parameters map[string]any) (*domain.Task, error) {
	task := domain.NewTask(agent.NewTaskID(), agentType, description, parameters)
	if _, err := s.runTask(ctx, task, nil); err != nil {
		return task, err
	}
	return task, nil
}

// runTask drives the task through its lifecycle against the routed agent.
func (s *Service) runTask(ctx context.Context, task *domain.Task, conv *domain.Conversation) (agent.Result, error) {
	a, ok := s.agents[task.Agent()]
	if !ok {
		_ = task.UpdateStatus(domain.TaskFailed, nil, "no agent registered")
		return nil, fmt.Errorf("agent %s: %w", task.Agent(), domain.ErrAgentNotRegistered)
	}

	if err := task.UpdateStatus(domain.TaskRunning, nil, ""); err != nil {
		return nil, err
	}

	result, err := a.Execute(ctx, task, conv)
	if err != nil {
		_ = task.UpdateStatus(domain.TaskFailed, nil, err.Error())
		return nil, fmt.Errorf("execute task %s: %w", task.ID(), err)
	}

	if err := task.UpdateStatus(domain.TaskCompleted, result, ""); err != nil {
		return nil, err
	}
	return result, nil
}

// ClearContext removes one conversation.
func (s *Service) ClearContext(convID string) {
	s.convs.Delete(convID)
}

// ClearAll removes every conversation.
func (s *Service) ClearAll() {
	s.convs.Clear()
}
