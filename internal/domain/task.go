package domain

import (
	"fmt"
	"time"
)

// AgentType is the closed routing key for specialized agents.
type AgentType string

// Known agent types. Reserved types may be added without changing routing logic.
const (
	AgentContentResearch AgentType = "content-research"
	AgentTaskPlanning    AgentType = "task-planning"
)

// Valid reports whether the agent type is a known value.
func (t AgentType) Valid() bool {
	switch t {
	case AgentContentResearch, AgentTaskPlanning:
		return true
	}
	return false
}

// TaskStatus is the lifecycle state of an agent task.
type TaskStatus string

// Task lifecycle states. Transitions are monotonic:
// pending → running → {completed | failed}. No transition back to pending.
const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// CanTransition reports whether moving from s to next is legal.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	switch s {
	case TaskPending:
		return next == TaskRunning || next == TaskFailed
	case TaskRunning:
		return next == TaskCompleted || next == TaskFailed
	}
	return false
}

// Task is a unit of agent work with an explicit lifecycle status.
type Task struct {
	id          string
	agent       AgentType
	description string
	parameters  map[string]any
	status      TaskStatus
	result      any
	errMsg      string
	createdAt   time.Time
	updatedAt   time.Time
}

// NewTask creates a pending task.
func NewTask(id string, agent AgentType, description string, parameters map[string]any) *Task {
	now := time.Now().UTC()
	if parameters == nil {
		parameters = make(map[string]any)
	}
	return &Task{
		id:          id,
		agent:       agent,
		description: description,
		parameters:  parameters,
		status:      TaskPending,
		createdAt:   now,
		updatedAt:   now,
	}
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// Agent returns the target agent type.
func (t *Task) Agent() AgentType { return t.agent }

// Description returns the task description.
func (t *Task) Description() string { return t.description }

// Parameters returns the task parameter map.
func (t *Task) Parameters() map[string]any { return t.parameters }

// Status returns the current lifecycle status.
func (t *Task) Status() TaskStatus { return t.status }

// Result returns the agent-specific result, if any.
func (t *Task) Result() any { return t.result }

// Err returns the captured failure message, if any.
func (t *Task) Err() string { return t.errMsg }

// CreatedAt returns the creation timestamp.
func (t *Task) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns the last status change timestamp.
func (t *Task) UpdatedAt() time.Time { return t.updatedAt }

// UpdateStatus is the only legal mutator of status, result, error and
// updatedAt. Rejects non-monotonic transitions.
func (t *Task) UpdateStatus(status TaskStatus, result any, errMsg string) error {
	if !t.status.CanTransition(status) {
		return fmt.Errorf("%s → %s: %w", t.status, status, ErrInvalidTransition)
	}
	t.status = status
	if result != nil {
		t.result = result
	}
	if errMsg != "" {
		t.errMsg = errMsg
	}
	t.updatedAt = time.Now().UTC()
	return nil
}
