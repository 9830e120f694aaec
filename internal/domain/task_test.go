package domain

import (
	"errors"
	"testing"
)

func TestTask_MonotonicTransitions(t *testing.T) {
	tests := []struct {
		name string
		path []TaskStatus
		ok   bool
	}{
		{"pending to running to completed", []TaskStatus{TaskRunning, TaskCompleted}, true},
		{"pending to running to failed", []TaskStatus{TaskRunning, TaskFailed}, true},
		{"pending straight to failed", []TaskStatus{TaskFailed}, true},
		{"pending straight to completed", []TaskStatus{TaskCompleted}, false},
		{"no return to pending", []TaskStatus{TaskRunning, TaskPending}, false},
		{"completed is terminal", []TaskStatus{TaskRunning, TaskCompleted, TaskRunning}, false},
		{"failed is terminal", []TaskStatus{TaskRunning, TaskFailed, TaskRunning}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task := NewTask("t-1", AgentContentResearch, "desc", nil)
			var err error
			for _, next := range tc.path {
				err = task.UpdateStatus(next, nil, "")
				if err != nil {
					break
				}
			}
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("expected transition error")
				}
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("error = %v, want ErrInvalidTransition", err)
				}
			}
		})
	}
}

func TestTask_UpdateStatusStampsResultAndError(t *testing.T) {
	task := NewTask("t-1", AgentTaskPlanning, "desc", map[string]any{"k": "v"})
	created := task.UpdatedAt()

	if err := task.UpdateStatus(TaskRunning, nil, ""); err != nil {
		t.Fatalf("to running: %v", err)
	}
	if err := task.UpdateStatus(TaskFailed, nil, "provider exploded"); err != nil {
		t.Fatalf("to failed: %v", err)
	}

	if task.Err() != "provider exploded" {
		t.Errorf("Err() = %q", task.Err())
	}
	if task.Status() != TaskFailed {
		t.Errorf("Status() = %q", task.Status())
	}
	if task.UpdatedAt().Before(created) {
		t.Error("UpdatedAt must advance on transition")
	}
}

func TestAgentType_Valid(t *testing.T) {
	if !AgentContentResearch.Valid() || !AgentTaskPlanning.Valid() {
		t.Error("known agent types must be valid")
	}
	if AgentType("fortune-teller").Valid() {
		t.Error("unknown agent type must be invalid")
	}
}
