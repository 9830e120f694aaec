// Package planner implements the task planning agent: structured project
// plans generated from indexed knowledge.
package planner

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knosis/internal/domain"
	"github.com/kailas-cloud/knosis/internal/usecase/agent"
)

const systemPrompt = `You are a project planning assistant. Break the user's goal into a concrete project plan.
Respond with a single JSON object of this shape:
{
  "title": "...",
  "tasks": [{"id": "task-1", "name": "...", "description": "...", "priority": "High|Medium|Low", "estimate": "8h", "status": "Not Started", "depends_on": []}],
  "timeline": "...",
  "resources": ["..."]
}
Return only the JSON object.`

const (
	defaultPriority = "Medium"
	defaultEstimate = "8h"
	initialStatus   = "Not Started"
)

// PlanTask is a single step of a project plan.
type PlanTask struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Estimate    string   `json:"estimate"`
	Status      string   `json:"status"`
	DependsOn   []string `json:"depends_on"`
}

// ProjectPlan is the structured planning output.
type ProjectPlan struct {
	Title     string     `json:"title"`
	Tasks     []PlanTask `json:"tasks"`
	Timeline  string     `json:"timeline"`
	Resources []string   `json:"resources"`
}

// Agent is the task planning agent.
type Agent struct {
	agent.Base
	store    agent.ContentStore
	parentID string
}

// Option configures the planner agent.
type Option func(*Agent)

// WithContentStore enables persisting plans to the workspace under the given
// parent page.
func WithContentStore(store agent.ContentStore, parentID string) Option {
	return func(a *Agent) {
		a.store = store
		a.parentID = parentID
	}
}

// New creates a task planning agent.
func New(base agent.Base, opts ...Option) *Agent {
	a := &Agent{Base: base}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Type implements agent.Agent.
func (a *Agent) Type() domain.AgentType { return domain.AgentTaskPlanning }

// Result is a planning outcome. When Structured is false the model output did
// not parse and Raw holds the prose fallback.
type Result struct {
	Plan        ProjectPlan
	Structured  bool
	Raw         string
	SavedPageID string
}

// Summary implements agent.Result.
func (r Result) Summary() string {
	if !r.Structured {
		return r.Raw
	}
	return formatPlan(r.Plan)
}

// Execute generates a structured project plan for the task description,
// grounded on indexed knowledge only. Malformed model output degrades to the
// raw text instead of failing the task.
func (a *Agent) Execute(ctx context.Context, task *domain.Task, conv *domain.Conversation) (agent.Result, error) {
	goal := task.Description()
	bundle := a.Context(ctx, goal, false)

	resp, err := agent.GenerateStructured[ProjectPlan](ctx, a.Base, conv, systemPrompt, goal, bundle.Text)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	res := Result{Raw: resp.Raw, Structured: resp.OK}
	if !resp.OK {
		a.Logger().Warn("plan output did not parse, returning raw text",
			zap.String("task_id", task.ID()), zap.Error(resp.ParseErr))
		return res, nil
	}
	res.Plan = repairPlan(resp.Value, goal)

	if a.store != nil && boolParam(task, "save_to_workspace") {
		id, err := a.store.CreateItem(ctx, res.Plan.Title, formatPlan(res.Plan), a.parentID)
		if err != nil {
			a.Logger().Warn("saving plan failed",
				zap.String("task_id", task.ID()), zap.Error(err))
		} else {
			res.SavedPageID = id
		}
	}

	return res, nil
}

// repairPlan normalizes model output: positional task ids, default priority
// and estimate, forced initial status, no nil slices.
func repairPlan(plan ProjectPlan, goal string) ProjectPlan {
	if plan.Title == "" {
		plan.Title = goal
	}
	if plan.Tasks == nil {
		plan.Tasks = []PlanTask{}
	}
	if plan.Resources == nil {
		plan.Resources = []string{}
	}
	for i := range plan.Tasks {
		t := &plan.Tasks[i]
		if t.ID == "" {
			t.ID = fmt.Sprintf("task-%d", i+1)
		}
		if t.Priority == "" {
			t.Priority = defaultPriority
		}
		if t.Estimate == "" {
			t.Estimate = defaultEstimate
		}
		// New plans always start unstarted, whatever the model claims.
		t.Status = initialStatus
		if t.DependsOn == nil {
			t.DependsOn = []string{}
		}
	}
	return plan
}

func formatPlan(plan ProjectPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project plan: %s\n", plan.Title)
	if plan.Timeline != "" {
		fmt.Fprintf(&b, "Timeline: %s\n", plan.Timeline)
	}
	for _, t := range plan.Tasks {
		fmt.Fprintf(&b, "- %s: %s [%s, %s]", t.ID, t.Name, t.Priority, t.Estimate)
		if len(t.DependsOn) > 0 {
			fmt.Fprintf(&b, " (after %s)", strings.Join(t.DependsOn, ", "))
		}
		b.WriteString("\n")
	}
	if len(plan.Resources) > 0 {
		fmt.Fprintf(&b, "Resources: %s\n", strings.Join(plan.Resources, ", "))
	}
	return b.String()
}

func boolParam(task *domain.Task, key string) bool {
	v, ok := task.Parameters()[key].(bool)
	return ok && v
}
