package orchestrator

import (
	"strings"

	"github.com/kailas-cloud/knosis/internal/domain"
)

// intentRule maps trigger phrases to an agent type. Rules are checked in
// order; the first phrase found anywhere in the message wins.
type intentRule struct {
	phrases []string
	agent   domain.AgentType
}

// Research triggers outrank planning ones so "research a project plan" still
// routes to research.
var intentRules = []intentRule{
	{
		phrases: []string{"research", "find out", "learn about", "look up", "search for", "what is", "tell me about"},
		agent:   domain.AgentContentResearch,
	},
	{
		phrases: []string{"plan", "timeline", "roadmap", "schedule", "milestone", "organize", "break down"},
		agent:   domain.AgentTaskPlanning,
	},
}

// DetectIntent routes a message to an agent type by phrase matching. Unknown
// or empty messages fall back to content research.
func DetectIntent(message string) domain.AgentType {
	lower := strings.ToLower(message)
	for _, rule := range intentRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(lower, phrase) {
				return rule.agent
			}
		}
	}
	return domain.AgentContentResearch
}
