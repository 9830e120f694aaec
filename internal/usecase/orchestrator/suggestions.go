package orchestrator

import "github.com/kailas-cloud/knosis/internal/domain"

// suggestionsByAgent holds the static follow-up prompts offered after each
// agent's turn. At most three per agent.
var suggestionsByAgent = map[domain.AgentType][]string{
	domain.AgentContentResearch: {
		"Dig deeper into one of the sources",
		"Save these findings to the workspace",
		"Plan a project around this topic",
	},
	domain.AgentTaskPlanning: {
		"Adjust the timeline",
		"Break a task into subtasks",
		"Research one of the planned tasks",
	},
}

// Suggestions returns follow-up prompts for an agent type.
func Suggestions(agent domain.AgentType) []string {
	out := make([]string, len(suggestionsByAgent[agent]))
	copy(out, suggestionsByAgent[agent])
	return out
}
