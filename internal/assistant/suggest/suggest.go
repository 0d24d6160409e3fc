// Package suggest produces follow-up prompts for the reply surface.
// Generation is a fixed catalog keyed off the conversation context;
// it never blocks a turn and never fails.
package suggest

import (
	"sylo-assistant/internal/models"
)

// MaxSuggestions caps the list sent back with a reply.
const MaxSuggestions = 4

var baseSuggestions = []string{
	"Show me today's tasks",
	"Create a new project",
	"Schedule a client meeting",
	"What's the status of my projects?",
}

var projectSuggestions = []string{
	"Show project timeline",
	"Add a task to this project",
	"Update project status",
}

// Generator returns contextual follow-up prompts.
type Generator struct{}

func New() *Generator {
	return &Generator{}
}

// Generate returns at most MaxSuggestions prompts. When the context
// carries a current project, project-scoped prompts come first.
func (g *Generator) Generate(convCtx *models.ConversationContext) []string {
	suggestions := make([]string, 0, len(projectSuggestions)+len(baseSuggestions))
	if convCtx != nil && convCtx.CurrentProjectID != "" {
		suggestions = append(suggestions, projectSuggestions...)
	}
	suggestions = append(suggestions, baseSuggestions...)
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions
}
