package models

// Intent is the classified action a user's message requests.
type Intent string

const (
	IntentCreateProject    Intent = "create_project"
	IntentCreateTask       Intent = "create_task"
	IntentCreateClient     Intent = "create_client"
	IntentGetProjectStatus Intent = "get_project_status"
	IntentScheduleMeeting  Intent = "schedule_meeting"
	IntentSearchEntities   Intent = "search_entities"
	IntentUnknown          Intent = "unknown"
)

// Entity is a named, typed value extracted from a message for one
// intent's parameters. Type names a field of the matched schema.
type Entity struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ParsedIntent is the parser's output for one user turn. It is produced
// once per turn and consumed exactly once by the dispatcher.
type ParsedIntent struct {
	Intent       Intent   `json:"intent"`
	Confidence   float64  `json:"confidence"`
	Entities     []Entity `json:"entities"`
	OriginalText string   `json:"originalText"`
}
