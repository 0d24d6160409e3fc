package models

// ActionResult describes one side effect attempted during a turn.
// A failed attempt becomes a result of type "error" rather than an
// exception crossing the dispatcher boundary, so a turn can report
// partial success.
type ActionResult struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

const (
	// ActionTypeInfo acknowledges a request that needed no action.
	ActionTypeInfo = "info"
	// ActionTypeError reports a failed handler step.
	ActionTypeError = "error"
)

// IsError reports whether the result represents a failed step.
func (r *ActionResult) IsError() bool {
	return r.Type == ActionTypeError
}
