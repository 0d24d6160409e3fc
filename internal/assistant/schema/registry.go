// Package schema declares the supported intents and their typed
// parameter schemas. The registry is process-wide immutable
// configuration loaded at startup; it doubles as the wire contract
// between the intent parser and the completion capability, so intent
// and field names are versioned with the code.
package schema

import (
	"fmt"

	"sylo-assistant/internal/models"
)

// FieldType enumerates the parameter types a schema field may carry.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeNumber FieldType = "number"
	TypeDate   FieldType = "date"
	TypeEnum   FieldType = "enum"
	TypeArray  FieldType = "array<string>"
)

// Field describes one parameter of an intent schema.
type Field struct {
	Name        string    `json:"name" yaml:"name"`
	Type        FieldType `json:"type" yaml:"type"`
	Required    bool      `json:"required" yaml:"required"`
	EnumValues  []string  `json:"enumValues,omitempty" yaml:"enum_values"`
	Description string    `json:"description,omitempty" yaml:"description"`
}

// Schema describes one supported intent.
type Schema struct {
	Intent      models.Intent `json:"intent" yaml:"intent"`
	Description string        `json:"description" yaml:"description"`
	Fields      []Field       `json:"fields" yaml:"fields"`
}

// Registry is the ordered, immutable set of intent schemas.
type Registry struct {
	schemas  []Schema
	byIntent map[models.Intent]*Schema
}

// New builds a registry from an ordered schema list.
func New(schemas []Schema) (*Registry, error) {
	byIntent := make(map[models.Intent]*Schema, len(schemas))
	for i := range schemas {
		s := &schemas[i]
		if s.Intent == "" {
			return nil, fmt.Errorf("schema %d: intent is required", i)
		}
		if _, dup := byIntent[s.Intent]; dup {
			return nil, fmt.Errorf("duplicate schema for intent %q", s.Intent)
		}
		byIntent[s.Intent] = s
	}
	return &Registry{schemas: schemas, byIntent: byIntent}, nil
}

// Default returns the built-in design-studio registry.
func Default() *Registry {
	reg, err := New(defaultSchemas())
	if err != nil {
		// defaultSchemas is compiled-in; a failure here is a programming error.
		panic(err)
	}
	return reg
}

// Schemas returns the ordered schema list.
func (r *Registry) Schemas() []Schema {
	out := make([]Schema, len(r.schemas))
	copy(out, r.schemas)
	return out
}

// Lookup finds the schema for an intent.
func (r *Registry) Lookup(intent models.Intent) (*Schema, bool) {
	s, ok := r.byIntent[intent]
	return s, ok
}

// FieldNames returns the declared parameter names in order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Parameters renders the schema as a JSON-Schema object suitable for
// the completion capability's function-calling interface.
func (s *Schema) Parameters() map[string]interface{} {
	properties := make(map[string]interface{}, len(s.Fields))
	var required []string
	for _, f := range s.Fields {
		properties[f.Name] = f.property()
		if f.Required {
			required = append(required, f.Name)
		}
	}
	params := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		params["required"] = required
	}
	return params
}

// ValidationSchema renders a JSON-Schema document used to validate
// the model's supplied arguments. Required-ness is deliberately not
// enforced here: a missing required field is a dispatch-level
// validation failure, not malformed model output. Extra properties
// are allowed and ignored downstream.
func (s *Schema) ValidationSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(s.Fields))
	for _, f := range s.Fields {
		properties[f.Name] = f.property()
	}
	return map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}
}

func (f Field) property() map[string]interface{} {
	prop := map[string]interface{}{}
	switch f.Type {
	case TypeNumber:
		prop["type"] = "number"
	case TypeArray:
		prop["type"] = "array"
		prop["items"] = map[string]interface{}{"type": "string"}
	case TypeEnum:
		prop["type"] = "string"
		if len(f.EnumValues) > 0 {
			enum := make([]interface{}, len(f.EnumValues))
			for i, v := range f.EnumValues {
				enum[i] = v
			}
			prop["enum"] = enum
		}
	default:
		// string and date both travel as strings
		prop["type"] = "string"
	}
	if f.Description != "" {
		prop["description"] = f.Description
	}
	return prop
}

func defaultSchemas() []Schema {
	return []Schema{
		{
			Intent:      models.IntentCreateProject,
			Description: "Create a new design project",
			Fields: []Field{
				{Name: "name", Type: TypeString, Required: true, Description: "Project name"},
				{Name: "clientName", Type: TypeString, Required: true, Description: "Client name"},
				{Name: "projectType", Type: TypeEnum, Required: true,
					EnumValues:  []string{"interior", "architecture", "branding", "web"},
					Description: "Type of design project"},
				{Name: "budget", Type: TypeNumber, Description: "Project budget"},
				{Name: "description", Type: TypeString, Description: "Project description"},
				{Name: "deadline", Type: TypeDate, Description: "Project deadline (ISO date)"},
			},
		},
		{
			Intent:      models.IntentCreateTask,
			Description: "Create a new task within a project",
			Fields: []Field{
				{Name: "title", Type: TypeString, Required: true, Description: "Task title"},
				{Name: "projectId", Type: TypeString, Required: true, Description: "Project ID"},
				{Name: "description", Type: TypeString, Description: "Task description"},
				{Name: "priority", Type: TypeEnum,
					EnumValues:  []string{"low", "medium", "high", "urgent"},
					Description: "Task priority level"},
				{Name: "dueDate", Type: TypeDate, Description: "Due date (ISO date)"},
				{Name: "assigneeEmail", Type: TypeString, Description: "Assignee email address"},
			},
		},
		{
			Intent:      models.IntentCreateClient,
			Description: "Create a new client record",
			Fields: []Field{
				{Name: "name", Type: TypeString, Required: true, Description: "Client name"},
				{Name: "email", Type: TypeString, Description: "Client email"},
				{Name: "phone", Type: TypeString, Description: "Client phone number"},
				{Name: "company", Type: TypeString, Description: "Client company name"},
			},
		},
		{
			Intent:      models.IntentGetProjectStatus,
			Description: "Get status and progress of projects",
			Fields: []Field{
				{Name: "projectId", Type: TypeString, Description: "Specific project ID (optional)"},
				{Name: "clientName", Type: TypeString, Description: "Filter by client name (optional)"},
			},
		},
		{
			Intent:      models.IntentScheduleMeeting,
			Description: "Schedule a meeting or deadline",
			Fields: []Field{
				{Name: "title", Type: TypeString, Required: true, Description: "Meeting title"},
				{Name: "dateTime", Type: TypeDate, Required: true, Description: "Meeting date and time (ISO)"},
				{Name: "attendees", Type: TypeArray, Description: "Attendee email addresses"},
				{Name: "projectId", Type: TypeString, Description: "Related project ID (optional)"},
			},
		},
		{
			Intent:      models.IntentSearchEntities,
			Description: "Search for projects, clients, tasks, or products",
			Fields: []Field{
				{Name: "query", Type: TypeString, Required: true, Description: "Search query"},
				{Name: "type", Type: TypeEnum,
					EnumValues:  []string{"projects", "clients", "tasks", "products", "all"},
					Description: "Type of entity to search"},
			},
		},
	}
}
