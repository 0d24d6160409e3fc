package models

import "time"

// Task statuses.
const (
	TaskStatusPending      = "pending"
	TaskStatusInProgress   = "in_progress"
	TaskStatusClientReview = "client_review"
	TaskStatusComplete     = "complete"
	TaskStatusBlocked      = "blocked"
)

// Task priorities.
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// Task is a unit of work within a project.
type Task struct {
	ID          string     `json:"id" db:"id"`
	ProjectID   string     `json:"projectId" db:"project_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description,omitempty" db:"description"`
	Status      string     `json:"status" db:"status"`
	Priority    string     `json:"priority" db:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty" db:"due_date"`
	AssigneeID  string     `json:"assigneeId,omitempty" db:"assignee_id"`
	CreatedBy   string     `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}
