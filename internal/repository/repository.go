// Package repository is the persistence boundary for studio records.
// Every operation is tenant-scoped: callers pass the firm ID from the
// authenticated identity and queries never cross it.
package repository

import (
	"context"

	"sylo-assistant/internal/models"
)

// Search and status listing caps. Result lists are bounded so a broad
// query cannot flood the reply surface.
const (
	StatusListLimit   = 10
	SearchResultLimit = 5
)

// StatusFilter narrows a project status listing. Zero values mean no
// filter; ProjectID wins over ClientName when both are set.
type StatusFilter struct {
	ProjectID  string
	ClientName string
}

// Store is the persistence capability consumed by the dispatcher and
// the conversation log. Find methods return (nil, nil) when no row
// matches; an error always means the store itself failed.
type Store interface {
	FindClientByName(ctx context.Context, firmID, name string) (*models.Client, error)
	CreateClient(ctx context.Context, client *models.Client) error

	FindProjectByID(ctx context.Context, firmID, projectID string) (*models.Project, error)
	CreateProject(ctx context.Context, project *models.Project) error

	CreateTask(ctx context.Context, task *models.Task) error
	FindUserByEmail(ctx context.Context, firmID, email string) (*models.User, error)

	ListProjectStatus(ctx context.Context, firmID string, filter StatusFilter) ([]models.ProjectStatus, error)

	SearchProjects(ctx context.Context, firmID, query string) ([]models.Project, error)
	SearchClients(ctx context.Context, firmID, query string) ([]models.Client, error)
	SearchTasks(ctx context.Context, firmID, query string) ([]models.Task, error)

	SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error
}
