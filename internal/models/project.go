package models

import "time"

// Project stages follow the studio's creative workflow.
const (
	StageInitialBrief       = "stage_0"
	StageConceptDevelopment = "stage_1"
	StageDesignDevelopment  = "stage_2"
	StageTechnicalDesign    = "stage_3"
	StageImplementation     = "stage_4"
	StageCompletion         = "stage_5"
)

const (
	ProjectStatusActive   = "active"
	ProjectStatusComplete = "complete"
)

// Project is a design engagement for one client.
type Project struct {
	ID               string     `json:"id" db:"id"`
	FirmID           string     `json:"firmId" db:"firm_id"`
	ClientID         string     `json:"clientId" db:"client_id"`
	Name             string     `json:"name" db:"name"`
	Description      string     `json:"description,omitempty" db:"description"`
	Type             string     `json:"type" db:"type"`
	Status           string     `json:"status" db:"status"`
	CurrentStage     string     `json:"currentStage" db:"current_stage"`
	Budget           *float64   `json:"budget,omitempty" db:"budget"`
	TimelineEnd      *time.Time `json:"timelineEnd,omitempty" db:"timeline_end"`
	ProjectManagerID string     `json:"projectManagerId,omitempty" db:"project_manager_id"`
	CreatedBy        string     `json:"createdBy" db:"created_by"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" db:"updated_at"`
}

// ProjectStatus is the per-project summary returned by the
// get_project_status handler.
type ProjectStatus struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Client         string `json:"client"`
	Status         string `json:"status"`
	Stage          string `json:"stage"`
	Progress       int    `json:"progress"`
	TotalTasks     int    `json:"totalTasks"`
	CompletedTasks int    `json:"completedTasks"`
}

// ProgressPercent computes round(100 * completed / total), defined as
// 0 for a project with no tasks.
func ProgressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(completed)/float64(total)*100 + 0.5)
}
