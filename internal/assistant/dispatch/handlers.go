// internal/assistant/dispatch/handlers.go
package dispatch

import (
	"context"
	"strconv"
	"strings"
	"time"

	"sylo-assistant/internal/common/errors"
	"sylo-assistant/internal/models"
	"sylo-assistant/internal/repository"
)

const defaultProjectType = "interior"

func (d *Dispatcher) handleCreateProject(ctx context.Context, entities map[string]string, convCtx *models.ConversationContext) (*models.ActionResult, error) {
	name := entities["name"]
	if name == "" {
		return nil, errors.NewMissingRequiredFieldError("name")
	}
	clientName := entities["clientName"]
	if clientName == "" {
		return nil, errors.NewMissingRequiredFieldError("clientName")
	}
	projectType := entities["projectType"]
	if projectType == "" {
		projectType = defaultProjectType
	}

	client, err := d.findOrCreateClient(ctx, clientName, convCtx)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		FirmID:      convCtx.FirmID,
		ClientID:    client.ID,
		Name:        name,
		Description: entities["description"],
		Type:        projectType,
		CreatedBy:   convCtx.UserID,
	}
	// Budget and deadline the model got wrong degrade to absent
	// fields rather than failing the whole action.
	if raw := entities["budget"]; raw != "" {
		if budget, err := strconv.ParseFloat(raw, 64); err == nil && budget > 0 {
			project.Budget = &budget
		}
	}
	if raw := entities["deadline"]; raw != "" {
		if deadline, ok := parseDate(raw); ok {
			project.TimelineEnd = &deadline
		}
	}

	if err := d.store.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	return &models.ActionResult{
		Type:        string(models.IntentCreateProject),
		Description: "Created project \"" + project.Name + "\" for client \"" + client.Name + "\"",
		Data: map[string]interface{}{
			"project": project,
			"client":  client,
		},
	}, nil
}

func (d *Dispatcher) handleCreateTask(ctx context.Context, entities map[string]string, convCtx *models.ConversationContext) (*models.ActionResult, error) {
	title := entities["title"]
	if title == "" {
		return nil, errors.NewMissingRequiredFieldError("title")
	}
	projectID := entities["projectId"]
	if projectID == "" {
		projectID = convCtx.CurrentProjectID
	}
	if projectID == "" {
		return nil, errors.NewMissingRequiredFieldError("projectId")
	}

	project, err := d.store.FindProjectByID(ctx, convCtx.FirmID, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, errors.NewProjectNotFoundError(projectID)
	}

	task := &models.Task{
		ProjectID:   project.ID,
		Title:       title,
		Description: entities["description"],
		Priority:    entities["priority"],
		CreatedBy:   convCtx.UserID,
	}
	if raw := entities["dueDate"]; raw != "" {
		if due, ok := parseDate(raw); ok {
			task.DueDate = &due
		}
	}
	if email := entities["assigneeEmail"]; email != "" {
		assignee, err := d.store.FindUserByEmail(ctx, convCtx.FirmID, email)
		if err != nil {
			return nil, err
		}
		// An unrecognized email leaves the task unassigned.
		if assignee != nil {
			task.AssigneeID = assignee.ID
		}
	}

	if err := d.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	return &models.ActionResult{
		Type:        string(models.IntentCreateTask),
		Description: "Created task \"" + task.Title + "\" in project \"" + project.Name + "\"",
		Data: map[string]interface{}{
			"task": task,
		},
	}, nil
}

func (d *Dispatcher) handleCreateClient(ctx context.Context, entities map[string]string, convCtx *models.ConversationContext) (*models.ActionResult, error) {
	name := entities["name"]
	if name == "" {
		return nil, errors.NewMissingRequiredFieldError("name")
	}

	client := &models.Client{
		FirmID:    convCtx.FirmID,
		Name:      name,
		Email:     entities["email"],
		Phone:     entities["phone"],
		Company:   entities["company"],
		CreatedBy: convCtx.UserID,
	}
	if err := d.store.CreateClient(ctx, client); err != nil {
		return nil, err
	}

	return &models.ActionResult{
		Type:        string(models.IntentCreateClient),
		Description: "Created client \"" + client.Name + "\"",
		Data: map[string]interface{}{
			"client": client,
		},
	}, nil
}

func (d *Dispatcher) handleGetProjectStatus(ctx context.Context, entities map[string]string, convCtx *models.ConversationContext) (*models.ActionResult, error) {
	filter := repository.StatusFilter{
		ProjectID:  entities["projectId"],
		ClientName: entities["clientName"],
	}

	statuses, err := d.store.ListProjectStatus(ctx, convCtx.FirmID, filter)
	if err != nil {
		return nil, err
	}

	description := "Found " + strconv.Itoa(len(statuses)) + " project(s)"
	if len(statuses) == 0 {
		description = "No matching projects found"
	}

	return &models.ActionResult{
		Type:        string(models.IntentGetProjectStatus),
		Description: description,
		Data: map[string]interface{}{
			"projects": statuses,
		},
	}, nil
}

func (d *Dispatcher) handleSearchEntities(ctx context.Context, entities map[string]string, convCtx *models.ConversationContext) (*models.ActionResult, error) {
	query := entities["query"]
	if query == "" {
		return nil, errors.NewMissingRequiredFieldError("query")
	}
	searchType := entities["type"]
	if searchType == "" {
		searchType = "all"
	}

	data := map[string]interface{}{"query": query}
	total := 0

	if searchType == "projects" || searchType == "all" {
		projects, err := d.store.SearchProjects(ctx, convCtx.FirmID, query)
		if err != nil {
			return nil, err
		}
		data["projects"] = projects
		total += len(projects)
	}
	if searchType == "clients" || searchType == "all" {
		clients, err := d.store.SearchClients(ctx, convCtx.FirmID, query)
		if err != nil {
			return nil, err
		}
		data["clients"] = clients
		total += len(clients)
	}
	if searchType == "tasks" || searchType == "all" {
		tasks, err := d.store.SearchTasks(ctx, convCtx.FirmID, query)
		if err != nil {
			return nil, err
		}
		data["tasks"] = tasks
		total += len(tasks)
	}

	return &models.ActionResult{
		Type:        string(models.IntentSearchEntities),
		Description: "Found " + strconv.Itoa(total) + " result(s) for \"" + query + "\"",
		Data:        data,
	}, nil
}

// findOrCreateClient resolves a client by name within the firm,
// creating an active record when none exists. Two concurrent turns
// naming the same new client can both pass the lookup and insert
// duplicates; a unique index on (firm_id, LOWER(name)) is the
// intended guard, not a lock here.
func (d *Dispatcher) findOrCreateClient(ctx context.Context, name string, convCtx *models.ConversationContext) (*models.Client, error) {
	client, err := d.store.FindClientByName(ctx, convCtx.FirmID, name)
	if err != nil {
		return nil, err
	}
	if client != nil {
		return client, nil
	}

	client = &models.Client{
		FirmID:    convCtx.FirmID,
		Name:      name,
		CreatedBy: convCtx.UserID,
	}
	if err := d.store.CreateClient(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// parseDate accepts the date shapes the model typically emits.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
