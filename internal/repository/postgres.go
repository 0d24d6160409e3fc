// internal/repository/postgres.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sylo-assistant/internal/common/database"
	"sylo-assistant/internal/common/errors"
	"sylo-assistant/internal/common/logger"
	"sylo-assistant/internal/models"
)

// PostgresStore implements Store on top of the shared Postgres client.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(client *database.PostgresClient, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     client.GetDB(),
		logger: log.WithFields(map[string]interface{}{"component": "repository"}),
	}
}

// FindClientByName matches case-insensitively on the exact name
// within the firm.
func (s *PostgresStore) FindClientByName(ctx context.Context, firmID, name string) (*models.Client, error) {
	var c models.Client
	var email, phone, company sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, firm_id, name, email, phone, company, status, created_by, created_at, updated_at
		FROM clients
		WHERE firm_id = $1 AND LOWER(name) = LOWER($2)
		LIMIT 1`, firmID, name).Scan(
		&c.ID, &c.FirmID, &c.Name, &email, &phone, &company,
		&c.Status, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStoreUnavailableError(fmt.Errorf("find client by name: %w", err))
	}
	c.Email = email.String
	c.Phone = phone.String
	c.Company = company.String
	return &c, nil
}

func (s *PostgresStore) CreateClient(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now
	if client.Status == "" {
		client.Status = models.ClientStatusActive
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, firm_id, name, email, phone, company, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		client.ID, client.FirmID, client.Name,
		nullString(client.Email), nullString(client.Phone), nullString(client.Company),
		client.Status, client.CreatedBy, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return errors.NewStoreUnavailableError(fmt.Errorf("create client: %w", err))
	}

	s.logger.Info("client created", map[string]interface{}{
		"clientId": client.ID,
		"firmId":   client.FirmID,
	})
	return nil
}

func (s *PostgresStore) FindProjectByID(ctx context.Context, firmID, projectID string) (*models.Project, error) {
	var p models.Project
	var description, managerID sql.NullString
	var budget sql.NullFloat64
	var timelineEnd sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, firm_id, client_id, name, description, type, status, current_stage,
		       budget, timeline_end, project_manager_id, created_by, created_at, updated_at
		FROM projects
		WHERE firm_id = $1 AND id = $2`, firmID, projectID).Scan(
		&p.ID, &p.FirmID, &p.ClientID, &p.Name, &description, &p.Type, &p.Status,
		&p.CurrentStage, &budget, &timelineEnd, &managerID,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStoreUnavailableError(fmt.Errorf("find project: %w", err))
	}
	p.Description = description.String
	p.ProjectManagerID = managerID.String
	if budget.Valid {
		p.Budget = &budget.Float64
	}
	if timelineEnd.Valid {
		t := timelineEnd.Time
		p.TimelineEnd = &t
	}
	return &p, nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.Status == "" {
		project.Status = models.ProjectStatusActive
	}
	if project.CurrentStage == "" {
		project.CurrentStage = models.StageInitialBrief
	}

	var budget sql.NullFloat64
	if project.Budget != nil {
		budget = sql.NullFloat64{Float64: *project.Budget, Valid: true}
	}
	var timelineEnd sql.NullTime
	if project.TimelineEnd != nil {
		timelineEnd = sql.NullTime{Time: *project.TimelineEnd, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, firm_id, client_id, name, description, type, status, current_stage,
		                      budget, timeline_end, project_manager_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		project.ID, project.FirmID, project.ClientID, project.Name,
		nullString(project.Description), project.Type, project.Status, project.CurrentStage,
		budget, timelineEnd, nullString(project.ProjectManagerID),
		project.CreatedBy, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return errors.NewStoreUnavailableError(fmt.Errorf("create project: %w", err))
	}

	s.logger.Info("project created", map[string]interface{}{
		"projectId": project.ID,
		"firmId":    project.FirmID,
		"clientId":  project.ClientID,
	})
	return nil
}

func (s *PostgresStore) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}

	var dueDate sql.NullTime
	if task.DueDate != nil {
		dueDate = sql.NullTime{Time: *task.DueDate, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, title, description, status, priority, due_date, assignee_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		task.ID, task.ProjectID, task.Title, nullString(task.Description),
		task.Status, task.Priority, dueDate, nullString(task.AssigneeID),
		task.CreatedBy, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return errors.NewStoreUnavailableError(fmt.Errorf("create task: %w", err))
	}

	s.logger.Info("task created", map[string]interface{}{
		"taskId":    task.ID,
		"projectId": task.ProjectID,
	})
	return nil
}

func (s *PostgresStore) FindUserByEmail(ctx context.Context, firmID, email string) (*models.User, error) {
	var u models.User
	var firstName, lastName sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, firm_id, email, first_name, last_name, role
		FROM users
		WHERE firm_id = $1 AND LOWER(email) = LOWER($2)
		LIMIT 1`, firmID, email).Scan(
		&u.ID, &u.FirmID, &u.Email, &firstName, &lastName, &u.Role,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStoreUnavailableError(fmt.Errorf("find user by email: %w", err))
	}
	u.FirstName = firstName.String
	u.LastName = lastName.String
	return &u, nil
}

// ListProjectStatus returns up to StatusListLimit summaries with task
// progress aggregated per project, most recently updated first.
func (s *PostgresStore) ListProjectStatus(ctx context.Context, firmID string, filter StatusFilter) ([]models.ProjectStatus, error) {
	query := `
		SELECT p.id, p.name, c.name, p.status, p.current_stage,
		       COUNT(t.id), COUNT(t.id) FILTER (WHERE t.status = 'complete')
		FROM projects p
		JOIN clients c ON c.id = p.client_id
		LEFT JOIN tasks t ON t.project_id = p.id
		WHERE p.firm_id = $1`
	args := []interface{}{firmID}

	switch {
	case filter.ProjectID != "":
		query += ` AND p.id = $2`
		args = append(args, filter.ProjectID)
	case filter.ClientName != "":
		query += ` AND LOWER(c.name) = LOWER($2)`
		args = append(args, filter.ClientName)
	}

	query += `
		GROUP BY p.id, p.name, c.name, p.status, p.current_stage, p.updated_at
		ORDER BY p.updated_at DESC
		LIMIT ` + fmt.Sprintf("%d", StatusListLimit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStoreUnavailableError(fmt.Errorf("list project status: %w", err))
	}
	defer rows.Close()

	statuses := []models.ProjectStatus{}
	for rows.Next() {
		var st models.ProjectStatus
		if err := rows.Scan(&st.ID, &st.Name, &st.Client, &st.Status, &st.Stage,
			&st.TotalTasks, &st.CompletedTasks); err != nil {
			return nil, errors.NewStoreUnavailableError(fmt.Errorf("scan project status: %w", err))
		}
		st.Progress = models.ProgressPercent(st.CompletedTasks, st.TotalTasks)
		statuses = append(statuses, st)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailableError(fmt.Errorf("list project status: %w", err))
	}
	return statuses, nil
}

func (s *PostgresStore) SearchProjects(ctx context.Context, firmID, query string) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, firm_id, client_id, name, description, type, status, current_stage,
		       budget, timeline_end, project_manager_id, created_by, created_at, updated_at
		FROM projects
		WHERE firm_id = $1 AND (name ILIKE $2 OR description ILIKE $2)
		ORDER BY updated_at DESC
		LIMIT `+fmt.Sprintf("%d", SearchResultLimit), firmID, likePattern(query))
	if err != nil {
		return nil, errors.NewStoreUnavailableError(fmt.Errorf("search projects: %w", err))
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		var description, managerID sql.NullString
		var budget sql.NullFloat64
		var timelineEnd sql.NullTime
		if err := rows.Scan(&p.ID, &p.FirmID, &p.ClientID, &p.Name, &description, &p.Type,
			&p.Status, &p.CurrentStage, &budget, &timelineEnd, &managerID,
			&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, errors.NewStoreUnavailableError(fmt.Errorf("scan project: %w", err))
		}
		p.Description = description.String
		p.ProjectManagerID = managerID.String
		if budget.Valid {
			p.Budget = &budget.Float64
		}
		if timelineEnd.Valid {
			t := timelineEnd.Time
			p.TimelineEnd = &t
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailableError(fmt.Errorf("search projects: %w", err))
	}
	return projects, nil
}

func (s *PostgresStore) SearchClients(ctx context.Context, firmID, query string) ([]models.Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, firm_id, name, email, phone, company, status, created_by, created_at, updated_at
		FROM clients
		WHERE firm_id = $1 AND (name ILIKE $2 OR company ILIKE $2)
		ORDER BY updated_at DESC
		LIMIT `+fmt.Sprintf("%d", SearchResultLimit), firmID, likePattern(query))
	if err != nil {
		return nil, errors.NewStoreUnavailableError(fmt.Errorf("search clients: %w", err))
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		var c models.Client
		var email, phone, company sql.NullString
		if err := rows.Scan(&c.ID, &c.FirmID, &c.Name, &email, &phone, &company,
			&c.Status, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, errors.NewStoreUnavailableError(fmt.Errorf("scan client: %w", err))
		}
		c.Email = email.String
		c.Phone = phone.String
		c.Company = company.String
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailableError(fmt.Errorf("search clients: %w", err))
	}
	return clients, nil
}

// SearchTasks scopes through the owning project since tasks do not
// carry a firm ID directly.
func (s *PostgresStore) SearchTasks(ctx context.Context, firmID, query string) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.project_id, t.title, t.description, t.status, t.priority,
		       t.due_date, t.assignee_id, t.created_by, t.created_at, t.updated_at
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE p.firm_id = $1 AND (t.title ILIKE $2 OR t.description ILIKE $2)
		ORDER BY t.updated_at DESC
		LIMIT `+fmt.Sprintf("%d", SearchResultLimit), firmID, likePattern(query))
	if err != nil {
		return nil, errors.NewStoreUnavailableError(fmt.Errorf("search tasks: %w", err))
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		var description, assigneeID sql.NullString
		var dueDate sql.NullTime
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &description, &t.Status,
			&t.Priority, &dueDate, &assigneeID, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, errors.NewStoreUnavailableError(fmt.Errorf("scan task: %w", err))
		}
		t.Description = description.String
		t.AssigneeID = assigneeID.String
		if dueDate.Valid {
			d := dueDate.Time
			t.DueDate = &d
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailableError(fmt.Errorf("search tasks: %w", err))
	}
	return tasks, nil
}

// SaveChatMessage appends one conversation record. Structured fields
// travel as JSONB documents.
func (s *PostgresStore) SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	entities, err := marshalOrNil(msg.Entities)
	if err != nil {
		return errors.NewStoreUnavailableError(fmt.Errorf("encode entities: %w", err))
	}
	contextDoc, err := marshalOrNil(msg.Context)
	if err != nil {
		return errors.NewStoreUnavailableError(fmt.Errorf("encode context: %w", err))
	}
	actions, err := marshalOrNil(msg.Actions)
	if err != nil {
		return errors.NewStoreUnavailableError(fmt.Errorf("encode actions: %w", err))
	}
	suggestions, err := marshalOrNil(msg.Suggestions)
	if err != nil {
		return errors.NewStoreUnavailableError(fmt.Errorf("encode suggestions: %w", err))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, firm_id, user_id, message_type, content,
		                           intent, entities, context, actions, suggestions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		msg.ID, msg.SessionID, msg.FirmID, msg.UserID, msg.MessageType, msg.Content,
		nullString(string(msg.Intent)), entities, contextDoc, actions, suggestions, msg.CreatedAt,
	)
	if err != nil {
		return errors.NewStoreUnavailableError(fmt.Errorf("save chat message: %w", err))
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func likePattern(query string) string {
	return "%" + query + "%"
}

// marshalOrNil encodes v as JSON, or returns nil for empty values so
// the column stays NULL.
func marshalOrNil(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case []models.Entity:
		if len(t) == 0 {
			return nil, nil
		}
	case []models.ActionResult:
		if len(t) == 0 {
			return nil, nil
		}
	case []string:
		if len(t) == 0 {
			return nil, nil
		}
	case *models.ConversationContext:
		if t == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}
