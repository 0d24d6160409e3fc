package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sylo-assistant/internal/assistant/ai"
	"sylo-assistant/internal/assistant/composer"
	"sylo-assistant/internal/assistant/dispatch"
	"sylo-assistant/internal/assistant/parser"
	"sylo-assistant/internal/assistant/schema"
	"sylo-assistant/internal/assistant/suggest"
	"sylo-assistant/internal/common/auth"
	"sylo-assistant/internal/common/config"
	"sylo-assistant/internal/common/logger"
	"sylo-assistant/internal/conversation"
	"sylo-assistant/internal/models"
	"sylo-assistant/internal/repository"
)

// scriptedClient answers the parse call (functions offered) with a
// canned result and every compose call (no functions) with text.
type scriptedClient struct {
	parseResult *ai.CompletionResult
	parseErr    error
	composeText string
}

func (c *scriptedClient) Complete(ctx context.Context, req *ai.CompletionRequest) (*ai.CompletionResult, error) {
	if len(req.Functions) > 0 {
		if c.parseErr != nil {
			return nil, c.parseErr
		}
		return c.parseResult, nil
	}
	return &ai.CompletionResult{Text: c.composeText}, nil
}

type memoryStore struct {
	clients  []*models.Client
	projects []*models.Project
	tasks    []*models.Task
	messages []*models.ChatMessage
}

func (m *memoryStore) FindClientByName(ctx context.Context, firmID, name string) (*models.Client, error) {
	for _, c := range m.clients {
		if c.FirmID == firmID && strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) CreateClient(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = fmt.Sprintf("c%d", len(m.clients)+1)
	}
	m.clients = append(m.clients, client)
	return nil
}

func (m *memoryStore) FindProjectByID(ctx context.Context, firmID, projectID string) (*models.Project, error) {
	for _, p := range m.projects {
		if p.FirmID == firmID && p.ID == projectID {
			return p, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) CreateProject(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = fmt.Sprintf("p%d", len(m.projects)+1)
	}
	m.projects = append(m.projects, project)
	return nil
}

func (m *memoryStore) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = fmt.Sprintf("t%d", len(m.tasks)+1)
	}
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *memoryStore) FindUserByEmail(ctx context.Context, firmID, email string) (*models.User, error) {
	return nil, nil
}

func (m *memoryStore) ListProjectStatus(ctx context.Context, firmID string, filter repository.StatusFilter) ([]models.ProjectStatus, error) {
	return nil, nil
}

func (m *memoryStore) SearchProjects(ctx context.Context, firmID, query string) ([]models.Project, error) {
	return nil, nil
}

func (m *memoryStore) SearchClients(ctx context.Context, firmID, query string) ([]models.Client, error) {
	return nil, nil
}

func (m *memoryStore) SearchTasks(ctx context.Context, firmID, query string) ([]models.Task, error) {
	return nil, nil
}

func (m *memoryStore) SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	m.messages = append(m.messages, msg)
	return nil
}

func newTestServer(t *testing.T, client ai.Client, store repository.Store) *Server {
	t.Helper()
	log := logger.Nop()

	p := parser.New(&parser.Config{Timeout: 2 * time.Second, Temperature: 0.3}, client, schema.Default(), log)
	c := composer.New(&composer.Config{Timeout: 2 * time.Second, Temperature: 0.7, MaxTokens: 500}, client, log)
	handler := NewAssistantHandler(
		config.AssistantConfig{RequestBudget: 45000},
		p,
		dispatch.New(store, log),
		c,
		suggest.New(),
		conversation.NewRecorder(store, log),
		nil, // no session cache in tests
		nil,
		log,
	)

	return New(
		config.ServerConfig{Port: 8080, ReadTimeout: 5000, WriteTimeout: 5000},
		handler,
		&auth.StaticAuthenticator{Identity: auth.DefaultDevelopmentIdentity()},
		log,
	)
}

func postMessage(t *testing.T, srv *Server, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/assistant/message", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestMessage_CreateProjectEndToEnd(t *testing.T) {
	client := &scriptedClient{
		parseResult: &ai.CompletionResult{
			FunctionCall: &ai.FunctionCall{
				Name: "create_project",
				Arguments: json.RawMessage(`{
					"name": "Lakeside Cafe",
					"clientName": "Maple & Co",
					"projectType": "interior",
					"budget": 50000
				}`),
			},
		},
		composeText: "I've set up Lakeside Cafe for Maple & Co with a $50,000 budget.",
	}
	store := &memoryStore{}
	srv := newTestServer(t, client, store)

	rec := postMessage(t, srv, map[string]interface{}{
		"message": "Create a project called Lakeside Cafe for client Maple & Co, interior design, budget 50k",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Response    string                `json:"response"`
		Actions     []models.ActionResult `json:"actions"`
		Suggestions []string              `json:"suggestions"`
		Intent      string                `json:"intent"`
		Confidence  float64               `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "create_project", resp.Intent)
	assert.Equal(t, 0.9, resp.Confidence)
	assert.Contains(t, resp.Response, "Lakeside Cafe")
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, "create_project", resp.Actions[0].Type)
	assert.Len(t, resp.Suggestions, suggest.MaxSuggestions)

	// Side effects: client and project created in the caller's firm.
	require.Len(t, store.clients, 1)
	assert.Equal(t, "Maple & Co", store.clients[0].Name)
	assert.Equal(t, "firm_1", store.clients[0].FirmID)
	require.Len(t, store.projects, 1)
	assert.Equal(t, "Lakeside Cafe", store.projects[0].Name)
	require.NotNil(t, store.projects[0].Budget)
	assert.Equal(t, 50000.0, *store.projects[0].Budget)

	// Both halves of the turn were recorded under one session.
	require.Len(t, store.messages, 2)
	assert.Equal(t, models.MessageTypeUser, store.messages[0].MessageType)
	assert.Equal(t, models.MessageTypeAssistant, store.messages[1].MessageType)
	assert.Equal(t, store.messages[0].SessionID, store.messages[1].SessionID)
	assert.True(t, strings.HasPrefix(store.messages[0].SessionID, "session_"))
}

func TestMessage_UnknownIntentStillReplies(t *testing.T) {
	client := &scriptedClient{
		parseResult: &ai.CompletionResult{Text: "Could you clarify?"},
		composeText: "I'm not sure what you'd like me to do. Could you rephrase?",
	}
	store := &memoryStore{}
	srv := newTestServer(t, client, store)

	rec := postMessage(t, srv, map[string]interface{}{"message": "flibber jabberwock"})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Response   string                `json:"response"`
		Actions    []models.ActionResult `json:"actions"`
		Intent     string                `json:"intent"`
		Confidence float64               `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "unknown", resp.Intent)
	assert.Equal(t, 0.5, resp.Confidence)
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, models.ActionTypeInfo, resp.Actions[0].Type)
	assert.NotEmpty(t, resp.Response)
	assert.Empty(t, store.projects)
	assert.Empty(t, store.clients)
}

func TestMessage_ModelOutage(t *testing.T) {
	client := &scriptedClient{parseErr: fmt.Errorf("upstream timeout")}
	srv := newTestServer(t, client, &memoryStore{})

	rec := postMessage(t, srv, map[string]interface{}{"message": "Create a project"})

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"requestId"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MODEL_UNAVAILABLE", resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)
}

// stalledClient never answers; it waits for the request context to
// be cancelled.
type stalledClient struct{}

func (c *stalledClient) Complete(ctx context.Context, req *ai.CompletionRequest) (*ai.CompletionResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestMessage_RequestBudgetCancelsSlowTurn(t *testing.T) {
	log := logger.Nop()
	client := &stalledClient{}
	store := &memoryStore{}

	p := parser.New(&parser.Config{Timeout: 30 * time.Second, Temperature: 0.3}, client, schema.Default(), log)
	c := composer.New(&composer.Config{Timeout: 30 * time.Second, Temperature: 0.7, MaxTokens: 500}, client, log)
	handler := NewAssistantHandler(config.AssistantConfig{RequestBudget: 20},
		p, dispatch.New(store, log), c, suggest.New(),
		conversation.NewRecorder(store, log), nil, nil, log)

	srv := New(
		config.ServerConfig{Port: 8080},
		handler,
		&auth.StaticAuthenticator{Identity: auth.DefaultDevelopmentIdentity()},
		log,
	)

	start := time.Now()
	rec := postMessage(t, srv, map[string]interface{}{"message": "Create a project"})
	elapsed := time.Since(start)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	// The 20ms budget, not the 30s model timeout, must end the turn.
	assert.Less(t, elapsed, 5*time.Second)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MODEL_UNAVAILABLE", resp.Error.Code)
}

func TestMessage_MissingMessage(t *testing.T) {
	srv := newTestServer(t, &scriptedClient{}, &memoryStore{})

	rec := postMessage(t, srv, map[string]interface{}{"message": ""})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MISSING_REQUIRED_FIELD", resp.Error.Code)
}

func TestMessage_InvalidBody(t *testing.T) {
	srv := newTestServer(t, &scriptedClient{}, &memoryStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/assistant/message", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessage_Unauthenticated(t *testing.T) {
	log := logger.Nop()
	client := &scriptedClient{}
	store := &memoryStore{}

	p := parser.New(&parser.Config{Timeout: time.Second, Temperature: 0.3}, client, schema.Default(), log)
	c := composer.New(&composer.Config{Timeout: time.Second, Temperature: 0.7, MaxTokens: 500}, client, log)
	handler := NewAssistantHandler(config.AssistantConfig{RequestBudget: 45000},
		p, dispatch.New(store, log), c, suggest.New(),
		conversation.NewRecorder(store, log), nil, nil, log)

	srv := New(
		config.ServerConfig{Port: 8080},
		handler,
		&auth.StaticAuthenticator{}, // no identity configured
		log,
	)

	rec := postMessage(t, srv, map[string]interface{}{"message": "hello"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &scriptedClient{}, &memoryStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t, &scriptedClient{}, &memoryStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.True(t, strings.HasPrefix(rec.Header().Get("X-Request-ID"), "req_"))

	// A caller-supplied ID is echoed back, not replaced.
	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req_123_abcd")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, "req_123_abcd", rec.Header().Get("X-Request-ID"))
}

func TestMessage_SessionIDCarriedThrough(t *testing.T) {
	client := &scriptedClient{
		parseResult: &ai.CompletionResult{Text: "chatting"},
		composeText: "Happy to help!",
	}
	store := &memoryStore{}
	srv := newTestServer(t, client, store)

	rec := postMessage(t, srv, map[string]interface{}{
		"message": "hello there",
		"context": map[string]interface{}{"sessionId": "session_42"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.messages, 2)
	assert.Equal(t, "session_42", store.messages[0].SessionID)
	assert.Equal(t, "session_42", store.messages[1].SessionID)
}
