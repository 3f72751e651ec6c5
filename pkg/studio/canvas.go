package studio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

const (
	// DefaultChatOption is the aichatOption sent by Canvas.Run.
	DefaultChatOption = "Conversationalai"
	// DefaultCycleType is the cycle_type sent by Canvas.TestAutomation.
	DefaultCycleType = "immediate"
)

// AgentUpdate edits one agent on the canvas.
type AgentUpdate struct {
	ID                 string
	Name               string
	Role               string
	Description        string
	Model              map[string]any
	Tools              []any
	AdvancedParameters map[string]any
	WebSearch          bool
}

// RunRequest generates the agent sequence of a canvas session. SessionID
// defaults to the gateway's current session.
type RunRequest struct {
	Agents     []any
	ChatOption string
	SessionID  string
}

// TestAutomationRequest runs an automated test cycle against a workflow.
type TestAutomationRequest struct {
	SessionID string
	Query     string
	CycleType string
	Config    map[string]any
	Filenames []string
}

// UserQueryRequest sends an end-user query to a deployed workflow.
type UserQueryRequest struct {
	SessionID string
	UserID    string
	Query     string
	Filenames string
}

// Canvas drives the agent canvas: role assignment, agent editing and runs.
type Canvas struct {
	gw     Gateway
	models *Models
}

// AssignRoles creates agents for prompt. At least one saved model is required.
func (c *Canvas) AssignRoles(ctx context.Context, prompt string) (waveflow.Object, error) {
	if err := waveflow.Require("prompt", prompt); err != nil {
		return nil, err
	}
	models, err := c.models.List(ctx)
	if err != nil {
		return nil, err
	}
	if countModels(models) == 0 {
		return nil, waveflow.Invalid("no model is added: save one with Models.Set first")
	}
	return object(ctx, c.gw, post("canvas.assign_roles", "/assign_roles", map[string]string{"prompt": prompt}))
}

// countModels reads the size of a /get_models body, either {"models": [...]} or a bare list.
func countModels(v any) int {
	if obj, ok := v.(map[string]any); ok {
		v = obj["models"]
	}
	list, _ := v.([]any)
	return len(list)
}

// UpdateAgent edits one agent.
func (c *Canvas) UpdateAgent(ctx context.Context, a AgentUpdate) (waveflow.Object, error) {
	if err := waveflow.Require("agent id", a.ID); err != nil {
		return nil, err
	}
	tools := a.Tools
	if tools == nil {
		tools = []any{}
	}
	params := a.AdvancedParameters
	if params == nil {
		params = map[string]any{}
	}
	return object(ctx, c.gw, post("canvas.update_agent", "/update-agent", map[string]any{
		"type":                "agent",
		"id":                  a.ID,
		"name":                a.Name,
		"role":                a.Role,
		"description":         a.Description,
		"model":               a.Model,
		"tool":                tools,
		"advanced_parameters": params,
		"webSearch":           a.WebSearch,
	}))
}

// UpdateSequence sets the order agents run in.
func (c *Canvas) UpdateSequence(ctx context.Context, fileName string, agents []string) (waveflow.Object, error) {
	if err := waveflow.Require("file name", fileName); err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		return nil, waveflow.Invalid("agents must be a non-empty list")
	}
	return object(ctx, c.gw, post("canvas.update_sequence", "/sequence-ids", map[string]any{
		"file_name": fileName,
		"agents":    agents,
	}))
}

// Run generates the agent sequence for a session.
func (c *Canvas) Run(ctx context.Context, req RunRequest) (waveflow.Object, error) {
	sid := req.SessionID
	if sid == "" {
		sid = c.gw.Session()
	}
	if sid == "" {
		return nil, waveflow.Invalid("no session id found: create a workflow first")
	}
	option := req.ChatOption
	if option == "" {
		option = DefaultChatOption
	}
	agents := req.Agents
	if agents == nil {
		agents = []any{}
	}
	call := post("canvas.run", "/run", map[string]any{"agents": agents, "aichatOption": option})
	call.Header = http.Header{waveflow.SessionHeader: {sid}}
	return object(ctx, c.gw, call)
}

// ChatPDF asks a question of a session, optionally attaching a document.
func (c *Canvas) ChatPDF(ctx context.Context, sessionID, query, filePath string) (waveflow.Object, error) {
	if err := waveflow.Require("session id", sessionID); err != nil {
		return nil, err
	}
	call := &waveflow.Call{
		Operation: "canvas.chat_pdf",
		Method:    http.MethodPost,
		Path:      "/chat_pdf",
		Header:    http.Header{waveflow.SessionHeader: {sessionID}},
		Form:      url.Values{"query": {query}},
	}
	if filePath != "" {
		call.Files = []waveflow.File{{Field: "files", Path: filePath}}
	}
	return object(ctx, c.gw, call)
}

// UploadFile stores a file for userID.
func (c *Canvas) UploadFile(ctx context.Context, userID, path string) (waveflow.Object, error) {
	if err := waveflow.Require("user id", userID); err != nil {
		return nil, err
	}
	return object(ctx, c.gw, &waveflow.Call{
		Operation: "canvas.upload_file",
		Method:    http.MethodPost,
		Path:      "/file_upload",
		Form:      url.Values{"user_id": {userID}},
		Files:     []waveflow.File{{Field: "file", Path: path}},
	})
}

// File uploads a file to the generic file endpoint.
func (c *Canvas) File(ctx context.Context, path string) (any, error) {
	return payload(ctx, c.gw, &waveflow.Call{
		Operation: "canvas.file",
		Method:    http.MethodPost,
		Path:      "/file",
		Files:     []waveflow.File{{Field: "file", Path: path}},
	})
}

// ExtractText returns the text content of a document. The endpoint is public.
func (c *Canvas) ExtractText(ctx context.Context, path string) (waveflow.Object, error) {
	return object(ctx, c.gw, &waveflow.Call{
		Operation: "canvas.extract_text",
		Method:    http.MethodPost,
		Path:      "/extract-text",
		Auth:      waveflow.NoAuth(),
		Files:     []waveflow.File{{Field: "file", Path: path}},
	})
}

// Agents lists the account's agents.
func (c *Canvas) Agents(ctx context.Context) (any, error) {
	return payload(ctx, c.gw, get("canvas.agents", "/get-agents"))
}

// AgentData returns the agents of one session.
func (c *Canvas) AgentData(ctx context.Context, sessionID string) (any, error) {
	if err := waveflow.Require("session id", sessionID); err != nil {
		return nil, err
	}
	return payload(ctx, c.gw, post("canvas.agent_data", "/agent_data", map[string]string{"session_id": sessionID}))
}

// SessionHistory returns the chat history of one session.
func (c *Canvas) SessionHistory(ctx context.Context, sessionID string) (any, error) {
	if err := waveflow.Require("session id", sessionID); err != nil {
		return nil, err
	}
	return payload(ctx, c.gw, post("canvas.session_history", "/get-session-history", map[string]string{"session_id": sessionID}))
}

// History returns the account's run history.
func (c *Canvas) History(ctx context.Context) (any, error) {
	return payload(ctx, c.gw, get("canvas.history", "/history"))
}

// TestAutomation runs an automated test cycle.
func (c *Canvas) TestAutomation(ctx context.Context, req TestAutomationRequest) (waveflow.Object, error) {
	if err := waveflow.Require("session id", req.SessionID); err != nil {
		return nil, err
	}
	if err := waveflow.Require("query", req.Query); err != nil {
		return nil, err
	}
	cycle := req.CycleType
	if cycle == "" {
		cycle = DefaultCycleType
	}
	config := req.Config
	if config == nil {
		config = map[string]any{}
	}
	filenames := req.Filenames
	if filenames == nil {
		filenames = []string{}
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, waveflow.Invalid("config is not JSON-encodable: %v", err)
	}
	filenamesJSON, _ := json.Marshal(filenames)

	return object(ctx, c.gw, &waveflow.Call{
		Operation: "canvas.test_automation",
		Method:    http.MethodPost,
		Path:      "/test-automation-workflow",
		Form: url.Values{
			"session_id": {req.SessionID},
			"query":      {req.Query},
			"cycle_type": {cycle},
			"config":     {string(configJSON)},
			"filenames":  {string(filenamesJSON)},
		},
	})
}

// UserQuery sends an end-user query. The endpoint is public.
func (c *Canvas) UserQuery(ctx context.Context, req UserQueryRequest) (waveflow.Object, error) {
	if err := waveflow.Require("session id", req.SessionID); err != nil {
		return nil, err
	}
	if err := waveflow.Require("query", req.Query); err != nil {
		return nil, err
	}
	form := url.Values{
		"session_id": {req.SessionID},
		"user_id":    {req.UserID},
		"query":      {req.Query},
	}
	if req.Filenames != "" {
		form.Set("filenames", req.Filenames)
	}
	return object(ctx, c.gw, &waveflow.Call{
		Operation: "canvas.user_query",
		Method:    http.MethodPost,
		Path:      "/user_query",
		Auth:      waveflow.NoAuth(),
		Form:      form,
	})
}
