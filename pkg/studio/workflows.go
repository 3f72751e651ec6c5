package studio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

// AdminRunTimeout bounds Workflows.AdminRun.
const AdminRunTimeout = 60 * time.Second

// PublishRequest publishes a workflow to the library.
type PublishRequest struct {
	WorkflowID  string
	SessionID   string
	Name        string
	Description string
	Username    string
}

// DeployRequest deploys a workflow. Deployment carries target-specific
// settings such as {"repo_url": "..."}.
type DeployRequest struct {
	FlowID      string
	Name        string
	Description string
	Deployment  map[string]any
}

// Workflows manages workflows and chats with the current one.
type Workflows struct {
	gw Gateway
}

// List returns the workflow templates and count.
func (w *Workflows) List(ctx context.Context) (waveflow.Object, error) {
	return object(ctx, w.gw, get("workflows.list", "/get_workflows"))
}

// Read returns the workflows owned by userID.
func (w *Workflows) Read(ctx context.Context, userID string) (any, error) {
	if err := waveflow.Require("user id", userID); err != nil {
		return nil, err
	}
	call := get("workflows.read", "/read-workflows")
	call.Query = url.Values{"user_id": {userID}}
	return payload(ctx, w.gw, call)
}

// AdminDetails returns the admin view of every workflow.
func (w *Workflows) AdminDetails(ctx context.Context) (any, error) {
	return payload(ctx, w.gw, get("workflows.admin_details", "/workflow_admin"))
}

// ByModel returns the workflows using a saved model.
func (w *Workflows) ByModel(ctx context.Context, modelID string) (any, error) {
	if err := waveflow.Require("model id", modelID); err != nil {
		return nil, err
	}
	call := get("workflows.by_model", "/workflows_by_model")
	call.Query = url.Values{"model_id": {modelID}}
	return payload(ctx, w.gw, call)
}

// ByTool returns the workflows using a tool.
func (w *Workflows) ByTool(ctx context.Context, toolID string) (any, error) {
	if err := waveflow.Require("tool id", toolID); err != nil {
		return nil, err
	}
	call := get("workflows.by_tool", "/workflows_by_tool")
	call.Query = url.Values{"tool_id": {toolID}}
	return payload(ctx, w.gw, call)
}

// Create reads agent definitions from a local JSON file and creates a
// workflow from them. The returned workflow_id becomes the current session.
func (w *Workflows) Create(ctx context.Context, path string) (waveflow.Object, error) {
	data, err := ReadAgents(path)
	if err != nil {
		return nil, err
	}
	return object(ctx, w.gw, post("workflows.create", "/workflow-config", map[string]any{"agents_data": data}))
}

// CreateConfig creates a workflow from in-memory agent definitions. The body's
// status_code must be 200; anything else is an application failure.
func (w *Workflows) CreateConfig(ctx context.Context, agentsData any) (waveflow.Object, error) {
	if agentsData == nil {
		return nil, waveflow.Invalid("agents data is required")
	}
	call := post("workflows.create_config", "/workflow-config", map[string]any{"agents_data": agentsData})
	resp, err := w.gw.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	if err := waveflow.CheckEmbeddedStatus(resp); err != nil {
		var e *waveflow.Error
		if errors.As(err, &e) {
			e.Op = call.Operation
		}
		return nil, err
	}
	return resp.Object(), nil
}

// ReadAgents loads a workflow definition file.
func ReadAgents(path string) (any, error) {
	if err := waveflow.Require("workflow file", path); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, waveflow.Invalid("file not found: %s", path)
		}
		return nil, fmt.Errorf("read workflow file: %w", err)
	}
	var data any
	if err := waveflow.DecodeJSON(raw, &data); err != nil {
		return nil, waveflow.Invalid("invalid JSON in %s: %v", path, err)
	}
	return data, nil
}

// Rename changes a workflow's name and, when given, its description.
func (w *Workflows) Rename(ctx context.Context, sessionID, name, desc string) (waveflow.Object, error) {
	if err := waveflow.Require("session id", sessionID); err != nil {
		return nil, err
	}
	if err := waveflow.Require("new name", name); err != nil {
		return nil, err
	}
	query := url.Values{"session_id": {sessionID}, "new_name": {name}}
	if desc != "" {
		query.Set("new_desc", desc)
	}
	return object(ctx, w.gw, &waveflow.Call{
		Operation: "workflows.rename",
		Method:    http.MethodPut,
		Path:      "/rename_workflow/",
		Query:     query,
	})
}

// AdminRun runs a workflow from the admin view.
func (w *Workflows) AdminRun(ctx context.Context, sessionID string) (waveflow.Object, error) {
	if err := waveflow.Require("session id", sessionID); err != nil {
		return nil, err
	}
	call := post("workflows.admin_run", "/workflow-admin-run", map[string]string{"session_id": sessionID})
	call.Timeout = AdminRunTimeout
	return object(ctx, w.gw, call)
}

// RunChat sends a query to a workflow, optionally naming uploaded files.
func (w *Workflows) RunChat(ctx context.Context, sessionID, query string, filenames []string) (waveflow.Object, error) {
	if err := waveflow.Require("session id", sessionID); err != nil {
		return nil, err
	}
	if err := waveflow.Require("query", query); err != nil {
		return nil, err
	}
	form := url.Values{"session_id": {sessionID}, "query": {query}}
	if len(filenames) > 0 {
		form.Set("filenames", strings.Join(filenames, ","))
	}
	return object(ctx, w.gw, &waveflow.Call{
		Operation: "workflows.run_chat",
		Method:    http.MethodPost,
		Path:      "/workflow-run-chat-pdf",
		Form:      form,
	})
}

// UpdateAll replaces the account's workflow list, e.g. {"workflows": [...]}.
func (w *Workflows) UpdateAll(ctx context.Context, data map[string]any) (waveflow.Object, error) {
	if data == nil {
		return nil, waveflow.Invalid("workflow data is required")
	}
	return object(ctx, w.gw, post("workflows.update_all", "/update-user-workflows", data))
}

// Delete removes a workflow and forgets it as the current session.
func (w *Workflows) Delete(ctx context.Context, sessionID string) (waveflow.Object, error) {
	if err := waveflow.Require("session id", sessionID); err != nil {
		return nil, err
	}
	obj, err := object(ctx, w.gw, &waveflow.Call{
		Operation: "workflows.delete",
		Method:    http.MethodDelete,
		Path:      "/delete-workflow/" + url.PathEscape(sessionID),
	})
	if err != nil {
		return nil, err
	}
	w.gw.ReleaseSession(sessionID)
	return obj, nil
}

// Publish makes a workflow available in the library.
func (w *Workflows) Publish(ctx context.Context, req PublishRequest) (waveflow.Object, error) {
	if err := waveflow.Require("workflow id", req.WorkflowID); err != nil {
		return nil, err
	}
	if err := waveflow.Require("workflow name", req.Name); err != nil {
		return nil, err
	}
	call := post("workflows.publish", "/publish_workflow", map[string]string{
		"workflow_name":        req.Name,
		"workflow_description": req.Description,
		"workflow_id":          req.WorkflowID,
		"session_id":           req.SessionID,
	})
	if req.Username != "" {
		call.Header = http.Header{waveflow.UsernameHeader: {req.Username}}
	}
	return object(ctx, w.gw, call)
}

// Deploy deploys a workflow.
func (w *Workflows) Deploy(ctx context.Context, req DeployRequest) (waveflow.Object, error) {
	if err := waveflow.Require("flow id", req.FlowID); err != nil {
		return nil, err
	}
	deployment := req.Deployment
	if deployment == nil {
		deployment = map[string]any{}
	}
	return object(ctx, w.gw, post("workflows.deploy", "/deploy", map[string]any{
		"flowId":     req.FlowID,
		"flowname":   req.Name,
		"flowDesc":   req.Description,
		"deployment": deployment,
	}))
}

// Undeploy removes a deployment.
func (w *Workflows) Undeploy(ctx context.Context, sessionID string) (waveflow.Object, error) {
	if err := waveflow.Require("session id", sessionID); err != nil {
		return nil, err
	}
	return object(ctx, w.gw, post("workflows.undeploy", "/undeploy", map[string]string{"session_id": sessionID}))
}

// Chat asks the current workflow a question and returns its answer,
// conversation and citation.
func (w *Workflows) Chat(ctx context.Context, query, chatContext string) (waveflow.Object, error) {
	id := w.gw.Session()
	if id == "" {
		return nil, waveflow.Invalid("workflow not created: call Workflows.Create first")
	}
	obj, err := object(ctx, w.gw, post("workflows.chat", "/workflow-run-chat-pdf-sdk", map[string]string{
		"workflow_id": id,
		"query":       query,
		"context":     chatContext,
	}))
	if err != nil {
		return nil, err
	}
	return waveflow.Object{
		"answer":       obj["final_answer"],
		"conversation": obj["conversation"],
		"citation":     obj["citation"],
	}, nil
}

// History returns the chat history of the current workflow.
func (w *Workflows) History(ctx context.Context) (any, error) {
	id := w.gw.Session()
	if id == "" {
		return nil, waveflow.Invalid("workflow not created: call Workflows.Create first")
	}
	return payload(ctx, w.gw, post("workflows.history", "/get-session-history", map[string]string{"session_id": id}))
}
