package studio

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

const agentsJSON = `[{"name":"researcher","role":"search"},{"name":"writer","role":"summarize"}]`

func TestWorkflows_CreateThenChat(t *testing.T) {
	client, gw, srv := newTestClient(t)
	srv.JSON(http.MethodPost, "/workflow-config", http.StatusOK, map[string]any{"status_code": 200, "workflow_id": "wf_42"})
	srv.JSON(http.MethodPost, "/workflow-run-chat-pdf-sdk", http.StatusOK, map[string]any{
		"final_answer": "42",
		"conversation": []any{"q", "a"},
		"citation":     nil,
		"extra":        "dropped",
	})

	ctx := context.Background()
	path := writeFile(t, "agents.json", agentsJSON)

	created, err := client.Workflows.Create(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "wf_42", created["workflow_id"])
	assert.Equal(t, "wf_42", gw.Session())

	body := lastRequest(t, srv).JSON()
	agents, ok := body["agents_data"].([]any)
	require.True(t, ok)
	assert.Len(t, agents, 2)

	answer, err := client.Workflows.Chat(ctx, "meaning of life?", "")
	require.NoError(t, err)
	assert.Equal(t, waveflow.Object{"answer": "42", "conversation": []any{"q", "a"}, "citation": nil}, answer)

	chat := lastRequest(t, srv).JSON()
	assert.Equal(t, "wf_42", chat["workflow_id"])
	assert.Equal(t, "meaning of life?", chat["query"])
	assert.Equal(t, "", chat["context"])
}

func TestWorkflows_ChatWithoutSession(t *testing.T) {
	client, _, srv := newTestClient(t)

	_, err := client.Workflows.Chat(context.Background(), "hi", "")
	require.Error(t, err)
	assert.True(t, waveflow.IsValidation(err))

	_, err = client.Workflows.History(context.Background())
	require.Error(t, err)
	assert.True(t, waveflow.IsValidation(err))
	assert.Empty(t, srv.Requests())
}

func TestWorkflows_CreateFileErrors(t *testing.T) {
	client, _, srv := newTestClient(t)

	_, err := client.Workflows.Create(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, waveflow.IsValidation(err))
	assert.Contains(t, err.Error(), "file not found")

	_, err = client.Workflows.Create(context.Background(), writeFile(t, "bad.json", "{not json"))
	require.Error(t, err)
	assert.True(t, waveflow.IsValidation(err))
	assert.Empty(t, srv.Requests())
}

func TestWorkflows_CreateConfigEmbeddedStatus(t *testing.T) {
	client, _, srv := newTestClient(t)
	srv.JSON(http.MethodPost, "/workflow-config", http.StatusOK, map[string]any{"status_code": 500, "message": "agents invalid"})

	_, err := client.Workflows.CreateConfig(context.Background(), []any{map[string]any{"name": "a"}})
	require.Error(t, err)
	assert.True(t, waveflow.IsApplication(err))
	assert.Equal(t, "workflows.create_config", err.(*waveflow.Error).Op)
	assert.Contains(t, err.Error(), "agents invalid")
}

func TestWorkflows_Rename(t *testing.T) {
	client, _, srv := newTestClient(t)
	srv.JSON(http.MethodPut, "/rename_workflow/", http.StatusOK, map[string]any{"message": "Workflow renamed successfully"})

	_, err := client.Workflows.Rename(context.Background(), "wf_1", "Support bot", "")
	require.NoError(t, err)

	req := lastRequest(t, srv)
	assert.Equal(t, "wf_1", req.Query.Get("session_id"))
	assert.Equal(t, "Support bot", req.Query.Get("new_name"))
	assert.False(t, req.Query.Has("new_desc"))
	assert.Empty(t, req.Body)
}

func TestWorkflows_RunChat(t *testing.T) {
	client, _, srv := newTestClient(t)
	srv.JSON(http.MethodPost, "/workflow-run-chat-pdf", http.StatusOK, map[string]any{"final_answer": "ok"})

	_, err := client.Workflows.RunChat(context.Background(), "wf_1", "summarize", []string{"a.pdf", "b.pdf"})
	require.NoError(t, err)

	req := lastRequest(t, srv)
	assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
	assert.Equal(t, "wf_1", req.Form.Get("session_id"))
	assert.Equal(t, "summarize", req.Form.Get("query"))
	assert.Equal(t, "a.pdf,b.pdf", req.Form.Get("filenames"))
}

func TestWorkflows_DeleteReleasesSession(t *testing.T) {
	client, gw, srv := newTestClient(t)
	srv.JSON(http.MethodDelete, "/delete-workflow/{id}", http.StatusOK, map[string]any{"message": "Workflow deleted successfully"})

	gw.SetSession("wf_9")
	_, err := client.Workflows.Delete(context.Background(), "wf_other")
	require.NoError(t, err)
	assert.Equal(t, "wf_9", gw.Session())

	_, err = client.Workflows.Delete(context.Background(), "wf_9")
	require.NoError(t, err)
	assert.Empty(t, gw.Session())
	assert.Equal(t, 1, srv.Count(http.MethodDelete, "/delete-workflow/wf_9"))
}

func TestWorkflows_DeleteFailureKeepsSession(t *testing.T) {
	client, gw, srv := newTestClient(t)
	srv.JSON(http.MethodDelete, "/delete-workflow/{id}", http.StatusNotFound, map[string]any{"error": "no such workflow"})

	gw.SetSession("wf_9")
	_, err := client.Workflows.Delete(context.Background(), "wf_9")
	require.Error(t, err)
	assert.Equal(t, "wf_9", gw.Session())
}

func TestWorkflows_PublishAndDeploy(t *testing.T) {
	client, _, srv := newTestClient(t)
	srv.JSON(http.MethodPost, "/publish_workflow", http.StatusOK, map[string]any{"message": "published"})
	srv.JSON(http.MethodPost, "/deploy", http.StatusOK, map[string]any{"message": "deployed"})
	srv.JSON(http.MethodPost, "/undeploy", http.StatusOK, map[string]any{"message": "undeployed"})

	ctx := context.Background()
	_, err := client.Workflows.Publish(ctx, PublishRequest{WorkflowID: "wf_1", SessionID: "wf_1", Name: "Bot", Description: "d", Username: "ada"})
	require.NoError(t, err)
	req := lastRequest(t, srv)
	assert.Equal(t, "ada", req.Header.Get(waveflow.UsernameHeader))
	assert.Equal(t, map[string]any{
		"workflow_name":        "Bot",
		"workflow_description": "d",
		"workflow_id":          "wf_1",
		"session_id":           "wf_1",
	}, req.JSON())

	_, err = client.Workflows.Deploy(ctx, DeployRequest{FlowID: "wf_1", Name: "Bot"})
	require.NoError(t, err)
	body := lastRequest(t, srv).JSON()
	assert.Equal(t, "wf_1", body["flowId"])
	assert.Equal(t, "Bot", body["flowname"])
	assert.Equal(t, map[string]any{}, body["deployment"])

	_, err = client.Workflows.Undeploy(ctx, "wf_1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"session_id": "wf_1"}, lastRequest(t, srv).JSON())
}

func TestWorkflows_Queries(t *testing.T) {
	client, _, srv := newTestClient(t)
	srv.JSON(http.MethodGet, "/read-workflows", http.StatusOK, map[string]any{"workflows": []any{}})
	srv.JSON(http.MethodGet, "/workflows_by_model", http.StatusOK, map[string]any{"workflows": []any{}})
	srv.JSON(http.MethodGet, "/workflows_by_tool", http.StatusOK, map[string]any{"workflows": []any{}})

	ctx := context.Background()
	_, err := client.Workflows.Read(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", lastRequest(t, srv).Query.Get("user_id"))

	_, err = client.Workflows.ByModel(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", lastRequest(t, srv).Query.Get("model_id"))

	_, err = client.Workflows.ByTool(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", lastRequest(t, srv).Query.Get("tool_id"))
}
