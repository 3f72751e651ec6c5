package studio

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

func TestApps_ListIsUnauthenticated(t *testing.T) {
	client, _, srv := newTestClient(t)
	srv.JSON(http.MethodGet, "/apps", http.StatusOK, []any{map[string]any{"name": "slack"}})

	got, err := client.Apps.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Empty(t, lastRequest(t, srv).Header.Get("Authorization"))
}

func TestApps_Enums(t *testing.T) {
	client, _, srv := newTestClient(t)
	srv.JSON(http.MethodPost, "/get-enums-by-app", http.StatusOK, map[string]any{"enums": []any{"SLACK_SEND"}})

	_, err := client.Apps.Enums(context.Background(), "slack")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"enum": "slack"}, lastRequest(t, srv).JSON())
}

func TestApps_Fields(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		want any
	}{
		{name: "fields member", body: map[string]any{"fields": []any{"channel"}}, want: []any{"channel"}},
		{name: "whole body", body: map[string]any{"other": true}, want: map[string]any{"other": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _, srv := newTestClient(t)
			srv.JSON(http.MethodPost, "/fields", http.StatusOK, tt.body)

			got, err := client.Apps.Fields(context.Background(), "SLACK_SEND")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			req := lastRequest(t, srv)
			assert.Equal(t, "SLACK_SEND", req.Query.Get("slug_name"))
			assert.JSONEq(t, `{}`, string(req.Body))
		})
	}
}

func TestApps_Execute(t *testing.T) {
	client, _, srv := newTestClient(t)
	srv.JSON(http.MethodPost, "/execute", http.StatusOK, map[string]any{"success": true, "result": map[string]any{"ts": "1"}})

	got, err := client.Apps.Execute(context.Background(), "SLACK_SEND", map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ts": "1"}, got)

	body := lastRequest(t, srv).JSON()
	assert.Equal(t, "SLACK_SEND", body["slug"])
	assert.Equal(t, map[string]any{"text": "hi"}, body["arguments"])
}

func TestApps_ExecuteFailure(t *testing.T) {
	client, _, srv := newTestClient(t)
	srv.JSON(http.MethodPost, "/execute", http.StatusOK, map[string]any{"success": false, "error": "channel not found"})

	_, err := client.Apps.Execute(context.Background(), "SLACK_SEND", nil)
	require.Error(t, err)
	assert.True(t, waveflow.IsApplication(err))
	assert.Contains(t, err.Error(), "channel not found")
}

func TestConnections(t *testing.T) {
	client, _, srv := newTestClient(t)
	srv.JSON(http.MethodPost, "/initiate-connection", http.StatusOK, map[string]any{"redirect_url": "https://auth"})
	srv.JSON(http.MethodPost, "/delete_connection", http.StatusOK, map[string]any{"success": true})

	ctx := context.Background()
	_, err := client.Connections.Initiate(ctx, "github", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"toolkit": "github"}, lastRequest(t, srv).JSON())

	_, err = client.Connections.Initiate(ctx, "notion", map[string]any{"token": "t"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"token": "t"}, lastRequest(t, srv).JSON()["credentials"])

	got, err := client.Connections.Delete(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "conn-1", lastRequest(t, srv).JSON()["id"])
}

func TestConnections_DeleteTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, DeleteConnectionTimeout)

	client, _, _ := newTestClient(t)
	_, err := client.Connections.Delete(context.Background(), "")
	require.Error(t, err)
	assert.True(t, waveflow.IsValidation(err))
}
