package studio

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

func TestModels_ByProvider(t *testing.T) {
	client, _, srv := newTestClient(t)
	srv.JSON(http.MethodGet, "/get-groq-models", http.StatusOK, []any{"llama3"})

	got, err := client.Models.ByProvider(context.Background(), "Groq")
	require.NoError(t, err)
	assert.Equal(t, "groq", got["provider"])
	assert.Equal(t, []any{"llama3"}, got["models"])
}

func TestModels_ByProviderUnknown(t *testing.T) {
	client, _, srv := newTestClient(t)

	_, err := client.Models.ByProvider(context.Background(), "mistral")
	require.Error(t, err)
	assert.True(t, waveflow.IsValidation(err))
	assert.Empty(t, srv.Requests())
}

func TestModels_SetAndUpdate(t *testing.T) {
	client, _, srv := newTestClient(t)
	srv.JSON(http.MethodPost, "/set_model", http.StatusOK, map[string]any{"message": "success"})
	srv.JSON(http.MethodPost, "/update_model", http.StatusOK, map[string]any{"message": "updated"})

	spec := ModelSpec{Client: "Together", APIKey: "k", ModelName: "mixtral", BaseURL: "https://api.together.xyz/v1"}

	_, err := client.Models.Set(context.Background(), spec)
	require.NoError(t, err)
	body := lastRequest(t, srv).JSON()
	assert.Equal(t, "Together", body["client"])
	assert.Equal(t, "mixtral", body["model_name"])
	assert.Equal(t, "", body["description"])

	_, err = client.Models.Update(context.Background(), "m-1", spec)
	require.NoError(t, err)
	body = lastRequest(t, srv).JSON()
	assert.Equal(t, "m-1", body["id"])
	assert.Equal(t, "together", body["client"])
}

func TestModels_SetRequiresName(t *testing.T) {
	client, _, srv := newTestClient(t)

	_, err := client.Models.Set(context.Background(), ModelSpec{Client: "openai"})
	require.Error(t, err)
	assert.True(t, waveflow.IsValidation(err))
	assert.Empty(t, srv.Requests())
}

func TestModels_Delete(t *testing.T) {
	client, _, srv := newTestClient(t)
	srv.JSON(http.MethodDelete, "/delete_model/{id}", http.StatusOK, map[string]any{"message": "deleted"})

	got, err := client.Models.Delete(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, "deleted", got["message"])
	assert.Equal(t, "/delete_model/m-1", lastRequest(t, srv).Path)
}

func TestModels_SetFromFile(t *testing.T) {
	client, _, srv := newTestClient(t)
	srv.JSON(http.MethodPost, "/set_model_from_file", http.StatusOK, map[string]any{"message": "success"})
	path := writeFile(t, "model.json", `{"client":"groq"}`)

	_, err := client.Models.SetFromFile(context.Background(), path)
	require.NoError(t, err)

	f, ok := lastRequest(t, srv).File("file")
	require.True(t, ok)
	assert.Equal(t, "model.json", f.Filename)
	assert.Equal(t, "application/json", f.ContentType)
	assert.JSONEq(t, `{"client":"groq"}`, string(f.Content))
}
