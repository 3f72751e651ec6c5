package studio

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

// providerPaths maps a provider name to its model catalogue endpoint.
var providerPaths = map[string]string{
	"groq":     "/get-groq-models",
	"gemini":   "/get-gemini-models",
	"openai":   "/get-openai-models",
	"together": "/get-together-models",
}

// ModelSpec describes a model saved against the account.
type ModelSpec struct {
	Client      string `json:"client,omitempty"`
	APIKey      string `json:"api_key"`
	ModelName   string `json:"model_name"`
	BaseURL     string `json:"base_url"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description"`
}

// Models manages saved models and the provider catalogues.
type Models struct {
	gw Gateway
}

// List returns the models saved for the account.
func (m *Models) List(ctx context.Context) (any, error) {
	return payload(ctx, m.gw, get("models.list", "/get_models"))
}

// ByProvider returns the catalogue of one provider as {"provider": p, "models": ...}.
func (m *Models) ByProvider(ctx context.Context, provider string) (waveflow.Object, error) {
	provider = strings.ToLower(provider)
	path, ok := providerPaths[provider]
	if !ok {
		return nil, waveflow.Invalid("invalid provider %q: valid providers are groq, gemini, openai, together", provider)
	}
	models, err := payload(ctx, m.gw, get("models.by_provider", path))
	if err != nil {
		return nil, err
	}
	return waveflow.Object{"provider": provider, "models": models}, nil
}

// Set saves a new model.
func (m *Models) Set(ctx context.Context, spec ModelSpec) (waveflow.Object, error) {
	if err := requireModel(spec); err != nil {
		return nil, err
	}
	return object(ctx, m.gw, post("models.set", "/set_model", spec))
}

// Update replaces the saved model id with spec.
func (m *Models) Update(ctx context.Context, id string, spec ModelSpec) (waveflow.Object, error) {
	if err := waveflow.Require("model id", id); err != nil {
		return nil, err
	}
	body := map[string]any{
		"id":          id,
		"client":      strings.ToLower(spec.Client),
		"api_key":     spec.APIKey,
		"model_name":  spec.ModelName,
		"base_url":    spec.BaseURL,
		"description": spec.Description,
	}
	return object(ctx, m.gw, post("models.update", "/update_model", body))
}

// Delete removes a saved model.
func (m *Models) Delete(ctx context.Context, id string) (waveflow.Object, error) {
	if err := waveflow.Require("model id", id); err != nil {
		return nil, err
	}
	return object(ctx, m.gw, &waveflow.Call{
		Operation: "models.delete",
		Method:    http.MethodDelete,
		Path:      "/delete_model/" + url.PathEscape(id),
	})
}

// HealthCheck asks the service to try spec without saving it.
func (m *Models) HealthCheck(ctx context.Context, spec ModelSpec) (waveflow.Object, error) {
	body := map[string]any{
		"model_name":  spec.ModelName,
		"api_key":     spec.APIKey,
		"base_url":    spec.BaseURL,
		"description": spec.Description,
	}
	return object(ctx, m.gw, post("models.health_check", "/model_health_check", body))
}

// SetFromFile uploads a JSON file holding a model definition.
func (m *Models) SetFromFile(ctx context.Context, path string) (waveflow.Object, error) {
	return object(ctx, m.gw, &waveflow.Call{
		Operation: "models.set_from_file",
		Method:    http.MethodPost,
		Path:      "/set_model_from_file",
		Files:     []waveflow.File{{Field: "file", Path: path, ContentType: "application/json"}},
	})
}

func requireModel(spec ModelSpec) error {
	if err := waveflow.Require("client", spec.Client); err != nil {
		return err
	}
	return waveflow.Require("model name", spec.ModelName)
}
