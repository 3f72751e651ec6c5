package studio

import (
	"context"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

// Prompt test defaults.
const (
	DefaultSystemMessage = "You are a Helpful AI Assistant"
	DefaultTemperature   = 0.7
	DefaultTopP          = 50
	DefaultMaxTokens     = 1024
)

// PromptTest runs prompts against a model. Zero values take the defaults above.
type PromptTest struct {
	Prompts       []string
	SessionID     string
	Model         map[string]any
	SelectedModel string
	SystemMessage []string
	Temperature   float64
	TopP          int
	MaxTokens     int
	JSON          bool
}

// Evaluation runs prompt tests.
type Evaluation struct {
	gw Gateway
}

// PromptData returns every prompt stored for evaluation.
func (e *Evaluation) PromptData(ctx context.Context) (any, error) {
	return payload(ctx, e.gw, get("evaluation.prompt_data", "/show_all_prompt_data"))
}

// RunPromptTest evaluates t.Prompts.
func (e *Evaluation) RunPromptTest(ctx context.Context, t PromptTest) (waveflow.Object, error) {
	if len(t.Prompts) == 0 {
		return nil, waveflow.Invalid("at least one prompt is required")
	}
	if err := waveflow.Require("selected model", t.SelectedModel); err != nil {
		return nil, err
	}
	system := t.SystemMessage
	if len(system) == 0 {
		system = []string{DefaultSystemMessage}
	}
	temperature := t.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	topP := t.TopP
	if topP == 0 {
		topP = DefaultTopP
	}
	tokens := t.MaxTokens
	if tokens == 0 {
		tokens = DefaultMaxTokens
	}
	return object(ctx, e.gw, post("evaluation.prompt_test", "/prompt_testing_copy", map[string]any{
		"prompt":         t.Prompts,
		"session_id":     t.SessionID,
		"model":          t.Model,
		"selected_model": t.SelectedModel,
		"system_message": system,
		"temperature":    temperature,
		"top_p":          topP,
		"tokens":         tokens,
		"json":           t.JSON,
	}))
}

// Library returns bundled definitions by file name.
type Library struct {
	gw Gateway
}

// ReturnModels returns the model definitions stored in fileName.
func (l *Library) ReturnModels(ctx context.Context, fileName string) (any, error) {
	return l.fetch(ctx, "library.return_models", "/return_models", fileName)
}

// ReturnAgents returns the agent definitions stored in fileName.
func (l *Library) ReturnAgents(ctx context.Context, fileName string) (any, error) {
	return l.fetch(ctx, "library.return_agents", "/return_agents", fileName)
}

// ReturnWorkflows returns the workflow definitions stored in fileName.
func (l *Library) ReturnWorkflows(ctx context.Context, fileName string) (any, error) {
	return l.fetch(ctx, "library.return_workflows", "/return_workflows", fileName)
}

func (l *Library) fetch(ctx context.Context, op, path, fileName string) (any, error) {
	if err := waveflow.Require("file name", fileName); err != nil {
		return nil, err
	}
	return payload(ctx, l.gw, post(op, path, map[string]string{"file_name": fileName}))
}
