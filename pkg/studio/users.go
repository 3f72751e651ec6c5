package studio

import (
	"context"
	"net/http"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

// Users covers the profile and account endpoints.
type Users struct {
	gw Gateway
}

// Validate returns the raw credential check, e.g. {"status_code":200,"content":{"valid":true}}.
func (u *Users) Validate(ctx context.Context) (waveflow.Object, error) {
	return object(ctx, u.gw, get("users.validate", "/user"))
}

// Summary returns the account summary.
func (u *Users) Summary(ctx context.Context) (waveflow.Object, error) {
	return object(ctx, u.gw, get("users.summary", "/get-user-summary"))
}

// Details returns the profile for username, sent as the Username header.
func (u *Users) Details(ctx context.Context, username string) (waveflow.Object, error) {
	if username == "" {
		username = "Unknown"
	}
	call := get("users.details", "/profile/user-details")
	call.Header = http.Header{waveflow.UsernameHeader: {username}}
	return object(ctx, u.gw, call)
}

// Metadata returns the stored user metadata.
func (u *Users) Metadata(ctx context.Context) (waveflow.Object, error) {
	return object(ctx, u.gw, get("users.metadata", "/profile/user-metadata"))
}

// TokenData returns token usage for the account.
func (u *Users) TokenData(ctx context.Context) (waveflow.Object, error) {
	return object(ctx, u.gw, get("users.token_data", "/token_data"))
}

// UpdateRuns records a run, e.g. {"workflow_id":"wf_123","status":"success"}.
func (u *Users) UpdateRuns(ctx context.Context, run map[string]any) (waveflow.Object, error) {
	if run == nil {
		return nil, waveflow.Invalid("run data is required")
	}
	return object(ctx, u.gw, post("users.update_runs", "/update-user-runs", run))
}

// SessionData returns the sessions recorded for the account.
func (u *Users) SessionData(ctx context.Context) (any, error) {
	return payload(ctx, u.gw, get("users.session_data", "/session_data"))
}
