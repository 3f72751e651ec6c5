package studio

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

// DeleteConnectionTimeout bounds Connections.Delete.
const DeleteConnectionTimeout = 30 * time.Second

// Apps lists and executes the pre-defined third-party integrations.
type Apps struct {
	gw Gateway
}

// List returns the app catalogue. The endpoint is public.
func (a *Apps) List(ctx context.Context) (any, error) {
	call := get("apps.list", "/apps")
	call.Auth = waveflow.NoAuth()
	return payload(ctx, a.gw, call)
}

// Filter returns the apps filtered for the account.
func (a *Apps) Filter(ctx context.Context) (any, error) {
	return payload(ctx, a.gw, get("apps.filter", "/filter_apps"))
}

// Info describes one app.
func (a *Apps) Info(ctx context.Context, name string) (any, error) {
	if err := waveflow.Require("app name", name); err != nil {
		return nil, err
	}
	call := get("apps.info", "/app_info")
	call.Query = url.Values{"app_name": {name}}
	return payload(ctx, a.gw, call)
}

// Enums returns the actions an app exposes, e.g. for "slack" or "github".
func (a *Apps) Enums(ctx context.Context, app string) (any, error) {
	if err := waveflow.Require("app", app); err != nil {
		return nil, err
	}
	return payload(ctx, a.gw, post("apps.enums", "/get-enums-by-app", map[string]string{"enum": app}))
}

// Fields returns the input fields of one action. The "fields" member is
// returned when present, otherwise the whole body.
func (a *Apps) Fields(ctx context.Context, slug string) (any, error) {
	if err := waveflow.Require("slug", slug); err != nil {
		return nil, err
	}
	call := post("apps.fields", "/fields", map[string]any{})
	call.Query = url.Values{"slug_name": {slug}}

	resp, err := a.gw.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	if obj := resp.Object(); obj != nil {
		if fields, ok := obj["fields"]; ok {
			return fields, nil
		}
	}
	return resp.Payload, nil
}

// Execute runs one action and returns its result. A body without
// "success": true is reported as an application failure.
func (a *Apps) Execute(ctx context.Context, slug string, arguments map[string]any) (any, error) {
	if err := waveflow.Require("slug", slug); err != nil {
		return nil, err
	}
	if arguments == nil {
		arguments = map[string]any{}
	}
	call := post("apps.execute", "/execute", map[string]any{"slug": slug, "arguments": arguments})

	obj, err := object(ctx, a.gw, call)
	if err != nil {
		return nil, err
	}
	if ok, _ := obj["success"].(bool); ok {
		return obj["result"], nil
	}

	msg := "execution failed"
	if _, present := obj["error"]; present {
		msg = waveflow.ErrorMessage(waveflow.Object{"error": obj["error"]})
	}
	return nil, &waveflow.Error{Kind: waveflow.KindApplication, Op: call.Operation, Message: msg, StatusCode: http.StatusOK}
}

// Connections manages the account's authorized app connections.
type Connections struct {
	gw Gateway
}

// List returns the account's connections.
func (c *Connections) List(ctx context.Context) (any, error) {
	return payload(ctx, c.gw, get("connections.list", "/connections"))
}

// Initiate starts a connection to toolkit. Without credentials the service
// may answer with the fields it needs.
func (c *Connections) Initiate(ctx context.Context, toolkit string, credentials map[string]any) (waveflow.Object, error) {
	if err := waveflow.Require("toolkit", toolkit); err != nil {
		return nil, err
	}
	body := map[string]any{"toolkit": toolkit}
	if len(credentials) > 0 {
		body["credentials"] = credentials
	}
	return object(ctx, c.gw, post("connections.initiate", "/initiate-connection", body))
}

// Delete removes a connection.
func (c *Connections) Delete(ctx context.Context, id string) (waveflow.Object, error) {
	if err := waveflow.Require("connection id", id); err != nil {
		return nil, err
	}
	call := post("connections.delete", "/delete_connection", map[string]string{"id": id})
	call.Timeout = DeleteConnectionTimeout
	return object(ctx, c.gw, call)
}
