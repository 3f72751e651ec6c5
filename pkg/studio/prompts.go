package studio

import (
	"context"
	"net/http"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

// Prompts enhances, generates and stores prompts. Calls without an explicit
// session use the gateway's current session, creating one when none is held.
type Prompts struct {
	gw Gateway
}

func (p *Prompts) session(id string) string {
	if id != "" {
		return id
	}
	return p.gw.EnsureSession()
}

func withSession(call *waveflow.Call, id string) *waveflow.Call {
	call.Header = http.Header{waveflow.SessionHeader: {id}}
	return call
}

// Enhance rewrites prompt. The session used is echoed back as "session_id".
func (p *Prompts) Enhance(ctx context.Context, prompt, sessionID string) (waveflow.Object, error) {
	if err := waveflow.Require("prompt", prompt); err != nil {
		return nil, err
	}
	sid := p.session(sessionID)
	obj, err := object(ctx, p.gw, withSession(post("prompts.enhance", "/enhance_prompt", map[string]string{"prompt": prompt}), sid))
	if err != nil {
		return nil, err
	}
	obj["session_id"] = sid
	return obj, nil
}

// SurpriseMe returns a generated prompt.
func (p *Prompts) SurpriseMe(ctx context.Context, sessionID string) (waveflow.Object, error) {
	call := get("prompts.surprise_me", "/surprise_me")
	if sessionID != "" {
		withSession(call, sessionID)
	} else {
		call.Session = true
	}
	return object(ctx, p.gw, call)
}

// EditWithAI improves prompt. The session header is sent only when given.
func (p *Prompts) EditWithAI(ctx context.Context, prompt, sessionID string) (waveflow.Object, error) {
	if err := waveflow.Require("prompt", prompt); err != nil {
		return nil, err
	}
	call := post("prompts.edit_with_ai", "/edit-with-ai", map[string]string{"prompt": prompt})
	if sessionID != "" {
		withSession(call, sessionID)
	}
	return object(ctx, p.gw, call)
}

// Framework returns the raw prompt template generated for a session.
func (p *Prompts) Framework(ctx context.Context, sessionID string) (string, error) {
	if err := waveflow.Require("session id", sessionID); err != nil {
		return "", err
	}
	call := withSession(get("prompts.framework", "/prompt_framework"), sessionID)
	call.Raw = true
	resp, err := p.gw.Do(ctx, call)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// Save stores the prompt of a session under name.
func (p *Prompts) Save(ctx context.Context, name, sessionID, desc string) (waveflow.Object, error) {
	if err := waveflow.Require("name", name); err != nil {
		return nil, err
	}
	if err := waveflow.Require("session id", sessionID); err != nil {
		return nil, err
	}
	return object(ctx, p.gw, post("prompts.save", "/save_prompt", map[string]string{
		"name":       name,
		"desc":       desc,
		"session_id": sessionID,
	}))
}

// Fetch returns the prompts saved for a session.
func (p *Prompts) Fetch(ctx context.Context, sessionID string) (waveflow.Object, error) {
	if err := waveflow.Require("session id", sessionID); err != nil {
		return nil, err
	}
	return object(ctx, p.gw, post("prompts.fetch", "/fetch_prompt_data", map[string]string{"session_id": sessionID}))
}

// All returns every saved prompt.
func (p *Prompts) All(ctx context.Context) (any, error) {
	return payload(ctx, p.gw, get("prompts.all", "/show_all_prompt_data"))
}
