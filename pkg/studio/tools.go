package studio

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

// DefaultDownloadName is used when a download carries no Content-Disposition filename.
const DefaultDownloadName = "downloaded_file.py"

// Secret is a key/value pair stored alongside a user-defined tool.
type Secret struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// AddToolRequest uploads a Python source file as a user-defined tool.
// Token, when set, authenticates the upload instead of the gateway credential.
type AddToolRequest struct {
	Name        string
	Description string
	FilePath    string
	Secrets     []Secret
	Token       string
}

// Download is the result of Tools.Download. Payload is set instead of
// Content when the service answered with JSON.
type Download struct {
	Filename    string
	ContentType string
	Content     []byte
	Payload     any
}

// Tools manages user-defined tools.
type Tools struct {
	gw Gateway
}

// List returns the tools available to the account.
func (t *Tools) List(ctx context.Context) (any, error) {
	return payload(ctx, t.gw, get("tools.list", "/get_tools"))
}

// Add uploads a tool.
func (t *Tools) Add(ctx context.Context, req AddToolRequest) (waveflow.Object, error) {
	if err := waveflow.Require("tool name", req.Name); err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("name", req.Name)
	form.Set("description", req.Description)
	for i, s := range req.Secrets {
		form.Set(fmt.Sprintf("secrets[%d][key]", i), s.Key)
		form.Set(fmt.Sprintf("secrets[%d][value]", i), s.Value)
	}

	call := &waveflow.Call{
		Operation: "tools.add",
		Method:    http.MethodPost,
		Path:      "/add-tools",
		Form:      form,
		Files:     []waveflow.File{{Field: "file", Path: req.FilePath}},
	}
	if req.Token != "" {
		call.Auth = waveflow.BearerToken(req.Token)
	}
	return object(ctx, t.gw, call)
}

// Delete removes a tool.
func (t *Tools) Delete(ctx context.Context, id string) (waveflow.Object, error) {
	if err := waveflow.Require("tool id", id); err != nil {
		return nil, err
	}
	return object(ctx, t.gw, &waveflow.Call{
		Operation: "tools.delete",
		Method:    http.MethodDelete,
		Path:      "/delete-tool/" + url.PathEscape(id),
	})
}

// View returns the stored details of a tool's file.
func (t *Tools) View(ctx context.Context, id string) (any, error) {
	if err := waveflow.Require("tool id", id); err != nil {
		return nil, err
	}
	call := get("tools.view", "/view_file")
	call.Query = url.Values{"tool_id": {id}}
	return payload(ctx, t.gw, call)
}

// Download fetches a tool's source file.
func (t *Tools) Download(ctx context.Context, id string) (*Download, error) {
	if err := waveflow.Require("tool id", id); err != nil {
		return nil, err
	}
	call := get("tools.download", "/download_file")
	call.Query = url.Values{"tool_id": {id}}
	call.Raw = true
	call.Header = http.Header{"Accept": {"*/*"}}

	resp, err := t.gw.Do(ctx, call)
	if err != nil {
		return nil, err
	}

	d := &Download{
		Filename:    dispositionFilename(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
	}
	if strings.Contains(d.ContentType, "application/json") {
		if err := resp.Decode(&d.Payload); err != nil {
			return nil, &waveflow.Error{Kind: waveflow.KindDecode, Op: call.Operation, Message: "invalid JSON download", StatusCode: resp.StatusCode, Err: err}
		}
		return d, nil
	}
	d.Content = resp.Body
	return d, nil
}

// DownloadTo fetches a tool's source file and writes it to path. When path is
// a directory the server-provided filename is used inside it.
func (t *Tools) DownloadTo(ctx context.Context, id, path string) (*Download, error) {
	d, err := t.Download(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Content == nil {
		return d, nil
	}
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		path = filepath.Join(path, d.Filename)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create download directory: %w", err)
		}
	}
	if err := os.WriteFile(path, d.Content, 0o644); err != nil {
		return nil, fmt.Errorf("write download: %w", err)
	}
	d.Filename = filepath.Base(path)
	return d, nil
}

func dispositionFilename(header string) string {
	if header == "" {
		return DefaultDownloadName
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil || params["filename"] == "" {
		return DefaultDownloadName
	}
	return filepath.Base(params["filename"])
}
