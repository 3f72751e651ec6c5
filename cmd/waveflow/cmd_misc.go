package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

func newPromptsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "prompts", Short: "Work with prompts"}

	var session string
	enhance := &cobra.Command{
		Use:   "enhance <prompt>",
		Short: "Rewrite a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Prompts.Enhance(cmd.Context(), args[0], session))
		},
	}
	enhance.Flags().StringVar(&session, "session", "", "Session id (generated when empty)")
	cmd.AddCommand(enhance)
	return cmd
}

func newFilesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "files", Short: "Upload files"}

	cmd.AddCommand(&cobra.Command{
		Use:   "upload <user-id> <pattern>...",
		Short: "Upload every file matching the patterns (** supported)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandPatterns(args[1:])
			if err != nil {
				return err
			}
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}

			results := make([]map[string]any, 0, len(paths))
			for _, p := range paths {
				res, err := c.Canvas.UploadFile(cmd.Context(), args[0], p)
				if err != nil {
					return fmt.Errorf("upload %s: %w", p, err)
				}
				a.logger.Info("uploaded file", "path", p)
				results = append(results, map[string]any{"file": p, "result": res})
			}
			return a.print(results)
		},
	})
	return cmd
}

// expandPatterns globs each pattern and returns the matching regular files,
// sorted and without duplicates.
func expandPatterns(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			m = filepath.Clean(m)
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no files match %v", patterns)
	}
	sort.Strings(out)
	return out, nil
}

type callFlags struct {
	data        string
	form        []string
	files       []string
	query       []string
	header      []string
	noAuth      bool
	session     bool
	raw         bool
	checkStatus bool
	timeout     time.Duration
}

func newCallCmd(a *app) *cobra.Command {
	var f callFlags
	cmd := &cobra.Command{
		Use:   "call <METHOD> <path>",
		Short: "Send one request to any endpoint",
		Example: `  waveflow call GET /get_models
  waveflow call POST /assign_roles --data '{"prompt":"research team"}'
  waveflow call POST /file_upload --form user_id=u1 --file file=notes.txt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			call, err := f.build(args[0], args[1])
			if err != nil {
				return err
			}
			if _, err := a.studio(cmd.Context()); err != nil {
				return err
			}
			return a.runCall(cmd.Context(), call, f.checkStatus)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.data, "data", "d", "", "JSON request body")
	fl.StringArrayVar(&f.form, "form", nil, "Form field KEY=VALUE (repeatable)")
	fl.StringArrayVar(&f.files, "file", nil, "Multipart file FIELD=PATH (repeatable)")
	fl.StringArrayVarP(&f.query, "query", "q", nil, "Query parameter KEY=VALUE (repeatable)")
	fl.StringArrayVarP(&f.header, "header", "H", nil, "Header KEY=VALUE (repeatable)")
	fl.BoolVar(&f.noAuth, "no-auth", false, "Send no Authorization header")
	fl.BoolVar(&f.session, "session", false, "Attach the current session as Sessionid")
	fl.BoolVar(&f.raw, "raw", false, "Print the response body undecoded")
	fl.BoolVar(&f.checkStatus, "check-status", false, "Fail when the body's status_code is not 200")
	fl.DurationVar(&f.timeout, "call-timeout", 0, "Per-request timeout")
	return cmd
}

func (f *callFlags) build(method, path string) (*waveflow.Call, error) {
	call := &waveflow.Call{
		Operation: "cli.call",
		Method:    method,
		Path:      path,
		Session:   f.session,
		Raw:       f.raw,
		Timeout:   f.timeout,
	}
	if f.noAuth {
		call.Auth = waveflow.NoAuth()
	}
	if f.data != "" {
		var body any
		if err := waveflow.DecodeJSON([]byte(f.data), &body); err != nil {
			return nil, fmt.Errorf("--data must be JSON: %w", err)
		}
		call.JSON = body
	}

	var err error
	if call.Query, err = pairs(f.query); err != nil {
		return nil, fmt.Errorf("--query: %w", err)
	}
	if call.Form, err = pairs(f.form); err != nil {
		return nil, fmt.Errorf("--form: %w", err)
	}
	headers, err := pairs(f.header)
	if err != nil {
		return nil, fmt.Errorf("--header: %w", err)
	}
	if len(headers) > 0 {
		call.Header = http.Header{}
		for k, vs := range headers {
			for _, v := range vs {
				call.Header.Add(k, v)
			}
		}
	}
	for _, spec := range f.files {
		field, path, err := splitPair(spec)
		if err != nil {
			return nil, fmt.Errorf("--file: %w", err)
		}
		call.Files = append(call.Files, waveflow.File{Field: field, Path: path})
	}
	return call, nil
}

func (a *app) runCall(ctx context.Context, call *waveflow.Call, checkStatus bool) error {
	resp, err := a.gw.Do(ctx, call)
	if err != nil {
		return err
	}
	if checkStatus {
		if err := waveflow.CheckEmbeddedStatus(resp); err != nil {
			return err
		}
	}
	if call.Raw {
		_, err := a.stdout.Write(resp.Body)
		return err
	}
	return a.print(resp.Payload)
}

func pairs(list []string) (url.Values, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := url.Values{}
	for _, s := range list {
		k, v, err := splitPair(s)
		if err != nil {
			return nil, err
		}
		out.Add(k, v)
	}
	return out, nil
}
