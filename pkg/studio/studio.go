package studio

import (
	"context"
	"net/http"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

// Gateway is the subset of *waveflow.Gateway the services depend on.
type Gateway interface {
	Do(ctx context.Context, call *waveflow.Call) (*waveflow.Response, error)
	Session() string
	EnsureSession() string
	ReleaseSession(id string) bool
}

// Client bundles every service around one gateway.
type Client struct {
	Gateway Gateway

	Users       *Users
	Models      *Models
	Tools       *Tools
	Apps        *Apps
	Connections *Connections
	Workflows   *Workflows
	Canvas      *Canvas
	Prompts     *Prompts
	Evaluation  *Evaluation
	Library     *Library
}

// New wires all services to gw.
func New(gw Gateway) *Client {
	models := &Models{gw: gw}
	return &Client{
		Gateway:     gw,
		Users:       &Users{gw: gw},
		Models:      models,
		Tools:       &Tools{gw: gw},
		Apps:        &Apps{gw: gw},
		Connections: &Connections{gw: gw},
		Workflows:   &Workflows{gw: gw},
		Canvas:      &Canvas{gw: gw, models: models},
		Prompts:     &Prompts{gw: gw},
		Evaluation:  &Evaluation{gw: gw},
		Library:     &Library{gw: gw},
	}
}

// Connect resolves credential into a gateway and returns a ready Client.
func Connect(ctx context.Context, credential string, opts ...waveflow.Option) (*Client, error) {
	gw, err := waveflow.New(ctx, credential, opts...)
	if err != nil {
		return nil, err
	}
	return New(gw), nil
}

func get(op, path string) *waveflow.Call {
	return &waveflow.Call{Operation: op, Method: http.MethodGet, Path: path}
}

func post(op, path string, body any) *waveflow.Call {
	return &waveflow.Call{Operation: op, Method: http.MethodPost, Path: path, JSON: body}
}

// payload runs call and returns the decoded body as sent by the service.
func payload(ctx context.Context, gw Gateway, call *waveflow.Call) (any, error) {
	resp, err := gw.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// object runs call and requires a JSON object in return.
func object(ctx context.Context, gw Gateway, call *waveflow.Call) (waveflow.Object, error) {
	resp, err := gw.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	obj := resp.Object()
	if obj == nil {
		return nil, &waveflow.Error{
			Kind:       waveflow.KindDecode,
			Op:         call.Operation,
			Message:    "expected a JSON object",
			StatusCode: resp.StatusCode,
		}
	}
	return obj, nil
}
