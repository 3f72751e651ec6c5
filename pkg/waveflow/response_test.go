package waveflow

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		raw        bool
		wantKind   Kind
		wantMsg    string
		wantBody   bool
		wantResult any
	}{
		{name: "success object", status: 200, body: `{"models":["gpt-4"]}`, wantResult: map[string]any{"models": []any{"gpt-4"}}},
		{name: "success array", status: 200, body: `[1,2]`, wantResult: []any{json.Number("1"), json.Number("2")}},
		{name: "integer wider than 53 bits", status: 200, body: `{"id":9007199254740993}`, wantResult: map[string]any{"id": json.Number("9007199254740993")}},
		{name: "fraction and exponent", status: 200, body: `{"p":0.1,"e":1e-7}`, wantResult: map[string]any{"p": json.Number("0.1"), "e": json.Number("1e-7")}},
		{name: "trailing data", status: 200, body: `{"a":1} {"b":2}`, wantKind: KindDecode, wantMsg: "unknown server error"},
		{name: "trailing data on failure", status: 500, body: `{"a":1}x`, wantKind: KindTransport, wantMsg: "unexpected status 500 Internal Server Error", wantBody: true},
		{name: "created", status: 201, body: `{"id":"x"}`, wantResult: map[string]any{"id": "x"}},
		{name: "no content", status: 204, body: ``, wantResult: nil},
		{name: "detail wins", status: 422, body: `{"detail":"X","error":"Y","message":"Z"}`, wantKind: KindAPI, wantMsg: "X", wantBody: true},
		{name: "error second", status: 400, body: `{"error":"Y","message":"Z"}`, wantKind: KindAPI, wantMsg: "Y", wantBody: true},
		{name: "message third", status: 500, body: `{"message":"Z"}`, wantKind: KindAPI, wantMsg: "Z", wantBody: true},
		{name: "fallback", status: 403, body: `{"status":"nope"}`, wantKind: KindAPI, wantMsg: "Unknown API error", wantBody: true},
		{name: "empty detail still wins", status: 400, body: `{"detail":"","error":"Y"}`, wantKind: KindAPI, wantMsg: "", wantBody: true},
		{name: "null detail skipped", status: 400, body: `{"detail":null,"error":"Y"}`, wantKind: KindAPI, wantMsg: "Y", wantBody: true},
		{name: "structured detail", status: 422, body: `{"detail":[{"loc":["body","prompt"],"msg":"field required"}]}`, wantKind: KindAPI, wantMsg: `[{"loc":["body","prompt"],"msg":"field required"}]`, wantBody: true},
		{name: "array error body", status: 500, body: `["boom"]`, wantKind: KindAPI, wantMsg: "Unknown API error", wantBody: true},
		{name: "non json failure", status: 502, body: `Bad Gateway`, wantKind: KindTransport, wantMsg: "unexpected status 502 Bad Gateway", wantBody: true},
		{name: "non json success", status: 200, body: `<html>`, wantKind: KindDecode, wantMsg: "unknown server error"},
		{name: "empty success", status: 200, body: ``, wantKind: KindDecode, wantMsg: "unknown server error"},
		{name: "raw success", status: 200, body: `print("hi")`, raw: true, wantResult: nil},
		{name: "raw failure still normalized", status: 404, body: `{"detail":"missing"}`, raw: true, wantKind: KindAPI, wantMsg: "missing", wantBody: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := normalize("op", tt.status, http.Header{}, []byte(tt.body), tt.raw)

			if tt.wantKind == KindUnknown {
				require.NoError(t, err)
				require.NotNil(t, resp)
				assert.Equal(t, tt.status, resp.StatusCode)
				assert.Equal(t, tt.wantResult, resp.Payload)
				assert.Equal(t, tt.body, string(resp.Body))
				return
			}

			require.Error(t, err)
			assert.Nil(t, resp)

			e, ok := err.(*Error)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, e.Kind)
			assert.Equal(t, tt.wantMsg, e.Message)
			assert.Equal(t, tt.status, e.StatusCode)
			if tt.wantBody {
				assert.Equal(t, tt.body, string(e.Body))
			} else {
				assert.Nil(t, e.Body)
			}
		})
	}
}

func TestNormalizeRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z_]{1,12}`), 0, 8, rapid.ID[string]).Draw(t, "keys")
		original := make(map[string]any, len(keys))
		for _, k := range keys {
			switch rapid.IntRange(0, 5).Draw(t, "type_"+k) {
			case 0:
				original[k] = rapid.String().Draw(t, "str_"+k)
			case 1:
				original[k] = json.Number(strconv.FormatInt(rapid.Int64().Draw(t, "int_"+k), 10))
			case 2:
				original[k] = json.Number(strconv.FormatUint(rapid.Uint64().Draw(t, "uint_"+k), 10))
			case 3:
				f := rapid.Float64().Filter(func(f float64) bool {
					return !math.IsInf(f, 0) && !math.IsNaN(f)
				}).Draw(t, "float_"+k)
				original[k] = json.Number(strconv.FormatFloat(f, 'g', -1, 64))
			case 4:
				original[k] = rapid.Bool().Draw(t, "bool_"+k)
			default:
				original[k] = nil
			}
		}
		body, err := json.Marshal(original)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		status := rapid.IntRange(200, 299).Draw(t, "status")
		if status == http.StatusNoContent {
			status = http.StatusOK
		}

		resp, err := normalize("op", status, nil, body, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !assert.ObjectsAreEqual(original, resp.Payload) {
			t.Fatalf("payload mismatch: %v != %v", original, resp.Payload)
		}
		again, err := json.Marshal(resp.Payload)
		if err != nil {
			t.Fatalf("re-marshal: %v", err)
		}
		if string(again) != string(body) {
			t.Fatalf("body changed: %s != %s", again, body)
		}
	})
}

func TestErrorMessagePrecedenceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		obj := map[string]any{}
		var want string
		found := false
		for _, key := range []string{"detail", "error", "message"} {
			if rapid.Bool().Draw(t, "has_"+key) {
				v := rapid.String().Draw(t, key)
				obj[key] = v
				if !found {
					want = v
					found = true
				}
			}
		}
		if !found {
			want = "Unknown API error"
		}
		obj["other"] = rapid.String().Draw(t, "other")

		if got := ErrorMessage(obj); got != want {
			t.Fatalf("ErrorMessage(%v) = %q, want %q", obj, got, want)
		}
	})
}

func TestCheckEmbeddedStatus(t *testing.T) {
	ok := &Response{StatusCode: 200, Payload: map[string]any{"status_code": json.Number("200"), "workflow_id": "wf"}}
	assert.NoError(t, CheckEmbeddedStatus(ok))

	failed := &Response{StatusCode: 200, Payload: map[string]any{"status_code": json.Number("400"), "message": "bad agents"}}
	err := CheckEmbeddedStatus(failed)
	require.Error(t, err)
	assert.True(t, IsApplication(err))
	assert.Equal(t, 400, StatusCodeOf(err))
	assert.Contains(t, err.Error(), "bad agents")

	missing := &Response{StatusCode: 200, Payload: map[string]any{"workflow_id": "wf"}}
	err = CheckEmbeddedStatus(missing)
	require.Error(t, err)
	assert.True(t, IsApplication(err))
	assert.Contains(t, err.Error(), "Unknown error")

	notObject := &Response{StatusCode: 200, Payload: []any{}}
	assert.True(t, IsApplication(CheckEmbeddedStatus(notObject)))
}

func TestResponseDecode(t *testing.T) {
	resp := &Response{StatusCode: 200, Body: []byte(`{"models":["a","b"]}`)}

	var out struct {
		Models []string `json:"models"`
	}
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, []string{"a", "b"}, out.Models)

	bad := &Response{StatusCode: 200, Body: []byte(`nope`)}
	assert.True(t, IsDecode(bad.Decode(&out)))

	var generic any
	wide := &Response{StatusCode: 200, Body: []byte(`{"tokens":18446744073709551615}`)}
	require.NoError(t, wide.Decode(&generic))
	assert.Equal(t, map[string]any{"tokens": json.Number("18446744073709551615")}, generic)
}

func TestDecodeJSON(t *testing.T) {
	var v any
	require.NoError(t, DecodeJSON([]byte(" [9007199254740993] \n"), &v))
	assert.Equal(t, []any{json.Number("9007199254740993")}, v)

	assert.Error(t, DecodeJSON([]byte(`{} {}`), &v))
	assert.Error(t, DecodeJSON([]byte(`{}]`), &v))
	assert.Error(t, DecodeJSON(nil, &v))
}

func TestErrorFormattingAndMatching(t *testing.T) {
	err := error(&Error{Kind: KindAPI, Op: "models.delete", Message: "not found", StatusCode: 404})
	assert.Equal(t, "models.delete: api error (HTTP 404): not found", err.Error())
	assert.True(t, IsAPI(err))
	assert.False(t, IsTransport(err))

	v := Require("tool_id", "")
	assert.True(t, IsValidation(v))
	assert.Equal(t, "validation failure: tool_id is required", v.Error())
	assert.NoError(t, Require("tool_id", "t-1"))

	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, "unknown", KindUnknown.String())
}
