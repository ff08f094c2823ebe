package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"cv-ingest/internal/llm"
	"cv-ingest/internal/shared/telemetry"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

type recordedRequest struct {
	mu   sync.Mutex
	path string
	auth string
	body map[string]any
}

func newServer(t *testing.T, status int, response string, rec *recordedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if rec != nil {
			rec.mu.Lock()
			rec.path = r.URL.Path
			rec.auth = r.Header.Get("Authorization")
			rec.body = payload
			rec.mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server
}

func quietLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })
	return &buf
}

func TestExtractProfileReturnsContent(t *testing.T) {
	logs := quietLogs(t)
	rec := &recordedRequest{}
	server := newServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"{\"summary\":\"ok\"}"}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`, rec)

	client, err := NewClient(Options{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: server.URL + "/v1/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	raw, err := client.ExtractProfile(context.Background(), llm.ExtractInput{Text: "Jane Doe"})
	if err != nil {
		t.Fatalf("ExtractProfile: %v", err)
	}
	if string(raw) != `{"summary":"ok"}` {
		t.Fatalf("unexpected content %s", raw)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.path != "/v1/chat/completions" {
		t.Fatalf("unexpected path %q", rec.path)
	}
	if rec.auth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", rec.auth)
	}
	if rec.body["temperature"] != float64(0) {
		t.Fatalf("expected temperature 0, got %v", rec.body["temperature"])
	}
	format, _ := rec.body["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", rec.body["response_format"])
	}
	if !strings.Contains(logs.String(), `"total_tokens":15`) {
		t.Fatalf("expected usage log, got %s", logs.String())
	}
}

func TestExtractProfileOmitsTemperatureForGPT5(t *testing.T) {
	quietLogs(t)
	rec := &recordedRequest{}
	server := newServer(t, http.StatusOK, `{"choices":[{"message":{"content":"{}"}}]}`, rec)

	client, err := NewClient(Options{APIKey: "k", Model: "gpt-4o-mini", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.ExtractProfile(context.Background(), llm.ExtractInput{Text: "cv", Model: "gpt-5-mini"}); err != nil {
		t.Fatalf("ExtractProfile: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if _, ok := rec.body["temperature"]; ok {
		t.Fatalf("expected temperature to be omitted for gpt-5 models")
	}
	if rec.body["model"] != "gpt-5-mini" {
		t.Fatalf("expected per-call model override, got %v", rec.body["model"])
	}
}

func TestExtractProfileClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`, want: llm.ErrAuth},
		{name: "forbidden", status: http.StatusForbidden, body: `{}`, want: llm.ErrAuth},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":{"message":"slow down","type":"requests"}}`, want: llm.ErrOverloaded},
		{name: "unavailable", status: http.StatusServiceUnavailable, body: `not json`, want: llm.ErrOverloaded},
		{name: "overloaded status", status: 529, body: `{}`, want: llm.ErrOverloaded},
		{name: "overloaded body", status: http.StatusInternalServerError, body: `{"error":{"message":"Overloaded","type":"overloaded_error"}}`, want: llm.ErrOverloaded},
		{name: "auth error body", status: http.StatusOK, body: `{"error":{"message":"bad key","type":"authentication_error"}}`, want: llm.ErrAuth},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			server := newServer(t, tt.status, tt.body, nil)
			client, err := NewClient(Options{APIKey: "k", Model: "gpt-4o-mini", BaseURL: server.URL})
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			_, err = client.ExtractProfile(context.Background(), llm.ExtractInput{Text: "cv"})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestExtractProfileGenericFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":{"message":"boom","type":"server_error"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"  "}}]}`},
		{name: "not json", status: http.StatusOK, body: `<html>`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			server := newServer(t, tt.status, tt.body, nil)
			client, err := NewClient(Options{APIKey: "k", Model: "gpt-4o-mini", BaseURL: server.URL})
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			_, err = client.ExtractProfile(context.Background(), llm.ExtractInput{Text: "cv"})
			if err == nil {
				t.Fatalf("expected error")
			}
			if errors.Is(err, llm.ErrAuth) || errors.Is(err, llm.ErrOverloaded) {
				t.Fatalf("expected generic error, got %v", err)
			}
		})
	}
}

func TestExtractProfileWithoutKey(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client, err := NewClient(Options{Model: "gpt-4o-mini", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.ExtractProfile(context.Background(), llm.ExtractInput{Text: "cv"})
	if !errors.Is(err, llm.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if called {
		t.Fatalf("expected no request without an API key")
	}
}

func TestNewClientRequiresModel(t *testing.T) {
	if _, err := NewClient(Options{APIKey: "k"}); err == nil {
		t.Fatalf("expected error for missing model")
	}
}

func TestPromptHashDeterministic(t *testing.T) {
	hash1 := hashPromptString(promptStringFromMessages(BuildPrompt("cv text", "gpt-4o-mini")))
	hash2 := hashPromptString(promptStringFromMessages(BuildPrompt("cv text", "gpt-4o-mini")))
	if hash1 != hash2 {
		t.Fatalf("expected deterministic prompt hash, got %q and %q", hash1, hash2)
	}
	if hash1 == hashPromptString(promptStringFromMessages(BuildPrompt("other cv", "gpt-4o-mini"))) {
		t.Fatalf("expected prompt hash to change when input changes")
	}
}
