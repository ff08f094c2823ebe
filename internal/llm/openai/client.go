package openai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cv-ingest/internal/llm"
	"cv-ingest/internal/shared/telemetry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second

	// far above any profile the prompt can produce
	maxResponseBytes = 4 << 20
)

// Options configures a Client. BaseURL may point at any OpenAI-compatible API.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client. A missing API key is reported as
// llm.ErrAuth on each call rather than here.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      strings.TrimSpace(opts.Model),
		endpoint:   base + "/chat/completions",
		httpClient: httpClient,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

// ExtractProfile sends the CV text and returns the raw model output. The output
// is not validated here.
func (c *Client) ExtractProfile(ctx context.Context, input llm.ExtractInput) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", llm.ErrAuth)
	}
	model := strings.TrimSpace(input.Model)
	if model == "" {
		model = c.model
	}

	messages := BuildPrompt(input.Text, model)
	reqMessages := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, chatMessage{Role: m.Role, Content: m.Content})
	}
	reqBody := chatRequest{
		Model:          model,
		Messages:       reqMessages,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	if !isGPT5(model) {
		temp := float32(0)
		reqBody.Temperature = &temp
	}
	started := time.Now()
	status, body, err := c.post(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	parseErr := json.Unmarshal(body, &parsed)
	if err := classifyStatus(status, parsed.Error); err != nil {
		return nil, err
	}
	if parseErr != nil {
		return nil, fmt.Errorf("openai response parse: %w", parseErr)
	}
	if parsed.Error != nil {
		return nil, classifyAPIError(parsed.Error)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("openai response empty content")
	}
	logUsage(model, hashPromptString(promptStringFromMessages(messages)), time.Since(started), parsed)
	return json.RawMessage(content), nil
}

// post sends one chat completion request and returns the status and body.
// Timeouts are wrapped so the retry policy treats them as transient.
func (c *Client) post(ctx context.Context, reqBody chatRequest) (int, []byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return 0, nil, fmt.Errorf("openai request timeout: %w", err)
		}
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("openai read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// classifyStatus maps non-2xx responses onto the llm sentinels.
func classifyStatus(status int, apiErr *apiError) error {
	if status >= 200 && status < 300 {
		return nil
	}
	detail := http.StatusText(status)
	if apiErr != nil && apiErr.Message != "" {
		detail = apiErr.Message
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: openai status %d: %s", llm.ErrAuth, status, detail)
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, 529:
		return fmt.Errorf("%w: openai status %d: %s", llm.ErrOverloaded, status, detail)
	}
	if apiErr != nil {
		if err := classifyAPIError(apiErr); errors.Is(err, llm.ErrAuth) || errors.Is(err, llm.ErrOverloaded) {
			return err
		}
	}
	return fmt.Errorf("openai status %d: %s", status, detail)
}

func classifyAPIError(apiErr *apiError) error {
	text := strings.ToLower(apiErr.Type + " " + apiErr.Message + " " + fmt.Sprint(apiErr.Code))
	switch {
	case strings.Contains(text, "auth") || strings.Contains(text, "invalid_api_key"):
		return fmt.Errorf("%w: openai error: %s (%s)", llm.ErrAuth, apiErr.Message, apiErr.Type)
	case strings.Contains(text, "overloaded") || strings.Contains(text, "rate_limit"):
		return fmt.Errorf("%w: openai error: %s (%s)", llm.ErrOverloaded, apiErr.Message, apiErr.Type)
	}
	return fmt.Errorf("openai error: %s (%s)", apiErr.Message, apiErr.Type)
}

func logUsage(model, promptHash string, took time.Duration, parsed chatResponse) {
	fields := map[string]any{
		"model":       model,
		"prompt_hash": promptHash,
		"duration_ms": took.Milliseconds(),
		"response_id": parsed.ID,
	}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func hashPromptString(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

var _ llm.Client = (*Client)(nil)
