// Package aiparse turns normalized CV text into a structured profile through
// an LLM provider, with bounded retries and schema validation.
package aiparse

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"cv-ingest/internal/cv"
	"cv-ingest/internal/llm"
	"cv-ingest/internal/shared/metrics"
	"cv-ingest/internal/shared/telemetry"
)

const (
	DefaultMaxAttempts   = 3
	DefaultBaseDelay     = time.Second
	DefaultMaxInputChars = 15000
)

//go:embed profile.schema.json
var profileSchemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error

	fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
)

func profileSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(profileSchemaJSON))
	})
	return schema, schemaErr
}

// Options configures a Parser. Zero values fall back to the defaults above.
type Options struct {
	Model         string
	MaxInputChars int
	Policy        Policy
}

type Parser struct {
	client        llm.Client
	model         string
	maxInputChars int
	policy        Policy
}

func NewParser(client llm.Client, opts Options) *Parser {
	policy := opts.Policy
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultBaseDelay
	}
	if policy.OnRetry == nil {
		policy.OnRetry = func(attempt int, delay time.Duration, err error) {
			telemetry.Warn("aiparse.retry", map[string]any{
				"attempt":  attempt,
				"delay_ms": delay.Milliseconds(),
				"err":      err,
			})
		}
	}
	maxChars := opts.MaxInputChars
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}
	return &Parser{
		client:        client,
		model:         opts.Model,
		maxInputChars: maxChars,
		policy:        policy,
	}
}

// Parse asks the provider for a profile. Errors wrap ErrServiceUnavailable,
// ErrConfiguration or ErrParsingFailure.
func (p *Parser) Parse(ctx context.Context, text string) (*cv.Profile, error) {
	input := llm.ExtractInput{Text: truncateRunes(text, p.maxInputChars), Model: p.model}

	raw, err := WithRetry(ctx, p.policy, ClassifyError, func(ctx context.Context) (json.RawMessage, error) {
		raw, err := p.client.ExtractProfile(ctx, input)
		metrics.IncAIAttempt(attemptOutcome(err))
		return raw, err
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}

	profile, err := decodeProfile(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailure, err)
	}
	return profile, nil
}

func attemptOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case ClassifyError(err) == Transient:
		return "transient"
	default:
		return "fatal"
	}
}

func mapError(ctx context.Context, err error) error {
	var exhausted *ExhaustedError
	switch {
	case errors.As(err, &exhausted):
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	case errors.Is(err, llm.ErrAuth):
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, ctx.Err())
	default:
		return fmt.Errorf("%w: %v", ErrParsingFailure, err)
	}
}

// decodeProfile pulls the JSON object out of the model output, validates it
// against the embedded schema and decodes it.
func decodeProfile(raw json.RawMessage) (*cv.Profile, error) {
	body := extractJSON(string(raw))
	if body == "" {
		return nil, errors.New("no JSON object in response")
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if obj, ok := doc.(map[string]any); ok {
		// Metadata is computed locally.
		delete(obj, "metadata")
	}
	doc = cleanValue(doc)

	s, err := profileSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
	}

	cleaned, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var profile cv.Profile
	if err := json.Unmarshal(cleaned, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

// extractJSON strips markdown fences and any prose around the outermost object.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// cleanValue drops nulls and turns numbers into strings; the profile has no
// numeric fields the model is asked to fill.
func cleanValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if child == nil {
				delete(t, k)
				continue
			}
			t[k] = cleanValue(child)
		}
		return t
	case []any:
		out := t[:0]
		for _, child := range t {
			if child != nil {
				out = append(out, cleanValue(child))
			}
		}
		return out
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return v
	}
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
