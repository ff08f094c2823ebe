package aiparse

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"cv-ingest/internal/llm"
)

type scriptedClient struct {
	responses []string
	errs      []error
	inputs    []llm.ExtractInput
}

func (c *scriptedClient) ExtractProfile(ctx context.Context, input llm.ExtractInput) (json.RawMessage, error) {
	i := len(c.inputs)
	c.inputs = append(c.inputs, input)
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i < len(c.responses) {
		return json.RawMessage(c.responses[i]), nil
	}
	return nil, errors.New("unexpected call")
}

func newTestParser(client llm.Client, rec *sleepRecorder) *Parser {
	return NewParser(client, Options{
		Model:  "gpt-4o-mini",
		Policy: Policy{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, Sleep: rec.Sleep},
	})
}

const profileJSON = `{
  "personalInfo": {"fullName": "Jane Q. Public", "email": "jane.public@example.com", "phone": "+1 555-201-0199"},
  "summary": "Backend engineer",
  "experience": [{"title": "Software Engineer", "company": "Acme Corp", "startDate": "2019", "endDate": "2022", "isCurrent": false, "achievements": ["Built the thing"]}],
  "education": [{"degree": "BSc", "institution": "METU", "gpa": 3.6}],
  "skills": {"technical": ["Go"], "soft": [], "tools": null, "other": []},
  "languages": [{"language": "English", "level": "C1"}],
  "metadata": {"wordCount": 999}
}`

func TestParseSucceedsAfterTwoOverloads(t *testing.T) {
	rec := &sleepRecorder{}
	client := &scriptedClient{
		errs:      []error{llm.ErrOverloaded, llm.ErrOverloaded, nil},
		responses: []string{"", "", profileJSON},
	}

	profile, err := newTestParser(client, rec).Parse(context.Background(), "Jane Q. Public")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if profile.PersonalInfo.FullName != "Jane Q. Public" {
		t.Fatalf("unexpected name %q", profile.PersonalInfo.FullName)
	}
	if profile.Experience[0].Company != "Acme Corp" {
		t.Fatalf("unexpected experience %+v", profile.Experience)
	}
	if profile.Education[0].GPA != "3.6" {
		t.Fatalf("expected numeric gpa coerced to string, got %q", profile.Education[0].GPA)
	}
	if profile.Metadata.WordCount != 0 {
		t.Fatalf("expected provider metadata to be ignored, got %+v", profile.Metadata)
	}
	if len(rec.delays) != 2 || rec.delays[1] <= rec.delays[0] {
		t.Fatalf("expected two increasing delays, got %v", rec.delays)
	}
	if client.inputs[0].Model != "gpt-4o-mini" {
		t.Fatalf("expected model to be forwarded, got %q", client.inputs[0].Model)
	}
}

func TestParseMapsErrors(t *testing.T) {
	tests := []struct {
		name   string
		client *scriptedClient
		want   error
		calls  int
	}{
		{
			name:   "exhausted overloads",
			client: &scriptedClient{errs: []error{llm.ErrOverloaded, llm.ErrOverloaded, llm.ErrOverloaded}},
			want:   ErrServiceUnavailable,
			calls:  3,
		},
		{
			name:   "auth",
			client: &scriptedClient{errs: []error{llm.ErrAuth}},
			want:   ErrConfiguration,
			calls:  1,
		},
		{
			name:   "unconfigured",
			client: nil,
			want:   ErrConfiguration,
		},
		{
			name:   "generic provider error",
			client: &scriptedClient{errs: []error{errors.New("openai response missing choices")}},
			want:   ErrParsingFailure,
			calls:  1,
		},
		{
			name:   "not json",
			client: &scriptedClient{responses: []string{"I could not parse this CV."}},
			want:   ErrParsingFailure,
			calls:  1,
		},
		{
			name:   "empty object",
			client: &scriptedClient{responses: []string{"{}"}},
			want:   ErrParsingFailure,
			calls:  1,
		},
		{
			name:   "schema violation",
			client: &scriptedClient{responses: []string{`{"experience": "ten years"}`}},
			want:   ErrParsingFailure,
			calls:  1,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var client llm.Client = llm.UnconfiguredClient{Provider: "openai"}
			if tt.client != nil {
				client = tt.client
			}
			_, err := newTestParser(client, &sleepRecorder{}).Parse(context.Background(), "cv")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if tt.client != nil && len(tt.client.inputs) != tt.calls {
				t.Fatalf("expected %d calls, got %d", tt.calls, len(tt.client.inputs))
			}
		})
	}
}

func TestParseTruncatesInput(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"summary": "ok"}`}}
	parser := NewParser(client, Options{Model: "m", MaxInputChars: 5})

	if _, err := parser.Parse(context.Background(), "ğüşöçabc"); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := client.inputs[0].Text
	if got != "ğüşöç" || utf8.RuneCountInString(got) != 5 {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "fence without language", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding prose", in: "Here is the profile: {\"a\":{\"b\":2}} Hope this helps.", want: `{"a":{"b":2}}`},
		{name: "no object", in: "sorry", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Fatalf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeProfileDropsNulls(t *testing.T) {
	profile, err := decodeProfile(json.RawMessage(`{"summary": null, "keywords": ["go", null], "personalInfo": {"fullName": "Jane", "email": null}}`))
	if err != nil {
		t.Fatalf("decodeProfile: %v", err)
	}
	if profile.PersonalInfo.FullName != "Jane" || profile.PersonalInfo.Email != "" {
		t.Fatalf("unexpected personal info %+v", profile.PersonalInfo)
	}
	if strings.Join(profile.Keywords, ",") != "go" {
		t.Fatalf("unexpected keywords %v", profile.Keywords)
	}
}
