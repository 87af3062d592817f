package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubGenerator struct {
	responses []string
	errs      []error
	prompts   []string
}

func (s *stubGenerator) GenerateJSON(_ context.Context, prompt string) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)

	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("no more responses")
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func TestExtractKeywords(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{responses: []string{"```json\n[\"Python\", \" AWS \", \"\", \"REST APIs\"]\n```"}}
	extractor := NewKeywordExtractor(stub, zap.NewNop(), Options{MaxKeywords: 10})

	keywords, err := extractor.ExtractKeywords(context.Background(), "Senior Python developer. AWS, REST APIs.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Python", "AWS", "REST APIs"}
	if strings.Join(keywords, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %v, got %v", want, keywords)
	}

	prompt := stub.prompts[0]
	if !strings.Contains(prompt, "Senior Python developer") || !strings.Contains(prompt, "at most 10 keywords") {
		t.Fatalf("unexpected prompt: %s", prompt)
	}
	if strings.Contains(prompt, "{{") {
		t.Fatalf("expected all placeholders to be replaced")
	}
}

func TestExtractKeywordsCapsResult(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{responses: []string{`{"keywords": ["a1", "b2", "c3"]}`}}
	extractor := NewKeywordExtractor(stub, nil, Options{MaxKeywords: 2})

	keywords, err := extractor.ExtractKeywords(context.Background(), "cv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keywords) != 2 {
		t.Fatalf("expected 2 keywords, got %v", keywords)
	}
}

func TestExtractKeywordsRetries(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{
		errs:      []error{errors.New("unavailable"), nil, nil},
		responses: []string{"", "not json", `["Go"]`},
	}
	extractor := NewKeywordExtractor(stub, nil, Options{MaxRetries: 2, RetryDelay: time.Millisecond})

	keywords, err := extractor.ExtractKeywords(context.Background(), "cv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keywords) != 1 || keywords[0] != "Go" {
		t.Fatalf("unexpected keywords: %v", keywords)
	}
	if len(stub.prompts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(stub.prompts))
	}
}

func TestExtractKeywordsGivesUp(t *testing.T) {
	t.Parallel()

	boom := errors.New("quota exceeded")
	stub := &stubGenerator{errs: []error{boom, boom}}
	extractor := NewKeywordExtractor(stub, nil, Options{MaxRetries: 1, RetryDelay: time.Millisecond})

	if _, err := extractor.ExtractKeywords(context.Background(), "cv"); !errors.Is(err, boom) {
		t.Fatalf("expected last error, got %v", err)
	}
	if len(stub.prompts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(stub.prompts))
	}
}

func TestExtractKeywordsStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubGenerator{errs: []error{errors.New("unavailable")}}
	extractor := NewKeywordExtractor(stub, nil, Options{MaxRetries: 3, RetryDelay: time.Hour})

	if _, err := extractor.ExtractKeywords(ctx, "cv"); err == nil {
		t.Fatalf("expected error")
	}
	if len(stub.prompts) != 1 {
		t.Fatalf("expected no retries after cancellation, got %d attempts", len(stub.prompts))
	}
}

func TestParseKeywords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "array", raw: `["Go", "SQL"]`, want: 2},
		{name: "fenced", raw: "```\n[\"Go\"]\n```", want: 1},
		{name: "object", raw: `{"keywords": ["Go"]}`, want: 1},
		{name: "empty array", raw: `[]`, want: 0},
		{name: "object without keywords", raw: `{"skills": ["Go"]}`, wantErr: true},
		{name: "prose", raw: "Here are the skills", wantErr: true},
		{name: "blank", raw: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseKeywords(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d keywords, got %v", tt.want, got)
			}
		})
	}
}
