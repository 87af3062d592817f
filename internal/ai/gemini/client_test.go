package gemini

import (
	"context"
	"testing"

	"google.golang.org/genai"
)

func TestNewGeneratorRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewGenerator(context.Background(), "   ", ""); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}

func TestNewGeneratorDefaultModel(t *testing.T) {
	t.Parallel()

	g, err := NewGenerator(context.Background(), "test-key", "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Model() != defaultModel {
		t.Fatalf("expected default model, got %q", g.Model())
	}

	var nilGenerator *Generator
	if nilGenerator.Model() != "" {
		t.Fatalf("expected empty model for nil generator")
	}
	if _, err := nilGenerator.GenerateJSON(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error for nil generator")
	}
}

func TestResponseText(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			nil,
			{Content: &genai.Content{Parts: []*genai.Part{{Text: ` ["Go", `}, nil, {Text: "  "}}}},
			{Content: &genai.Content{Parts: []*genai.Part{{Text: `"SQL"]`}}}},
		},
	}

	got, err := responseText(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "[\"Go\",\n\"SQL\"]" {
		t.Fatalf("unexpected text %q", got)
	}

	if _, err := responseText(&genai.GenerateContentResponse{}); err == nil {
		t.Fatalf("expected error for empty response")
	}
	if _, err := responseText(nil); err == nil {
		t.Fatalf("expected error for nil response")
	}
}
