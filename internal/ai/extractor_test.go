package ai

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type stubExtractor struct {
	keywords []string
	err      error
	calls    int
	lastText string
}

func (s *stubExtractor) ExtractKeywords(_ context.Context, cvText string) ([]string, error) {
	s.calls++
	s.lastText = cvText
	return s.keywords, s.err
}

func TestCVKeywords(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "alice.txt"), []byte("  Python developer, AWS, REST APIs \n"), 0o644); err != nil {
		t.Fatalf("writing cv: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "blank.txt"), []byte(" \n "), 0o644); err != nil {
		t.Fatalf("writing cv: %v", err)
	}

	stub := &stubExtractor{keywords: []string{"Python", "AWS", "python", "REST APIs"}}
	src := NewCVKeywords(dir, stub, nil)

	keywords, err := src.FetchCandidateKeywords(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if keywords.Len() != 3 {
		t.Fatalf("expected 3 keywords, got %v", keywords.Items())
	}
	if stub.lastText != "Python developer, AWS, REST APIs" {
		t.Fatalf("expected trimmed cv text, got %q", stub.lastText)
	}

	for _, id := range []string{"bob", "blank"} {
		keywords, err := src.FetchCandidateKeywords(context.Background(), id)
		if err != nil || keywords.Len() != 0 {
			t.Fatalf("expected empty set for %s, got %v, %v", id, keywords.Items(), err)
		}
	}
	if stub.calls != 1 {
		t.Fatalf("expected extractor to be called once, got %d", stub.calls)
	}
}

func TestCVKeywordsErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "alice.txt"), []byte("Go"), 0o644); err != nil {
		t.Fatalf("writing cv: %v", err)
	}

	boom := errors.New("quota exceeded")
	src := NewCVKeywords(dir, &stubExtractor{err: boom}, nil)

	if _, err := src.FetchCandidateKeywords(context.Background(), "alice"); !errors.Is(err, boom) {
		t.Fatalf("expected extractor error, got %v", err)
	}

	for _, id := range []string{"", "../alice", "a/b"} {
		if _, err := src.FetchCandidateKeywords(context.Background(), id); err == nil {
			t.Fatalf("expected error for candidate id %q", id)
		}
	}
}
