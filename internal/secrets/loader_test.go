package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "token")
	if err := os.WriteFile(file, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("writing secret: %v", err)
	}
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatalf("writing secret: %v", err)
	}

	t.Setenv("CV_MATCHER_TEST_SECRET", " from-env ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{name: "file wins", src: Source{File: file, Value: "inline", Env: "CV_MATCHER_TEST_SECRET"}, want: "from-file"},
		{name: "inline", src: Source{Value: " inline ", Env: "CV_MATCHER_TEST_SECRET"}, want: "inline"},
		{name: "env", src: Source{Env: "CV_MATCHER_TEST_SECRET"}, want: "from-env"},
		{name: "missing file", src: Source{Name: "hh token", File: filepath.Join(dir, "nope")}, wantErr: "reading hh token"},
		{name: "empty file", src: Source{File: empty}, wantErr: "is empty"},
		{name: "nothing", src: Source{Name: "gemini key", Env: "CV_MATCHER_TEST_UNSET"}, wantErr: "gemini key is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoadOptional(t *testing.T) {
	got, err := LoadOptional(Source{Name: "redis url", Env: "CV_MATCHER_TEST_UNSET"})
	if err != nil || got != "" {
		t.Fatalf("expected empty secret without error, got %q, %v", got, err)
	}

	if _, err := LoadOptional(Source{File: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Fatalf("expected configured but unreadable file to fail")
	}
}
