package sources

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/cv-matcher/internal/matching"
)

// KeywordsFile maps candidate ids to raw keywords. The file is YAML, so plain
// JSON objects are accepted as well:
//
//	alice: [python, "REST APIs", aws]
//	bob:
//	  - go
//	  - kubernetes
type KeywordsFile struct {
	path string
}

func NewKeywordsFile(path string) *KeywordsFile {
	return &KeywordsFile{path: path}
}

// FetchCandidateKeywords returns an empty set for unknown candidates.
func (f *KeywordsFile) FetchCandidateKeywords(ctx context.Context, candidateID string) (matching.KeywordSet, error) {
	if err := ctx.Err(); err != nil {
		return matching.KeywordSet{}, err
	}

	all, err := ReadKeywords(f.path)
	if err != nil {
		return matching.KeywordSet{}, err
	}

	return all[strings.TrimSpace(candidateID)], nil
}

// ReadKeywords decodes the candidate -> keywords map from path.
func ReadKeywords(path string) (map[string]matching.KeywordSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keywords file: %w", err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding keywords file %s: %w", path, err)
	}

	out := make(map[string]matching.KeywordSet, len(raw))
	for candidate, keywords := range raw {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		out[candidate] = matching.NewKeywordSet(keywords...)
	}

	return out, nil
}
