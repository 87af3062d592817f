// Package ai turns free-form CV text into candidate keywords with an LLM.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/matching"
)

// KeywordExtractor pulls skill keywords out of CV text.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, cvText string) ([]string, error)
}

// CVKeywords is a keyword source over a directory of plain text CVs named
// <candidate id>.txt.
type CVKeywords struct {
	dir       string
	extractor KeywordExtractor
	logger    *zap.Logger
}

func NewCVKeywords(dir string, extractor KeywordExtractor, logger *zap.Logger) *CVKeywords {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CVKeywords{dir: dir, extractor: extractor, logger: logger}
}

// FetchCandidateKeywords returns an empty set when the candidate has no CV file
// or the CV is blank.
func (c *CVKeywords) FetchCandidateKeywords(ctx context.Context, candidateID string) (matching.KeywordSet, error) {
	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" || candidateID != filepath.Base(candidateID) {
		return matching.KeywordSet{}, fmt.Errorf("invalid candidate id %q", candidateID)
	}

	path := filepath.Join(c.dir, candidateID+".txt")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Info("cv file not found", zap.String("candidate_id", candidateID), zap.String("path", path))
		return matching.KeywordSet{}, nil
	}
	if err != nil {
		return matching.KeywordSet{}, fmt.Errorf("reading cv: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return matching.KeywordSet{}, nil
	}

	keywords, err := c.extractor.ExtractKeywords(ctx, text)
	if err != nil {
		return matching.KeywordSet{}, fmt.Errorf("extracting keywords: %w", err)
	}

	set := matching.NewKeywordSet(keywords...)
	c.logger.Debug("extracted cv keywords",
		zap.String("candidate_id", candidateID),
		zap.Int("keywords", set.Len()),
	)

	return set, nil
}
