package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/logger"
)

const (
	defaultMaxLogLength = 200
	defaultMaxKeywords  = 60
	defaultRetryDelay   = 2 * time.Second
)

//go:embed prompt.md
var promptTemplate string

type jsonGenerator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Options tune the keyword extractor. Zero values select defaults.
type Options struct {
	MaxKeywords  int
	MaxRetries   int
	RetryDelay   time.Duration
	MaxLogLength int
}

// KeywordExtractor asks Gemini for the skills mentioned in a CV.
type KeywordExtractor struct {
	generator jsonGenerator
	logger    *zap.Logger
	opts      Options
}

func NewKeywordExtractor(generator jsonGenerator, log *zap.Logger, opts Options) *KeywordExtractor {
	if opts.MaxKeywords <= 0 {
		opts.MaxKeywords = defaultMaxKeywords
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}

	return &KeywordExtractor{
		generator: generator,
		logger:    logger.WithCommonFields(log, "gemini", generator.Model()),
		opts:      opts,
	}
}

// ExtractKeywords sends the CV text to the model and parses the returned JSON array.
// Failed requests and unparsable answers are retried up to MaxRetries times.
func (e *KeywordExtractor) ExtractKeywords(ctx context.Context, cvText string) ([]string, error) {
	prompt := buildPrompt(cvText, e.opts.MaxKeywords)

	e.logger.Debug("gemini keyword request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(cvText, e.opts.MaxLogLength)),
	)

	var lastErr error
	for attempt := 0; attempt <= e.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			e.logger.Info("retrying gemini keyword request",
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			if err := waitFor(ctx, e.opts.RetryDelay*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}

		raw, err := e.generator.GenerateJSON(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			continue
		}

		e.logger.Debug("gemini keyword response",
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", logger.TruncateForLog(raw, e.opts.MaxLogLength)),
		)

		keywords, err := parseKeywords(raw)
		if err != nil {
			lastErr = err
			continue
		}

		if len(keywords) > e.opts.MaxKeywords {
			keywords = keywords[:e.opts.MaxKeywords]
		}
		return keywords, nil
	}

	return nil, lastErr
}

func buildPrompt(cvText string, maxKeywords int) string {
	prompt := strings.ReplaceAll(promptTemplate, "{{MAX_KEYWORDS}}", strconv.Itoa(maxKeywords))
	return strings.ReplaceAll(prompt, "{{CV_TEXT}}", strings.TrimSpace(cvText))
}

// parseKeywords accepts a JSON array of strings or an object with a "keywords"
// array, optionally wrapped in a markdown code fence.
func parseKeywords(raw string) ([]string, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, errors.New("parse gemini response: empty payload")
	}

	var list []string
	if err := json.Unmarshal([]byte(cleaned), &list); err != nil {
		var wrapped struct {
			Keywords []string `json:"keywords"`
		}
		if objErr := json.Unmarshal([]byte(cleaned), &wrapped); objErr != nil || wrapped.Keywords == nil {
			return nil, fmt.Errorf("parse gemini response: %w", err)
		}
		list = wrapped.Keywords
	}

	keywords := make([]string, 0, len(list))
	for _, keyword := range list {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}

	return keywords, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
