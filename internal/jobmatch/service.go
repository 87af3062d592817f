// Package jobmatch answers "which jobs fit this candidate" by wiring a keyword
// source, a job corpus, the pre-ranking filters and the ranker together.
package jobmatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/corpuscache"
	"github.com/spigell/cv-matcher/internal/filtering"
	"github.com/spigell/cv-matcher/internal/logger"
	"github.com/spigell/cv-matcher/internal/matching"
)

// ErrNoKeywords is returned when the candidate has no stored keywords.
var ErrNoKeywords = errors.New("no keywords found for candidate")

// KeywordSource resolves a candidate id to its keyword set. Unknown candidates
// yield an empty set and no error.
type KeywordSource interface {
	FetchCandidateKeywords(ctx context.Context, candidateID string) (matching.KeywordSet, error)
}

// JobCorpus returns the full, materialized list of job records.
type JobCorpus interface {
	FetchAllJobs(ctx context.Context) ([]matching.JobRecord, error)
}

// Result is the outcome of a match request.
type Result struct {
	CandidateID string               `json:"candidate_id"`
	Keywords    []string             `json:"keywords"`
	Terms       []string             `json:"terms"`
	Jobs        []matching.ScoredJob `json:"jobs"`
	CorpusSize  int                  `json:"corpus_size"`
	Filtered    int                  `json:"filtered"`
	Skipped     int                  `json:"skipped"`
	Cached      bool                 `json:"cached"`
}

// Service is safe for concurrent use as long as its collaborators are.
type Service struct {
	keywords KeywordSource
	jobs     JobCorpus
	ranker   *matching.Ranker
	filters  *filtering.Filtering
	cache    *corpuscache.Cache
	logger   *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithFilters runs the pipeline over the corpus before ranking.
func WithFilters(f *filtering.Filtering) Option {
	return func(s *Service) { s.filters = f }
}

// WithCache reuses prepared corpora between requests.
func WithCache(c *corpuscache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the logger; nil keeps the no-op default.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New panics when a required collaborator is missing.
func New(keywords KeywordSource, jobs JobCorpus, ranker *matching.Ranker, opts ...Option) *Service {
	if keywords == nil || jobs == nil || ranker == nil {
		panic("jobmatch: New requires a keyword source, a job corpus and a ranker")
	}

	s := &Service{
		keywords: keywords,
		jobs:     jobs,
		ranker:   ranker,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Match ranks the corpus against the candidate's keywords and returns at most
// limit jobs; limit <= 0 selects matching.DefaultLimit.
func (s *Service) Match(ctx context.Context, candidateID string, limit int) (*Result, error) {
	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" {
		return nil, fmt.Errorf("candidate id is required")
	}

	log := logger.WithMatchFields(s.logger, candidateID, s.ranker.Normalizer().Fingerprint())

	keywords, err := s.keywords.FetchCandidateKeywords(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("fetching candidate keywords: %w", err)
	}
	if keywords.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoKeywords, candidateID)
	}

	jobs, err := s.jobs.FetchAllJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching jobs: %w", err)
	}
	total := len(jobs)

	if s.filters != nil {
		jobs, err = s.filters.Run(ctx, jobs)
		if err != nil {
			return nil, fmt.Errorf("filtering jobs: %w", err)
		}
	}

	corpus, cached := s.prepare(ctx, jobs)

	ranked := s.ranker.RankPrepared(keywords, corpus, limit)

	log.Info("matched candidate",
		zap.Int("keywords", keywords.Len()),
		zap.Int("jobs", total),
		zap.Int("filtered", total-len(jobs)),
		zap.Int("skipped", corpus.Skipped),
		zap.Int("results", len(ranked)),
		zap.Bool("cached", cached),
	)

	return &Result{
		CandidateID: candidateID,
		Keywords:    keywords.Items(),
		Terms:       s.ranker.Normalizer().NormalizeSet(keywords).Sorted(),
		Jobs:        ranked,
		CorpusSize:  total,
		Filtered:    total - len(jobs),
		Skipped:     corpus.Skipped,
		Cached:      cached,
	}, nil
}

func (s *Service) prepare(ctx context.Context, jobs []matching.JobRecord) (*matching.Corpus, bool) {
	if s.cache == nil {
		return s.ranker.Prepare(jobs), false
	}

	key, err := corpuscache.Key(jobs, s.ranker.Normalizer().Fingerprint())
	if err != nil {
		s.logger.Warn("skipping corpus cache", zap.Error(err))
		return s.ranker.Prepare(jobs), false
	}
	if corpus, ok := s.cache.Get(ctx, key); ok {
		return corpus, true
	}

	corpus := s.ranker.Prepare(jobs)
	s.cache.Put(ctx, key, corpus)
	return corpus, false
}
