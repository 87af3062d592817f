// Package matching ranks job postings against a candidate keyword set using
// normalized terms, corpus IDF weights and a weighted Jaccard similarity.
package matching

import (
	"cmp"
	"math"
	"slices"

	"go.uber.org/zap"
)

// DefaultLimit caps the ranked result when the caller passes a non-positive limit.
const DefaultLimit = 50

// Corpus is a normalized job corpus ready for scoring. It only holds records
// with a valid identity; Terms[i] belongs to Jobs[i].
type Corpus struct {
	Jobs    []JobRecord `json:"jobs"`
	Terms   []TermSet   `json:"terms"`
	IDF     IDFTable    `json:"idf"`
	Skipped int         `json:"skipped"`
}

// Len returns the number of scorable jobs.
func (c *Corpus) Len() int {
	return len(c.Jobs)
}

// Ranker orders jobs by relevance to a candidate keyword set.
// It holds no per-request state and can be shared between goroutines.
type Ranker struct {
	normalizer *Normalizer
	logger     *zap.Logger
}

// NewRanker panics when normalizer is nil.
func NewRanker(normalizer *Normalizer, logger *zap.Logger) *Ranker {
	if normalizer == nil {
		panic("matching: NewRanker called with a nil normalizer")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ranker{normalizer: normalizer, logger: logger}
}

// Normalizer returns the normalizer used on both sides of the comparison.
func (r *Ranker) Normalizer() *Normalizer {
	return r.normalizer
}

// Prepare normalizes the keywords of every job and builds the IDF table.
// Records without identity are skipped with a warning instead of failing the batch.
func (r *Ranker) Prepare(jobs []JobRecord) *Corpus {
	corpus := &Corpus{
		Jobs:  make([]JobRecord, 0, len(jobs)),
		Terms: make([]TermSet, 0, len(jobs)),
	}

	for i, job := range jobs {
		if err := job.Validate(); err != nil {
			r.logger.Warn("skipping malformed job record",
				zap.Int("position", i),
				zap.String("title", job.Title),
				zap.Error(err),
			)
			corpus.Skipped++
			continue
		}

		corpus.Jobs = append(corpus.Jobs, job)
		corpus.Terms = append(corpus.Terms, r.normalizer.NormalizeSet(job.Keywords))
	}

	corpus.IDF = BuildIDF(corpus.Terms)

	r.logger.Debug("prepared job corpus",
		zap.Int("jobs", corpus.Len()),
		zap.Int("skipped", corpus.Skipped),
		zap.Int("terms", len(corpus.IDF)),
	)

	return corpus
}

// Rank scores jobs against the candidate keywords and returns the jobs with a
// positive score, best first, truncated to limit. Empty inputs yield an empty result.
func (r *Ranker) Rank(candidate KeywordSet, jobs []JobRecord, limit int) []ScoredJob {
	if candidate.Len() == 0 || len(jobs) == 0 {
		return []ScoredJob{}
	}

	return r.RankPrepared(candidate, r.Prepare(jobs), limit)
}

// RankPrepared is Rank over an already prepared corpus.
// Jobs with equal scores keep their corpus order.
func (r *Ranker) RankPrepared(candidate KeywordSet, corpus *Corpus, limit int) []ScoredJob {
	if corpus == nil {
		panic("matching: RankPrepared called with a nil corpus")
	}

	if limit <= 0 {
		limit = DefaultLimit
	}

	terms := r.normalizer.NormalizeSet(candidate)
	if len(terms) == 0 || corpus.Len() == 0 {
		return []ScoredJob{}
	}

	scored := make([]ScoredJob, 0, corpus.Len())
	for i, job := range corpus.Jobs {
		score := round3(Score(terms, corpus.Terms[i], corpus.IDF))
		if score <= 0 {
			continue
		}

		scored = append(scored, ScoredJob{
			JobRecord: job,
			Score:     score,
			Matched:   Overlap(terms, corpus.Terms[i]),
		})
	}

	slices.SortStableFunc(scored, func(a, b ScoredJob) int {
		return cmp.Compare(b.Score, a.Score)
	})

	r.logger.Debug("ranked jobs",
		zap.Int("candidate_terms", len(terms)),
		zap.Int("corpus", corpus.Len()),
		zap.Int("matched", len(scored)),
		zap.Int("limit", limit),
	)

	if len(scored) > limit {
		scored = scored[:limit]
	}

	return scored
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
