package matching

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRanker(t *testing.T) *Ranker {
	t.Helper()
	return NewRanker(newTestNormalizer(t), zap.NewNop())
}

func mustJob(t *testing.T, id string, keywords ...string) JobRecord {
	t.Helper()

	job, err := NewJobRecord("fixture", id, "Job "+id, "", "https://example.com/"+id, NewKeywordSet(keywords...))
	if err != nil {
		t.Fatalf("building job %s: %v", id, err)
	}
	return job
}

func fixtureJobs(t *testing.T) []JobRecord {
	t.Helper()

	return []JobRecord{
		mustJob(t, "j1", "python", "api", "aws"),
		mustJob(t, "j2", "python", "django", "postgres"),
		mustJob(t, "j3", "aws", "terraform", "docker"),
		mustJob(t, "j4", "java", "spring"),
	}
}

func ids(jobs []ScoredJob) []string {
	out := make([]string, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, job.SourceJobID)
	}
	return out
}

func TestRankIdenticalKeywords(t *testing.T) {
	t.Parallel()

	r := newTestRanker(t)
	got := r.Rank(NewKeywordSet("python", "api", "aws"), []JobRecord{mustJob(t, "a", "python", "api", "aws")}, 10)

	if len(got) != 1 || got[0].Score != 1.0 {
		t.Fatalf("expected single job with score 1.0, got %+v", got)
	}
}

func TestRankSingleJobCorpusIsPlainJaccard(t *testing.T) {
	t.Parallel()

	r := newTestRanker(t)
	got := r.Rank(
		NewKeywordSet("python", "api", "aws", "fastapi"),
		[]JobRecord{mustJob(t, "b", "python", "aws", "docker", "terraform")},
		10,
	)

	if len(got) != 1 || got[0].Score != 0.333 {
		t.Fatalf("expected score 0.333, got %+v", got)
	}
	if len(got[0].Matched) != 2 || got[0].Matched[0] != "aws" || got[0].Matched[1] != "python" {
		t.Fatalf("unexpected matched terms: %v", got[0].Matched)
	}
}

func TestRankExcludesDisjointJobs(t *testing.T) {
	t.Parallel()

	r := newTestRanker(t)
	got := r.Rank(NewKeywordSet("java", "spring"), []JobRecord{mustJob(t, "c", "python", "aws")}, 10)

	if len(got) != 0 {
		t.Fatalf("expected no results, got %+v", got)
	}
}

func TestRankFixtureCorpus(t *testing.T) {
	t.Parallel()

	r := newTestRanker(t)
	got := r.Rank(NewKeywordSet("python", "api", "aws"), fixtureJobs(t), 10)

	if len(got) != 3 {
		t.Fatalf("expected 3 matching jobs, got %v", ids(got))
	}

	expect := []struct {
		id    string
		score float64
	}{
		{"j1", 1.0},
		{"j2", 0.172},
		{"j3", 0.172},
	}
	for i, e := range expect {
		if got[i].SourceJobID != e.id || got[i].Score != e.score {
			t.Fatalf("position %d: expected %s=%v, got %s=%v", i, e.id, e.score, got[i].SourceJobID, got[i].Score)
		}
	}
}

func TestRankReferenceCorpus(t *testing.T) {
	t.Parallel()

	jobs := []JobRecord{
		mustJob(t, "1", "python", "api", "aws"),
		mustJob(t, "2", "python", "docker"),
		mustJob(t, "3", "java", "spring"),
		mustJob(t, "4", "aws", "terraform"),
	}

	got := newTestRanker(t).Rank(NewKeywordSet("python", "api", "aws"), jobs, 10)

	// idf(python) = idf(aws) = ln(5/3)+1, the rest ln(5/2)+1; jobs 2 and 4 score 1.5108/6.8542.
	expect := []struct {
		id    string
		score float64
	}{
		{"1", 1.0},
		{"2", 0.22},
		{"4", 0.22},
	}
	if len(got) != len(expect) {
		t.Fatalf("expected %d jobs, got %v", len(expect), ids(got))
	}
	for i, e := range expect {
		if got[i].SourceJobID != e.id || got[i].Score != e.score {
			t.Fatalf("position %d: expected %s=%v, got %s=%v", i, e.id, e.score, got[i].SourceJobID, got[i].Score)
		}
	}
}

func TestRankTiesKeepCorpusOrder(t *testing.T) {
	t.Parallel()

	r := newTestRanker(t)
	jobs := []JobRecord{
		mustJob(t, "z", "python", "rust"),
		mustJob(t, "a", "python", "scala"),
		mustJob(t, "m", "python", "elixir"),
	}

	for range 5 {
		got := ids(r.Rank(NewKeywordSet("python"), jobs, 10))
		if len(got) != 3 || got[0] != "z" || got[1] != "a" || got[2] != "m" {
			t.Fatalf("expected corpus order for ties, got %v", got)
		}
	}
}

func TestRankOrderedAndBounded(t *testing.T) {
	t.Parallel()

	r := newTestRanker(t)
	got := r.Rank(NewKeywordSet("python", "api", "aws", "docker"), fixtureJobs(t), 10)

	for i, job := range got {
		if job.Score <= 0 || job.Score > 1 {
			t.Fatalf("score %v out of (0, 1]", job.Score)
		}
		if i > 0 && got[i-1].Score < job.Score {
			t.Fatalf("results not sorted by score: %v before %v", got[i-1].Score, job.Score)
		}
	}
}

func TestRankLimit(t *testing.T) {
	t.Parallel()

	r := newTestRanker(t)
	candidate := NewKeywordSet("python", "api", "aws")

	if got := r.Rank(candidate, fixtureJobs(t), 1); len(got) != 1 || got[0].SourceJobID != "j1" {
		t.Fatalf("expected only j1, got %v", ids(got))
	}

	jobs := make([]JobRecord, 0, DefaultLimit+10)
	for i := range DefaultLimit + 10 {
		jobs = append(jobs, mustJob(t, string(rune('a'+i%26))+string(rune('a'+i/26)), "python"))
	}

	for _, limit := range []int{0, -3} {
		if got := r.Rank(candidate, jobs, limit); len(got) != DefaultLimit {
			t.Fatalf("limit %d: expected default limit %d, got %d", limit, DefaultLimit, len(got))
		}
	}
}

func TestRankEmptyInputs(t *testing.T) {
	t.Parallel()

	r := newTestRanker(t)

	if got := r.Rank(NewKeywordSet(), fixtureJobs(t), 10); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result for empty candidate, got %#v", got)
	}
	if got := r.Rank(NewKeywordSet("python"), nil, 10); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result for empty corpus, got %#v", got)
	}
	if got := r.Rank(NewKeywordSet("team", "experience"), fixtureJobs(t), 10); len(got) != 0 {
		t.Fatalf("expected stop-word-only candidate to match nothing, got %v", ids(got))
	}
}

func TestRankAliasesConverge(t *testing.T) {
	t.Parallel()

	r := newTestRanker(t)
	got := r.Rank(
		NewKeywordSet("PostgreSQL", "K8s"),
		[]JobRecord{mustJob(t, "x", "postgres", "kubernetes")},
		10,
	)

	if len(got) != 1 || got[0].Score != 1.0 {
		t.Fatalf("expected aliases to match canonical forms, got %+v", got)
	}
}

func TestRankDuplicateKeywordsCountOnce(t *testing.T) {
	t.Parallel()

	r := newTestRanker(t)
	corpus := r.Prepare([]JobRecord{
		mustJob(t, "a", "postgres", "PostgreSQL", "pg", "python"),
		mustJob(t, "b", "go"),
	})

	if w := corpus.IDF.Weight("postgres"); w == 1.0 {
		t.Fatalf("expected postgres to appear in one document only, got weight %v", w)
	}
	if len(corpus.Terms[0]) != 2 {
		t.Fatalf("expected duplicate aliases to collapse, got %v", corpus.Terms[0].Sorted())
	}
}

func TestPrepareSkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	r := NewRanker(newTestNormalizer(t), zap.New(core))

	jobs := append(fixtureJobs(t), JobRecord{Title: "no identity", Keywords: NewKeywordSet("python")})
	corpus := r.Prepare(jobs)

	if corpus.Len() != 4 || corpus.Skipped != 1 {
		t.Fatalf("expected 4 jobs and 1 skipped, got %d and %d", corpus.Len(), corpus.Skipped)
	}

	entries := logs.FilterMessage("skipping malformed job record").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if title := entries[0].ContextMap()["title"]; title != "no identity" {
		t.Fatalf("expected title field, got %v", title)
	}

	got := r.RankPrepared(NewKeywordSet("python", "api", "aws"), corpus, 10)
	if len(got) != 3 {
		t.Fatalf("expected malformed record to stay out of results, got %v", ids(got))
	}
}

func TestNewRankerPanicsOnNilNormalizer(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()

	NewRanker(nil, nil)
}
