package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/cv-matcher/internal/matching"
)

func testJobs(t *testing.T) []matching.JobRecord {
	t.Helper()

	a, err := matching.NewJobRecord("hh.ru", "2", "Go developer", "Acme", "https://hh.ru/vacancy/2", matching.NewKeywordSet("Go", "PostgreSQL"))
	require.NoError(t, err)
	b, err := matching.NewJobRecord("file", "1", "Data engineer", "", "", matching.NewKeywordSet("python", "spark"))
	require.NoError(t, err)

	return []matching.JobRecord{a, b}
}

// exerciseStore runs the same scenario against any backend.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	jobs, err := s.FetchAllJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.NotNil(t, jobs)

	n, err := s.UpsertJobs(ctx, testJobs(t))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	updated := testJobs(t)[:1]
	updated[0].Title = "Senior Go developer"
	_, err = s.UpsertJobs(ctx, updated)
	require.NoError(t, err)

	jobs, err = s.FetchAllJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "file/1", jobs[0].Key().String())
	assert.Equal(t, "", jobs[0].Company)
	assert.Equal(t, "hh.ru/2", jobs[1].Key().String())
	assert.Equal(t, "Senior Go developer", jobs[1].Title)
	assert.Equal(t, "Acme", jobs[1].Company)
	assert.Equal(t, []string{"go", "postgresql"}, jobs[1].Keywords.Items())

	_, err = s.UpsertJobs(ctx, []matching.JobRecord{{Title: "no identity"}})
	assert.ErrorIs(t, err, matching.ErrInvalidJob)

	keywords, err := s.FetchCandidateKeywords(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, keywords.Len())

	require.NoError(t, s.PutCandidateKeywords(ctx, " alice ", matching.NewKeywordSet("python", "aws")))
	require.NoError(t, s.PutCandidateKeywords(ctx, "alice", matching.NewKeywordSet("python", "aws", "api")))

	keywords, err = s.FetchCandidateKeywords(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "aws", "python"}, keywords.Items())

	assert.Error(t, s.PutCandidateKeywords(ctx, "  ", matching.NewKeywordSet("go")))
}

func TestSQLite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "cv-matcher.db")
	s, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	exerciseStore(t, s)
}

func TestSQLiteReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cv-matcher.db")
	ctx := context.Background()

	s, err := Open(ctx, "sqlite://"+path)
	require.NoError(t, err)
	_, err = s.UpsertJobs(ctx, testJobs(t))
	require.NoError(t, err)
	s.Close()

	s, err = Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	jobs, err := s.FetchAllJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestOpenEmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestOpenFailureReturnsNilStore(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s, err := Open(context.Background(), filepath.Join(blocker, "jobs.db"))
	require.Error(t, err)
	// A typed nil inside the interface would compare unequal here.
	assert.True(t, s == nil, "expected an untyped nil store, got %#v", s)
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("CV_MATCHER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CV_MATCHER_TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	s, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.pool.Exec(ctx, `TRUNCATE jobs, candidate_keywords`)
	require.NoError(t, err)

	exerciseStore(t, s)
}
