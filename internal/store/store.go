// Package store keeps job postings and candidate keywords in SQL databases.
//
// Both backends expose the same operations: FetchAllJobs and
// FetchCandidateKeywords feed the matcher, UpsertJobs and PutCandidateKeywords
// are used to import data. Jobs are returned ordered by (source, source_job_id)
// so that ranking ties are stable between runs.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/cv-matcher/internal/matching"
)

// Store is implemented by SQLite and Postgres.
type Store interface {
	FetchAllJobs(ctx context.Context) ([]matching.JobRecord, error)
	FetchCandidateKeywords(ctx context.Context, candidateID string) (matching.KeywordSet, error)
	UpsertJobs(ctx context.Context, jobs []matching.JobRecord) (int, error)
	PutCandidateKeywords(ctx context.Context, candidateID string, keywords matching.KeywordSet) error
	Close()
}

// Open picks the backend from the DSN: postgres:// and postgresql:// URLs go to
// Postgres, everything else is a SQLite file path.
func Open(ctx context.Context, dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		pg, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}

	lite, err := OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	if err != nil {
		return nil, err
	}
	return lite, nil
}

func validateJobs(jobs []matching.JobRecord) error {
	for i, job := range jobs {
		if err := job.Validate(); err != nil {
			return fmt.Errorf("job %d: %w", i, err)
		}
	}
	return nil
}

func cleanCandidateID(candidateID string) (string, error) {
	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" {
		return "", fmt.Errorf("candidate id is empty")
	}
	return candidateID, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
