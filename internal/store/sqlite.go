package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/spigell/cv-matcher/internal/matching"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	source        TEXT NOT NULL,
	source_job_id TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	company       TEXT,
	url           TEXT NOT NULL DEFAULT '',
	keywords      TEXT NOT NULL DEFAULT '[]',
	updated_at    TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (source, source_job_id)
);
CREATE TABLE IF NOT EXISTS candidate_keywords (
	candidate_id TEXT PRIMARY KEY,
	keywords     TEXT NOT NULL DEFAULT '[]',
	updated_at   TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// SQLite stores keywords as JSON arrays in TEXT columns.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file and its tables.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() {
	s.db.Close()
}

func (s *SQLite) FetchAllJobs(ctx context.Context) ([]matching.JobRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, source_job_id, title, company, url, keywords
		 FROM jobs ORDER BY source, source_job_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query jobs: %w", err)
	}
	defer rows.Close()

	jobs := []matching.JobRecord{}
	for rows.Next() {
		var (
			job      matching.JobRecord
			company  sql.NullString
			keywords string
		)
		if err := rows.Scan(&job.Source, &job.SourceJobID, &job.Title, &company, &job.URL, &keywords); err != nil {
			return nil, fmt.Errorf("sqlite: scan job: %w", err)
		}
		job.Company = company.String
		if err := json.Unmarshal([]byte(keywords), &job.Keywords); err != nil {
			return nil, fmt.Errorf("sqlite: decode keywords of %s/%s: %w", job.Source, job.SourceJobID, err)
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func (s *SQLite) FetchCandidateKeywords(ctx context.Context, candidateID string) (matching.KeywordSet, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT keywords FROM candidate_keywords WHERE candidate_id = ?`, candidateID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return matching.KeywordSet{}, nil
	}
	if err != nil {
		return matching.KeywordSet{}, fmt.Errorf("sqlite: query keywords: %w", err)
	}

	var keywords matching.KeywordSet
	if err := json.Unmarshal([]byte(raw), &keywords); err != nil {
		return matching.KeywordSet{}, fmt.Errorf("sqlite: decode keywords of %s: %w", candidateID, err)
	}
	return keywords, nil
}

// UpsertJobs inserts or replaces jobs in one transaction and returns how many were written.
func (s *SQLite) UpsertJobs(ctx context.Context, jobs []matching.JobRecord) (int, error) {
	if err := validateJobs(jobs); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO jobs (source, source_job_id, title, company, url, keywords, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (source, source_job_id) DO UPDATE SET
			title = excluded.title,
			company = excluded.company,
			url = excluded.url,
			keywords = excluded.keywords,
			updated_at = excluded.updated_at`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, job := range jobs {
		keywords, err := json.Marshal(job.Keywords)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, job.Source, job.SourceJobID, job.Title, nullable(job.Company), job.URL, string(keywords)); err != nil {
			return 0, fmt.Errorf("sqlite: upsert %s: %w", job.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}

	return len(jobs), nil
}

func (s *SQLite) PutCandidateKeywords(ctx context.Context, candidateID string, keywords matching.KeywordSet) error {
	candidateID, err := cleanCandidateID(candidateID)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(keywords)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO candidate_keywords (candidate_id, keywords, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (candidate_id) DO UPDATE SET
			keywords = excluded.keywords,
			updated_at = excluded.updated_at`,
		candidateID, string(raw))
	if err != nil {
		return fmt.Errorf("sqlite: put keywords: %w", err)
	}
	return nil
}
