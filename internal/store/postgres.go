package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spigell/cv-matcher/internal/matching"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	source        TEXT NOT NULL,
	source_job_id TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	company       TEXT,
	url           TEXT NOT NULL DEFAULT '',
	keywords      TEXT[] NOT NULL DEFAULT '{}',
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (source, source_job_id)
);
CREATE TABLE IF NOT EXISTS candidate_keywords (
	candidate_id TEXT PRIMARY KEY,
	keywords     TEXT[] NOT NULL DEFAULT '{}',
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Postgres stores keywords as text[] columns.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a pgx pool and makes sure the tables exist.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) FetchAllJobs(ctx context.Context) ([]matching.JobRecord, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT source, source_job_id, title, company, url, keywords
		 FROM jobs ORDER BY source, source_job_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: query jobs: %w", err)
	}
	defer rows.Close()

	jobs := []matching.JobRecord{}
	for rows.Next() {
		var (
			job      matching.JobRecord
			company  *string
			keywords []string
		)
		if err := rows.Scan(&job.Source, &job.SourceJobID, &job.Title, &company, &job.URL, &keywords); err != nil {
			return nil, fmt.Errorf("postgres: scan job: %w", err)
		}
		job.Company = deref(company)
		job.Keywords = matching.NewKeywordSet(keywords...)
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func (p *Postgres) FetchCandidateKeywords(ctx context.Context, candidateID string) (matching.KeywordSet, error) {
	var keywords []string
	err := p.pool.QueryRow(ctx,
		`SELECT keywords FROM candidate_keywords WHERE candidate_id = $1`, candidateID,
	).Scan(&keywords)
	if errors.Is(err, pgx.ErrNoRows) {
		return matching.KeywordSet{}, nil
	}
	if err != nil {
		return matching.KeywordSet{}, fmt.Errorf("postgres: query keywords: %w", err)
	}

	return matching.NewKeywordSet(keywords...), nil
}

// UpsertJobs writes all jobs in one batch inside a transaction.
func (p *Postgres) UpsertJobs(ctx context.Context, jobs []matching.JobRecord) (int, error) {
	if err := validateJobs(jobs); err != nil {
		return 0, err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, job := range jobs {
		batch.Queue(`
			INSERT INTO jobs (source, source_job_id, title, company, url, keywords, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
			ON CONFLICT (source, source_job_id) DO UPDATE SET
				title = EXCLUDED.title,
				company = EXCLUDED.company,
				url = EXCLUDED.url,
				keywords = EXCLUDED.keywords,
				updated_at = EXCLUDED.updated_at`,
			job.Source, job.SourceJobID, job.Title, nullable(job.Company), job.URL, job.Keywords.Items())
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("postgres: upsert jobs: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}

	return len(jobs), nil
}

func (p *Postgres) PutCandidateKeywords(ctx context.Context, candidateID string, keywords matching.KeywordSet) error {
	candidateID, err := cleanCandidateID(candidateID)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO candidate_keywords (candidate_id, keywords, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (candidate_id) DO UPDATE SET
			keywords = EXCLUDED.keywords,
			updated_at = EXCLUDED.updated_at`,
		candidateID, keywords.Items())
	if err != nil {
		return fmt.Errorf("postgres: put keywords: %w", err)
	}
	return nil
}
