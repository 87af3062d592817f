// Package sources reads candidate keywords and job postings from local files.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spigell/cv-matcher/internal/matching"
)

// JobsFile is a job corpus stored as a JSON array of job records.
type JobsFile struct {
	path string
}

func NewJobsFile(path string) *JobsFile {
	return &JobsFile{path: path}
}

// FetchAllJobs reads the whole file on every call. Records are returned as is;
// malformed ones are left for the ranker to skip.
func (f *JobsFile) FetchAllJobs(ctx context.Context) ([]matching.JobRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return ReadJobs(f.path)
}

// ReadJobs decodes a JSON array of job records from path.
func ReadJobs(path string) ([]matching.JobRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading jobs file: %w", err)
	}

	jobs := []matching.JobRecord{}
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("decoding jobs file %s: %w", path, err)
	}

	return jobs, nil
}
