package filtering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spigell/cv-matcher/internal/matching"
)

// ErrMalformedExcludeFile is returned for exclude files that decode but hold unusable entries.
var ErrMalformedExcludeFile = errors.New("malformed exclude file")

// ExcludedJobs is the content of an exclude file.
type ExcludedJobs struct {
	Items []*ExcludedJob `json:"items"`
}

// ExcludedJob is a job the user does not want to see again.
type ExcludedJob struct {
	Source      string    `json:"source"`
	SourceJobID string    `json:"source_job_id"`
	Title       string    `json:"title,omitempty"`
	Company     string    `json:"company,omitempty"`
	URL         string    `json:"url,omitempty"`
	ExcludedAt  time.Time `json:"excluded_at"`
}

// ToExcluded converts jobs into exclude file entries stamped with now.
func ToExcluded(jobs []matching.JobRecord, now time.Time) *ExcludedJobs {
	excluded := &ExcludedJobs{Items: make([]*ExcludedJob, 0, len(jobs))}
	for _, job := range jobs {
		excluded.Items = append(excluded.Items, &ExcludedJob{
			Source:      job.Source,
			SourceJobID: job.SourceJobID,
			Title:       job.Title,
			Company:     job.Company,
			URL:         job.URL,
			ExcludedAt:  now.UTC(),
		})
	}
	return excluded
}

// GetExcludedJobsFromFile reads an exclude file. A missing or empty file is an empty list.
func GetExcludedJobsFromFile(path string) (*ExcludedJobs, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ExcludedJobs{}, nil
	}
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return &ExcludedJobs{}, nil
	}

	var excluded ExcludedJobs
	if err := json.Unmarshal(data, &excluded); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	for i, item := range excluded.Items {
		if item == nil {
			return nil, fmt.Errorf("decoding %s: %w: item %d is null", path, ErrMalformedExcludeFile, i)
		}
	}
	return &excluded, nil
}

// Append adds entries that are not in the list yet.
func (e *ExcludedJobs) Append(other *ExcludedJobs) {
	known := e.Keys()
	for _, item := range other.Items {
		key := item.Key()
		if _, ok := known[key]; ok {
			continue
		}
		known[key] = struct{}{}
		e.Items = append(e.Items, item)
	}
}

// Keys returns the identities of all entries.
func (e *ExcludedJobs) Keys() map[matching.JobKey]struct{} {
	keys := make(map[matching.JobKey]struct{}, len(e.Items))
	for _, item := range e.Items {
		keys[item.Key()] = struct{}{}
	}
	return keys
}

func (e *ExcludedJob) Key() matching.JobKey {
	return matching.JobKey{Source: e.Source, SourceJobID: e.SourceJobID}
}

// ToFile overwrites path with the list.
func (e *ExcludedJobs) ToFile(path string) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// AppendToExcludeFile adds jobs to the exclude file at path, creating it when needed.
func AppendToExcludeFile(path string, jobs []matching.JobRecord, now time.Time) error {
	excluded, err := GetExcludedJobsFromFile(path)
	if err != nil {
		return fmt.Errorf("getting excluded jobs from file: %w", err)
	}

	excluded.Append(ToExcluded(jobs, now))

	return excluded.ToFile(path)
}

type excludeFileFilter struct {
	toggle
	path string
}

// NewExcludeFile creates a filter that removes jobs listed in the exclude file.
// An empty path disables the filter.
func NewExcludeFile(path string) Filter {
	f := &excludeFileFilter{path: path}
	if path == "" {
		f.Disable("exclude file is not set")
	}
	return f
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate() error {
	if f.path == "" {
		return errors.New("exclude file path is required")
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, jobs []matching.JobRecord) ([]matching.JobRecord, Step, error) {
	excluded, err := GetExcludedJobsFromFile(f.path)
	if err != nil {
		return nil, Step{}, fmt.Errorf("getting excluded jobs from file: %w", err)
	}

	keys := excluded.Keys()
	kept := keep(jobs, func(job matching.JobRecord) bool {
		_, drop := keys[job.Key()]
		return !drop
	})

	return kept, newStep(len(jobs), len(kept)), nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
