package filtering

import (
	"context"

	"github.com/spigell/cv-matcher/internal/matching"
)

type duplicatesFilter struct {
	toggle
}

// NewDuplicates creates a filter that keeps the first record of every (source, source_job_id) pair.
func NewDuplicates() Filter {
	return &duplicatesFilter{}
}

func (f *duplicatesFilter) Name() string { return "duplicates" }

func (f *duplicatesFilter) Validate() error { return nil }

func (f *duplicatesFilter) Apply(_ context.Context, jobs []matching.JobRecord) ([]matching.JobRecord, Step, error) {
	seen := make(map[matching.JobKey]struct{}, len(jobs))
	kept := keep(jobs, func(job matching.JobRecord) bool {
		key := job.Key()
		if _, ok := seen[key]; ok {
			return false
		}
		seen[key] = struct{}{}
		return true
	})

	return kept, newStep(len(jobs), len(kept)), nil
}

func (f *duplicatesFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
