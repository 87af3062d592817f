package filtering

import (
	"context"
	"errors"
	"strings"

	"github.com/spigell/cv-matcher/internal/matching"
)

type sourcesFilter struct {
	toggle
	allowed map[string]struct{}
	names   []string
}

// NewSources creates a filter that keeps only jobs from the listed sources.
// An empty list disables the filter.
func NewSources(sources []string) Filter {
	f := &sourcesFilter{allowed: make(map[string]struct{}, len(sources))}
	for _, source := range sources {
		source = strings.TrimSpace(source)
		if source == "" {
			continue
		}
		if _, ok := f.allowed[source]; !ok {
			f.names = append(f.names, source)
		}
		f.allowed[source] = struct{}{}
	}

	if len(f.allowed) == 0 {
		f.Disable("no sources configured")
	}

	return f
}

func (f *sourcesFilter) Name() string { return "sources" }

func (f *sourcesFilter) Validate() error {
	if len(f.allowed) == 0 {
		return errors.New("at least one source is required")
	}
	return nil
}

func (f *sourcesFilter) Apply(_ context.Context, jobs []matching.JobRecord) ([]matching.JobRecord, Step, error) {
	kept := keep(jobs, func(job matching.JobRecord) bool {
		_, ok := f.allowed[job.Source]
		return ok
	})

	return kept, newStep(len(jobs), len(kept)), nil
}

func (f *sourcesFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["sources"] = strings.Join(f.names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
