package filtering

import (
	"context"
	"strings"

	"golang.org/x/text/cases"

	"github.com/spigell/cv-matcher/internal/matching"
)

// companiesFilter is read-only after construction, so Apply may run concurrently.
type companiesFilter struct {
	toggle
	companies []string
	excluded  map[string]struct{}
}

// NewCompanies creates a filter that removes jobs posted by the listed companies.
// Names are compared case-insensitively; jobs without a company are kept.
func NewCompanies(companies []string) Filter {
	f := &companiesFilter{
		companies: companies,
		excluded:  make(map[string]struct{}, len(companies)),
	}
	for _, company := range companies {
		if key := foldCompany(company); key != "" {
			f.excluded[key] = struct{}{}
		}
	}
	return f
}

func (f *companiesFilter) Name() string { return "companies" }

func (f *companiesFilter) Validate() error { return nil }

func (f *companiesFilter) Apply(_ context.Context, jobs []matching.JobRecord) ([]matching.JobRecord, Step, error) {
	if len(f.excluded) == 0 {
		return jobs, newStep(len(jobs), len(jobs)), nil
	}

	kept := keep(jobs, func(job matching.JobRecord) bool {
		_, drop := f.excluded[foldCompany(job.Company)]
		return !drop
	})

	return kept, newStep(len(jobs), len(kept)), nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

func foldCompany(name string) string {
	return strings.Join(strings.Fields(cases.Fold().String(name)), " ")
}
