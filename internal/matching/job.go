package matching

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidJob is returned for job records that miss identity fields.
var ErrInvalidJob = errors.New("invalid job record")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	// "required" accepts whitespace-only strings.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// JobKey is the identity of a job record.
type JobKey struct {
	Source      string
	SourceJobID string
}

func (k JobKey) String() string {
	return k.Source + "/" + k.SourceJobID
}

// JobRecord is a job posting snapshot. Only Keywords participate in scoring;
// title, company and URL are display metadata.
type JobRecord struct {
	Source      string     `json:"source" validate:"notblank"`
	SourceJobID string     `json:"source_job_id" validate:"notblank"`
	Title       string     `json:"title"`
	Company     string     `json:"company,omitempty"`
	URL         string     `json:"url"`
	Keywords    KeywordSet `json:"keywords"`
}

// NewJobRecord trims the fields and validates the identity.
func NewJobRecord(source, sourceJobID, title, company, url string, keywords KeywordSet) (JobRecord, error) {
	job := JobRecord{
		Source:      strings.TrimSpace(source),
		SourceJobID: strings.TrimSpace(sourceJobID),
		Title:       strings.TrimSpace(title),
		Company:     strings.TrimSpace(company),
		URL:         strings.TrimSpace(url),
		Keywords:    keywords,
	}

	if err := job.Validate(); err != nil {
		return JobRecord{}, err
	}

	return job, nil
}

// Key returns the (source, source_job_id) identity.
func (j JobRecord) Key() JobKey {
	return JobKey{Source: j.Source, SourceJobID: j.SourceJobID}
}

// Validate checks that the identity fields are present.
func (j JobRecord) Validate() error {
	err := validate.Struct(j)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}

	missing := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		missing = append(missing, fe.Field())
	}

	return fmt.Errorf("%w: missing %s", ErrInvalidJob, strings.Join(missing, ", "))
}

// ScoredJob is a job record with a relevance score in (0, 1], rounded to 3 decimals.
type ScoredJob struct {
	JobRecord
	Score float64 `json:"score"`
	// Matched lists the normalized terms shared with the candidate.
	Matched []string `json:"matched,omitempty"`
}
