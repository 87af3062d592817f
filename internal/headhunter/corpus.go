package headhunter

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/matching"
)

// Corpus is a job corpus backed by an hh.ru vacancy search.
type Corpus struct {
	client *Client
	params SearchParams
	// MaxVacancies caps the number of detail requests. Zero means no cap.
	MaxVacancies int
}

func NewCorpus(client *Client, params SearchParams) *Corpus {
	return &Corpus{client: client, params: params}
}

// FetchAllJobs runs the search and fetches every vacancy to get its key skills.
// Vacancies that disappeared between search and fetch are skipped.
func (c *Corpus) FetchAllJobs(ctx context.Context) ([]matching.JobRecord, error) {
	params := c.params
	found, err := c.client.Search(ctx, &params)
	if err != nil {
		return nil, fmt.Errorf("searching vacancies: %w", err)
	}

	items := found.Items
	if c.MaxVacancies > 0 && len(items) > c.MaxVacancies {
		items = items[:c.MaxVacancies]
	}

	jobs := make([]matching.JobRecord, 0, len(items))
	for _, item := range items {
		if item.Archived {
			continue
		}

		vacancy, err := c.client.GetVacancy(ctx, item.ID)
		var status *StatusError
		if errors.As(err, &status) && status.Code == http.StatusNotFound {
			c.client.logger.Info("vacancy is gone", zap.String("vacancy_id", item.ID))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("getting vacancy %s: %w", item.ID, err)
		}

		job, err := vacancy.ToJobRecord()
		if err != nil {
			c.client.logger.Warn("skipping vacancy", zap.String("vacancy_id", item.ID), zap.Error(err))
			continue
		}
		jobs = append(jobs, job)
	}

	c.client.logger.Info("fetched vacancies",
		zap.Int("found", found.Len()),
		zap.Int("jobs", len(jobs)),
	)

	return jobs, nil
}
