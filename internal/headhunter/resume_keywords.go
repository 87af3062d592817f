package headhunter

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/matching"
)

// ResumeKeywords is a keyword source where the candidate id is an hh.ru resume id.
type ResumeKeywords struct {
	client *Client
}

func NewResumeKeywords(client *Client) *ResumeKeywords {
	return &ResumeKeywords{client: client}
}

// FetchCandidateKeywords returns an empty set for resumes hh.ru does not know
// or does not show to the token owner.
func (r *ResumeKeywords) FetchCandidateKeywords(ctx context.Context, candidateID string) (matching.KeywordSet, error) {
	resume, err := r.client.GetResume(ctx, candidateID)

	var status *StatusError
	if errors.As(err, &status) && (status.Code == http.StatusNotFound || status.Code == http.StatusForbidden) {
		r.client.logger.Info("resume is not available",
			zap.String("candidate_id", candidateID),
			zap.Int("status", status.Code),
		)
		return matching.KeywordSet{}, nil
	}
	if err != nil {
		return matching.KeywordSet{}, err
	}

	return resume.Keywords(), nil
}
