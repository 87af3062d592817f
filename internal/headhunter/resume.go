package headhunter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/cv-matcher/internal/matching"
)

const (
	mineResumesID = "mine"
	resumesPath   = "/resumes"
)

type Resumes struct {
	Items []*Resume
}

type Resume struct {
	Title    string   `json:"title,omitempty"`
	ID       string   `json:"id,omitempty"`
	SkillSet []string `json:"skill_set,omitempty" mapstructure:"skill_set"`
}

// GetMineResumes lists the resumes of the token owner.
func (c *Client) GetMineResumes(ctx context.Context) (*Resumes, error) {
	apiURLMineResumes := fmt.Sprintf("%s%s/%s", c.APIURL, resumesPath, mineResumesID)

	items, err := c.GetItems(ctx, apiURLMineResumes, nil)
	if err != nil {
		return nil, err
	}

	var resumes []*Resume
	if err = mapstructure.Decode(items, &resumes); err != nil {
		return nil, err
	}

	return &Resumes{
		Items: resumes,
	}, nil
}

// GetResume fetches a single resume. Unknown ids return a *StatusError with code 404.
func (c *Client) GetResume(ctx context.Context, id string) (*Resume, error) {
	if id == "" {
		return nil, fmt.Errorf("resume id is required")
	}

	apiURL := fmt.Sprintf("%s%s/%s", c.APIURL, resumesPath, url.PathEscape(id))

	var resume Resume
	if err := c.getJSON(ctx, apiURL, nil, &resume); err != nil {
		return nil, err
	}

	return &resume, nil
}

func (r *Resumes) Len() int {
	return len(r.Items)
}

func (r *Resumes) Titles() []string {
	titles := make([]string, 0, len(r.Items))

	for _, v := range r.Items {
		titles = append(titles, v.Title)
	}

	return titles
}

func (r *Resumes) FindByTitle(title string) *Resume {
	for _, resume := range r.Items {
		if resume.Title == title {
			return resume
		}
	}

	return nil
}

// Keywords returns the skill set together with the resume title.
func (r *Resume) Keywords() matching.KeywordSet {
	raw := make([]string, 0, len(r.SkillSet)+1)
	raw = append(raw, r.SkillSet...)
	if title := strings.TrimSpace(r.Title); title != "" {
		raw = append(raw, title)
	}
	return matching.NewKeywordSet(raw...)
}
