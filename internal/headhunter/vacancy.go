package headhunter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spigell/cv-matcher/internal/matching"
)

type Vacancies struct {
	Items []*Vacancy
}

type Employer struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type KeySkill struct {
	Name string `json:"name,omitempty"`
}

type Vacancy struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Area struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"area,omitempty"`
	Employer     Employer   `json:"employer,omitempty"`
	AlternateURL string     `json:"alternate_url,omitempty"`
	KeySkills    []KeySkill `json:"key_skills,omitempty"`
	Archived     bool       `json:"archived,omitempty"`
	Snipet       struct {
		Requirement    string `json:"requirement,omitempty"`
		Responsibility string `json:"responsibility,omitempty"`
	} `json:"snippet,omitempty"`
	ProfessionalRoles []struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"professional_roles,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// GetVacancy fetches the full vacancy, including key skills.
func (c *Client) GetVacancy(ctx context.Context, id string) (*Vacancy, error) {
	if id == "" {
		return nil, fmt.Errorf("vacancy id is required")
	}

	var vacancy Vacancy
	apiURL := fmt.Sprintf("%s%s/%s", c.APIURL, SearchPath, url.PathEscape(id))
	if err := c.getJSON(ctx, apiURL, nil, &vacancy); err != nil {
		return nil, err
	}

	return &vacancy, nil
}

// Skills returns the key skill names in posting order.
func (va *Vacancy) Skills() []string {
	skills := make([]string, 0, len(va.KeySkills))
	for _, skill := range va.KeySkills {
		if name := strings.TrimSpace(skill.Name); name != "" {
			skills = append(skills, name)
		}
	}
	return skills
}

// ToJobRecord converts the vacancy into a job record keyed by its hh.ru id.
func (va *Vacancy) ToJobRecord() (matching.JobRecord, error) {
	return matching.NewJobRecord(Source, va.ID, va.Name, va.Employer.Name, va.AlternateURL,
		matching.NewKeywordSet(va.Skills()...))
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

func (v *Vacancies) FindByID(id string) *Vacancy {
	for _, vacancy := range v.Items {
		if vacancy.ID == id {
			return vacancy
		}
	}
	return nil
}
