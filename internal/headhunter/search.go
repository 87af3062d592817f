package headhunter

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

const (
	SearchPath = "/vacancies"
)

// SearchParams are passed to the hh.ru /vacancies endpoint. The hh tag names
// the query parameter; zero values are not sent.
type SearchParams struct {
	Text        string   `hh:"text" mapstructure:"text"`
	Areas       []int    `hh:"area" mapstructure:"areas"`
	OrderBy     string   `hh:"order_by" mapstructure:"order-by"`
	Employer    uint     `hh:"employer_id" mapstructure:"employer-id"`
	SearchField string   `hh:"search_field" mapstructure:"search-field"`
	Schedules   []string `hh:"schedule" mapstructure:"schedules"`
	PerPage     string   `hh:"per_page" mapstructure:"per-page"`
	Experience  string   `hh:"experience" mapstructure:"experience"`
	Period      uint     `hh:"period" mapstructure:"period"`
	Professions []string `hh:"professional_role" mapstructure:"professions"`
	OnlySalary  bool     `hh:"only_with_salary" mapstructure:"only-with-salary"`
}

// Search returns vacancies of all result pages. Search results carry no key skills;
// use GetVacancy for the full posting.
func (c *Client) Search(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	var vacancies []*Vacancy

	// Set per_page max as possible. It should be faster.
	if params.PerPage == "" {
		params.PerPage = perPage
	}

	q := buildParams(params)
	apiURLSearch := fmt.Sprintf("%s%s", c.APIURL, SearchPath)

	items, err := c.GetItems(ctx, apiURLSearch, q)
	if err != nil {
		return nil, err
	}

	if err := decodeItems(items, &vacancies); err != nil {
		return nil, fmt.Errorf("decoding vacancies: %w", err)
	}

	return &Vacancies{
		Items: vacancies,
	}, nil
}

func decodeItems(items []Item, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(items)
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	value := reflect.ValueOf(params).Elem()

	for _, field := range reflect.VisibleFields(value.Type()) {
		key := field.Tag.Get("hh")
		if key == "" {
			continue
		}

		fv := value.FieldByIndex(field.Index)
		if fv.IsZero() {
			continue
		}

		switch fv.Kind() {
		case reflect.Slice:
			for i := range fv.Len() {
				q.Add(key, fmt.Sprint(fv.Index(i).Interface()))
			}
		case reflect.Bool:
			q.Set(key, strconv.FormatBool(fv.Bool()))
		default:
			q.Set(key, fmt.Sprint(fv.Interface()))
		}
	}

	return q
}
