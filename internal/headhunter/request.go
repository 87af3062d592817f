package headhunter

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

// hh.ru never serves more than 2000 search results, i.e. 20 pages of 100.
const maxPages = 20

// ItemResponse is one page of a paginated hh.ru listing.
type ItemResponse struct {
	Items   []Item `json:"items"`
	Found   int    `json:"found"`
	Pages   int    `json:"pages"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// Item is an undecoded listing entry; see decodeItems.
type Item = any

// GetItems walks the listing at rawURL page by page and returns the items of all pages.
func (c *Client) GetItems(ctx context.Context, rawURL string, q url.Values) ([]Item, error) {
	var items []Item

	for page := 0; page < maxPages; page++ {
		pageQuery := withPage(q, page)

		var response ItemResponse
		if err := c.getJSON(ctx, rawURL, pageQuery, &response); err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}

		items = append(items, response.Items...)

		if page == 0 {
			c.logger.Debug("got response from hh.ru",
				zap.Int("found", response.Found),
				zap.Int("pages", response.Pages),
				zap.Int("per_page", response.PerPage),
			)
		}

		if response.Page >= response.Pages-1 {
			break
		}
	}

	return items, nil
}

// getJSON makes a single rate limited GET request and decodes the body into target.
func (c *Client) getJSON(ctx context.Context, rawURL string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if len(q) > 0 {
		req.URL.RawQuery = q.Encode()
	}
	c.setHeaders(req)

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}

	return decodeBody(resp, target)
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("HH-User-Agent", c.UserAgent)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
}

// decodeBody closes the body. Non-200 answers become a *StatusError.
func decodeBody(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gz.Close()
		body = gz
	}

	if target == nil {
		return nil
	}

	return json.NewDecoder(body).Decode(target)
}

// StatusError is returned for non-200 answers.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %s", e.Status)
}

func withPage(q url.Values, page int) url.Values {
	out := make(url.Values, len(q)+1)
	for k, v := range q {
		out[k] = v
	}
	if page > 0 {
		out.Set("page", strconv.Itoa(page))
	}
	return out
}
