// Package headhunter reads vacancies and resumes from the hh.ru API.
package headhunter

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	apiURL    = "https://api.hh.ru"
	userAgent = "spigell/cv-matcher (spigelly@gmail.com)"
	// Max value for search per page.
	perPage = "100"

	// Source is the JobRecord source of hh.ru vacancies.
	Source = "hh.ru"

	// hh.ru starts answering 429 above a few requests per second.
	defaultRPS   = 4
	defaultBurst = 2
)

type Client struct {
	token      string
	logger     *zap.Logger
	limiter    *rate.Limiter
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New returns a client with the default rate limit. The token is optional
// for public endpoints such as vacancy search.
func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:   rate.NewLimiter(rate.Limit(defaultRPS), defaultBurst),
		logger:    logger,
		UserAgent: userAgent,
	}
}

// SetRateLimit changes the allowed requests per second. Zero or less removes the limit.
func (c *Client) SetRateLimit(rps float64, burst int) {
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
}
