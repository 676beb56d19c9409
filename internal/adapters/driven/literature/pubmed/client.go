// Package pubmed fetches abstracts from the NCBI E-utilities API.
package pubmed

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
	"github.com/custodia-labs/reinfect/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.LiteratureSource = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = domain.DefaultPubMedBaseURL
	DefaultTimeout    = 30 * time.Second
	DefaultRetryCount = 3
	toolName          = "reinfect"
)

// Config holds configuration for the PubMed client.
type Config struct {
	// BaseURL is the E-utilities endpoint.
	BaseURL string

	// APIKey raises the allowance from 3 to 10 requests per second.
	APIKey string

	// Email identifies the caller to NCBI.
	Email string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// RetryCount is the number of retries on 429 and 5xx (default: 3).
	RetryCount int

	// RetryWait is the initial retry backoff (default: 1s).
	RetryWait time.Duration
}

// Client searches PubMed and downloads plain-text abstracts.
type Client struct {
	http    *resty.Client
	limiter *RateLimiter
	apiKey  string
	email   string
}

type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
		Error  string   `json:"ERROR"`
	} `json:"esearchresult"`
	Error string `json:"error"`
}

// NewClient creates a PubMed client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryCount == 0 {
		cfg.RetryCount = DefaultRetryCount
	}
	if cfg.RetryWait == 0 {
		cfg.RetryWait = time.Second
	}

	rps := RequestsPerSecond
	if cfg.APIKey != "" {
		rps = RequestsPerSecondWithKey
	}
	limiter := NewRateLimiter(rps)

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryWait * 8).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			if r.StatusCode() == http.StatusTooManyRequests {
				limiter.RecordRateLimitError(retryAfter(r))
				return true
			}
			return r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{
		http:    client,
		limiter: limiter,
		apiKey:  cfg.APIKey,
		email:   cfg.Email,
	}
}

// Search returns up to max PubMed IDs matching query, most relevant first.
func (c *Client) Search(ctx context.Context, query string, max int) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var result esearchResponse
	resp, err := c.request(ctx).
		SetQueryParams(map[string]string{
			"db":      "pubmed",
			"term":    query,
			"retmax":  strconv.Itoa(max),
			"retmode": "json",
			"sort":    "relevance",
		}).
		SetResult(&result).
		Get("/esearch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("esearch: %w", err)
	}
	if err := statusError("esearch", resp); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("esearch: %s", result.Error)
	}
	if result.Result.Error != "" {
		return nil, fmt.Errorf("esearch: %s", result.Result.Error)
	}

	logger.Debug("PubMed search %q: %s matches, %d returned", query, result.Result.Count, len(result.Result.IDList))
	return result.Result.IDList, nil
}

// FetchAbstracts downloads each ID's abstract as plain text. Newlines are
// collapsed to spaces. IDs with no text are omitted.
func (c *Client) FetchAbstracts(ctx context.Context, ids []string) ([]domain.Abstract, error) {
	abstracts := make([]domain.Abstract, 0, len(ids))
	for _, id := range ids {
		if err := c.limiter.Wait(ctx); err != nil {
			return abstracts, err
		}

		resp, err := c.request(ctx).
			SetQueryParams(map[string]string{
				"db":      "pubmed",
				"id":      id,
				"rettype": "abstract",
				"retmode": "text",
			}).
			Get("/efetch.fcgi")
		if err != nil {
			return abstracts, fmt.Errorf("efetch %s: %w", id, err)
		}
		if err := statusError("efetch "+id, resp); err != nil {
			return abstracts, err
		}

		text := collapseNewlines(resp.String())
		if text == "" {
			logger.Debug("PubMed %s has no abstract text, skipping", id)
			continue
		}
		abstracts = append(abstracts, domain.Abstract{PMID: id, Text: text, FetchedAt: time.Now().UTC()})
	}
	return abstracts, nil
}

// request starts a request carrying the caller identification parameters.
func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx).SetQueryParam("tool", toolName)
	if c.apiKey != "" {
		r.SetQueryParam("api_key", c.apiKey)
	}
	if c.email != "" {
		r.SetQueryParam("email", c.email)
	}
	return r
}

func statusError(op string, resp *resty.Response) error {
	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", op, domain.ErrRateLimited)
	case resp.IsError():
		return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}

func retryAfter(r *resty.Response) time.Duration {
	secs, err := strconv.Atoi(r.Header().Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func collapseNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}
