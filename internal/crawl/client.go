package crawl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"companybot/internal/processor"
	"companybot/pkg/models"
)

// Crawl failure kinds.
var (
	ErrSubmit      = errors.New("crawl submit failed")
	ErrCrawlFailed = errors.New("crawl job failed")
)

// Status is a crawl job lifecycle state as reported by the provider.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the job has resolved and will not change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Config holds crawl client configuration.
type Config struct {
	APIKey       string
	BaseURL      string
	MaxDepth     int
	PageLimit    int
	ExcludePaths []string
	MaxJobs      int
	PollInterval time.Duration
	Timeout      time.Duration
}

// Client talks to a Firecrawl-style asynchronous crawl API: submit a job,
// poll its status, cancel it.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	maxDepth     int
	pageLimit    int
	excludePaths []string
	maxJobs      int
	pollInterval time.Duration
}

// New creates a new crawl client.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.MaxJobs <= 0 {
		config.MaxJobs = 3
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 500 * time.Millisecond
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient:   &http.Client{Timeout: config.Timeout},
		baseURL:      strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:       config.APIKey,
		maxDepth:     config.MaxDepth,
		pageLimit:    config.PageLimit,
		excludePaths: config.ExcludePaths,
		maxJobs:      config.MaxJobs,
		pollInterval: config.PollInterval,
	}, nil
}

type submitRequest struct {
	URL            string         `json:"url"`
	CrawlerOptions crawlerOptions `json:"crawlerOptions"`
}

type crawlerOptions struct {
	MaxDepth int      `json:"maxDepth,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Excludes []string `json:"excludes,omitempty"`
}

type submitResponse struct {
	JobID string `json:"jobId"`
}

type statusResponse struct {
	Status Status       `json:"status"`
	Data   []statusPage `json:"data"`
}

type statusPage struct {
	Markdown string `json:"markdown"`
	Metadata struct {
		SourceURL string `json:"sourceURL"`
	} `json:"metadata"`
}

// Submit starts an asynchronous crawl of a URL and returns the job id.
func (c *Client) Submit(ctx context.Context, url string) (string, error) {
	req := submitRequest{
		URL: url,
		CrawlerOptions: crawlerOptions{
			MaxDepth: c.maxDepth,
			Limit:    c.pageLimit,
			Excludes: c.excludePaths,
		},
	}

	var resp submitResponse
	if err := c.do(ctx, http.MethodPost, "/v0/crawl", req, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmit, err)
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("%w: provider returned no job id", ErrSubmit)
	}

	slog.Debug("crawl job submitted", "url", url, "job_id", resp.JobID)
	return resp.JobID, nil
}

// Outcome is one non-blocking status check of a crawl job. When Status is
// completed, Pages holds the cleaned page texts with their source URLs.
type Outcome struct {
	Status Status
	Pages  []models.Page
}

// Poll checks a job's status once. On a completed job the page markdown is
// cleaned before it is returned. A failed or cancelled job yields
// ErrCrawlFailed and a best-effort cancel of the remote job.
func (c *Client) Poll(ctx context.Context, jobID string) (*Outcome, error) {
	var resp statusResponse
	if err := c.do(ctx, http.MethodGet, "/v0/crawl/status/"+jobID, nil, &resp); err != nil {
		return nil, fmt.Errorf("crawl status check: %w", err)
	}

	switch resp.Status {
	case StatusFailed, StatusCancelled:
		c.Cancel(ctx, jobID)
		return nil, fmt.Errorf("%w: job %s ended with status %q", ErrCrawlFailed, jobID, resp.Status)
	case StatusCompleted:
		outcome := &Outcome{Status: resp.Status}
		for _, page := range resp.Data {
			text := processor.Clean(page.Markdown)
			if text == "" {
				continue
			}
			outcome.Pages = append(outcome.Pages, models.Page{
				URL:      page.Metadata.SourceURL,
				Markdown: text,
			})
		}
		return outcome, nil
	default:
		return &Outcome{Status: resp.Status}, nil
	}
}

// Cancel asks the provider to stop a job. Best-effort: errors are only logged.
func (c *Client) Cancel(ctx context.Context, jobID string) {
	if err := c.do(ctx, http.MethodDelete, "/v0/crawl/cancel/"+jobID, nil, nil); err != nil {
		slog.Warn("crawl job cancel failed", "job_id", jobID, "error", err)
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}
