package crawl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"companybot/pkg/models"
)

// Fetch turns seed URLs into cleaned page text. It keeps at most MaxJobs
// crawl jobs in flight, submitting the next seed only when a slot frees, and
// polls every in-flight job once per poll interval until all seeds resolve.
//
// It returns one concatenated text per completed job plus every page those
// jobs visited. An all-empty crawl returns empty slices, not an error; the
// caller decides whether that is fatal.
func (c *Client) Fetch(ctx context.Context, urls []string) ([]string, []models.Page, error) {
	var (
		texts []string
		pages []models.Page
	)

	pending := append([]string(nil), urls...)
	inflight := make(map[string]bool)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for len(pending) > 0 || len(inflight) > 0 {
		// Fill free slots.
		for len(inflight) < c.maxJobs && len(pending) > 0 {
			url := pending[0]
			pending = pending[1:]

			jobID, err := c.Submit(ctx, url)
			if err != nil {
				c.cancelAll(ctx, inflight)
				return nil, nil, err
			}
			inflight[jobID] = true
		}

		select {
		case <-ctx.Done():
			c.cancelAll(ctx, inflight)
			return nil, nil, ctx.Err()
		case <-ticker.C:
		}

		for jobID := range inflight {
			outcome, err := c.Poll(ctx, jobID)
			if err != nil {
				c.cancelAll(ctx, inflight)
				return nil, nil, err
			}
			if !outcome.Status.Terminal() {
				continue
			}

			delete(inflight, jobID)
			if len(outcome.Pages) == 0 {
				slog.Warn("crawl job completed with no data", "job_id", jobID)
				continue
			}

			var parts []string
			for _, page := range outcome.Pages {
				parts = append(parts, page.Markdown)
			}
			texts = append(texts, strings.Join(parts, " "))
			pages = append(pages, outcome.Pages...)
		}
	}

	slog.Debug("crawl finished", "seeds", len(urls), "texts", len(texts), "pages", len(pages))
	return texts, pages, nil
}

// cancelAll stops remote jobs after the local crawl has already failed or
// been cancelled, so it runs on a short detached context: the caller's
// context may be done, which would abort the cancel requests before they
// are sent.
func (c *Client) cancelAll(ctx context.Context, inflight map[string]bool) {
	if len(inflight) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	for jobID := range inflight {
		c.Cancel(ctx, jobID)
	}
}
