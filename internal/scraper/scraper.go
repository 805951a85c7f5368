package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"companybot/internal/processor"
	"companybot/pkg/models"
)

// Config holds scraper configuration.
type Config struct {
	Delay     time.Duration
	MaxDepth  int
	PageLimit int
	Timeout   time.Duration
	UserAgent string
}

// Scraper crawls a site directly. It is the fallback used when no crawl
// provider API key is configured, and satisfies the same Fetch contract as
// the crawl client.
type Scraper struct {
	config    Config
	processor *processor.Processor
}

// New creates a new Scraper with the given configuration.
func New(config Config) *Scraper {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "companybot/1.0"
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 2
	}
	if config.PageLimit == 0 {
		config.PageLimit = 15
	}
	return &Scraper{
		config:    config,
		processor: processor.New(),
	}
}

// Fetch crawls each seed URL within its own domain, bounded by depth and page
// count, and returns one concatenated cleaned text per seed plus every page
// visited.
func (s *Scraper) Fetch(ctx context.Context, urls []string) ([]string, []models.Page, error) {
	var (
		texts    []string
		allPages []models.Page
	)

	for _, seed := range urls {
		pages, err := s.scrapeSite(ctx, seed)
		if err != nil {
			return nil, nil, err
		}
		if len(pages) == 0 {
			slog.Warn("scrape produced no data", "url", seed)
			continue
		}

		var parts []string
		for _, page := range pages {
			parts = append(parts, page.Markdown)
		}
		texts = append(texts, strings.Join(parts, " "))
		allPages = append(allPages, pages...)
	}

	return texts, allPages, nil
}

func (s *Scraper) scrapeSite(ctx context.Context, startURL string) ([]models.Page, error) {
	parsedURL, err := url.Parse(startURL)
	if err != nil {
		return nil, err
	}

	var (
		pages []models.Page
		mu    sync.Mutex
	)

	c := colly.NewCollector(
		colly.MaxDepth(s.config.MaxDepth),
		colly.UserAgent(s.config.UserAgent),
	)

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       s.config.Delay,
		Parallelism: 2,
	})
	c.SetRequestTimeout(s.config.Timeout)

	c.OnRequest(func(r *colly.Request) {
		mu.Lock()
		full := len(pages) >= s.config.PageLimit
		mu.Unlock()
		if full || ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode >= 400 {
			return
		}

		pageURL := r.Request.URL.String()
		content := string(r.Body)
		contentType := r.Headers.Get("Content-Type")

		var title string
		if !processor.LooksLikeMarkdown(pageURL, contentType, content) {
			title = s.processor.ExtractTitle(content)
			converted, err := s.processor.Convert(content)
			if err != nil {
				slog.Warn("html conversion failed", "url", pageURL, "error", err)
				return
			}
			content = converted
		}

		text := processor.Clean(content)
		if text == "" {
			return
		}

		mu.Lock()
		if len(pages) < s.config.PageLimit {
			pages = append(pages, models.Page{URL: pageURL, Title: title, Markdown: text})
		}
		mu.Unlock()
	})

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		absoluteURL := e.Request.AbsoluteURL(e.Attr("href"))
		linkURL, err := url.Parse(absoluteURL)
		if err != nil {
			return
		}
		if linkURL.Host == parsedURL.Host {
			e.Request.Visit(absoluteURL)
		}
	})

	if err := c.Visit(startURL); err != nil {
		slog.Debug("visit error (continuing)", "url", startURL, "error", err)
		return pages, nil
	}
	c.Wait()

	if ctx.Err() != nil {
		return pages, ctx.Err()
	}

	slog.Debug("scrape complete", "url", startURL, "pages", len(pages))
	return pages, nil
}
