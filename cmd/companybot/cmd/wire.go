package cmd

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"companybot/internal/archive"
	"companybot/internal/assistant"
	"companybot/internal/config"
	"companybot/internal/corpus"
	"companybot/internal/crawl"
	"companybot/internal/llm"
	"companybot/internal/repository"
	"companybot/internal/scraper"
	"companybot/internal/speech"
	"companybot/internal/summarize"
)

// buildRegistry wires the onboarding pipeline from configuration: OpenAI
// runtime, summarizer, persistence, crawl provider (or the local scraper
// fallback), and the optional crawl archive.
func buildRegistry(ctx context.Context, cfg config.Config) (*assistant.Registry, repository.CompanyRepository, *speech.Converter, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, nil, nil, fmt.Errorf("openai.api_key is required")
	}
	if cfg.Database.DSN == "" {
		return nil, nil, nil, fmt.Errorf("database.dsn is required")
	}

	client := openai.NewClient(cfg.OpenAI.APIKey)

	completer, err := llm.New(llm.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.SummaryModel,
		Temperature: cfg.OpenAI.SummaryTemp,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	summarizer, err := summarize.New(completer, summarize.Config{
		ChunkTokens:   cfg.Summarize.ChunkTokens,
		OverlapTokens: cfg.Summarize.OverlapTokens,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create summarizer: %w", err)
	}

	repo, err := repository.Open(cfg.Database.DSN)
	if err != nil {
		return nil, nil, nil, err
	}

	fetcher, err := buildFetcher(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	var archiver assistant.Archiver
	if cfg.Archive.Endpoint != "" {
		store, err := archive.New(archive.Config{
			Endpoint:        cfg.Archive.Endpoint,
			Bucket:          cfg.Archive.Bucket,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
			UseSSL:          cfg.Archive.UseSSL,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create crawl archive: %w", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, nil, nil, err
		}
		archiver = store
	}

	registry := assistant.NewRegistry(client, repo, fetcher, summarizer,
		corpus.New(client, cfg.OpenAI.RunPollDelay), archiver,
		assistant.Config{
			Model:         cfg.OpenAI.AssistantModel,
			RunPollDelay:  cfg.OpenAI.RunPollDelay,
			RetryCooldown: cfg.Crawl.RetryCooldown,
		})

	return registry, repo, speech.New(client, cfg.OpenAI.TTSVoice, ""), nil
}

// buildFetcher picks the crawl provider when an API key is configured, and
// the local colly scraper otherwise.
func buildFetcher(cfg config.Config) (assistant.Fetcher, error) {
	if cfg.Crawl.APIKey != "" {
		client, err := crawl.New(crawl.Config{
			APIKey:       cfg.Crawl.APIKey,
			BaseURL:      cfg.Crawl.BaseURL,
			MaxDepth:     cfg.Crawl.MaxDepth,
			PageLimit:    cfg.Crawl.PageLimit,
			ExcludePaths: cfg.Crawl.ExcludePaths,
			MaxJobs:      cfg.Crawl.MaxJobs,
			PollInterval: cfg.Crawl.PollInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create crawl client: %w", err)
		}
		return client, nil
	}

	slog.Info("no crawl API key configured, using local scraper")
	return scraper.New(scraper.Config{
		Delay:     cfg.Scraper.Delay,
		MaxDepth:  cfg.Scraper.MaxDepth,
		PageLimit: cfg.Scraper.PageLimit,
		Timeout:   cfg.Scraper.Timeout,
		UserAgent: cfg.Scraper.UserAgent,
	}), nil
}
