package config

import "time"

// Config holds all application configuration.
type Config struct {
	Telegram  Telegram  `mapstructure:"telegram"`
	OpenAI    OpenAI    `mapstructure:"openai"`
	Crawl     Crawl     `mapstructure:"crawl"`
	Scraper   Scraper   `mapstructure:"scraper"`
	Summarize Summarize `mapstructure:"summarize"`
	Database  Database  `mapstructure:"database"`
	Archive   Archive   `mapstructure:"archive"`
}

// Telegram holds bot transport configuration.
type Telegram struct {
	Token       string `mapstructure:"token"`
	PollTimeout int    `mapstructure:"poll_timeout"` // long-poll timeout in seconds
}

// OpenAI holds assistant runtime configuration.
type OpenAI struct {
	APIKey         string        `mapstructure:"api_key"`
	AssistantModel string        `mapstructure:"assistant_model"`
	SummaryModel   string        `mapstructure:"summary_model"`
	SummaryTemp    float32       `mapstructure:"summary_temperature"`
	TTSVoice       string        `mapstructure:"tts_voice"`
	RunPollDelay   time.Duration `mapstructure:"run_poll_delay"`
}

// Crawl holds configuration for the remote crawl provider.
// An empty APIKey switches onboarding to the local scraper.
type Crawl struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	MaxDepth      int           `mapstructure:"max_depth"`
	PageLimit     int           `mapstructure:"page_limit"`
	ExcludePaths  []string      `mapstructure:"exclude_paths"`
	MaxJobs       int           `mapstructure:"max_jobs"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryCooldown time.Duration `mapstructure:"retry_cooldown"`
}

// Scraper holds fallback local crawler configuration.
type Scraper struct {
	Delay     time.Duration `mapstructure:"delay"`
	MaxDepth  int           `mapstructure:"max_depth"`
	PageLimit int           `mapstructure:"page_limit"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// Summarize holds chunked summarization configuration.
type Summarize struct {
	ChunkTokens   int `mapstructure:"chunk_tokens"`
	OverlapTokens int `mapstructure:"overlap_tokens"`
}

// Database holds company persistence configuration.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Archive holds optional S3/MinIO crawl archive configuration.
// An empty Endpoint disables archiving.
type Archive struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Telegram: Telegram{
			PollTimeout: 60,
		},
		OpenAI: OpenAI{
			AssistantModel: "gpt-4o",
			SummaryModel:   "gpt-4o",
			SummaryTemp:    0.1,
			TTSVoice:       "alloy",
			RunPollDelay:   time.Second,
		},
		Crawl: Crawl{
			BaseURL:       "https://api.firecrawl.dev",
			MaxDepth:      2,
			PageLimit:     15,
			ExcludePaths:  []string{"blog/*", "news/*"},
			MaxJobs:       3,
			PollInterval:  500 * time.Millisecond,
			RetryCooldown: 90 * time.Second,
		},
		Scraper: Scraper{
			Delay:     1 * time.Second,
			MaxDepth:  2,
			PageLimit: 15,
			Timeout:   30 * time.Second,
			UserAgent: "companybot/1.0",
		},
		Summarize: Summarize{
			ChunkTokens:   32000,
			OverlapTokens: 500,
		},
		Archive: Archive{
			Bucket: "companybot",
		},
	}
}
