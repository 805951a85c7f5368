package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/singleflight"

	"companybot/internal/repository"
	"companybot/pkg/models"
)

// Fetcher turns seed URLs into cleaned page text. Implemented by the crawl
// client and the fallback scraper.
type Fetcher interface {
	Fetch(ctx context.Context, urls []string) ([]string, []models.Page, error)
}

// Summarizer folds source texts into one summary.
type Summarizer interface {
	Summarize(ctx context.Context, url string, sourceTexts []string) (string, error)
}

// Archiver keeps a copy of crawl output in object storage. Optional.
type Archiver interface {
	StoreCrawl(ctx context.Context, companyURL string, pages []models.Page) (string, error)
}

// Config holds registry configuration.
type Config struct {
	Model         string
	RunPollDelay  time.Duration
	RetryCooldown time.Duration
	ScratchDir    string
}

// Registry is the onboarding orchestrator. For each company it ensures a
// persisted record, raw crawl data, a summary, and a remote assistant exist,
// persisting after every completed stage so a retry resumes instead of
// recomputing. Handles are cached by assistant id for the life of the
// process.
type Registry struct {
	api        RuntimeAPI
	repo       repository.CompanyRepository
	fetcher    Fetcher
	summarizer Summarizer
	corpora    corpusCreator
	archiver   Archiver // nil when archiving is disabled
	config     Config

	mu    sync.RWMutex
	cache map[string]*Assistant

	// group collapses concurrent onboarding of the same company URL into a
	// single pipeline run.
	group singleflight.Group
}

// NewRegistry creates the registry.
func NewRegistry(api RuntimeAPI, repo repository.CompanyRepository, fetcher Fetcher, summarizer Summarizer, corpora corpusCreator, archiver Archiver, config Config) *Registry {
	if config.RunPollDelay <= 0 {
		config.RunPollDelay = time.Second
	}
	if config.RetryCooldown <= 0 {
		config.RetryCooldown = 90 * time.Second
	}
	if config.ScratchDir == "" {
		config.ScratchDir = os.TempDir()
	}

	return &Registry{
		api:        api,
		repo:       repo,
		fetcher:    fetcher,
		summarizer: summarizer,
		corpora:    corpora,
		archiver:   archiver,
		config:     config,
		cache:      make(map[string]*Assistant),
	}
}

// GetOrCreate returns the assistant for a company, onboarding it first when
// needed. Repeated calls with the same URL return the cached handle without
// any remote work; concurrent calls with the same URL share one pipeline run.
func (r *Registry) GetOrCreate(ctx context.Context, companyName, companyURL string) (*Assistant, error) {
	result, err, _ := r.group.Do(companyURL, func() (any, error) {
		return r.getOrCreate(ctx, companyName, companyURL)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Assistant), nil
}

// GetByCompanyID resolves a company by its persisted id (deep-link flow) and
// returns its assistant, onboarding if the record is incomplete.
func (r *Registry) GetByCompanyID(ctx context.Context, companyID uint) (*Assistant, error) {
	company, err := r.repo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return r.GetOrCreate(ctx, company.CompanyName, company.CompanyURL)
}

func (r *Registry) getOrCreate(ctx context.Context, companyName, companyURL string) (*Assistant, error) {
	company, err := r.ensureRecord(ctx, companyName, companyURL)
	if err != nil {
		return nil, onboardingErr(companyName, err)
	}

	// Short-circuit: a known assistant id never triggers remote creation.
	if company.AssistantID != nil {
		if cached, ok := r.cached(*company.AssistantID); ok {
			return cached, nil
		}
		restored := restoredAssistant(r.api, *company.AssistantID, r.config.RunPollDelay)
		r.store(restored)
		return restored, nil
	}

	sourceTexts, err := r.ensureRawData(ctx, company)
	if err != nil {
		return nil, onboardingErr(companyName, err)
	}

	if err := r.ensureSummary(ctx, company, sourceTexts); err != nil {
		return nil, onboardingErr(companyName, err)
	}

	created, err := r.ensureAssistant(ctx, company)
	if err != nil {
		return nil, onboardingErr(companyName, err)
	}
	return created, nil
}

// ensureRecord resolves the persisted record for a URL, inserting one if the
// company was never seen. On repeat onboarding the latest name wins.
func (r *Registry) ensureRecord(ctx context.Context, companyName, companyURL string) (*repository.Company, error) {
	company, err := r.repo.GetByURL(ctx, companyURL)
	if err == repository.ErrNotFound {
		company = &repository.Company{CompanyName: companyName, CompanyURL: companyURL}
		if err := r.repo.Insert(ctx, company); err != nil {
			return nil, err
		}
		return company, nil
	}
	if err != nil {
		return nil, err
	}

	if companyName != "" && company.CompanyName != companyName {
		company.CompanyName = companyName
		if err := r.repo.Update(ctx, company); err != nil {
			return nil, err
		}
	}
	return company, nil
}

// ensureRawData crawls the company site unless raw data is already
// persisted. An empty crawl is retried once after a cooldown to absorb
// transient provider throttling.
func (r *Registry) ensureRawData(ctx context.Context, company *repository.Company) ([]string, error) {
	if company.WebSiteRawData != nil && *company.WebSiteRawData != "" {
		return []string{*company.WebSiteRawData}, nil
	}

	texts, pages, err := r.fetcher.Fetch(ctx, []string{company.CompanyURL})
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		slog.Warn("crawl returned no data, retrying after cooldown", "url", company.CompanyURL)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.config.RetryCooldown):
		}
		texts, pages, err = r.fetcher.Fetch(ctx, []string{company.CompanyURL})
		if err != nil {
			return nil, err
		}
		if len(texts) == 0 {
			return nil, fmt.Errorf("crawl of %s produced no data", company.CompanyURL)
		}
	}

	raw := strings.Join(texts, " ")
	company.WebSiteRawData = &raw
	if err := r.repo.Update(ctx, company); err != nil {
		return nil, err
	}

	if r.archiver != nil && len(pages) > 0 {
		if prefix, err := r.archiver.StoreCrawl(ctx, company.CompanyURL, pages); err != nil {
			slog.Warn("crawl archive failed", "url", company.CompanyURL, "error", err)
		} else {
			slog.Debug("crawl archived", "url", company.CompanyURL, "prefix", prefix)
		}
	}

	return texts, nil
}

func (r *Registry) ensureSummary(ctx context.Context, company *repository.Company, sourceTexts []string) error {
	if company.WebSiteSummaryData != nil && *company.WebSiteSummaryData != "" {
		return nil
	}

	summary, err := r.summarizer.Summarize(ctx, company.CompanyURL, sourceTexts)
	if err != nil {
		return err
	}

	company.WebSiteSummaryData = &summary
	return r.repo.Update(ctx, company)
}

// ensureAssistant writes the summary to a scratch file, creates the remote
// assistant with its corpus, persists the assistant id and caches the handle.
// The scratch file is removed on every exit path.
func (r *Registry) ensureAssistant(ctx context.Context, company *repository.Company) (*Assistant, error) {
	scratchPath := filepath.Join(r.config.ScratchDir, fmt.Sprintf("%s_%s.txt", company.CompanyName, uuid.NewString()))
	if err := os.WriteFile(scratchPath, []byte(*company.WebSiteSummaryData), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write scratch file: %w", err)
	}
	defer os.Remove(scratchPath)

	created, err := newAssistant(ctx, r.api, r.corpora, r.config.Model, company.CompanyName, company.CompanyURL, []string{scratchPath}, r.config.RunPollDelay)
	if err != nil {
		return nil, err
	}

	assistantID := created.ID()
	company.AssistantID = &assistantID
	if err := r.repo.Update(ctx, company); err != nil {
		return nil, err
	}

	r.store(created)
	return created, nil
}

// Request relays one chat turn to a cached assistant. An unknown or empty
// assistant id is a no-op signal ("assistant unavailable"), not an error.
func (r *Registry) Request(ctx context.Context, threadID, prompt, assistantID string) (string, bool, error) {
	if assistantID == "" {
		return "", false, nil
	}
	cached, ok := r.cached(assistantID)
	if !ok {
		return "", false, nil
	}

	reply, err := cached.Send(ctx, threadID, prompt)
	if err != nil {
		return "", true, err
	}
	return reply, true, nil
}

// CreateThread opens a new remote conversation thread.
func (r *Registry) CreateThread(ctx context.Context) (string, error) {
	thread, err := r.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	return thread.ID, nil
}

func (r *Registry) cached(assistantID string) (*Assistant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.cache[assistantID]
	return a, ok
}

func (r *Registry) store(a *Assistant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[a.ID()] = a
}
