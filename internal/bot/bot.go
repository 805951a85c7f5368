// Package bot is the Telegram front end: it walks users through company
// onboarding and relays chat turns to their company assistant.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"companybot/internal/assistant"
	"companybot/internal/repository"
	"companybot/internal/speech"
	"companybot/internal/validate"
)

// Config holds bot configuration.
type Config struct {
	Token      string
	PollPeriod int
	TempDir    string
	Debug      bool
}

// Bot runs the Telegram long-polling loop.
type Bot struct {
	api      *tgbotapi.BotAPI
	registry *assistant.Registry
	repo     repository.CompanyRepository
	speech   *speech.Converter
	sessions *sessionStore
	config   Config
}

// New connects to the Telegram API and prepares the bot.
func New(config Config, registry *assistant.Registry, repo repository.CompanyRepository, converter *speech.Converter) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(config.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	api.Debug = config.Debug
	if config.PollPeriod <= 0 {
		config.PollPeriod = 30
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}

	return &Bot{
		api:      api,
		registry: registry,
		repo:     repo,
		speech:   converter,
		sessions: newSessionStore(),
		config:   config,
	}, nil
}

// Run polls for updates until the context is cancelled. Each update is
// handled in its own goroutine so slow onboarding never blocks the loop.
func (b *Bot) Run(ctx context.Context) error {
	slog.Info("bot started", "username", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.config.PollPeriod
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			slog.Info("bot stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in update handler", "chat_id", msg.Chat.ID, "panic", r)
		}
	}()

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case msg.Voice != nil:
		b.handleVoice(ctx, msg)
	case msg.Text != "":
		b.handleText(ctx, msg)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "help":
		b.reply(msg.Chat.ID, msgHelp)
	case "clear":
		b.sessions.clear(msg.Chat.ID)
		b.reply(msg.Chat.ID, msgSessionCleared)
	default:
		b.reply(msg.Chat.ID, msgHelp)
	}
}

// handleStart begins onboarding, or reactivates an existing assistant when
// the command carries a deep-link payload.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	payload := msg.CommandArguments()
	if payload == "" {
		b.sessions.set(msg.Chat.ID, session{state: stateAwaitingName})
		b.reply(msg.Chat.ID, msgAskName)
		return
	}

	companyID, err := decodeStartPayload(payload)
	if err != nil {
		slog.Warn("bad deep-link payload", "chat_id", msg.Chat.ID, "error", err)
		b.reply(msg.Chat.ID, msgHelp)
		return
	}

	b.reply(msg.Chat.ID, msgAssistantLoading)

	a, err := b.registry.GetByCompanyID(ctx, companyID)
	if err != nil {
		slog.Error("failed to load assistant from deep link", "company_id", companyID, "error", err)
		b.reply(msg.Chat.ID, msgAssistantFailed)
		return
	}

	threadID, err := b.registry.CreateThread(ctx)
	if err != nil {
		slog.Error("failed to create thread", "chat_id", msg.Chat.ID, "error", err)
		b.reply(msg.Chat.ID, msgAssistantFailed)
		return
	}

	b.sessions.set(msg.Chat.ID, session{
		state:       stateActivated,
		threadID:    threadID,
		assistantID: a.ID(),
	})

	b.reply(msg.Chat.ID, msgAssistantActivated)

	greeting, ok, err := b.registry.Request(ctx, threadID, msgAssistantGreetPrompt, a.ID())
	if err != nil || !ok {
		slog.Warn("assistant greeting failed", "chat_id", msg.Chat.ID, "error", err)
		return
	}
	b.reply(msg.Chat.ID, greeting)
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	sess := b.sessions.get(msg.Chat.ID)

	switch sess.state {
	case stateAwaitingName:
		b.handleCompanyName(msg, sess)
	case stateAwaitingURL:
		b.handleCompanyURL(ctx, msg, sess)
	case stateActivated:
		b.handleChatTurn(ctx, msg, sess)
	default:
		b.reply(msg.Chat.ID, msgHelp)
	}
}

func (b *Bot) handleCompanyName(msg *tgbotapi.Message, sess session) {
	name, err := validate.CompanyName(msg.Text)
	switch {
	case errors.Is(err, validate.ErrNameLength):
		b.reply(msg.Chat.ID, msgBadNameLength)
		return
	case err != nil:
		b.reply(msg.Chat.ID, msgBadName)
		return
	}

	sess.companyName = name
	sess.state = stateAwaitingURL
	b.sessions.set(msg.Chat.ID, sess)
	b.reply(msg.Chat.ID, msgAskURL)
}

// handleCompanyURL validates the URL and runs the full onboarding pipeline.
// This is the slow path; the user gets an acknowledgement first.
func (b *Bot) handleCompanyURL(ctx context.Context, msg *tgbotapi.Message, sess session) {
	companyURL, err := validate.URL(msg.Text)
	switch {
	case errors.Is(err, validate.ErrNoURL):
		b.reply(msg.Chat.ID, msgNoURL)
		return
	case err != nil:
		b.reply(msg.Chat.ID, msgInvalidURL)
		return
	}
	if err := validate.CheckReachable(ctx, companyURL); err != nil {
		slog.Warn("company site unreachable", "url", companyURL, "error", err)
		b.reply(msg.Chat.ID, msgInvalidURL)
		return
	}

	b.reply(msg.Chat.ID, msgOnboardingStarted)

	a, err := b.registry.GetOrCreate(ctx, sess.companyName, companyURL)
	if err != nil {
		slog.Error("onboarding failed", "company", sess.companyName, "url", companyURL, "error", err)
		b.reply(msg.Chat.ID, msgAssistantFailed)
		return
	}

	threadID, err := b.registry.CreateThread(ctx)
	if err != nil {
		slog.Error("failed to create thread", "chat_id", msg.Chat.ID, "error", err)
		b.reply(msg.Chat.ID, msgAssistantFailed)
		return
	}

	sess.state = stateActivated
	sess.threadID = threadID
	sess.assistantID = a.ID()
	b.sessions.set(msg.Chat.ID, sess)

	link, err := b.persistDeepLink(ctx, companyURL)
	if err != nil {
		slog.Warn("failed to persist deep link", "url", companyURL, "error", err)
		b.reply(msg.Chat.ID, msgAssistantActivated)
		return
	}
	b.reply(msg.Chat.ID, msgAssistantCreated+link)
}

// persistDeepLink stores the shareable t.me link on the company record and
// returns it.
func (b *Bot) persistDeepLink(ctx context.Context, companyURL string) (string, error) {
	company, err := b.repo.GetByURL(ctx, companyURL)
	if err != nil {
		return "", err
	}
	link := startLink(b.api.Self.UserName, company.ID)
	company.AssistantURL = &link
	if err := b.repo.Update(ctx, company); err != nil {
		return "", err
	}
	return link, nil
}

func (b *Bot) handleChatTurn(ctx context.Context, msg *tgbotapi.Message, sess session) {
	b.reply(msg.Chat.ID, msgWait)

	response, ok, err := b.registry.Request(ctx, sess.threadID, msg.Text, sess.assistantID)
	if err != nil {
		slog.Error("chat turn failed", "chat_id", msg.Chat.ID, "error", err)
		b.reply(msg.Chat.ID, msgAssistantFailed)
		return
	}
	if !ok {
		b.reply(msg.Chat.ID, msgAssistantLoading)
		return
	}
	b.reply(msg.Chat.ID, response)
}

// handleVoice transcribes a voice note, answers it, and sends the reply both
// as text and as a synthesized voice message.
func (b *Bot) handleVoice(ctx context.Context, msg *tgbotapi.Message) {
	sess := b.sessions.get(msg.Chat.ID)
	if sess.state != stateActivated {
		b.reply(msg.Chat.ID, msgHelp)
		return
	}

	b.reply(msg.Chat.ID, msgWait)

	voicePath, err := b.downloadVoice(ctx, msg.Voice.FileID)
	if err != nil {
		slog.Error("failed to download voice message", "chat_id", msg.Chat.ID, "error", err)
		b.reply(msg.Chat.ID, msgAssistantFailed)
		return
	}
	defer os.Remove(voicePath)

	text, err := b.speech.ToText(ctx, voicePath)
	if err != nil {
		slog.Error("transcription failed", "chat_id", msg.Chat.ID, "error", err)
		b.reply(msg.Chat.ID, msgAssistantFailed)
		return
	}

	response, ok, err := b.registry.Request(ctx, sess.threadID, text, sess.assistantID)
	if err != nil || !ok {
		slog.Error("voice chat turn failed", "chat_id", msg.Chat.ID, "error", err)
		b.reply(msg.Chat.ID, msgAssistantFailed)
		return
	}
	b.reply(msg.Chat.ID, response)

	replyPath, err := b.speech.ToVoice(ctx, response)
	if err != nil {
		slog.Warn("speech synthesis failed", "chat_id", msg.Chat.ID, "error", err)
		return
	}
	defer os.Remove(replyPath)

	voice := tgbotapi.NewVoice(msg.Chat.ID, tgbotapi.FilePath(replyPath))
	if _, err := b.api.Send(voice); err != nil {
		slog.Warn("failed to send voice reply", "chat_id", msg.Chat.ID, "error", err)
	}
}

// downloadVoice fetches a Telegram voice file to local disk and returns its
// path. The caller removes the file.
func (b *Bot) downloadVoice(ctx context.Context, fileID string) (string, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve voice file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download voice file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("voice file download returned status %d", resp.StatusCode)
	}

	path := filepath.Join(b.config.TempDir, fmt.Sprintf("voice_%s.ogg", uuid.NewString()))
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save voice file: %w", err)
	}
	return path, nil
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		slog.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}
