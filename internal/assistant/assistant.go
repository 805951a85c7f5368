package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"companybot/internal/corpus"
)

// RuntimeAPI is the slice of the OpenAI client the assistant layer needs.
type RuntimeAPI interface {
	CreateAssistant(ctx context.Context, request openai.AssistantRequest) (openai.Assistant, error)
	ModifyAssistant(ctx context.Context, assistantID string, request openai.AssistantRequest) (openai.Assistant, error)
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (openai.Run, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string, runID *string) (openai.MessagesList, error)
	GetFile(ctx context.Context, fileID string) (openai.File, error)
}

// corpusCreator is the corpus store operation the assistant layer depends on.
type corpusCreator interface {
	CreateAndPopulate(ctx context.Context, name string, filePaths []string, instructions string) (*corpus.Handle, error)
}

const assistantName = "AiCompanyAssistant"

const assistantInstructionsFormat = `Ты выступаешь в качестве ассистента в компании %s,
и выполняешь роль менеджера чата на веб-сайте %s, принадлежащем этой компании.
Твоя основная задача - обслуживать пользователей, предоставляя им точную информацию
о компании и её продуктах/услугах. Ты должен адекватно реагировать на вопросы,
связанные с деятельностью компании, и корректно отказываться от обсуждения несвязанных тем.
Важно поддерживать позитивный тон разговора, стараясь понять потребности клиента и предлагая ему помощь.`

const corpusNameFormat = "Данные о компании %s."

const corpusInstructions = `В случае, если ты не можешь дать ответ из своего контекста на запрос пользователя
на тему компании, попробуй поискать ответ в данных файлах.`

// Assistant wraps a remote assistant bound to one company: its id, the
// instructions its runs carry, and the corpus attached to it. It lives in the
// registry cache for the life of the process.
type Assistant struct {
	api             RuntimeAPI
	id              string
	runInstructions string
	corpusID        string
	pollDelay       time.Duration
}

// ID returns the remote assistant identifier.
func (a *Assistant) ID() string {
	return a.id
}

// newAssistant creates the remote assistant, creates and populates its
// retrieval corpus from the given files, and attaches the corpus.
func newAssistant(ctx context.Context, api RuntimeAPI, store corpusCreator, model, companyName, companyURL string, dataFilePaths []string, pollDelay time.Duration) (*Assistant, error) {
	name := assistantName
	instructions := fmt.Sprintf(assistantInstructionsFormat, companyName, companyURL)

	created, err := api.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        model,
		Name:         &name,
		Instructions: &instructions,
		Tools:        []openai.AssistantTool{{Type: openai.AssistantToolTypeFileSearch}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create assistant: %w", err)
	}

	handle, err := store.CreateAndPopulate(ctx, fmt.Sprintf(corpusNameFormat, companyName), dataFilePaths, corpusInstructions)
	if err != nil {
		return nil, err
	}

	_, err = api.ModifyAssistant(ctx, created.ID, openai.AssistantRequest{
		Model: model,
		ToolResources: &openai.AssistantToolResource{
			FileSearch: &openai.AssistantToolFileSearch{
				VectorStoreIDs: []string{handle.ID},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to attach corpus to assistant: %w", err)
	}

	slog.Info("assistant created", "assistant_id", created.ID, "corpus_id", handle.ID, "company", companyName)
	return &Assistant{
		api:             api,
		id:              created.ID,
		runInstructions: handle.Instructions,
		corpusID:        handle.ID,
		pollDelay:       pollDelay,
	}, nil
}

// restoredAssistant wraps an already-existing remote assistant id without any
// remote calls. Used after a restart, when the id is persisted but the
// in-memory handle is gone.
func restoredAssistant(api RuntimeAPI, assistantID string, pollDelay time.Duration) *Assistant {
	return &Assistant{
		api:             api,
		id:              assistantID,
		runInstructions: corpusInstructions,
		pollDelay:       pollDelay,
	}
}

// Send posts one user turn to the thread, runs the assistant on it, and
// returns the assistant's reply with citation markers rewritten to readable
// source tags.
func (a *Assistant) Send(ctx context.Context, threadID, prompt string) (string, error) {
	_, err := a.api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to post message: %w", err)
	}

	run, err := a.api.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID:  a.id,
		Instructions: a.runInstructions,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}

	for run.Status == openai.RunStatusQueued || run.Status == openai.RunStatusInProgress {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(a.pollDelay):
		}

		run, err = a.api.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			return "", fmt.Errorf("failed to check run: %w", err)
		}
	}

	if run.Status != openai.RunStatusCompleted {
		return "", fmt.Errorf("%w: status %q", ErrRunFailed, run.Status)
	}

	limit := 1
	order := "desc"
	messages, err := a.api.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return "", fmt.Errorf("failed to list messages: %w", err)
	}
	if len(messages.Messages) == 0 || messages.Messages[0].Role != openai.ChatMessageRoleAssistant {
		return "", fmt.Errorf("%w: no assistant reply in thread", ErrRunFailed)
	}

	return a.resolveCitations(ctx, messages.Messages[0])
}

// annotation is the decoded form of one file-citation marker inside a reply.
type annotation struct {
	Type         string `json:"type"`
	Text         string `json:"text"`
	FileCitation *struct {
		FileID string `json:"file_id"`
	} `json:"file_citation"`
}

// resolveCitations replaces each file-citation marker in the reply with a
// human-readable source tag, resolving file ids to filenames, in original
// order. Annotations that cannot be resolved are left in place.
func (a *Assistant) resolveCitations(ctx context.Context, message openai.Message) (string, error) {
	var text *openai.MessageText
	for _, content := range message.Content {
		if content.Text != nil {
			text = content.Text
			break
		}
	}
	if text == nil {
		return "", fmt.Errorf("%w: assistant reply has no text content", ErrRunFailed)
	}

	reply := text.Value
	for _, raw := range text.Annotations {
		data, err := json.Marshal(raw)
		if err != nil {
			continue
		}
		var ann annotation
		if err := json.Unmarshal(data, &ann); err != nil {
			continue
		}
		if ann.FileCitation == nil || ann.Text == "" {
			continue
		}

		file, err := a.api.GetFile(ctx, ann.FileCitation.FileID)
		if err != nil {
			slog.Warn("failed to resolve citation", "file_id", ann.FileCitation.FileID, "error", err)
			continue
		}
		reply = strings.Replace(reply, ann.Text, fmt.Sprintf("[Source: %s]", file.FileName), 1)
	}

	return reply, nil
}
