package llm

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type fakeChatAPI struct {
	reply      string
	err        error
	lastPrompt string
	lastModel  string
}

func (f *fakeChatAPI) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastModel = request.Model
	if len(request.Messages) > 0 {
		f.lastPrompt = request.Messages[0].Content
	}
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.reply}},
		},
	}, nil
}

func TestComplete(t *testing.T) {
	api := &fakeChatAPI{reply: "  summary text \n"}
	c := &Client{api: api, model: "gpt-4o"}

	got, err := c.Complete(context.Background(), "summarize this")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "summary text" {
		t.Errorf("reply = %q, want trimmed text", got)
	}
	if api.lastModel != "gpt-4o" {
		t.Errorf("model = %q", api.lastModel)
	}
	if api.lastPrompt != "summarize this" {
		t.Errorf("prompt = %q", api.lastPrompt)
	}
}

func TestComplete_APIError(t *testing.T) {
	api := &fakeChatAPI{err: errors.New("rate limited")}
	c := &Client{api: api, model: "gpt-4o"}

	if _, err := c.Complete(context.Background(), "x"); err == nil {
		t.Fatal("expected error from API failure")
	}
}

func TestNew_RequiresKeyAndModel(t *testing.T) {
	if _, err := New(Config{Model: "gpt-4o"}); err == nil {
		t.Error("missing API key accepted")
	}
	if _, err := New(Config{APIKey: "sk-test"}); err == nil {
		t.Error("missing model accepted")
	}
}
