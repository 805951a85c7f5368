package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// chatAPI is the slice of the OpenAI client the completer needs.
type chatAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds LLM client configuration.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
}

// Client wraps the chat completions API behind a single Complete call.
type Client struct {
	api         chatAPI
	model       string
	temperature float32
}

// New creates a new LLM client.
func New(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &Client{
		api:         openai.NewClient(config.APIKey),
		model:       config.Model,
		temperature: config.Temperature,
	}, nil
}

// Complete sends a prompt to the model and returns the trimmed response text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
