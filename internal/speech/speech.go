// Package speech converts between Telegram voice messages and text using the
// OpenAI audio endpoints.
package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

// API is the slice of the OpenAI client the speech layer needs.
type API interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
	CreateSpeech(ctx context.Context, request openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// Converter transcribes voice notes and synthesizes voice replies.
type Converter struct {
	api     API
	voice   openai.SpeechVoice
	tempDir string
}

// New creates a converter. tempDir holds intermediate audio files; empty
// means the system temp directory. An empty voice falls back to alloy.
func New(api API, voice, tempDir string) *Converter {
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Converter{api: api, voice: openai.SpeechVoice(voice), tempDir: tempDir}
}

// ToText transcribes the audio file at path.
func (c *Converter) ToText(ctx context.Context, path string) (string, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: path,
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	return resp.Text, nil
}

// ToVoice synthesizes text into an OGG/Opus file and returns its path. The
// caller owns the file and removes it when done.
func (c *Converter) ToVoice(ctx context.Context, text string) (string, error) {
	resp, err := c.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: openai.SpeechResponseFormatOpus,
	})
	if err != nil {
		return "", fmt.Errorf("failed to synthesize speech: %w", err)
	}
	defer resp.Close()

	path := filepath.Join(c.tempDir, fmt.Sprintf("reply_%s.ogg", uuid.NewString()))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create voice file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write voice file: %w", err)
	}
	return path, nil
}
