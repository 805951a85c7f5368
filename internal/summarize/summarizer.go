package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
)

// Summarization failure kinds.
var (
	ErrEmptySource  = errors.New("no source text to summarize")
	ErrEmptySummary = errors.New("summarization produced empty text")
)

// Completer produces one model completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Tokenizer turns text into model tokens and back. Chunk boundaries are
// measured in tokens so each chunk plus the running summary fits the model's
// context window.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// Config holds chunking configuration.
type Config struct {
	ChunkTokens   int
	OverlapTokens int
}

// Summarizer folds arbitrarily long source text into one bounded-size summary
// by feeding token-bounded chunks through the model one at a time. Each call
// merges a new chunk into the accumulated summary, so chunks are processed
// strictly in sequence.
type Summarizer struct {
	completer     Completer
	tokenizer     Tokenizer
	chunkTokens   int
	overlapTokens int
}

// withDefaults fills in invalid chunking values. The overlap always ends up
// strictly below the chunk size, keeping the chunk step positive.
func (c Config) withDefaults() Config {
	if c.ChunkTokens <= 0 {
		c.ChunkTokens = 32000
	}
	if c.OverlapTokens < 0 || c.OverlapTokens >= c.ChunkTokens {
		c.OverlapTokens = min(500, c.ChunkTokens/2)
	}
	return c
}

// New creates a Summarizer backed by the cl100k_base encoding.
func New(completer Completer, config Config) (*Summarizer, error) {
	config = config.withDefaults()

	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoding: %w", err)
	}

	return &Summarizer{
		completer:     completer,
		tokenizer:     tiktokenTokenizer{encoding},
		chunkTokens:   config.ChunkTokens,
		overlapTokens: config.OverlapTokens,
	}, nil
}

const mergePromptFormat = `Сейчас я буду давать тебе информацию с сайта %s про компанию в следующем формате:
1) Уже накопленная тобой информация с сайта.
2) Новая информация с сайта.
Твоя задача - накапливать информацию о компании, очищая текст от лишнего и оставляя только самое важное.
Если некоторая информация повторяется, то оставь её в единственном экземпляре.
Твоя накопленная информация:
%s
Новая информация с сайта:
%s`

// Summarize folds all source texts into one summary. The accumulated summary
// is passed back to the model with every new chunk, and the model's output
// becomes the accumulator for the next chunk.
func (s *Summarizer) Summarize(ctx context.Context, url string, sourceTexts []string) (string, error) {
	if len(sourceTexts) == 0 {
		return "", ErrEmptySource
	}

	var summary string
	for _, text := range sourceTexts {
		if text == "" {
			continue
		}
		for i, chunk := range s.chunks(text) {
			merged, err := s.completer.Complete(ctx, fmt.Sprintf(mergePromptFormat, url, summary, chunk))
			if err != nil {
				return "", fmt.Errorf("summarize chunk %d: %w", i, err)
			}
			summary = merged
			slog.Debug("chunk folded into summary", "url", url, "chunk", i, "summary_len", len(summary))
		}
	}

	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}

// chunks splits text into token-bounded pieces with a fixed overlap between
// consecutive pieces.
func (s *Summarizer) chunks(text string) []string {
	tokens := s.tokenizer.Encode(text)
	if len(tokens) <= s.chunkTokens {
		return []string{text}
	}

	step := s.chunkTokens - s.overlapTokens
	var out []string
	for start := 0; start < len(tokens); start += step {
		end := start + s.chunkTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		out = append(out, s.tokenizer.Decode(tokens[start:end]))
		if end == len(tokens) {
			break
		}
	}
	return out
}

type tiktokenTokenizer struct {
	encoding *tiktoken.Tiktoken
}

func (t tiktokenTokenizer) Encode(text string) []int {
	return t.encoding.Encode(text, nil, nil)
}

func (t tiktokenTokenizer) Decode(tokens []int) string {
	return t.encoding.Decode(tokens)
}
