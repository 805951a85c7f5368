package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// wordTokenizer treats every space-separated word as one token, so tests can
// exercise chunk boundaries without the real BPE tables.
type wordTokenizer struct{}

func (wordTokenizer) Encode(text string) []int {
	words := strings.Fields(text)
	tokens := make([]int, len(words))
	for i := range words {
		tokens[i] = i
	}
	wordStore = words
	return tokens
}

func (wordTokenizer) Decode(tokens []int) string {
	words := make([]string, len(tokens))
	for i, tok := range tokens {
		words[i] = wordStore[tok]
	}
	return strings.Join(words, " ")
}

var wordStore []string

type fakeCompleter struct {
	calls   []string
	reply   func(call int, prompt string) string
	failAt  int
	failErr error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.calls = append(f.calls, prompt)
	if f.failErr != nil && len(f.calls) == f.failAt {
		return "", f.failErr
	}
	if f.reply != nil {
		return f.reply(len(f.calls), prompt), nil
	}
	return fmt.Sprintf("summary after call %d", len(f.calls)), nil
}

func newTestSummarizer(c Completer, chunkTokens, overlap int) *Summarizer {
	return &Summarizer{
		completer:     c,
		tokenizer:     wordTokenizer{},
		chunkTokens:   chunkTokens,
		overlapTokens: overlap,
	}
}

func TestSummarize_SingleChunk(t *testing.T) {
	completer := &fakeCompleter{}
	s := newTestSummarizer(completer, 100, 10)

	got, err := s.Summarize(t.Context(), "https://acme.test", []string{"short company description"})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "summary after call 1" {
		t.Errorf("summary = %q", got)
	}
	if len(completer.calls) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(completer.calls))
	}
	if !strings.Contains(completer.calls[0], "https://acme.test") {
		t.Error("prompt should carry the source URL")
	}
	if !strings.Contains(completer.calls[0], "short company description") {
		t.Error("prompt should carry the chunk text")
	}
}

func TestSummarize_FoldsChunksSequentially(t *testing.T) {
	// 10 words with chunk size 4 and overlap 1 yield chunks w0-w3, w3-w6, w6-w9.
	text := "w0 w1 w2 w3 w4 w5 w6 w7 w8 w9"

	completer := &fakeCompleter{
		reply: func(call int, prompt string) string {
			return fmt.Sprintf("acc%d", call)
		},
	}
	s := newTestSummarizer(completer, 4, 1)

	got, err := s.Summarize(t.Context(), "https://acme.test", []string{text})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(completer.calls) != 3 {
		t.Fatalf("expected 3 model calls, got %d", len(completer.calls))
	}
	if got != "acc3" {
		t.Errorf("final summary = %q, want output of the last call", got)
	}

	// Every call after the first must carry the previous call's output.
	for i := 1; i < len(completer.calls); i++ {
		want := fmt.Sprintf("acc%d", i)
		if !strings.Contains(completer.calls[i], want) {
			t.Errorf("call %d prompt missing accumulated summary %q", i+1, want)
		}
	}

	// Overlap: the second chunk must re-include the last word of the first.
	if !strings.Contains(completer.calls[1], "w3") {
		t.Error("second chunk should overlap with the first")
	}
}

func TestConfigWithDefaults(t *testing.T) {
	tests := []struct {
		name        string
		in          Config
		wantChunk   int
		wantOverlap int
	}{
		{name: "zero config", in: Config{}, wantChunk: 32000, wantOverlap: 500},
		{name: "valid config untouched", in: Config{ChunkTokens: 1000, OverlapTokens: 200}, wantChunk: 1000, wantOverlap: 200},
		{name: "negative overlap", in: Config{ChunkTokens: 400, OverlapTokens: -1}, wantChunk: 400, wantOverlap: 200},
		{name: "overlap above small chunk", in: Config{ChunkTokens: 400, OverlapTokens: 600}, wantChunk: 400, wantOverlap: 200},
		{name: "overlap equals chunk", in: Config{ChunkTokens: 4, OverlapTokens: 4}, wantChunk: 4, wantOverlap: 2},
		{name: "single token chunk", in: Config{ChunkTokens: 1, OverlapTokens: 600}, wantChunk: 1, wantOverlap: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.withDefaults()
			if got.ChunkTokens != tt.wantChunk || got.OverlapTokens != tt.wantOverlap {
				t.Errorf("withDefaults(%+v) = %+v, want chunk %d overlap %d",
					tt.in, got, tt.wantChunk, tt.wantOverlap)
			}
			if got.OverlapTokens >= got.ChunkTokens {
				t.Errorf("withDefaults(%+v) left overlap %d >= chunk %d",
					tt.in, got.OverlapTokens, got.ChunkTokens)
			}
		})
	}
}

func TestSummarize_OversizedOverlapConfig(t *testing.T) {
	// A chunk size below the overlap default used to survive normalization
	// and blow up chunking on any multi-chunk text.
	cfg := Config{ChunkTokens: 400, OverlapTokens: 600}.withDefaults()

	completer := &fakeCompleter{
		reply: func(call int, prompt string) string {
			return fmt.Sprintf("acc%d", call)
		},
	}
	s := newTestSummarizer(completer, cfg.ChunkTokens, cfg.OverlapTokens)

	words := make([]string, 2000)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}

	got, err := s.Summarize(t.Context(), "https://acme.test", []string{strings.Join(words, " ")})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(completer.calls) < 2 {
		t.Fatalf("expected multiple chunks, got %d model calls", len(completer.calls))
	}
	if got != fmt.Sprintf("acc%d", len(completer.calls)) {
		t.Errorf("final summary = %q, want output of the last call", got)
	}
}

func TestSummarize_EmptyInput(t *testing.T) {
	s := newTestSummarizer(&fakeCompleter{}, 10, 1)

	if _, err := s.Summarize(t.Context(), "https://acme.test", nil); !errors.Is(err, ErrEmptySource) {
		t.Errorf("error = %v, want ErrEmptySource", err)
	}

	if _, err := s.Summarize(t.Context(), "https://acme.test", []string{""}); !errors.Is(err, ErrEmptySummary) {
		t.Errorf("error = %v, want ErrEmptySummary", err)
	}
}

func TestSummarize_EmptyModelOutput(t *testing.T) {
	completer := &fakeCompleter{
		reply: func(int, string) string { return "" },
	}
	s := newTestSummarizer(completer, 10, 1)

	if _, err := s.Summarize(t.Context(), "https://acme.test", []string{"some text"}); !errors.Is(err, ErrEmptySummary) {
		t.Errorf("error = %v, want ErrEmptySummary", err)
	}
}

func TestSummarize_ModelError(t *testing.T) {
	wantErr := errors.New("model unavailable")
	completer := &fakeCompleter{failAt: 1, failErr: wantErr}
	s := newTestSummarizer(completer, 10, 1)

	if _, err := s.Summarize(t.Context(), "https://acme.test", []string{"some text"}); !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want wrapped %v", err, wantErr)
	}
}
