package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func citationAnnotation(marker, fileID string) map[string]any {
	return map[string]any{
		"type": "file_citation",
		"text": marker,
		"file_citation": map[string]any{
			"file_id": fileID,
		},
	}
}

func TestSend_RewritesCitations(t *testing.T) {
	api := newFakeRuntimeAPI()
	api.replyText = "Our FAQ covers this【4:0†source】 and pricing is listed here【4:1†source】."
	api.replyAnns = []any{
		citationAnnotation("【4:0†source】", "file_faq"),
		citationAnnotation("【4:1†source】", "file_pricing"),
	}
	api.files["file_faq"] = "faq.txt"
	api.files["file_pricing"] = "pricing.txt"

	a := restoredAssistant(api, "asst_1", time.Millisecond)
	reply, err := a.Send(context.Background(), "thread_1", "tell me about pricing")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	want := "Our FAQ covers this[Source: faq.txt] and pricing is listed here[Source: pricing.txt]."
	if reply != want {
		t.Errorf("reply = %q\nwant    %q", reply, want)
	}
}

func TestSend_UnresolvableCitationLeftInPlace(t *testing.T) {
	api := newFakeRuntimeAPI()
	api.replyText = "See the docs【4:0†source】."
	api.replyAnns = []any{citationAnnotation("【4:0†source】", "file_gone")}

	a := restoredAssistant(api, "asst_1", time.Millisecond)
	reply, err := a.Send(context.Background(), "thread_1", "docs?")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply != "See the docs【4:0†source】." {
		t.Errorf("reply = %q", reply)
	}
}

func TestSend_RunFailure(t *testing.T) {
	api := newFakeRuntimeAPI()
	api.runStatus = openai.RunStatusFailed

	a := restoredAssistant(api, "asst_1", time.Millisecond)
	_, err := a.Send(context.Background(), "thread_1", "hi")
	if !errors.Is(err, ErrRunFailed) {
		t.Errorf("error = %v, want ErrRunFailed", err)
	}
}

func TestSend_RequiresActionTreatedAsFailure(t *testing.T) {
	api := newFakeRuntimeAPI()
	api.runStatus = openai.RunStatusRequiresAction

	a := restoredAssistant(api, "asst_1", time.Millisecond)
	_, err := a.Send(context.Background(), "thread_1", "hi")
	if !errors.Is(err, ErrRunFailed) {
		t.Errorf("error = %v, want ErrRunFailed", err)
	}
}

func TestCreateThread(t *testing.T) {
	api := newFakeRuntimeAPI()
	r := NewRegistry(api, newMemoryRepository(), &fakeFetcher{}, &fakeSummarizer{}, &fakeCorpusStore{}, nil, Config{Model: "gpt-4o"})

	id, err := r.CreateThread(context.Background())
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	if id != "thread_1" {
		t.Errorf("thread id = %q", id)
	}
}
