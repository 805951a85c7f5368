package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrUploadIncomplete means the provider reported fewer completed files than
// were submitted, or the batch ended in a non-completed state. Partial
// success is not accepted; the remote corpus is left orphaned.
var ErrUploadIncomplete = errors.New("corpus upload incomplete")

// vectorStoreAPI is the slice of the OpenAI client the store needs.
type vectorStoreAPI interface {
	CreateVectorStore(ctx context.Context, request openai.VectorStoreRequest) (openai.VectorStore, error)
	CreateFile(ctx context.Context, request openai.FileRequest) (openai.File, error)
	CreateVectorStoreFileBatch(ctx context.Context, vectorStoreID string, request openai.VectorStoreFileBatchRequest) (openai.VectorStoreFileBatch, error)
	RetrieveVectorStoreFileBatch(ctx context.Context, vectorStoreID, batchID string) (openai.VectorStoreFileBatch, error)
}

// Handle identifies a populated remote corpus.
type Handle struct {
	ID           string
	Name         string
	Instructions string
}

// Store creates named remote corpora and uploads files into them.
type Store struct {
	api       vectorStoreAPI
	pollDelay time.Duration
}

// New creates a corpus store.
func New(api vectorStoreAPI, pollDelay time.Duration) *Store {
	if pollDelay <= 0 {
		pollDelay = time.Second
	}
	return &Store{api: api, pollDelay: pollDelay}
}

// CreateAndPopulate creates a remote corpus, uploads every listed file and
// blocks until the provider reports the batch complete. Any mismatch between
// submitted and completed file counts fails the whole call.
func (s *Store) CreateAndPopulate(ctx context.Context, name string, filePaths []string, instructions string) (*Handle, error) {
	if len(filePaths) == 0 {
		return nil, fmt.Errorf("%w: no files to upload", ErrUploadIncomplete)
	}

	store, err := s.api.CreateVectorStore(ctx, openai.VectorStoreRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("failed to create corpus %q: %w", name, err)
	}

	fileIDs := make([]string, 0, len(filePaths))
	for _, path := range filePaths {
		file, err := s.api.CreateFile(ctx, openai.FileRequest{
			FileName: path,
			FilePath: path,
			Purpose:  "assistants",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload %q to corpus %q: %w", path, name, err)
		}
		fileIDs = append(fileIDs, file.ID)
	}

	batch, err := s.api.CreateVectorStoreFileBatch(ctx, store.ID, openai.VectorStoreFileBatchRequest{
		FileIDs: fileIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create file batch for corpus %q: %w", name, err)
	}

	batch, err = s.waitForBatch(ctx, store.ID, batch)
	if err != nil {
		return nil, err
	}

	if batch.Status != "completed" || batch.FileCounts.Completed != len(filePaths) {
		return nil, fmt.Errorf("%w: corpus %q status %q, %d/%d files completed",
			ErrUploadIncomplete, name, batch.Status, batch.FileCounts.Completed, len(filePaths))
	}

	slog.Info("corpus populated", "corpus_id", store.ID, "name", name, "files", len(filePaths))
	return &Handle{ID: store.ID, Name: name, Instructions: instructions}, nil
}

func (s *Store) waitForBatch(ctx context.Context, storeID string, batch openai.VectorStoreFileBatch) (openai.VectorStoreFileBatch, error) {
	for batch.Status == "in_progress" {
		select {
		case <-ctx.Done():
			return batch, ctx.Err()
		case <-time.After(s.pollDelay):
		}

		var err error
		batch, err = s.api.RetrieveVectorStoreFileBatch(ctx, storeID, batch.ID)
		if err != nil {
			return batch, fmt.Errorf("failed to check file batch: %w", err)
		}
	}
	return batch, nil
}
