package corpus

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type fakeVectorStoreAPI struct {
	files         int
	batchStatuses []string // consumed one per retrieve; last repeats
	completed     int
	createErr     error
	fileErr       error
}

func (f *fakeVectorStoreAPI) CreateVectorStore(_ context.Context, req openai.VectorStoreRequest) (openai.VectorStore, error) {
	if f.createErr != nil {
		return openai.VectorStore{}, f.createErr
	}
	return openai.VectorStore{ID: "vs-1", Name: req.Name}, nil
}

func (f *fakeVectorStoreAPI) CreateFile(_ context.Context, req openai.FileRequest) (openai.File, error) {
	if f.fileErr != nil {
		return openai.File{}, f.fileErr
	}
	f.files++
	return openai.File{ID: fmt.Sprintf("file-%d", f.files), FileName: req.FileName}, nil
}

func (f *fakeVectorStoreAPI) CreateVectorStoreFileBatch(_ context.Context, _ string, req openai.VectorStoreFileBatchRequest) (openai.VectorStoreFileBatch, error) {
	return f.batch("in_progress", len(req.FileIDs)), nil
}

func (f *fakeVectorStoreAPI) RetrieveVectorStoreFileBatch(_ context.Context, _, _ string) (openai.VectorStoreFileBatch, error) {
	status := f.batchStatuses[0]
	if len(f.batchStatuses) > 1 {
		f.batchStatuses = f.batchStatuses[1:]
	}
	return f.batch(status, f.files), nil
}

func (f *fakeVectorStoreAPI) batch(status string, total int) openai.VectorStoreFileBatch {
	b := openai.VectorStoreFileBatch{ID: "batch-1", Status: status}
	b.FileCounts.Total = total
	b.FileCounts.Completed = f.completed
	return b
}

func TestCreateAndPopulate(t *testing.T) {
	api := &fakeVectorStoreAPI{
		batchStatuses: []string{"in_progress", "completed"},
		completed:     2,
	}
	s := New(api, time.Millisecond)

	handle, err := s.CreateAndPopulate(t.Context(), "Acme data", []string{"a.txt", "b.txt"}, "look here")
	if err != nil {
		t.Fatalf("CreateAndPopulate() error = %v", err)
	}
	if handle.ID != "vs-1" {
		t.Errorf("handle.ID = %q, want vs-1", handle.ID)
	}
	if handle.Instructions != "look here" {
		t.Errorf("handle.Instructions = %q", handle.Instructions)
	}
	if api.files != 2 {
		t.Errorf("uploaded %d files, want 2", api.files)
	}
}

func TestCreateAndPopulate_PartialBatchFails(t *testing.T) {
	api := &fakeVectorStoreAPI{
		batchStatuses: []string{"completed"},
		completed:     1, // one of two files made it
	}
	s := New(api, time.Millisecond)

	_, err := s.CreateAndPopulate(t.Context(), "Acme data", []string{"a.txt", "b.txt"}, "")
	if !errors.Is(err, ErrUploadIncomplete) {
		t.Fatalf("error = %v, want ErrUploadIncomplete", err)
	}
}

func TestCreateAndPopulate_FailedBatch(t *testing.T) {
	api := &fakeVectorStoreAPI{
		batchStatuses: []string{"failed"},
		completed:     0,
	}
	s := New(api, time.Millisecond)

	_, err := s.CreateAndPopulate(t.Context(), "Acme data", []string{"a.txt"}, "")
	if !errors.Is(err, ErrUploadIncomplete) {
		t.Fatalf("error = %v, want ErrUploadIncomplete", err)
	}
}

func TestCreateAndPopulate_NoFiles(t *testing.T) {
	s := New(&fakeVectorStoreAPI{}, time.Millisecond)

	if _, err := s.CreateAndPopulate(t.Context(), "Acme data", nil, ""); !errors.Is(err, ErrUploadIncomplete) {
		t.Fatalf("error = %v, want ErrUploadIncomplete", err)
	}
}

func TestCreateAndPopulate_UploadError(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	s := New(&fakeVectorStoreAPI{fileErr: wantErr}, time.Millisecond)

	if _, err := s.CreateAndPopulate(t.Context(), "Acme data", []string{"a.txt"}, ""); !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want wrapped %v", err, wantErr)
	}
}
