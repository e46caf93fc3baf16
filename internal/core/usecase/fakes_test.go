package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOracle struct {
	replies []string
	err     error
	prompts []string
}

func (f *fakeOracle) Complete(_ context.Context, messages []domain.PromptMessage) (string, error) {
	if len(messages) > 0 {
		f.prompts = append(f.prompts, messages[len(messages)-1].Content)
	}
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	out := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return out, nil
}

type fakeContextStore struct {
	logs      []domain.ProcessingResult
	contexts  map[string]*domain.ThreadContext
	appendErr error
	upsertErr error
}

func newFakeContextStore() *fakeContextStore {
	return &fakeContextStore{contexts: map[string]*domain.ThreadContext{}}
}

func (f *fakeContextStore) AppendLog(_ context.Context, result domain.ProcessingResult) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.logs = append(f.logs, result)
	return nil
}

func (f *fakeContextStore) GetContext(_ context.Context, threadID string) (*domain.ThreadContext, error) {
	return f.contexts[threadID], nil
}

func (f *fakeContextStore) UpsertContext(_ context.Context, threadID string, update domain.ContextUpdate) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	now := time.Now().UTC()
	threadCtx, ok := f.contexts[threadID]
	if !ok {
		threadCtx = &domain.ThreadContext{ThreadID: threadID, CreatedAt: now}
		f.contexts[threadID] = threadCtx
	}
	if update.Sender != "" {
		threadCtx.Sender = update.Sender
	}
	if update.Topic != "" {
		threadCtx.Topic = update.Topic
	}
	if update.Fields != nil {
		threadCtx.LastExtractedFields = update.Fields
	}
	threadCtx.UpdatedAt = now
	return nil
}

func (f *fakeContextStore) ListLog(_ context.Context, threadID string, limit int) ([]domain.LogEntry, error) {
	entries := []domain.LogEntry{}
	for i := len(f.logs) - 1; i >= 0 && len(entries) < limit; i-- {
		if threadID != "" && f.logs[i].ThreadID != threadID {
			continue
		}
		entries = append(entries, domain.LogEntry{
			ThreadID:     f.logs[i].ThreadID,
			SourceFormat: f.logs[i].Classification.Format,
			Intent:       f.logs[i].Classification.Intent,
			AgentType:    f.logs[i].AgentType,
		})
	}
	return entries, nil
}

type fakeFileReader struct {
	content string
	err     error
}

func (f *fakeFileReader) ReadFile(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

func (f *fakeFileReader) ReadStored(context.Context, *domain.Document) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}
