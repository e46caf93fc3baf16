package ports

import (
	"context"
	"io"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
)

// CompletionOracle sends a prompt to the text-completion service and
// returns the raw reply. The reply is never assumed to be well-formed
// structured output; callers must tolerate both error returns and
// error-shaped text.
type CompletionOracle interface {
	Complete(ctx context.Context, messages []domain.PromptMessage) (string, error)
}

// ContextStore is the durable keyed state shared by the pipeline:
// per-thread context records plus the append-only processing log.
type ContextStore interface {
	AppendLog(ctx context.Context, result domain.ProcessingResult) error
	// GetContext returns nil (no error) when the thread has never been seen.
	GetContext(ctx context.Context, threadID string) (*domain.ThreadContext, error)
	// UpsertContext creates the context on first reference and applies the
	// update atomically with respect to concurrent updates to the same
	// thread id. Empty sender/topic never clear stored values.
	UpsertContext(ctx context.Context, threadID string, update domain.ContextUpdate) error
	// ListLog returns entries most recent first. An empty threadID lists
	// across all threads.
	ListLog(ctx context.Context, threadID string, limit int) ([]domain.LogEntry, error)
}

// DocumentRepository persists uploaded-document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes document intake events.
type MessageQueue interface {
	PublishDocumentReceived(ctx context.Context, event domain.DocumentEvent) error
	SubscribeDocumentReceived(ctx context.Context, handler func(context.Context, domain.DocumentEvent) error) error
}

// FileReader turns a stored or local file into plain text by
// extension-appropriate means (PDF, XLSX, plain text).
type FileReader interface {
	ReadFile(ctx context.Context, path string) (string, error)
	ReadStored(ctx context.Context, doc *domain.Document) (string, error)
}
