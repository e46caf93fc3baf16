package ports

import (
	"context"
	"io"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
)

// InputProcessor is the inbound contract for the classification-routing-
// extraction pipeline. Both calls always return a ProcessingResult; faults
// are converted into failed results, never propagated.
type InputProcessor interface {
	ProcessInput(ctx context.Context, content, filename, threadID string) domain.ProcessingResult
	ProcessFile(ctx context.Context, path, threadID string) domain.ProcessingResult
}

// DocumentIngestor is the inbound contract for async document upload.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType, threadID string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for worker-side processing of
// an uploaded document.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
