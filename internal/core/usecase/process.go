package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
	"github.com/Likith-Athreya/doc-intake/internal/core/ports"
)

// ProcessDocumentUseCase is the worker side of the async intake path: it
// reads a stored document back as plain text and runs the pipeline on it,
// tracking status on the document record.
type ProcessDocumentUseCase struct {
	repo     ports.DocumentRepository
	files    ports.FileReader
	pipeline ports.InputProcessor
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	files ports.FileReader,
	pipeline ports.InputProcessor,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:     repo,
		files:    files,
		pipeline: pipeline,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	result, err := uc.runPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}
	if !result.Success {
		err := domain.WrapError(domain.ErrSystem, "pipeline", errors.New(strings.Join(result.Errors, "; ")))
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) runPipeline(ctx context.Context, documentID string) (domain.ProcessingResult, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return domain.ProcessingResult{}, fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.files.ReadStored(ctx, doc)
	if err != nil {
		return domain.ProcessingResult{}, fmt.Errorf("read stored document: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return domain.ProcessingResult{}, domain.WrapError(domain.ErrParse, "read stored document", errors.New("empty extracted text"))
	}

	return uc.pipeline.ProcessInput(ctx, text, doc.Filename, doc.ThreadID), nil
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
