package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
	"github.com/Likith-Athreya/doc-intake/internal/core/ports"
)

// Agent is the common contract of the extraction agents. Process captures
// its own faults and always yields a result.
type Agent interface {
	Process(ctx context.Context, content string, cls domain.Classification, threadID string) domain.ProcessingResult
}

// Orchestrator drives the pipeline: classify, dispatch, persist, return.
// It is the last line of defense; no fault escapes to the caller.
type Orchestrator struct {
	classifier *Classifier
	agents     map[string]Agent
	store      ports.ContextStore
	files      ports.FileReader
	logger     *slog.Logger
}

func NewOrchestrator(
	classifier *Classifier,
	recordAgent *StructuredRecordAgent,
	mailAgent *CorrespondenceAgent,
	store ports.ContextStore,
	files ports.FileReader,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		classifier: classifier,
		agents: map[string]Agent{
			domain.AgentRecord: recordAgent,
			domain.AgentMail:   mailAgent,
		},
		store:  store,
		files:  files,
		logger: logger,
	}
}

func (o *Orchestrator) ProcessInput(ctx context.Context, content, filename, threadID string) domain.ProcessingResult {
	if threadID == "" {
		threadID = newThreadID(time.Now())
	}
	o.logger.Info("processing input", "thread_id", threadID, "filename", filename)

	agentID, classification, err := o.classifier.Route(ctx, content, filename, threadID)
	if err != nil {
		return o.systemFailure(ctx, threadID, "classification failed", err)
	}
	o.logger.Info("routed",
		"thread_id", threadID,
		"format", classification.Format,
		"intent", classification.Intent,
		"agent", agentID,
	)

	agent, ok := o.agents[agentID]
	if !ok {
		return o.systemFailure(ctx, threadID, fmt.Sprintf("no agent registered for %q", agentID), nil)
	}

	result := agent.Process(ctx, content, classification, threadID)

	if err := o.store.AppendLog(ctx, result); err != nil {
		return o.systemFailure(ctx, threadID, "persist processing log", err)
	}

	o.logger.Info("processing finished",
		"thread_id", threadID,
		"agent", result.AgentType,
		"success", result.Success,
	)
	return result
}

func (o *Orchestrator) ProcessFile(ctx context.Context, path, threadID string) domain.ProcessingResult {
	content, err := o.files.ReadFile(ctx, path)
	if err != nil {
		if threadID == "" {
			threadID = "unknown"
		}
		return o.systemFailure(ctx, threadID, fmt.Sprintf("read file %s", path), err)
	}
	return o.ProcessInput(ctx, content, filepath.Base(path), threadID)
}

// systemFailure wraps an unhandled fault into a result with the system
// agent id and an unknown classification. The entry is logged best-effort;
// a broken store must not mask the original fault.
func (o *Orchestrator) systemFailure(ctx context.Context, threadID, operation string, err error) domain.ProcessingResult {
	message := fmt.Sprintf("system error: %s", operation)
	if err != nil {
		message = fmt.Sprintf("system error: %s: %v", operation, err)
	}
	o.logger.Error("pipeline fault", "thread_id", threadID, "error", message)

	result := domain.ProcessingResult{
		Success: false,
		Data:    map[string]any{},
		Classification: domain.Classification{
			Format: domain.FormatUnknown,
			Intent: domain.IntentUnknown,
		},
		AgentType: domain.AgentSystem,
		Timestamp: time.Now().UTC(),
		ThreadID:  threadID,
		Errors:    []string{message},
	}
	if logErr := o.store.AppendLog(ctx, result); logErr != nil {
		o.logger.Warn("could not log system failure", "thread_id", threadID, "error", logErr)
	}
	return result
}

// newThreadID has second granularity; collisions between concurrent calls
// without a supplied id are an accepted limitation.
func newThreadID(now time.Time) string {
	return "thread_" + now.Format("20060102_150405")
}
