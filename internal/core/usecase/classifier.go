package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
	"github.com/Likith-Athreya/doc-intake/internal/core/ports"
)

// Classifier detects the surface format of a document with structural
// heuristics and asks the completion oracle for its business intent.
type Classifier struct {
	oracle ports.CompletionOracle
	store  ports.ContextStore
	logger *slog.Logger
}

func NewClassifier(oracle ports.CompletionOracle, store ports.ContextStore, logger *slog.Logger) *Classifier {
	return &Classifier{
		oracle: oracle,
		store:  store,
		logger: logger,
	}
}

// Classify never fails on oracle trouble: an unreachable or misbehaving
// oracle degrades the intent to General. The only error path is the
// classification log write when a thread id is supplied.
func (c *Classifier) Classify(ctx context.Context, content, filename, threadID string) (domain.Classification, error) {
	classification := domain.Classification{
		Format:     detectFormat(content, filename),
		Intent:     c.detectIntent(ctx, content),
		Confidence: contentConfidence(content),
	}

	if threadID != "" {
		entry := domain.ProcessingResult{
			Success:        true,
			Data:           map[string]any{"classification": classification},
			AgentType:      domain.AgentClassifier,
			Classification: classification,
			Timestamp:      time.Now().UTC(),
			ThreadID:       threadID,
		}
		if err := c.store.AppendLog(ctx, entry); err != nil {
			return domain.Classification{}, fmt.Errorf("log classification: %w", err)
		}
	}

	return classification, nil
}

// Route maps the detected format to the agent that handles it. PDF-derived
// text has no dedicated agent and goes to the correspondence agent.
func (c *Classifier) Route(ctx context.Context, content, filename, threadID string) (string, domain.Classification, error) {
	classification, err := c.Classify(ctx, content, filename, threadID)
	if err != nil {
		return "", domain.Classification{}, err
	}

	agentID := domain.AgentMail
	if classification.Format == domain.FormatJSON {
		agentID = domain.AgentRecord
	}
	return agentID, classification, nil
}

func (c *Classifier) detectIntent(ctx context.Context, content string) string {
	reply, err := c.oracle.Complete(ctx, userPrompt(buildIntentPrompt(content)))
	if err != nil {
		c.logger.Warn("intent detection degraded to General", "error", err)
		return domain.IntentGeneral
	}
	return strings.TrimSpace(reply)
}

// detectFormat applies the structural heuristics in fixed precedence:
// PDF marker, JSON shape, email tokens, then plain text.
func detectFormat(content, filename string) domain.Format {
	name := strings.ToLower(filename)

	switch {
	case strings.HasSuffix(name, ".pdf") || strings.Contains(truncate(content, 100), "PDF"):
		return domain.FormatPDF
	case strings.HasSuffix(name, ".json") || strings.HasPrefix(strings.TrimSpace(content), "{"):
		return domain.FormatJSON
	case strings.Contains(content, "From:") || strings.Contains(content, "Subject:") || strings.Contains(content, "@"):
		return domain.FormatEmail
	default:
		return domain.FormatText
	}
}

// A coarse length proxy, not a true confidence score. Kept exactly for
// compatibility with historical log entries.
func contentConfidence(content string) domain.Confidence {
	if len(content) > 100 {
		return domain.ConfidenceHigh
	}
	return domain.ConfidenceMedium
}
