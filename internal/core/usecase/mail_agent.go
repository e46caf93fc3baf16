package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
	"github.com/Likith-Athreya/doc-intake/internal/core/ports"
)

// Tier order is deliberate: high wins over medium wins over low, and
// anything unmatched defaults to medium, a conservative bias.
var urgencyTiers = []struct {
	level    string
	keywords []string
}{
	{"high", []string{"urgent", "asap", "immediately", "emergency", "critical", "deadline"}},
	{"medium", []string{"soon", "priority", "important", "needed", "required"}},
	{"low", []string{"when possible", "no rush", "fyi", "update"}},
}

const defaultUrgency = "medium"

type emailStructure struct {
	From    string
	To      string
	Subject string
	Date    string
	Body    string
}

// CorrespondenceAgent handles email and free-text documents: header
// parsing, oracle-assisted extraction, urgency assessment and a CRM-shaped
// projection of the outcome.
type CorrespondenceAgent struct {
	oracle ports.CompletionOracle
	store  ports.ContextStore
	logger *slog.Logger
}

func NewCorrespondenceAgent(oracle ports.CompletionOracle, store ports.ContextStore, logger *slog.Logger) *CorrespondenceAgent {
	return &CorrespondenceAgent{
		oracle: oracle,
		store:  store,
		logger: logger,
	}
}

func (a *CorrespondenceAgent) Process(ctx context.Context, content string, cls domain.Classification, threadID string) domain.ProcessingResult {
	structure := parseEmail(content)
	extracted := a.extractInfo(ctx, structure, cls)
	urgency := assessUrgency(structure.Body)
	crm := formatForCRM(extracted, urgency, time.Now().UTC())

	update := domain.ContextUpdate{
		Sender: stringField(extracted, "sender"),
		Topic:  stringField(extracted, "subject"),
		Fields: extracted,
	}
	if err := a.store.UpsertContext(ctx, threadID, update); err != nil {
		return failedResult(domain.AgentMail, cls, threadID, fmt.Sprintf("email processing error: %v", err))
	}

	return domain.ProcessingResult{
		Success: true,
		Data: map[string]any{
			"email_structure": map[string]any{
				"from":    structure.From,
				"to":      structure.To,
				"subject": structure.Subject,
				"date":    structure.Date,
				"body":    structure.Body,
			},
			"extracted_info": extracted,
			"urgency_level":  urgency,
			"crm_formatted":  crm,
		},
		AgentType:      domain.AgentMail,
		Classification: cls,
		Timestamp:      time.Now().UTC(),
		ThreadID:       threadID,
	}
}

// parseEmail never fails: standard header parsing first, then a scan of
// the first ten lines for literal header prefixes with the whole content
// as body.
func parseEmail(content string) emailStructure {
	if msg, err := mail.ReadMessage(strings.NewReader(content)); err == nil {
		if body, readErr := io.ReadAll(msg.Body); readErr == nil {
			return emailStructure{
				From:    msg.Header.Get("From"),
				To:      msg.Header.Get("To"),
				Subject: msg.Header.Get("Subject"),
				Date:    msg.Header.Get("Date"),
				Body:    string(body),
			}
		}
	}

	structure := emailStructure{Body: content}
	lines := strings.Split(content, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "From:"):
			structure.From = strings.TrimSpace(strings.TrimPrefix(line, "From:"))
		case strings.HasPrefix(line, "To:"):
			structure.To = strings.TrimSpace(strings.TrimPrefix(line, "To:"))
		case strings.HasPrefix(line, "Subject:"):
			structure.Subject = strings.TrimSpace(strings.TrimPrefix(line, "Subject:"))
		case strings.HasPrefix(line, "Date:"):
			structure.Date = strings.TrimSpace(strings.TrimPrefix(line, "Date:"))
		}
	}
	return structure
}

// extractInfo falls back to a minimal record built from the already-parsed
// headers when the oracle reply is unusable.
func (a *CorrespondenceAgent) extractInfo(ctx context.Context, structure emailStructure, cls domain.Classification) map[string]any {
	reply, err := a.oracle.Complete(ctx, userPrompt(buildMailExtractionPrompt(cls.Intent, structure)))
	if err == nil {
		var extracted map[string]any
		if jsonErr := json.Unmarshal([]byte(extractJSONObject(reply)), &extracted); jsonErr == nil && extracted != nil {
			return extracted
		}
		a.logger.Warn("oracle mail reply not parseable, using header fallback")
	} else {
		a.logger.Warn("oracle mail extraction failed, using header fallback", "error", err)
	}

	return map[string]any{
		"sender":       structure.From,
		"subject":      structure.Subject,
		"key_points":   []any{truncate(structure.Body, 200) + "..."},
		"action_items": []any{},
		"entities":     []any{},
		"sentiment":    "neutral",
	}
}

func assessUrgency(body string) string {
	bodyLower := strings.ToLower(body)
	for _, tier := range urgencyTiers {
		for _, keyword := range tier.keywords {
			if strings.Contains(bodyLower, keyword) {
				return tier.level
			}
		}
	}
	return defaultUrgency
}

// formatForCRM is a pure projection of the extracted record and urgency.
func formatForCRM(extracted map[string]any, urgency string, now time.Time) map[string]any {
	category := stringField(extracted, "sentiment")
	if category == "" {
		category = "neutral"
	}
	return map[string]any{
		"contact_name": stringField(extracted, "sender"),
		"company":      stringField(extracted, "sender_company"),
		"subject":      stringField(extracted, "subject"),
		"priority":     urgency,
		"category":     category,
		"summary":      strings.Join(stringList(extracted, "key_points"), " | "),
		"next_actions": listField(extracted, "action_items"),
		"created_date": now.Format(time.RFC3339),
		"status":       "new",
	}
}

func stringField(m map[string]any, key string) string {
	if value, ok := m[key].(string); ok {
		return value
	}
	return ""
}

func listField(m map[string]any, key string) []any {
	if value, ok := m[key].([]any); ok {
		return value
	}
	return []any{}
}

func stringList(m map[string]any, key string) []string {
	items := listField(m, key)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprint(item))
	}
	return out
}
