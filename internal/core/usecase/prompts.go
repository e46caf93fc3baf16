package usecase

import (
	"fmt"
	"strings"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
)

const (
	intentPreviewChars = 500
	bodyPreviewChars   = 1000
)

func buildIntentPrompt(content string) string {
	return fmt.Sprintf(`Analyze the following content and classify its intent. Choose from:
- Invoice: Bills, payment requests, receipts
- RFQ: Request for Quote, procurement requests
- Complaint: Customer complaints, issues, feedback
- Regulation: Legal documents, compliance, policies
- General: Other business communications

Content preview: %s

Respond with only the intent category (Invoice/RFQ/Complaint/Regulation/General):`,
		truncate(content, intentPreviewChars))
}

func buildRecordExtractionPrompt(schema domain.TargetSchema, rawDocument string) string {
	return fmt.Sprintf(`Extract the following fields from this JSON data:
Required fields: [%s]
Optional fields: [%s]

Source data: %s

Return a JSON object with the extracted fields. If a required field is missing, set it to null.`,
		strings.Join(schema.Required, ", "),
		strings.Join(schema.Optional, ", "),
		rawDocument)
}

func buildMailExtractionPrompt(intent string, mail emailStructure) string {
	return fmt.Sprintf(`Extract key information from this email based on its classification as %q:

From: %s
Subject: %s
Body: %s

Extract the following information and return as JSON:
{
  "sender": "sender name and email",
  "sender_company": "company name if mentioned",
  "subject": "email subject",
  "key_points": ["list of main points"],
  "action_items": ["specific actions requested"],
  "entities": ["people, companies, products mentioned"],
  "sentiment": "positive/negative/neutral",
  "intent_specific": {}
}`,
		intent, mail.From, mail.Subject, truncate(mail.Body, bodyPreviewChars))
}

// truncate bounds s to max characters, cutting on a rune boundary so a
// multi-byte character is never split mid-sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// extractJSONObject trims chatter the oracle tends to wrap around its
// JSON reply. The result is still only a candidate for unmarshalling.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func userPrompt(content string) []domain.PromptMessage {
	return []domain.PromptMessage{{Role: "user", Content: content}}
}
