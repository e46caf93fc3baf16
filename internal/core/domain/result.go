package domain

import "time"

type Format string

const (
	FormatJSON    Format = "JSON"
	FormatEmail   Format = "Email"
	FormatPDF     Format = "PDF"
	FormatText    Format = "Text"
	FormatUnknown Format = "unknown"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Agent identifiers recorded in the processing log.
const (
	AgentClassifier = "classifier"
	AgentRecord     = "json_agent"
	AgentMail       = "email_agent"
	AgentSystem     = "system"
)

// Classification is produced once per document and never mutated.
// Intent is an open set: the completion oracle's reply is authoritative,
// so it may be any string, not just the well-known labels.
type Classification struct {
	Format     Format     `json:"format"`
	Intent     string     `json:"intent"`
	Confidence Confidence `json:"confidence"`
}

// Well-known intent labels. Schema lookup falls back to a generic schema
// for anything else.
const (
	IntentInvoice    = "Invoice"
	IntentRFQ        = "RFQ"
	IntentComplaint  = "Complaint"
	IntentRegulation = "Regulation"
	IntentGeneral    = "General"
	IntentUnknown    = "unknown"
)

// ProcessingResult is the uniform envelope returned by every agent and
// persisted verbatim into the processing log. Immutable once constructed.
type ProcessingResult struct {
	Success        bool           `json:"success"`
	Data           map[string]any `json:"data"`
	AgentType      string         `json:"agent_type"`
	Classification Classification `json:"classification"`
	Timestamp      time.Time      `json:"timestamp"`
	ThreadID       string         `json:"thread_id"`
	Errors         []string       `json:"errors,omitempty"`
}

// PromptMessage is one chat message sent to the completion oracle.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
