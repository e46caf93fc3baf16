package domain

import "time"

// ThreadContext is the durable per-thread state. Sender and topic are
// monotonic: once set to a non-empty value they are only ever overwritten
// by another non-empty value, never cleared.
type ThreadContext struct {
	ThreadID            string         `json:"thread_id"`
	Sender              string         `json:"sender"`
	Topic               string         `json:"topic"`
	LastExtractedFields map[string]any `json:"last_extracted_fields"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// ContextUpdate carries the subset of thread context an agent produced.
// Empty Sender/Topic and nil Fields leave the stored values untouched.
type ContextUpdate struct {
	Sender string
	Topic  string
	Fields map[string]any
}

// LogEntry is one append-only processing log record. Insertion order is
// temporal order; entries are never mutated after insert.
type LogEntry struct {
	ID           int64          `json:"id"`
	ThreadID     string         `json:"thread_id"`
	SourceFormat Format         `json:"source_format"`
	Intent       string         `json:"intent"`
	Timestamp    time.Time      `json:"timestamp"`
	AgentType    string         `json:"agent_type"`
	Data         map[string]any `json:"extracted_data"`
	Status       string         `json:"status"`
	Errors       []string       `json:"errors"`
}

const (
	LogStatusSuccess = "success"
	LogStatusFailed  = "failed"
)
