package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document tracks an uploaded source file waiting for (or finished with)
// pipeline processing. The extracted text itself is never stored here;
// the worker reads the file back from object storage.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	ThreadID    string         `json:"thread_id"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DocumentEvent is the intake notification handed from the API to the
// worker. ThreadID rides along so the worker can tag its logs without a
// repository round trip.
type DocumentEvent struct {
	DocumentID string `json:"document_id"`
	ThreadID   string `json:"thread_id,omitempty"`
}
