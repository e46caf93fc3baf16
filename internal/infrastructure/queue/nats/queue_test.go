package nats

import (
	"testing"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
)

func TestEncodeDecodeDocumentEvent(t *testing.T) {
	event := domain.DocumentEvent{DocumentID: "doc-42", ThreadID: "thread_20260831_140509"}

	payload, err := encodeDocumentEvent(event)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got := decodeDocumentEvent(payload)
	if got != event {
		t.Fatalf("round trip = %+v, want %+v", got, event)
	}
}

func TestEncodeDocumentEventWithoutThread(t *testing.T) {
	payload, err := encodeDocumentEvent(domain.DocumentEvent{DocumentID: "doc-1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got := decodeDocumentEvent(payload)
	if got.DocumentID != "doc-1" || got.ThreadID != "" {
		t.Fatalf("event = %+v", got)
	}
}

func TestEncodeDocumentEventRequiresID(t *testing.T) {
	if _, err := encodeDocumentEvent(domain.DocumentEvent{ThreadID: "thread-1"}); err == nil {
		t.Fatal("expected error for event without document id")
	}
}

func TestDecodeDocumentEventAcceptsBareID(t *testing.T) {
	got := decodeDocumentEvent([]byte("doc-legacy-7"))
	if got.DocumentID != "doc-legacy-7" || got.ThreadID != "" {
		t.Fatalf("event = %+v", got)
	}
}
