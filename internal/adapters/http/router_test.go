package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
)

type fakeProcessor struct {
	result   domain.ProcessingResult
	contents []string
	threads  []string
}

func (f *fakeProcessor) ProcessInput(_ context.Context, content, _, threadID string) domain.ProcessingResult {
	f.contents = append(f.contents, content)
	f.threads = append(f.threads, threadID)
	return f.result
}

func (f *fakeProcessor) ProcessFile(_ context.Context, _, _ string) domain.ProcessingResult {
	return f.result
}

type fakeIngestor struct {
	doc *domain.Document
	err error
}

func (f *fakeIngestor) Upload(_ context.Context, filename, _, threadID string, _ io.Reader) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	doc := *f.doc
	doc.Filename = filename
	doc.ThreadID = threadID
	return &doc, nil
}

type fakeRepo struct {
	doc *domain.Document
	err error
}

func (f *fakeRepo) Create(context.Context, *domain.Document) error { return nil }

func (f *fakeRepo) GetByID(context.Context, string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

func (f *fakeRepo) UpdateStatus(context.Context, string, domain.DocumentStatus, string) error {
	return nil
}

type fakeStore struct {
	threadCtx *domain.ThreadContext
	entries   []domain.LogEntry
	limits    []int
	err       error
}

func (f *fakeStore) AppendLog(context.Context, domain.ProcessingResult) error { return nil }

func (f *fakeStore) GetContext(context.Context, string) (*domain.ThreadContext, error) {
	return f.threadCtx, f.err
}

func (f *fakeStore) UpsertContext(context.Context, string, domain.ContextUpdate) error { return nil }

func (f *fakeStore) ListLog(_ context.Context, _ string, limit int) ([]domain.LogEntry, error) {
	f.limits = append(f.limits, limit)
	return f.entries, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(processor *fakeProcessor, ingestor *fakeIngestor, repo *fakeRepo, store *fakeStore) http.Handler {
	if processor == nil {
		processor = &fakeProcessor{}
	}
	if ingestor == nil {
		ingestor = &fakeIngestor{doc: &domain.Document{ID: "doc-1", Status: domain.StatusUploaded}}
	}
	if repo == nil {
		repo = &fakeRepo{doc: &domain.Document{ID: "doc-1"}}
	}
	if store == nil {
		store = &fakeStore{}
	}
	return NewRouter(processor, ingestor, repo, store, testLogger(), RouterConfig{
		HistoryLimit: 50,
	}).Handler()
}

func TestHealthz(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d", res.Code)
	}
	if res.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestProcessInputEndpoint(t *testing.T) {
	processor := &fakeProcessor{result: domain.ProcessingResult{
		Success:   true,
		AgentType: domain.AgentMail,
		ThreadID:  "thread-1",
	}}
	handler := newTestRouter(processor, nil, nil, nil)

	body := `{"content": "From: a@b.c\nhello", "filename": "mail.txt", "thread_id": "thread-1"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/process", strings.NewReader(body))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", res.Code, res.Body.String())
	}

	var result domain.ProcessingResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.Success || result.ThreadID != "thread-1" {
		t.Fatalf("result = %+v", result)
	}
	if len(processor.threads) != 1 || processor.threads[0] != "thread-1" {
		t.Fatalf("processor threads = %v", processor.threads)
	}
}

func TestProcessInputAdvertisesThreadID(t *testing.T) {
	processor := &fakeProcessor{result: domain.ProcessingResult{
		Success:   true,
		AgentType: domain.AgentRecord,
		ThreadID:  "thread_20260831_140509",
	}}

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, nil))
	handler := NewRouter(processor, &fakeIngestor{doc: &domain.Document{ID: "doc-1"}},
		&fakeRepo{doc: &domain.Document{ID: "doc-1"}}, &fakeStore{}, logger, RouterConfig{
			HistoryLimit: 50,
		}).Handler()

	body := `{"content": "{\"invoice_number\": \"INV-1\"}"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/process", strings.NewReader(body))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", res.Code, res.Body.String())
	}
	if got := res.Header().Get("X-Thread-Id"); got != "thread_20260831_140509" {
		t.Fatalf("X-Thread-Id = %q", got)
	}

	var line struct {
		Msg      string `json:"msg"`
		ThreadID string `json:"thread_id"`
		Path     string `json:"path"`
	}
	if err := json.Unmarshal(logBuf.Bytes(), &line); err != nil {
		t.Fatalf("decode access log line: %v (%s)", err, logBuf.String())
	}
	if line.Msg != "http_request" || line.Path != "/v1/process" {
		t.Fatalf("log line = %+v", line)
	}
	if line.ThreadID != "thread_20260831_140509" {
		t.Fatalf("access log thread_id = %q", line.ThreadID)
	}
}

func TestProcessInputRequiresContent(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/process", strings.NewReader(`{"content": "  "}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestProcessInputRejectsGet(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/process", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestUploadDocument(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "invoice.json")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(`{"a":1}`)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.WriteField("thread_id", "thread-9"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", res.Code, res.Body.String())
	}
	if got := res.Header().Get("X-Thread-Id"); got != "thread-9" {
		t.Fatalf("X-Thread-Id = %q", got)
	}

	var doc domain.Document
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.Filename != "invoice.json" || doc.ThreadID != "thread-9" {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestUploadRequiresFile(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader("no multipart"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	repo := &fakeRepo{err: domain.WrapError(domain.ErrNotFound, "get document", errors.New("id missing"))}
	handler := newTestRouter(nil, nil, repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestGetThreadContext(t *testing.T) {
	store := &fakeStore{threadCtx: &domain.ThreadContext{
		ThreadID: "thread-1",
		Sender:   "alice@example.com",
		Topic:    "Invoices",
	}}
	handler := newTestRouter(nil, nil, nil, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/threads/thread-1/context", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d", res.Code)
	}

	var threadCtx domain.ThreadContext
	if err := json.NewDecoder(res.Body).Decode(&threadCtx); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if threadCtx.Sender != "alice@example.com" {
		t.Fatalf("context = %+v", threadCtx)
	}
}

func TestGetThreadContextUnknownThread(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/threads/nope/context", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestHistoryDefaultsLimit(t *testing.T) {
	store := &fakeStore{entries: []domain.LogEntry{
		{ID: 2, ThreadID: "thread-1", AgentType: domain.AgentMail, Status: domain.LogStatusSuccess},
	}}
	handler := newTestRouter(nil, nil, nil, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/history?thread_id=thread-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d", res.Code)
	}
	if len(store.limits) != 1 || store.limits[0] != 50 {
		t.Fatalf("limits = %v", store.limits)
	}

	var payload struct {
		Entries []domain.LogEntry `json:"entries"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Entries) != 1 || payload.Entries[0].ID != 2 {
		t.Fatalf("entries = %+v", payload.Entries)
	}
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/history?limit=zero", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	processor := &fakeProcessor{}
	ingestor := &fakeIngestor{doc: &domain.Document{ID: "doc-1"}}
	repo := &fakeRepo{doc: &domain.Document{ID: "doc-1"}}
	handler := NewRouter(processor, ingestor, repo, &fakeStore{}, testLogger(), RouterConfig{
		RateLimitRPS:   1,
		RateLimitBurst: 1,
		HistoryLimit:   50,
	}).Handler()

	req1 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res1 := httptest.NewRecorder()
	handler.ServeHTTP(res1, req1)
	if res1.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", res1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", res2.Code)
	}
	if res2.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header for 429 response")
	}
}

func TestBackpressureMiddlewareReturns503WhenSaturated(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int, 1)

	base := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusNoContent)
	})
	handler := backpressureMiddleware(base, 1, 20*time.Millisecond)

	go func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		done <- res.Code
	}()

	<-started

	req2 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for saturated backpressure gate, got %d", res2.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(bytes.NewReader(res2.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode overload response: %v", err)
	}
	if resp["error"] == "" {
		t.Fatal("expected overload error message in response")
	}

	close(release)

	select {
	case code := <-done:
		if code != http.StatusNoContent {
			t.Fatalf("held request expected 204, got %d", code)
		}
	case <-time.After(time.Second):
		t.Fatal("held request never finished")
	}
}
