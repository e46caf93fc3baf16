package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
)

const defaultLogLimit = 50

// ContextStore persists per-thread context records and the append-only
// processing log. The upsert is a single statement, so concurrent updates
// to the same thread id cannot interleave a read-modify-write.
type ContextStore struct {
	db *sql.DB
}

func NewContextStore(db *sql.DB) *ContextStore {
	return &ContextStore{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *ContextStore) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS processing_logs (
	id BIGSERIAL PRIMARY KEY,
	thread_id TEXT NOT NULL,
	source_format TEXT NOT NULL,
	intent TEXT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	agent_type TEXT NOT NULL,
	extracted_data JSONB NOT NULL DEFAULT '{}'::jsonb,
	status TEXT NOT NULL,
	errors JSONB NOT NULL DEFAULT '[]'::jsonb
);

CREATE INDEX IF NOT EXISTS idx_processing_logs_thread ON processing_logs(thread_id, id DESC);

CREATE TABLE IF NOT EXISTS thread_contexts (
	thread_id TEXT PRIMARY KEY,
	sender TEXT NOT NULL DEFAULT '',
	topic TEXT NOT NULL DEFAULT '',
	last_extracted_fields JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (s *ContextStore) AppendLog(ctx context.Context, result domain.ProcessingResult) error {
	dataJSON, err := json.Marshal(result.Data)
	if err != nil {
		return fmt.Errorf("marshal result data: %w", err)
	}
	errList := result.Errors
	if errList == nil {
		errList = []string{}
	}
	errorsJSON, err := json.Marshal(errList)
	if err != nil {
		return fmt.Errorf("marshal result errors: %w", err)
	}

	status := domain.LogStatusSuccess
	if !result.Success {
		status = domain.LogStatusFailed
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO processing_logs (thread_id, source_format, intent, ts, agent_type, extracted_data, status, errors)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		result.ThreadID, string(result.Classification.Format), result.Classification.Intent,
		result.Timestamp, result.AgentType, dataJSON, status, errorsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert processing log: %w", err)
	}
	return nil
}

func (s *ContextStore) GetContext(ctx context.Context, threadID string) (*domain.ThreadContext, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT thread_id, sender, topic, last_extracted_fields, created_at, updated_at
FROM thread_contexts
WHERE thread_id = $1
`, threadID)

	var tc domain.ThreadContext
	var fieldsRaw []byte

	err := row.Scan(&tc.ThreadID, &tc.Sender, &tc.Topic, &fieldsRaw, &tc.CreatedAt, &tc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan thread context: %w", err)
	}

	if err := json.Unmarshal(fieldsRaw, &tc.LastExtractedFields); err != nil {
		return nil, fmt.Errorf("unmarshal extracted fields: %w", err)
	}
	return &tc, nil
}

// UpsertContext creates the context on first reference. Sender and topic
// only take non-empty values; extracted fields are replaced only when the
// agent supplied a mapping.
func (s *ContextStore) UpsertContext(ctx context.Context, threadID string, update domain.ContextUpdate) error {
	fields := update.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal extracted fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO thread_contexts (thread_id, sender, topic, last_extracted_fields, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$5)
ON CONFLICT (thread_id) DO UPDATE SET
	sender = CASE WHEN EXCLUDED.sender <> '' THEN EXCLUDED.sender ELSE thread_contexts.sender END,
	topic = CASE WHEN EXCLUDED.topic <> '' THEN EXCLUDED.topic ELSE thread_contexts.topic END,
	last_extracted_fields = CASE WHEN $6 THEN EXCLUDED.last_extracted_fields ELSE thread_contexts.last_extracted_fields END,
	updated_at = EXCLUDED.updated_at
`,
		threadID, update.Sender, update.Topic, fieldsJSON, time.Now().UTC(), update.Fields != nil,
	)
	if err != nil {
		return fmt.Errorf("upsert thread context: %w", err)
	}
	return nil
}

func (s *ContextStore) ListLog(ctx context.Context, threadID string, limit int) ([]domain.LogEntry, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}

	var rows *sql.Rows
	var err error
	if threadID != "" {
		rows, err = s.db.QueryContext(ctx, `
SELECT id, thread_id, source_format, intent, ts, agent_type, extracted_data, status, errors
FROM processing_logs
WHERE thread_id = $1
ORDER BY id DESC
LIMIT $2
`, threadID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
SELECT id, thread_id, source_format, intent, ts, agent_type, extracted_data, status, errors
FROM processing_logs
ORDER BY id DESC
LIMIT $1
`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query processing log: %w", err)
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var entry domain.LogEntry
		var format string
		var dataRaw, errorsRaw []byte

		err := rows.Scan(
			&entry.ID, &entry.ThreadID, &format, &entry.Intent, &entry.Timestamp,
			&entry.AgentType, &dataRaw, &entry.Status, &errorsRaw,
		)
		if err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		if err := json.Unmarshal(dataRaw, &entry.Data); err != nil {
			return nil, fmt.Errorf("unmarshal log data: %w", err)
		}
		if err := json.Unmarshal(errorsRaw, &entry.Errors); err != nil {
			return nil, fmt.Errorf("unmarshal log errors: %w", err)
		}
		entry.SourceFormat = domain.Format(format)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log entries: %w", err)
	}
	return entries, nil
}
