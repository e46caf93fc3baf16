package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
	"github.com/Likith-Athreya/doc-intake/internal/core/ports"
)

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
}

// StructuredRecordAgent extracts schema-driven fields from JSON payloads
// and reports validation anomalies alongside the result.
type StructuredRecordAgent struct {
	oracle  ports.CompletionOracle
	store   ports.ContextStore
	schemas *domain.SchemaRegistry
	logger  *slog.Logger
}

func NewStructuredRecordAgent(
	oracle ports.CompletionOracle,
	store ports.ContextStore,
	schemas *domain.SchemaRegistry,
	logger *slog.Logger,
) *StructuredRecordAgent {
	return &StructuredRecordAgent{
		oracle:  oracle,
		store:   store,
		schemas: schemas,
		logger:  logger,
	}
}

func (a *StructuredRecordAgent) Process(ctx context.Context, content string, cls domain.Classification, threadID string) domain.ProcessingResult {
	var source map[string]any
	if err := json.Unmarshal([]byte(content), &source); err != nil {
		return failedResult(domain.AgentRecord, cls, threadID, fmt.Sprintf("json parsing error: %v", err))
	}

	schema := a.schemas.Lookup(cls.Intent)
	extracted := a.extractToSchema(ctx, content, source, schema)

	// Required keys are always present in the mapping, nil when the source
	// lacks them. This distinguishes checked-and-absent from not-checked.
	for _, field := range schema.Required {
		if _, ok := extracted[field]; !ok {
			extracted[field] = nil
		}
	}

	anomalies := detectAnomalies(extracted, schema)

	if err := a.store.UpsertContext(ctx, threadID, domain.ContextUpdate{Fields: extracted}); err != nil {
		return failedResult(domain.AgentRecord, cls, threadID, fmt.Sprintf("processing error: %v", err))
	}

	return domain.ProcessingResult{
		Success: true,
		Data: map[string]any{
			"original_data":     source,
			"extracted_data":    extracted,
			"anomalies":         anomalies,
			"schema_compliance": len(anomalies) == 0,
		},
		AgentType:      domain.AgentRecord,
		Classification: cls,
		Timestamp:      time.Now().UTC(),
		ThreadID:       threadID,
	}
}

// extractToSchema asks the oracle to align the source document with the
// schema. When the reply is not parseable JSON it falls back to exact key
// lookups and then case-insensitive substring matches over the source keys
// in their declaration order, first match wins.
func (a *StructuredRecordAgent) extractToSchema(ctx context.Context, rawDocument string, source map[string]any, schema domain.TargetSchema) map[string]any {
	reply, err := a.oracle.Complete(ctx, userPrompt(buildRecordExtractionPrompt(schema, rawDocument)))
	if err == nil {
		var extracted map[string]any
		if jsonErr := json.Unmarshal([]byte(extractJSONObject(reply)), &extracted); jsonErr == nil && extracted != nil {
			return extracted
		}
		a.logger.Warn("oracle extraction reply not parseable, using fallback alignment")
	} else {
		a.logger.Warn("oracle extraction failed, using fallback alignment", "error", err)
	}

	sourceKeys := orderedJSONKeys(rawDocument)
	extracted := make(map[string]any)

	fields := make([]string, 0, len(schema.Required)+len(schema.Optional))
	fields = append(fields, schema.Required...)
	fields = append(fields, schema.Optional...)

	for _, field := range fields {
		if value, ok := source[field]; ok {
			extracted[field] = value
			continue
		}
		fieldLower := strings.ToLower(field)
		for _, key := range sourceKeys {
			keyLower := strings.ToLower(key)
			if strings.Contains(keyLower, fieldLower) || strings.Contains(fieldLower, keyLower) {
				extracted[field] = source[key]
				break
			}
		}
	}
	return extracted
}

// detectAnomalies reports missing required fields, then checks numeric and
// date shaped fields. Anomalies never block success.
func detectAnomalies(extracted map[string]any, schema domain.TargetSchema) []string {
	anomalies := []string{}

	for _, field := range schema.Required {
		if value, ok := extracted[field]; !ok || value == nil {
			anomalies = append(anomalies, fmt.Sprintf("missing required field: %s", field))
		}
	}

	for _, field := range fieldCheckOrder(extracted, schema) {
		value := extracted[field]
		if value == nil {
			continue
		}
		nameLower := strings.ToLower(field)

		if strings.Contains(nameLower, "amount") || strings.Contains(nameLower, "price") {
			if !parsesAsDecimal(value) {
				anomalies = append(anomalies, fmt.Sprintf("invalid numeric format for %s: %v", field, value))
			}
		}
		if strings.Contains(nameLower, "date") {
			if !isValidDate(fmt.Sprint(value)) {
				anomalies = append(anomalies, fmt.Sprintf("invalid date format for %s: %v", field, value))
			}
		}
	}
	return anomalies
}

// fieldCheckOrder yields schema fields in declaration order, then any
// oracle-supplied extras in sorted order, so anomaly output is stable.
func fieldCheckOrder(extracted map[string]any, schema domain.TargetSchema) []string {
	order := make([]string, 0, len(extracted))
	seen := make(map[string]bool, len(extracted))

	for _, field := range append(append([]string{}, schema.Required...), schema.Optional...) {
		if _, ok := extracted[field]; ok && !seen[field] {
			order = append(order, field)
			seen[field] = true
		}
	}

	extras := make([]string, 0)
	for field := range extracted {
		if !seen[field] {
			extras = append(extras, field)
		}
	}
	sort.Strings(extras)
	return append(order, extras...)
}

func parsesAsDecimal(value any) bool {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(fmt.Sprint(value))
	_, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	return err == nil
}

func isValidDate(value string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// orderedJSONKeys scans the raw document for its top-level keys in
// declaration order. Go map iteration is randomized, so the fallback
// matching cannot rely on the unmarshalled map.
func orderedJSONKeys(rawDocument string) []string {
	dec := json.NewDecoder(strings.NewReader(rawDocument))

	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := keyTok.(string)
		if !ok {
			return keys
		}
		keys = append(keys, key)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return keys
		}
	}
	return keys
}

func failedResult(agentType string, cls domain.Classification, threadID, message string) domain.ProcessingResult {
	return domain.ProcessingResult{
		Success:        false,
		Data:           map[string]any{},
		AgentType:      agentType,
		Classification: cls,
		Timestamp:      time.Now().UTC(),
		ThreadID:       threadID,
		Errors:         []string{message},
	}
}
