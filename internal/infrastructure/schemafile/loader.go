// Package schemafile loads target-schema overrides from a YAML file so
// deployments can add or replace per-intent field lists without a rebuild.
package schemafile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
)

// Load reads a mapping of intent label to target schema, e.g.
//
//	Invoice:
//	  required: [invoice_number, amount, date, vendor]
//	  optional: [due_date]
func Load(path string) (map[string]domain.TargetSchema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	var schemas map[string]domain.TargetSchema
	if err := yaml.Unmarshal(raw, &schemas); err != nil {
		return nil, fmt.Errorf("parse schema file: %w", err)
	}

	for intent, schema := range schemas {
		if len(schema.Required) == 0 && len(schema.Optional) == 0 {
			return nil, fmt.Errorf("schema for intent %q names no fields", intent)
		}
	}
	return schemas, nil
}
