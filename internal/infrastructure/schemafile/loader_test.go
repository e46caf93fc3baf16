package schemafile

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSchemaFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadSchemas(t *testing.T) {
	path := writeSchemaFile(t, `
PurchaseOrder:
  required: [po_number, amount, supplier]
  optional: [delivery_date]
Invoice:
  required: [invoice_number, amount]
`)

	schemas, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(schemas) != 2 {
		t.Fatalf("schemas = %d", len(schemas))
	}

	po := schemas["PurchaseOrder"]
	if len(po.Required) != 3 || po.Required[0] != "po_number" {
		t.Fatalf("required = %v", po.Required)
	}
	if len(po.Optional) != 1 || po.Optional[0] != "delivery_date" {
		t.Fatalf("optional = %v", po.Optional)
	}
}

func TestLoadRejectsEmptySchema(t *testing.T) {
	path := writeSchemaFile(t, `
Empty:
  required: []
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for schema with no fields")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeSchemaFile(t, "::: not yaml {{{")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
