package domain

// TargetSchema names the fields an extraction must produce for one intent.
// Required fields missing from the extracted output become anomalies;
// optional fields are recorded when present, never checked.
type TargetSchema struct {
	Required []string `yaml:"required" json:"required"`
	Optional []string `yaml:"optional" json:"optional"`
}

// SchemaRegistry maps intent labels to target schemas. Every intent
// resolves to some schema: unrecognized labels get the generic fallback.
type SchemaRegistry struct {
	schemas  map[string]TargetSchema
	fallback TargetSchema
}

func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{
		schemas: map[string]TargetSchema{
			IntentInvoice: {
				Required: []string{"invoice_number", "amount", "date", "vendor"},
				Optional: []string{"due_date", "items", "tax_amount"},
			},
			IntentRFQ: {
				Required: []string{"rfq_number", "items", "deadline", "contact"},
				Optional: []string{"specifications", "budget_range"},
			},
			IntentComplaint: {
				Required: []string{"issue_type", "description", "severity"},
				Optional: []string{"customer_id", "product_id", "date_occurred"},
			},
		},
		fallback: TargetSchema{
			Required: []string{"type", "description"},
			Optional: []string{"metadata"},
		},
	}
}

// Merge overlays externally configured schemas on top of the defaults.
func (r *SchemaRegistry) Merge(overrides map[string]TargetSchema) {
	for intent, schema := range overrides {
		r.schemas[intent] = schema
	}
}

func (r *SchemaRegistry) Lookup(intent string) TargetSchema {
	if schema, ok := r.schemas[intent]; ok {
		return schema
	}
	return r.fallback
}
