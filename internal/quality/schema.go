package quality

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/amitayks/visara-docpipe/internal/extract"
)

// structuralSchemas describe the minimum shape a structured record must have
// to be considered well formed. Built as maps and compiled once at engine
// construction.
var structuralSchemas = map[extract.Kind]map[string]any{
	extract.KindReceipt: {
		"type":     "object",
		"required": []any{"vendor", "totals"},
		"properties": map[string]any{
			"vendor": map[string]any{
				"type":     "object",
				"required": []any{"name"},
			},
			"totals": map[string]any{
				"type":     "object",
				"required": []any{"total", "currency"},
				"properties": map[string]any{
					"total":    map[string]any{"type": "number"},
					"currency": map[string]any{"type": "string", "minLength": 3},
				},
			},
			"items": map[string]any{"type": "array"},
		},
	},
	extract.KindInvoice: {
		"type":     "object",
		"required": []any{"number", "totals"},
		"properties": map[string]any{
			"number": map[string]any{"type": "string", "minLength": 1},
			"totals": map[string]any{
				"type":     "object",
				"required": []any{"total"},
				"properties": map[string]any{
					"total": map[string]any{"type": "number", "exclusiveMinimum": 0},
				},
			},
		},
	},
	extract.KindID: {
		"type":     "object",
		"required": []any{"personal", "document"},
		"properties": map[string]any{
			"document": map[string]any{
				"type":     "object",
				"required": []any{"number"},
				"properties": map[string]any{
					"number": map[string]any{"type": "string", "minLength": 1},
				},
			},
		},
	},
	extract.KindPassport: {
		"type":     "object",
		"required": []any{"personal", "document", "mrz", "validity"},
		"properties": map[string]any{
			"mrz": map[string]any{
				"type":     "object",
				"required": []any{"raw", "check_digits"},
				"properties": map[string]any{
					"raw": map[string]any{
						"type":     "array",
						"minItems": 2,
						"items":    map[string]any{"type": "string", "minLength": 44, "maxLength": 44},
					},
					"check_digits": map[string]any{
						"type":     "array",
						"minItems": 5,
					},
				},
			},
		},
	},
	extract.KindGeneric: {
		"type": "object",
		// A generic record has no required fields; anything recovered counts.
	},
}

func compileSchemas() (map[extract.Kind]*jsonschema.Schema, error) {
	out := make(map[extract.Kind]*jsonschema.Schema, len(structuralSchemas))
	for kind, doc := range structuralSchemas {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal %s schema: %w", kind, err)
		}
		url := fmt.Sprintf("docpipe://schemas/%s.json", kind)
		c := jsonschema.NewCompiler()
		if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("add %s schema: %w", kind, err)
		}
		s, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", kind, err)
		}
		out[kind] = s
	}
	return out, nil
}

// validateStructure round-trips the record through JSON and checks it against
// the schema for its kind. The returned message is empty when the record
// conforms.
func validateStructure(schemas map[extract.Kind]*jsonschema.Schema, data extract.StructuredData) (bool, string) {
	s, ok := schemas[data.Kind()]
	if !ok {
		return true, ""
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return false, "structured record could not be serialized: " + err.Error()
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, "structured record could not be decoded: " + err.Error()
	}
	if err := s.Validate(doc); err != nil {
		return false, fmt.Sprintf("%s record fails structural schema: %v", data.Kind(), err)
	}
	return true, ""
}
