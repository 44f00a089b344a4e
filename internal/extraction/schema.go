package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ExtractionResult is the validated output of one extraction run.
type ExtractionResult struct {
	FileName          string           `json:"fileName"`
	ExtractedKeywords []string         `json:"extractedKeywords"`
	StructuredData    []StructuredItem `json:"structuredData"`
}

// StructuredItem is one key/value/confidence triple from the model.
type StructuredItem struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// resultSchema is the contract every model response must satisfy.
var resultSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"fileName": map[string]any{"type": "string"},
		"extractedKeywords": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"structuredData": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key":   map[string]any{"type": "string", "minLength": 1},
					"value": map[string]any{"type": "string"},
					"confidence": map[string]any{
						"type":    "number",
						"minimum": 0,
						"maximum": 1,
					},
				},
				"required": []any{"key", "value", "confidence"},
			},
		},
	},
	"required": []any{"fileName", "extractedKeywords", "structuredData"},
}

// ParseResult validates raw model output against the result schema and
// decodes it. A schema mismatch is fatal for the run.
func ParseResult(raw []byte) (ExtractionResult, error) {
	if err := validateAgainstSchema(resultSchema, raw); err != nil {
		return ExtractionResult{}, err
	}
	var result ExtractionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return ExtractionResult{}, fmt.Errorf("decode extraction result: %w", err)
	}
	return result, nil
}

func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
