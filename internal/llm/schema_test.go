package llm

import "encoding/json"

// answerSchema mirrors the shape of the distractor schema: a bounded list
// of integer values with an optional label.
func answerSchema() *Schema {
	return &Schema{
		Name:        "test-answers",
		Description: "wrong answers for a product",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"answers": map[string]any{
					"type":     "array",
					"minItems": 1,
					"maxItems": 3,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"value": map[string]any{"type": "integer", "minimum": 0},
							"kind":  map[string]any{"type": "string", "enum": []string{"swap", "neighbor", "digit"}},
						},
						"required": []string{"value"},
					},
				},
			},
			"required": []string{"answers"},
		},
	}
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }
