package extract

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/qri-io/jsonschema"

	"github.com/admitkit/docverify/internal/enquiry"
)

// schemaCache holds compiled JSON schemas, one per document category.
type schemaCache struct {
	mu    sync.RWMutex
	cache map[enquiry.Category]*jsonschema.Schema
}

func newSchemaCache() (*schemaCache, error) {
	c := &schemaCache{cache: make(map[enquiry.Category]*jsonschema.Schema)}
	for cat := range map[enquiry.Category]struct{}{
		enquiry.CategoryResume:       {},
		enquiry.CategoryTranscript:   {},
		enquiry.CategoryCOE:          {},
		enquiry.CategoryLanguageTest: {},
	} {
		raw, err := buildSchemaJSON(cat)
		if err != nil {
			return nil, fmt.Errorf("build schema for %s: %w", cat, err)
		}
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(raw, rs); err != nil {
			return nil, fmt.Errorf("compile schema for %s: %w", cat, err)
		}
		c.cache[cat] = rs
	}
	return c, nil
}

func (c *schemaCache) get(cat enquiry.Category) (*jsonschema.Schema, bool) {
	c.mu.RLock()
	s, ok := c.cache[cat]
	c.mu.RUnlock()

	return s, ok
}

// buildSchemaJSON assembles the JSON Schema for one category from its field
// list. Every field is required and is either null or a confidence object.
func buildSchemaJSON(cat enquiry.Category) ([]byte, error) {
	confidence := map[string]any{
		"type":     "object",
		"required": []string{"value", "confidence_score"},
		"properties": map[string]any{
			"value":            map[string]any{"type": []string{"string", "number", "null"}},
			"confidence_score": map[string]any{"type": "number"},
			"confidence_label": map[string]any{"type": "string"},
			"bounding_box": map[string]any{
				"type":     []string{"object", "null"},
				"required": []string{"page_number", "x", "y", "width", "height"},
				"properties": map[string]any{
					"page_number": map[string]any{"type": "integer"},
					"x":           map[string]any{"type": "number"},
					"y":           map[string]any{"type": "number"},
					"width":       map[string]any{"type": "number"},
					"height":      map[string]any{"type": "number"},
				},
			},
		},
	}
	nullableConfidence := map[string]any{
		"oneOf": []any{
			map[string]any{"type": "null"},
			confidence,
		},
	}

	props := make(map[string]any)
	required := []string{}
	for _, f := range enquiry.FieldsForCategory(cat) {
		props[f] = nullableConfidence
		required = append(required, f)
	}
	if enquiry.HasExperiences(cat) {
		props["work_experiences"] = map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"company", "title", "duration"},
				"properties": map[string]any{
					"company":  confidence,
					"title":    confidence,
					"duration": confidence,
				},
			},
		}
		required = append(required, "work_experiences")
	}

	schema := map[string]any{
		"type":       "object",
		"required":   required,
		"properties": props,
	}
	return json.Marshal(schema)
}
