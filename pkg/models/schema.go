package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidTestWiring indicates a test-wiring payload that does not conform
// to the wiring schema.
var ErrInvalidTestWiring = errors.New("invalid test wiring")

// testWiringSchema constrains the shape of the otherwise opaque test-wiring
// payload: optional input/output wiring lists, each entry naming the wired
// workflow io and an adapter reference.
func testWiringSchema() map[string]any {
	wiringEntry := map[string]any{
		"type":     "object",
		"required": []any{"workflow_io_name"},
		"properties": map[string]any{
			"workflow_io_name": map[string]any{"type": "string", "minLength": 1},
			"adapter_id":       map[string]any{"type": "string"},
			"ref_id":           map[string]any{"type": "string"},
			"filters":          map[string]any{"type": "object"},
		},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input_wirings":  map[string]any{"type": "array", "items": wiringEntry},
			"output_wirings": map[string]any{"type": "array", "items": wiringEntry},
		},
		"additionalProperties": true,
	}
}

// ValidateTestWiring validates a test-wiring payload against the wiring
// schema. A nil payload is valid.
func ValidateTestWiring(wiring map[string]any) error {
	if wiring == nil {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(testWiringSchema())
	dataLoader := gojsonschema.NewGoLoader(wiring)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate test wiring: %w", err)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidTestWiring, strings.Join(descriptions, "; "))
	}

	return nil
}
