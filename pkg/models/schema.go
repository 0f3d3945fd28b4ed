package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaViolation indicates a raw item document does not match the
// step-item schema.
var ErrSchemaViolation = errors.New("item document violates schema")

// stepItemsSchema describes the polymorphic SE/ST item sequence as accepted
// on the wire. Structural rules beyond shape (first item must be a section)
// are enforced by the process package, not here.
const stepItemsSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "type", "title"],
		"properties": {
			"id": {"type": "string", "format": "uuid"},
			"type": {"type": "string", "enum": ["SE", "ST"]},
			"title": {"type": "string", "maxLength": 200},
			"description": {"type": "string"},
			"start_with_previous": {"type": "boolean"}
		},
		"additionalProperties": false
	}
}`

var itemsSchema = gojsonschema.NewStringLoader(stepItemsSchema)

// ValidateItemsDocument checks a raw JSON item sequence against the step-item
// schema before it is decoded into []StepItem. Returns ErrSchemaViolation with
// the collected schema errors on failure.
func ValidateItemsDocument(document []byte) error {
	result, err := gojsonschema.Validate(itemsSchema, gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("failed to validate item document: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(details, "; "))
}
