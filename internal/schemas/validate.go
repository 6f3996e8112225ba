// Package schemas provides JSON Schema validation for payloads returned by the CMS.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed content_response.schema.json
var contentResponseSchema string

// ContentResponseSchemaName identifies the embedded content response schema in errors.
const ContentResponseSchemaName = "content_response.schema.json"

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

var (
	contentSchemaOnce sync.Once
	contentSchema     *gojsonschema.Schema
	contentSchemaErr  error
)

func loadContentSchema() (*gojsonschema.Schema, error) {
	contentSchemaOnce.Do(func() {
		contentSchema, contentSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(contentResponseSchema))
		if contentSchemaErr != nil {
			contentSchemaErr = &SchemaLoadError{
				Path:    ContentResponseSchemaName,
				Message: "embedded schema is invalid",
				Cause:   contentSchemaErr,
			}
		}
	})
	return contentSchema, contentSchemaErr
}

// ValidateContentResponse validates a raw content API response body.
func ValidateContentResponse(body []byte) error {
	schema, err := loadContentSchema()
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		// The document itself could not be decoded as JSON.
		return fmt.Errorf("failed to decode content response: %w", err)
	}
	return toValidationError(result)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}
	return toValidationError(result)
}

func toValidationError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
