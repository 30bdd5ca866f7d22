package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"unichance/internal/common/errors"
)

const rootField = "(root)"

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON schema. It is compiled on first use and safe for concurrent use.
type Schema struct {
	name   string
	source string

	once     sync.Once
	compiled *gojsonschema.Schema
	err      error
}

func NewSchema(name, source string) *Schema {
	return &Schema{name: name, source: source}
}

func (s *Schema) Name() string {
	return s.name
}

// Document returns the schema as a decoded JSON object.
func (s *Schema) Document() (map[string]interface{}, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(s.source), &doc); err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", s.name, err)
	}
	return doc, nil
}

func (s *Schema) load() (*gojsonschema.Schema, error) {
	s.once.Do(func() {
		s.compiled, s.err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(s.source))
		if s.err != nil {
			s.err = fmt.Errorf("compile schema %s: %w", s.name, s.err)
		}
	})
	return s.compiled, s.err
}

// Validate checks doc against the schema. doc may be a decoded JSON map or any value
// that marshals to JSON. An error is returned only when the schema or document cannot be loaded.
func (s *Schema) Validate(doc interface{}) (*ValidationResult, error) {
	compiled, err := s.load()
	if err != nil {
		return nil, err
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate against %s: %w", s.name, err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldOf(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// fieldOf returns the dotted path of the offending property. Required errors are
// reported against the parent object, so the missing property name is appended.
func fieldOf(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if desc.Type() != "required" {
		return field
	}

	prop, _ := desc.Details()["property"].(string)
	switch {
	case prop == "":
		return field
	case field == "" || field == rootField:
		return prop
	case strings.HasSuffix(field, "."+prop) || field == prop:
		return field
	default:
		return field + "." + prop
	}
}

// Merge appends other's errors and recomputes Valid.
func (vr *ValidationResult) Merge(other []ValidationError) {
	vr.Errors = append(vr.Errors, other...)
	vr.Valid = len(vr.Errors) == 0
}

// Fields lists the distinct fields with errors, in the order they were reported.
func (vr *ValidationResult) Fields() []string {
	seen := make(map[string]bool, len(vr.Errors))
	var fields []string
	for _, e := range vr.Errors {
		if !seen[e.Field] {
			seen[e.Field] = true
			fields = append(fields, e.Field)
		}
	}
	return fields
}

// GetErrorMessages returns "field: message" for every error.
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for field and its nested properties.
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") || strings.HasPrefix(err.Field, field+"[") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}

// Err returns nil for a valid result, otherwise an error listing every message.
func (vr *ValidationResult) Err() error {
	if vr == nil || vr.Valid {
		return nil
	}
	return fmt.Errorf("validation failed: %s", strings.Join(vr.GetErrorMessages(), "; "))
}

// ProfileError converts an invalid result into an INVALID_PROFILE error naming
// the offending fields.
func (vr *ValidationResult) ProfileError() *errors.StandardError {
	return errors.NewInvalidProfileError(strings.Join(vr.GetErrorMessages(), "; "), vr.Fields())
}
