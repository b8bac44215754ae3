package mqcodec

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaInvalid           = errors.New("invalid schema")
	ErrSectionMissing          = errors.New("section not defined in schema")
	ErrInvalidSection          = errors.New("invalid section")
	ErrValidationFailed        = errors.New("validation failed")
	ErrUnsupportedSchemaFormat = errors.New("unsupported schema format")
	ErrUnsupportedValue        = errors.New("unsupported value type")
	ErrEmptyName               = errors.New("empty field name")
	ErrNoLengthField           = errors.New("header has no message length field")
	ErrInvalidLength           = errors.New("invalid message length")
)

// SchemaError reports a structural problem at a path inside a schema config,
// e.g. "request.elements[2].fields[0]".
type SchemaError struct {
	Path   string
	Reason string
}

func (se *SchemaError) Error() string {
	return fmt.Sprintf("invalid schema at %s: %s", se.Path, se.Reason)
}

func (se *SchemaError) Unwrap() error {
	return ErrSchemaInvalid
}

// ValidationError carries the error level findings of a strict validation.
type ValidationError struct {
	Diagnostics []Diagnostic
}

func (ve *ValidationError) Error() string {
	if len(ve.Diagnostics) == 0 {
		return ErrValidationFailed.Error()
	}
	if len(ve.Diagnostics) == 1 {
		return fmt.Sprintf("%v: %s", ErrValidationFailed, ve.Diagnostics[0])
	}
	return fmt.Sprintf("%v: %s (and %d more)", ErrValidationFailed, ve.Diagnostics[0], len(ve.Diagnostics)-1)
}

func (ve *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// FieldError ties an error to a field path in a logical message.
type FieldError struct {
	Path string
	Err  error
}

func (fe *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", fe.Path, fe.Err)
}

func (fe *FieldError) Unwrap() error {
	return fe.Err
}
