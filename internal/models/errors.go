package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the sentinel wrapped by every InputError.
var ErrInvalidInput = errors.New("invalid input")

// InputError reports a missing or out-of-range field of a single product.
type InputError struct {
	ProductID string
	Field     string
	Reason    string
}

// NewInputError creates an InputError for the given product and field.
func NewInputError(productID, field, reason string) *InputError {
	return &InputError{ProductID: productID, Field: field, Reason: reason}
}

// MissingField creates an InputError for a required field that was not supplied.
func MissingField(productID, field string) *InputError {
	return NewInputError(productID, field, "is required")
}

func (e *InputError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid input for product %s: %s %s", e.ProductID, e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}
