package catalog

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Each typed error below unwraps to one of these.
var (
	ErrMissingField      = errors.New("missing required field")
	ErrMalformedOperator = errors.New("malformed operator")
	ErrDuplicateOperator = errors.New("duplicate operator")
)

// MissingFieldError reports the first required registration field that was
// empty after trimming.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// MalformedOperatorError is returned when an operator does not end with a colon.
type MalformedOperatorError struct {
	Operator string
}

func (e *MalformedOperatorError) Error() string {
	return fmt.Sprintf("operator %q must end with ':' (e.g. \"myop:\")", e.Operator)
}

func (e *MalformedOperatorError) Unwrap() error { return ErrMalformedOperator }

// DuplicateOperatorError is returned when the operator is already registered.
// Predefined is set when the collision is with a reserved built-in operator.
type DuplicateOperatorError struct {
	Operator   string
	Predefined bool
}

func (e *DuplicateOperatorError) Error() string {
	if e.Predefined {
		return fmt.Sprintf("operator %q is reserved by a predefined block", e.Operator)
	}
	return fmt.Sprintf("custom operator %q already exists", e.Operator)
}

func (e *DuplicateOperatorError) Unwrap() error { return ErrDuplicateOperator }
