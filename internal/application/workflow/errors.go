package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks input that fails business validation; the record is unchanged
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized marks an actor who may not perform the action
	ErrUnauthorized = errors.New("permission denied")

	// ErrStore marks a failure of the request store
	ErrStore = errors.New("request store failure")
)

// ValidationError lists the fields that failed validation
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationErr(message string, fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Message: message}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
