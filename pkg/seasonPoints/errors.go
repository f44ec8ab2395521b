package seasonPoints

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is returned for malformed input. Retrying the same input will fail again.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// InvalidStateError is returned when the season is completed or the week was
// already processed. Callers may retry with Force set.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: %s", e.Message)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsInvalidStateError(err error) bool {
	var ise *InvalidStateError
	return errors.As(err, &ise)
}

func newValidationErrorFromValidator(err error) *ValidationError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return &ValidationError{Message: err.Error()}
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, fmt.Sprintf("field '%s' failed '%s' validation", fe.Field(), fe.Tag()))
	}
	return &ValidationError{Message: strings.Join(messages, "; ")}
}
