package services

import (
	"errors"
	"fmt"
)

// ErrValidation marks input rejected before persistence. Handlers map it
// to a 400 response.
var ErrValidation = errors.New("validation failed")

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
