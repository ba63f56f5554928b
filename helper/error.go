package helper

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderTransient marks a backend that stayed unreachable after retries.
	ErrProviderTransient = errors.New("provider error")
	// ErrProviderData marks a backend that answered with malformed data.
	ErrProviderData = errors.New("provider data error")
	// ErrConfiguration marks invalid weights, limits or timeouts detected at startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks a rejected request.
	ErrValidation = errors.New("validation error")
)

// NewError wraps err with the name of the operation that failed.
func NewError(operation string, err error) error {
	return fmt.Errorf("%s: %w", operation, err)
}
