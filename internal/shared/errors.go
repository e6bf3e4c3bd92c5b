package shared

import (
	"fmt"

	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = fmt.Errorf("not found: %w", httpx.ErrNotFound)
	// ErrInvalidCredentials indicates login failure. Its message is the only
	// detail callers ever see for authentication failures.
	ErrInvalidCredentials = fmt.Errorf("Invalid email or password: %w", httpx.ErrUnauthorized)
)

// InvalidInput wraps a validation message as httpx.ErrValidation.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", httpx.ErrValidation, fmt.Sprintf(format, args...))
}

// Conflict wraps a uniqueness failure as httpx.ErrDuplicate.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", httpx.ErrDuplicate, fmt.Sprintf(format, args...))
}
