package healthagent

import "errors"

var (
	// ErrNotFound means no profile exists for the requested user.
	ErrNotFound = errors.New("not found")

	// ErrValidation means a user ID or reading fell outside its accepted range.
	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable wraps any storage I/O failure.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrGeneration wraps failures and timeouts of the text generation service.
	ErrGeneration = errors.New("generation service error")
)

// Unexpected reports whether err should be logged and replaced with the fallback reply.
func Unexpected(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrGeneration)
}
