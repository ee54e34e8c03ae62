package types

import (
	"errors"
	"fmt"
)

// Error kinds shared by the catalog, the blob store and the notification
// dispatcher. Callers match them with errors.Is; the underlying cause is kept
// in the chain.
var (
	// ErrValidation reports missing or malformed caller input. It is always
	// returned before any side effect.
	ErrValidation = errors.New("validation failure")

	// ErrStorage reports an unwritable or unreadable blob or catalog medium.
	ErrStorage = errors.New("storage failure")

	// ErrChannelUnavailable reports a notification channel that is not configured.
	ErrChannelUnavailable = errors.New("notification channel unavailable")

	// ErrTransport reports a failed send on the email or push channel.
	ErrTransport = errors.New("transport failure")

	// ErrNotFound reports a blob name that does not exist.
	ErrNotFound = errors.New("not found")
)

// Validationf builds an ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Wrap tags cause with kind, keeping both matchable with errors.Is.
func Wrap(kind, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", kind, cause)
}
