package domain

import "errors"

var (
	ErrBlocked = errors.New("identifier is blocked")

	ErrEmptyMessage   = errors.New("message is required")
	ErrMessageTooLong = errors.New("message is too long")
	ErrDuplicateEntry = errors.New("you have already signed the guestbook")
	ErrGuestbookFull  = errors.New("guestbook is full")
)

func IsBlockedError(err error) bool {
	return errors.Is(err, ErrBlocked)
}

// IsValidationError reports errors caused by the submitted input itself.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyMessage) || errors.Is(err, ErrMessageTooLong)
}

// IsConflictError reports errors caused by the guestbook state rather than the input.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrDuplicateEntry) || errors.Is(err, ErrGuestbookFull)
}
