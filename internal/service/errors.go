package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks errors caused by the request itself. The
	// message after the prefix is safe to show to the caller.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfirmationRequired is returned by destructive operations called
	// without explicit confirmation.
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrUnauthenticated      = errors.New("not signed in")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrLastAdmin            = errors.New("a team must keep at least one admin")
	// ErrFormUnavailable covers unknown teams and inactive or foreign links
	// on the public form.
	ErrFormUnavailable = errors.New("this form is not accepting applications")
	// ErrOperationFailed hides storage failures from callers; the cause is
	// logged.
	ErrOperationFailed = errors.New("operation failed, please try again")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
