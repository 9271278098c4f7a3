package app

import (
	"errors"
	"fmt"
)

// Kind classifies an application error so the HTTP layer can pick a status.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindPrecondition
	KindForbidden
	KindUnauthorized
)

// Error is an application error carrying a user-facing message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// KindOf extracts the Kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func notFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func precondition(format string, args ...any) error {
	return &Error{Kind: KindPrecondition, Message: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func unauthorized(format string, args ...any) error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

var (
	// ErrInvalidCredentials keeps login failures indistinguishable so the
	// endpoint cannot be used for account enumeration.
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "incorrect username or password"}

	ErrUserDisabled = &Error{Kind: KindForbidden, Message: "account is disabled"}
)
