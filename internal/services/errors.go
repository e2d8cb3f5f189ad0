package services

import (
	"errors"
	"strings"
)

// Failure classes. Every error that crosses a package boundary carries one so
// the daemon can tell a bad config from a flaky download client.
var (
	ErrExternalTool  = errors.New("external service error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
)

// Error is a classified failure in one component operation.
type Error struct {
	Kind      error
	Component string
	Operation string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	for _, part := range []string{e.Component, e.Operation, e.Message} {
		if part != "" {
			b.WriteString(": ")
			b.WriteString(part)
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the class and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap classifies err under kind. A nil kind means ErrTransient.
func Wrap(kind error, component, operation, message string, err error) error {
	if kind == nil {
		kind = ErrTransient
	}
	return &Error{
		Kind:      kind,
		Component: strings.TrimSpace(component),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// Retryable reports whether the next scheduled run may succeed without operator
// action. Configuration, validation and not-found failures need a fix first.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrValidation) && !errors.Is(err, ErrConfiguration) && !errors.Is(err, ErrNotFound)
}
