package ticket

import (
	"errors"
	"fmt"
)

// Sentinel kinds for ticket errors. These allow errors.Is/As from callers.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("ticket not found")
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	ErrRemoteRejected    = errors.New("remote store rejected request")
	ErrMalformedRow      = errors.New("malformed row")

	// ErrUnknownColumn is reported together with ErrRemoteRejected.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrDuplicateTicket is reported together with ErrValidation.
	ErrDuplicateTicket = errors.New("duplicate ticket id")
)

// kinds lists the classification kinds in lookup order.
var kinds = []error{
	ErrValidation,
	ErrNotFound,
	ErrRemoteUnavailable,
	ErrRemoteRejected,
	ErrMalformedRow,
}

// Error tags a failure with the operation that produced it and its kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind returns an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind classifies err as kind. A nil err yields nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Invalid builds a validation error with a formatted, user-facing reason.
func Invalid(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrValidation, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the classification kind of err, or nil when err carries none.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Reason returns the innermost user-facing message of err.
func Reason(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Err == nil {
		return e.Kind.Error()
	}
	return Reason(e.Err)
}
