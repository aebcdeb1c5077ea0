package tensor

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this module wraps one of them.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnsupported     = errors.New("unsupported operation")
)

// Error describes a failed tensor or operator call.
type Error struct {
	Op   string // Operation that failed (e.g., "permute", "self_attention")
	Kind error  // ErrInvalidArgument or ErrUnsupported
	Msg  string // Details
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

// Unwrap returns the error kind so callers can use errors.Is.
func (e *Error) Unwrap() error {
	return e.Kind
}

// Errorf builds an *Error of the given kind for op.
func Errorf(kind error, op, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
