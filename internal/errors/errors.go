// Package errors wraps github.com/pkg/errors and adds the two error kinds the
// patch pipeline distinguishes: I/O failures and serialization failures.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// New creates a new error based on message. Wrapped so that this package does
// not appear in the stack trace.
var New = errors.New

// Errorf creates an error based on a format string and values.
var Errorf = errors.Errorf

// Wrap annotates err with message. If err is nil, Wrap returns nil.
var Wrap = errors.Wrap

// Wrapf annotates err with the format specifier. If err is nil, Wrapf returns nil.
var Wrapf = errors.Wrapf

// WithStack annotates err with a stack trace at the point WithStack was called.
var WithStack = errors.WithStack

// As finds the first error in err's tree that matches target.
func As(err error, tgt interface{}) bool { return stderrors.As(err, tgt) }

// Is reports whether any error in err's tree matches target.
func Is(x, y error) bool { return stderrors.Is(x, y) }

func Join(errs ...error) error { return stderrors.Join(errs...) }

// Kinds. Test with Is(err, ErrIO) / Is(err, ErrSerialization).
var (
	ErrIO            = stderrors.New("i/o error")
	ErrSerialization = stderrors.New("serialization error")
)

type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }

func (e *kindError) Unwrap() error { return e.err }

func (e *kindError) Is(target error) bool { return target == e.kind }

func withKind(kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(&kindError{kind: kind, err: err}, msg)
}

// IO marks err as an I/O failure and annotates it with msg.
// If err is nil, IO returns nil.
func IO(err error, msg string) error { return withKind(ErrIO, err, msg) }

// IOf is IO with a format specifier.
func IOf(err error, format string, args ...interface{}) error {
	return withKind(ErrIO, err, fmt.Sprintf(format, args...))
}

// Serialization marks err as a serialization failure (malformed hashes file,
// missing or malformed archive metadata).
func Serialization(err error, msg string) error { return withKind(ErrSerialization, err, msg) }

// Serializationf is Serialization with a format specifier.
func Serializationf(err error, format string, args ...interface{}) error {
	return withKind(ErrSerialization, err, fmt.Sprintf(format, args...))
}

// IsIO reports whether err was marked as an I/O failure.
func IsIO(err error) bool { return Is(err, ErrIO) }

// IsSerialization reports whether err was marked as a serialization failure.
func IsSerialization(err error) bool { return Is(err, ErrSerialization) }
