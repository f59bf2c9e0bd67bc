package talna

import (
	"strconv"

	"github.com/pkg/errors"
)

// Kind classifies the errors talna can return. Callers can compare with
// errors.Is against the ErrCancelled sentinel below, or switch on the Kind
// field of an *Error.
type Kind int

const (
	// KindNone marks errors that carry no talna-specific classification
	// (e.g. a bare storage error wrapped from badger).
	KindNone Kind = iota

	// KindInvalidName marks a metric or tag name that failed charset,
	// length, or delimiter validation.
	KindInvalidName

	// KindInvalidTagSet marks a tagset with duplicate keys.
	KindInvalidTagSet

	// KindParseError marks a duration literal that failed to parse. Filter
	// expressions report failures as *ParseError instead.
	KindParseError

	// KindEncodingMismatch marks an attempt to open a database whose
	// stored value width disagrees with the requested configuration.
	KindEncodingMismatch

	// KindStorageError marks an error surfaced by the underlying KV engine.
	KindStorageError

	// KindCancelled marks a query aborted via its cancellation token.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidName:
		return "InvalidName"
	case KindInvalidTagSet:
		return "InvalidTagSet"
	case KindParseError:
		return "ParseError"
	case KindEncodingMismatch:
		return "EncodingMismatch"
	case KindStorageError:
		return "StorageError"
	case KindCancelled:
		return "Cancelled"
	default:
		return "Error"
	}
}

// Error is talna's error type. It always carries a Kind so callers can
// branch on failure category without string matching.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// ErrInvalidName reports an invalid metric, tag key, or tag value.
func ErrInvalidName(msg string) *Error {
	return newError(KindInvalidName, msg)
}

// ErrInvalidTagSet reports a tagset with duplicate keys.
func ErrInvalidTagSet(msg string) *Error {
	return newError(KindInvalidTagSet, msg)
}

// ParseError reports a filter expression that failed to parse. Pos is the
// byte offset into the input at which the error was detected.
type ParseError struct {
	Pos  int
	Kind ParseErrorKind
	Msg  string
}

// ParseErrorKind enumerates the ways a filter expression can fail to parse.
type ParseErrorKind int

const (
	UnexpectedToken ParseErrorKind = iota
	UnexpectedEnd
	InvalidIdentifier
)

func (k ParseErrorKind) String() string {
	switch k {
	case UnexpectedToken:
		return "UnexpectedToken"
	case UnexpectedEnd:
		return "UnexpectedEnd"
	case InvalidIdentifier:
		return "InvalidIdentifier"
	default:
		return "UnknownParseErrorKind"
	}
}

func (e *ParseError) Error() string {
	return "ParseError{pos=" + strconv.Itoa(e.Pos) + ", kind=" + e.Kind.String() + "}: " + e.Msg
}

// ErrStorage wraps an underlying KV-engine error with storage-error
// classification and a short operation description.
func ErrStorage(op string, cause error) *Error {
	return &Error{Kind: KindStorageError, Msg: op, Err: errors.Wrap(cause, op)}
}

// ErrEncodingMismatch reports that a database was opened with a
// value-width configuration that disagrees with its persisted metadata.
func ErrEncodingMismatch(msg string) *Error {
	return newError(KindEncodingMismatch, msg)
}

// ErrCancelled reports that a query was aborted via its cancellation token.
var ErrCancelled = newError(KindCancelled, "query cancelled")
