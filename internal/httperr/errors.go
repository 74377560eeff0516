// Package httperr defines the error kinds surfaced to SQL callers.
package httperr

import "fmt"

// Kind classifies a failure.
type Kind int

const (
	Argument Kind = iota
	InvalidURL
	Connection
	Timeout
	Protocol
)

func (k Kind) String() string {
	switch k {
	case Argument:
		return "argument error"
	case InvalidURL:
		return "invalid url"
	case Connection:
		return "connection error"
	case Timeout:
		return "network timeout"
	case Protocol:
		return "protocol error"
	default:
		return fmt.Sprintf("unknown error kind %d", int(k))
	}
}

// Error wraps an underlying cause with its kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrArgument   = &Error{Kind: Argument}
	ErrInvalidURL = &Error{Kind: InvalidURL}
	ErrConnection = &Error{Kind: Connection}
	ErrTimeout    = &Error{Kind: Timeout}
	ErrProtocol   = &Error{Kind: Protocol}
)

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// New returns an error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Argumentf returns an Argument error with a formatted message.
func Argumentf(format string, args ...any) *Error {
	return &Error{Kind: Argument, Err: fmt.Errorf(format, args...)}
}
