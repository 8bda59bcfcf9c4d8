// Package docerr defines the error kinds returned across the engine boundary.
//
// Every failure leaving a public function is a *Error whose Kind is one of the
// sentinel values below, so callers can branch with errors.Is:
//
//	if errors.Is(err, docerr.ErrMalformedContainer) {
//	    // reject upload
//	}
package docerr

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrMalformedContainer: the input is not a ZIP archive or not an OOXML package.
	ErrMalformedContainer = errors.New("malformed container")

	// ErrInvalidDocumentStructure: XML is present but cannot be parsed.
	ErrInvalidDocumentStructure = errors.New("invalid document structure")

	// ErrInvalidCredentials: the certificate or its password was rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnsupportedImageSource: an image does not use an embedded data URI.
	ErrUnsupportedImageSource = errors.New("unsupported image source")

	// ErrResourceLimitExceeded: part count, size or nesting depth above the ceiling.
	ErrResourceLimitExceeded = errors.New("resource limit exceeded")
)

// Error carries an error kind together with the operation and part that failed.
type Error struct {
	Kind error  // one of the Err* sentinels
	Op   string // operation, e.g. "opc.Open"
	Part string // package part involved, if any
	Err  error  // underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Part != "" {
		msg = fmt.Sprintf("%s: %s", e.Part, msg)
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New creates an Error of the given kind.
func New(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf creates an Error of the given kind with a formatted cause.
func Newf(kind error, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// InPart returns a copy of e attributed to the named part.
func (e *Error) InPart(part string) *Error {
	c := *e
	c.Part = part
	return &c
}

var kinds = []error{
	ErrMalformedContainer,
	ErrInvalidDocumentStructure,
	ErrInvalidCredentials,
	ErrUnsupportedImageSource,
	ErrResourceLimitExceeded,
}

// KindOf returns the sentinel kind of err, or nil if err carries none.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Code returns a short machine-readable code for the kind of err.
func Code(err error) string {
	switch KindOf(err) {
	case ErrMalformedContainer:
		return "MalformedContainer"
	case ErrInvalidDocumentStructure:
		return "InvalidDocumentStructure"
	case ErrInvalidCredentials:
		return "InvalidCredentials"
	case ErrUnsupportedImageSource:
		return "UnsupportedImageSource"
	case ErrResourceLimitExceeded:
		return "ResourceLimitExceeded"
	case nil:
		if err == nil {
			return ""
		}
	}
	return "Unknown"
}
