package errors

import (
	"errors"
	"fmt"
)

// Kind classifies errors by how the caller must react to them
type Kind string

const (
	// KindSetup covers failures before any work starts: cannot bind the
	// callback port, cannot create the output directory. Fatal, no retry.
	KindSetup Kind = "setup"

	// KindAuthIntegrity is a CSRF state mismatch on the OAuth callback.
	// Fatal; the token exchange must not be attempted.
	KindAuthIntegrity Kind = "auth_integrity"

	// KindTokenExchange is a rejected code/verifier pair or a transport
	// failure during the token request. Fatal for this run.
	KindTokenExchange Kind = "token_exchange"

	// KindAPIInvariant means a response is missing a field the request
	// shape guarantees. Signals upstream contract drift, not absence.
	KindAPIInvariant Kind = "api_invariant"

	// KindTransport is a network failure talking to the API or fetching
	// an image. Aborts pagination; isolated per item during downloads.
	KindTransport Kind = "transport"

	// KindLocalIO is a failure writing a downloaded file. Isolated per
	// item; sibling downloads continue.
	KindLocalIO Kind = "local_io"
)

// Error is a kind-tagged error carrying its cause for diagnostics
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Wrapf is Wrap with a formatted message
func Wrapf(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether the first tagged error in the chain carries
// the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first tagged error in the chain, or
// the empty Kind for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Chain renders each error in the causal chain on its own line,
// outermost first. Used for boundary logging instead of a stack dump.
func Chain(err error) []string {
	var chain []string
	for err != nil {
		if e, ok := err.(*Error); ok {
			chain = append(chain, fmt.Sprintf("%s error: %s", e.Kind, e.Message))
		} else {
			chain = append(chain, err.Error())
		}
		err = errors.Unwrap(err)
	}
	return chain
}
