// Package apperr defines the error kinds surfaced by the invitation API.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP surface.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindSubmissionClosed
	KindCapacityExceeded
	KindAuthorization
	KindNotFound
	KindStorage
	KindMalformedRequest
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSubmissionClosed:
		return "submission_closed"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	case KindMalformedRequest:
		return "malformed_request"
	default:
		return "internal"
	}
}

// Error is a classified error. Message is safe to show to callers; Err is
// the underlying cause and is only meant for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports missing or malformed user input.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Closed reports a submission made after the RSVP lock date.
func Closed(msg string) error {
	return &Error{Kind: KindSubmissionClosed, Message: msg}
}

// Capacity reports a submission that would exceed the guest limit.
func Capacity(msg string) error {
	return &Error{Kind: KindCapacityExceeded, Message: msg}
}

// Unauthorized reports a missing or wrong admin credential.
func Unauthorized() error {
	return &Error{Kind: KindAuthorization, Message: "Unauthorized"}
}

// NotFound reports an operation on an absent resource.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Malformed reports a request payload that could not be parsed.
func Malformed(msg string) error {
	return &Error{Kind: KindMalformedRequest, Message: msg}
}

// Storage wraps an I/O or decode failure of the document store.
func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// KindOf returns the kind of err, or KindInternal if err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage returns the text that may be shown to a caller. Storage and
// unclassified errors collapse to a generic message.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Server error"
	}
	switch e.Kind {
	case KindStorage, KindInternal:
		return "Server error"
	}
	return e.Message
}
