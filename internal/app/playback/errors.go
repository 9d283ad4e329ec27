package playback

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorKind classifies why a track could not be played.
type ErrorKind int

const (
	KindUnknown           ErrorKind = iota
	KindSourceUnavailable           // Locator unreachable or not found
	KindDecodeFailed                // Unsupported or corrupt audio
	KindAborted                     // Superseded by a later load before completion
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindSourceUnavailable:
		return "source_unavailable"
	case KindDecodeFailed:
		return "decode_failed"
	case KindAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Error is the error reported for a failed load.
type Error struct {
	Kind    ErrorKind
	TrackID string
	cause   error
}

// NewError creates an Error of the given kind wrapping cause.
func NewError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

func (e *Error) Error() string {
	msg := "playback failed: " + e.Kind.String()
	if e.TrackID != "" {
		msg = fmt.Sprintf("playback of track %s failed: %s", e.TrackID, e.Kind)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf returns the kind of the first *Error in err's chain,
// or KindUnknown if there is none.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// asError converts err into an *Error for trackID.
// Errors without a kind are reported as KindSourceUnavailable.
func asError(err error, trackID string) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return &Error{Kind: pe.Kind, TrackID: trackID, cause: pe.cause}
	}
	return &Error{Kind: KindSourceUnavailable, TrackID: trackID, cause: err}
}
