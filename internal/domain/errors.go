package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure by the stage that produced it.
type Kind string

const (
	// KindAuth covers credential retrieval and token acquisition failures,
	// plus 401/403 responses from the payments API.
	KindAuth Kind = "AuthError"
	// KindFetch covers network, server and contract failures while paging
	// through the payments API.
	KindFetch Kind = "FetchError"
	// KindTransform covers unknown payment states and CSV rendering failures.
	KindTransform Kind = "TransformError"
	// KindArtifact covers storage upload and URL signing failures.
	KindArtifact Kind = "ArtifactError"
	// KindNotification covers outcome delivery failures. Never fatal.
	KindNotification Kind = "NotificationError"
	// KindInternal is the fallback for errors no stage claimed.
	KindInternal Kind = "InternalError"
)

// Error couples an underlying failure with its stage classification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E wraps err under the given kind. Returns nil for a nil err.
func E(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Errorf builds a classified error from a format string. The %w verb is
// supported so causes stay unwrappable.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the classification of err: the kind of the outermost *Error
// in its chain, KindInternal for an unclassified error, "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Classify returns err unchanged when it already carries a classification and
// wraps it as KindInternal otherwise.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindInternal, Err: err}
}
