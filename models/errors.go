package models

import (
	"errors"
	"fmt"
)

// ErrRetrievalUnavailable is returned when the embedder or vector store
// cannot be reached at query time. Callers must see this instead of a
// silently empty result set.
var ErrRetrievalUnavailable = errors.New("retrieval unavailable")

// TransientError wraps a failed remote call (summarizer, embedder, vector
// store). It is retryable by the caller; Op names the stage that failed.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ConsistencyError means an index entry referenced an element id that the
// DocStore does not know. The load invariants make this impossible, so it is
// treated as a bug rather than a recoverable condition.
type ConsistencyError struct {
	ElementID string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("index entry references unknown element %q", e.ElementID)
}
