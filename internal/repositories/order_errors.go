package repositories

import "fmt"

type errorKind int

const (
	kindNotFound errorKind = iota
	kindConflict
	kindUnavailable
)

// storeError is the concrete RepositoryError shared by the store
// implementations in this module.
type storeError struct {
	kind errorKind
	msg  string
	err  error
}

func (e *storeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *storeError) Unwrap() error { return e.err }

func (e *storeError) IsNotFound() bool    { return e.kind == kindNotFound }
func (e *storeError) IsConflict() bool    { return e.kind == kindConflict }
func (e *storeError) IsUnavailable() bool { return e.kind == kindUnavailable }

// NewNotFoundError reports a missing record.
func NewNotFoundError(msg string) RepositoryError {
	return &storeError{kind: kindNotFound, msg: msg}
}

// NewConflictError reports a failed optimistic-concurrency check or a
// duplicate insert.
func NewConflictError(msg string) RepositoryError {
	return &storeError{kind: kindConflict, msg: msg}
}

// NewUnavailableError wraps a transient backend failure.
func NewUnavailableError(msg string, err error) RepositoryError {
	return &storeError{kind: kindUnavailable, msg: msg, err: err}
}

// IsNotFound reports whether err categorises as a missing record.
func IsNotFound(err error) bool {
	re, ok := err.(RepositoryError)
	return ok && re.IsNotFound()
}

// IsConflict reports whether err categorises as a version or uniqueness conflict.
func IsConflict(err error) bool {
	re, ok := err.(RepositoryError)
	return ok && re.IsConflict()
}
