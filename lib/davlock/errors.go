package davlock

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument indicates a malformed path, an empty token or a missing lock type.
	ErrInvalidArgument = errors.New("davlock: invalid argument")

	// ErrDisposed indicates an operation on a lock manager that has been closed.
	ErrDisposed = errors.New("davlock: lock manager is closed")

	// ErrConflict is matched (errors.Is) by every *ConflictError.
	ErrConflict = errors.New("davlock: lock conflict")

	// ErrLimitExceeded is matched (errors.Is) by every *LimitError.
	ErrLimitExceeded = errors.New("davlock: lock limit exceeded")
)

// ConflictError is returned by AddLock if the requested lock collides with an
// existing lock. Lock is a copy of the conflicting lock.
type ConflictError struct {
	Lock ActiveLock
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("davlock: lock conflict with %s", e.Lock.String())
}

// Is makes errors.Is(err, ErrConflict) work
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// LimitScope identifies which limit was exceeded
type LimitScope uint8

const (
	LimitGlobal LimitScope = iota // maximum number of locks held by the manager
	LimitPerURL                   // maximum number of locks on a single path
)

func (s LimitScope) String() string {
	switch s {
	case LimitGlobal:
		return "global"
	case LimitPerURL:
		return "per-url"
	default:
		return "unknown"
	}
}

// LimitError is returned by AddLock if a lock quantity limit has been reached
type LimitError struct {
	Scope LimitScope
	Path  string
	Limit uint32
}

func (e *LimitError) Error() string {
	if e.Scope == LimitPerURL {
		return fmt.Sprintf("davlock: lock limit exceeded: /%s already holds %d locks", e.Path, e.Limit)
	}
	return fmt.Sprintf("davlock: lock limit exceeded: %d locks are held", e.Limit)
}

// Is makes errors.Is(err, ErrLimitExceeded) work
func (e *LimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}

func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}
