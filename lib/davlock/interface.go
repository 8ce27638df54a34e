package davlock

// LockRequest describes a lock to be added with AddLock
type LockRequest struct {
	// Path of the resource to lock (leading and trailing slashes are ignored)
	Path string
	// Type of the lock, must not be the zero value
	Type LockType
	// Recursive requests a depth infinity lock
	Recursive bool
	// Timeout in seconds, nil uses the manager's default timeout, 0 requests
	// a lock that never expires (subject to the maximum timeout)
	Timeout *uint32
	// OwnerID identifies the principal requesting the lock (optional)
	OwnerID string
	// OwnerData is the verbatim owner element of the request (optional)
	OwnerData []byte
	// ServerData is opaque data the server wants to keep with the lock (optional)
	ServerData []byte
}

// ILockManager is the operation surface used by the protocol layer
type ILockManager interface {
	// AddLock grants a new lock. It fails with a *ConflictError if the lock
	// collides with an existing one, and with a *LimitError if a quantity limit
	// has been reached.
	AddLock(req LockRequest) (lock ActiveLock, err error)

	// GetLock returns the lock with the given token. If path is not empty the
	// lock is only returned if it applies to path.
	GetLock(token, path string) (lock ActiveLock, ok bool, err error)

	// GetLocks returns the locks selected by sel relative to path. The optional
	// filter can further restrict the result. The order is unspecified.
	// The filter runs while the manager's index mutex is held. It must not
	// call back into the manager.
	GetLocks(path string, sel Selection, filter func(ActiveLock) bool) (locks []ActiveLock, err error)

	// GetConflictingLocks returns the selected locks which conflict with a lock
	// of type t requested by ownerID on path.
	GetConflictingLocks(path string, t LockType, sel Selection, ownerID string) (locks []ActiveLock, err error)

	// RefreshLock resets the timeout of a lock. The returned bool is false if
	// the lock no longer exists.
	RefreshLock(lock ActiveLock, timeout *uint32) (refreshed ActiveLock, ok bool, err error)

	// RemoveLock removes a single lock. The returned bool is false if the lock
	// no longer existed.
	RemoveLock(lock ActiveLock) (ok bool, err error)

	// RemoveLocks removes the locks rooted at path according to mode. It only
	// returns false in RemoveRequireEmpty mode if a descendant holds a lock,
	// in which case nothing is removed.
	RemoveLocks(path string, mode RemoveMode) (ok bool, err error)

	// Close releases the manager. All following operations fail with ErrDisposed.
	Close() (err error)
}

// Hooks receives every committed mutation of a LockManager. It is the only
// integration point for persistence.
//
// The hooks are called while the manager's index mutex is held. They must not
// call back into the manager and should return quickly.
type Hooks interface {
	// OnAdd is called after a lock has been granted
	OnAdd(lock ActiveLock)
	// OnUpdate is called after a lock has been refreshed
	OnUpdate(lock ActiveLock)
	// OnRemove is called after a lock has been removed or found expired
	OnRemove(lock ActiveLock)
}

// NopHooks ignores all mutations
type NopHooks struct{}

func (NopHooks) OnAdd(ActiveLock)    {}
func (NopHooks) OnUpdate(ActiveLock) {}
func (NopHooks) OnRemove(ActiveLock) {}
