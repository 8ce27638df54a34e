package davlock

import (
	"bytes"
	"fmt"
	"time"
)

// ActiveLock is a granted lock.
//
// Values returned by a LockManager are copies: changing them has no effect on
// the lock held by the manager. The only mutation of a held lock is a refresh,
// which is performed by the manager itself.
type ActiveLock struct {
	// Path is the canonical root path of the lock ("" is the namespace root)
	Path string `json:"path"`
	// Token is the globally unique lock token (urn:uuid:...)
	Token string `json:"token"`
	// Type is the lock type
	Type LockType `json:"type"`
	// Recursive is true for depth infinity locks
	Recursive bool `json:"recursive,omitempty"`
	// CreatedAt is the time (UTC) the lock was granted
	CreatedAt time.Time `json:"created_at"`
	// TimeoutSeconds is the lock timeout, 0 means the lock never expires
	TimeoutSeconds uint32 `json:"timeout_seconds,omitempty"`
	// ExpiresAt is the expiry time (UTC), the zero time iff TimeoutSeconds is 0
	ExpiresAt time.Time `json:"expires_at"`
	// OwnerID identifies the principal holding the lock, empty if anonymous
	OwnerID string `json:"owner_id,omitempty"`
	// OwnerData is the verbatim owner element from the LOCK request (nil if absent)
	OwnerData []byte `json:"owner_data,omitempty"`
	// ServerData is opaque server side data stored with the lock (nil if absent)
	ServerData []byte `json:"server_data,omitempty"`
}

// ConflictsWith reports whether a lock of type t requested by ownerID on path
// would conflict with this lock. The caller has already established that the
// two locks overlap (same resource, or one is in the other's recursive scope).
//
// On the same resource the locks conflict if their types conflict, or if the
// same owner already holds a lock of the same type name. On different (but
// related) resources they conflict only if the types conflict and the owners
// differ.
func (l *ActiveLock) ConflictsWith(path string, t LockType, ownerID string) bool {
	if path == l.Path {
		return l.Type.ConflictsWith(t) || (sameOwner(l.OwnerID, ownerID) && l.Type.Name == t.Name)
	}
	return l.Type.ConflictsWith(t) && !sameOwner(l.OwnerID, ownerID)
}

// IsInScope reports whether the lock applies to path
func (l *ActiveLock) IsInScope(path string) bool {
	return path == l.Path || (l.Recursive && isDescendant(path, l.Path))
}

// Expired reports whether the lock has expired at the given time
func (l *ActiveLock) Expired(now time.Time) bool {
	return !l.ExpiresAt.IsZero() && !now.Before(l.ExpiresAt)
}

// Remaining returns the time left until the lock expires (0 for locks without timeout)
func (l *ActiveLock) Remaining(now time.Time) time.Duration {
	if l.ExpiresAt.IsZero() {
		return 0
	}
	if d := l.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

func (l *ActiveLock) String() string {
	depth := "0"
	if l.Recursive {
		depth = "infinity"
	}
	return fmt.Sprintf("%s on /%s (token=%s, depth=%s, timeout=%ds)", l.Type, l.Path, l.Token, depth, l.TimeoutSeconds)
}

// Equal reports whether both locks are identical in every field
func (l *ActiveLock) Equal(o *ActiveLock) bool {
	if l == nil || o == nil {
		return l == o
	}
	return l.Path == o.Path &&
		l.Token == o.Token &&
		l.Type == o.Type &&
		l.Recursive == o.Recursive &&
		l.CreatedAt.Equal(o.CreatedAt) &&
		l.TimeoutSeconds == o.TimeoutSeconds &&
		l.ExpiresAt.Equal(o.ExpiresAt) &&
		l.OwnerID == o.OwnerID &&
		bytesEqualNil(l.OwnerData, o.OwnerData) &&
		bytesEqualNil(l.ServerData, o.ServerData)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// refresh sets a new timeout starting at now.
// Must only be called while holding the index mutex.
func (l *ActiveLock) refresh(timeout uint32, now time.Time) {
	l.TimeoutSeconds = timeout
	l.ExpiresAt = expiryFor(now, timeout)
}

// clone returns a deep copy of the lock
func (l *ActiveLock) clone() ActiveLock {
	c := *l
	c.OwnerData = cloneBytes(l.OwnerData)
	c.ServerData = cloneBytes(l.ServerData)
	return c
}

func expiryFor(start time.Time, timeout uint32) time.Time {
	if timeout == 0 {
		return time.Time{}
	}
	return start.Add(time.Duration(timeout) * time.Second)
}

// sameOwner compares owner ids. Anonymous locks ("") never share an owner.
func sameOwner(a, b string) bool {
	return a != "" && a == b
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

func bytesEqualNil(a, b []byte) bool {
	return (a == nil) == (b == nil) && bytes.Equal(a, b)
}
