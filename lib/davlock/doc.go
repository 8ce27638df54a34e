// Package davlock implements the lock manager of a WebDAV server (RFC 4918).
//
// It grants, queries, refreshes and removes shared and exclusive locks on a
// hierarchical resource namespace. Locks can be recursive (depth infinity) in
// which case they apply to every descendant of their root path.
//
// Core Functionality:
//   - Conflict detection along the resource hierarchy with owner aware exceptions
//   - Hierarchical lock queries (self, parent, recursive ancestors, descendants)
//   - Lazy expiry of timed out locks on every read path
//   - Global and per-path quantity limits and a maximum lock timeout
//   - Mutation hooks as the only integration point for persistence
//
// Implementation Approach:
//
//	All locks live in an in-memory index made of two maps, token -> lock and
//	canonical path -> locks. Both maps are protected by one mutex which every
//	operation holds for its full duration. There is no background sweeper:
//	an expired lock is removed (and reported to Hooks.OnRemove) by the first
//	operation that touches it.
//
//	Conflict Rule:
//
//	  Two lock types conflict if they have the same qualified name and at
//	  least one of them is exclusive. On the same resource a lock also
//	  conflicts if the same owner already holds a lock with the same name.
//	  On related resources (ancestor or descendant) same owner locks never
//	  conflict. Anonymous owners ("") are never considered the same owner.
//
//	Limits are only checked after the conflict scan, so that expired locks
//	found by the scan free capacity before the limits are evaluated.
//
// Paths:
//
//	Paths are canonicalized by every public operation: leading and trailing
//	slashes are dropped and "" is the namespace root. Comparisons are byte
//	wise and case sensitive. See CanonicalPath.
//
// Persistence:
//
//	The manager itself keeps no state outside of memory. A durable store (see
//	package filestore) passes a Hooks implementation to NewLockManager and
//	uses Snapshot and Restore to write and load the lock set. Hooks are called
//	with the index mutex held and must not call back into the manager.
//
// Usage Example:
//
//	locks := davlock.NewLockManager(davlock.DefaultConfig(), nil)
//	defer locks.Close()
//
//	lock, err := locks.AddLock(davlock.LockRequest{
//	    Path:      "/projects/site",
//	    Type:      davlock.ExclusiveWrite,
//	    Recursive: true,
//	    OwnerID:   "alice",
//	})
//	var conflict *davlock.ConflictError
//	if errors.As(err, &conflict) {
//	    // conflict.Lock is the lock that prevents the new one
//	}
//
//	// all locks that apply to a resource below the locked collection
//	applicable, _ := locks.GetLocks("/projects/site/index.html", davlock.SelectApplicable, nil)
//
//	// release the lock
//	_, _ = locks.RemoveLock(lock)
package davlock
