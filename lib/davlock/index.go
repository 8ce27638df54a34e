package davlock

import (
	"time"
)

// lockIndex holds the live locks in two maps that are always mutated together.
// It does no locking itself; every method must be called with the manager's
// mutex held.
type lockIndex struct {
	byToken map[string]*ActiveLock
	byPath  map[string][]*ActiveLock

	// onExpire is called for every lock removed because it expired
	onExpire func(l *ActiveLock)
}

func newLockIndex(onExpire func(l *ActiveLock)) *lockIndex {
	return &lockIndex{
		byToken:  make(map[string]*ActiveLock),
		byPath:   make(map[string][]*ActiveLock),
		onExpire: onExpire,
	}
}

// --------------------------------------------------------------------------
// Mutations
// --------------------------------------------------------------------------

func (idx *lockIndex) insert(l *ActiveLock) {
	idx.byToken[l.Token] = l
	idx.byPath[l.Path] = append(idx.byPath[l.Path], l)
}

// remove deletes the lock from both maps. It returns false if l is not held by the index.
func (idx *lockIndex) remove(l *ActiveLock) bool {
	if held, ok := idx.byToken[l.Token]; !ok || held != l {
		return false
	}
	delete(idx.byToken, l.Token)

	locks := idx.byPath[l.Path]
	for i, candidate := range locks {
		if candidate == l {
			locks[i] = locks[len(locks)-1]
			locks[len(locks)-1] = nil
			locks = locks[:len(locks)-1]
			break
		}
	}
	if len(locks) == 0 {
		delete(idx.byPath, l.Path)
	} else {
		idx.byPath[l.Path] = locks
	}
	return true
}

// expire removes the given (expired) locks and reports each of them once
func (idx *lockIndex) expire(expired []*ActiveLock) {
	for _, l := range expired {
		if idx.remove(l) && idx.onExpire != nil {
			idx.onExpire(l)
		}
	}
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

// get returns the lock with the given token, or nil. An expired lock is removed.
func (idx *lockIndex) get(token string, now time.Time) *ActiveLock {
	l, ok := idx.byToken[token]
	if !ok {
		return nil
	}
	if l.Expired(now) {
		idx.expire([]*ActiveLock{l})
		return nil
	}
	return l
}

// expireAll removes every lock that is expired at now and returns how many were removed
func (idx *lockIndex) expireAll(now time.Time) int {
	var expired []*ActiveLock
	for _, l := range idx.byToken {
		if l.Expired(now) {
			expired = append(expired, l)
		}
	}
	idx.expire(expired)
	return len(expired)
}

// count returns the number of locks held (including expired, not yet removed ones)
func (idx *lockIndex) count() int {
	return len(idx.byToken)
}

// countAt returns the number of locks rooted at path
func (idx *lockIndex) countAt(path string) int {
	return len(idx.byPath[path])
}

// selectLocks returns the locks selected by sel relative to the canonical path.
// Expired locks that are encountered are removed instead of returned.
//
// The walk upwards starts at path itself, where only SelectSelf matters and
// every lock matches regardless of its depth. At the parent, locks match if
// SelectParent is set, or if they are recursive and SelectRecursiveAncestors
// is set. Above the parent only recursive locks with SelectRecursiveAncestors
// match. Descendants are found by a byte wise prefix scan over all paths.
func (idx *lockIndex) selectLocks(path string, sel Selection, filter func(*ActiveLock) bool, now time.Time) []*ActiveLock {
	var (
		result  []*ActiveLock
		expired []*ActiveLock
	)

	consider := func(l *ActiveLock) {
		if l.Expired(now) {
			expired = append(expired, l)
			return
		}
		if filter == nil || filter(l) {
			result = append(result, l)
		}
	}

	// walk upwards
	if sel&(SelectSelf|SelectParent|SelectRecursiveAncestors) != 0 {
		current := path
		for level := 0; ; level++ {
			for _, l := range idx.byPath[current] {
				var match bool
				switch {
				case level == 0:
					match = sel&SelectSelf != 0
				case level == 1:
					match = sel&SelectParent != 0 || (l.Recursive && sel&SelectRecursiveAncestors != 0)
				default:
					match = l.Recursive && sel&SelectRecursiveAncestors != 0
				}
				if match {
					consider(l)
				}
			}

			// stop if no further level can match
			if level == 0 && sel&(SelectParent|SelectRecursiveAncestors) == 0 {
				break
			}
			if level >= 1 && sel&SelectRecursiveAncestors == 0 {
				break
			}
			parent, ok := parentPath(current)
			if !ok {
				break
			}
			current = parent
		}
	}

	// scan descendants
	if sel&SelectDescendants != 0 {
		for p, locks := range idx.byPath {
			if !isDescendant(p, path) {
				continue
			}
			for _, l := range locks {
				consider(l)
			}
		}
	}

	idx.expire(expired)
	return result
}

// hasDescendantLocks reports whether any live lock is rooted below path.
// Expired locks found during the scan are removed.
func (idx *lockIndex) hasDescendantLocks(path string, now time.Time) bool {
	var (
		found   bool
		expired []*ActiveLock
	)
	for p, locks := range idx.byPath {
		if !isDescendant(p, path) {
			continue
		}
		for _, l := range locks {
			if l.Expired(now) {
				expired = append(expired, l)
			} else {
				found = true
			}
		}
	}
	idx.expire(expired)
	return found
}

// all returns every lock that is not expired at now, without removing anything
func (idx *lockIndex) all(now time.Time) []*ActiveLock {
	result := make([]*ActiveLock, 0, len(idx.byToken))
	for _, l := range idx.byToken {
		if !l.Expired(now) {
			result = append(result, l)
		}
	}
	return result
}
