package davlock

import (
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"sync"
)

var Logger = logger.GetLogger("davlock")

// LockManager implements ILockManager on top of an in-memory lock index.
//
// A single mutex protects the whole index; every operation holds it for its
// full duration, including the removal of expired locks it runs into and the
// hook calls. Operations are therefore linearizable and no two conflicting
// locks can ever be granted.
type LockManager struct {
	mu      sync.Mutex
	idx     *lockIndex
	config  Config
	hooks   Hooks
	closed  bool
	metrics *managerMetrics
}

// NewLockManager creates an empty lock manager. hooks may be nil.
//
// Usage:
//
//	locks := davlock.NewLockManager(davlock.DefaultConfig(), nil)
//	defer locks.Close()
//
//	lock, err := locks.AddLock(davlock.LockRequest{
//		Path:    "/docs/report.odt",
//		Type:    davlock.ExclusiveWrite,
//		Timeout: davlock.Seconds(300),
//		OwnerID: "alice",
//	})
func NewLockManager(config Config, hooks Hooks) *LockManager {
	if hooks == nil {
		hooks = NopHooks{}
	}
	if config.TimeoutPolicy == nil {
		config.TimeoutPolicy = DefaultTimeoutPolicy
	}
	if config.Name == "" {
		config.Name = "default"
	}

	m := &LockManager{
		config:  config,
		hooks:   hooks,
		metrics: newManagerMetrics(config.Name),
	}
	m.idx = newLockIndex(m.expired)
	return m
}

// expired is called by the index for every lazily removed lock
func (m *LockManager) expired(l *ActiveLock) {
	m.metrics.expired.Inc()
	Logger.Debugf("[%s] lock %s on /%s expired", m.config.Name, l.Token, l.Path)
	m.hooks.OnRemove(l.clone())
}

// --------------------------------------------------------------------------
// Interface Methods (docu see davlock.ILockManager)
// --------------------------------------------------------------------------

func (m *LockManager) AddLock(req LockRequest) (ActiveLock, error) {
	if req.Type.IsZero() {
		return ActiveLock{}, invalidArgf("lock type is required")
	}
	path, err := CanonicalPath(req.Path)
	if err != nil {
		return ActiveLock{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ActiveLock{}, ErrDisposed
	}
	now := m.config.now()

	// conflict detection (this also removes expired locks in scope)
	sel := SelectApplicable
	if req.Recursive {
		sel |= SelectDescendants
	}
	for _, existing := range m.idx.selectLocks(path, sel, nil, now) {
		if existing.ConflictsWith(path, req.Type, req.OwnerID) {
			m.metrics.conflicts.Inc()
			Logger.Debugf("[%s] %s on /%s by %q conflicts with %s", m.config.Name, req.Type, path, req.OwnerID, existing)
			return ActiveLock{}, &ConflictError{Lock: existing.clone()}
		}
	}

	// limits are checked after the scan so that expired locks free capacity first.
	// Expired locks outside the scanned paths are swept once the global limit is hit.
	if max := m.config.MaximumLocks; max != 0 && m.idx.count() >= int(max) {
		m.idx.expireAll(now)
		if m.idx.count() >= int(max) {
			m.metrics.limited.Inc()
			return ActiveLock{}, &LimitError{Scope: LimitGlobal, Limit: max}
		}
	}
	if max := m.config.MaximumLocksPerURL; max != 0 && m.idx.countAt(path) >= int(max) {
		m.metrics.limited.Inc()
		return ActiveLock{}, &LimitError{Scope: LimitPerURL, Path: path, Limit: max}
	}

	token, err := m.uniqueToken()
	if err != nil {
		return ActiveLock{}, err
	}

	timeout := m.config.DefaultTimeout
	if req.Timeout != nil {
		timeout = *req.Timeout
	}
	timeout = m.config.clipTimeout(timeout)

	lock := &ActiveLock{
		Path:           path,
		Token:          token,
		Type:           req.Type,
		Recursive:      req.Recursive,
		CreatedAt:      now,
		TimeoutSeconds: timeout,
		ExpiresAt:      expiryFor(now, timeout),
		OwnerID:        req.OwnerID,
		OwnerData:      cloneBytes(req.OwnerData),
		ServerData:     cloneBytes(req.ServerData),
	}
	m.idx.insert(lock)

	m.metrics.granted.Inc()
	Logger.Debugf("[%s] granted %s", m.config.Name, lock)
	m.hooks.OnAdd(lock.clone())

	return lock.clone(), nil
}

func (m *LockManager) GetLock(token, path string) (ActiveLock, bool, error) {
	if token == "" {
		return ActiveLock{}, false, invalidArgf("lock token is required")
	}
	var err error
	if path != "" {
		if path, err = CanonicalPath(path); err != nil {
			return ActiveLock{}, false, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ActiveLock{}, false, ErrDisposed
	}

	l := m.idx.get(token, m.config.now())
	if l == nil || (path != "" && !l.IsInScope(path)) {
		return ActiveLock{}, false, nil
	}
	return l.clone(), true, nil
}

func (m *LockManager) GetLocks(path string, sel Selection, filter func(ActiveLock) bool) ([]ActiveLock, error) {
	var indexFilter func(*ActiveLock) bool
	if filter != nil {
		indexFilter = func(l *ActiveLock) bool { return filter(l.clone()) }
	}
	return m.query(path, sel, indexFilter)
}

func (m *LockManager) GetConflictingLocks(path string, t LockType, sel Selection, ownerID string) ([]ActiveLock, error) {
	if t.IsZero() {
		return nil, invalidArgf("lock type is required")
	}
	canonical, err := CanonicalPath(path)
	if err != nil {
		return nil, err
	}
	return m.query(canonical, sel, func(l *ActiveLock) bool {
		return l.ConflictsWith(canonical, t, ownerID)
	})
}

func (m *LockManager) RefreshLock(lock ActiveLock, timeout *uint32) (ActiveLock, bool, error) {
	if lock.Token == "" {
		return ActiveLock{}, false, invalidArgf("lock token is required")
	}
	path, err := CanonicalPath(lock.Path)
	if err != nil {
		return ActiveLock{}, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ActiveLock{}, false, ErrDisposed
	}
	now := m.config.now()

	l := m.idx.get(lock.Token, now)
	if l == nil || l.Path != path {
		return ActiveLock{}, false, nil
	}

	newTimeout := m.config.clipTimeout(m.config.TimeoutPolicy(l.clone(), timeout))
	l.refresh(newTimeout, now)

	m.metrics.refreshed.Inc()
	Logger.Debugf("[%s] refreshed %s", m.config.Name, l)
	m.hooks.OnUpdate(l.clone())

	return l.clone(), true, nil
}

func (m *LockManager) RemoveLock(lock ActiveLock) (bool, error) {
	if lock.Token == "" {
		return false, invalidArgf("lock token is required")
	}
	path, err := CanonicalPath(lock.Path)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrDisposed
	}

	l := m.idx.get(lock.Token, m.config.now())
	if l == nil || l.Path != path {
		return false, nil
	}
	m.removeLocked(l)
	return true, nil
}

func (m *LockManager) RemoveLocks(path string, mode RemoveMode) (bool, error) {
	canonical, err := CanonicalPath(path)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrDisposed
	}
	now := m.config.now()

	var targets []*ActiveLock
	switch mode {
	case RemoveNonRecursive:
		targets = m.idx.selectLocks(canonical, SelectSelf, nil, now)
	case RemoveRecursive:
		targets = m.idx.selectLocks(canonical, SelectSelfAndDescendants, nil, now)
	case RemoveRequireEmpty:
		if m.idx.hasDescendantLocks(canonical, now) {
			return false, nil
		}
		targets = m.idx.selectLocks(canonical, SelectSelf, nil, now)
	default:
		return false, invalidArgf("unknown remove mode %d", mode)
	}

	for _, l := range targets {
		m.removeLocked(l)
	}
	if len(targets) > 0 {
		Logger.Debugf("[%s] removed %d locks at /%s (%s)", m.config.Name, len(targets), canonical, mode)
	}
	return true, nil
}

// Close disposes the manager. It is safe to call Close more than once.
func (m *LockManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// --------------------------------------------------------------------------
// Persistence Seam
// --------------------------------------------------------------------------

// Snapshot returns a copy of every live lock. It is still available after
// Close so that a store can write back the final state.
func (m *LockManager) Snapshot() []ActiveLock {
	m.mu.Lock()
	defer m.mu.Unlock()

	held := m.idx.all(m.config.now())
	locks := make([]ActiveLock, len(held))
	for i, l := range held {
		locks[i] = l.clone()
	}
	return locks
}

// Restore inserts previously persisted locks without calling any hook.
// Locks that have expired in the meantime are skipped; the number of
// restored locks is returned. Duplicate tokens are an error.
func (m *LockManager) Restore(locks []ActiveLock) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrDisposed
	}
	now := m.config.now()

	restored := 0
	for i := range locks {
		l := locks[i].clone()
		if l.Token == "" || l.Type.IsZero() {
			return restored, invalidArgf("restored lock %d is incomplete", i)
		}
		if p, err := CanonicalPath(l.Path); err != nil || p != l.Path {
			return restored, invalidArgf("restored lock %s has invalid path %q", l.Token, l.Path)
		}
		if _, exists := m.idx.byToken[l.Token]; exists {
			return restored, fmt.Errorf("davlock: duplicate lock token %s", l.Token)
		}
		if l.Expired(now) {
			continue
		}
		m.idx.insert(&l)
		restored++
	}
	return restored, nil
}

// Count returns the number of locks currently held. Expired locks are removed first.
func (m *LockManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idx.expireAll(m.config.now())
	return m.idx.count()
}

// Name returns the configured name of the manager
func (m *LockManager) Name() string {
	return m.config.Name
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// query runs a selection on a path and returns copies of the result
func (m *LockManager) query(path string, sel Selection, filter func(*ActiveLock) bool) ([]ActiveLock, error) {
	canonical, err := CanonicalPath(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrDisposed
	}

	selected := m.idx.selectLocks(canonical, sel, filter, m.config.now())
	locks := make([]ActiveLock, len(selected))
	for i, l := range selected {
		locks[i] = l.clone()
	}
	return locks, nil
}

// removeLocked removes a held lock and fires the hook. Requires m.mu.
func (m *LockManager) removeLocked(l *ActiveLock) {
	if !m.idx.remove(l) {
		return
	}
	m.metrics.removed.Inc()
	m.hooks.OnRemove(l.clone())
}

// uniqueToken mints a token that is not used by any held lock. Requires m.mu.
func (m *LockManager) uniqueToken() (string, error) {
	for {
		token, err := newToken()
		if err != nil {
			return "", err
		}
		if _, exists := m.idx.byToken[token]; !exists {
			return token, nil
		}
	}
}
