package propstore

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/davlock/lib/davlock"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"strings"
	"sync"
)

var Logger = logger.GetLogger("propstore")

// ErrDisposed indicates an operation on a closed store
var ErrDisposed = errors.New("propstore: store is closed")

// Properties maps property names to their verbatim serialized XML value
type Properties map[davlock.QName][]byte

// Clone returns a deep copy
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	c := make(Properties, len(p))
	for name, value := range p {
		c[name] = append([]byte(nil), value...)
	}
	return c
}

// IStore is the operation surface of a property store
type IStore interface {
	// Get returns all properties of path (nil if there are none)
	Get(path string) (Properties, error)
	// GetProperty returns a single property of path
	GetProperty(path string, name davlock.QName) (value []byte, ok bool, err error)
	// Set sets and removes properties of path in a single step
	Set(path string, set Properties, remove []davlock.QName) error
	// Delete removes the properties of path (and of all descendants if recursive)
	// and returns the number of affected resources
	Delete(path string, recursive bool) (int, error)
	// Copy copies the properties of src (and its descendants if recursive) to dst,
	// replacing the properties at the destination
	Copy(src, dst string, recursive bool) (int, error)
	// Move moves the properties of src and all descendants to dst
	Move(src, dst string) (int, error)
	// Close releases the store. All following operations fail with ErrDisposed.
	Close() error
}

// Hooks receives every committed change of a Store
type Hooks interface {
	// OnChange is called after the properties of path have been changed or deleted
	OnChange(path string)
}

type nopHooks struct{}

func (nopHooks) OnChange(string) {}

// Store keeps the dead properties of resources, keyed by canonical path.
//
// Single path operations run concurrently on the underlying map. Operations
// that span a subtree (recursive delete, copy, move, restore) take the tree
// lock exclusively so they never interleave with each other or with single
// path writes.
type Store struct {
	treeMu sync.RWMutex
	props  *xsync.MapOf[string, Properties]
	hooks  Hooks
	closed bool
}

// NewStore creates an empty property store. hooks may be nil.
func NewStore(hooks Hooks) *Store {
	if hooks == nil {
		hooks = nopHooks{}
	}
	return &Store{
		props: xsync.NewMapOf[string, Properties](),
		hooks: hooks,
	}
}

// --------------------------------------------------------------------------
// Single Path Operations
// --------------------------------------------------------------------------

// Get returns a copy of all properties of path (nil if there are none)
func (s *Store) Get(path string) (Properties, error) {
	canonical, err := davlock.CanonicalPath(path)
	if err != nil {
		return nil, err
	}

	s.treeMu.RLock()
	defer s.treeMu.RUnlock()
	if s.closed {
		return nil, ErrDisposed
	}

	props, ok := s.props.Load(canonical)
	if !ok {
		return nil, nil
	}
	return props.Clone(), nil
}

// GetProperty returns a single property value
func (s *Store) GetProperty(path string, name davlock.QName) ([]byte, bool, error) {
	props, err := s.Get(path)
	if err != nil {
		return nil, false, err
	}
	value, ok := props[name]
	return value, ok, nil
}

// Set applies a PROPPATCH like change: the properties in set are written and
// the names in remove are deleted. Both happen atomically for the path.
func (s *Store) Set(path string, set Properties, remove []davlock.QName) error {
	canonical, err := davlock.CanonicalPath(path)
	if err != nil {
		return err
	}
	for name := range set {
		if name.Local == "" {
			return fmt.Errorf("%w: property without local name", davlock.ErrInvalidArgument)
		}
	}

	s.treeMu.RLock()
	defer s.treeMu.RUnlock()
	if s.closed {
		return ErrDisposed
	}

	s.props.Compute(canonical, func(old Properties, loaded bool) (Properties, bool) {
		// values are replaced, never modified in place
		updated := make(Properties, len(old)+len(set))
		for name, value := range old {
			updated[name] = value
		}
		for _, name := range remove {
			delete(updated, name)
		}
		for name, value := range set {
			updated[name] = append([]byte(nil), value...)
		}
		return updated, len(updated) == 0
	})
	s.hooks.OnChange(canonical)
	return nil
}

// --------------------------------------------------------------------------
// Tree Operations
// --------------------------------------------------------------------------

// Delete removes the properties of path and, if recursive, of all descendants.
// It returns the number of resources whose properties were removed.
func (s *Store) Delete(path string, recursive bool) (int, error) {
	canonical, err := davlock.CanonicalPath(path)
	if err != nil {
		return 0, err
	}

	s.treeMu.Lock()
	defer s.treeMu.Unlock()
	if s.closed {
		return 0, ErrDisposed
	}

	return s.deleteLocked(canonical, recursive), nil
}

// Copy copies the properties of src (and with recursive of all descendants)
// to dst. Existing properties at the destination are replaced.
func (s *Store) Copy(src, dst string, recursive bool) (int, error) {
	from, to, err := canonicalPair(src, dst)
	if err != nil {
		return 0, err
	}

	s.treeMu.Lock()
	defer s.treeMu.Unlock()
	if s.closed {
		return 0, ErrDisposed
	}

	copied := s.copyLocked(from, to, recursive)
	return len(copied), nil
}

// Move moves the properties of src and all its descendants to dst.
// Existing properties at the destination subtree are replaced.
func (s *Store) Move(src, dst string) (int, error) {
	from, to, err := canonicalPair(src, dst)
	if err != nil {
		return 0, err
	}
	if from == to {
		return 0, nil
	}
	if isBelow(from, to) {
		return 0, fmt.Errorf("%w: cannot move a resource onto its ancestor", davlock.ErrInvalidArgument)
	}

	s.treeMu.Lock()
	defer s.treeMu.Unlock()
	if s.closed {
		return 0, ErrDisposed
	}

	s.deleteLocked(to, true)
	moved := s.copyLocked(from, to, true)
	for _, p := range moved {
		s.props.Delete(p)
		s.hooks.OnChange(p)
	}
	return len(moved), nil
}

// --------------------------------------------------------------------------
// Lifecycle & Persistence Seam
// --------------------------------------------------------------------------

// Snapshot returns a copy of all properties, keyed by path. It is still
// available after Close.
func (s *Store) Snapshot() map[string]Properties {
	s.treeMu.RLock()
	defer s.treeMu.RUnlock()

	snap := make(map[string]Properties, s.props.Size())
	s.props.Range(func(path string, props Properties) bool {
		snap[path] = props.Clone()
		return true
	})
	return snap
}

// Restore inserts persisted properties without calling any hook
func (s *Store) Restore(snap map[string]Properties) error {
	s.treeMu.Lock()
	defer s.treeMu.Unlock()
	if s.closed {
		return ErrDisposed
	}

	for path, props := range snap {
		canonical, err := davlock.CanonicalPath(path)
		if err != nil {
			return err
		}
		if len(props) == 0 {
			continue
		}
		s.props.Store(canonical, props.Clone())
	}
	return nil
}

// Len returns the number of resources with properties
func (s *Store) Len() int {
	return s.props.Size()
}

// Close disposes the store. Following operations fail with ErrDisposed.
func (s *Store) Close() error {
	s.treeMu.Lock()
	defer s.treeMu.Unlock()
	s.closed = true
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func canonicalPair(src, dst string) (string, string, error) {
	from, err := davlock.CanonicalPath(src)
	if err != nil {
		return "", "", err
	}
	to, err := davlock.CanonicalPath(dst)
	if err != nil {
		return "", "", err
	}
	if isBelow(to, from) {
		return "", "", fmt.Errorf("%w: destination is inside the source", davlock.ErrInvalidArgument)
	}
	return from, to, nil
}

// subtree returns path and all stored descendants of path. Requires treeMu.
func (s *Store) subtree(path string, recursive bool) []string {
	var paths []string
	if _, ok := s.props.Load(path); ok {
		paths = append(paths, path)
	}
	if recursive {
		s.props.Range(func(p string, _ Properties) bool {
			if isBelow(p, path) {
				paths = append(paths, p)
			}
			return true
		})
	}
	return paths
}

// deleteLocked requires the exclusive tree lock
func (s *Store) deleteLocked(path string, recursive bool) int {
	paths := s.subtree(path, recursive)
	for _, p := range paths {
		s.props.Delete(p)
		s.hooks.OnChange(p)
	}
	if len(paths) > 0 {
		Logger.Debugf("deleted properties of %d resources at /%s", len(paths), path)
	}
	return len(paths)
}

// copyLocked copies and returns the source paths. Requires the exclusive tree lock.
func (s *Store) copyLocked(from, to string, recursive bool) []string {
	paths := s.subtree(from, recursive)
	for _, p := range paths {
		props, _ := s.props.Load(p)
		target := to + p[len(from):]
		if to == "" {
			target = strings.TrimPrefix(target, "/")
		}
		s.props.Store(target, props.Clone())
		s.hooks.OnChange(target)
	}
	return paths
}

// isBelow reports whether p is a strict descendant of ancestor (canonical paths)
func isBelow(p, ancestor string) bool {
	if ancestor == "" {
		return p != ""
	}
	return len(p) > len(ancestor)+1 && p[len(ancestor)] == '/' && p[:len(ancestor)] == ancestor
}
