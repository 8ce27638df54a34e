package filestore

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/davlock/lib/binenc"
	"github.com/ValentinKolb/davlock/lib/davlock"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/afero"
	"time"
)

var Logger = logger.GetLogger("filestore")

// Options configures a file backed store
type Options struct {
	// Fs opens the backing file. It is the place to inject a different
	// identity or sandbox for file access. Defaults to the os file system.
	Fs afero.Fs
	// WriteInterval is the debounce interval of the write back (default 60s)
	WriteInterval time.Duration
}

func (o Options) fs() afero.Fs {
	if o.Fs == nil {
		return afero.NewOsFs()
	}
	return o.Fs
}

// LockStore is a davlock.LockManager whose locks are kept in a container file.
//
// The file is loaded when the store is opened. Every change marks the store
// dirty and is written back after the write interval; changes within the
// interval are written together. The index lock is only held while the
// snapshot is taken, never during file I/O.
type LockStore struct {
	*davlock.LockManager
	wb *writeBack
}

// lockHooks forwards every mutation of the manager to the write back
type lockHooks struct {
	wb *writeBack
}

func (h *lockHooks) OnAdd(davlock.ActiveLock)    { h.wb.markDirty() }
func (h *lockHooks) OnUpdate(davlock.ActiveLock) { h.wb.markDirty() }
func (h *lockHooks) OnRemove(davlock.ActiveLock) { h.wb.markDirty() }

// OpenLockStore opens (or creates) the lock file at path and loads its locks.
//
// A file that exists but cannot be parsed is a fatal error: the store refuses
// to open rather than silently dropping granted locks. An empty file is an
// empty store.
func OpenLockStore(path string, config davlock.Config, opts Options) (*LockStore, error) {
	file, err := openBackingFile(opts.fs(), path, LockMagic)
	if err != nil {
		return nil, err
	}

	var loaded []davlock.ActiveLock
	err = file.load(func(r *binenc.Reader) error {
		l, err := davlock.DecodeActiveLock(r)
		if err != nil {
			return err
		}
		loaded = append(loaded, l)
		return nil
	})
	if err != nil {
		return nil, errors.Join(err, file.close())
	}

	hooks := &lockHooks{}
	manager := davlock.NewLockManager(config, hooks)

	restored, err := manager.Restore(loaded)
	if err != nil {
		_ = manager.Close()
		return nil, errors.Join(fmt.Errorf("filestore: restoring locks from %s: %w", path, err), file.close())
	}

	store := &LockStore{LockManager: manager}
	store.wb = newWriteBack("locks/"+manager.Name(), file, opts.WriteInterval, store.snapshotRecords)
	hooks.wb = store.wb

	Logger.Infof("[%s] loaded %d locks from %s (%d expired)", manager.Name(), restored, path, len(loaded)-restored)
	return store, nil
}

// snapshotRecords takes the snapshot for the write back
func (s *LockStore) snapshotRecords() []record {
	locks := s.LockManager.Snapshot()
	records := make([]record, len(locks))
	for i := range locks {
		records[i] = &locks[i]
	}
	return records
}

// Flush writes pending changes immediately
func (s *LockStore) Flush() error {
	return s.wb.flush()
}

// Pending reports whether changes are waiting to be written
func (s *LockStore) Pending() bool {
	return s.wb.isPending()
}

// Close disposes the lock manager, writes pending changes and closes the file
func (s *LockStore) Close() error {
	if err := s.LockManager.Close(); err != nil {
		return err
	}
	return s.wb.close()
}
