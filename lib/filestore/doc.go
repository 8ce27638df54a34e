// Package filestore keeps the state of a lock manager and a property store
// in container files.
//
// Container Format:
//
//	magic:    4 bytes ("DAVL" for locks, "DAVP" for properties)
//	version:  1 byte (0)
//	deflate compressed stream:
//	  count:   int32 (big endian)
//	  records: count versioned records (davlock.ActiveLock / propstore.Resource)
//
// Loading:
//
//	The file is opened once when the store is opened and held open until
//	Close. An empty file is an empty store. A file with an unknown magic
//	number, an unsupported version or any parse error makes the open fail
//	(ErrCorruptContainer): the store refuses to start instead of discarding
//	granted locks. On the os file system a second store on the same file
//	fails with ErrFileInUse.
//
// Write Back:
//
//	Every mutation marks the store dirty. The first mutation arms a single
//	timer (Options.WriteInterval, 60 seconds by default); all mutations until
//	it fires are written together. A write takes a snapshot under the index
//	lock, releases it and then rewrites the file (rewind, write, truncate,
//	sync) holding only the file mutex. A failed write is logged, counted and
//	retried after the next interval; the operations that caused the change
//	have already succeeded in memory and never see the error.
//	Flush forces a write, Close writes pending changes one last time.
//
// Usage Example:
//
//	locks, err := filestore.OpenLockStore("/var/lib/davlock/default.locks", davlock.DefaultConfig(), filestore.Options{})
//	if err != nil {
//	    // corrupt file or file in use
//	}
//	defer locks.Close()
package filestore
