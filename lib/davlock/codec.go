package davlock

import (
	"bytes"
	"fmt"
	"github.com/ValentinKolb/davlock/lib/binenc"
)

// Record format versions
const (
	activeLockVersion byte = 0
)

// Lock type tags
const (
	lockTypeTagCustom         byte = 0
	lockTypeTagExclusiveWrite byte = 1
	lockTypeTagSharedWrite    byte = 2
)

// --------------------------------------------------------------------------
// LockType
// --------------------------------------------------------------------------

// EncodeTo writes the lock type. The two RFC 4918 write locks are written as
// a single tag byte, all other types as tag 0 followed by name, namespace and scope.
func (t LockType) EncodeTo(w *binenc.Writer) {
	switch t {
	case ExclusiveWrite:
		w.Byte(lockTypeTagExclusiveWrite)
	case SharedWrite:
		w.Byte(lockTypeTagSharedWrite)
	default:
		w.Byte(lockTypeTagCustom)
		w.Str(t.Name.Local)
		w.Str(t.Name.Space)
		w.Bool(t.Exclusive)
	}
}

// DecodeLockType reads a lock type written by LockType.EncodeTo
func DecodeLockType(r *binenc.Reader) (LockType, error) {
	switch tag := r.Byte(); tag {
	case lockTypeTagExclusiveWrite:
		return ExclusiveWrite, r.Err()
	case lockTypeTagSharedWrite:
		return SharedWrite, r.Err()
	case lockTypeTagCustom:
		local := r.Str()
		space := r.Str()
		exclusive := r.Bool()
		if err := r.Err(); err != nil {
			return LockType{}, err
		}
		return NewLockType(QName{Space: space, Local: local}, exclusive), nil
	default:
		if err := r.Err(); err != nil {
			return LockType{}, err
		}
		return LockType{}, fmt.Errorf("davlock: unknown lock type tag %d", tag)
	}
}

// --------------------------------------------------------------------------
// ActiveLock
// --------------------------------------------------------------------------

// EncodeTo writes the versioned binary encoding of the lock
func (l *ActiveLock) EncodeTo(w *binenc.Writer) {
	w.Byte(activeLockVersion)
	w.Time(l.CreatedAt)
	w.Bool(!l.ExpiresAt.IsZero())
	if !l.ExpiresAt.IsZero() {
		w.Time(l.ExpiresAt)
	}
	w.Str(l.Path)
	w.Bool(l.Recursive)
	w.Uvarint(uint64(l.TimeoutSeconds))
	w.Str(l.Token)
	l.Type.EncodeTo(w)
	w.OptStr(l.OwnerID, l.OwnerID != "")
	w.OptBlob(l.OwnerData)
	w.OptBlob(l.ServerData)
}

// DecodeActiveLock reads a lock written by ActiveLock.EncodeTo
func DecodeActiveLock(r *binenc.Reader) (ActiveLock, error) {
	var l ActiveLock

	if version := r.Byte(); r.Err() == nil && version != activeLockVersion {
		return l, fmt.Errorf("davlock: unsupported lock record version %d", version)
	}

	l.CreatedAt = r.Time()
	if r.Bool() {
		l.ExpiresAt = r.Time()
	}
	l.Path = r.Str()
	l.Recursive = r.Bool()
	timeout := r.Uvarint()
	l.Token = r.Str()
	if err := r.Err(); err != nil {
		return l, err
	}

	t, err := DecodeLockType(r)
	if err != nil {
		return l, err
	}
	l.Type = t

	l.OwnerID, _ = r.OptStr()
	l.OwnerData = r.OptBlob()
	l.ServerData = r.OptBlob()
	if err := r.Err(); err != nil {
		return l, err
	}

	// validate the record
	if timeout > uint64(^uint32(0)) {
		return l, fmt.Errorf("davlock: lock timeout %d out of range", timeout)
	}
	l.TimeoutSeconds = uint32(timeout)
	if (l.TimeoutSeconds == 0) != l.ExpiresAt.IsZero() {
		return l, fmt.Errorf("davlock: lock %s has inconsistent expiry", l.Token)
	}
	if l.Token == "" {
		return l, fmt.Errorf("davlock: lock record without token")
	}
	if p, err := CanonicalPath(l.Path); err != nil {
		return l, err
	} else if p != l.Path {
		return l, fmt.Errorf("davlock: lock %s has non canonical path %q", l.Token, l.Path)
	}

	return l, nil
}

// MarshalBinary implements encoding.BinaryMarshaler
func (l *ActiveLock) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	w := binenc.NewWriter(&buf)
	l.EncodeTo(w)
	if err := w.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (l *ActiveLock) UnmarshalBinary(data []byte) error {
	r := binenc.NewReader(bytes.NewReader(data))
	decoded, err := DecodeActiveLock(r)
	if err != nil {
		return err
	}
	*l = decoded
	return nil
}
