package serializer

import (
	"bytes"
	"fmt"
	"github.com/ValentinKolb/davlock/lib/binenc"
	"github.com/ValentinKolb/davlock/lib/davlock"
	"github.com/ValentinKolb/davlock/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasPath       uint32 = 1 << 0
	hasDest       uint32 = 1 << 1
	hasToken      uint32 = 1 << 2
	hasLockType   uint32 = 1 << 3
	hasRecursive  uint32 = 1 << 4
	hasTimeout    uint32 = 1 << 5
	hasSelection  uint32 = 1 << 6
	hasMode       uint32 = 1 << 7
	hasOwnerID    uint32 = 1 << 8
	hasOwnerData  uint32 = 1 << 9
	hasServerData uint32 = 1 << 10
	hasRemove     uint32 = 1 << 11
	hasLock       uint32 = 1 << 12
	hasLocks      uint32 = 1 << 13
	hasProps      uint32 = 1 << 14
	hasOk         uint32 = 1 << 15
	hasCount      uint32 = 1 << 16
	hasErr        uint32 = 1 << 17
	hasErrCode    uint32 = 1 << 18

	knownFlags uint32 = 1<<19 - 1
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

// Serialize writes the message type, the flags (uvarint) and then every
// present field in the order of the flags.
func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	flags := b.flags(&msg)

	var buf bytes.Buffer
	w := binenc.NewWriter(&buf)

	w.Byte(byte(msg.MsgType))
	w.Uvarint(uint64(flags))

	if flags&hasPath != 0 {
		w.Str(msg.Path)
	}
	if flags&hasDest != 0 {
		w.Str(msg.Dest)
	}
	if flags&hasToken != 0 {
		w.Str(msg.Token)
	}
	if flags&hasLockType != 0 {
		msg.LockType.EncodeTo(w)
	}
	if flags&hasTimeout != 0 {
		w.Uvarint(uint64(msg.Timeout))
	}
	if flags&hasSelection != 0 {
		w.Byte(byte(msg.Selection))
	}
	if flags&hasMode != 0 {
		w.Byte(byte(msg.Mode))
	}
	if flags&hasOwnerID != 0 {
		w.Str(msg.OwnerID)
	}
	if flags&hasOwnerData != 0 {
		w.Blob(msg.OwnerData)
	}
	if flags&hasServerData != 0 {
		w.Blob(msg.ServerData)
	}
	if flags&hasRemove != 0 {
		w.Uvarint(uint64(len(msg.Remove)))
		for _, name := range msg.Remove {
			w.Str(name.Local)
			w.Str(name.Space)
		}
	}
	if flags&hasLock != 0 {
		msg.Lock.EncodeTo(w)
	}
	if flags&hasLocks != 0 {
		w.Uvarint(uint64(len(msg.Locks)))
		for i := range msg.Locks {
			msg.Locks[i].EncodeTo(w)
		}
	}
	if flags&hasProps != 0 {
		w.Uvarint(uint64(len(msg.Props)))
		for _, prop := range msg.Props {
			w.Str(prop.Name.Local)
			w.Str(prop.Name.Space)
			w.Blob(prop.Value)
		}
	}
	if flags&hasCount != 0 {
		w.Uvarint(msg.Count)
	}
	if flags&hasErr != 0 {
		w.Str(msg.Err)
	}
	if flags&hasErrCode != 0 {
		w.Byte(byte(msg.ErrCode))
	}

	if err := w.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	if len(data) < 2 {
		return fmt.Errorf("data too short for binary format")
	}

	r := binenc.NewReader(bytes.NewReader(data))
	*msg = common.Message{}

	msg.MsgType = common.MessageType(r.Byte())
	flags64 := r.Uvarint()
	if err := r.Err(); err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if flags64&^uint64(knownFlags) != 0 {
		return fmt.Errorf("unknown field flags %#x", flags64)
	}
	flags := uint32(flags64)

	if flags&hasPath != 0 {
		msg.Path = r.Str()
	}
	if flags&hasDest != 0 {
		msg.Dest = r.Str()
	}
	if flags&hasToken != 0 {
		msg.Token = r.Str()
	}
	if flags&hasLockType != 0 {
		t, err := davlock.DecodeLockType(r)
		if err != nil {
			return fmt.Errorf("failed to read lock type: %w", err)
		}
		msg.LockType = &t
	}
	msg.Recursive = flags&hasRecursive != 0
	if flags&hasTimeout != 0 {
		timeout := r.Uvarint()
		if timeout > uint64(^uint32(0)) {
			return fmt.Errorf("timeout %d out of range", timeout)
		}
		msg.HasTimeout = true
		msg.Timeout = uint32(timeout)
	}
	if flags&hasSelection != 0 {
		msg.Selection = davlock.Selection(r.Byte())
	}
	if flags&hasMode != 0 {
		msg.Mode = davlock.RemoveMode(r.Byte())
	}
	if flags&hasOwnerID != 0 {
		msg.OwnerID = r.Str()
	}
	if flags&hasOwnerData != 0 {
		msg.OwnerData = r.Blob()
	}
	if flags&hasServerData != 0 {
		msg.ServerData = r.Blob()
	}
	if flags&hasRemove != 0 {
		n, err := b.count(r, len(data))
		if err != nil {
			return err
		}
		msg.Remove = make([]davlock.QName, n)
		for i := range msg.Remove {
			msg.Remove[i].Local = r.Str()
			msg.Remove[i].Space = r.Str()
		}
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("failed to read request fields: %w", err)
	}

	if flags&hasLock != 0 {
		lock, err := davlock.DecodeActiveLock(r)
		if err != nil {
			return fmt.Errorf("failed to read lock: %w", err)
		}
		msg.Lock = &lock
	}
	if flags&hasLocks != 0 {
		n, err := b.count(r, len(data))
		if err != nil {
			return err
		}
		msg.Locks = make([]davlock.ActiveLock, n)
		for i := range msg.Locks {
			if msg.Locks[i], err = davlock.DecodeActiveLock(r); err != nil {
				return fmt.Errorf("failed to read lock %d: %w", i, err)
			}
		}
	}
	if flags&hasProps != 0 {
		n, err := b.count(r, len(data))
		if err != nil {
			return err
		}
		msg.Props = make([]common.Property, n)
		for i := range msg.Props {
			msg.Props[i].Name.Local = r.Str()
			msg.Props[i].Name.Space = r.Str()
			msg.Props[i].Value = r.Blob()
		}
	}

	msg.Ok = flags&hasOk != 0
	if flags&hasCount != 0 {
		msg.Count = r.Uvarint()
	}
	if flags&hasErr != 0 {
		msg.Err = r.Str()
	}
	if flags&hasErrCode != 0 {
		msg.ErrCode = common.ErrorCode(r.Byte())
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("failed to read response fields: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// flags calculates which fields of the message have to be written
func (b binarySerializerImpl) flags(msg *common.Message) uint32 {
	var flags uint32
	set := func(cond bool, flag uint32) {
		if cond {
			flags |= flag
		}
	}

	set(msg.Path != "", hasPath)
	set(msg.Dest != "", hasDest)
	set(msg.Token != "", hasToken)
	set(msg.LockType != nil, hasLockType)
	set(msg.Recursive, hasRecursive)
	set(msg.HasTimeout, hasTimeout)
	set(msg.Selection != 0, hasSelection)
	set(msg.Mode != 0, hasMode)
	set(msg.OwnerID != "", hasOwnerID)
	set(msg.OwnerData != nil, hasOwnerData)
	set(msg.ServerData != nil, hasServerData)
	set(msg.Remove != nil, hasRemove)
	set(msg.Lock != nil, hasLock)
	set(msg.Locks != nil, hasLocks)
	set(msg.Props != nil, hasProps)
	set(msg.Ok, hasOk)
	set(msg.Count != 0, hasCount)
	set(msg.Err != "", hasErr)
	set(msg.ErrCode != common.ErrCodeNone, hasErrCode)
	return flags
}

// count reads a list length, every element needs at least one byte
func (b binarySerializerImpl) count(r *binenc.Reader, size int) (int, error) {
	n := r.Uvarint()
	if err := r.Err(); err != nil {
		return 0, fmt.Errorf("failed to read list length: %w", err)
	}
	if n > uint64(size) {
		return 0, fmt.Errorf("list length %d exceeds message size %d", n, size)
	}
	return int(n), nil
}
