package common

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/davlock/lib/davlock"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Request fields
	Path       string             `json:"path,omitempty"`        // Used for: all operations except lock get by token (source path for copy / move)
	Dest       string             `json:"dest,omitempty"`        // Used for: property copy and move
	Token      string             `json:"token,omitempty"`       // Used for: lock get
	LockType   *davlock.LockType  `json:"lock_type,omitempty"`   // Used for: lock add, conflicts
	Recursive  bool               `json:"recursive,omitempty"`   // Used for: lock add, property delete and copy
	HasTimeout bool               `json:"has_timeout,omitempty"` // Used for: lock add, refresh (false = use the default)
	Timeout    uint32             `json:"timeout,omitempty"`     // Used for: lock add, refresh
	Selection  davlock.Selection  `json:"selection,omitempty"`   // Used for: lock list, conflicts
	Mode       davlock.RemoveMode `json:"mode,omitempty"`        // Used for: lock remove tree
	OwnerID    string             `json:"owner_id,omitempty"`    // Used for: lock add, conflicts
	OwnerData  []byte             `json:"owner_data,omitempty"`  // Used for: lock add
	ServerData []byte             `json:"server_data,omitempty"` // Used for: lock add
	Remove     []davlock.QName    `json:"remove,omitempty"`      // Used for: property set

	// Request and response fields
	Lock  *davlock.ActiveLock  `json:"lock,omitempty"`  // Used for: lock refresh / remove (request), add / get / refresh (response), conflicts (error)
	Locks []davlock.ActiveLock `json:"locks,omitempty"` // Used for: lock list, conflicts (response)
	Props []Property           `json:"props,omitempty"` // Used for: property set (request), property get (response)

	// Response only fields
	Ok      bool      `json:"ok,omitempty"`       // Used for: lock get, refresh, remove, remove tree
	Count   uint64    `json:"count,omitempty"`    // Used for: property delete, copy, move; the limit of a limit error
	Err     string    `json:"err,omitempty"`      // Empty if no error, otherwise contains the error message
	ErrCode ErrorCode `json:"err_code,omitempty"` // Kind of error, used by the client to rebuild typed errors
}

// Property is a single dead property in a message
type Property struct {
	Name  davlock.QName `json:"name"`
	Value []byte        `json:"value"`
}

// setTimeout stores an optional timeout
func (m *Message) setTimeout(timeout *uint32) {
	if timeout != nil {
		m.HasTimeout = true
		m.Timeout = *timeout
	}
}

// TimeoutPtr returns the optional timeout of the message (nil if not set)
func (m *Message) TimeoutPtr() *uint32 {
	if !m.HasTimeout {
		return nil
	}
	return davlock.Seconds(m.Timeout)
}

// --------------------------------------------------------------------------
// Message Factory Functions (Locks)
// --------------------------------------------------------------------------

// NewAddLockRequest creates a new AddLock request
func NewAddLockRequest(req davlock.LockRequest) *Message {
	lockType := req.Type
	msg := &Message{
		MsgType:    MsgTLCKAdd,
		Path:       req.Path,
		LockType:   &lockType,
		Recursive:  req.Recursive,
		OwnerID:    req.OwnerID,
		OwnerData:  req.OwnerData,
		ServerData: req.ServerData,
	}
	msg.setTimeout(req.Timeout)
	return msg
}

// LockRequest rebuilds the lock request of an AddLock message
func (m *Message) LockRequest() davlock.LockRequest {
	req := davlock.LockRequest{
		Path:       m.Path,
		Recursive:  m.Recursive,
		Timeout:    m.TimeoutPtr(),
		OwnerID:    m.OwnerID,
		OwnerData:  m.OwnerData,
		ServerData: m.ServerData,
	}
	if m.LockType != nil {
		req.Type = *m.LockType
	}
	return req
}

// NewAddLockResponse creates a new AddLock response
func NewAddLockResponse(lock davlock.ActiveLock, err error) *Message {
	msg := &Message{
		MsgType: MsgTLCKAdd,
	}
	if err != nil {
		msg.SetError(err)
		return msg
	}
	msg.Lock = &lock
	return msg
}

// NewGetLockRequest creates a new GetLock request
func NewGetLockRequest(token, path string) *Message {
	return &Message{
		MsgType: MsgTLCKGet,
		Token:   token,
		Path:    path,
	}
}

// NewGetLockResponse creates a new GetLock response
func NewGetLockResponse(lock davlock.ActiveLock, ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTLCKGet,
		Ok:      ok,
	}
	if ok {
		msg.Lock = &lock
	}
	if err != nil {
		msg.SetError(err)
	}
	return msg
}

// NewGetLocksRequest creates a new GetLocks request
func NewGetLocksRequest(path string, sel davlock.Selection) *Message {
	return &Message{
		MsgType:   MsgTLCKList,
		Path:      path,
		Selection: sel,
	}
}

// NewGetLocksResponse creates a new GetLocks response
func NewGetLocksResponse(locks []davlock.ActiveLock, err error) *Message {
	msg := &Message{
		MsgType: MsgTLCKList,
		Locks:   locks,
	}
	if err != nil {
		msg.SetError(err)
	}
	return msg
}

// NewGetConflictingLocksRequest creates a new GetConflictingLocks request
func NewGetConflictingLocksRequest(path string, t davlock.LockType, sel davlock.Selection, ownerID string) *Message {
	return &Message{
		MsgType:   MsgTLCKConflicts,
		Path:      path,
		LockType:  &t,
		Selection: sel,
		OwnerID:   ownerID,
	}
}

// NewGetConflictingLocksResponse creates a new GetConflictingLocks response
func NewGetConflictingLocksResponse(locks []davlock.ActiveLock, err error) *Message {
	msg := &Message{
		MsgType: MsgTLCKConflicts,
		Locks:   locks,
	}
	if err != nil {
		msg.SetError(err)
	}
	return msg
}

// NewRefreshLockRequest creates a new RefreshLock request
func NewRefreshLockRequest(lock davlock.ActiveLock, timeout *uint32) *Message {
	msg := &Message{
		MsgType: MsgTLCKRefresh,
		Lock:    &lock,
	}
	msg.setTimeout(timeout)
	return msg
}

// NewRefreshLockResponse creates a new RefreshLock response
func NewRefreshLockResponse(lock davlock.ActiveLock, ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTLCKRefresh,
		Ok:      ok,
	}
	if ok {
		msg.Lock = &lock
	}
	if err != nil {
		msg.SetError(err)
	}
	return msg
}

// NewRemoveLockRequest creates a new RemoveLock request
func NewRemoveLockRequest(lock davlock.ActiveLock) *Message {
	return &Message{
		MsgType: MsgTLCKRemove,
		Lock:    &lock,
	}
}

// NewRemoveLockResponse creates a new RemoveLock response
func NewRemoveLockResponse(ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTLCKRemove,
		Ok:      ok,
	}
	if err != nil {
		msg.SetError(err)
	}
	return msg
}

// NewRemoveLocksRequest creates a new RemoveLocks request
func NewRemoveLocksRequest(path string, mode davlock.RemoveMode) *Message {
	return &Message{
		MsgType: MsgTLCKRemoveTree,
		Path:    path,
		Mode:    mode,
	}
}

// NewRemoveLocksResponse creates a new RemoveLocks response
func NewRemoveLocksResponse(ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTLCKRemoveTree,
		Ok:      ok,
	}
	if err != nil {
		msg.SetError(err)
	}
	return msg
}

// --------------------------------------------------------------------------
// Message Factory Functions (Properties)
// --------------------------------------------------------------------------

// NewGetPropsRequest creates a new property Get request
func NewGetPropsRequest(path string) *Message {
	return &Message{
		MsgType: MsgTPROPGet,
		Path:    path,
	}
}

// NewGetPropsResponse creates a new property Get response
func NewGetPropsResponse(props []Property, err error) *Message {
	msg := &Message{
		MsgType: MsgTPROPGet,
		Props:   props,
	}
	if err != nil {
		msg.SetError(err)
	}
	return msg
}

// NewSetPropsRequest creates a new property Set request
func NewSetPropsRequest(path string, set []Property, remove []davlock.QName) *Message {
	return &Message{
		MsgType: MsgTPROPSet,
		Path:    path,
		Props:   set,
		Remove:  remove,
	}
}

// NewDeletePropsRequest creates a new property Delete request
func NewDeletePropsRequest(path string, recursive bool) *Message {
	return &Message{
		MsgType:   MsgTPROPDelete,
		Path:      path,
		Recursive: recursive,
	}
}

// NewCopyPropsRequest creates a new property Copy request
func NewCopyPropsRequest(src, dst string, recursive bool) *Message {
	return &Message{
		MsgType:   MsgTPROPCopy,
		Path:      src,
		Dest:      dst,
		Recursive: recursive,
	}
}

// NewMovePropsRequest creates a new property Move request
func NewMovePropsRequest(src, dst string) *Message {
	return &Message{
		MsgType: MsgTPROPMove,
		Path:    src,
		Dest:    dst,
	}
}

// NewPropsResponse creates a response for the property operations that
// return a count of affected resources (Set uses count 0)
func NewPropsResponse(msgType MessageType, count int, err error) *Message {
	msg := &Message{
		MsgType: msgType,
		Count:   uint64(count),
	}
	if err != nil {
		msg.SetError(err)
	}
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
		ErrCode: ErrCodeInternal,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var messageTypeNames = map[MessageType]string{
	MsgTSuccess:       "success",
	MsgTError:         "error",
	MsgTLCKAdd:        "lockAdd",
	MsgTLCKGet:        "lockGet",
	MsgTLCKList:       "lockList",
	MsgTLCKConflicts:  "lockConflicts",
	MsgTLCKRefresh:    "lockRefresh",
	MsgTLCKRemove:     "lockRemove",
	MsgTLCKRemoveTree: "lockRemoveTree",
	MsgTPROPGet:       "propGet",
	MsgTPROPSet:       "propSet",
	MsgTPROPDelete:    "propDelete",
	MsgTPROPCopy:      "propCopy",
	MsgTPROPMove:      "propMove",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	for msgType, name := range messageTypeNames {
		if name == s {
			*t = msgType
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// ILockManager operations

	MsgTLCKAdd        // Grant a new lock
	MsgTLCKGet        // Get a lock by token
	MsgTLCKList       // Select locks relative to a path
	MsgTLCKConflicts  // Select the locks conflicting with a lock request
	MsgTLCKRefresh    // Refresh the timeout of a lock
	MsgTLCKRemove     // Remove a single lock
	MsgTLCKRemoveTree // Remove the locks of a path (and its descendants)

	// Property store operations

	MsgTPROPGet    // Get all properties of a path
	MsgTPROPSet    // Set and remove properties of a path
	MsgTPROPDelete // Delete the properties of a path (and its descendants)
	MsgTPROPCopy   // Copy properties to another path
	MsgTPROPMove   // Move properties to another path
)

// MsgTLast is the highest defined message type
const MsgTLast = MsgTPROPMove
