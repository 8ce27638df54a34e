package davlock

// --------------------------------------------------------------------------
// Qualified Names
// --------------------------------------------------------------------------

// QName is an XML qualified name (namespace + local name)
type QName struct {
	Space string `json:"space,omitempty"`
	Local string `json:"local"`
}

// String returns the name in Clark notation ({space}local)
func (n QName) String() string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

// DAVNamespace is the namespace of all RFC 4918 elements
const DAVNamespace = "DAV:"

// WriteLockName is the qualified name of the write lock type
var WriteLockName = QName{Space: DAVNamespace, Local: "write"}

// --------------------------------------------------------------------------
// Lock Type
// --------------------------------------------------------------------------

// LockType describes the operation class a lock protects and its scope.
// LockType values are comparable with ==.
type LockType struct {
	Name      QName `json:"name"`
	Exclusive bool  `json:"exclusive,omitempty"`
}

var (
	// ExclusiveWrite is the exclusive write lock defined by RFC 4918
	ExclusiveWrite = LockType{Name: WriteLockName, Exclusive: true}
	// SharedWrite is the shared write lock defined by RFC 4918
	SharedWrite = LockType{Name: WriteLockName, Exclusive: false}
)

// NewLockType creates a lock type for a custom qualified name
func NewLockType(name QName, exclusive bool) LockType {
	return LockType{Name: name, Exclusive: exclusive}
}

// ConflictsWith returns true if both types protect the same operation class
// and at least one of them is exclusive.
func (t LockType) ConflictsWith(other LockType) bool {
	return t.Name == other.Name && (t.Exclusive || other.Exclusive)
}

// IsZero reports whether t is the zero value (no lock type)
func (t LockType) IsZero() bool {
	return t.Name.Local == ""
}

func (t LockType) String() string {
	if t.Exclusive {
		return "exclusive " + t.Name.String()
	}
	return "shared " + t.Name.String()
}
