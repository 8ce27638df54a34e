package davlock

import (
	"encoding/json"
	"testing"
	"time"
)

// TestLockTypeConflicts tests the conflict matrix of lock types
func TestLockTypeConflicts(t *testing.T) {
	custom := NewLockType(QName{Space: "urn:example", Local: "checkout"}, true)
	customShared := NewLockType(QName{Space: "urn:example", Local: "checkout"}, false)
	otherSpace := NewLockType(QName{Space: "urn:other", Local: "write"}, true)

	tests := []struct {
		name string
		a, b LockType
		want bool
	}{
		{"exclusive vs exclusive", ExclusiveWrite, ExclusiveWrite, true},
		{"exclusive vs shared", ExclusiveWrite, SharedWrite, true},
		{"shared vs exclusive", SharedWrite, ExclusiveWrite, true},
		{"shared vs shared", SharedWrite, SharedWrite, false},
		{"different names", ExclusiveWrite, custom, false},
		{"same local name, different namespace", ExclusiveWrite, otherSpace, false},
		{"custom exclusive vs custom shared", custom, customShared, true},
		{"custom shared vs custom shared", customShared, customShared, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.ConflictsWith(tt.b); got != tt.want {
				t.Errorf("%s.ConflictsWith(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.ConflictsWith(tt.a); got != tt.want {
				t.Errorf("conflict is not symmetric for %s and %s", tt.a, tt.b)
			}
		})
	}
}

// TestLockTypeEquality tests that lock types compare by value
func TestLockTypeEquality(t *testing.T) {
	if NewLockType(WriteLockName, true) != ExclusiveWrite {
		t.Error("NewLockType(write, true) should equal ExclusiveWrite")
	}
	if NewLockType(WriteLockName, false) != SharedWrite {
		t.Error("NewLockType(write, false) should equal SharedWrite")
	}
	if ExclusiveWrite == SharedWrite {
		t.Error("ExclusiveWrite and SharedWrite must differ")
	}

	set := map[LockType]int{ExclusiveWrite: 1}
	set[NewLockType(WriteLockName, true)]++
	if len(set) != 1 || set[ExclusiveWrite] != 2 {
		t.Errorf("lock types should be usable as map keys, got %v", set)
	}

	if !(LockType{}).IsZero() {
		t.Error("zero lock type should report IsZero")
	}
	if ExclusiveWrite.IsZero() {
		t.Error("ExclusiveWrite should not report IsZero")
	}
}

// TestActiveLockConflictsWith tests the resource scope aware conflict rule
func TestActiveLockConflictsWith(t *testing.T) {
	exclusive := ActiveLock{Path: "a", Token: "t1", Type: ExclusiveWrite, Recursive: true, OwnerID: "alice"}
	shared := ActiveLock{Path: "a", Token: "t2", Type: SharedWrite, OwnerID: "alice"}
	anonymous := ActiveLock{Path: "a", Token: "t3", Type: SharedWrite}

	tests := []struct {
		name  string
		lock  ActiveLock
		path  string
		t     LockType
		owner string
		want  bool
	}{
		// same resource
		{"same path, type conflict, other owner", exclusive, "a", SharedWrite, "bob", true},
		{"same path, type conflict, same owner", exclusive, "a", ExclusiveWrite, "alice", true},
		{"same path, shared, other owner", shared, "a", SharedWrite, "bob", false},
		{"same path, shared, same owner", shared, "a", SharedWrite, "alice", true},
		{"same path, same owner, other name", shared, "a", NewLockType(QName{Local: "other"}, false), "alice", false},
		{"same path, anonymous owners", anonymous, "a", SharedWrite, "", false},

		// related resource
		{"descendant, type conflict, other owner", exclusive, "a/b", ExclusiveWrite, "bob", true},
		{"descendant, type conflict, same owner", exclusive, "a/b", ExclusiveWrite, "alice", false},
		{"descendant, anonymous requester", exclusive, "a/b", SharedWrite, "", true},
		{"descendant, shared, other owner", shared, "a/b", SharedWrite, "bob", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.lock.ConflictsWith(tt.path, tt.t, tt.owner); got != tt.want {
				t.Errorf("ConflictsWith(%q, %s, %q) = %v, want %v", tt.path, tt.t, tt.owner, got, tt.want)
			}
		})
	}
}

// TestActiveLockIsInScope tests scope checks of recursive and non recursive locks
func TestActiveLockIsInScope(t *testing.T) {
	recursive := ActiveLock{Path: "a/b", Recursive: true}
	flat := ActiveLock{Path: "a/b"}
	root := ActiveLock{Path: "", Recursive: true}

	tests := []struct {
		lock ActiveLock
		path string
		want bool
	}{
		{recursive, "a/b", true},
		{recursive, "a/b/c", true},
		{recursive, "a/b/c/d", true},
		{recursive, "a/bc", false},
		{recursive, "a", false},
		{flat, "a/b", true},
		{flat, "a/b/c", false},
		{root, "", true},
		{root, "x/y", true},
	}

	for _, tt := range tests {
		if got := tt.lock.IsInScope(tt.path); got != tt.want {
			t.Errorf("lock on %q (recursive=%v).IsInScope(%q) = %v, want %v",
				tt.lock.Path, tt.lock.Recursive, tt.path, got, tt.want)
		}
	}
}

// TestActiveLockEqual tests field wise equality including nil locks
func TestActiveLockEqual(t *testing.T) {
	a := &ActiveLock{Path: "a", Token: "urn:uuid:1", Type: ExclusiveWrite, OwnerData: []byte("x")}
	same := &ActiveLock{Path: "a", Token: "urn:uuid:1", Type: ExclusiveWrite, OwnerData: []byte("x")}
	other := &ActiveLock{Path: "a", Token: "urn:uuid:2", Type: ExclusiveWrite, OwnerData: []byte("x")}
	var none *ActiveLock

	tests := []struct {
		name string
		l, o *ActiveLock
		want bool
	}{
		{"same fields", a, same, true},
		{"different token", a, other, false},
		{"both nil", none, nil, true},
		{"nil receiver", none, a, false},
		{"nil argument", a, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.l.Equal(tt.o); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestActiveLockJSONExpiry tests that a lock without timeout keeps its zero expiry through JSON
func TestActiveLockJSONExpiry(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, timeout := range []uint32{0, 30} {
		l := ActiveLock{Path: "a", Token: "t", Type: ExclusiveWrite, CreatedAt: created, TimeoutSeconds: timeout}
		l.ExpiresAt = expiryFor(created, timeout)

		data, err := json.Marshal(&l)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		var got ActiveLock
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if got.ExpiresAt.IsZero() != (timeout == 0) {
			t.Errorf("timeout %d: expiry %v after decoding %s", timeout, got.ExpiresAt, data)
		}
		if !got.Equal(&l) {
			t.Errorf("timeout %d: decoded lock %s differs from %s", timeout, &got, &l)
		}
	}
}
