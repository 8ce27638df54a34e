package davlock

import (
	"bytes"
	"github.com/ValentinKolb/davlock/lib/binenc"
	"github.com/google/go-cmp/cmp"
	"testing"
	"time"
)

// testLocks returns locks covering every optional field and lock type encoding
func testLocks() map[string]ActiveLock {
	created := time.Date(2024, 5, 17, 10, 30, 0, 123456789, time.UTC)
	custom := NewLockType(QName{Space: "urn:example:locks", Local: "checkout"}, true)

	return map[string]ActiveLock{
		"exclusive write without expiry": {
			Path:      "docs/report.odt",
			Token:     "urn:uuid:5b0e2a4c-8f2d-4c1b-9d8e-3f2a1b0c9d8e",
			Type:      ExclusiveWrite,
			CreatedAt: created,
		},
		"shared write with expiry and owner": {
			Path:           "docs",
			Token:          "urn:uuid:0c3b9d8e-1a2b-4c3d-8e9f-0a1b2c3d4e5f",
			Type:           SharedWrite,
			Recursive:      true,
			CreatedAt:      created,
			TimeoutSeconds: 3600,
			ExpiresAt:      created.Add(time.Hour),
			OwnerID:        "alice",
			OwnerData:      []byte(`<D:owner xmlns:D="DAV:"><D:href>mailto:alice@example.com</D:href></D:owner>`),
		},
		"custom type with both payloads": {
			Path:           "",
			Token:          "urn:uuid:ffffffff-1a2b-4c3d-8e9f-0a1b2c3d4e5f",
			Type:           custom,
			CreatedAt:      created,
			TimeoutSeconds: 1,
			ExpiresAt:      created.Add(time.Second),
			OwnerID:        "bob",
			OwnerData:      []byte("<owner/>"),
			ServerData:     []byte{0x00, 0x01, 0xfe, 0xff},
		},
		"empty but present payloads": {
			Path:       "a/b/c",
			Token:      "urn:uuid:12345678-1a2b-4c3d-8e9f-0a1b2c3d4e5f",
			Type:       NewLockType(QName{Local: "plain"}, false),
			CreatedAt:  created,
			OwnerData:  []byte{},
			ServerData: []byte{},
		},
	}
}

// TestActiveLockRoundTrip tests that the binary encoding reproduces every field
func TestActiveLockRoundTrip(t *testing.T) {
	for name, lock := range testLocks() {
		t.Run(name, func(t *testing.T) {
			data, err := lock.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary failed: %v", err)
			}

			var decoded ActiveLock
			if err := decoded.UnmarshalBinary(data); err != nil {
				t.Fatalf("UnmarshalBinary failed: %v", err)
			}

			if !decoded.Equal(&lock) {
				t.Errorf("round trip mismatch (-want +got):\n%s", cmp.Diff(lock, decoded))
			}
			if (decoded.OwnerData == nil) != (lock.OwnerData == nil) {
				t.Errorf("owner payload presence changed: got %v, want %v", decoded.OwnerData, lock.OwnerData)
			}
			if (decoded.ServerData == nil) != (lock.ServerData == nil) {
				t.Errorf("server payload presence changed: got %v, want %v", decoded.ServerData, lock.ServerData)
			}
		})
	}
}

// TestActiveLockStream tests decoding several records from one stream
func TestActiveLockStream(t *testing.T) {
	locks := testLocks()

	var buf bytes.Buffer
	w := binenc.NewWriter(&buf)
	var order []string
	for name, l := range locks {
		order = append(order, name)
		l.EncodeTo(w)
	}
	if err := w.Err(); err != nil {
		t.Fatalf("encoding failed: %v", err)
	}

	r := binenc.NewReader(&buf)
	for _, name := range order {
		decoded, err := DecodeActiveLock(r)
		if err != nil {
			t.Fatalf("decoding %q failed: %v", name, err)
		}
		want := locks[name]
		if !decoded.Equal(&want) {
			t.Errorf("%s: mismatch (-want +got):\n%s", name, cmp.Diff(want, decoded))
		}
	}
}

// TestLockTypeEncoding tests the tag byte of the well known lock types
func TestLockTypeEncoding(t *testing.T) {
	tests := []struct {
		t    LockType
		want []byte
	}{
		{ExclusiveWrite, []byte{1}},
		{SharedWrite, []byte{2}},
		// tag 0, "x" (len 1), "" (len 0), shared
		{NewLockType(QName{Local: "x"}, false), []byte{0, 1, 'x', 0, 0}},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		w := binenc.NewWriter(&buf)
		tt.t.EncodeTo(w)
		if err := w.Err(); err != nil {
			t.Fatalf("encoding %s failed: %v", tt.t, err)
		}
		if !bytes.Equal(buf.Bytes(), tt.want) {
			t.Errorf("%s encoded as %v, want %v", tt.t, buf.Bytes(), tt.want)
		}
	}
}

// TestDecodeActiveLockInvalid tests that malformed records are rejected
func TestDecodeActiveLockInvalid(t *testing.T) {
	valid := testLocks()["shared write with expiry and owner"]
	data, err := valid.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	t.Run("unknown version", func(t *testing.T) {
		corrupt := append([]byte{}, data...)
		corrupt[0] = 7
		var l ActiveLock
		if err := l.UnmarshalBinary(corrupt); err == nil {
			t.Error("expected error for unknown version")
		}
	})

	t.Run("truncated", func(t *testing.T) {
		for _, n := range []int{0, 1, 9, len(data) / 2, len(data) - 1} {
			var l ActiveLock
			if err := l.UnmarshalBinary(data[:n]); err == nil {
				t.Errorf("expected error for record truncated to %d bytes", n)
			}
		}
	})

	t.Run("non canonical path", func(t *testing.T) {
		l := valid
		l.Path = "/docs/"
		raw, err := l.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary failed: %v", err)
		}
		var decoded ActiveLock
		if err := decoded.UnmarshalBinary(raw); err == nil {
			t.Error("expected error for non canonical path")
		}
	})

	t.Run("inconsistent expiry", func(t *testing.T) {
		l := valid
		l.TimeoutSeconds = 0
		raw, err := l.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary failed: %v", err)
		}
		var decoded ActiveLock
		if err := decoded.UnmarshalBinary(raw); err == nil {
			t.Error("expected error for expiry without timeout")
		}
	})
}
