package client

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/davlock/lib/davlock"
	"github.com/ValentinKolb/davlock/lib/propstore"
	"github.com/ValentinKolb/davlock/rpc/common"
	"github.com/ValentinKolb/davlock/rpc/serializer"
	"github.com/ValentinKolb/davlock/rpc/server"
	"github.com/ValentinKolb/davlock/rpc/transport"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"testing"
	"time"
)

// loopback connects a client transport directly to the handler of a server
type loopback struct {
	handler transport.ServerHandleFunc
}

func (l *loopback) RegisterHandler(handler transport.ServerHandleFunc) { l.handler = handler }
func (l *loopback) Listen(common.ServerConfig) error                   { return nil }
func (l *loopback) Close() error                                       { return nil }

type loopbackClient struct {
	server    *loopback
	connected bool
}

func (c *loopbackClient) Connect(common.ClientConfig) error {
	c.connected = true
	return nil
}

func (c *loopbackClient) Send(namespace string, req []byte) ([]byte, error) {
	if !c.connected {
		return nil, fmt.Errorf("not connected")
	}
	return c.server.handler(namespace, req), nil
}

func (c *loopbackClient) Close() error {
	c.connected = false
	return nil
}

func startServer(t *testing.T, s serializer.IRPCSerializer, maxLocksPerURL uint32) *loopback {
	t.Helper()

	lb := &loopback{}
	srv := server.NewRPCServer(common.ServerConfig{
		Namespaces:         []string{"default", "other"},
		DataDir:            "/data",
		WriteInterval:      time.Hour,
		DefaultTimeout:     600,
		MaximumLocksPerURL: maxLocksPerURL,
		Endpoint:           "127.0.0.1:0",
		LogLevel:           "error",
	}, lb, s).WithFs(afero.NewMemMapFs())
	if err := srv.Open(); err != nil {
		t.Fatalf("Failed to open server: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return lb
}

func TestRPCLockMgr(t *testing.T) {
	tests := []struct {
		name       string
		serializer serializer.IRPCSerializer
	}{
		{"binary", serializer.NewBinarySerializer()},
		{"json", serializer.NewJSONSerializer()},
		{"gob", serializer.NewGOBSerializer()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lb := startServer(t, tc.serializer, 0)

			locks, err := NewRPCLockMgr("default", common.ClientConfig{}, &loopbackClient{server: lb}, tc.serializer)
			if err != nil {
				t.Fatalf("NewRPCLockMgr failed: %v", err)
			}
			defer locks.Close()

			lock, err := locks.AddLock(davlock.LockRequest{
				Path:      "/docs",
				Type:      davlock.ExclusiveWrite,
				Recursive: true,
				Timeout:   davlock.Seconds(120),
				OwnerID:   "alice",
				OwnerData: []byte("<owner/>"),
			})
			if err != nil {
				t.Fatalf("AddLock failed: %v", err)
			}
			if lock.TimeoutSeconds != 120 || lock.Path != "docs" || lock.OwnerID != "alice" {
				t.Errorf("Unexpected lock: %v", lock)
			}

			got, ok, err := locks.GetLock(lock.Token, "/docs/a.txt")
			if err != nil || !ok {
				t.Fatalf("GetLock failed: %v %v", ok, err)
			}
			if diff := cmp.Diff(lock, got); diff != "" {
				t.Errorf("GetLock mismatch (-want +got):\n%s", diff)
			}
			if _, ok, _ := locks.GetLock("urn:uuid:missing", "/docs"); ok {
				t.Errorf("Expected unknown token to be missing")
			}

			// conflicts come back as typed errors
			_, err = locks.AddLock(davlock.LockRequest{Path: "/docs/a.txt", Type: davlock.SharedWrite, OwnerID: "bob"})
			var conflict *davlock.ConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("Expected ConflictError, got %v", err)
			}
			if conflict.Lock.Token != lock.Token {
				t.Errorf("Expected conflicting lock %s, got %s", lock.Token, conflict.Lock.Token)
			}
			if !errors.Is(err, davlock.ErrConflict) {
				t.Errorf("Expected error to match ErrConflict")
			}

			applicable, err := locks.GetLocks("/docs/a.txt", davlock.SelectApplicable, nil)
			if err != nil || len(applicable) != 1 {
				t.Errorf("Expected 1 applicable lock, got %d (%v)", len(applicable), err)
			}
			filtered, err := locks.GetLocks("/docs/a.txt", davlock.SelectApplicable, func(l davlock.ActiveLock) bool {
				return l.OwnerID == "bob"
			})
			if err != nil || len(filtered) != 0 {
				t.Errorf("Expected filter to drop all locks, got %d (%v)", len(filtered), err)
			}

			conflicting, err := locks.GetConflictingLocks("/docs/a.txt", davlock.SharedWrite, davlock.SelectApplicable, "alice")
			if err != nil || len(conflicting) != 0 {
				t.Errorf("Expected own lock not to conflict, got %d (%v)", len(conflicting), err)
			}

			refreshed, ok, err := locks.RefreshLock(lock, davlock.Seconds(300))
			if err != nil || !ok || refreshed.TimeoutSeconds != 300 {
				t.Errorf("RefreshLock failed: %v %v %v", refreshed, ok, err)
			}

			removed, err := locks.RemoveLock(lock)
			if err != nil || !removed {
				t.Errorf("RemoveLock failed: %v %v", removed, err)
			}
			removed, err = locks.RemoveLock(lock)
			if err != nil || removed {
				t.Errorf("Expected second RemoveLock to return false, got %v %v", removed, err)
			}
			if _, ok, _ := locks.RefreshLock(lock, nil); ok {
				t.Errorf("Expected refresh of removed lock to fail")
			}
		})
	}
}

func TestRPCLockMgrRemoveLocks(t *testing.T) {
	lb := startServer(t, serializer.NewBinarySerializer(), 0)
	locks, err := NewRPCLockMgr("default", common.ClientConfig{}, &loopbackClient{server: lb}, serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("NewRPCLockMgr failed: %v", err)
	}
	defer locks.Close()

	for _, path := range []string{"/a", "/a/b", "/a/b/c"} {
		if _, err := locks.AddLock(davlock.LockRequest{Path: path, Type: davlock.SharedWrite}); err != nil {
			t.Fatalf("AddLock %s failed: %v", path, err)
		}
	}

	ok, err := locks.RemoveLocks("/a", davlock.RemoveRequireEmpty)
	if err != nil || ok {
		t.Errorf("Expected RequireEmpty to fail with descendants, got %v %v", ok, err)
	}
	ok, err = locks.RemoveLocks("/a/b", davlock.RemoveRecursive)
	if err != nil || !ok {
		t.Errorf("RemoveLocks recursive failed: %v %v", ok, err)
	}
	all, _ := locks.GetLocks("/", davlock.SelectAll, nil)
	if len(all) != 1 || all[0].Path != "a" {
		t.Errorf("Expected only /a to remain, got %v", all)
	}
}

func TestRPCLockMgrErrors(t *testing.T) {
	s := serializer.NewBinarySerializer()
	lb := startServer(t, s, 1)

	t.Run("LimitError", func(t *testing.T) {
		locks, _ := NewRPCLockMgr("default", common.ClientConfig{}, &loopbackClient{server: lb}, s)
		defer locks.Close()

		if _, err := locks.AddLock(davlock.LockRequest{Path: "/x", Type: davlock.SharedWrite}); err != nil {
			t.Fatalf("AddLock failed: %v", err)
		}
		_, err := locks.AddLock(davlock.LockRequest{Path: "/x", Type: davlock.SharedWrite})
		var limit *davlock.LimitError
		if !errors.As(err, &limit) {
			t.Fatalf("Expected LimitError, got %v", err)
		}
		if limit.Scope != davlock.LimitPerURL || limit.Path != "x" || limit.Limit != 1 {
			t.Errorf("Unexpected limit error: %+v", limit)
		}
	})

	t.Run("InvalidArgument", func(t *testing.T) {
		locks, _ := NewRPCLockMgr("default", common.ClientConfig{}, &loopbackClient{server: lb}, s)
		defer locks.Close()

		_, err := locks.AddLock(davlock.LockRequest{Path: "/a/../b", Type: davlock.SharedWrite})
		if !errors.Is(err, davlock.ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("UnknownNamespace", func(t *testing.T) {
		locks, _ := NewRPCLockMgr("missing", common.ClientConfig{}, &loopbackClient{server: lb}, s)
		defer locks.Close()

		_, err := locks.GetLocks("/", davlock.SelectAll, nil)
		if !errors.Is(err, common.ErrUnknownNamespace) {
			t.Errorf("Expected ErrUnknownNamespace, got %v", err)
		}
	})

	t.Run("InvalidNamespace", func(t *testing.T) {
		if _, err := NewRPCLockMgr("../etc", common.ClientConfig{}, &loopbackClient{server: lb}, s); err == nil {
			t.Errorf("Expected invalid namespace to be rejected")
		}
	})

	t.Run("Closed", func(t *testing.T) {
		locks, _ := NewRPCLockMgr("default", common.ClientConfig{}, &loopbackClient{server: lb}, s)
		if err := locks.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if err := locks.Close(); err != nil {
			t.Errorf("Second close failed: %v", err)
		}
		_, err := locks.GetLocks("/", davlock.SelectAll, nil)
		if !errors.Is(err, davlock.ErrDisposed) {
			t.Errorf("Expected ErrDisposed, got %v", err)
		}

		// the server side lock manager is still usable
		other, _ := NewRPCLockMgr("default", common.ClientConfig{}, &loopbackClient{server: lb}, s)
		defer other.Close()
		if _, err := other.GetLocks("/", davlock.SelectAll, nil); err != nil {
			t.Errorf("Expected server lock manager to stay open, got %v", err)
		}
	})
}

func TestRPCPropertyStore(t *testing.T) {
	lb := startServer(t, serializer.NewBinarySerializer(), 0)
	props, err := NewRPCPropertyStore("default", common.ClientConfig{}, &loopbackClient{server: lb}, serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("NewRPCPropertyStore failed: %v", err)
	}
	defer props.Close()

	author := davlock.QName{Space: "urn:example", Local: "author"}
	title := davlock.QName{Space: "urn:example", Local: "title"}

	if err := props.Set("/docs/a.txt", propstore.Properties{author: []byte("alice"), title: []byte("A")}, nil); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := props.Set("/docs/a.txt", nil, []davlock.QName{title}); err != nil {
		t.Fatalf("Set with remove failed: %v", err)
	}

	got, err := props.Get("/docs/a.txt")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if diff := cmp.Diff(propstore.Properties{author: []byte("alice")}, got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}

	value, ok, err := props.GetProperty("/docs/a.txt", author)
	if err != nil || !ok || string(value) != "alice" {
		t.Errorf("GetProperty failed: %q %v %v", value, ok, err)
	}
	if _, ok, _ := props.GetProperty("/docs/a.txt", title); ok {
		t.Errorf("Expected removed property to be missing")
	}

	n, err := props.Copy("/docs", "/backup", true)
	if err != nil || n != 1 {
		t.Errorf("Copy failed: %d %v", n, err)
	}
	n, err = props.Move("/backup", "/archive")
	if err != nil || n != 1 {
		t.Errorf("Move failed: %d %v", n, err)
	}
	if moved, _ := props.Get("/archive/a.txt"); len(moved) != 1 {
		t.Errorf("Expected moved properties, got %v", moved)
	}

	if _, err := props.Move("/archive", "/archive/sub"); !errors.Is(err, davlock.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for move into itself, got %v", err)
	}

	n, err = props.Delete("/", true)
	if err != nil || n != 2 {
		t.Errorf("Delete failed: %d %v", n, err)
	}

	if err := props.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := props.Get("/docs/a.txt"); !errors.Is(err, propstore.ErrDisposed) {
		t.Errorf("Expected ErrDisposed after close, got %v", err)
	}
}
