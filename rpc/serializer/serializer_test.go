package serializer

import (
	"github.com/ValentinKolb/davlock/lib/davlock"
	"github.com/ValentinKolb/davlock/rpc/common"
	"github.com/google/go-cmp/cmp"
	"testing"
	"time"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

func testLock(token string) davlock.ActiveLock {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return davlock.ActiveLock{
		Path:           "docs/report.txt",
		Token:          token,
		Type:           davlock.ExclusiveWrite,
		Recursive:      true,
		CreatedAt:      created,
		TimeoutSeconds: 600,
		ExpiresAt:      created.Add(600 * time.Second),
		OwnerID:        "alice",
		OwnerData:      []byte("<D:href>alice</D:href>"),
	}
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	lock := testLock("urn:uuid:6f2c1a8e-3c1b-4a5e-9d2e-0b1c2d3e4f50")
	infinite := testLock("urn:uuid:0d9e8f7a-6b5c-4d3e-8f1a-2b3c4d5e6f70")
	infinite.TimeoutSeconds = 0
	infinite.ExpiresAt = time.Time{}
	infinite.Type = davlock.NewLockType(davlock.QName{Space: "urn:x", Local: "checkout"}, false)
	infinite.OwnerData = nil
	infinite.ServerData = []byte{1, 2, 3}

	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// AddLock request
		*common.NewAddLockRequest(davlock.LockRequest{
			Path:      "docs",
			Type:      davlock.SharedWrite,
			Recursive: true,
			Timeout:   davlock.Seconds(0),
			OwnerID:   "bob",
			OwnerData: []byte("<D:owner/>"),
		}),

		// AddLock response
		*common.NewAddLockResponse(lock, nil),

		// GetLocks response
		*common.NewGetLocksResponse([]davlock.ActiveLock{lock, infinite}, nil),

		// GetConflictingLocks request with a custom lock type
		*common.NewGetConflictingLocksRequest("docs/a", infinite.Type, davlock.SelectAll, "carol"),

		// RemoveLocks request
		*common.NewRemoveLocksRequest("docs", davlock.RemoveRequireEmpty),

		// property requests
		*common.NewSetPropsRequest("docs/a",
			[]common.Property{{Name: davlock.QName{Space: "urn:x", Local: "color"}, Value: []byte("red")}},
			[]davlock.QName{{Local: "size"}}),
		*common.NewCopyPropsRequest("docs/a", "docs/b", true),

		// Error response with a conflicting lock
		*common.NewAddLockResponse(davlock.ActiveLock{}, &davlock.ConflictError{Lock: lock}),

		// Error response of a limit
		*common.NewAddLockResponse(davlock.ActiveLock{}, &davlock.LimitError{Scope: davlock.LimitPerURL, Path: "docs", Limit: 4}),

		// Error response
		*common.NewErrorResponse("test error message"),
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if diff := cmp.Diff(msg, result); diff != "" {
					t.Errorf("Message %d (%s) doesn't match after round trip (-want +got):\n%s", i, msg.MsgType, diff)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// Test each message type (don't test for MsgTUnknown since this should raise an error)
			for msgType := common.MsgTSuccess; msgType <= common.MsgTLast; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestErrorsSurviveRoundTrip checks that typed errors can be rebuilt after serialization
func TestErrorsSurviveRoundTrip(t *testing.T) {
	lock := testLock("urn:uuid:11111111-2222-4333-8444-555555555555")

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			data, err := serializer.Serialize(*common.NewAddLockResponse(davlock.ActiveLock{}, &davlock.ConflictError{Lock: lock}))
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}
			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			conflict, ok := result.Error().(*davlock.ConflictError)
			if !ok {
				t.Fatalf("Expected *davlock.ConflictError, got %T (%v)", result.Error(), result.Error())
			}
			if !conflict.Lock.Equal(&lock) {
				t.Errorf("Conflicting lock changed: %s", conflict.Lock.String())
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	// Test cases for empty or zero values
	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Message with empty slices",
			msg: common.Message{
				MsgType:   common.MsgTPROPSet,
				OwnerData: []byte{},
				Remove:    []davlock.QName{},
				Locks:     []davlock.ActiveLock{},
				Props:     []common.Property{},
			},
		},
		{
			name: "Zero timeout",
			msg: common.Message{
				MsgType:    common.MsgTLCKRefresh,
				HasTimeout: true,
				Timeout:    0,
			},
		},
		{
			name: "Large payload",
			msg: common.Message{
				MsgType: common.MsgTPROPGet,
				Path:    "a/b/c",
				Props:   []common.Property{{Name: davlock.QName{Local: "blob"}, Value: make([]byte, 64*1024)}},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if diff := cmp.Diff(tc.msg, result); diff != "" {
				t.Errorf("Message doesn't match after round trip (-want +got):\n%s", diff)
			}
		})
	}
}

// TestInvalidBinaryData tests that the binary deserializer handles invalid data gracefully
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	valid, err := serializer.Serialize(*common.NewAddLockResponse(testLock("urn:uuid:abc"), nil))
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	invalidData := map[string][]byte{
		"Empty data":        {},
		"Too short":         {1},
		"Unknown flag":      {byte(common.MsgTSuccess), 0x80, 0x80, 0x80, 0x01},
		"Missing path":      {byte(common.MsgTLCKGet), 0x01},
		"Truncated path":    {byte(common.MsgTLCKGet), 0x01, 0x05, 'a', 'b'},
		"Huge list length":  {byte(common.MsgTLCKList), 0x80, 0x40, 0xff, 0xff, 0x03}, // flags = hasLocks
		"Truncated message": valid[:len(valid)-3],
	}

	for name, data := range invalidData {
		t.Run(name, func(t *testing.T) {
			var msg common.Message
			if err := serializer.Deserialize(data, &msg); err == nil {
				t.Errorf("Expected error for invalid data, got nil")
			}
		})
	}
}
