package socket

import (
	"bytes"
	"fmt"
	"github.com/ValentinKolb/davlock/rpc/common"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// addr returns the address of the listener once the server is listening
func (t *serverTransport) addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

// startServer starts an echo server and returns the endpoint clients connect to
func startServer(t *testing.T, network, endpoint string) string {
	t.Helper()

	server := newServerTransport(network, 4)
	server.RegisterHandler(func(namespace string, req []byte) []byte {
		return append([]byte(namespace+":"), req...)
	})

	done := make(chan error, 1)
	go func() {
		done <- server.Listen(common.ServerConfig{Endpoint: endpoint, TimeoutSecond: 5})
	}()

	deadline := time.Now().Add(5 * time.Second)
	for server.addr() == nil {
		if time.Now().After(deadline) {
			t.Fatalf("server did not start listening")
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Cleanup(func() {
		if err := server.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
		if err := <-done; err != nil {
			t.Errorf("Listen returned error: %v", err)
		}
	})
	return server.addr().String()
}

func TestFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payload := bytes.Repeat([]byte("x"), 1000)
	go func() {
		_ = writeFrame(client, "team-a", 42, payload)
		_ = writeFrame(client, "", 43, nil)
	}()

	ns, id, data, err := readFrame(server, make([]byte, 16))
	if err != nil {
		t.Fatalf("readFrame failed: %v", err)
	}
	if ns != "team-a" || id != 42 || !bytes.Equal(data, payload) {
		t.Errorf("Unexpected frame: ns=%q id=%d len=%d", ns, id, len(data))
	}

	ns, id, data, err = readFrame(server, nil)
	if err != nil {
		t.Fatalf("readFrame failed: %v", err)
	}
	if ns != "" || id != 43 || len(data) != 0 {
		t.Errorf("Unexpected empty frame: ns=%q id=%d len=%d", ns, id, len(data))
	}
}

func TestSendReceive(t *testing.T) {
	testCases := []struct {
		name     string
		network  string
		endpoint func(t *testing.T) string
		client   func() *clientTransport
	}{
		{
			name:     "tcp",
			network:  "tcp",
			endpoint: func(*testing.T) string { return "127.0.0.1:0" },
			client:   func() *clientTransport { return NewTCPClientTransport().(*clientTransport) },
		},
		{
			name:     "unix",
			network:  "unix",
			endpoint: func(t *testing.T) string { return filepath.Join(t.TempDir(), "davlock.sock") },
			client:   func() *clientTransport { return NewUnixClientTransport().(*clientTransport) },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			endpoint := startServer(t, tc.network, tc.endpoint(t))

			client := tc.client()
			err := client.Connect(common.ClientConfig{
				Endpoints:              []string{endpoint},
				TimeoutSecond:          5,
				RetryCount:             1,
				ConnectionsPerEndpoint: 2,
			})
			if err != nil {
				t.Fatalf("Connect failed: %v", err)
			}
			defer client.Close()

			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ns := fmt.Sprintf("ns-%d", i%3)
					req := []byte(fmt.Sprintf("request-%d", i))

					resp, err := client.Send(ns, req)
					if err != nil {
						t.Errorf("Send %d failed: %v", i, err)
						return
					}
					if want := ns + ":" + string(req); string(resp) != want {
						t.Errorf("Expected %q, got %q", want, resp)
					}
				}()
			}
			wg.Wait()
		})
	}
}

func TestConnectFailures(t *testing.T) {
	client := NewUnixClientTransport()
	if err := client.Connect(common.ClientConfig{}); err == nil {
		t.Errorf("Expected error without endpoints")
	}

	missing := filepath.Join(t.TempDir(), "missing.sock")
	if err := client.Connect(common.ClientConfig{Endpoints: []string{missing}, TimeoutSecond: 1}); err == nil {
		t.Errorf("Expected error for missing socket")
	}

	if _, err := client.Send("default", []byte("x")); err == nil {
		t.Errorf("Expected error when sending without connection")
	}
}

func TestSendAfterServerClose(t *testing.T) {
	server := newServerTransport("unix", 1)
	server.RegisterHandler(func(_ string, req []byte) []byte { return req })

	endpoint := filepath.Join(t.TempDir(), "closing.sock")
	done := make(chan error, 1)
	go func() { done <- server.Listen(common.ServerConfig{Endpoint: endpoint}) }()
	for server.addr() == nil {
		time.Sleep(5 * time.Millisecond)
	}

	client := NewUnixClientTransport()
	if err := client.Connect(common.ClientConfig{Endpoints: []string{endpoint}, TimeoutSecond: 1, RetryCount: 2}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	if _, err := client.Send("default", []byte("ping")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if err := server.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Listen returned error: %v", err)
	}

	if _, err := client.Send("default", []byte("ping")); err == nil {
		t.Errorf("Expected error after the server has been closed")
	}
}
