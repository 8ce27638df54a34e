package http

import (
	"github.com/ValentinKolb/davlock/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := &httpServerTransport{}
	server.RegisterHandler(func(namespace string, req []byte) []byte {
		return []byte(namespace + ":" + string(req))
	})

	ts := httptest.NewServer(server.routes(true))
	t.Cleanup(ts.Close)
	return ts
}

func TestSendReceive(t *testing.T) {
	ts := newTestServer(t)

	client := NewHttpClientTransport()
	if err := client.Connect(common.ClientConfig{Endpoints: []string{ts.URL}, TimeoutSecond: 5, RetryCount: 1}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	for _, ns := range []string{"default", "team-a"} {
		resp, err := client.Send(ns, []byte("hello"))
		if err != nil {
			t.Fatalf("Send to %s failed: %v", ns, err)
		}
		if got, want := string(resp), ns+":hello"; got != want {
			t.Errorf("Expected response %q, got %q", want, got)
		}
	}
}

func TestSendWithoutConnect(t *testing.T) {
	client := NewHttpClientTransport()
	if _, err := client.Send("default", nil); err == nil {
		t.Errorf("Expected error when sending without connecting")
	}
	if err := client.Connect(common.ClientConfig{}); err == nil {
		t.Errorf("Expected error when connecting without endpoints")
	}
}

func TestUnreachableServer(t *testing.T) {
	ts := newTestServer(t)
	url := ts.URL
	ts.Close()

	client := NewHttpClientTransport()
	if err := client.Connect(common.ClientConfig{Endpoints: []string{url}, TimeoutSecond: 1, RetryCount: 2}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	if _, err := client.Send("default", []byte("x")); err == nil {
		t.Errorf("Expected error for unreachable server")
	}
}

func TestWrongMethod(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/default")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected status %d, got %d", http.StatusMethodNotAllowed, resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	metrics.GetOrCreateCounter(`davlock_transport_test_total`).Inc()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "davlock_transport_test_total 1") {
		t.Errorf("Metric missing in output:\n%s", body)
	}
}

func TestCloseBeforeListen(t *testing.T) {
	server := NewHttpServerTransport()
	if err := server.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := server.Listen(common.ServerConfig{Endpoint: "127.0.0.1:0"}); err != nil {
		t.Errorf("Listen after Close should return nil, got %v", err)
	}
}
