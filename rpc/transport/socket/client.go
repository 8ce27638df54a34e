package socket

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/davlock/rpc/common"
	"github.com/ValentinKolb/davlock/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var errConnectionClosed = errors.New("connection is closed")

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// clientConnection represents a single net connection
type clientConnection struct {
	endpoint     string
	parent       *clientTransport
	requestChans *xsync.MapOf[uint64, chan responseResult]

	connMu sync.Mutex // Protects conn and writes to it
	conn   net.Conn
}

// clientTransport implements the client transport for stream sockets
type clientTransport struct {
	network       string
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex uint64 // Atomic counter for Round Robin
	nextRequestID uint64 // Atomic counter for unique request IDs
	stopping      atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Methods
// -----------------------------------------------------------

// NewTCPClientTransport creates a client transport connecting to TCP addresses
func NewTCPClientTransport() transport.IRPCClientTransport {
	return &clientTransport{network: "tcp"}
}

// NewUnixClientTransport creates a client transport connecting to Unix sockets
func NewUnixClientTransport() transport.IRPCClientTransport {
	return &clientTransport{network: "unix"}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Close all existing connections
	t.closeConnections()
	t.config = config
	t.stopping.Store(false)

	connectionsPerEP := max(1, config.ConnectionsPerEndpoint)
	connections := make([]*clientConnection, 0, len(config.Endpoints)*connectionsPerEP)

	for _, endpoint := range config.Endpoints {
		for i := 0; i < connectionsPerEP; i++ {
			clientConn := &clientConnection{
				endpoint:     endpoint,
				parent:       t,
				requestChans: xsync.NewMapOf[uint64, chan responseResult](),
			}

			conn, err := clientConn.dial()
			if err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}
			clientConn.conn = conn
			connections = append(connections, clientConn)

			// Start the response reader
			go clientConn.readResponses(conn)
		}
	}

	if len(connections) == 0 {
		return fmt.Errorf("failed to connect to any endpoint")
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	Logger.Infof("Connected to %d out of %d connections to %d endpoints using %s transport",
		len(connections), len(config.Endpoints)*connectionsPerEP, len(config.Endpoints), t.network)
	return nil
}

func (t *clientTransport) Send(namespace string, req []byte) (resp []byte, err error) {
	// We always try at least once
	maxRetries := max(1, t.config.RetryCount)

	// Initial backoff duration in milliseconds
	backoffMs := 50

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		conn := t.getNextConnection()
		if conn == nil {
			return nil, fmt.Errorf("no active connections available")
		}

		data, err := conn.send(namespace, req)
		if err == nil {
			return data, nil
		}

		lastErr = err
		Logger.Debugf("Request attempt %d/%d failed: %v", i+1, maxRetries, err)

		if i < maxRetries-1 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, lastErr)
}

func (t *clientTransport) Close() error {
	t.stopping.Store(true)
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *clientTransport) timeout() time.Duration {
	return time.Duration(t.config.TimeoutSecond) * time.Second
}

// getNextConnection selects the next connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	if len(t.connections) == 0 {
		return nil
	}
	if len(t.connections) == 1 {
		return t.connections[0]
	}
	index := atomic.AddUint64(&t.nextConnIndex, 1) % uint64(len(t.connections))
	return t.connections[index]
}

// closeConnections closes all active connections
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	connections := t.connections
	t.connections = nil
	t.connectionsMu.Unlock()

	for _, c := range connections {
		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		c.connMu.Unlock()
	}
}

// dial establishes a new connection to the endpoint
func (c *clientConnection) dial() (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.parent.timeout()}
	conn, err := dialer.Dial(c.parent.network, c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %v", c.endpoint, err)
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}
	return conn, nil
}

// send writes a request and waits for the matching response
func (c *clientConnection) send(namespace string, req []byte) ([]byte, error) {
	requestID := atomic.AddUint64(&c.parent.nextRequestID, 1)
	timeout := c.parent.timeout()

	// Register the request before writing so that no response is missed
	respCh := make(chan responseResult, 1)
	c.requestChans.Store(requestID, respCh)
	defer c.requestChans.Delete(requestID)

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		return nil, errConnectionClosed
	}
	if timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	err := writeFrame(c.conn, namespace, requestID, req)
	c.connMu.Unlock()
	if err != nil {
		return nil, err
	}

	// Wait for response or timeout
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case result := <-respCh:
		return result.data, result.err
	case <-timeoutCh:
		return nil, fmt.Errorf("request timed out")
	}
}

// readResponses reads responses in a loop and distributes them to waiting requests.
// If reading fails all waiting requests fail and the connection is restored.
func (c *clientConnection) readResponses(conn net.Conn) {
	for {
		_, requestID, data, err := readFrame(conn, nil)
		if err != nil {
			c.failPending(fmt.Errorf("error reading response: %v", err))
			if c.parent.stopping.Load() {
				return
			}

			Logger.Warningf("Lost connection to %s: %v", c.endpoint, err)
			next, err := c.reconnect(conn)
			if err != nil {
				Logger.Errorf("Failed to reconnect to %s: %v", c.endpoint, err)
				return
			}
			conn = next
			continue
		}

		if respCh, found := c.requestChans.Load(requestID); found {
			respCh <- responseResult{data: data}
		} else {
			Logger.Warningf("Received response for unknown request ID %d", requestID)
		}
	}
}

// failPending fails all requests waiting for a response on this connection
func (c *clientConnection) failPending(err error) {
	c.requestChans.Range(func(id uint64, ch chan responseResult) bool {
		select {
		case ch <- responseResult{err: err}:
		default:
		}
		return true
	})
}

// reconnect replaces the broken connection old with a new one
func (c *clientConnection) reconnect(old net.Conn) (net.Conn, error) {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	// the connection has been closed by the transport
	if c.conn != old {
		return nil, errConnectionClosed
	}
	old.Close()
	c.conn = nil

	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return conn, nil
}
