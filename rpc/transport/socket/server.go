package socket

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/davlock/rpc/common"
	"github.com/ValentinKolb/davlock/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

const (
	defaultBufferSize        = 64 * 1024 // 64 KB
	defaultMaxWorkersPerConn = 16
)

// serverTransport implements the server transport for stream sockets
type serverTransport struct {
	network           string
	handler           transport.ServerHandleFunc
	config            common.ServerConfig
	bufferPool        *sync.Pool
	maxWorkersPerConn int

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	connWg   sync.WaitGroup
}

// -----------------------------------------------------------
// Transport Factory Methods
// -----------------------------------------------------------

// NewTCPServerTransport creates a server transport listening on a TCP address
func NewTCPServerTransport() transport.IRPCServerTransport {
	return newServerTransport("tcp", defaultMaxWorkersPerConn)
}

// NewUnixServerTransport creates a server transport listening on a Unix socket
// (the endpoint is the path of the socket file)
func NewUnixServerTransport() transport.IRPCServerTransport {
	return newServerTransport("unix", defaultMaxWorkersPerConn)
}

func newServerTransport(network string, maxWorkersPerConn int) *serverTransport {
	return &serverTransport{
		network:           network,
		maxWorkersPerConn: max(1, maxWorkersPerConn),
		conns:             make(map[net.Conn]struct{}),
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, defaultBufferSize)
			},
		},
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	t.config = config

	listener, err := t.listen(config.Endpoint)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return listener.Close()
	}
	t.listener = listener
	t.mu.Unlock()

	Logger.Infof("Starting %s server on %s with %d workers per connection",
		t.network, listener.Addr(), t.maxWorkersPerConn)

	// Accept connections
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			Logger.Errorf("Accept error: %v", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if !t.track(conn) {
			conn.Close()
			return nil
		}

		// Handle the connection in a goroutine
		go func() {
			defer t.untrack(conn)
			t.handleConnection(conn)
		}()
	}
}

func (t *serverTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	var err error
	if t.listener != nil {
		err = t.listener.Close()
	}
	for conn := range t.conns {
		conn.Close()
	}
	t.mu.Unlock()

	t.connWg.Wait()
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// listen creates the listener, stale unix socket files are removed first
func (t *serverTransport) listen(endpoint string) (net.Listener, error) {
	if t.network == "unix" {
		if err := os.RemoveAll(endpoint); err != nil {
			return nil, fmt.Errorf("failed to remove existing socket: %v", err)
		}
	}

	listener, err := net.Listen(t.network, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s listener: %v", t.network, err)
	}
	return listener, nil
}

// track registers an accepted connection, it returns false after Close
func (t *serverTransport) track(conn net.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.conns[conn] = struct{}{}
	t.connWg.Add(1)
	return true
}

func (t *serverTransport) untrack(conn net.Conn) {
	t.mu.Lock()
	delete(t.conns, conn)
	t.mu.Unlock()
	t.connWg.Done()
}

// handleConnection handles incoming requests for one connection
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer conn.Close()

	// Timeout in seconds
	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	// The buffered channel acts as a counting semaphore limiting concurrent workers
	workerSemaphore := make(chan struct{}, t.maxWorkersPerConn)

	// Wait for all workers to finish before closing the connection
	var wg sync.WaitGroup
	defer wg.Wait()

	// Protects writes to the connection
	var connMutex sync.Mutex

	// Handler function that processes requests in worker goroutines
	handleResponse := func(namespace string, requestID uint64, data []byte) {
		start := time.Now()
		resp := t.handler(namespace, data)
		Logger.Debugf("Processed request %d for namespace %s took %s", requestID, namespace, time.Since(start))

		connMutex.Lock()
		defer connMutex.Unlock()

		if timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				Logger.Errorf("Failed to set write deadline: %v", err)
				return
			}
		}

		// Write the response with the same requestID
		if err := writeFrame(conn, namespace, requestID, resp); err != nil {
			Logger.Errorf("Failed to write response: %v", err)
		}
	}

	for {
		buf := t.bufferPool.Get().([]byte)

		namespace, requestID, data, err := readFrame(conn, buf)
		if err != nil {
			t.bufferPool.Put(buf)
			if err == io.EOF || errors.Is(err, net.ErrClosed) {
				Logger.Debugf("Connection closed")
			} else {
				Logger.Errorf("Error handling request: %v", err)
			}
			return
		}

		// Acquire a slot in the semaphore (blocks if maxWorkersPerConn is reached)
		workerSemaphore <- struct{}{}
		wg.Add(1)

		go func() {
			defer func() {
				t.bufferPool.Put(buf)
				<-workerSemaphore
				wg.Done()
			}()
			handleResponse(namespace, requestID, data)
		}()
	}
}
