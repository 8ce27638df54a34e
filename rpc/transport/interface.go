package transport

import (
	"github.com/ValentinKolb/davlock/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer when a request is received
// It takes the namespace and a request as parameters and returns a response
type ServerHandleFunc func(namespace string, req []byte) (resp []byte)

// IRPCServerTransport is the interface for the RPC transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler should be called when a request is received
	// The transport layer is responsible for passing the namespace of the request to the handler
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport layer and blocks until Close is called or listening fails
	Listen(config common.ServerConfig) error
	// Close stops listening and waits for running requests
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request for a namespace to the server and returns the response
	Send(namespace string, req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}
