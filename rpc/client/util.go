package client

import (
	"fmt"
	"github.com/ValentinKolb/davlock/rpc/common"
	"github.com/ValentinKolb/davlock/rpc/serializer"
	"github.com/ValentinKolb/davlock/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"sync/atomic"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
// Used by the RPCLockMgr and RPCPropertyStore with composition pattern
type rpcClientAdapter struct {
	namespace  string
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
	closed     atomic.Bool
}

// newClientAdapter connects the transport and creates the adapter
func newClientAdapter(
	namespace string,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (*rpcClientAdapter, error) {
	if err := common.ValidateNamespace(namespace); err != nil {
		return nil, err
	}

	// Connect the transport
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcClientAdapter{
		namespace:  namespace,
		config:     config,
		transport:  transport,
		serializer: serializer,
	}, nil
}

// invoke sends a request to the namespace of the client, errDisposed is returned after close
func (a *rpcClientAdapter) invoke(req *common.Message, errDisposed error) (*common.Message, error) {
	if a.closed.Load() {
		return nil, errDisposed
	}
	return invokeRPCRequest(a.namespace, req, a.transport, a.serializer)
}

// close closes the transport once
func (a *rpcClientAdapter) close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	return a.transport.Close()
}

// invokeRPCRequest is a helper function used for all RPC Clients to send requests
// It takes a namespace, a request message, a transport layer and a serializer as parameters
// It returns a response message and an error if any occurs
// Errors carried by the response are rebuilt (see common.Message.Error), so
// typed errors like *davlock.ConflictError reach the caller unchanged.
func invokeRPCRequest(namespace string, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	// Serialize the request
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	// Send the request
	respBytes, err := transport.Send(namespace, reqBytes)
	if err != nil {
		return nil, err
	}

	// Deserialize the response
	resp := &common.Message{}
	err = serializer.Deserialize(respBytes, resp)
	if err != nil {
		return nil, fmt.Errorf("rpc: failed to deserialize response: %w", err)
	}

	// Check if the response is an error response
	if err := resp.Error(); err != nil {
		return nil, err
	}
	if resp.MsgType == common.MsgTError {
		return nil, fmt.Errorf("rpc: error response without message")
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("rpc: unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	// Return the response
	return resp, nil
}
