package server

import (
	"github.com/ValentinKolb/davlock/lib/davlock"
	"github.com/ValentinKolb/davlock/lib/propstore"
	"github.com/ValentinKolb/davlock/rpc/common"
)

// Namespace bundles the services of one namespace
type Namespace struct {
	Locks davlock.ILockManager
	Props propstore.IStore
}

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// It takes a Message and the namespace addressed by the request as parameters.
	// It returns a Message as a response
	// If an error occurs, it should be set in the response
	Handle(req *common.Message, ns Namespace) (resp *common.Message)
}
