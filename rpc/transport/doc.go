// Package transport defines the interfaces for RPC communication of the lock
// service. It provides a common contract that all transport implementations
// must fulfill, enabling protocol-agnostic communication.
//
// The package focuses on:
//   - Defining clear interfaces for client and server transport layers
//   - Routing requests by namespace (every namespace is an independent lock
//     manager with its own property store)
//   - Enabling multiple transport implementations (HTTP, TCP and Unix sockets)
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handles connection management and request sending.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     receives requests and routes them to appropriate handlers.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
package transport
