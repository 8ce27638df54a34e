// Package http implements an HTTP-based transport layer for RPC communication
// of the lock service. It provides concrete implementations of the transport
// interfaces defined in the parent package.
//
// The package focuses on:
//   - Client-side HTTP transport for sending RPC requests to servers
//   - Server-side HTTP transport for receiving and handling RPC requests
//   - Round-robin load balancing and retries across multiple server endpoints
//   - Request routing based on the namespace in the URL path
//
// Endpoints:
//
//	POST /{namespace}  serialized common.Message, answered with a serialized response
//	GET  /metrics      all metrics in the prometheus text format
//
// Key Components:
//
//   - httpClientTransport: Implements IRPCClientTransport interface, managing
//     connections to server endpoints, handling request routing, and implementing
//     retry mechanisms. Every attempt uses the next endpoint.
//
//   - httpServerTransport: Implements IRPCServerTransport interface, setting up
//     an HTTP server that routes incoming requests to the handler together with
//     the namespace specified in the URL path. Close shuts the server down
//     gracefully.
//
// Thread Safety:
//
//	The client transport is thread-safe and can be used concurrently. It uses
//	atomic operations for the round-robin counter to ensure thread safety when
//	selecting server endpoints.
package http
