// Package socket implements the RPC transport over stream sockets (TCP and
// Unix domain sockets). A Unix socket is the natural choice if the WebDAV
// front end runs on the same machine as the lock server.
//
// Frame Format:
//
//	namespace length: uint16 (big endian)
//	request id:       uint64 (big endian)
//	payload length:   uint32 (big endian, at most 16 MB)
//	namespace:        namespace length bytes
//	payload:          payload length bytes (a serialized common.Message)
//
// Responses carry the request id of their request, so a single connection
// can have many requests in flight.
//
// Key Components:
//
//   - serverTransport: Accepts connections and reads frames. Every request is
//     handled by a worker goroutine, the number of workers per connection is
//     limited by a semaphore. Payload buffers are reused through a sync.Pool.
//     Close stops accepting, closes all connections and waits for them.
//
//   - clientTransport: Keeps ConnectionsPerEndpoint connections per endpoint
//     and selects one per request via round robin. A reader goroutine per
//     connection routes responses to the waiting requests (an xsync.MapOf
//     from request id to channel). If a connection breaks, all waiting
//     requests fail and the connection is dialed again. Failed requests are
//     retried with exponential backoff.
package socket
