// Package server implements the RPC server of the lock service. It hosts any
// number of namespaces, every namespace being an independent lock manager
// with its own property store, both kept in files in the data directory.
//
// The package focuses on:
//   - Server-side RPC request handling for lock manager and property store operations
//   - Adapter pattern to decouple the lock manager from RPC mechanisms
//   - Opening, flushing and closing the file backed stores of every namespace
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a Namespace.
//
//   - NewLockManagerServerAdapter: Factory function creating an adapter translating
//     RPC requests to davlock.ILockManager method calls.
//
//   - NewPropertyStoreServerAdapter: Factory function creating an adapter translating
//     RPC requests to propstore.IStore method calls.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Files:
//
//	For every namespace <ns> the server keeps <data-dir>/<ns>.locks and
//	<data-dir>/<ns>.props (see package filestore). A corrupt file or a file
//	locked by another process makes the server refuse to start.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Namespaces:     []string{"default", "team-a"},
//	  DataDir:        "/var/lib/davlock",
//	  DefaultTimeout: 600,
//	  Endpoint:       "0.0.0.0:8080",
//	  TimeoutSecond:  5,
//	  LogLevel:       "info",
//	}
//
//	s := server.NewRPCServer(
//	  config,
//	  http.NewHttpServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// blocks until SIGINT / SIGTERM, then writes all pending changes
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Each request is processed independently.
//	Serve is not thread-safe and should be called only once.
package server
