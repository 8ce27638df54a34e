// Package client implements RPC clients for the lock service. It provides
// implementations of the davlock.ILockManager and propstore.IStore interfaces
// that forward every call to one namespace of a remote server.
//
// The package focuses on:
//   - Transparent RPC access to lock managers and property stores
//   - Integration with the transport and serialization layers
//   - Rebuilding typed errors (*davlock.ConflictError, *davlock.LimitError)
//     from error responses
//
// Key Components:
//
//   - NewRPCLockMgr: Factory function that creates a client implementing the
//     davlock.ILockManager interface for one namespace.
//
//   - NewRPCPropertyStore: Factory function that creates a client implementing the
//     propstore.IStore interface for one namespace.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  Endpoints:              []string{"localhost:8080"},
//	  TimeoutSecond:          5,
//	  RetryCount:             3,
//	  ConnectionsPerEndpoint: 1,
//	}
//
//	locks, err := client.NewRPCLockMgr("default", config, http.NewHttpClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer locks.Close()
//
//	lock, err := locks.AddLock(davlock.LockRequest{
//	  Path:    "/docs/report.odt",
//	  Type:    davlock.ExclusiveWrite,
//	  Timeout: davlock.Seconds(300),
//	  OwnerID: "alice",
//	})
//	var conflict *davlock.ConflictError
//	if errors.As(err, &conflict) {
//	  log.Printf("locked by %s", conflict.Lock.OwnerID)
//	}
//
// Filters:
//
//	Filter functions passed to GetLocks can not be sent to the server, the
//	client applies them to the selected locks instead.
//
// Thread Safety:
//
//	All client implementations are thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization. Close only closes the
//	connection, the services on the server stay available for other clients.
package client
