// Package common provides the data structures shared by the RPC server and
// client of the lock service: the message protocol, the error codes and the
// configuration structures.
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication, with a flat
//     structure whose used fields depend on the operation. Factory methods
//     create the request and response messages of every operation.
//
//   - MessageType: Enumeration of all supported operations, split into lock
//     operations (ILockManager) and property store operations.
//
//   - ErrorCode: Kind of error carried by a response. SetError stores typed
//     errors (conflicts, limits, invalid arguments) with their details and
//     Message.Error rebuilds them on the client so that errors.Is and
//     errors.As behave as if the lock manager were local.
//
//   - ServerConfig: Configuration of a server node, including the namespaces
//     it serves, the lock limits and the storage settings.
//
//   - ClientConfig: Configuration for client components, controlling connection
//     parameters, timeouts, and retry behavior.
//
//   - Logger: Custom logging implementation that plugs into dragonboats
//     logger package, so every package logger shares one format.
package common
