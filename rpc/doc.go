// Package rpc makes the lock managers and property stores of a davlock server
// available over the network. It acts as the communication layer between
// WebDAV front ends and the server that owns the lock and property files.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, error codes, configuration structures and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (HTTP, TCP and Unix sockets).
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - client: RPC clients implementing davlock.ILockManager and propstore.IStore,
//     allowing applications to use a remote namespace transparently.
//
//   - server: RPC server hosting several namespaces, including adapters for
//     lock manager and property store operations.
package rpc
