// Package cmd implements the command-line interface of davlock. It provides a
// hierarchical command structure with operations for running the server and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - lock: Commands for lock operations (add, get, list, refresh, remove, unlock-tree, perf)
//   - prop: Commands for dead property operations (get, set, delete, copy, move)
//   - serve: Commands for starting and configuring the davlock server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See davlock -help for a list of all commands.
package cmd
