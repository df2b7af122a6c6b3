// Package adapter provides the shared lifecycle contract for all database adapters.
//
// Every adapter (relational, document, key-value) satisfies Lifecycle:
//
//   - Type reports the backend
//   - IsConnected reports whether a live session is held
//   - Connection returns the session's Handle, never the native client
//   - Close releases the session and is safe to call twice
//
// # Registry
//
// Adapter packages register a Factory from init, so importing a package is
// enough to make its backend available by name:
//
//	import (
//	    "github.com/redbco/redb-facade/pkg/anchor/adapter"
//	    _ "github.com/redbco/redb-facade/pkg/database/redis"
//	)
//
//	conn, err := adapter.Connect(ctx, adapter.ConnectionConfig{
//	    ConnectionType: "redis",
//	    URI:            "redis://localhost:6379",
//	}, log)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
// # Errors
//
// All adapters report failures with the types in errors.go. Use errors.Is against
// the sentinels, or the helpers:
//
//	if adapter.IsNotConnected(err) {
//	    // reconnect
//	}
//	if adapter.IsBindError(err) {
//	    // caller bug: type string and values disagree
//	}
//
// Expected outcomes (a lock not acquired, a missing cache key) are returned as
// values and never as errors.
package adapter
