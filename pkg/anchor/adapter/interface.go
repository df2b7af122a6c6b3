package adapter

import (
	"context"
	"time"

	"github.com/redbco/redb-facade/pkg/dbcapabilities"
	"github.com/redbco/redb-facade/pkg/logger"
)

// Lifecycle is the surface every adapter exposes regardless of backend.
type Lifecycle interface {
	// Type returns the canonical database type identifier
	Type() dbcapabilities.DatabaseType

	// IsConnected reports whether the adapter currently holds a live session
	IsConnected() bool

	// Connection returns the handle of the live session.
	// Returns an InvalidStateError matching ErrNotConnected when there is none.
	Connection() (Handle, error)

	// Close releases the session. Calling Close on a closed adapter is a no-op.
	Close() error
}

// Connector is a Lifecycle that can be connected from a unified ConnectionConfig.
// The registry and the CLI construct adapters through this interface.
type Connector interface {
	Lifecycle

	// ConnectWithConfig establishes a session described by config
	ConnectWithConfig(ctx context.Context, config ConnectionConfig) (Handle, error)
}

// Handle describes one live backend session.
// It never exposes the native client of the underlying driver.
type Handle interface {
	// Identity and status
	ID() string
	Type() dbcapabilities.DatabaseType
	Capabilities() dbcapabilities.Capability
	ConnectedAt() time.Time

	// Endpoint is the host:port, or the redacted URI, the session was opened against
	Endpoint() string

	// Secure reports whether the session runs over TLS
	Secure() bool

	// InsecureTLS reports whether server certificate verification was disabled
	InsecureTLS() bool

	// Ping checks the session is still usable
	Ping(ctx context.Context) error

	// IsValid reports whether the handle has not been invalidated by Close
	IsValid() bool
}

// Pinger checks a backend session.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to the Pinger interface.
type PingFunc func(ctx context.Context) error

// Ping calls f(ctx).
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Factory creates an unconnected adapter that logs through log.
type Factory func(log *logger.Logger) Connector
