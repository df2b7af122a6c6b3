package adapter

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/redbco/redb-facade/pkg/dbcapabilities"
)

// HandleInfo carries the descriptive fields of a session handle.
type HandleInfo struct {
	Type        dbcapabilities.DatabaseType
	Endpoint    string
	Secure      bool
	InsecureTLS bool
}

// SessionHandle is the Handle implementation shared by all adapters.
type SessionHandle struct {
	id          string
	info        HandleInfo
	connectedAt time.Time
	pinger      Pinger
	closed      atomic.Bool
}

// NewHandle creates a handle for a freshly opened session.
func NewHandle(info HandleInfo, pinger Pinger) *SessionHandle {
	return &SessionHandle{
		id:          uuid.New().String(),
		info:        info,
		connectedAt: time.Now(),
		pinger:      pinger,
	}
}

// ID returns the unique session identifier.
func (h *SessionHandle) ID() string { return h.id }

// Type returns the database type of the session.
func (h *SessionHandle) Type() dbcapabilities.DatabaseType { return h.info.Type }

// Capabilities returns the capability metadata of the session's database type.
func (h *SessionHandle) Capabilities() dbcapabilities.Capability {
	capability, _ := dbcapabilities.Get(h.info.Type)
	return capability
}

// ConnectedAt returns when the session was opened.
func (h *SessionHandle) ConnectedAt() time.Time { return h.connectedAt }

// Endpoint returns the address the session was opened against.
func (h *SessionHandle) Endpoint() string { return h.info.Endpoint }

// Secure reports whether the session runs over TLS.
func (h *SessionHandle) Secure() bool { return h.info.Secure }

// InsecureTLS reports whether server certificate verification was disabled.
func (h *SessionHandle) InsecureTLS() bool { return h.info.InsecureTLS }

// IsValid reports whether the handle is still usable.
func (h *SessionHandle) IsValid() bool { return !h.closed.Load() }

// Ping checks the session through the adapter's pinger.
func (h *SessionHandle) Ping(ctx context.Context) error {
	if h.closed.Load() || h.pinger == nil {
		return NewNotConnectedError(h.info.Type, "ping")
	}
	if err := h.pinger.Ping(ctx); err != nil {
		return WrapError(h.info.Type, "ping", err)
	}
	return nil
}

// Invalidate marks the handle closed. Adapters call it from Close.
func (h *SessionHandle) Invalidate() {
	h.closed.Store(true)
}
