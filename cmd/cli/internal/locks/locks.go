// Package locks drives the relational adapter's advisory locks from the CLI.
package locks

import (
	"context"
	"fmt"
	"time"

	"github.com/redbco/redb-facade/cmd/cli/internal/session"
	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/database/mysql"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
	"github.com/redbco/redb-facade/pkg/sleep"
)

// Locker is the part of the relational adapter this package uses.
type Locker interface {
	Lock(ctx context.Context, name string, timeout time.Duration) (bool, error)
	Unlock(ctx context.Context, name string) (bool, error)
}

// Open connects the relational adapter from configuration.
func Open(ctx context.Context, s *session.Session) (*mysql.Adapter, error) {
	conn, err := s.Connect(ctx, dbcapabilities.MySQL)
	if err != nil {
		return nil, err
	}
	a, ok := conn.(*mysql.Adapter)
	if !ok {
		conn.Close()
		return nil, adapter.NewInvalidStateError(dbcapabilities.MySQL, "lock", fmt.Sprintf("unexpected adapter %T", conn))
	}
	return a, nil
}

// Acquire takes the named lock, holds it for hold and releases it again. The
// lock is released when the session closes anyway, so holding only makes
// sense to block other sessions for a while. The release still runs when ctx
// is cancelled during the hold.
func Acquire(ctx context.Context, s *session.Session, l Locker, name string, timeout, hold time.Duration, b *sleep.Batcher) error {
	ok, err := l.Lock(ctx, name, timeout)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("lock %q is held by another session (waited %s)", name, timeout)
	}
	s.Printf("🔒 Acquired lock %q\n", name)

	if hold > 0 {
		if b == nil {
			b = sleep.NewBatcher()
		}
		s.Printf("Holding for %s\n", hold)
		b.AddMicro(hold.Microseconds())
		if err := b.Execute(ctx); err != nil {
			s.Log.Warnf("hold of %s interrupted: %v", name, err)
		}
	}

	return Release(context.WithoutCancel(ctx), s, l, name)
}

// Release frees the named lock if this session holds it.
func Release(ctx context.Context, s *session.Session, l Locker, name string) error {
	released, err := l.Unlock(ctx, name)
	if err != nil {
		return err
	}
	if released {
		s.Printf("🔓 Released lock %q\n", name)
	} else {
		s.Printf("ℹ️  Lock %q is not held by this session\n", name)
	}
	return nil
}
