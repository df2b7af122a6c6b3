package mysql

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
)

// Lock acquires the server-side named lock name, waiting up to timeout.
// A negative timeout waits forever. It returns false without an error when
// the wait timed out.
func (a *Adapter) Lock(ctx context.Context, name string, timeout time.Duration) (bool, error) {
	if a.conn == nil {
		return false, adapter.NewNotConnectedError(dbcapabilities.MySQL, "lock")
	}

	seconds := int64(-1)
	if timeout >= 0 {
		seconds = int64(math.Ceil(timeout.Seconds()))
	}

	var reply sql.NullInt64
	if err := a.execer().QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", name, seconds).Scan(&reply); err != nil {
		return false, adapter.NewDatabaseError(dbcapabilities.MySQL, "lock", err).WithContext("name", name)
	}
	if !reply.Valid {
		a.logger.Error("GET_LOCK(%s) returned NULL", name)
		return false, adapter.NewDatabaseError(dbcapabilities.MySQL, "lock", adapter.ErrLockFailed).WithContext("name", name)
	}

	if reply.Int64 == 1 {
		a.logger.Debug("Acquired lock %s", name)
		return true, nil
	}
	return false, nil
}

// Unlock releases the named lock. It returns false when the lock was not
// held by this session or does not exist.
func (a *Adapter) Unlock(ctx context.Context, name string) (bool, error) {
	if a.conn == nil {
		return false, adapter.NewNotConnectedError(dbcapabilities.MySQL, "unlock")
	}

	var reply sql.NullInt64
	if err := a.execer().QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", name).Scan(&reply); err != nil {
		return false, adapter.NewDatabaseError(dbcapabilities.MySQL, "unlock", err).WithContext("name", name)
	}
	return reply.Valid && reply.Int64 == 1, nil
}
