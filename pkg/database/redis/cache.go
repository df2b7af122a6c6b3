package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
)

func (a *Adapter) commandError(op, key string, err error) error {
	return adapter.NewDatabaseError(dbcapabilities.Redis, op, err).WithContext("key", key)
}

// CacheString stores value under key. A positive ttl sets the expiry in the
// same command; otherwise the key does not expire.
func (a *Adapter) CacheString(ctx context.Context, key, value string, ttl time.Duration) error {
	if a.client == nil {
		return adapter.NewNotConnectedError(dbcapabilities.Redis, "cache string")
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := a.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return a.commandError("cache string", key, err)
	}
	return nil
}

// GetCachedString returns the value under key; ok is false when it is absent.
func (a *Adapter) GetCachedString(ctx context.Context, key string) (string, bool, error) {
	if a.client == nil {
		return "", false, adapter.NewNotConnectedError(dbcapabilities.Redis, "get cached string")
	}
	v, err := a.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, a.commandError("get cached string", key, err)
	}
	return v, true, nil
}

// CacheHash sets field in the hash at key, then applies ttl to the whole
// hash (or removes its expiry when ttl is not positive). The two commands are
// not atomic. It returns the number of fields added.
func (a *Adapter) CacheHash(ctx context.Context, key, field, value string, ttl time.Duration) (int64, error) {
	if a.client == nil {
		return 0, adapter.NewNotConnectedError(dbcapabilities.Redis, "cache hash")
	}
	added, err := a.client.HSet(ctx, key, field, value).Result()
	if err != nil {
		return 0, a.commandError("cache hash", key, err)
	}

	if ttl > 0 {
		err = a.client.Expire(ctx, key, ttl).Err()
	} else {
		err = a.client.Persist(ctx, key).Err()
	}
	if err != nil {
		return added, a.commandError("cache hash", key, err)
	}
	return added, nil
}

// GetCachedHash returns field of the hash at key; ok is false when absent.
func (a *Adapter) GetCachedHash(ctx context.Context, key, field string) (string, bool, error) {
	if a.client == nil {
		return "", false, adapter.NewNotConnectedError(dbcapabilities.Redis, "get cached hash")
	}
	v, err := a.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, a.commandError("get cached hash", key, err)
	}
	return v, true, nil
}

// Expire sets a positive ttl on key, or deletes key when ttl is not positive.
// It returns 1 when the key existed and 0 otherwise.
func (a *Adapter) Expire(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if a.client == nil {
		return 0, adapter.NewNotConnectedError(dbcapabilities.Redis, "expire")
	}

	if ttl > 0 {
		ok, err := a.client.Expire(ctx, key, ttl).Result()
		if err != nil {
			return 0, a.commandError("expire", key, err)
		}
		if ok {
			return 1, nil
		}
		return 0, nil
	}

	n, err := a.client.Del(ctx, key).Result()
	if err != nil {
		return 0, a.commandError("expire", key, err)
	}
	return n, nil
}

// TTL returns the remaining time to live of key. ok is false when the key is
// absent; a key without expiry reports ok with a zero duration.
func (a *Adapter) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	if a.client == nil {
		return 0, false, adapter.NewNotConnectedError(dbcapabilities.Redis, "ttl")
	}
	d, err := a.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, a.commandError("ttl", key, err)
	}
	switch {
	case d == -2:
		return 0, false, nil
	case d < 0:
		return 0, true, nil
	default:
		return d, true, nil
	}
}
