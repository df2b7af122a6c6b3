// Package cache drives the key-value adapter from the CLI.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redbco/redb-facade/cmd/cli/internal/session"
	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/database/redis"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
)

// Open connects the key-value adapter from configuration.
func Open(ctx context.Context, s *session.Session) (*redis.Adapter, error) {
	conn, err := s.Connect(ctx, dbcapabilities.Redis)
	if err != nil {
		return nil, err
	}
	a, ok := conn.(*redis.Adapter)
	if !ok {
		conn.Close()
		return nil, adapter.NewInvalidStateError(dbcapabilities.Redis, "cache", fmt.Sprintf("unexpected adapter %T", conn))
	}
	return a, nil
}

// Set stores value under key, or under field of the hash at key when field
// is set.
func Set(ctx context.Context, s *session.Session, a *redis.Adapter, key, field, value string, ttl time.Duration) error {
	if field != "" {
		added, err := a.CacheHash(ctx, key, field, value, ttl)
		if err != nil {
			return err
		}
		verb := "Updated"
		if added > 0 {
			verb = "Added"
		}
		s.Printf("%s %s[%s] (%s)\n", verb, key, field, describeTTL(ttl))
		return nil
	}

	if err := a.CacheString(ctx, key, value, ttl); err != nil {
		return err
	}
	s.Printf("Stored %s (%s)\n", key, describeTTL(ttl))
	return nil
}

// Get prints the value under key, or under field of the hash at key.
func Get(ctx context.Context, s *session.Session, a *redis.Adapter, key, field string) error {
	var (
		v   string
		ok  bool
		err error
	)
	if field != "" {
		v, ok, err = a.GetCachedHash(ctx, key, field)
	} else {
		v, ok, err = a.GetCachedString(ctx, key)
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("key %q not found", key)
	}
	s.Printf("%s\n", v)
	return nil
}

// Expire applies ttl to key, deleting it when ttl is not positive.
func Expire(ctx context.Context, s *session.Session, a *redis.Adapter, key string, ttl time.Duration) error {
	n, err := a.Expire(ctx, key, ttl)
	if err != nil {
		return err
	}
	switch {
	case n == 0:
		s.Printf("Key %s does not exist\n", key)
	case ttl > 0:
		s.Printf("Key %s expires in %s\n", key, ttl)
	default:
		s.Printf("Deleted %s\n", key)
	}
	return nil
}

// TTL prints the remaining lifetime of key.
func TTL(ctx context.Context, s *session.Session, a *redis.Adapter, key string) error {
	d, ok, err := a.TTL(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("key %q not found", key)
	}
	s.Printf("%s\n", describeTTL(d))
	return nil
}

func describeTTL(ttl time.Duration) string {
	if ttl <= 0 {
		return "no expiry"
	}
	return "ttl " + ttl.String()
}
