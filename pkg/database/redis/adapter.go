// Package redis implements the key-value adapter on top of
// github.com/redis/go-redis/v9.
package redis

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
	"github.com/redbco/redb-facade/pkg/logger"
)

// Options tune the client built from a connection URI. Zero values keep
// what the URI (or the go-redis default) specifies.
type Options struct {
	Username string
	Password string

	PoolSize        int
	MinIdleConns    int
	MaxRetries      int
	ConnMaxIdleTime time.Duration

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultOptions returns pool settings for local development
func DefaultOptions() Options {
	return Options{
		PoolSize:        10,
		MinIdleConns:    2,
		MaxRetries:      3,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

func (o Options) apply(ro *redis.Options) {
	if o.Username != "" {
		ro.Username = o.Username
	}
	if o.Password != "" {
		ro.Password = o.Password
	}
	if o.PoolSize > 0 {
		ro.PoolSize = o.PoolSize
	}
	if o.MinIdleConns > 0 {
		ro.MinIdleConns = o.MinIdleConns
	}
	if o.MaxRetries != 0 {
		ro.MaxRetries = o.MaxRetries
	}
	if o.ConnMaxIdleTime > 0 {
		ro.ConnMaxIdleTime = o.ConnMaxIdleTime
	}
	if o.DialTimeout > 0 {
		ro.DialTimeout = o.DialTimeout
	}
	if o.ReadTimeout > 0 {
		ro.ReadTimeout = o.ReadTimeout
	}
	if o.WriteTimeout > 0 {
		ro.WriteTimeout = o.WriteTimeout
	}
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// Adapter is the key-value adapter. It is not safe for concurrent use.
type Adapter struct {
	logger  *logger.Logger
	client  *redis.Client
	options *redis.Options
	handle  *adapter.SessionHandle
}

// New creates an unconnected adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{logger: logger.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Type returns the database type identifier.
func (a *Adapter) Type() dbcapabilities.DatabaseType {
	return dbcapabilities.Redis
}

// IsConnected reports whether a client is held.
func (a *Adapter) IsConnected() bool {
	return a.client != nil
}

// Connection returns the handle of the current session.
func (a *Adapter) Connection() (adapter.Handle, error) {
	if a.handle == nil {
		return nil, adapter.NewNotConnectedError(dbcapabilities.Redis, "connection")
	}
	return a.handle, nil
}

// Database returns the selected logical database index.
func (a *Adapter) Database() (int, error) {
	if a.client == nil {
		return 0, adapter.NewNotConnectedError(dbcapabilities.Redis, "database")
	}
	return a.options.DB, nil
}

// Connect parses uri, selects database when non-nil and pings the server.
// Any previous client is closed first.
func (a *Adapter) Connect(ctx context.Context, uri string, database *int, opts Options) (adapter.Handle, error) {
	if err := a.Close(); err != nil {
		a.logger.Warn("Failed to close previous Redis client: %v", err)
	}

	ro, err := redis.ParseURL(uri)
	if err != nil {
		return nil, adapter.NewConfigurationError(dbcapabilities.Redis, "uri", err.Error())
	}
	if database != nil {
		if *database < 0 {
			return nil, adapter.NewConfigurationError(dbcapabilities.Redis, "database", fmt.Sprintf("negative index %d", *database))
		}
		ro.DB = *database
	}
	opts.apply(ro)

	return a.open(ctx, ro)
}

// ConnectWithConfig connects from the unified configuration.
func (a *Adapter) ConnectWithConfig(ctx context.Context, config adapter.ConnectionConfig) (adapter.Handle, error) {
	uri := config.URI
	if uri == "" {
		port := config.Port
		if port == 0 {
			port = dbcapabilities.MustGet(dbcapabilities.Redis).DefaultPort
		}
		scheme := "redis"
		if config.SSL {
			scheme = "rediss"
		}
		uri = fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(config.Host, strconv.Itoa(port)))
	}

	opts := DefaultOptions()
	opts.Username = config.Username
	opts.Password = config.Password
	if v, ok := config.Option("pool_size"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, adapter.NewConfigurationError(dbcapabilities.Redis, "pool_size", err.Error())
		}
		opts.PoolSize = n
	}

	return a.Connect(ctx, uri, config.Database, opts)
}

func (a *Adapter) open(ctx context.Context, ro *redis.Options) (adapter.Handle, error) {
	client := redis.NewClient(ro)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		host, port := splitAddr(ro.Addr)
		a.logger.Error("Failed to connect to Redis at %s: %v", ro.Addr, err)
		return nil, adapter.NewConnectionError(dbcapabilities.Redis, host, port, err)
	}

	a.client = client
	a.options = ro
	a.handle = adapter.NewHandle(adapter.HandleInfo{
		Type:        dbcapabilities.Redis,
		Endpoint:    fmt.Sprintf("%s/%d", ro.Addr, ro.DB),
		Secure:      ro.TLSConfig != nil,
		InsecureTLS: ro.TLSConfig != nil && ro.TLSConfig.InsecureSkipVerify,
	}, adapter.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))

	a.logger.Info("Connected to Redis at %s (db %d)", ro.Addr, ro.DB)
	return a.handle, nil
}

// SelectDatabase switches to another logical database. The current client is
// kept when the new one cannot be reached.
func (a *Adapter) SelectDatabase(ctx context.Context, index int) error {
	if a.client == nil {
		return adapter.NewNotConnectedError(dbcapabilities.Redis, "select database")
	}
	if index < 0 {
		return adapter.NewConfigurationError(dbcapabilities.Redis, "database", fmt.Sprintf("negative index %d", index))
	}
	if index == a.options.DB {
		return nil
	}

	ro := *a.options
	ro.DB = index
	prev, prevHandle := a.client, a.handle
	if _, err := a.open(ctx, &ro); err != nil {
		return err
	}

	prevHandle.Invalidate()
	if err := prev.Close(); err != nil {
		a.logger.Warn("Failed to close Redis client for previous database: %v", err)
	}
	return nil
}

// Close closes the client. Closing a closed adapter is a no-op.
func (a *Adapter) Close() error {
	if a.client == nil {
		return nil
	}

	err := a.client.Close()
	addr := a.options.Addr
	a.handle.Invalidate()
	a.client = nil
	a.handle = nil
	a.options = nil

	if err != nil {
		a.logger.Error("Failed to close Redis client for %s: %v", addr, err)
		return adapter.WrapError(dbcapabilities.Redis, "close", err)
	}
	a.logger.Info("Closed Redis client for %s", addr)
	return nil
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}
