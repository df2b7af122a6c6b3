// Package mongodb implements the document adapter on top of
// go.mongodb.org/mongo-driver/v2.
package mongodb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
	"github.com/redbco/redb-facade/pkg/logger"
)

// disconnectTimeout bounds Close.
const disconnectTimeout = 10 * time.Second

// DriverOptions are client settings that have no URI form, or are easier
// to set in code.
type DriverOptions struct {
	AppName                string
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	Timeout                time.Duration
	MaxPoolSize            uint64

	// VerifyConnection pings the primary before Connect returns.
	// Without it the driver connects lazily on first use.
	VerifyConnection bool
}

// ConnectOptions configure Connect.
type ConnectOptions struct {
	// URIOptions are merged into the URI query, overriding keys already present
	URIOptions map[string]string
	Driver     DriverOptions
}

// ScopeOptions configure a selected database or collection.
type ScopeOptions struct {
	// ReadPreference is one of primary, primaryPreferred, secondary,
	// secondaryPreferred or nearest. Empty inherits from the parent scope.
	ReadPreference string
}

func (o ScopeOptions) readPref() (*readpref.ReadPref, error) {
	switch o.ReadPreference {
	case "":
		return nil, nil
	case "primary":
		return readpref.Primary(), nil
	case "primaryPreferred":
		return readpref.PrimaryPreferred(), nil
	case "secondary":
		return readpref.Secondary(), nil
	case "secondaryPreferred":
		return readpref.SecondaryPreferred(), nil
	case "nearest":
		return readpref.Nearest(), nil
	default:
		return nil, adapter.NewConfigurationError(dbcapabilities.MongoDB, "read_preference", fmt.Sprintf("unknown mode %q", o.ReadPreference))
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

// Adapter is the document adapter. It is not safe for concurrent use.
type Adapter struct {
	logger     *logger.Logger
	client     *mongo.Client
	handle     *adapter.SessionHandle
	database   *Database
	collection *Collection
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
	return dbcapabilities.MongoDB
}

// IsConnected reports whether a client is held.
func (a *Adapter) IsConnected() bool {
	return a.client != nil
}

// Connection returns the handle of the current client.
func (a *Adapter) Connection() (adapter.Handle, error) {
	if a.handle == nil {
		return nil, adapter.NewNotConnectedError(dbcapabilities.MongoDB, "connection")
	}
	return a.handle, nil
}

// Connect creates a client for uri. Any previous client is closed first.
func (a *Adapter) Connect(ctx context.Context, uri string, opts ConnectOptions) (adapter.Handle, error) {
	if err := a.Close(); err != nil {
		a.logger.Warn("Failed to close previous MongoDB client: %v", err)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, adapter.NewConfigurationError(dbcapabilities.MongoDB, "uri", err.Error())
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return nil, adapter.NewConfigurationError(dbcapabilities.MongoDB, "uri", fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}
	if len(opts.URIOptions) > 0 {
		q := u.Query()
		for k, v := range opts.URIOptions {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	clientOpts := options.Client().ApplyURI(u.String())
	d := opts.Driver
	if d.AppName != "" {
		clientOpts.SetAppName(d.AppName)
	}
	if d.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(d.ConnectTimeout)
	}
	if d.ServerSelectionTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(d.ServerSelectionTimeout)
	}
	if d.Timeout > 0 {
		clientOpts.SetTimeout(d.Timeout)
	}
	if d.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(d.MaxPoolSize)
	}

	host, port := splitHost(u.Host)
	client, err := mongo.Connect(clientOpts)
	if err != nil {
		a.logger.Error("Failed to create MongoDB client for %s: %v", u.Host, err)
		return nil, adapter.NewConnectionError(dbcapabilities.MongoDB, host, port, err)
	}

	if d.VerifyConnection {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			dctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
			_ = client.Disconnect(dctx)
			cancel()
			a.logger.Error("Failed to ping MongoDB at %s: %v", u.Host, err)
			return nil, adapter.NewConnectionError(dbcapabilities.MongoDB, host, port, err)
		}
	}

	q := u.Query()
	a.client = client
	a.handle = adapter.NewHandle(adapter.HandleInfo{
		Type:        dbcapabilities.MongoDB,
		Endpoint:    u.Scheme + "://" + u.Host,
		Secure:      u.Scheme == "mongodb+srv" || queryBool(q, "tls") || queryBool(q, "ssl"),
		InsecureTLS: queryBool(q, "tlsInsecure") || queryBool(q, "tlsAllowInvalidCertificates"),
	}, adapter.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}))

	if a.handle.InsecureTLS() {
		a.logger.Warn("MongoDB client for %s does not verify the server certificate", u.Host)
	}
	a.logger.Info("Connected to MongoDB at %s", u.Host)
	return a.handle, nil
}

// ConnectWithConfig connects from the unified configuration and, when a
// database name is given, selects it. A "collection" option then selects
// that collection of the database.
func (a *Adapter) ConnectWithConfig(ctx context.Context, config adapter.ConnectionConfig) (adapter.Handle, error) {
	collection, _ := config.Option("collection")
	if collection != "" && config.DatabaseName == "" {
		return nil, adapter.NewConfigurationError(dbcapabilities.MongoDB, "collection", "needs a database")
	}

	uri := config.URI
	if uri == "" {
		port := config.Port
		if port == 0 {
			port = dbcapabilities.MustGet(dbcapabilities.MongoDB).DefaultPort
		}
		u := url.URL{Scheme: "mongodb", Host: fmt.Sprintf("%s:%d", config.Host, port)}
		if config.Username != "" {
			u.User = url.UserPassword(config.Username, config.Password)
		}
		uri = u.String()
	}

	opts := ConnectOptions{
		URIOptions: map[string]string{},
		Driver:     DriverOptions{VerifyConnection: true},
	}
	if config.SSL {
		opts.URIOptions["tls"] = "true"
		if v := adapter.GetString(config.SSLRootCert); v != "" {
			opts.URIOptions["tlsCAFile"] = v
		}
		if v := adapter.GetString(config.SSLCert); v != "" {
			opts.URIOptions["tlsCertificateKeyFile"] = v
		}
		if !adapter.GetBool(config.SSLRejectUnauthorized, true) {
			opts.URIOptions["tlsInsecure"] = "true"
		}
	}
	if v, ok := config.Option("app_name"); ok {
		opts.Driver.AppName = v
	}
	if v, ok := config.Option("timeout"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, adapter.NewConfigurationError(dbcapabilities.MongoDB, "timeout", err.Error())
		}
		opts.Driver.ServerSelectionTimeout = d
	}

	h, err := a.Connect(ctx, uri, opts)
	if err != nil {
		return nil, err
	}

	if config.DatabaseName != "" {
		rp, _ := config.Option("read_preference")
		if _, err := a.SelectDatabase(config.DatabaseName, ScopeOptions{ReadPreference: rp}); err != nil {
			a.Close()
			return nil, err
		}
	}
	if collection != "" {
		if _, err := a.SelectCollection(collection, ScopeOptions{}); err != nil {
			a.Close()
			return nil, err
		}
	}
	return h, nil
}

// SelectDatabase makes name the current database, replacing any previous
// selection and clearing the selected collection.
func (a *Adapter) SelectDatabase(name string, opts ScopeOptions) (*Database, error) {
	if a.client == nil {
		return nil, adapter.NewNotConnectedError(dbcapabilities.MongoDB, "select database")
	}
	if name == "" {
		return nil, adapter.NewConfigurationError(dbcapabilities.MongoDB, "database", "name must not be empty")
	}
	rp, err := opts.readPref()
	if err != nil {
		return nil, err
	}

	dbOpts := options.Database()
	if rp != nil {
		dbOpts.SetReadPreference(rp)
	}

	a.database = &Database{name: name, db: a.client.Database(name, dbOpts), handle: a.handle}
	a.collection = nil
	a.logger.Debug("Selected MongoDB database %s", name)
	return a.database, nil
}

// SelectCollection makes name the current collection of the selected database.
func (a *Adapter) SelectCollection(name string, opts ScopeOptions) (*Collection, error) {
	if a.client == nil {
		return nil, adapter.NewNotConnectedError(dbcapabilities.MongoDB, "select collection")
	}
	if a.database == nil {
		return nil, adapter.NewInvalidStateError(dbcapabilities.MongoDB, "select collection", "no database selected")
	}
	coll, err := a.database.Collection(name, opts)
	if err != nil {
		return nil, err
	}
	a.collection = coll
	return coll, nil
}

// SelectedDatabase returns the current database.
func (a *Adapter) SelectedDatabase() (*Database, error) {
	if a.client == nil {
		return nil, adapter.NewNotConnectedError(dbcapabilities.MongoDB, "selected database")
	}
	if a.database == nil {
		return nil, adapter.NewInvalidStateError(dbcapabilities.MongoDB, "selected database", "no database selected")
	}
	return a.database, nil
}

// SelectedCollection returns the current collection.
func (a *Adapter) SelectedCollection() (*Collection, error) {
	if a.client == nil {
		return nil, adapter.NewNotConnectedError(dbcapabilities.MongoDB, "selected collection")
	}
	if a.collection == nil {
		return nil, adapter.NewInvalidStateError(dbcapabilities.MongoDB, "selected collection", "no collection selected")
	}
	return a.collection, nil
}

// Close disconnects the client and clears the selected scopes.
// Closing a closed adapter is a no-op.
func (a *Adapter) Close() error {
	if a.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	err := a.client.Disconnect(ctx)
	endpoint := a.handle.Endpoint()
	a.handle.Invalidate()
	a.handle = nil
	a.client = nil
	a.database = nil
	a.collection = nil

	if err != nil {
		a.logger.Error("Failed to disconnect MongoDB client for %s: %v", endpoint, err)
		return adapter.WrapError(dbcapabilities.MongoDB, "close", err)
	}
	a.logger.Info("Disconnected MongoDB client for %s", endpoint)
	return nil
}

func queryBool(q url.Values, key string) bool {
	b, err := strconv.ParseBool(q.Get(key))
	return err == nil && b
}

// splitHost returns the first host of a possibly comma separated seed list.
func splitHost(hosts string) (string, int) {
	first := strings.Split(hosts, ",")[0]
	i := strings.LastIndex(first, ":")
	if i < 0 {
		return first, 0
	}
	port, err := strconv.Atoi(first[i+1:])
	if err != nil {
		return first, 0
	}
	return first[:i], port
}
