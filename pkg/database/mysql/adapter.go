// Package mysql implements the relational adapter on top of database/sql and
// github.com/go-sql-driver/mysql.
//
// The adapter pins one server session so that named locks, the connection
// charset, transactions and prepared statements all live on the same
// connection. An Adapter is not safe for concurrent use.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/afero"

	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
	"github.com/redbco/redb-facade/pkg/logger"
)

// DefaultPort is used when ConnectParams.Port is zero.
const DefaultPort = 3306

// ConnectParams describes a plain relational session.
type ConnectParams struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string

	// Charset, when set, is applied with SetEncoding right after connecting
	Charset string

	// Timeout bounds the TCP dial
	Timeout time.Duration

	// Params are passed through to the driver DSN
	Params map[string]string
}

// Opener opens a pool for a DSN.
type Opener func(dsn string) (*sql.DB, error)

func defaultOpener(dsn string) (*sql.DB, error) {
	return sql.Open("mysql", dsn)
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

// WithOpener replaces sql.Open, mainly for tests.
func WithOpener(open Opener) Option {
	return func(a *Adapter) {
		if open != nil {
			a.open = open
		}
	}
}

// WithFs sets the filesystem TLS material is read from.
func WithFs(fs afero.Fs) Option {
	return func(a *Adapter) {
		if fs != nil {
			a.fs = fs
		}
	}
}

// Adapter is the relational adapter.
type Adapter struct {
	logger *logger.Logger
	open   Opener
	fs     afero.Fs

	db      *sql.DB
	conn    *sql.Conn
	tx      *sql.Tx
	handle  *adapter.SessionHandle
	tlsName string

	statements map[string]*statement
	results    map[*ResultSet]struct{}
}

// New creates an unconnected adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		logger:     logger.NewNop(),
		open:       defaultOpener,
		fs:         afero.NewOsFs(),
		statements: make(map[string]*statement),
		results:    make(map[*ResultSet]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Type returns the database type identifier.
func (a *Adapter) Type() dbcapabilities.DatabaseType {
	return dbcapabilities.MySQL
}

// IsConnected reports whether a session is held.
func (a *Adapter) IsConnected() bool {
	return a.conn != nil
}

// Connection returns the handle of the current session.
func (a *Adapter) Connection() (adapter.Handle, error) {
	if a.handle == nil {
		return nil, adapter.NewNotConnectedError(dbcapabilities.MySQL, "connection")
	}
	return a.handle, nil
}

// Connect opens a plain session. Any previous session is closed first.
func (a *Adapter) Connect(ctx context.Context, params ConnectParams) (adapter.Handle, error) {
	return a.connect(ctx, params, nil)
}

// ConnectSecure opens a TLS session authenticated with a client certificate.
func (a *Adapter) ConnectSecure(ctx context.Context, params ConnectParams, tlsParams TLSParams) (adapter.Handle, error) {
	return a.connect(ctx, params, &tlsParams)
}

// ConnectWithConfig connects from the unified configuration.
func (a *Adapter) ConnectWithConfig(ctx context.Context, config adapter.ConnectionConfig) (adapter.Handle, error) {
	params := ConnectParams{
		Host:     config.Host,
		Port:     config.Port,
		User:     config.Username,
		Password: config.Password,
		Database: config.DatabaseName,
		Charset:  config.Charset,
	}
	if !config.SSL {
		return a.Connect(ctx, params)
	}
	return a.ConnectSecure(ctx, params, TLSParams{
		KeyFile:          adapter.GetString(config.SSLKey),
		CertFile:         adapter.GetString(config.SSLCert),
		CAFile:           adapter.GetString(config.SSLRootCert),
		VerifyServerCert: adapter.GetBool(config.SSLRejectUnauthorized, true),
	})
}

func (a *Adapter) connect(ctx context.Context, params ConnectParams, tlsParams *TLSParams) (adapter.Handle, error) {
	if err := a.Close(); err != nil {
		a.logger.Warn("Failed to close previous MySQL session: %v", err)
	}

	port := params.Port
	if port == 0 {
		port = DefaultPort
	}

	cfg := mysql.NewConfig()
	cfg.User = params.User
	cfg.Passwd = params.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(params.Host, strconv.Itoa(port))
	cfg.DBName = params.Database
	cfg.Timeout = params.Timeout
	if len(params.Params) > 0 {
		cfg.Params = make(map[string]string, len(params.Params))
		for k, v := range params.Params {
			cfg.Params[k] = v
		}
	}

	insecure := false
	if tlsParams != nil {
		tlsCfg, err := a.buildTLSConfig(params.Host, *tlsParams)
		if err != nil {
			return nil, err
		}
		name, err := registerTLSConfig(tlsCfg)
		if err != nil {
			return nil, adapter.NewConfigurationError(dbcapabilities.MySQL, "tls", err.Error())
		}
		cfg.TLSConfig = name
		a.tlsName = name
		insecure = tlsCfg.InsecureSkipVerify
		if insecure {
			a.logger.Warn("MySQL TLS session to %s does not verify the server certificate", cfg.Addr)
		}
	}

	db, err := a.open(cfg.FormatDSN())
	if err != nil {
		a.releaseTLS()
		a.logger.Error("Failed to open MySQL pool for %s: %v", cfg.Addr, err)
		return nil, adapter.NewConnectionError(dbcapabilities.MySQL, params.Host, port, err)
	}

	conn, err := db.Conn(ctx)
	if err == nil {
		err = conn.PingContext(ctx)
		if err != nil {
			conn.Close()
		}
	}
	if err != nil {
		db.Close()
		a.releaseTLS()
		a.logger.Error("Failed to connect to MySQL at %s: %v", cfg.Addr, err)
		return nil, adapter.NewConnectionError(dbcapabilities.MySQL, params.Host, port, err)
	}

	a.db = db
	a.conn = conn
	a.handle = adapter.NewHandle(adapter.HandleInfo{
		Type:        dbcapabilities.MySQL,
		Endpoint:    cfg.Addr,
		Secure:      tlsParams != nil,
		InsecureTLS: insecure,
	}, adapter.PingFunc(conn.PingContext))

	if params.Charset != "" {
		if err := a.SetEncoding(ctx, params.Charset); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.logger.Info("Connected to MySQL at %s (session %s)", cfg.Addr, a.handle.ID())
	return a.handle, nil
}

// CloseStatements closes every prepared statement.
func (a *Adapter) CloseStatements() error {
	var errs []error
	for name, s := range a.statements {
		if err := s.stmt.Close(); err != nil {
			errs = append(errs, adapter.WrapError(dbcapabilities.MySQL, "close statement "+name, err))
		}
		delete(a.statements, name)
	}
	return errors.Join(errs...)
}

// Close rolls back an open transaction, closes statements and result sets,
// and releases the session. Closing a closed adapter is a no-op.
func (a *Adapter) Close() error {
	if a.db == nil {
		return nil
	}

	var errs []error
	if a.tx != nil {
		if err := a.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, adapter.WrapError(dbcapabilities.MySQL, "rollback", err))
		}
		a.tx = nil
	}
	if err := a.CloseStatements(); err != nil {
		errs = append(errs, err)
	}
	for rs := range a.results {
		rs.release()
		delete(a.results, rs)
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			errs = append(errs, adapter.WrapError(dbcapabilities.MySQL, "close session", err))
		}
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, adapter.WrapError(dbcapabilities.MySQL, "close pool", err))
	}
	a.releaseTLS()

	endpoint := ""
	if a.handle != nil {
		endpoint = a.handle.Endpoint()
		a.handle.Invalidate()
	}
	a.handle = nil
	a.conn = nil
	a.db = nil

	if len(errs) > 0 {
		a.logger.Error("Errors while closing MySQL session to %s: %v", endpoint, errors.Join(errs...))
		return errors.Join(errs...)
	}
	a.logger.Info("Closed MySQL session to %s", endpoint)
	return nil
}

func (a *Adapter) releaseTLS() {
	if a.tlsName != "" {
		mysql.DeregisterTLSConfig(a.tlsName)
		a.tlsName = ""
	}
}

// SetEncoding sets the session charset with SET NAMES.
func (a *Adapter) SetEncoding(ctx context.Context, charset string) error {
	if a.conn == nil {
		return adapter.NewNotConnectedError(dbcapabilities.MySQL, "set encoding")
	}
	if !validCharset(charset) {
		return adapter.NewConfigurationError(dbcapabilities.MySQL, "charset", "invalid charset name: "+strconv.Quote(charset))
	}
	if _, err := a.execer().ExecContext(ctx, "SET NAMES "+charset); err != nil {
		return adapter.NewDatabaseError(dbcapabilities.MySQL, "set encoding", err).WithContext("charset", charset)
	}
	return nil
}

// BeginTransaction opens a transaction on the session.
func (a *Adapter) BeginTransaction(ctx context.Context) error {
	if a.conn == nil {
		return adapter.NewNotConnectedError(dbcapabilities.MySQL, "begin transaction")
	}
	if a.tx != nil {
		return adapter.NewInvalidStateError(dbcapabilities.MySQL, "begin transaction", "a transaction is already open")
	}
	tx, err := a.conn.BeginTx(ctx, nil)
	if err != nil {
		return adapter.NewDatabaseError(dbcapabilities.MySQL, "begin transaction", err)
	}
	a.tx = tx
	return nil
}

// Commit commits the open transaction.
func (a *Adapter) Commit() error {
	return a.endTransaction("commit", func(tx *sql.Tx) error { return tx.Commit() })
}

// Rollback rolls back the open transaction.
func (a *Adapter) Rollback() error {
	return a.endTransaction("rollback", func(tx *sql.Tx) error { return tx.Rollback() })
}

// InTransaction reports whether a transaction is open.
func (a *Adapter) InTransaction() bool {
	return a.tx != nil
}

func (a *Adapter) endTransaction(op string, end func(*sql.Tx) error) error {
	if a.conn == nil {
		return adapter.NewNotConnectedError(dbcapabilities.MySQL, op)
	}
	if a.tx == nil {
		return adapter.NewInvalidStateError(dbcapabilities.MySQL, op, "no open transaction")
	}
	tx := a.tx
	a.tx = nil
	if err := end(tx); err != nil {
		return adapter.NewDatabaseError(dbcapabilities.MySQL, op, err)
	}
	return nil
}

type execQueryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// execer routes direct statements through the open transaction, if any.
func (a *Adapter) execer() execQueryer {
	if a.tx != nil {
		return a.tx
	}
	return a.conn
}
