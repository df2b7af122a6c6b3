// Package session wires configuration, logging and the adapter registry for
// one CLI invocation.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/config"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
	"github.com/redbco/redb-facade/pkg/keyring"
	"github.com/redbco/redb-facade/pkg/logger"

	// adapters register themselves with the global registry
	_ "github.com/redbco/redb-facade/pkg/database/mongodb"
	_ "github.com/redbco/redb-facade/pkg/database/mysql"
	_ "github.com/redbco/redb-facade/pkg/database/redis"
)

const ServiceName = "redb-facade"

// Session carries everything a command needs.
type Session struct {
	Config   *config.Config
	Log      *logger.Logger
	Out      io.Writer
	Registry *adapter.Registry

	// Keyring is opened from Config.Keyring on first use when nil
	Keyring keyring.Store
}

// New builds a session from already loaded parts.
func New(cfg *config.Config, log *logger.Logger, out io.Writer) *Session {
	if log == nil {
		log = logger.NewNop()
	}
	return &Session{
		Config:   cfg,
		Log:      log,
		Out:      out,
		Registry: adapter.GlobalRegistry(),
	}
}

// Load reads the configuration file and environment and builds the logger.
// A non-empty logLevel overrides the configured level.
func Load(configFile, logLevel, version string, out, logOut io.Writer) (*Session, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := logger.NewWithOptions(ServiceName, version, logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Output: logOut,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, log, out), nil
}

// Connect opens a session against the configured backend. The caller owns
// the returned adapter and must Close it.
func (s *Session) Connect(ctx context.Context, dbType dbcapabilities.DatabaseType) (adapter.Connector, error) {
	if err := s.Config.Validate(); err != nil {
		return nil, err
	}
	cc, err := s.Config.ConnectionConfig(dbType)
	if err != nil {
		return nil, err
	}
	if dbType == dbcapabilities.MySQL && cc.Password == "" {
		cc.Password = s.lookupPassword(MySQLAccount(s.Config))
	}
	s.Log.Debugf("connecting to %s", dbType)
	return s.Registry.Connect(ctx, cc, s.Log)
}

// MySQLAccount names the keyring entry holding the relational password.
func MySQLAccount(cfg *config.Config) string {
	return fmt.Sprintf("mysql/%s@%s:%d", cfg.MySQL.User, cfg.MySQL.Host, cfg.MySQL.Port)
}

// CredentialStore returns the configured keyring, opening it on first use.
func (s *Session) CredentialStore() (keyring.Store, error) {
	if s.Keyring != nil {
		return s.Keyring, nil
	}
	store, err := keyring.Open(keyring.Options{
		Backend:        s.Config.Keyring.Backend,
		Path:           s.Config.Keyring.Path,
		MasterPassword: s.Config.Keyring.Password,
	})
	if err != nil {
		return nil, err
	}
	s.Log.Debugf("using %s credential store", store.Backend())
	s.Keyring = store
	return store, nil
}

func (s *Session) lookupPassword(account string) string {
	store, err := s.CredentialStore()
	if err != nil {
		s.Log.Warnf("credential store unavailable: %v", err)
		return ""
	}
	secret, err := store.Get(keyring.ServiceName, account)
	switch {
	case err == nil:
		s.Log.Debugf("loaded password for %s from the %s keyring", account, store.Backend())
		return secret
	case errors.Is(err, keyring.ErrNotFound), errors.Is(err, keyring.ErrDisabled):
		return ""
	default:
		s.Log.Warnf("failed to read password for %s: %v", account, err)
		return ""
	}
}

// Printf writes user-facing output.
func (s *Session) Printf(format string, args ...interface{}) {
	fmt.Fprintf(s.Out, format, args...)
}

// Close flushes the logger.
func (s *Session) Close() {
	_ = s.Log.Sync()
}
