package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "redb-facade.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), *cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
mysql:
  host: db.internal
  port: 3307
  database: app
  lock_timeout: 30s
  tls:
    enabled: true
    cert: /etc/ssl/client.pem
    key: /etc/ssl/client.key
    verify_server_cert: false
redis:
  uri: redis://cache:6379
  database: 3
log:
  level: debug
`)
	t.Setenv("REDB_FACADE_MYSQL_PASSWORD", "s3cret")
	t.Setenv("REDB_FACADE_REDIS_DATABASE", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.MySQL.Host)
	assert.Equal(t, 3307, cfg.MySQL.Port)
	assert.Equal(t, "s3cret", cfg.MySQL.Password)
	assert.Equal(t, 30*time.Second, cfg.MySQL.LockTimeout)
	assert.True(t, cfg.MySQL.TLS.Enabled)
	assert.False(t, cfg.MySQL.TLS.VerifyServerCert)
	assert.Equal(t, "utf8mb4", cfg.MySQL.Charset)
	assert.Equal(t, 5, cfg.Redis.Database)
	assert.Equal(t, "redis://cache:6379", cfg.Redis.URI)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty mysql host", func(c *Config) { c.MySQL.Host = "" }, "host"},
		{"port out of range", func(c *Config) { c.MySQL.Port = 70000 }, "port"},
		{"cert without key", func(c *Config) { c.MySQL.TLS = TLSConfig{Enabled: true, Cert: "c.pem"} }, "tls"},
		{"bad mongo scheme", func(c *Config) { c.MongoDB.URI = "http://localhost" }, "uri"},
		{"bad read preference", func(c *Config) { c.MongoDB.ReadPreference = "closest" }, "read_preference"},
		{"negative redis db", func(c *Config) { c.Redis.Database = -1 }, "database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, adapter.IsConfigurationError(err))
			var confErr *adapter.ConfigurationError
			require.ErrorAs(t, err, &confErr)
			assert.Equal(t, tt.field, confErr.Field)
		})
	}
}

func TestConnectionConfig(t *testing.T) {
	cfg := Default()
	cfg.MySQL.TLS = TLSConfig{Enabled: true, Cert: "c.pem", Key: "k.pem", CA: "ca.pem", VerifyServerCert: false}
	cfg.MongoDB.Collection = "events"

	my, err := cfg.ConnectionConfig(dbcapabilities.MySQL)
	require.NoError(t, err)
	assert.Equal(t, "mysql", my.ConnectionType)
	assert.True(t, my.SSL)
	assert.Equal(t, "ca.pem", adapter.GetString(my.SSLRootCert))
	assert.False(t, adapter.GetBool(my.SSLRejectUnauthorized, true))

	rd, err := cfg.ConnectionConfig(dbcapabilities.Redis)
	require.NoError(t, err)
	require.NotNil(t, rd.Database)
	assert.Equal(t, 0, *rd.Database)

	mg, err := cfg.ConnectionConfig(dbcapabilities.MongoDB)
	require.NoError(t, err)
	appName, ok := mg.Option("app_name")
	assert.True(t, ok)
	assert.Equal(t, "redb-facade", appName)
	coll, _ := mg.Option("collection")
	assert.Equal(t, "events", coll)

	_, err = cfg.ConnectionConfig(dbcapabilities.DatabaseType("oracle"))
	assert.True(t, adapter.IsConfigurationError(err))
}
