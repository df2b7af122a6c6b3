// Package config loads facade settings from a YAML file, .env files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
)

// EnvPrefix prefixes every environment override, e.g. REDB_FACADE_MYSQL_HOST.
const EnvPrefix = "REDB_FACADE"

// Config holds the settings of all adapters.
type Config struct {
	MySQL   MySQLConfig   `mapstructure:"mysql" yaml:"mysql"`
	MongoDB MongoDBConfig `mapstructure:"mongodb" yaml:"mongodb"`
	Redis   RedisConfig   `mapstructure:"redis" yaml:"redis"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Keyring KeyringConfig `mapstructure:"keyring" yaml:"keyring"`
}

// MySQLConfig configures the relational adapter.
type MySQLConfig struct {
	Host        string        `mapstructure:"host" yaml:"host"`
	Port        int           `mapstructure:"port" yaml:"port"`
	User        string        `mapstructure:"user" yaml:"user"`
	Password    string        `mapstructure:"password" yaml:"-"`
	Database    string        `mapstructure:"database" yaml:"database"`
	Charset     string        `mapstructure:"charset" yaml:"charset"`
	LockTimeout time.Duration `mapstructure:"lock_timeout" yaml:"lock_timeout"`
	TLS         TLSConfig     `mapstructure:"tls" yaml:"tls"`
}

// TLSConfig holds client certificate material for a secure relational session.
type TLSConfig struct {
	Enabled          bool   `mapstructure:"enabled" yaml:"enabled"`
	Key              string `mapstructure:"key" yaml:"key"`
	Cert             string `mapstructure:"cert" yaml:"cert"`
	CA               string `mapstructure:"ca" yaml:"ca"`
	VerifyServerCert bool   `mapstructure:"verify_server_cert" yaml:"verify_server_cert"`
}

// MongoDBConfig configures the document adapter.
type MongoDBConfig struct {
	URI            string        `mapstructure:"uri" yaml:"uri"`
	Database       string        `mapstructure:"database" yaml:"database"`
	Collection     string        `mapstructure:"collection" yaml:"collection"`
	AppName        string        `mapstructure:"app_name" yaml:"app_name"`
	ReadPreference string        `mapstructure:"read_preference" yaml:"read_preference"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// RedisConfig configures the key-value adapter.
type RedisConfig struct {
	URI        string        `mapstructure:"uri" yaml:"uri"`
	Database   int           `mapstructure:"database" yaml:"database"`
	PoolSize   int           `mapstructure:"pool_size" yaml:"pool_size"`
	DefaultTTL time.Duration `mapstructure:"default_ttl" yaml:"default_ttl"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// KeyringConfig selects where backend passwords missing from the file are looked up.
type KeyringConfig struct {
	Backend  string `mapstructure:"backend" yaml:"backend"`
	Path     string `mapstructure:"path" yaml:"path"`
	Password string `mapstructure:"password" yaml:"-"`
}

// Default returns a configuration for local development
func Default() Config {
	return Config{
		MySQL: MySQLConfig{
			Host:        "localhost",
			Port:        3306,
			User:        "root",
			Charset:     "utf8mb4",
			LockTimeout: 10 * time.Second,
			TLS:         TLSConfig{VerifyServerCert: true},
		},
		MongoDB: MongoDBConfig{
			URI:            "mongodb://localhost:27017",
			AppName:        "redb-facade",
			ReadPreference: "primary",
			Timeout:        10 * time.Second,
		},
		Redis: RedisConfig{
			URI:        "redis://localhost:6379",
			Database:   0,
			PoolSize:   10,
			DefaultTTL: time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Keyring: KeyringConfig{
			Backend: "auto",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("mysql.host", d.MySQL.Host)
	v.SetDefault("mysql.port", d.MySQL.Port)
	v.SetDefault("mysql.user", d.MySQL.User)
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.database", "")
	v.SetDefault("mysql.charset", d.MySQL.Charset)
	v.SetDefault("mysql.lock_timeout", d.MySQL.LockTimeout)
	v.SetDefault("mysql.tls.enabled", false)
	v.SetDefault("mysql.tls.key", "")
	v.SetDefault("mysql.tls.cert", "")
	v.SetDefault("mysql.tls.ca", "")
	v.SetDefault("mysql.tls.verify_server_cert", d.MySQL.TLS.VerifyServerCert)

	v.SetDefault("mongodb.uri", d.MongoDB.URI)
	v.SetDefault("mongodb.database", "")
	v.SetDefault("mongodb.collection", "")
	v.SetDefault("mongodb.app_name", d.MongoDB.AppName)
	v.SetDefault("mongodb.read_preference", d.MongoDB.ReadPreference)
	v.SetDefault("mongodb.timeout", d.MongoDB.Timeout)

	v.SetDefault("redis.uri", d.Redis.URI)
	v.SetDefault("redis.database", d.Redis.Database)
	v.SetDefault("redis.pool_size", d.Redis.PoolSize)
	v.SetDefault("redis.default_ttl", d.Redis.DefaultTTL)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", "")

	v.SetDefault("keyring.backend", d.Keyring.Backend)
	v.SetDefault("keyring.path", "")
	v.SetDefault("keyring.password", "")
}

// Load reads configuration from path (optional), .env files and the environment.
// Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	// load .env files, if they exist
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("redb-facade")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings each adapter needs before connecting.
func (c *Config) Validate() error {
	var errs []error

	if c.MySQL.Host == "" {
		errs = append(errs, adapter.NewConfigurationError(dbcapabilities.MySQL, "host", "must not be empty"))
	}
	if c.MySQL.Port < 0 || c.MySQL.Port > 65535 {
		errs = append(errs, adapter.NewConfigurationError(dbcapabilities.MySQL, "port", fmt.Sprintf("out of range: %d", c.MySQL.Port)))
	}
	if c.MySQL.TLS.Enabled && (c.MySQL.TLS.Cert == "") != (c.MySQL.TLS.Key == "") {
		errs = append(errs, adapter.NewConfigurationError(dbcapabilities.MySQL, "tls", "cert and key must be set together"))
	}

	if c.MongoDB.URI != "" && !strings.HasPrefix(c.MongoDB.URI, "mongodb://") && !strings.HasPrefix(c.MongoDB.URI, "mongodb+srv://") {
		errs = append(errs, adapter.NewConfigurationError(dbcapabilities.MongoDB, "uri", "must use the mongodb:// or mongodb+srv:// scheme"))
	}
	switch c.MongoDB.ReadPreference {
	case "", "primary", "primaryPreferred", "secondary", "secondaryPreferred", "nearest":
	default:
		errs = append(errs, adapter.NewConfigurationError(dbcapabilities.MongoDB, "read_preference", fmt.Sprintf("unknown mode %q", c.MongoDB.ReadPreference)))
	}

	if c.Redis.Database < 0 {
		errs = append(errs, adapter.NewConfigurationError(dbcapabilities.Redis, "database", "must not be negative"))
	}
	if c.Redis.PoolSize < 0 {
		errs = append(errs, adapter.NewConfigurationError(dbcapabilities.Redis, "pool_size", "must not be negative"))
	}

	return errors.Join(errs...)
}

// ConnectionConfig builds the unified adapter configuration for one backend.
func (c *Config) ConnectionConfig(dbType dbcapabilities.DatabaseType) (adapter.ConnectionConfig, error) {
	switch dbType {
	case dbcapabilities.MySQL:
		cc := adapter.ConnectionConfig{
			ConnectionType: string(dbType),
			Host:           c.MySQL.Host,
			Port:           c.MySQL.Port,
			Username:       c.MySQL.User,
			Password:       c.MySQL.Password,
			DatabaseName:   c.MySQL.Database,
			Charset:        c.MySQL.Charset,
		}
		if c.MySQL.TLS.Enabled {
			cc.SSL = true
			cc.SSLKey = adapter.GetStringPtr(c.MySQL.TLS.Key)
			cc.SSLCert = adapter.GetStringPtr(c.MySQL.TLS.Cert)
			cc.SSLRootCert = adapter.GetStringPtr(c.MySQL.TLS.CA)
			cc.SSLRejectUnauthorized = adapter.GetBoolPtr(c.MySQL.TLS.VerifyServerCert)
		}
		return cc, nil
	case dbcapabilities.MongoDB:
		return adapter.ConnectionConfig{
			ConnectionType: string(dbType),
			URI:            c.MongoDB.URI,
			DatabaseName:   c.MongoDB.Database,
			Options: map[string]interface{}{
				"app_name":        c.MongoDB.AppName,
				"collection":      c.MongoDB.Collection,
				"read_preference": c.MongoDB.ReadPreference,
				"timeout":         c.MongoDB.Timeout.String(),
			},
		}, nil
	case dbcapabilities.Redis:
		return adapter.ConnectionConfig{
			ConnectionType: string(dbType),
			URI:            c.Redis.URI,
			Database:       adapter.GetIntPtr(c.Redis.Database),
			Options: map[string]interface{}{
				"pool_size": fmt.Sprintf("%d", c.Redis.PoolSize),
			},
		}, nil
	default:
		return adapter.ConnectionConfig{}, adapter.NewConfigurationError(dbType, "connectionType", "no configuration section")
	}
}
