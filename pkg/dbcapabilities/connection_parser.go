package dbcapabilities

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ConnectionDetails holds parsed connection information
type ConnectionDetails struct {
	DatabaseType string            `json:"database_type" yaml:"database_type"`
	Host         string            `json:"host" yaml:"host"`
	Port         int               `json:"port" yaml:"port"`
	Username     string            `json:"username" yaml:"username"`
	Password     string            `json:"password" yaml:"-"`
	DatabaseName string            `json:"database_name" yaml:"database_name"`
	SSL          bool              `json:"ssl" yaml:"ssl"`
	SSLMode      string            `json:"ssl_mode" yaml:"ssl_mode"`
	Parameters   map[string]string `json:"parameters" yaml:"parameters,omitempty"`
	IsSystemDB   bool              `json:"is_system_db" yaml:"is_system_db"`
	SystemDBName string            `json:"system_db_name,omitempty" yaml:"system_db_name,omitempty"`
	IsLocal      bool              `json:"is_local" yaml:"is_local"`
}

// ParseConnectionString splits a mysql://, mongodb:// or redis:// URL into
// ConnectionDetails. Missing ports fall back to the backend default, and an
// empty database on a backend with a system database selects that one.
func ParseConnectionString(connectionString string) (*ConnectionDetails, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("connection string cannot be empty")
	}

	u, err := url.Parse(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string format: %v", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		return nil, fmt.Errorf("connection string must include a scheme (e.g., mysql://)")
	}

	dbType, ok := ParseID(scheme)
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s", scheme)
	}
	capability := MustGet(dbType)

	if u.Hostname() == "" {
		return nil, fmt.Errorf("host is required in connection string")
	}
	port, err := parsePort(u.Port(), capability.DefaultPort)
	if err != nil {
		return nil, err
	}

	details := &ConnectionDetails{
		DatabaseType: string(dbType),
		Host:         u.Hostname(),
		Port:         port,
		DatabaseName: strings.Trim(u.Path, "/"),
		IsLocal:      IsLocalhostVariant(u.Hostname()),
		Parameters:   make(map[string]string),
	}
	if u.User != nil {
		details.Username = u.User.Username()
		details.Password, _ = u.User.Password()
	}
	applySystemDatabase(details, capability)

	query := u.Query()
	for key, values := range query {
		if len(values) > 0 {
			details.Parameters[key] = values[0]
		}
	}

	if err := parseSSLConfiguration(details, scheme, query); err != nil {
		return nil, fmt.Errorf("error parsing SSL configuration: %v", err)
	}

	if capability.RequiresUsername && details.Username == "" {
		return nil, fmt.Errorf("username is required in connection string")
	}
	return details, nil
}

func parsePort(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port number: %s", raw)
	}
	return port, nil
}

// applySystemDatabase marks (or defaults to) the backend's system database.
func applySystemDatabase(details *ConnectionDetails, c Capability) {
	if !c.HasSystemDatabase || len(c.SystemDatabases) == 0 {
		return
	}
	if details.DatabaseName == "" {
		details.DatabaseName = c.SystemDatabases[0]
	}
	if isSystemDatabase(details.DatabaseName, c.SystemDatabases) {
		details.IsSystemDB = true
		details.SystemDBName = c.SystemDatabases[0]
	}
}

// isSystemDatabase checks if the given database name is a system database
func isSystemDatabase(dbName string, systemDatabases []string) bool {
	for _, sysDB := range systemDatabases {
		if strings.EqualFold(dbName, sysDB) {
			return true
		}
	}
	return false
}

// parseSSLConfiguration handles SSL-related parameters based on database type
func parseSSLConfiguration(details *ConnectionDetails, scheme string, queryParams url.Values) error {
	switch DatabaseType(details.DatabaseType) {
	case MySQL:
		return parseMySQLSSL(details, queryParams)
	case MongoDB:
		return parseMongoDBSSL(details, queryParams)
	case Redis:
		return parseRedisSSL(details, scheme, queryParams)
	default:
		return fmt.Errorf("no SSL rules for %s", details.DatabaseType)
	}
}

// parseMySQLSSL handles MySQL-specific SSL parameters
func parseMySQLSSL(details *ConnectionDetails, queryParams url.Values) error {
	tls := queryParams.Get("tls")
	if tls == "" {
		tls = "false"
	}

	switch tls {
	case "true", "skip-verify", "preferred", "false":
	default:
		// go-sql-driver also accepts names registered with RegisterTLSConfig
		details.Parameters["tls_config"] = tls
	}

	details.SSL = tls != "false"
	switch {
	case !details.SSL:
		details.SSLMode = "disable"
	case tls == "skip-verify" || tls == "preferred":
		details.SSLMode = "prefer"
	default:
		details.SSLMode = "require"
	}

	return nil
}

// parseMongoDBSSL handles MongoDB-specific SSL parameters
func parseMongoDBSSL(details *ConnectionDetails, queryParams url.Values) error {
	tls := queryParams.Get("tls")
	ssl := queryParams.Get("ssl") // Legacy parameter

	if tls != "" {
		details.SSL = tls == "true"
	} else if ssl != "" {
		details.SSL = ssl == "true"
	} else {
		details.SSL = false
	}

	if details.SSL {
		details.SSLMode = "require"
		if queryParams.Get("tlsInsecure") == "true" {
			details.SSLMode = "prefer"
		}
	} else {
		details.SSLMode = "disable"
	}

	return nil
}

// parseRedisSSL handles Redis-specific SSL parameters. The rediss:// scheme always implies TLS.
func parseRedisSSL(details *ConnectionDetails, scheme string, queryParams url.Values) error {
	if details.DatabaseName != "" {
		if idx, err := strconv.Atoi(details.DatabaseName); err != nil || idx < 0 {
			return fmt.Errorf("redis database must be a non-negative integer, got %q", details.DatabaseName)
		}
	}

	details.SSL = scheme == "rediss" || queryParams.Get("ssl") == "true"
	if details.SSL {
		details.SSLMode = "require"
		if queryParams.Get("skip_verify") == "true" {
			details.SSLMode = "prefer"
		}
	} else {
		details.SSLMode = "disable"
	}

	return nil
}
