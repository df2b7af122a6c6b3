package adapter

// ConnectionConfig contains the configuration for a database connection.
// This is a unified configuration that works across all database types.
type ConnectionConfig struct {
	// Connection metadata
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Database type, e.g. "mysql", "mongodb", "redis" or any registered alias
	ConnectionType string `json:"connectionType" yaml:"connection_type"`

	// Connection details (relational)
	Host         string `json:"host,omitempty" yaml:"host,omitempty"`
	Port         int    `json:"port,omitempty" yaml:"port,omitempty"`
	Username     string `json:"username,omitempty" yaml:"username,omitempty"`
	Password     string `json:"-" yaml:"-"`
	DatabaseName string `json:"databaseName,omitempty" yaml:"database_name,omitempty"`
	Charset      string `json:"charset,omitempty" yaml:"charset,omitempty"`

	// URI based backends (document, key-value)
	URI string `json:"uri,omitempty" yaml:"uri,omitempty"`

	// Logical database index (key-value)
	Database *int `json:"database,omitempty" yaml:"database,omitempty"`

	// SSL/TLS configuration
	SSL                   bool    `json:"ssl,omitempty" yaml:"ssl,omitempty"`
	SSLRejectUnauthorized *bool   `json:"sslRejectUnauthorized,omitempty" yaml:"ssl_reject_unauthorized,omitempty"`
	SSLCert               *string `json:"sslCert,omitempty" yaml:"ssl_cert,omitempty"`
	SSLKey                *string `json:"sslKey,omitempty" yaml:"ssl_key,omitempty"`
	SSLRootCert           *string `json:"sslRootCert,omitempty" yaml:"ssl_root_cert,omitempty"`

	// Database-specific options (use sparingly)
	Options map[string]interface{} `json:"options,omitempty" yaml:"options,omitempty"`
}

// Option returns the string form of a database-specific option.
func (c ConnectionConfig) Option(key string) (string, bool) {
	if c.Options == nil {
		return "", false
	}
	v, ok := c.Options[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetStringPtr returns a pointer to the string, or nil if empty.
func GetStringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GetString returns the string value, or empty string if nil.
func GetString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GetBoolPtr returns a pointer to the bool.
func GetBoolPtr(b bool) *bool {
	return &b
}

// GetBool returns the bool value, or fallback if nil.
func GetBool(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}

// GetIntPtr returns a pointer to the int.
func GetIntPtr(i int) *int {
	return &i
}
