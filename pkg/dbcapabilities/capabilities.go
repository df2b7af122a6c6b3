package dbcapabilities

import "strings"

// DatabaseType is the canonical identifier for a database technology supported by the facade.
// Use these constants to look up capability information.
type DatabaseType string

const (
	// Relational SQL
	MySQL DatabaseType = "mysql"

	// NoSQL / Other paradigms
	MongoDB DatabaseType = "mongodb"
	Redis   DatabaseType = "redis"
)

// DataParadigm enumerates the primary data storage paradigms a database supports.
type DataParadigm string

const (
	ParadigmRelational DataParadigm = "relational" // Tables, schemas, SQL
	ParadigmDocument   DataParadigm = "document"   // Collections, documents
	ParadigmKeyValue   DataParadigm = "keyvalue"   // Key/Value
)

// Capability describes what a backend supports in a way callers can consume uniformly.
type Capability struct {
	// Human-friendly vendor or product name, e.g., "MySQL".
	Name string `json:"name" yaml:"name"`

	// Canonical ID used across the codebase (see DatabaseType constants), e.g., "mysql".
	ID DatabaseType `json:"id" yaml:"id"`

	// Port used when a connection does not name one.
	DefaultPort int `json:"defaultPort" yaml:"defaultPort"`

	// Whether the database exposes a built-in/system database and its typical names.
	HasSystemDatabase bool     `json:"hasSystemDatabase" yaml:"hasSystemDatabase"`
	SystemDatabases   []string `json:"systemDatabases,omitempty" yaml:"systemDatabases,omitempty"`

	// Primary data storage paradigms supported.
	Paradigms []DataParadigm `json:"paradigms" yaml:"paradigms"`

	// Session features exposed through the adapters.
	SupportsTransactions       bool `json:"supportsTransactions" yaml:"supportsTransactions"`
	SupportsPreparedStatements bool `json:"supportsPreparedStatements" yaml:"supportsPreparedStatements"`
	SupportsAdvisoryLocks      bool `json:"supportsAdvisoryLocks" yaml:"supportsAdvisoryLocks"`
	SupportsTTL                bool `json:"supportsTTL" yaml:"supportsTTL"`

	// Whether a connection string must carry a user name.
	RequiresUsername bool `json:"requiresUsername" yaml:"requiresUsername"`

	// Common aliases (URI schemes, driver names, env labels) that map to this database.
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// All is a registry of capabilities keyed by the canonical database ID.
var All = map[DatabaseType]Capability{
	MySQL: {
		Name:                       "MySQL",
		ID:                         MySQL,
		DefaultPort:                3306,
		HasSystemDatabase:          true,
		SystemDatabases:            []string{"mysql"},
		Paradigms:                  []DataParadigm{ParadigmRelational},
		SupportsTransactions:       true,
		SupportsPreparedStatements: true,
		SupportsAdvisoryLocks:      true,
		RequiresUsername:           true,
		Aliases:                    []string{"mysqli", "mariadb", "aurora-mysql"},
	},
	MongoDB: {
		Name:              "MongoDB",
		ID:                MongoDB,
		DefaultPort:       27017,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"admin"},
		Paradigms:         []DataParadigm{ParadigmDocument},
		Aliases:           []string{"mongo", "mongodb+srv"},
	},
	Redis: {
		Name:        "Redis",
		ID:          Redis,
		DefaultPort: 6379,
		Paradigms:   []DataParadigm{ParadigmKeyValue},
		SupportsTTL: true,
		Aliases:     []string{"rediss", "predis", "valkey"},
	},
}

// nameToID is a normalized lookup index from any known name/alias to the canonical DatabaseType.
var nameToID map[string]DatabaseType

func init() {
	nameToID = make(map[string]DatabaseType, len(All)*2)
	for id, cap := range All {
		nameToID[strings.ToLower(string(id))] = id
		if cap.Name != "" {
			nameToID[strings.ToLower(cap.Name)] = id
		}
		for _, a := range cap.Aliases {
			if a == "" {
				continue
			}
			nameToID[strings.ToLower(a)] = id
		}
	}
}

// ParseID attempts to resolve an arbitrary database name (canonical id, alias, or product name)
// to a canonical DatabaseType. Returns false if unknown.
func ParseID(name string) (DatabaseType, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	id, ok := nameToID[n]
	return id, ok
}

// GetByName returns the Capability by looking up using a free-form name (id or alias).
func GetByName(name string) (Capability, bool) {
	if id, ok := ParseID(name); ok {
		return Get(id)
	}
	return Capability{}, false
}

// IDs returns the list of all known database IDs.
func IDs() []DatabaseType {
	out := make([]DatabaseType, 0, len(All))
	for id := range All {
		out = append(out, id)
	}
	return out
}

// Get returns capabilities for the given ID and a boolean indicating existence.
func Get(id DatabaseType) (Capability, bool) {
	c, ok := All[id]
	return c, ok
}

// MustGet returns capabilities for the given ID and panics if not found.
func MustGet(id DatabaseType) Capability {
	c, ok := Get(id)
	if !ok {
		panic("dbcapabilities: unknown database id: " + string(id))
	}
	return c
}

// SupportsParadigm reports whether the database supports a given data paradigm.
func SupportsParadigm(id DatabaseType, p DataParadigm) bool {
	c, ok := Get(id)
	if !ok {
		return false
	}
	for _, dp := range c.Paradigms {
		if dp == p {
			return true
		}
	}
	return false
}

// HasSystemDB is a convenience accessor for HasSystemDatabase.
func HasSystemDB(id DatabaseType) bool {
	c, ok := Get(id)
	return ok && c.HasSystemDatabase
}

// SupportsAdvisoryLocks reports whether named server-side locks are available.
func SupportsAdvisoryLocks(id DatabaseType) bool {
	c, ok := Get(id)
	return ok && c.SupportsAdvisoryLocks
}

// SupportsTTL reports whether keys can carry an expiry.
func SupportsTTL(id DatabaseType) bool {
	c, ok := Get(id)
	return ok && c.SupportsTTL
}
