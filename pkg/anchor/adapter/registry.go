package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/redbco/redb-facade/pkg/dbcapabilities"
	"github.com/redbco/redb-facade/pkg/logger"
)

// Registry manages the registration and construction of database adapters.
type Registry struct {
	factories map[dbcapabilities.DatabaseType]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a new adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[dbcapabilities.DatabaseType]Factory),
	}
}

// Register registers an adapter factory for a database type.
// If a factory for the same database type is already registered, it will be replaced.
func (r *Registry) Register(dbType dbcapabilities.DatabaseType, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[dbType] = factory
}

// Get retrieves a registered factory by database type.
// Returns ErrAdapterNotFound if no factory is registered.
func (r *Registry) Get(dbType dbcapabilities.DatabaseType) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[dbType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrAdapterNotFound, dbType)
	}

	return factory, nil
}

// New constructs an unconnected adapter by database name or alias.
func (r *Registry) New(name string, log *logger.Logger) (Connector, error) {
	dbType, ok := dbcapabilities.ParseID(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown database type '%s'", ErrAdapterNotFound, name)
	}

	factory, err := r.Get(dbType)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	return factory(log), nil
}

// IsRegistered checks if a factory is registered for the given database type.
func (r *Registry) IsRegistered(dbType dbcapabilities.DatabaseType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[dbType]
	return exists
}

// ListRegistered returns all registered database types in name order.
func (r *Registry) ListRegistered() []dbcapabilities.DatabaseType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]dbcapabilities.DatabaseType, 0, len(r.factories))
	for dbType := range r.factories {
		types = append(types, dbType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Unregister removes a factory from the registry.
func (r *Registry) Unregister(dbType dbcapabilities.DatabaseType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.factories, dbType)
}

// Connect constructs an adapter for config.ConnectionType and connects it.
// The adapter is returned connected; the caller owns it and must Close it.
func (r *Registry) Connect(ctx context.Context, config ConnectionConfig, log *logger.Logger) (Connector, error) {
	conn, err := r.New(config.ConnectionType, log)
	if err != nil {
		if _, ok := dbcapabilities.ParseID(config.ConnectionType); !ok {
			return nil, NewConfigurationError(
				dbcapabilities.DatabaseType(config.ConnectionType),
				"connectionType",
				fmt.Sprintf("unknown database type: %s", config.ConnectionType),
			)
		}
		return nil, err
	}

	if _, err := conn.ConnectWithConfig(ctx, config); err != nil {
		return nil, WrapError(conn.Type(), "connect", err)
	}

	return conn, nil
}

// GetCapabilities returns the capabilities for a registered database type.
func (r *Registry) GetCapabilities(dbType dbcapabilities.DatabaseType) (dbcapabilities.Capability, error) {
	if !r.IsRegistered(dbType) {
		return dbcapabilities.Capability{}, fmt.Errorf("%w: %s", ErrAdapterNotFound, dbType)
	}
	return dbcapabilities.MustGet(dbType), nil
}

// globalRegistry is the default global adapter registry.
var globalRegistry = NewRegistry()

// Register registers a factory in the global registry.
func Register(dbType dbcapabilities.DatabaseType, factory Factory) {
	globalRegistry.Register(dbType, factory)
}

// New constructs an adapter from the global registry.
func New(name string, log *logger.Logger) (Connector, error) {
	return globalRegistry.New(name, log)
}

// Connect constructs and connects an adapter from the global registry.
func Connect(ctx context.Context, config ConnectionConfig, log *logger.Logger) (Connector, error) {
	return globalRegistry.Connect(ctx, config, log)
}

// IsRegistered checks if a factory is registered in the global registry.
func IsRegistered(dbType dbcapabilities.DatabaseType) bool {
	return globalRegistry.IsRegistered(dbType)
}

// ListRegistered returns all registered database types from the global registry.
func ListRegistered() []dbcapabilities.DatabaseType {
	return globalRegistry.ListRegistered()
}

// GlobalRegistry returns the global adapter registry.
func GlobalRegistry() *Registry {
	return globalRegistry
}
