package adapter

import (
	"errors"
	"fmt"

	"github.com/redbco/redb-facade/pkg/dbcapabilities"
)

// Standard adapter errors
var (
	// ErrConnectionFailed is returned when a connection attempt fails
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNotConnected is returned when an operation needs a session and the adapter has none
	ErrNotConnected = errors.New("not connected")

	// ErrInvalidState is returned when an operation targets state that is unset, closed or released
	ErrInvalidState = errors.New("invalid state")

	// ErrPreparationFailed is returned when the backend refuses to compile a statement
	ErrPreparationFailed = errors.New("statement preparation failed")

	// ErrInvalidBinding is returned when bound values do not match their type string
	ErrInvalidBinding = errors.New("invalid binding")

	// ErrInvalidConfiguration is returned when the configuration is invalid
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrAdapterNotFound is returned when an adapter is not registered
	ErrAdapterNotFound = errors.New("adapter not found")

	// ErrLockFailed is returned when the backend answers a lock request with neither success nor timeout
	ErrLockFailed = errors.New("lock request failed")
)

// DatabaseError wraps database-specific errors with additional context.
// This provides a consistent error structure across all database types.
type DatabaseError struct {
	DatabaseType dbcapabilities.DatabaseType
	Operation    string
	Cause        error
	Context      map[string]interface{}
}

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	if len(e.Context) > 0 {
		return fmt.Sprintf("[%s] %s: %v (context: %v)", e.DatabaseType, e.Operation, e.Cause, e.Context)
	}
	return fmt.Sprintf("[%s] %s: %v", e.DatabaseType, e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

// NewDatabaseError creates a new DatabaseError.
func NewDatabaseError(dbType dbcapabilities.DatabaseType, operation string, cause error) *DatabaseError {
	return &DatabaseError{
		DatabaseType: dbType,
		Operation:    operation,
		Cause:        cause,
		Context:      make(map[string]interface{}),
	}
}

// WithContext adds context to a DatabaseError.
func (e *DatabaseError) WithContext(key string, value interface{}) *DatabaseError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ConnectionError is returned when a connection error occurs.
type ConnectionError struct {
	DatabaseType dbcapabilities.DatabaseType
	Host         string
	Port         int
	Cause        error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Port > 0 {
		return fmt.Sprintf("failed to connect to %s at %s:%d: %v", e.DatabaseType, e.Host, e.Port, e.Cause)
	}
	return fmt.Sprintf("failed to connect to %s at %s: %v", e.DatabaseType, e.Host, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrConnectionFailed.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(dbType dbcapabilities.DatabaseType, host string, port int, cause error) *ConnectionError {
	return &ConnectionError{
		DatabaseType: dbType,
		Host:         host,
		Port:         port,
		Cause:        cause,
	}
}

// PreparationError is returned when a statement cannot be compiled.
type PreparationError struct {
	DatabaseType dbcapabilities.DatabaseType
	Name         string
	Query        string
	Cause        error
}

// Error implements the error interface.
func (e *PreparationError) Error() string {
	return fmt.Sprintf("[%s] prepare %q: %v", e.DatabaseType, e.Name, e.Cause)
}

// Unwrap returns the underlying error.
func (e *PreparationError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrPreparationFailed.
func (e *PreparationError) Is(target error) bool {
	return target == ErrPreparationFailed
}

// NewPreparationError creates a new PreparationError.
func NewPreparationError(dbType dbcapabilities.DatabaseType, name, query string, cause error) *PreparationError {
	return &PreparationError{
		DatabaseType: dbType,
		Name:         name,
		Query:        query,
		Cause:        cause,
	}
}

// InvalidStateError is returned when an operation is attempted against state that
// does not exist: no session, an unknown statement name, a released result set.
type InvalidStateError struct {
	DatabaseType dbcapabilities.DatabaseType
	Operation    string
	Reason       string
	notConnected bool
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("[%s] %s: invalid state: %s", e.DatabaseType, e.Operation, e.Reason)
}

// Is matches ErrInvalidState, and ErrNotConnected when the adapter had no session.
func (e *InvalidStateError) Is(target error) bool {
	if target == ErrInvalidState {
		return true
	}
	return e.notConnected && target == ErrNotConnected
}

// NewInvalidStateError creates a new InvalidStateError.
func NewInvalidStateError(dbType dbcapabilities.DatabaseType, operation, reason string) *InvalidStateError {
	return &InvalidStateError{
		DatabaseType: dbType,
		Operation:    operation,
		Reason:       reason,
	}
}

// NewNotConnectedError creates an InvalidStateError that also matches ErrNotConnected.
func NewNotConnectedError(dbType dbcapabilities.DatabaseType, operation string) *InvalidStateError {
	return &InvalidStateError{
		DatabaseType: dbType,
		Operation:    operation,
		Reason:       "not connected",
		notConnected: true,
	}
}

// BindError is returned when values cannot be bound to a prepared statement.
type BindError struct {
	DatabaseType dbcapabilities.DatabaseType
	Statement    string
	Types        string
	Position     int // -1 when the error concerns the whole binding
	Reason       string
}

// Error implements the error interface.
func (e *BindError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("[%s] bind %q (types %q) at position %d: %s", e.DatabaseType, e.Statement, e.Types, e.Position, e.Reason)
	}
	return fmt.Sprintf("[%s] bind %q (types %q): %s", e.DatabaseType, e.Statement, e.Types, e.Reason)
}

// Is checks if the error is ErrInvalidBinding.
func (e *BindError) Is(target error) bool {
	return target == ErrInvalidBinding
}

// NewBindError creates a new BindError.
func NewBindError(dbType dbcapabilities.DatabaseType, statement, types string, position int, reason string) *BindError {
	return &BindError{
		DatabaseType: dbType,
		Statement:    statement,
		Types:        types,
		Position:     position,
		Reason:       reason,
	}
}

// ConfigurationError is returned when a configuration error occurs.
type ConfigurationError struct {
	DatabaseType dbcapabilities.DatabaseType
	Field        string
	Reason       string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for %s: field '%s': %s", e.DatabaseType, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration for %s: %s", e.DatabaseType, e.Reason)
}

// Is checks if the error is ErrInvalidConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(dbType dbcapabilities.DatabaseType, field string, reason string) *ConfigurationError {
	return &ConfigurationError{
		DatabaseType: dbType,
		Field:        field,
		Reason:       reason,
	}
}

// WrapError wraps an error with database context.
// Errors that already carry adapter context are returned as-is.
func WrapError(dbType dbcapabilities.DatabaseType, operation string, err error) error {
	if err == nil {
		return nil
	}

	var (
		dbErr    *DatabaseError
		connErr  *ConnectionError
		prepErr  *PreparationError
		stateErr *InvalidStateError
		bindErr  *BindError
		confErr  *ConfigurationError
	)
	if errors.As(err, &dbErr) || errors.As(err, &connErr) || errors.As(err, &prepErr) ||
		errors.As(err, &stateErr) || errors.As(err, &bindErr) || errors.As(err, &confErr) {
		return err
	}

	return NewDatabaseError(dbType, operation, err)
}

// IsConnectionError checks if an error is a connection error.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsNotConnected checks if an error was caused by a missing session.
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

// IsInvalidState checks if an error is an invalid state error.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsPreparationError checks if an error is a statement preparation error.
func IsPreparationError(err error) bool {
	return errors.Is(err, ErrPreparationFailed)
}

// IsBindError checks if an error is a binding error.
func IsBindError(err error) bool {
	return errors.Is(err, ErrInvalidBinding)
}

// IsConfigurationError checks if an error is a configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}
