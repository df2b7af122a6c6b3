package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"

	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
)

type statement struct {
	name         string
	query        string
	stmt         *sql.Stmt
	rowProducing bool
	types        string
	args         []interface{}
	affected     int64
	hasAffected  bool
}

// Statement is a read-only view of a prepared statement.
type Statement struct {
	Name         string
	Query        string
	RowProducing bool
	Types        string
	BoundArgs    int
}

// Prepare compiles query under name. A statement already prepared under the
// same name is closed and replaced once the new one compiles.
func (a *Adapter) Prepare(ctx context.Context, name, query string) error {
	if a.conn == nil {
		return adapter.NewNotConnectedError(dbcapabilities.MySQL, "prepare")
	}

	stmt, err := a.conn.PrepareContext(ctx, query)
	if err != nil {
		a.logger.Error("Failed to prepare statement %s: %v", name, err)
		return adapter.NewPreparationError(dbcapabilities.MySQL, name, query, err)
	}

	if prev, ok := a.statements[name]; ok {
		if err := prev.stmt.Close(); err != nil {
			a.logger.Warn("Failed to close replaced statement %s: %v", name, err)
		}
	}

	a.statements[name] = &statement{
		name:         name,
		query:        query,
		stmt:         stmt,
		rowProducing: isRowProducing(query),
	}
	a.logger.Debug("Prepared statement %s", name)
	return nil
}

// Bind attaches values to a prepared statement. types holds one code per
// value: i (integer), d (double), s (string) or b (blob).
func (a *Adapter) Bind(name, types string, values ...interface{}) error {
	s, err := a.lookup("bind", name)
	if err != nil {
		return err
	}

	if len(types) != len(values) {
		return adapter.NewBindError(dbcapabilities.MySQL, name, types, -1,
			fmt.Sprintf("%d type codes for %d values", len(types), len(values)))
	}

	args := make([]interface{}, len(values))
	for i := 0; i < len(types); i++ {
		v, err := convertBinding(types[i], values[i])
		if err != nil {
			return adapter.NewBindError(dbcapabilities.MySQL, name, types, i, err.Error())
		}
		args[i] = v
	}

	s.types = types
	s.args = args
	return nil
}

// Execute runs a prepared statement with its bound values. Row-producing
// statements return a buffered ResultSet; other statements return nil and
// record their affected row count.
func (a *Adapter) Execute(ctx context.Context, name string) (*ResultSet, error) {
	s, err := a.lookup("execute", name)
	if err != nil {
		return nil, err
	}

	stmt := s.stmt
	if a.tx != nil {
		stmt = a.tx.StmtContext(ctx, s.stmt)
	}

	if s.rowProducing {
		rows, err := stmt.QueryContext(ctx, s.args...)
		if err != nil {
			return nil, adapter.NewDatabaseError(dbcapabilities.MySQL, "execute", err).WithContext("statement", name)
		}
		rs, err := scanRows(rows)
		if err != nil {
			return nil, adapter.NewDatabaseError(dbcapabilities.MySQL, "execute", err).WithContext("statement", name)
		}
		s.hasAffected = false
		return a.track(rs), nil
	}

	res, err := stmt.ExecContext(ctx, s.args...)
	if err != nil {
		return nil, adapter.NewDatabaseError(dbcapabilities.MySQL, "execute", err).WithContext("statement", name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, adapter.NewDatabaseError(dbcapabilities.MySQL, "execute", err).WithContext("statement", name)
	}
	s.affected = n
	s.hasAffected = true
	return nil, nil
}

// Statement returns a view of the statement prepared under name.
func (a *Adapter) Statement(name string) (*Statement, error) {
	s, err := a.lookup("statement", name)
	if err != nil {
		return nil, err
	}
	return &Statement{
		Name:         s.name,
		Query:        s.query,
		RowProducing: s.rowProducing,
		Types:        s.types,
		BoundArgs:    len(s.args),
	}, nil
}

// AffectedRows returns the rows changed by the last execution of name.
// ok is false until the statement has executed a non row-producing statement.
func (a *Adapter) AffectedRows(name string) (int64, bool, error) {
	s, err := a.lookup("affected rows", name)
	if err != nil {
		return 0, false, err
	}
	return s.affected, s.hasAffected, nil
}

// Query runs raw directly, without preparing a named statement.
// It returns nil for statements that produce no rows.
func (a *Adapter) Query(ctx context.Context, raw string, args ...interface{}) (*ResultSet, error) {
	if a.conn == nil {
		return nil, adapter.NewNotConnectedError(dbcapabilities.MySQL, "query")
	}

	if isRowProducing(raw) {
		rows, err := a.execer().QueryContext(ctx, raw, args...)
		if err != nil {
			return nil, adapter.NewDatabaseError(dbcapabilities.MySQL, "query", err)
		}
		rs, err := scanRows(rows)
		if err != nil {
			return nil, adapter.NewDatabaseError(dbcapabilities.MySQL, "query", err)
		}
		return a.track(rs), nil
	}

	if _, err := a.execer().ExecContext(ctx, raw, args...); err != nil {
		return nil, adapter.NewDatabaseError(dbcapabilities.MySQL, "query", err)
	}
	return nil, nil
}

func (a *Adapter) lookup(op, name string) (*statement, error) {
	if a.conn == nil {
		return nil, adapter.NewNotConnectedError(dbcapabilities.MySQL, op)
	}
	s, ok := a.statements[name]
	if !ok {
		return nil, adapter.NewInvalidStateError(dbcapabilities.MySQL, op, fmt.Sprintf("no statement prepared as %q", name))
	}
	return s, nil
}

// convertBinding converts v to the driver type selected by code. nil binds NULL.
func convertBinding(code byte, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	switch code {
	case 'i':
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int8:
			return int64(n), nil
		case int16:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case uint:
			return uintToInt64(uint64(n))
		case uint8:
			return int64(n), nil
		case uint16:
			return int64(n), nil
		case uint32:
			return int64(n), nil
		case uint64:
			return uintToInt64(n)
		case bool:
			if n {
				return int64(1), nil
			}
			return int64(0), nil
		case string:
			i, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not an integer", n)
			}
			return i, nil
		}
	case 'd':
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			i, err := convertBinding('i', n)
			if err != nil {
				return nil, err
			}
			return float64(i.(int64)), nil
		case string:
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a number", n)
			}
			return f, nil
		}
	case 's':
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		case fmt.Stringer:
			return s.String(), nil
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
			return fmt.Sprint(s), nil
		}
	case 'b':
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			return []byte(b), nil
		}
	default:
		return nil, fmt.Errorf("unknown type code %q", code)
	}

	return nil, fmt.Errorf("cannot bind %T as %q", v, code)
}

func uintToInt64(u uint64) (interface{}, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("%d overflows a signed 64-bit integer", u)
	}
	return int64(u), nil
}
