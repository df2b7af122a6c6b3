package mysql

import (
	"database/sql"
	"fmt"

	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
)

// ResultSet is a fully buffered set of rows with a read cursor.
// It must be released with FreeResult.
type ResultSet struct {
	columns []string
	rows    []map[string]interface{}
	pos     int
	freed   bool
}

// Columns returns the column names in select order.
func (rs *ResultSet) Columns() []string {
	if rs == nil {
		return nil
	}
	return append([]string(nil), rs.columns...)
}

func (rs *ResultSet) release() {
	rs.freed = true
	rs.rows = nil
	rs.columns = nil
}

func (rs *ResultSet) valid() bool {
	return rs != nil && !rs.freed
}

// scanRows buffers all rows and closes them.
func scanRows(rows *sql.Rows) (*ResultSet, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error reading columns: %w", err)
	}

	rs := &ResultSet{columns: columns, rows: make([]map[string]interface{}, 0)}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("error scanning row %d: %w", len(rs.rows)+1, err)
		}

		rowMap := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			// Convert bytes to string for text types
			switch v := values[i].(type) {
			case []byte:
				rowMap[col] = string(v)
			default:
				rowMap[col] = v
			}
		}
		rs.rows = append(rs.rows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return rs, nil
}

func (a *Adapter) track(rs *ResultSet) *ResultSet {
	a.results[rs] = struct{}{}
	return rs
}

// FetchRow returns the next row, or nil when the rows are exhausted.
func (a *Adapter) FetchRow(rs *ResultSet) (map[string]interface{}, error) {
	if !rs.valid() {
		return nil, adapter.NewInvalidStateError(dbcapabilities.MySQL, "fetch row", "result set is nil or already freed")
	}
	if rs.pos >= len(rs.rows) {
		return nil, nil
	}
	row := rs.rows[rs.pos]
	rs.pos++
	return row, nil
}

// FreeResult releases a result set. Freeing it twice is an error.
func (a *Adapter) FreeResult(rs *ResultSet) error {
	if !rs.valid() {
		return adapter.NewInvalidStateError(dbcapabilities.MySQL, "free result", "result set is nil or already freed")
	}
	rs.release()
	delete(a.results, rs)
	return nil
}

// CountRows returns the number of rows in a result set.
func (a *Adapter) CountRows(rs *ResultSet) (int, error) {
	if !rs.valid() {
		return 0, adapter.NewInvalidStateError(dbcapabilities.MySQL, "count rows", "result set is nil or already freed")
	}
	return len(rs.rows), nil
}
