package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// sqlReader is the shared implementation for MySQL, Postgres, and SQLite.
type sqlReader struct {
	driverName string
	db         *sql.DB
}

func newSQLReader(driverName, dsn string) (*sqlReader, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)

	return &sqlReader{driverName: driverName, db: db}, nil
}

func (c *sqlReader) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.db.PingContext(ctx)
}

// isReadQuery detects if a query is a read (SELECT, WITH, SHOW, DESCRIBE, EXPLAIN, PRAGMA).
func isReadQuery(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"SELECT", "WITH", "SHOW", "DESCRIBE", "EXPLAIN", "PRAGMA"} {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}

func (c *sqlReader) Query(ctx context.Context, query string, limit int) (*QueryPage, error) {
	if !isReadQuery(query) {
		return nil, ErrWriteQuery
	}
	if limit <= 0 {
		limit = 500
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Read-only transaction so a WITH … DELETE cannot slip through.
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: c.driverName != "sqlite"})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	page := &QueryPage{Columns: cols}
	for rows.Next() {
		if len(page.Rows) == limit {
			page.Truncated = true
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for j := range values {
			ptrs[j] = &values[j]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make([]any, len(cols))
		for j, v := range values {
			row[j] = formatValue(v)
		}
		page.Rows = append(page.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return page, nil
}

// formatValue converts a database value to something JSON can carry.
func formatValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return val
	}
}

func (c *sqlReader) Close() error {
	return c.db.Close()
}
