package dbclient

import (
	"context"
	"errors"
	"fmt"

	"datafill/internal/domain"
)

// ErrWriteQuery is returned when a query would modify the database.
var ErrWriteQuery = errors.New("only read queries can be imported")

// QueryPage is the result of a read query.
type QueryPage struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	// Truncated is set when the limit cut the result short.
	Truncated bool `json:"truncated"`
}

// Reader runs read-only queries against an external database.
type Reader interface {
	// TestConnection verifies connectivity.
	TestConnection(ctx context.Context) error

	// Query runs query and returns at most limit rows. Columns keep the
	// order the database reports them in.
	Query(ctx context.Context, query string, limit int) (*QueryPage, error)

	// Close releases the connection.
	Close() error
}

// NewReader creates a Reader for the given connection.
// The password must be provided separately (from SecretStore).
func NewReader(conn *domain.DatabaseConnection, password string) (Reader, error) {
	switch conn.Driver {
	case domain.DatabaseDriverSQLite:
		return newSQLiteReader(conn)
	case domain.DatabaseDriverMySQL:
		return newSQLReader("mysql", mysqlDSN(conn, password))
	case domain.DatabaseDriverPostgres:
		return newSQLReader("postgres", postgresDSN(conn, password))
	case domain.DatabaseDriverMongoDB:
		return newMongoReader(conn, password)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", conn.Driver)
	}
}

func portOr(port, def int) int {
	if port == 0 {
		return def
	}
	return port
}
