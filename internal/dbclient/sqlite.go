package dbclient

import (
	"datafill/internal/domain"

	_ "modernc.org/sqlite"
)

// newSQLiteReader opens an external SQLite file read-only.
func newSQLiteReader(conn *domain.DatabaseConnection) (*sqlReader, error) {
	dsn := "file:" + conn.Host + "?mode=ro&_pragma=busy_timeout(5000)"
	return newSQLReader("sqlite", dsn)
}
