package sources

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cast"

	"datafill/internal/etl"
)

// ── Database Source ────────────────────────────────────────
// Reads records from a named external database connection.
// The connector lives in dbclient; the app injects a provider at startup
// so this package does not import it.

// QueryPage mirrors dbclient.QueryPage to avoid circular imports.
type QueryPage struct {
	Columns []string
	Rows    [][]any
}

// DBProvider runs a read query against a configured connection.
type DBProvider interface {
	QueryRecords(ctx context.Context, connName, query string, limit int) (*QueryPage, error)
}

var (
	providerMu sync.RWMutex
	dbProvider DBProvider
)

// SetDBProvider is called by the app at startup.
func SetDBProvider(p DBProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	dbProvider = p
}

const defaultQueryLimit = 500

type databaseSource struct{}

func init() { etl.RegisterSource(&databaseSource{}) }

func (s *databaseSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "database",
		Label: "Database Query",
		ConfigFields: []etl.ConfigField{
			{Key: "connection", Label: "Connection", Type: "string", Required: true, Help: "Name of a connection from the config file"},
			{Key: "query", Label: "Query", Type: "textarea", Required: true, Help: "SQL SELECT, or a JSON find for MongoDB"},
			{Key: "limit", Label: "Limit", Type: "string", Required: false, Default: "500"},
		},
	}
}

func (s *databaseSource) Fetch(ctx context.Context, cfg etl.SourceConfig) ([]byte, error) {
	connName, _ := cfg["connection"].(string)
	query, _ := cfg["query"].(string)
	if connName == "" || query == "" {
		return nil, fmt.Errorf("connection and query are required")
	}
	limit := defaultQueryLimit
	if n := cast.ToInt(cfg["limit"]); n > 0 {
		limit = n
	}

	providerMu.RLock()
	p := dbProvider
	providerMu.RUnlock()
	if p == nil {
		return nil, fmt.Errorf("database provider not initialized")
	}

	page, err := p.QueryRecords(ctx, connName, query, limit)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	return encodeRows(page.Columns, page.Rows)
}
