package dbclient

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"datafill/internal/domain"
	"datafill/internal/etl/sources"
	"datafill/internal/secret"
)

// ErrUnknownConnection is returned for a connection name not configured.
var ErrUnknownConnection = errors.New("unknown connection")

// Pool opens readers for named connections on first use and keeps them
// until Close. It is the provider behind the "database" import source.
type Pool struct {
	conns   map[string]domain.DatabaseConnection
	secrets secret.SecretStore
	open    func(*domain.DatabaseConnection, string) (Reader, error)

	mu      sync.Mutex
	readers map[string]Reader
}

// NewPool creates a pool over conns. secrets may be nil when no
// connection needs a password.
func NewPool(conns []domain.DatabaseConnection, secrets secret.SecretStore) *Pool {
	p := &Pool{
		conns:   make(map[string]domain.DatabaseConnection, len(conns)),
		secrets: secrets,
		open:    NewReader,
		readers: make(map[string]Reader),
	}
	for _, c := range conns {
		p.conns[c.Name] = c
	}
	return p
}

func (p *Pool) reader(name string) (Reader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.readers[name]; ok {
		return r, nil
	}
	conn, ok := p.conns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConnection, name)
	}

	var password string
	if conn.SecretKey != "" && p.secrets != nil {
		pw, err := p.secrets.Get(conn.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("password for %s: %w", name, err)
		}
		password = string(pw)
	}

	r, err := p.open(&conn, password)
	if err != nil {
		return nil, err
	}
	p.readers[name] = r
	return r, nil
}

// Test verifies that the named connection is reachable.
func (p *Pool) Test(ctx context.Context, name string) error {
	r, err := p.reader(name)
	if err != nil {
		return err
	}
	return r.TestConnection(ctx)
}

// QueryRecords implements sources.DBProvider.
func (p *Pool) QueryRecords(ctx context.Context, connName, query string, limit int) (*sources.QueryPage, error) {
	r, err := p.reader(connName)
	if err != nil {
		return nil, err
	}
	page, err := r.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return &sources.QueryPage{Columns: page.Columns, Rows: page.Rows}, nil
}

// Close closes every opened reader.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for name, r := range p.readers {
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(p.readers, name)
	}
	return errors.Join(errs...)
}
