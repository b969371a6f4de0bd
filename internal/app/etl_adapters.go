package app

// ─────────────────────────────────────────────────────────────
// Import source adapters
// ─────────────────────────────────────────────────────────────
//
// The etl/sources package reaches app infrastructure through injected
// interfaces so it does not import dbclient or secret directly.

import (
	"datafill/internal/config"
	"datafill/internal/dbclient"
	"datafill/internal/etl/sources"
	"datafill/internal/secret"
)

// secretStore resolves connection passwords: environment first, then the
// macOS keychain.
func secretStore() secret.SecretStore {
	return secret.Chain{secret.EnvStore{}, secret.NewKeychainStore()}
}

// setupImportSources builds the connection pool behind the "database"
// source and registers it.
func setupImportSources(cfg *config.Config) *dbclient.Pool {
	pool := dbclient.NewPool(cfg.Connections, secretStore())
	sources.SetDBProvider(pool)
	return pool
}

func teardownImportSources(pool *dbclient.Pool) error {
	sources.SetDBProvider(nil)
	return pool.Close()
}
