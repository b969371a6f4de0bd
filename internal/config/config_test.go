package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datafill/internal/binding"
	"datafill/internal/domain"
)

const sampleConfig = `
data_dir: /var/lib/datafill
locale: vi
font_dirs: [/usr/share/fonts]
connections:
  - name: crm
    driver: postgres
    host: db.internal
    database: crm
    username: reader
    secret_key: crm-pg
jobs:
  - name: badges
    data_file: people.json
    document: badges.json
    selection: [Card]
    mode: direct
    watch: true
  - source: database
    source_config:
      connection: crm
      query: SELECT name, phone FROM people
    document: roster.json
    schedule: "@hourly"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/datafill/datafill.db", cfg.DBPath)
	assert.Equal(t, "iterate", cfg.Mode)
	assert.Equal(t, "vi", cfg.Locale)
	require.Len(t, cfg.Connections, 1)
	assert.Equal(t, domain.DatabaseDriverPostgres, cfg.Connections[0].Driver)

	jobs := cfg.WatchJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, binding.ModeDirect, jobs[0].Mode)
	assert.True(t, jobs[0].Watch)
	assert.Equal(t, "job-2", jobs[1].Name)
	assert.Equal(t, binding.ModeIterate, jobs[1].Mode)
	assert.Equal(t, "crm", jobs[1].SourceConfig["connection"])
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad mode":       "mode: sideways\n",
		"job no input":   "jobs:\n  - document: a.json\n",
		"watch no file":  "jobs:\n  - source: http\n    document: a.json\n    watch: true\n",
		"dup connection": "connections:\n  - name: a\n  - name: a\n",
		"not yaml":       "jobs: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
