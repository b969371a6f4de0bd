package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datafill/internal/domain"
	"datafill/internal/etl"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "datafill.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSettingsStore_SchemaRoundTrip(t *testing.T) {
	store := NewSettingsStore(openTestDB(t))

	got, err := store.LoadSchema("datafill.schema")
	require.NoError(t, err)
	assert.Nil(t, got, "missing key is not an error")

	schema := &etl.Schema{Fields: []etl.Field{
		{Key: "name", Suffix: "Jr.", Mark: etl.MarkUnset},
		{Key: "phone", Mark: etl.MarkHidePhone},
	}}
	require.NoError(t, store.SaveSchema("datafill.schema", schema))

	got, err = store.LoadSchema("datafill.schema")
	require.NoError(t, err)
	assert.Equal(t, schema, got)

	schema.Fields[0].Suffix = "Sr."
	require.NoError(t, store.SaveSchema("datafill.schema", schema))
	got, err = store.LoadSchema("datafill.schema")
	require.NoError(t, err)
	assert.Equal(t, "Sr.", got.Fields[0].Suffix)
}

func TestSettingsStore_GetMissing(t *testing.T) {
	store := NewSettingsStore(openTestDB(t))
	_, err := store.Get("absent")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSettingsStore_CorruptSchema(t *testing.T) {
	store := NewSettingsStore(openTestDB(t))
	require.NoError(t, store.Set("k", "{not json"))
	_, err := store.LoadSchema("k")
	assert.Error(t, err)
}

func TestCommitStore(t *testing.T) {
	store := NewCommitStore(openTestDB(t))
	base := time.Now().Add(-time.Hour)

	for i, status := range []domain.CommitStatus{domain.CommitSuccess, domain.CommitError, domain.CommitSuccess} {
		run := &domain.CommitRun{
			Document:   "badges.json",
			Mode:       "iterate",
			Records:    2,
			Bound:      i,
			Status:     status,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + time.Second),
		}
		require.NoError(t, store.CreateRun(run))
		assert.NotEmpty(t, run.ID)
	}

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Bound, "newest first")
	assert.Equal(t, domain.CommitError, runs[1].Status)
}
