package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datafill/internal/document"
	"datafill/internal/service"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatchService_RunJob(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	data := filepath.Join(dir, "people.json")
	docPath := filepath.Join(dir, "cards.json")
	outPath := filepath.Join(dir, "cards.out.json")
	writeFile(t, data, `[{"name":"A"},{"name":"B"}]`)
	writeFile(t, docPath, cardsDoc)

	f := newFixture(t, nil)
	w := service.NewWatchService(f.svc, nil)

	res, err := w.RunJob(ctx, service.WatchJob{
		Name:      "cards",
		DataFile:  data,
		Document:  docPath,
		Output:    outPath,
		Selection: []string{"Sheet"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Bound)

	out, err := document.Load(outPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "A", "B"}, texts(out, "name"))

	orig, err := document.Load(docPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", "", ""}, texts(orig, "name"), "input document untouched when Output is set")
}

func TestWatchService_RunJobNoInput(t *testing.T) {
	f := newFixture(t, nil)
	w := service.NewWatchService(f.svc, nil)
	_, err := w.RunJob(context.Background(), service.WatchJob{Name: "empty"})
	assert.ErrorIs(t, err, service.ErrNoInput)
}

func TestWatchService_InvalidSchedule(t *testing.T) {
	f := newFixture(t, nil)
	w := service.NewWatchService(f.svc, nil)
	defer w.Stop()

	err := w.Start(context.Background(), []service.WatchJob{{Name: "bad", Schedule: "every now and then"}})
	assert.Error(t, err)
}

func TestWatchService_RerunsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "people.json")
	docPath := filepath.Join(dir, "cards.json")
	writeFile(t, data, `[{"name":"A"}]`)
	writeFile(t, docPath, cardsDoc)

	f := newFixture(t, nil)
	w := service.NewWatchService(f.svc, nil)
	require.NoError(t, w.Start(context.Background(), []service.WatchJob{{
		Name:      "cards",
		DataFile:  data,
		Document:  docPath,
		Selection: []string{"Sheet"},
		Watch:     true,
	}}))
	defer w.Stop()

	writeFile(t, data, `[{"name":"Z"}]`)

	assert.Eventually(t, func() bool {
		doc, err := document.Load(docPath)
		if err != nil {
			return false
		}
		names := texts(doc, "name")
		return len(names) == 4 && names[0] == "Z"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatchService_StopIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	w := service.NewWatchService(f.svc, nil)
	w.Stop()
	w.Stop()
}
