package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datafill/internal/document"
)

const badgeDoc = `{
  "name": "Badge",
  "document": {"id": "0:0", "name": "Document", "type": "DOCUMENT", "children": [
    {"id": "0:1", "name": "Page", "type": "PAGE", "children": [
      {"id": "1:0", "name": "Badge", "type": "FRAME", "children": [
        {"id": "1:1", "name": "name", "type": "TEXT"},
        {"id": "1:2", "name": "phone", "type": "TEXT"}
      ]}
    ]}
  ]}
}`

type workspace struct {
	dir    string
	config string
	doc    string
	data   string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{
		dir:    dir,
		config: filepath.Join(dir, "config.yaml"),
		doc:    filepath.Join(dir, "badge.json"),
		data:   filepath.Join(dir, "people.json"),
	}
	cfg := "data_dir: " + dir + "\nlocale: en\n"
	require.NoError(t, os.WriteFile(ws.config, []byte(cfg), 0o644))
	require.NoError(t, os.WriteFile(ws.doc, []byte(badgeDoc), 0o644))
	require.NoError(t, os.WriteFile(ws.data,
		[]byte(`[{"name":"An","phone":"0912345678"},{"name":"Binh","phone":"0987654321"}]`), 0o644))
	return ws
}

// run executes one command line on a fresh CLI and returns stdout.
func run(t *testing.T, ws workspace, args ...string) (string, error) {
	t.Helper()
	c := New("test")
	var out bytes.Buffer
	c.rootCmd.SetOut(&out)
	c.rootCmd.SetErr(&out)
	c.rootCmd.SetArgs(append(args, "--config", ws.config, "--silent"))
	err := c.rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFill_WritesOutput(t *testing.T) {
	ws := newWorkspace(t)
	outPath := filepath.Join(ws.dir, "out.json")

	stdout, err := run(t, ws, "fill", ws.doc, "--data", ws.data, "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 record(s), 2 element(s) filled, 0 failed")

	doc, err := document.Load(outPath)
	require.NoError(t, err)
	var got []string
	for _, n := range doc.TextNodes() {
		got = append(got, n.Characters)
	}
	assert.Equal(t, []string{"An", "0912345678"}, got)
}

func TestFill_DryRunLeavesDocument(t *testing.T) {
	ws := newWorkspace(t)

	_, err := run(t, ws, "fill", ws.doc, "--data", ws.data, "--dry-run")
	require.NoError(t, err)

	raw, err := os.ReadFile(ws.doc)
	require.NoError(t, err)
	assert.Equal(t, badgeDoc, string(raw))
}

func TestFill_NeedsInput(t *testing.T) {
	ws := newWorkspace(t)
	_, err := run(t, ws, "fill", ws.doc)
	assert.ErrorContains(t, err, "--data or --source is required")
}

func TestFill_RejectsUnknownMode(t *testing.T) {
	ws := newWorkspace(t)
	_, err := run(t, ws, "fill", ws.doc, "--data", ws.data, "--mode", "itrate")
	assert.ErrorContains(t, err, "unknown mode")

	raw, err := os.ReadFile(ws.doc)
	require.NoError(t, err)
	assert.Equal(t, badgeDoc, string(raw))
}

func TestSetFieldThenFill(t *testing.T) {
	ws := newWorkspace(t)

	// The schema only exists after a first commit.
	_, err := run(t, ws, "fill", ws.doc, "--data", ws.data, "--dry-run")
	require.NoError(t, err)

	_, err = run(t, ws, "set-field", "phone", "--mark", "HIDE_PHONE_MARK")
	require.NoError(t, err)
	_, err = run(t, ws, "set-field", "name", "--suffix", "(guest)")
	require.NoError(t, err)

	stdout, err := run(t, ws, "schema")
	require.NoError(t, err)
	assert.Contains(t, stdout, "HIDE_PHONE_MARK")
	assert.Contains(t, stdout, "(guest)")

	_, err = run(t, ws, "fill", ws.doc, "--data", ws.data)
	require.NoError(t, err)
	doc, err := document.Load(ws.doc)
	require.NoError(t, err)
	var got []string
	for _, n := range doc.TextNodes() {
		got = append(got, n.Characters)
	}
	assert.Equal(t, []string{"An (guest)", "0912***678"}, got)

	stdout, err = run(t, ws, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "success")
}

func TestSetField_Errors(t *testing.T) {
	ws := newWorkspace(t)

	_, err := run(t, ws, "set-field", "phone")
	assert.ErrorContains(t, err, "--suffix or --mark is required")

	_, err = run(t, ws, "set-field", "phone", "--suffix", "x")
	assert.ErrorContains(t, err, "unknown field")
}

func TestMasks(t *testing.T) {
	ws := newWorkspace(t)
	stdout, err := run(t, ws, "masks")
	require.NoError(t, err)
	assert.Contains(t, stdout, "HIDE_PHONE_MARK")
}

func TestWatch_NoJobs(t *testing.T) {
	ws := newWorkspace(t)
	_, err := run(t, ws, "watch", "--once")
	assert.ErrorContains(t, err, "no jobs configured")
}
