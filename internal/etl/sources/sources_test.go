package sources_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datafill/internal/etl"
	"datafill/internal/etl/sources"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func values(t *testing.T, recs etl.Collection, key string) []string {
	t.Helper()
	var out []string
	for _, r := range recs {
		v, ok := r.String(key)
		require.True(t, ok, "record lacks %q", key)
		out = append(out, v)
	}
	return out
}

func TestJSONFile_DataPath(t *testing.T) {
	path := writeFile(t, "people.json", `{"data":{"items":[{"name":"An"},{"name":"Binh"}]}}`)

	res, err := etl.ImportFrom(context.Background(), "json_file", etl.SourceConfig{
		"filePath": path, "dataPath": "data.items",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"An", "Binh"}, values(t, res.Records, "name"))
}

func TestJSONFile_DataPathToScalar(t *testing.T) {
	path := writeFile(t, "people.json", `{"count":2}`)

	_, err := etl.ImportFrom(context.Background(), "json_file", etl.SourceConfig{
		"filePath": path, "dataPath": "count",
	})
	assert.ErrorContains(t, err, "want object or array")
}

func TestJSONFile_ObjectBecomesOneRecord(t *testing.T) {
	path := writeFile(t, "one.json", `{"name":"An"}`)

	res, err := etl.ImportFrom(context.Background(), "json_file", etl.SourceConfig{"filePath": path})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, etl.WarnNonArray, res.Warnings[0].Kind)
}

func TestCSVFile(t *testing.T) {
	path := writeFile(t, "people.csv", "name;phone\nAn;0912345678\nBinh;0987654321\n")

	res, err := etl.ImportFrom(context.Background(), "csv_file", etl.SourceConfig{
		"filePath": path, "delimiter": ";",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "phone"}, res.Records[0].Keys())
	assert.Equal(t, []string{"0912345678", "0987654321"}, values(t, res.Records, "phone"))
}

func TestCSVFile_NoHeader(t *testing.T) {
	path := writeFile(t, "people.csv", "An,0912345678\n")

	res, err := etl.ImportFrom(context.Background(), "csv_file", etl.SourceConfig{
		"filePath": path, "hasHeader": "false",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"col_1", "col_2"}, res.Records[0].Keys())
}

func TestHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer t" {
			http.Error(w, "denied", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"name":"An"}]}`))
	}))
	defer srv.Close()

	res, err := etl.ImportFrom(context.Background(), "http", etl.SourceConfig{
		"url": srv.URL, "headers": `{"Authorization":"Bearer t"}`, "dataPath": "results",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"An"}, values(t, res.Records, "name"))

	_, err = etl.ImportFrom(context.Background(), "http", etl.SourceConfig{"url": srv.URL})
	assert.ErrorContains(t, err, "http 401")
}

func TestHTTP_BodyCap(t *testing.T) {
	body := `[{"name":"An"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	restore := sources.SetMaxResponseBytes(int64(len(body)))
	_, err := etl.ImportFrom(context.Background(), "http", etl.SourceConfig{"url": srv.URL})
	require.NoError(t, err)
	restore()

	defer sources.SetMaxResponseBytes(int64(len(body) - 1))()
	_, err = etl.ImportFrom(context.Background(), "http", etl.SourceConfig{"url": srv.URL})
	assert.ErrorContains(t, err, "exceeds")
}

type fakeProvider struct {
	gotConn  string
	gotLimit int
}

func (p *fakeProvider) QueryRecords(_ context.Context, connName, _ string, limit int) (*sources.QueryPage, error) {
	p.gotConn, p.gotLimit = connName, limit
	return &sources.QueryPage{
		Columns: []string{"name", "age"},
		Rows:    [][]any{{"An", int64(30)}, {"Binh", nil}},
	}, nil
}

func TestDatabase(t *testing.T) {
	p := &fakeProvider{}
	sources.SetDBProvider(p)
	t.Cleanup(func() { sources.SetDBProvider(nil) })

	res, err := etl.ImportFrom(context.Background(), "database", etl.SourceConfig{
		"connection": "crm", "query": "SELECT name, age FROM people", "limit": "10",
	})
	require.NoError(t, err)
	assert.Equal(t, "crm", p.gotConn)
	assert.Equal(t, 10, p.gotLimit)
	require.Len(t, res.Records, 2)
	assert.Equal(t, []string{"name", "age"}, res.Records[0].Keys())

	_, err = etl.ImportFrom(context.Background(), "database", etl.SourceConfig{"connection": "crm"})
	assert.ErrorContains(t, err, "connection and query are required")
}
