package dbclient

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"datafill/internal/domain"
)

func seedSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, phone TEXT);
		INSERT INTO people (name, phone) VALUES ('An', '0912345678'), ('Binh', NULL), ('Chi', '0987654321');`)
	require.NoError(t, err)
	return path
}

func TestPool_SQLite(t *testing.T) {
	ctx := context.Background()
	pool := NewPool([]domain.DatabaseConnection{
		{Name: "local", Driver: domain.DatabaseDriverSQLite, Host: seedSQLite(t)},
	}, nil)
	defer pool.Close()

	require.NoError(t, pool.Test(ctx, "local"))

	page, err := pool.QueryRecords(ctx, "local", "SELECT name, phone FROM people ORDER BY id", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "phone"}, page.Columns)
	require.Len(t, page.Rows, 3)
	assert.Equal(t, "An", page.Rows[0][0])
	assert.Nil(t, page.Rows[1][1])
}

func TestReader_SQLiteLimitAndWrites(t *testing.T) {
	ctx := context.Background()
	r, err := NewReader(&domain.DatabaseConnection{Driver: domain.DatabaseDriverSQLite, Host: seedSQLite(t)}, "")
	require.NoError(t, err)
	defer r.Close()

	page, err := r.Query(ctx, "SELECT name FROM people ORDER BY id", 2)
	require.NoError(t, err)
	assert.Len(t, page.Rows, 2)
	assert.True(t, page.Truncated)

	_, err = r.Query(ctx, "DELETE FROM people", 0)
	assert.ErrorIs(t, err, ErrWriteQuery)
}

func TestPool_UnknownConnection(t *testing.T) {
	pool := NewPool(nil, nil)
	_, err := pool.QueryRecords(context.Background(), "nope", "SELECT 1", 1)
	assert.ErrorIs(t, err, ErrUnknownConnection)
}

type fakeSecrets map[string]string

func (f fakeSecrets) Get(key string) ([]byte, error) { return []byte(f[key]), nil }
func (f fakeSecrets) Set(string, []byte) error      { return nil }
func (f fakeSecrets) Delete(string) error           { return nil }

type stubReader struct{ closed bool }

func (s *stubReader) TestConnection(context.Context) error { return nil }
func (s *stubReader) Query(context.Context, string, int) (*QueryPage, error) {
	return &QueryPage{Columns: []string{"a"}, Rows: [][]any{{1}}}, nil
}
func (s *stubReader) Close() error { s.closed = true; return nil }

func TestPool_ReusesReaderAndPassesPassword(t *testing.T) {
	pool := NewPool([]domain.DatabaseConnection{
		{Name: "pg", Driver: domain.DatabaseDriverPostgres, SecretKey: "pg-key"},
	}, fakeSecrets{"pg-key": "s3cret"})

	var opened int
	var gotPassword string
	stub := &stubReader{}
	pool.open = func(_ *domain.DatabaseConnection, pw string) (Reader, error) {
		opened++
		gotPassword = pw
		return stub, nil
	}

	for range 2 {
		_, err := pool.QueryRecords(context.Background(), "pg", "SELECT a", 1)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, opened)
	assert.Equal(t, "s3cret", gotPassword)

	require.NoError(t, pool.Close())
	assert.True(t, stub.closed)
}

func TestIsReadQuery(t *testing.T) {
	assert.True(t, isReadQuery("  select * from t"))
	assert.True(t, isReadQuery("WITH x AS (SELECT 1) SELECT * FROM x"))
	assert.False(t, isReadQuery("UPDATE t SET a = 1"))
	assert.False(t, isReadQuery("drop table t"))
}

func TestMongoURI(t *testing.T) {
	tests := []struct {
		name   string
		conn   domain.DatabaseConnection
		pw     string
		uri    string
		dbName string
	}{
		{
			name:   "host and port",
			conn:   domain.DatabaseConnection{Host: "db.local", Username: "u", Database: "crm"},
			pw:     "p",
			uri:    "mongodb://u:p@db.local:27017",
			dbName: "crm",
		},
		{
			name:   "extras sorted",
			conn:   domain.DatabaseConnection{Host: "db.local", Port: 27018, Extra: map[string]string{"replicaSet": "rs0", "authSource": "admin"}},
			uri:    "mongodb://db.local:27018/?authSource=admin&replicaSet=rs0",
			dbName: "test",
		},
		{
			name:   "atlas placeholder",
			conn:   domain.DatabaseConnection{Host: "mongodb+srv://u:<password>@cluster.example.net/people?retryWrites=true"},
			pw:     "p",
			uri:    "mongodb+srv://u:p@cluster.example.net/people?retryWrites=true",
			dbName: "people",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri := mongoURI(&tt.conn, tt.pw)
			assert.Equal(t, tt.uri, uri)
			assert.Equal(t, tt.dbName, mongoDatabase(&tt.conn, uri))
		})
	}
}

func TestSQLDSNs(t *testing.T) {
	conn := &domain.DatabaseConnection{Host: "db", Database: "app", Username: "u"}

	my := mysqlDSN(conn, "p@ss")
	assert.True(t, strings.HasPrefix(my, "u:p@ss@tcp(db:3306)/app?"), my)
	assert.Contains(t, my, "parseTime=true")
	assert.Contains(t, my, "charset=utf8mb4")

	pg := postgresDSN(conn, "p@ss")
	assert.Equal(t, "postgres://u:p%40ss@db:5432/app?default_transaction_read_only=on&sslmode=disable", pg)

	conn.Port, conn.SSLMode = 6543, "require"
	assert.Contains(t, postgresDSN(conn, ""), "db:6543")
	assert.Contains(t, mysqlDSN(conn, ""), "tls=true")
}

func TestDocsToPage(t *testing.T) {
	oid := bson.NewObjectID()
	docs := []bson.D{
		{{Key: "_id", Value: oid}, {Key: "name", Value: "An"}},
		{{Key: "name", Value: "Binh"}, {Key: "tags", Value: bson.A{"a", "b"}}},
	}
	page := docsToPage(docs)

	assert.Equal(t, []string{"_id", "name", "tags"}, page.Columns)
	assert.Equal(t, oid.Hex(), page.Rows[0][0])
	assert.Nil(t, page.Rows[0][2])
	assert.Nil(t, page.Rows[1][0])
	assert.JSONEq(t, `["a","b"]`, string(page.Rows[1][2].(json.RawMessage)))
}
