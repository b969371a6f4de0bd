package dbclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"datafill/internal/domain"
)

// mongoReader implements Reader for MongoDB.
type mongoReader struct {
	client *mongo.Client
	dbName string
}

// mongoQuery is the JSON structure users write for MongoDB queries.
// Filter, projection, sort and pipeline accept Extended JSON ($oid, $date…).
type mongoQuery struct {
	Collection string          `json:"collection"`
	Operation  string          `json:"operation,omitempty"` // find (default) | aggregate
	Filter     json.RawMessage `json:"filter,omitempty"`
	Projection json.RawMessage `json:"projection,omitempty"`
	Sort       json.RawMessage `json:"sort,omitempty"`
	Pipeline   json.RawMessage `json:"pipeline,omitempty"`
}

// mongoURI builds the connection string. A host that is already a
// mongodb:// or mongodb+srv:// URI is used as is, with <password>
// placeholders filled in.
func mongoURI(conn *domain.DatabaseConnection, password string) string {
	if strings.HasPrefix(conn.Host, "mongodb+srv://") || strings.HasPrefix(conn.Host, "mongodb://") {
		uri := conn.Host
		if password != "" {
			uri = strings.ReplaceAll(uri, "<password>", password)
			uri = strings.ReplaceAll(uri, "<db_password>", password)
		}
		return uri
	}

	port := conn.Port
	if port == 0 {
		port = 27017
	}
	var uri string
	if conn.Username != "" {
		uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", conn.Username, password, conn.Host, port)
	} else {
		uri = fmt.Sprintf("mongodb://%s:%d", conn.Host, port)
	}
	if len(conn.Extra) > 0 {
		params := make([]string, 0, len(conn.Extra))
		for _, k := range slices.Sorted(maps.Keys(conn.Extra)) {
			params = append(params, k+"="+conn.Extra[k])
		}
		uri += "/?" + strings.Join(params, "&")
	}
	return uri
}

// mongoDatabase returns the configured database, else the path segment of
// the URI, else "test".
func mongoDatabase(conn *domain.DatabaseConnection, uri string) string {
	if conn.Database != "" {
		return conn.Database
	}
	rest := uri
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		rest = strings.TrimPrefix(rest, prefix)
	}
	if at := strings.LastIndex(rest, "@"); at != -1 {
		rest = rest[at+1:]
	}
	if slash := strings.Index(rest, "/"); slash != -1 {
		path := rest[slash+1:]
		if q := strings.Index(path, "?"); q != -1 {
			path = path[:q]
		}
		if path != "" {
			return path
		}
	}
	return "test"
}

func newMongoReader(conn *domain.DatabaseConnection, password string) (*mongoReader, error) {
	uri := mongoURI(conn, password)
	dbName := mongoDatabase(conn, uri)

	slog.Debug("connecting to mongo", "component", "dbclient", "connection", conn.Name, "database", dbName)
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &mongoReader{client: client, dbName: dbName}, nil
}

func (m *mongoReader) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

// extJSON decodes an Extended JSON document; empty input yields an empty one.
func extJSON(raw json.RawMessage) (bson.D, error) {
	if len(raw) == 0 {
		return bson.D{}, nil
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (m *mongoReader) Query(ctx context.Context, query string, limit int) (*QueryPage, error) {
	var mq mongoQuery
	if err := json.Unmarshal([]byte(query), &mq); err != nil {
		return nil, fmt.Errorf("invalid query JSON: %w", err)
	}
	if mq.Collection == "" {
		return nil, fmt.Errorf("query must specify 'collection'")
	}
	if limit <= 0 {
		limit = 500
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	coll := m.client.Database(m.dbName).Collection(mq.Collection)

	var (
		cursor *mongo.Cursor
		err    error
	)
	switch mq.Operation {
	case "", "find":
		cursor, err = m.find(ctx, coll, mq, limit)
	case "aggregate":
		cursor, err = m.aggregate(ctx, coll, mq)
	default:
		return nil, fmt.Errorf("%w: operation %s", ErrWriteQuery, mq.Operation)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.D
	truncated := false
	for cursor.Next(ctx) {
		if len(docs) == limit {
			truncated = true
			break
		}
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}

	page := docsToPage(docs)
	page.Truncated = truncated
	return page, nil
}

func (m *mongoReader) find(ctx context.Context, coll *mongo.Collection, mq mongoQuery, limit int) (*mongo.Cursor, error) {
	filter, err := extJSON(mq.Filter)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	opts := options.Find().SetLimit(int64(limit) + 1)
	if len(mq.Projection) > 0 {
		proj, err := extJSON(mq.Projection)
		if err != nil {
			return nil, fmt.Errorf("projection: %w", err)
		}
		opts.SetProjection(proj)
	}
	if len(mq.Sort) > 0 {
		sort, err := extJSON(mq.Sort)
		if err != nil {
			return nil, fmt.Errorf("sort: %w", err)
		}
		opts.SetSort(sort)
	}
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	return cursor, nil
}

func (m *mongoReader) aggregate(ctx context.Context, coll *mongo.Collection, mq mongoQuery) (*mongo.Cursor, error) {
	pipeline := bson.A{}
	if len(mq.Pipeline) > 0 {
		// Extended JSON only decodes documents, so the array is wrapped.
		wrapped := append(append([]byte(`{"p":`), mq.Pipeline...), '}')
		var holder struct {
			P bson.A `bson:"p"`
		}
		if err := bson.UnmarshalExtJSON(wrapped, false, &holder); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		pipeline = holder.P
	}
	for _, stage := range pipeline {
		if d, ok := stage.(bson.D); ok && len(d) > 0 {
			if d[0].Key == "$out" || d[0].Key == "$merge" {
				return nil, fmt.Errorf("%w: %s stage", ErrWriteQuery, d[0].Key)
			}
		}
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	return cursor, nil
}

// docsToPage flattens documents into rows. Columns appear in first-seen
// order; a document lacking a column yields nil there.
func docsToPage(docs []bson.D) *QueryPage {
	seen := map[string]bool{}
	var columns []string
	for _, doc := range docs {
		for _, elem := range doc {
			if !seen[elem.Key] {
				seen[elem.Key] = true
				columns = append(columns, elem.Key)
			}
		}
	}

	rows := make([][]any, 0, len(docs))
	for _, doc := range docs {
		row := make([]any, len(columns))
		for _, elem := range doc {
			row[slices.Index(columns, elem.Key)] = mongoValue(elem.Value)
		}
		rows = append(rows, row)
	}
	return &QueryPage{Columns: columns, Rows: rows}
}

// mongoValue converts a BSON value to something JSON can carry. Nested
// documents and arrays become relaxed Extended JSON.
func mongoValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bson.ObjectID:
		return val.Hex()
	case bson.DateTime:
		return val.Time().UTC().Format(time.RFC3339)
	case bson.D, bson.A:
		raw, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: val}}, false, false)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		inner, _, _, err := jsonparser.Get(raw, "v")
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return json.RawMessage(inner)
	case string, bool, int32, int64, float64:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (m *mongoReader) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
