package dbclient

import (
	"net"
	"net/url"
	"strconv"

	_ "github.com/lib/pq"

	"datafill/internal/domain"
)

// postgresDSN renders a postgres:// URL. Sessions default to read-only
// transactions on the server side as well.
func postgresDSN(conn *domain.DatabaseConnection, password string) string {
	sslMode := conn.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("default_transaction_read_only", "on")
	for k, v := range conn.Extra {
		q.Set(k, v)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(conn.Username, password),
		Host:     net.JoinHostPort(conn.Host, strconv.Itoa(portOr(conn.Port, 5432))),
		Path:     "/" + conn.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}
