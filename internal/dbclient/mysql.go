package dbclient

import (
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"datafill/internal/domain"
)

// mysqlDSN renders the connection with the driver's own formatter. Extra
// entries become DSN params.
func mysqlDSN(conn *domain.DatabaseConnection, password string) string {
	cfg := mysql.NewConfig()
	cfg.User = conn.Username
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(conn.Host, strconv.Itoa(portOr(conn.Port, 3306)))
	cfg.DBName = conn.Database
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	if conn.SSLMode == "require" {
		cfg.TLSConfig = "true"
	}
	for k, v := range conn.Extra {
		cfg.Params[k] = v
	}
	return cfg.FormatDSN()
}
