package domain

// DatabaseDriver represents the type of database engine.
type DatabaseDriver string

const (
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverMongoDB  DatabaseDriver = "mongodb"
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
)

// DatabaseConnection describes an external database records can be
// imported from. The password is never stored here; it is looked up in a
// secret store under SecretKey.
type DatabaseConnection struct {
	Name      string            `yaml:"name" json:"name"`
	Driver    DatabaseDriver    `yaml:"driver" json:"driver"`
	Host      string            `yaml:"host" json:"host"`         // hostname, URI (mongodb) or file path (sqlite)
	Port      int               `yaml:"port" json:"port"`         // 0 for the driver default
	Database  string            `yaml:"database" json:"database"` // db name or empty for sqlite
	Username  string            `yaml:"username" json:"username"`
	SSLMode   string            `yaml:"ssl_mode" json:"sslMode"`
	SecretKey string            `yaml:"secret_key" json:"secretKey"`
	Extra     map[string]string `yaml:"extra" json:"extra"` // driver-specific options
}
