package config

import (
	"fmt"
	"strings"

	"github.com/mosaicnetworks/sequencer/src/common"
)

// HTTP configures the network-facing server. It is always present.
type HTTP struct {
	Port int
}

// SQL configures the SQL query backend. Zero fields take the defaults of
// the Postgres driver.
type SQL struct {
	Driver   string
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// WithDefaults returns a copy with every unset field defaulted.
func (s SQL) WithDefaults() SQL {
	if s.Driver == "" {
		s.Driver = DefaultSQLDriver
	}
	if s.Host == "" {
		s.Host = DefaultPostgresHost
	}
	if s.Port == 0 {
		s.Port = DefaultPostgresPort
	}
	if s.Database == "" {
		s.Database = DefaultPostgresDatabase
	}
	if s.User == "" {
		s.User = DefaultPostgresUser
	}
	return s
}

// DataSourceName returns the connection string handed to database/sql.
func (s SQL) DataSourceName() string {
	s = s.WithDefaults()
	if s.Driver == "sqlite3" {
		return s.Database
	}
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s sslmode=disable",
		quoteDSN(s.Host), s.Port, quoteDSN(s.Database), quoteDSN(s.User))
	if s.Password != "" {
		dsn += " password=" + quoteDSN(s.Password)
	}
	return dsn
}

// quoteDSN quotes a key/value connection string value.
func quoteDSN(v string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}

// FS configures the file-system query backend.
type FS struct {
	StoragePath string
	ResetStore  bool
}

// Submit enables the submission module. It carries no settings; its presence
// is the switch.
type Submit struct{}

// Options is the immutable set of modules a node is started with. At most
// one of QuerySQL and QueryFS is set; with neither, the node runs in minimal
// mode without a query backend.
type Options struct {
	HTTP     HTTP
	QuerySQL *SQL
	QueryFS  *FS
	Submit   *Submit
}

// NewOptions returns Options with only the HTTP server configured.
func NewOptions(http HTTP) Options {
	return Options{HTTP: http}
}

// WithQuerySQL returns a copy of o with the SQL backend selected.
func (o Options) WithQuerySQL(sql SQL) Options {
	o.QuerySQL = &sql
	return o
}

// WithQueryFS returns a copy of o with the file-system backend selected.
func (o Options) WithQueryFS(fs FS) Options {
	o.QueryFS = &fs
	return o
}

// WithSubmit returns a copy of o with the submission module enabled.
func (o Options) WithSubmit() Options {
	o.Submit = &Submit{}
	return o
}

// HasQueryModule reports whether a query backend is configured.
func (o Options) HasQueryModule() bool {
	return o.QuerySQL != nil || o.QueryFS != nil
}

// Validate checks the options before any resource is touched. Every failure
// is a ConfigError.
func (o Options) Validate() error {
	if o.HTTP.Port <= 0 || o.HTTP.Port > 65535 {
		return common.Errorf(common.ConfigError, "validate options",
			"invalid api port %d", o.HTTP.Port)
	}

	if o.QuerySQL != nil && o.QueryFS != nil {
		return common.Errorf(common.ConfigError, "validate options",
			"query-sql and query-fs are mutually exclusive")
	}

	if o.QuerySQL != nil {
		sql := o.QuerySQL.WithDefaults()
		if sql.Driver != "postgres" && sql.Driver != "sqlite3" {
			return common.Errorf(common.ConfigError, "validate options",
				"unsupported sql driver %q", sql.Driver)
		}
		if sql.Port < 0 || sql.Port > 65535 {
			return common.Errorf(common.ConfigError, "validate options",
				"invalid postgres port %d", sql.Port)
		}
	}

	if o.QueryFS != nil && o.QueryFS.StoragePath == "" {
		return common.Errorf(common.ConfigError, "validate options",
			"query-fs requires a storage path")
	}

	return nil
}
