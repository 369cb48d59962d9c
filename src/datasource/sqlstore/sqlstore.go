// Package sqlstore is the SQL query backend. It runs on Postgres through
// lib/pq, or on SQLite through go-sqlite3 when the driver is "sqlite3".
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/config"
	"github.com/mosaicnetworks/sequencer/src/datasource"
	"github.com/sirupsen/logrus"
)

//go:embed schema_postgres.sql
var postgresSchema string

//go:embed schema_sqlite.sql
var sqliteSchema string

const (
	metaHeight     = "height"
	metaViews      = "views"
	metaDecides    = "decides"
	metaLastDecide = "last_decide"
)

// Store implements datasource.DataSource on database/sql.
type Store struct {
	*datasource.Instruments

	db       *sql.DB
	postgres bool
	logger   *logrus.Entry
}

// Create connects to the database described by conf and applies the schema.
// Failures are BackendInitErrors.
func Create(ctx context.Context, conf config.SQL, logger *logrus.Entry) (*Store, error) {
	conf = conf.WithDefaults()
	logger = logger.WithFields(logrus.Fields{
		"backend": "sql",
		"driver":  conf.Driver,
	})

	var schema string
	switch conf.Driver {
	case "postgres":
		schema = postgresSchema
	case "sqlite3":
		schema = sqliteSchema
	default:
		return nil, common.Errorf(common.BackendInitError, "open sql store",
			"unsupported driver %q", conf.Driver)
	}

	db, err := sql.Open(conf.Driver, conf.DataSourceName())
	if err != nil {
		return nil, common.NewNodeErr(common.BackendInitError, "open sql store", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, common.NewNodeErr(common.BackendInitError, "connect sql store",
			describe(err))
	}

	if conf.Driver == "sqlite3" {
		// SQLite only supports one writer at a time
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, common.NewNodeErr(common.BackendInitError, "configure sql store", err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, common.NewNodeErr(common.BackendInitError, "apply schema",
			describe(err))
	}

	logger.WithField("database", conf.Database).Debug("Opened store")

	return &Store{
		Instruments: datasource.NewInstruments("sql", logger),
		db:          db,
		postgres:    conf.Driver == "postgres",
		logger:      logger,
	}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// describe adds the driver's error code to the message where there is one.
func describe(err error) error {
	switch e := err.(type) {
	case *pq.Error:
		return fmt.Errorf("postgres %s (%s): %w", e.Code.Name(), e.Code, err)
	case sqlite3.Error:
		return fmt.Errorf("sqlite %s: %w", e.Code, err)
	}
	return err
}

// Close ...
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// rebind turns ? placeholders into $n for Postgres.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
