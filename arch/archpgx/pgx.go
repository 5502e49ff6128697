// Package archpgx provides a report backend using a postgresql database via
// the pgx client package.
package archpgx

import (
	"github.com/jackc/pgx"
	"github.com/mb0/xelf/cor"
)

type DB interface {
	Begin() (*pgx.Tx, error)
}

type C interface {
	Query(string, ...interface{}) (*pgx.Rows, error)
	QueryRow(string, ...interface{}) *pgx.Row
	Exec(string, ...interface{}) (pgx.CommandTag, error)
	CopyFrom(pgx.Identifier, []string, pgx.CopyFromSource) (int, error)
}

func Open(dsn string, logger pgx.Logger) (*pgx.ConnPool, error) {
	conf, err := pgx.ParseDSN(dsn)
	if err != nil {
		return nil, cor.Errorf("parsing postgres dsn: %w", err)
	}
	if logger != nil {
		conf.Logger = logger
		conf.LogLevel = pgx.LogLevelWarn
	}
	db, err := pgx.NewConnPool(pgx.ConnPoolConfig{ConnConfig: conf})
	if err != nil {
		return nil, cor.Errorf("creating pgx connection pool: %w", err)
	}
	_, err = db.Exec("SELECT 1")
	if err != nil {
		db.Close()
		return nil, cor.Errorf("opening first pgx connection: %w", err)
	}
	return db, nil
}

func WithTx(db DB, f func(C) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	err = f(tx)
	if err != nil {
		return err
	}
	return tx.Commit()
}

var schemaDDL = []string{
	`CREATE SCHEMA IF NOT EXISTS drill`,
	`CREATE TABLE IF NOT EXISTS drill.span (
		report text NOT NULL,
		pkey   text NOT NULL,
		start  text NOT NULL DEFAULT '',
		label  text NOT NULL DEFAULT '',
		pos    int  NOT NULL,
		PRIMARY KEY (report, pkey)
	)`,
	`CREATE TABLE IF NOT EXISTS drill.node (
		id     bigint PRIMARY KEY,
		report text NOT NULL,
		pkey   text NOT NULL,
		parent bigint NOT NULL DEFAULT 0,
		pos    int  NOT NULL,
		label  text NOT NULL,
		cols   text NOT NULL DEFAULT '',
		meta   text NOT NULL DEFAULT '',
		sub    boolean NOT NULL DEFAULT false
	)`,
	`CREATE INDEX IF NOT EXISTS node_parent_idx ON drill.node (parent)`,
	`CREATE INDEX IF NOT EXISTS node_top_idx ON drill.node (report, pkey) WHERE parent = 0`,
	`CREATE TABLE IF NOT EXISTS drill.vers (
		name text PRIMARY KEY,
		vers bigint NOT NULL,
		date timestamptz NOT NULL,
		hash text NOT NULL
	)`,
}

// CreateSchema creates the backend schema and tables if they do not exist.
func CreateSchema(db DB) error {
	return WithTx(db, func(tx C) error {
		for _, ddl := range schemaDDL {
			_, err := tx.Exec(ddl)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// DropSchema drops the backend schema and all report data.
func DropSchema(db DB) error {
	return WithTx(db, func(tx C) error {
		_, err := tx.Exec("DROP SCHEMA IF EXISTS drill CASCADE")
		return err
	})
}
