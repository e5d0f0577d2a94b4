package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQLite string

//go:embed schema_mysql.sql
var schemaMySQL string

type DB struct {
	*sql.DB
}

// New opens the library database and bootstraps the schema.
//
// The backend is picked from the DSN: anything containing '@' is treated as
// a MySQL DSN (user:password@tcp(host)/dbname), everything else as a SQLite
// file path (or :memory:).
func New(dsn string) (*DB, error) {
	var db *sql.DB
	var err error
	var dbType string

	isMySQL := strings.Contains(dsn, "@")

	if isMySQL {
		dbType = "mysql"
		db, err = sql.Open("mysql", dsn)
	} else {
		dbType = "sqlite"
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			dir := filepath.Dir(dsn)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}

		if !strings.Contains(dsn, "?") {
			dsn += "?"
		} else {
			dsn += "&"
		}

		// modernc.org/sqlite applies pragmas via DSN query parameters,
		// so they hold for every pooled connection
		pragmas := []string{
			"_pragma=foreign_keys(1)",
			"_pragma=journal_mode(WAL)",
			"_pragma=busy_timeout(30000)",
			"_pragma=synchronous(NORMAL)",
		}
		dsn += strings.Join(pragmas, "&")

		db, err = sql.Open("sqlite", dsn)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if dbType == "sqlite" {
		// List aggregation fans out and each goroutine may hold a
		// connection while another is being opened
		db.SetMaxOpenConns(25)
	}

	if err := initSchema(db, dbType); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

func initSchema(db *sql.DB, dbType string) error {
	schema := schemaSQLite
	if dbType == "mysql" {
		schema = schemaMySQL
	}

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// WithTx runs fn inside a transaction, rolling back on error.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}
