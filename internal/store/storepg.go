package store

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oxhq/algex/internal/schema"
)

// OpenPostgres opens a Store backend against a Postgres dsn. Postgres
// satisfies the same "CREATE TABLE, bulk insert, multi-way equi-join,
// SELECT DISTINCT" contract the join backend requires, so it is wired as
// a second Store backend behind the identical Build/Append/Finish/Query
// surface.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	return db, nil
}

// BuildPostgres is Build's Postgres-dialect counterpart: identical schema
// derivation, only the bind-parameter syntax differs (internal/store/dialect.go).
func BuildPostgres(db *sql.DB, sch *schema.Schema, opts Options) (*Store, error) {
	return build(db, postgresDialect{}, sch, opts)
}
