package store

import "fmt"

// dialect isolates the handful of spots where SQLite and Postgres diverge
// syntactically (bind-parameter style; driver name), mirroring the
// teacher's db/sqlite.go dialector switch generalized to the two engines
// this store actually speaks.
type dialect interface {
	driverName() string
	placeholder(argPos int) string
}

type sqliteDialect struct{}

func (sqliteDialect) driverName() string    { return "sqlite3" }
func (sqliteDialect) placeholder(int) string { return "?" }

type postgresDialect struct{}

func (postgresDialect) driverName() string            { return "pgx" }
func (postgresDialect) placeholder(argPos int) string { return fmt.Sprintf("$%d", argPos) }
