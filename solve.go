package algex

import (
	"context"
	"database/sql"
	"strings"

	"github.com/oxhq/algex/internal/schema"
	"github.com/oxhq/algex/internal/solver"
	"github.com/oxhq/algex/internal/store"
	"github.com/oxhq/algex/internal/template"
)

// Options configures the intermediate store a Solve call builds.
type Options struct {
	// DSN selects the backing store: empty or ":memory:" opens an
	// ephemeral SQLite database, a file path opens a persisted SQLite
	// database, and a "postgres://" or "postgresql://" URL switches to
	// the Postgres backend instead.
	DSN string

	// ColumnTypes declares a symbol's storage type by name, bypassing the
	// store's default value-encoding surrogate for that column.
	ColumnTypes map[string]ColumnType
}

// Solve matches tmpl against data, buffering every successful sub-match
// into a fresh intermediate store, and returns it once solving and
// finishing both succeed. When tmpl is not itself a repetition, both tmpl
// and data are wrapped in a one-element repetition first so that
// top-level (non-list) templates still populate a proper table.
func Solve(ctx context.Context, tmpl Node, data any, opts Options) (*Intermediate, error) {
	wrappedTmpl, wrappedData := ensureRepetition(tmpl, data)
	sch := schema.Extract(wrappedTmpl)

	db, isPostgres, err := openBackend(opts.DSN)
	if err != nil {
		return nil, err
	}

	storeOpts := store.Options{ColumnTypes: opts.ColumnTypes}
	var st *store.Store
	if isPostgres {
		st, err = store.BuildPostgres(db, sch, storeOpts)
	} else {
		st, err = store.Build(db, sch, storeOpts)
	}
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := solver.Solve(ctx, st, wrappedTmpl, wrappedData); err != nil {
		db.Close()
		return nil, err
	}
	if err := st.Finish(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &Intermediate{store: st, db: db}, nil
}

// OpenIntermediate reopens a store previously filled by Solve and persisted
// at dsn, without re-running the solver. schemaTmpl must be the exact
// template Solve was originally called with, so that the derived schema
// (internal/schema.Extract) reproduces the same table names (cmd/algex's
// "substitute --store" path, reopening a persisted solve across separate
// CLI invocations).
//
// Reopening only recovers columns with a declared ColumnType: the memory
// variant's encoder (internal/store/codec.go) assigns surrogates in an
// in-process map that is never itself persisted, so a symbol left at the
// default ColumnAuto decodes to nil rather than its original value once
// queried from a freshly opened Store. Callers that
// need a column to survive a process restart must declare its type via
// opts.ColumnTypes — at both the original Solve and every OpenIntermediate.
func OpenIntermediate(ctx context.Context, dsn string, schemaTmpl Node, opts Options) (*Intermediate, error) {
	wrappedTmpl, _ := ensureRepetition(schemaTmpl, nil)
	sch := schema.Extract(wrappedTmpl)

	db, isPostgres, err := openBackend(dsn)
	if err != nil {
		return nil, err
	}

	storeOpts := store.Options{ColumnTypes: opts.ColumnTypes}
	var st *store.Store
	if isPostgres {
		st, err = store.BuildPostgres(db, sch, storeOpts)
	} else {
		st, err = store.Build(db, sch, storeOpts)
	}
	if err != nil {
		db.Close()
		return nil, err
	}
	st.MarkReopened()

	return &Intermediate{store: st, db: db}, nil
}

func ensureRepetition(tmpl Node, data any) (Node, any) {
	if _, ok := tmpl.(*template.Repetition); ok {
		return tmpl, data
	}
	return template.List(tmpl), []any{data}
}

func openBackend(dsn string) (db *sql.DB, isPostgres bool, err error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err = store.OpenPostgres(dsn)
		return db, true, err
	}
	db, err = store.OpenSQLite(dsn)
	return db, false, err
}
