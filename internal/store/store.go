// Package store implements the intermediate store: a relational backend
// whose schema is derived per-template by internal/schema rather than
// fixed at compile time — one table per repetition, plus the synthetic
// root.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/oxhq/algex/internal/model"
	"github.com/oxhq/algex/internal/schema"
	"github.com/oxhq/algex/internal/symbol"
	"github.com/oxhq/algex/internal/template"
)

// Options configures a Store at Build time.
type Options struct {
	// ColumnTypes declares a symbol's storage type by name; symbols not
	// listed default to ColumnAuto (encoded through the codec).
	ColumnTypes map[string]ColumnType
}

// Store is the memory-variant Intermediate backend. It owns the buffered
// rows during a solve and becomes read-only once Finish commits them.
type Store struct {
	db      *sql.DB
	dialect dialect

	schema    *schema.Schema
	tableName map[template.TableID]string
	columns   map[template.TableID][]symbol.Symbol
	colType   map[symbol.Symbol]ColumnType
	codec     *codec

	buffer   map[template.TableID][]bufferedRow
	rowCount map[template.TableID]int
	finished bool
}

type bufferedRow struct {
	id       int64
	parentID int64
	values   map[symbol.Symbol]any
}

// OpenSQLite opens a Store backend at dsn ("" or ":memory:" gives an
// ephemeral in-memory database), applying a busy-timeout and enabling
// foreign keys.
func OpenSQLite(dsn string) (*sql.DB, error) {
	sep := "?"
	if dsn == "" || dsn == ":memory:" {
		// A plain ":memory:" database is private to one connection; a named
		// shared-cache one is seen by every pooled connection, so a nested
		// query issued while another cursor is open finds the same tables.
		dsn = "file:algex-" + uuid.NewString() + "?mode=memory&cache=shared"
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}
	return db, nil
}

// Build derives the per-template schema via internal/schema and issues
// CREATE TABLE for every table in parent-first order.
func Build(db *sql.DB, sch *schema.Schema, opts Options) (*Store, error) {
	return build(db, sqliteDialect{}, sch, opts)
}

func build(db *sql.DB, d dialect, sch *schema.Schema, opts Options) (*Store, error) {
	s := &Store{
		db:        db,
		dialect:   d,
		schema:    sch,
		tableName: map[template.TableID]string{},
		columns:   map[template.TableID][]symbol.Symbol{},
		colType:   map[symbol.Symbol]ColumnType{},
		codec:     newCodec(),
		buffer:    map[template.TableID][]bufferedRow{},
		rowCount:  map[template.TableID]int{},
	}
	for name, ct := range opts.ColumnTypes {
		s.colType[symbol.New(name)] = ct
	}

	for i, table := range sch.Order {
		if table == template.RootTable {
			s.tableName[table] = "root"
		} else {
			s.tableName[table] = fmt.Sprintf("t%d", i)
		}
		s.columns[table] = sch.SymbolsOf(table)
	}
	// root's singleton row is conceptually always present, even before
	// Finish actually inserts it.
	s.rowCount[template.RootTable] = 1

	for _, table := range sch.Order {
		if err := s.createTable(table); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) createTable(table template.TableID) error {
	name := s.tableName[table]
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n\t_id INTEGER PRIMARY KEY", name)
	if table != template.RootTable {
		parent := s.schema.Parent[table]
		fmt.Fprintf(&b, ",\n\t_parent_id INTEGER NOT NULL REFERENCES %s(_id)", s.tableName[parent])
	}
	for _, sym := range s.columns[table] {
		fmt.Fprintf(&b, ",\n\t%s %s", columnName(sym), s.columnType(sym).sqlType())
	}
	b.WriteString("\n);")
	if _, err := s.db.Exec(b.String()); err != nil {
		return fmt.Errorf("store: create table %s: %w", name, err)
	}
	if table != template.RootTable {
		idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_parent ON %s (_parent_id);", name, name)
		if _, err := s.db.Exec(idx); err != nil {
			return fmt.Errorf("store: index %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) columnType(sym symbol.Symbol) ColumnType {
	if ct, ok := s.colType[sym]; ok {
		return ct
	}
	return ColumnAuto
}

func columnName(sym symbol.Symbol) string { return "c_" + sym.Name() }

// Append buffers one row into table, assigning its explicit 1-based _id
// from the store's own counter rather than relying on the backend's
// auto-increment. row must carry symbol.ParentID, set by the caller to
// the 1-based id of the parent row currently being assembled.
func (s *Store) Append(table template.TableID, r map[symbol.Symbol]any) error {
	if s.finished {
		return model.ErrStoreClosed
	}
	parentID, ok := r[symbol.ParentID]
	if !ok {
		return fmt.Errorf("store: append to table missing %s", symbol.ParentID)
	}

	s.rowCount[table]++
	id := int64(s.rowCount[table])

	values := make(map[symbol.Symbol]any, len(s.columns[table]))
	for _, sym := range s.columns[table] {
		v, present := r[sym]
		if !present || v == nil {
			values[sym] = nil
			continue
		}
		values[sym] = s.storedValue(sym, v)
	}

	s.buffer[table] = append(s.buffer[table], bufferedRow{
		id:       id,
		parentID: toInt64(parentID),
		values:   values,
	})
	return nil
}

func (s *Store) storedValue(sym symbol.Symbol, v any) any {
	if s.columnType(sym) == ColumnAuto {
		return s.codec.Encode(v)
	}
	return v
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

// Size returns the running row count for table, valid both before and
// after Finish.
func (s *Store) Size(table template.TableID) int { return s.rowCount[table] }

// TableSize satisfies template.HandleContext for error-policy handlers.
func (s *Store) TableSize(table template.TableID) int { return s.Size(table) }

// NextID satisfies template.HandleContext: root's singleton row is always
// id 1; every other table's in-flight row is one past its current size.
func (s *Store) NextID(table template.TableID) int64 {
	if table == template.RootTable {
		return 1
	}
	return int64(s.rowCount[table] + 1)
}

// AppendRow satisfies template.HandleContext for error-policy handlers.
func (s *Store) AppendRow(table template.TableID, row map[symbol.Symbol]any) error {
	return s.Append(table, row)
}

// Finish inserts the root row (id 1) and bulk-inserts every buffered row
// in parent-first order inside one transaction, then transitions the
// store to read-only.
func (s *Store) Finish(ctx context.Context) error {
	if s.finished {
		return model.ErrStoreClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: finish: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "INSERT INTO root (_id) VALUES (1);"); err != nil {
		return fmt.Errorf("store: finish: insert root: %w", err)
	}

	for _, table := range s.schema.Order {
		if table == template.RootTable {
			continue
		}
		if err := s.insertBuffered(ctx, tx, table); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: finish: commit: %w", err)
	}
	s.finished = true
	return nil
}

func (s *Store) insertBuffered(ctx context.Context, tx *sql.Tx, table template.TableID) error {
	rows := s.buffer[table]
	if len(rows) == 0 {
		return nil
	}
	cols := s.columns[table]
	colNames := make([]string, 0, len(cols)+2)
	colNames = append(colNames, "_id", "_parent_id")
	for _, sym := range cols {
		colNames = append(colNames, columnName(sym))
	}
	placeholders := make([]string, len(colNames))
	for i := range placeholders {
		placeholders[i] = s.dialect.placeholder(i + 1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		s.tableName[table], strings.Join(colNames, ", "), strings.Join(placeholders, ", "))

	for _, r := range rows {
		args := make([]any, 0, len(colNames))
		args = append(args, r.id, r.parentID)
		for _, sym := range cols {
			args = append(args, r.values[sym])
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("store: finish: insert into %s: %w", s.tableName[table], err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// MarkReopened transitions a freshly Built store straight to the read-only
// state Finish would otherwise reach, for the case where the tables it just
// (idempotently) created already hold rows committed by an earlier process
// (cmd/algex's "substitute --store" reopening a persisted solve). The
// caller is responsible for having derived sch from the exact same
// template that originally built the store, so table names line up.
func (s *Store) MarkReopened() { s.finished = true }
