package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/oxhq/algex/internal/model"
	"github.com/oxhq/algex/internal/symbol"
	"github.com/oxhq/algex/internal/template"
)

// Query issues SELECT DISTINCT over symbols (nil means every non-internal
// symbol — the "everything" sentinel), joining only the tables the
// relevant symbol set transitively requires and filtering by known and by
// every repeated-symbol equi-join constraint.
func (s *Store) Query(ctx context.Context, symbols []symbol.Symbol, known map[symbol.Symbol]any) (*Cursor, error) {
	if !s.finished {
		return nil, model.ErrStoreClosed
	}

	rev := s.schema.ReverseIndex()
	repeated := map[symbol.Symbol][]template.TableID{}
	for sym, tables := range rev {
		if len(tables) > 1 {
			repeated[sym] = tables
		}
	}

	if symbols == nil {
		symbols = s.allSymbols()
	}

	relevant := map[symbol.Symbol]bool{}
	for _, sym := range symbols {
		relevant[sym] = true
	}
	for sym := range known {
		relevant[sym] = true
	}
	for sym := range repeated {
		relevant[sym] = true
	}

	included := map[template.TableID]bool{template.RootTable: true}
	for sym := range relevant {
		for _, t := range rev[sym] {
			s.includeWithAncestors(t, included)
		}
	}

	owner := map[symbol.Symbol]template.TableID{}
	for sym := range relevant {
		if ts, ok := rev[sym]; ok && len(ts) > 0 {
			owner[sym] = ts[0]
		}
	}

	joinOrder := make([]template.TableID, 0, len(included))
	for _, t := range s.schema.Order {
		if included[t] && t != template.RootTable {
			joinOrder = append(joinOrder, t)
		}
	}

	selectSyms := make([]symbol.Symbol, 0, len(symbols))
	selectCols := make([]string, 0, len(symbols))
	seen := map[symbol.Symbol]bool{}
	for _, sym := range symbols {
		if seen[sym] || sym.Internal() {
			continue
		}
		seen[sym] = true
		selectSyms = append(selectSyms, sym)
		selectCols = append(selectCols, fmt.Sprintf("%s.%s", s.tableName[owner[sym]], columnName(sym)))
	}

	var b strings.Builder
	b.WriteString("SELECT DISTINCT ")
	if len(selectCols) == 0 {
		b.WriteString("1")
	} else {
		b.WriteString(strings.Join(selectCols, ", "))
	}
	fmt.Fprintf(&b, " FROM %s", s.tableName[template.RootTable])
	for _, t := range joinOrder {
		parent := s.schema.Parent[t]
		fmt.Fprintf(&b, " JOIN %s ON %s._parent_id = %s._id", s.tableName[t], s.tableName[t], s.tableName[parent])
	}

	var args []any
	var where []string
	argPos := 1
	addArg := func(v any) string {
		ph := s.dialect.placeholder(argPos)
		argPos++
		args = append(args, v)
		return ph
	}

	for sym, v := range known {
		t, ok := owner[sym]
		if !ok || !included[t] {
			continue
		}
		where = append(where, fmt.Sprintf("%s.%s = %s", s.tableName[t], columnName(sym), addArg(s.storedValue(sym, v))))
	}
	for sym, ts := range repeated {
		canon := ts[0]
		if !included[canon] {
			continue
		}
		for _, other := range ts[1:] {
			if !included[other] {
				continue
			}
			where = append(where, fmt.Sprintf("%s.%s = %s.%s",
				s.tableName[canon], columnName(sym), s.tableName[other], columnName(sym)))
		}
	}
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	return &Cursor{rows: rows, symbols: selectSyms, codec: s.codec, colType: s.colType}, nil
}

func (s *Store) includeWithAncestors(t template.TableID, included map[template.TableID]bool) {
	for {
		if included[t] {
			return
		}
		included[t] = true
		if t == template.RootTable {
			return
		}
		t = s.schema.Parent[t]
	}
}

func (s *Store) allSymbols() []symbol.Symbol {
	var out []symbol.Symbol
	for _, t := range s.schema.Order {
		for _, sym := range s.schema.SymbolsOf(t) {
			if !sym.Internal() {
				out = append(out, sym)
			}
		}
	}
	return out
}

// Cursor is a lazy sequence of rows, each a full symbol->value binding,
// decoding codec surrogates back to host values on Scan.
type Cursor struct {
	rows    *sql.Rows
	symbols []symbol.Symbol
	codec   *codec
	colType map[symbol.Symbol]ColumnType
}

// Next advances the cursor; it must be called before the first Scan.
func (c *Cursor) Next() bool { return c.rows.Next() }

// Scan decodes the current row.
func (c *Cursor) Scan() (map[symbol.Symbol]any, error) {
	raw := make([]any, len(c.symbols))
	ptrs := make([]any, len(c.symbols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if len(ptrs) == 0 {
		// Query selects the constant 1 when no symbol is requested.
		var discard any
		ptrs = []any{&discard}
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("store: scan: %w", err)
	}

	out := make(map[symbol.Symbol]any, len(c.symbols))
	for i, sym := range c.symbols {
		v := raw[i]
		if v == nil {
			out[sym] = nil
			continue
		}
		ct := ColumnAuto
		if declared, ok := c.colType[sym]; ok {
			ct = declared
		}
		if ct != ColumnAuto {
			out[sym] = v
			continue
		}
		id, ok := v.(int64)
		if !ok {
			out[sym] = v
			continue
		}
		out[sym] = c.codec.Decode(id)
	}
	return out, nil
}

// Err returns any error encountered during iteration.
func (c *Cursor) Err() error { return c.rows.Err() }

// Close releases the cursor's underlying rows.
func (c *Cursor) Close() error { return c.rows.Close() }
