// Package errpolicy implements Nullable, an error-handler policy that
// substitutes an all-null row set for whatever its guarded template would
// have produced, so that downstream joins against the tables it would
// have populated still succeed and simply surface null in the missing
// positions.
package errpolicy

import (
	"github.com/oxhq/algex/internal/schema"
	"github.com/oxhq/algex/internal/symbol"
	"github.com/oxhq/algex/internal/template"
)

// Nullable is a template.Policy computed once, at construction time, from
// its guarded template's own schema — the table tree and symbol directory
// it would have populated had it matched.
type Nullable struct {
	inner *schema.Schema
}

// New wraps inner in an ErrorHandler guarded by a fresh Nullable policy.
func New(inner template.Node) template.Node {
	return template.Handle(inner, &Nullable{inner: schema.Extract(inner)})
}

// Handle appends one all-null row into every table inner would have
// introduced (in parent-before-child order, so a nested table's parent row
// already exists by the time it's needed), and returns null bindings for
// inner's own outer-scope symbols so the enclosing equation still carries
// something to bind.
func (n *Nullable) Handle(ctx template.HandleContext, parentTable template.TableID, rhs any, cause error) (map[symbol.Symbol]any, error) {
	parentRowID := func(t template.TableID) int64 {
		if t == template.RootTable {
			// t is the scope enclosing inner itself — that row is still
			// being assembled by whatever invoked this match.
			return ctx.NextID(parentTable)
		}
		// t is a table inner introduces; its one null row was appended
		// earlier in this same loop, so its id is now just its size.
		return int64(ctx.TableSize(t))
	}

	for _, table := range n.inner.Order {
		if table == template.RootTable {
			continue
		}
		row := map[symbol.Symbol]any{symbol.ParentID: parentRowID(n.inner.Parent[table])}
		for _, sym := range n.inner.SymbolsOf(table) {
			row[sym] = nil
		}
		if err := ctx.AppendRow(table, row); err != nil {
			return nil, err
		}
	}

	out := map[symbol.Symbol]any{}
	for _, sym := range n.inner.SymbolsOf(template.RootTable) {
		out[sym] = nil
	}
	return out, nil
}
