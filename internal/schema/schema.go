// Package schema extracts the table tree implied by a template: two tree
// walks derive which repetition table is nested under which, and the
// per-table symbol directory, both rooted at the synthetic root table.
// Transforms, error handlers, and containers are transparent; only
// repetitions introduce a new table.
package schema

import (
	"reflect"
	"sort"

	"github.com/oxhq/algex/internal/symbol"
	"github.com/oxhq/algex/internal/template"
	"github.com/oxhq/algex/internal/walker"
)

// Schema is the result of extracting a template's table tree. Order lists
// every table (including root) with every parent preceding its children,
// which the intermediate store reuses verbatim for its join order.
type Schema struct {
	Order   []template.TableID
	Parent  map[template.TableID]template.TableID
	symbols map[template.TableID]map[symbol.Symbol]struct{}
}

// SymbolsOf returns the symbols declared directly inside table (not inside
// any nested repetition), sorted by name for deterministic column order.
func (s *Schema) SymbolsOf(table template.TableID) []symbol.Symbol {
	set := s.symbols[table]
	out := make([]symbol.Symbol, 0, len(set))
	for sym := range set {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// ReverseIndex maps every symbol to the ordered list of tables (in Schema
// Order) in which it appears. A symbol repeated across two or more tables
// is the join key the store must constrain on.
func (s *Schema) ReverseIndex() map[symbol.Symbol][]template.TableID {
	rev := map[symbol.Symbol][]template.TableID{}
	for _, table := range s.Order {
		for _, sym := range s.SymbolsOf(table) {
			rev[sym] = append(rev[sym], table)
		}
	}
	return rev
}

type visit struct {
	node  template.Node
	table template.TableID
}

func tagOf(v visit) reflect.Type { return reflect.TypeOf(v.node) }

func isSym(v visit) bool          { _, ok := v.node.(*template.Sym); return ok }
func isLiteral(v visit) bool      { _, ok := v.node.(*template.Literal); return ok }
func isTransform(v visit) bool    { _, ok := v.node.(*template.Transform); return ok }
func isErrorHandler(v visit) bool { _, ok := v.node.(*template.ErrorHandler); return ok }
func isContainer(v visit) bool    { _, ok := v.node.(*template.Container); return ok }
func isRepetition(v visit) bool   { _, ok := v.node.(*template.Repetition); return ok }

// Extract builds the Schema for tmpl. tmpl is expected to already be
// repetition-wrapped if it wasn't one originally; that top-level wrap
// happens before schema extraction runs, in internal/solver.
func Extract(tmpl template.Node) *Schema {
	s := &Schema{
		Order:  []template.TableID{template.RootTable},
		Parent: map[template.TableID]template.TableID{},
		symbols: map[template.TableID]map[symbol.Symbol]struct{}{
			template.RootTable: {},
		},
	}

	ensureTable := func(table, parent template.TableID) {
		if _, seen := s.symbols[table]; seen {
			return
		}
		s.Parent[table] = parent
		s.Order = append(s.Order, table)
		s.symbols[table] = map[symbol.Symbol]struct{}{}
	}

	w := walker.New(tagOf, []walker.Case[visit, struct{}]{
		{
			Match: isLiteral,
			Handle: func(v visit, walk walker.Continuation[visit, struct{}]) struct{} {
				return struct{}{}
			},
		},
		{
			Match: isSym,
			Handle: func(v visit, walk walker.Continuation[visit, struct{}]) struct{} {
				s.symbols[v.table][v.node.(*template.Sym).Symbol] = struct{}{}
				return struct{}{}
			},
		},
		{
			Match: isTransform,
			Handle: func(v visit, walk walker.Continuation[visit, struct{}]) struct{} {
				return walk(visit{node: v.node.(*template.Transform).Inner, table: v.table})
			},
		},
		{
			Match: isErrorHandler,
			Handle: func(v visit, walk walker.Continuation[visit, struct{}]) struct{} {
				return walk(visit{node: v.node.(*template.ErrorHandler).Inner, table: v.table})
			},
		},
		{
			Match: isContainer,
			Handle: func(v visit, walk walker.Continuation[visit, struct{}]) struct{} {
				fields := v.node.(*template.Container).Fields
				keys := make([]string, 0, len(fields))
				for k := range fields {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					walk(visit{node: fields[k], table: v.table})
				}
				return struct{}{}
			},
		},
		{
			Match: isRepetition,
			Handle: func(v visit, walk walker.Continuation[visit, struct{}]) struct{} {
				for _, elem := range v.node.(*template.Repetition).Elements {
					table := template.TableOf(elem)
					ensureTable(table, v.table)
					walk(visit{node: elem, table: table})
				}
				return struct{}{}
			},
		},
	})

	w.Walk(visit{node: tmpl, table: template.RootTable})
	return s
}
