// Package substitute implements the template-driven reassembly pass
// (component F): given an output template and a source of bindings — a
// single binding map, a sequence of binding maps, or a filled intermediate
// store — it yields one reassembled document per binding.
package substitute

import (
	"context"
	"fmt"

	"github.com/oxhq/algex/internal/model"
	"github.com/oxhq/algex/internal/schema"
	"github.com/oxhq/algex/internal/store"
	"github.com/oxhq/algex/internal/symbol"
	"github.com/oxhq/algex/internal/template"
)

// Source is one of the three shapes accepted as substitute's second
// argument: a single binding map, a sequence of binding maps, or a
// filled intermediate store.
type Source interface{ isSource() }

type singleSource map[symbol.Symbol]any

func (singleSource) isSource() {}

// Single wraps one binding map as a Source.
func Single(bindings map[symbol.Symbol]any) Source { return singleSource(bindings) }

type sequenceSource []map[symbol.Symbol]any

func (sequenceSource) isSource() {}

// FromSequence wraps a sequence of binding maps as a Source.
func FromSequence(bindings []map[symbol.Symbol]any) Source { return sequenceSource(bindings) }

type storeSource struct{ st *store.Store }

func (storeSource) isSource() {}

// FromStore wraps a filled intermediate store as a Source.
func FromStore(st *store.Store) Source { return storeSource{st: st} }

// Substitute dispatches on the source kind, returning one reassembled
// document per yielded binding.
func Substitute(ctx context.Context, tmpl template.Node, source Source, known map[symbol.Symbol]any) ([]any, error) {
	switch src := source.(type) {
	case singleSource:
		doc, err := assign(ctx, tmpl, source, mergeKnown(known, map[symbol.Symbol]any(src)))
		if err != nil {
			return nil, err
		}
		return []any{doc}, nil

	case sequenceSource:
		out := make([]any, 0, len(src))
		for _, m := range src {
			doc, err := assign(ctx, tmpl, singleSource(m), mergeKnown(known, m))
			if err != nil {
				return nil, err
			}
			out = append(out, doc)
		}
		return out, nil

	case storeSource:
		outer := outerSymbols(tmpl)
		cur, err := src.st.Query(ctx, outer, known)
		if err != nil {
			return nil, err
		}
		defer cur.Close()

		var out []any
		for cur.Next() {
			row, err := cur.Scan()
			if err != nil {
				return nil, err
			}
			doc, err := assign(ctx, tmpl, source, mergeKnown(known, row))
			if err != nil {
				return nil, err
			}
			out = append(out, doc)
		}
		if err := cur.Err(); err != nil {
			return nil, err
		}
		return out, nil

	default:
		return nil, fmt.Errorf("substitute: unknown source kind %T", source)
	}
}

// assign walks (template, known_values), recursing into Substitute itself
// for Repetition nodes so that re-entry re-queries the source under the
// augmented known_values.
func assign(ctx context.Context, node template.Node, source Source, known map[symbol.Symbol]any) (any, error) {
	switch n := node.(type) {
	case *template.Literal:
		return n.Value, nil

	case *template.Sym:
		v, ok := known[n.Symbol]
		if !ok {
			return nil, model.ErrUnbound
		}
		return v, nil

	case *template.Transform:
		val, err := assign(ctx, n.Inner, source, known)
		if err != nil {
			return nil, err
		}
		return n.Forward.Apply(val)

	case *template.ErrorHandler:
		return assign(ctx, n.Inner, source, known)

	case *template.Container:
		out := make(map[string]any, len(n.Fields))
		for k, field := range n.Fields {
			val, err := assign(ctx, field, source, known)
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil

	case *template.Repetition:
		var all []any
		for _, sub := range n.Elements {
			docs, err := Substitute(ctx, sub, source, known)
			if err != nil {
				return nil, err
			}
			all = append(all, docs...)
		}
		return all, nil

	default:
		return nil, fmt.Errorf("substitute: unknown template node %T", node)
	}
}

// outerSymbols returns the symbols of tmpl reachable without crossing a
// repetition, reusing the schema extractor's own root-scope symbol
// directory — by definition, the symbols schema.Extract assigns to the
// synthetic root table of tmpl taken as its own scope.
func outerSymbols(tmpl template.Node) []symbol.Symbol {
	return schema.Extract(tmpl).SymbolsOf(template.RootTable)
}

func mergeKnown(base, extra map[symbol.Symbol]any) map[symbol.Symbol]any {
	out := make(map[symbol.Symbol]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
