package algex

import (
	"context"

	"github.com/oxhq/algex/internal/store"
	"github.com/oxhq/algex/internal/substitute"
	"github.com/oxhq/algex/internal/symbol"
	"github.com/oxhq/algex/internal/template"
)

// Source is the origin of bindings Substitute reassembles tmpl against:
// one fixed binding set, a sequence of binding sets, or a filled
// Intermediate.
type Source struct{ inner substitute.Source }

// FromBindings wraps one fixed name -> value binding set as a Source,
// yielding exactly one reassembled document.
func FromBindings(bindings map[string]any) Source {
	return Source{inner: substitute.Single(toSymbolMap(bindings))}
}

// FromBindingSequence wraps a sequence of binding sets as a Source,
// yielding one document per entry, in order.
func FromBindingSequence(sequence []map[string]any) Source {
	seq := make([]map[symbol.Symbol]any, len(sequence))
	for i, m := range sequence {
		seq[i] = toSymbolMap(m)
	}
	return Source{inner: substitute.FromSequence(seq)}
}

func storeSourceOf(st *store.Store) Source { return Source{inner: substitute.FromStore(st)} }

// Substitute reassembles tmpl once per binding yielded by source, using
// known to seed any symbols tmpl references that the source itself won't
// supply.
func Substitute(ctx context.Context, tmpl Node, source Source, known map[string]any) ([]any, error) {
	return substitute.Substitute(ctx, tmpl, source.inner, toSymbolMap(known))
}

func toSymbolMap(m map[string]any) map[symbol.Symbol]any {
	out := make(map[symbol.Symbol]any, len(m))
	for k, v := range m {
		out[symbol.New(k)] = v
	}
	return out
}

func tableIDOf(node Node) template.TableID { return template.TableOf(node) }
