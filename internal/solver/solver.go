// Package solver implements the equation-rewriting walk that fills the
// intermediate store: a recursive descent driven by the template (lhs)
// node kind, with the data (rhs) carried alongside as a companion value.
package solver

import (
	"context"
	"errors"
	"reflect"
	"sort"

	"github.com/oxhq/algex/internal/model"
	"github.com/oxhq/algex/internal/symbol"
	"github.com/oxhq/algex/internal/template"
	"github.com/oxhq/algex/internal/walker"
)

// Store is the narrow capability the solver needs from the intermediate
// store — identical to what an error-handler policy needs, since both are
// just accumulating rows into tables as the walk proceeds.
type Store = template.HandleContext

type visit struct {
	node  template.Node
	rhs   any
	table template.TableID
}

type result struct {
	bindings map[symbol.Symbol]any
	err      error
}

// Solve walks tmpl against data in lockstep, emitting one row into store
// for every successful sub-match. tmpl is expected to already be
// repetition-wrapped if it wasn't one originally — that top-level wrap is
// the caller's responsibility (package algex), since the schema derived
// for store must already reflect it. Solve does not call store.Build or
// store.Finish; the caller owns the store's lifecycle.
func Solve(ctx context.Context, store Store, tmpl template.Node, data any) error {
	w := newWalker(store)
	res := w.Walk(visit{node: tmpl, rhs: data, table: template.RootTable})
	return res.err
}

func newWalker(store Store) *walker.Walker[visit, result] {
	return walker.New(tagOf, []walker.Case[visit, result]{
		{Match: isLiteral, Handle: handleLiteral},
		{Match: isSym, Handle: handleSymbol},
		{Match: isTransform, Handle: handleTransform},
		{Match: isErrorHandler, Handle: func(v visit, walk walker.Continuation[visit, result]) result {
			return handleErrorHandler(store, v, walk)
		}},
		{Match: isContainer, Handle: handleContainer},
		{Match: isRepetition, Handle: func(v visit, walk walker.Continuation[visit, result]) result {
			return handleRepetition(store, v, walk)
		}},
	})
}

func tagOf(v visit) reflect.Type { return reflect.TypeOf(v.node) }

func isLiteral(v visit) bool      { _, ok := v.node.(*template.Literal); return ok }
func isSym(v visit) bool          { _, ok := v.node.(*template.Sym); return ok }
func isTransform(v visit) bool    { _, ok := v.node.(*template.Transform); return ok }
func isErrorHandler(v visit) bool { _, ok := v.node.(*template.ErrorHandler); return ok }
func isContainer(v visit) bool    { _, ok := v.node.(*template.Container); return ok }
func isRepetition(v visit) bool   { _, ok := v.node.(*template.Repetition); return ok }

func handleLiteral(v visit, _ walker.Continuation[visit, result]) result {
	lit := v.node.(*template.Literal)
	if !reflect.DeepEqual(v.rhs, lit.Value) {
		return result{err: model.NoMatch("literal mismatch", lit.Value, v.rhs)}
	}
	return result{bindings: map[symbol.Symbol]any{}}
}

func handleSymbol(v visit, _ walker.Continuation[visit, result]) result {
	sym := v.node.(*template.Sym).Symbol
	return result{bindings: map[symbol.Symbol]any{sym: v.rhs}}
}

func handleTransform(v visit, walk walker.Continuation[visit, result]) result {
	tr := v.node.(*template.Transform)
	rhs, err := tr.Inverse.Apply(v.rhs)
	if err != nil {
		return result{err: err}
	}
	return walk(visit{node: tr.Inner, rhs: rhs, table: v.table})
}

func handleErrorHandler(store Store, v visit, walk walker.Continuation[visit, result]) result {
	eh := v.node.(*template.ErrorHandler)
	res := walk(visit{node: eh.Inner, rhs: v.rhs, table: v.table})
	if res.err == nil {
		return res
	}
	if !isNoMatch(res.err) {
		return res // user errors are not caught here
	}
	bindings, err := eh.Policy.Handle(store, v.table, v.rhs, res.err)
	if err != nil {
		return result{err: err}
	}
	return result{bindings: bindings}
}

func handleContainer(v visit, walk walker.Continuation[visit, result]) result {
	c := v.node.(*template.Container)

	var rhsMap map[string]any
	if v.rhs != nil {
		m, ok := v.rhs.(map[string]any)
		if !ok {
			return result{err: model.NoMatch("container template against non-map data", c, v.rhs)}
		}
		rhsMap = m
	}

	keys := make([]string, 0, len(c.Fields))
	for k := range c.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bindings := map[symbol.Symbol]any{}
	for _, k := range keys {
		res := walk(visit{node: c.Fields[k], rhs: rhsMap[k], table: v.table})
		if res.err != nil {
			return res
		}
		for sym, val := range res.bindings {
			if existing, exists := bindings[sym]; exists && !reflect.DeepEqual(existing, val) {
				return result{err: model.ErrKeyConflict}
			}
			bindings[sym] = val
		}
	}
	return result{bindings: bindings}
}

func handleRepetition(store Store, v visit, walk walker.Continuation[visit, result]) result {
	rep := v.node.(*template.Repetition)
	rhsList, ok := v.rhs.([]any)
	if !ok {
		return result{err: model.NoMatch("repetition template against non-list data", rep, v.rhs)}
	}

	parentTable := v.table
	parentRowID := store.NextID(parentTable)
	successes := make([]int, len(rep.Elements))

	for _, elem := range rhsList {
		for i, sub := range rep.Elements {
			table := template.TableOf(sub)
			res := walk(visit{node: sub, rhs: elem, table: table})
			if res.err != nil {
				if isNoMatch(res.err) {
					continue // filter idiom: this element just isn't a match for sub
				}
				return result{err: res.err}
			}

			row := map[symbol.Symbol]any{symbol.ParentID: parentRowID}
			for sym, val := range res.bindings {
				row[sym] = val
			}
			if err := store.AppendRow(table, row); err != nil {
				return result{err: err}
			}
			successes[i]++
		}
	}

	for i, n := range successes {
		if n == 0 {
			return result{err: model.NoMatch("repetition sub-template matched zero elements", rep.Elements[i], v.rhs)}
		}
	}

	return result{bindings: map[symbol.Symbol]any{}}
}

func isNoMatch(err error) bool {
	var nme *model.NoMatchError
	return errors.As(err, &nme) || errors.Is(err, model.ErrNoMatch)
}
