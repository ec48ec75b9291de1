// Package algex implements a symbolic algebra over nested records: match a
// template against data to bind named symbols, then substitute those
// bindings into another template to reshape the data. The same symbol
// appearing in multiple positions forces an equality constraint (a join);
// symbols inside repeated (list) positions produce a cross-product of
// rows. This lets tasks normally written as ad-hoc loops — pivoting,
// joining on shared keys, filtering, unit conversions — be expressed
// declaratively as a pair of tree-shaped templates.
package algex

import (
	"github.com/oxhq/algex/internal/errpolicy"
	"github.com/oxhq/algex/internal/store"
	"github.com/oxhq/algex/internal/template"
)

// Node is a template AST node, as built by Sym, Lit, Map, List, Transform,
// and Nullable.
type Node = template.Node

// Func is a forward or inverse transform function; it may wrap a plain Go
// function or a finite map (domain -> codomain). The zero value is the
// identity function.
type Func = template.Func

// Identity returns the identity Func.
func Identity() Func { return template.Identity() }

// FuncFromMap wraps a finite map as a Func.
func FuncFromMap(m map[any]any) Func { return template.FromMap(m) }

// FuncFromCall wraps a plain Go function as a Func.
func FuncFromCall(f func(any) (any, error)) Func { return template.FromFunc(f) }

// Sym constructs a symbol template node that binds its matched value to
// name.
func Sym(name string) Node { return template.Symbol(name) }

// Lit constructs a literal template node matching by host equality.
func Lit(value any) Node { return template.Lit(value) }

// Map constructs a container template node matching a keyed map.
func Map(fields map[string]Node) Node { return template.Map(fields) }

// List constructs a repetition template node matching an ordered list.
func List(elements ...Node) Node { return template.List(elements...) }

// Transform wraps inner so that, during solve, data is pre-processed via
// inverse before matching inner; during substitute, the assigned value is
// post-processed via forward. Either may be nil, defaulting to identity.
func Transform(inner Node, forward, inverse *Func) Node { return template.Wrap(inner, forward, inverse) }

// Nullable wraps inner so that a failed match is replaced by an all-null
// binding instead of propagating NoMatch.
func Nullable(inner Node) Node { return errpolicy.New(inner) }

// ColumnType names a symbol's declared storage type, bypassing the
// store's value-encoding surrogate for that column.
type ColumnType = store.ColumnType

const (
	ColumnAuto ColumnType = store.ColumnAuto
	ColumnText ColumnType = store.ColumnText
	ColumnInt  ColumnType = store.ColumnInt
	ColumnReal ColumnType = store.ColumnReal
	ColumnBool ColumnType = store.ColumnBool
)
