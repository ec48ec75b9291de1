// Package template defines the four node kinds (plus the ErrorHandler
// capability) that make up a template AST. A template is built from these
// nodes via the constructor functions below; node identity is the pointer
// identity of the value returned by a constructor, which is what the
// schema extractor (internal/schema) uses to tell apart two syntactically
// identical but distinct occurrences of the same sub-template.
package template

import (
	"fmt"

	"github.com/oxhq/algex/internal/symbol"
)

// Node is the discriminated union of template variants. All constructors in
// this file return pointer types, so two Nodes compare equal (==) only when
// they are literally the same constructed value: identity is structural for
// symbols (by name, via symbol.Symbol) and nominal for transforms (by
// pointer, since arbitrary functions are not comparable).
type Node interface {
	isNode()
}

// Literal matches by host equality: the rhs must equal Value.
type Literal struct{ Value any }

func (*Literal) isNode() {}

// Lit wraps a host value as a literal template node.
func Lit(value any) Node { return &Literal{Value: value} }

// Sym binds its matched value to the given symbol's name.
type Sym struct{ Symbol symbol.Symbol }

func (*Sym) isNode() {}

// Symbol constructs a user-visible symbol node.
func Symbol(name string) Node { return &Sym{Symbol: symbol.New(name)} }

// Container matches a keyed map; every key must be present in the data
// (missing keys yield null for that sub-template unless intercepted by an
// error handler).
type Container struct{ Fields map[string]Node }

func (*Container) isNode() {}

// Map constructs a container template node.
func Map(fields map[string]Node) Node { return &Container{Fields: fields} }

// Repetition matches an ordered list of sub-templates against each element
// of a rhs list; every sub-template must match at least one element.
type Repetition struct{ Elements []Node }

func (*Repetition) isNode() {}

// List constructs a repetition template node from its sub-templates.
func List(elements ...Node) Node { return &Repetition{Elements: elements} }

// Func is a forward or inverse function used by Transform. It may wrap a
// Go function or a finite map (domain -> codomain); the zero value is the
// identity function. Because arbitrary Go functions are not comparable,
// Func carries no equality method of its own — Transform nodes compare by
// pointer identity instead (see the package doc).
type Func struct {
	Call func(any) (any, error)
	Map  map[any]any
}

// Identity returns the identity Func.
func Identity() Func { return Func{} }

// FromFunc wraps a plain Go function as a Func.
func FromFunc(f func(any) (any, error)) Func { return Func{Call: f} }

// FromMap wraps a finite map as a Func.
func FromMap(m map[any]any) Func { return Func{Map: m} }

// Apply evaluates the function against v.
func (f Func) Apply(v any) (any, error) {
	if f.Map != nil {
		out, ok := f.Map[v]
		if !ok {
			return nil, fmt.Errorf("transform: value %v is not in the function's domain", v)
		}
		return out, nil
	}
	if f.Call != nil {
		return f.Call(v)
	}
	return v, nil
}

// Transform pre-processes rhs via Inverse then matches Inner during solve;
// during substitute it post-processes the assigned value via Forward.
// Forward and Inverse default to identity.
type Transform struct {
	Inner   Node
	Forward Func
	Inverse Func
}

func (*Transform) isNode() {}

// Wrap constructs a transform node. Either function may be nil, in which
// case it defaults to identity.
func Wrap(inner Node, forward, inverse *Func) Node {
	t := &Transform{Inner: inner, Forward: Identity(), Inverse: Identity()}
	if forward != nil {
		t.Forward = *forward
	}
	if inverse != nil {
		t.Inverse = *inverse
	}
	return t
}

// TableID identifies a table in the intermediate's table tree. It is
// either the sentinel RootTable or the pointer identity of a Node that sits
// directly inside a Repetition's Elements (see internal/schema).
type TableID = any

// rootTableID is the type of RootTable, the distinguished identity of the
// singleton root table.
type rootTableID struct{}

// RootTable is the TableID of the always-present root table.
var RootTable TableID = rootTableID{}

// TableOf returns the TableID that rows matched by n (a sub-template that
// is a direct element of some Repetition) are written to. Node values are
// always pointer types, so a Node used as a map key already compares by
// pointer identity: two distinct occurrences of an otherwise-identical
// sub-template are never aliased to the same table.
func TableOf(n Node) TableID {
	return n
}

// HandleContext is the narrow view of the intermediate store that an
// ErrorHandler policy needs: how many rows a table currently has (to link
// a fallback row to its parent), and the ability to append a fallback row.
type HandleContext interface {
	TableSize(t TableID) int
	AppendRow(t TableID, row map[symbol.Symbol]any) error

	// NextID returns the id that table's currently-in-flight row will
	// receive once its enclosing match appends it — root's singleton row
	// always has id 1; every other table's next row is one past its
	// current size. Callers use this as the explicit _parent_id value for
	// rows appended into tables nested one level deeper, avoiding any
	// reliance on database auto-increment.
	NextID(t TableID) int64
}

// Policy is the capability invoked when an ErrorHandler's Inner fails to
// match. Nullable (internal/errpolicy) is the only implementation; the
// interface is kept here (rather than importing errpolicy) so that
// template has no dependency on the schema/store packages that Nullable
// itself needs.
type Policy interface {
	// Handle is invoked with the match failure, the parent table the
	// enclosing equation was being written into, and the rhs value that
	// failed to match. It returns the outer-scope bindings Inner would
	// have produced had it succeeded.
	Handle(ctx HandleContext, parentTable TableID, rhs any, cause error) (map[symbol.Symbol]any, error)
}

// ErrorHandler attempts to match Inner; on failure it invokes Policy, which
// may synthesise a fallback row set.
type ErrorHandler struct {
	Inner  Node
	Policy Policy
}

func (*ErrorHandler) isNode() {}

// Handle constructs an error-handler node wrapping inner with policy.
func Handle(inner Node, policy Policy) Node {
	return &ErrorHandler{Inner: inner, Policy: policy}
}
