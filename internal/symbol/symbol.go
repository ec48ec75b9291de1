// Package symbol implements the named free variables that templates bind
// and the solver's equations carry. Two symbols compare and hash equal iff
// their names match; internal symbols are a distinguished subkind used for
// engine bookkeeping (root, table identities, parent-id columns) and are
// never surfaced in user-visible query results.
package symbol

import "github.com/google/uuid"

// Symbol is a named free variable. It is a plain string wrapper rather than
// a pointer so that Symbol values are directly usable as map keys.
type Symbol struct {
	name     string
	internal bool
}

// New returns a user-visible symbol with the given name.
func New(name string) Symbol {
	return Symbol{name: name}
}

// NewInternal returns an internal symbol bound to the given string. Internal
// symbols are excluded from query results that enumerate "everything".
func NewInternal(name string) Symbol {
	return Symbol{name: name, internal: true}
}

// Fresh mints an internal symbol with a unique, process-wide name.
func Fresh() Symbol {
	return Symbol{name: uuid.NewString(), internal: true}
}

// Name returns the symbol's string name.
func (s Symbol) Name() string { return s.name }

// Internal reports whether this symbol is an internal (engine-generated) one.
func (s Symbol) Internal() bool { return s.internal }

func (s Symbol) String() string {
	if s.internal {
		return "~" + s.name
	}
	return s.name
}

// Root is the distinguished internal symbol naming the singleton root table.
var Root = NewInternal("root")

// ParentID is the internal symbol used for the parent-id column carried by
// every table except root.
var ParentID = NewInternal("_parent_id")
