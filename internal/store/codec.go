package store

import "reflect"

// codec lazily assigns integer surrogates to host values that aren't
// columns of a declared type, so that the relational backend (which only
// needs to compare surrogates for equality) can join on them without
// knowing anything about the host's value domain. Hashable values are
// deduplicated so that two equal values anywhere in the solve — even
// across tables — share one surrogate, which is what makes a repeated
// symbol's equi-join constraint (owner.col = other.col) work over
// surrogate columns. Values that aren't comparable (slices, maps,
// functions) can't be deduplicated, so each mints a fresh surrogate; the
// spec requires repeated symbols to be hashable, so this only affects
// values that are never join keys.
type codec struct {
	next   int64
	encode map[any]int64
	decode map[int64]any
}

func newCodec() *codec {
	return &codec{
		next:   1,
		encode: map[any]int64{},
		decode: map[int64]any{},
	}
}

func (c *codec) Encode(v any) int64 {
	if v != nil && isComparable(v) {
		if id, ok := c.encode[v]; ok {
			return id
		}
		id := c.next
		c.next++
		c.encode[v] = id
		c.decode[id] = v
		return id
	}
	id := c.next
	c.next++
	c.decode[id] = v
	return id
}

func (c *codec) Decode(id int64) any { return c.decode[id] }

func isComparable(v any) bool {
	t := reflect.TypeOf(v)
	return t != nil && t.Comparable()
}
