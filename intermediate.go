package algex

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/oxhq/algex/internal/store"
	"github.com/oxhq/algex/internal/symbol"
)

// Intermediate is a filled, read-only store returned by Solve. It owns
// the underlying database handle; callers must Close it when done.
type Intermediate struct {
	store *store.Store
	db    *sql.DB
}

// Close releases the intermediate's backing database handle.
func (im *Intermediate) Close() error { return im.db.Close() }

// Size returns the row count of the table the given template node solved
// into.
func (im *Intermediate) Size(node Node) int {
	return im.store.Size(tableIDOf(node))
}

// Iterate enumerates every bound solution, excluding internal bookkeeping
// symbols, as a flat symbol-name -> value map per row.
func (im *Intermediate) Iterate(ctx context.Context) (iter.Seq[map[string]any], error) {
	cur, err := im.store.Query(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	return func(yield func(map[string]any) bool) {
		defer cur.Close()
		for cur.Next() {
			row, err := cur.Scan()
			if err != nil {
				return
			}
			if !yield(fromSymbolMap(row)) {
				return
			}
		}
	}, nil
}

// GetSingle returns the one solution bound across the whole store, raising
// if zero or more than one exists.
func (im *Intermediate) GetSingle(ctx context.Context) (map[string]any, error) {
	cur, err := im.store.Query(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	if !cur.Next() {
		return nil, fmt.Errorf("algex: get_single: expected exactly one result, got none")
	}
	row, err := cur.Scan()
	if err != nil {
		return nil, err
	}
	if cur.Next() {
		return nil, fmt.Errorf("algex: get_single: expected exactly one result, got more than one")
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return fromSymbolMap(row), nil
}

// AsSource adapts the intermediate into a Source suitable for Substitute.
func (im *Intermediate) AsSource() Source { return storeSourceOf(im.store) }

func fromSymbolMap(row map[symbol.Symbol]any) map[string]any {
	out := make(map[string]any, len(row))
	for sym, v := range row {
		out[sym.Name()] = v
	}
	return out
}
