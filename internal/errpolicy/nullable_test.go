package errpolicy

import (
	"testing"

	"github.com/oxhq/algex/internal/schema"
	"github.com/oxhq/algex/internal/symbol"
	"github.com/oxhq/algex/internal/template"
)

// fakeCtx is a minimal template.HandleContext for exercising Nullable
// without a real store.
type fakeCtx struct {
	size map[template.TableID]int
	rows map[template.TableID][]map[symbol.Symbol]any
}

func newFakeCtx() *fakeCtx {
	return &fakeCtx{size: map[template.TableID]int{}, rows: map[template.TableID][]map[symbol.Symbol]any{}}
}

func (f *fakeCtx) TableSize(t template.TableID) int { return f.size[t] }

func (f *fakeCtx) AppendRow(t template.TableID, row map[symbol.Symbol]any) error {
	f.size[t]++
	f.rows[t] = append(f.rows[t], row)
	return nil
}

func (f *fakeCtx) NextID(t template.TableID) int64 {
	if t == template.RootTable {
		return 1
	}
	return int64(f.size[t] + 1)
}

func TestNullableAppendsNullRowAndReturnsNoOuterSymbols(t *testing.T) {
	person := template.Map(map[string]template.Node{"name": template.Symbol("name")})
	guarded := template.List(person)
	policy := &Nullable{inner: schema.Extract(guarded)}

	ctx := newFakeCtx()
	bindings, err := policy.Handle(ctx, "parentTable", map[string]any{}, nil)
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(bindings) != 0 {
		t.Fatalf("a guarded repetition has no outer symbols, got %v", bindings)
	}

	personTable := template.TableOf(person)
	rows := ctx.rows[personTable]
	if len(rows) != 1 {
		t.Fatalf("expected exactly one null row in the guarded table, got %d", len(rows))
	}
	row := rows[0]
	if v, ok := row[symbol.New("name")]; !ok || v != nil {
		t.Fatalf("expected name to be present and nil, got %v (present=%v)", v, ok)
	}
	if row[symbol.ParentID] != int64(1) {
		t.Fatalf("expected parent row id 1 (ctx.NextID on the passed-in parentTable), got %v", row[symbol.ParentID])
	}
}

func TestNullableOrdersNestedTablesParentBeforeChild(t *testing.T) {
	inner := template.Map(map[string]template.Node{
		"y": template.Symbol("y"),
	})
	outer := template.Map(map[string]template.Node{
		"x":  template.Symbol("x"),
		"ys": template.List(inner),
	})
	guarded := template.List(outer)
	policy := &Nullable{inner: schema.Extract(guarded)}

	ctx := newFakeCtx()
	if _, err := policy.Handle(ctx, "parentTable", map[string]any{}, nil); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	outerTable := template.TableOf(outer)
	innerTable := template.TableOf(inner)

	if len(ctx.rows[outerTable]) != 1 || len(ctx.rows[innerTable]) != 1 {
		t.Fatalf("expected exactly one null row per introduced table")
	}
	// the nested table's row must point at the outer table's row, which by
	// now has size 1 (it was appended first).
	if ctx.rows[innerTable][0][symbol.ParentID] != int64(1) {
		t.Fatalf("expected nested row's parent id to be the outer row's id (1), got %v",
			ctx.rows[innerTable][0][symbol.ParentID])
	}
}
