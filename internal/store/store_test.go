package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/algex/internal/schema"
	"github.com/oxhq/algex/internal/store"
	"github.com/oxhq/algex/internal/symbol"
	"github.com/oxhq/algex/internal/template"
)

func openBuilt(t *testing.T, tmpl template.Node, opts store.Options) (*store.Store, *schema.Schema) {
	t.Helper()
	sch := schema.Extract(tmpl)
	db, err := store.OpenSQLite("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st, err := store.Build(db, sch, opts)
	require.NoError(t, err)
	return st, sch
}

func drain(t *testing.T, cur *store.Cursor) []map[symbol.Symbol]any {
	t.Helper()
	defer cur.Close()
	var out []map[symbol.Symbol]any
	for cur.Next() {
		row, err := cur.Scan()
		require.NoError(t, err)
		out = append(out, row)
	}
	require.NoError(t, cur.Err())
	return out
}

func TestAppendFinishQueryRoundTrips(t *testing.T) {
	name := template.Symbol("name")
	tmpl := template.List(template.Map(map[string]template.Node{"name": name}))
	st, _ := openBuilt(t, tmpl, store.Options{})

	person := tmpl.(*template.Repetition).Elements[0]
	table := template.TableOf(person)

	require.Equal(t, 0, st.Size(table))
	require.NoError(t, st.Append(table, map[symbol.Symbol]any{
		symbol.New("name"): "john",
		symbol.ParentID:    int64(1),
	}))
	require.Equal(t, 1, st.Size(table))
	require.NoError(t, st.Append(table, map[symbol.Symbol]any{
		symbol.New("name"): "abe",
		symbol.ParentID:    int64(1),
	}))

	require.NoError(t, st.Finish(context.Background()))

	cur, err := st.Query(context.Background(), []symbol.Symbol{symbol.New("name")}, nil)
	require.NoError(t, err)
	rows := drain(t, cur)
	require.Len(t, rows, 2)

	var names []string
	for _, r := range rows {
		names = append(names, r[symbol.New("name")].(string))
	}
	require.ElementsMatch(t, []string{"john", "abe"}, names)
}

func TestAppendAfterFinishIsRejected(t *testing.T) {
	tmpl := template.List(template.Map(map[string]template.Node{"x": template.Symbol("x")}))
	st, _ := openBuilt(t, tmpl, store.Options{})
	table := template.TableOf(tmpl.(*template.Repetition).Elements[0])

	require.NoError(t, st.Finish(context.Background()))
	err := st.Append(table, map[symbol.Symbol]any{symbol.ParentID: int64(1)})
	require.Error(t, err)
}

func TestRepeatedSymbolJoinConstrainsRows(t *testing.T) {
	names := template.Map(map[string]template.Node{
		"ssn":  template.Symbol("ssn"),
		"name": template.Symbol("name"),
	})
	hats := template.Map(map[string]template.Node{
		"ssn":   template.Symbol("ssn"),
		"color": template.Symbol("color"),
	})
	tmpl := template.Map(map[string]template.Node{
		"names": template.List(names),
		"hats":  template.List(hats),
	})
	st, _ := openBuilt(t, tmpl, store.Options{})

	namesTable := template.TableOf(names)
	hatsTable := template.TableOf(hats)

	require.NoError(t, st.Append(namesTable, map[symbol.Symbol]any{
		symbol.New("ssn"): "111", symbol.New("name"): "john", symbol.ParentID: int64(1),
	}))
	require.NoError(t, st.Append(namesTable, map[symbol.Symbol]any{
		symbol.New("ssn"): "222", symbol.New("name"): "abe", symbol.ParentID: int64(1),
	}))
	require.NoError(t, st.Append(hatsTable, map[symbol.Symbol]any{
		symbol.New("ssn"): "111", symbol.New("color"): "red", symbol.ParentID: int64(1),
	}))
	require.NoError(t, st.Append(hatsTable, map[symbol.Symbol]any{
		symbol.New("ssn"): "222", symbol.New("color"): "blue", symbol.ParentID: int64(1),
	}))
	// An unmatched ssn must not appear in the joined result.
	require.NoError(t, st.Append(hatsTable, map[symbol.Symbol]any{
		symbol.New("ssn"): "999", symbol.New("color"): "green", symbol.ParentID: int64(1),
	}))

	require.NoError(t, st.Finish(context.Background()))

	cur, err := st.Query(context.Background(), []symbol.Symbol{
		symbol.New("name"), symbol.New("ssn"), symbol.New("color"),
	}, nil)
	require.NoError(t, err)
	rows := drain(t, cur)
	require.Len(t, rows, 2, "the unmatched ssn row must not produce a cross-product match")
}

func TestDeclaredColumnTypeBypassesCodec(t *testing.T) {
	tmpl := template.List(template.Map(map[string]template.Node{"age": template.Symbol("age")}))
	st, _ := openBuilt(t, tmpl, store.Options{ColumnTypes: map[string]store.ColumnType{"age": store.ColumnInt}})
	table := template.TableOf(tmpl.(*template.Repetition).Elements[0])

	require.NoError(t, st.Append(table, map[symbol.Symbol]any{
		symbol.New("age"): int64(42), symbol.ParentID: int64(1),
	}))
	require.NoError(t, st.Finish(context.Background()))

	cur, err := st.Query(context.Background(), []symbol.Symbol{symbol.New("age")}, nil)
	require.NoError(t, err)
	rows := drain(t, cur)
	require.Len(t, rows, 1)
	require.Equal(t, int64(42), rows[0][symbol.New("age")])
}

func TestKnownValuesFilterQuery(t *testing.T) {
	tmpl := template.List(template.Map(map[string]template.Node{
		"state": template.Symbol("state"), "name": template.Symbol("name"),
	}))
	st, _ := openBuilt(t, tmpl, store.Options{})
	table := template.TableOf(tmpl.(*template.Repetition).Elements[0])

	require.NoError(t, st.Append(table, map[symbol.Symbol]any{
		symbol.New("state"): "CT", symbol.New("name"): "a", symbol.ParentID: int64(1),
	}))
	require.NoError(t, st.Append(table, map[symbol.Symbol]any{
		symbol.New("state"): "WA", symbol.New("name"): "b", symbol.ParentID: int64(1),
	}))
	require.NoError(t, st.Finish(context.Background()))

	cur, err := st.Query(context.Background(), []symbol.Symbol{symbol.New("name")}, map[symbol.Symbol]any{
		symbol.New("state"): "CT",
	})
	require.NoError(t, err)
	rows := drain(t, cur)
	require.Len(t, rows, 1)
	require.Equal(t, "a", rows[0][symbol.New("name")])
}
