package solver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/algex/internal/errpolicy"
	"github.com/oxhq/algex/internal/schema"
	"github.com/oxhq/algex/internal/solver"
	"github.com/oxhq/algex/internal/store"
	"github.com/oxhq/algex/internal/symbol"
	"github.com/oxhq/algex/internal/template"
)

func newStore(t *testing.T, tmpl template.Node) *store.Store {
	t.Helper()
	sch := schema.Extract(tmpl)
	db, err := store.OpenSQLite("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st, err := store.Build(db, sch, store.Options{})
	require.NoError(t, err)
	return st
}

func TestTwoMatches(t *testing.T) {
	name := template.Symbol("name")
	person := template.Map(map[string]template.Node{"name": name})
	tmpl := template.List(person)
	st := newStore(t, tmpl)

	data := []any{
		map[string]any{"name": "john"},
		map[string]any{"name": "abe"},
	}
	require.NoError(t, solver.Solve(context.Background(), st, tmpl, data))
	require.NoError(t, st.Finish(context.Background()))

	table := template.TableOf(person)
	require.Equal(t, 2, st.Size(table))

	cur, err := st.Query(context.Background(), []symbol.Symbol{symbol.New("name")}, nil)
	require.NoError(t, err)
	defer cur.Close()
	var names []string
	for cur.Next() {
		row, err := cur.Scan()
		require.NoError(t, err)
		names = append(names, row[symbol.New("name")].(string))
	}
	require.ElementsMatch(t, []string{"john", "abe"}, names)
}

func TestFilterIdiom(t *testing.T) {
	elem := template.Map(map[string]template.Node{
		"state": template.Lit("CT"),
		"name":  template.Symbol("name"),
	})
	tmpl := template.List(elem)
	st := newStore(t, tmpl)

	data := []any{
		map[string]any{"state": "CT", "name": "a"},
		map[string]any{"state": "WA", "name": "b"},
	}
	require.NoError(t, solver.Solve(context.Background(), st, tmpl, data))
	require.NoError(t, st.Finish(context.Background()))

	table := template.TableOf(elem)
	require.Equal(t, 1, st.Size(table), "only the CT row should have matched")
}

func TestZeroMatchesRaisesNoMatch(t *testing.T) {
	elem := template.Map(map[string]template.Node{"state": template.Lit("CT")})
	tmpl := template.List(elem)
	st := newStore(t, tmpl)

	data := []any{map[string]any{"state": "WA"}}
	err := solver.Solve(context.Background(), st, tmpl, data)
	require.Error(t, err)
}

func TestJoinOnRepeatedSymbol(t *testing.T) {
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
	st := newStore(t, tmpl)

	data := map[string]any{
		"names": []any{
			map[string]any{"ssn": "111", "name": "john"},
			map[string]any{"ssn": "222", "name": "abe"},
		},
		"hats": []any{
			map[string]any{"ssn": "111", "color": "red"},
			map[string]any{"ssn": "222", "color": "blue"},
		},
	}
	require.NoError(t, solver.Solve(context.Background(), st, tmpl, data))
	require.NoError(t, st.Finish(context.Background()))

	cur, err := st.Query(context.Background(), []symbol.Symbol{
		symbol.New("name"), symbol.New("ssn"), symbol.New("color"),
	}, nil)
	require.NoError(t, err)
	defer cur.Close()
	count := 0
	for cur.Next() {
		_, err := cur.Scan()
		require.NoError(t, err)
		count++
	}
	require.Equal(t, 2, count, "exactly two rows, not the four of a naive cross-product")
}

func TestNullableSurvivesMissingBranch(t *testing.T) {
	inner := template.List(template.Map(map[string]template.Node{"name": template.Symbol("name")}))
	guarded := errpolicy.New(inner)
	person := template.Map(map[string]template.Node{"person": guarded})
	tmpl := template.List(person)
	st := newStore(t, tmpl)

	data := []any{map[string]any{}}
	require.NoError(t, solver.Solve(context.Background(), st, tmpl, data))
	require.NoError(t, st.Finish(context.Background()))

	require.Equal(t, 1, st.Size(template.TableOf(person)))
}
