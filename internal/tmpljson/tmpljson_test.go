package tmpljson_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/algex/internal/errpolicy"
	"github.com/oxhq/algex/internal/template"
	"github.com/oxhq/algex/internal/tmpljson"
)

func TestParseSymbol(t *testing.T) {
	n, err := tmpljson.Parse([]byte(`{"$sym": "name"}`))
	require.NoError(t, err)
	sym, ok := n.(*template.Sym)
	require.True(t, ok)
	require.Equal(t, "name", sym.Symbol.Name())
}

func TestParseContainer(t *testing.T) {
	n, err := tmpljson.Parse([]byte(`{"name": {"$sym": "name"}, "age": 10}`))
	require.NoError(t, err)
	c, ok := n.(*template.Container)
	require.True(t, ok)
	require.Len(t, c.Fields, 2)
	lit, ok := c.Fields["age"].(*template.Literal)
	require.True(t, ok)
	require.InDelta(t, 10, lit.Value, 0.001)
}

func TestParseRepetition(t *testing.T) {
	n, err := tmpljson.Parse([]byte(`[{"$sym": "name"}]`))
	require.NoError(t, err)
	rep, ok := n.(*template.Repetition)
	require.True(t, ok)
	require.Len(t, rep.Elements, 1)
}

func TestParseNullable(t *testing.T) {
	n, err := tmpljson.Parse([]byte(`{"$nullable": {"$sym": "name"}}`))
	require.NoError(t, err)
	eh, ok := n.(*template.ErrorHandler)
	require.True(t, ok)
	_, ok = eh.Policy.(*errpolicy.Nullable)
	require.True(t, ok)
}

func TestParseLiteralScalars(t *testing.T) {
	for _, raw := range []string{`"ct"`, `42`, `true`, `null`} {
		n, err := tmpljson.Parse([]byte(raw))
		require.NoError(t, err)
		_, ok := n.(*template.Literal)
		require.True(t, ok)
	}
}
