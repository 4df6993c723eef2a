package expr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dtfabric/expr"
	"dtfabric/mapctx"
)

func TestParseArithmeticPrecedence(t *testing.T) {
	e, err := expr.ParseArithmetic("a + b * c")
	require.NoError(t, err)

	ctx := mapctx.New("root")
	ctx.Set("a", int64(1))
	ctx.Set("b", int64(2))
	ctx.Set("c", int64(3))

	got, err := expr.Eval(e, ctx)
	require.NoError(t, err)
	require.Equal(t, int64(7), got) // a + (b * c), not (a + b) * c
}

func TestParseArithmeticDivisionTruncates(t *testing.T) {
	e, err := expr.ParseArithmetic("7 / 2")
	require.NoError(t, err)

	got, err := expr.Eval(e, mapctx.New("root"))
	require.NoError(t, err)
	require.Equal(t, int64(3), got)
}

func TestParseArithmeticParens(t *testing.T) {
	e, err := expr.ParseArithmetic("(a + b) * c")
	require.NoError(t, err)

	ctx := mapctx.New("root")
	ctx.Set("a", int64(1))
	ctx.Set("b", int64(2))
	ctx.Set("c", int64(3))

	got, err := expr.Eval(e, ctx)
	require.NoError(t, err)
	require.Equal(t, int64(9), got)
}

func TestParseConditionAndEval(t *testing.T) {
	e, err := expr.ParseCondition("version > 1")
	require.NoError(t, err)

	ctx := mapctx.New("root")
	ctx.Set("version", int64(1))

	ok, err := expr.EvalBool(e, ctx)
	require.NoError(t, err)
	require.False(t, ok)

	ctx.Set("version", int64(2))

	ok, err = expr.EvalBool(e, ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestParseArithmeticSyntaxError(t *testing.T) {
	_, err := expr.ParseArithmetic("1 +")
	require.Error(t, err)
}

func TestEvalUnboundPath(t *testing.T) {
	e, err := expr.ParseArithmetic("missing.path")
	require.NoError(t, err)

	_, err = expr.Eval(e, mapctx.New("root"))
	require.Error(t, err)
}

func TestConstValue(t *testing.T) {
	e, err := expr.ParseArithmetic("2 * (3 + 4)")
	require.NoError(t, err)

	v, ok := expr.ConstValue(e)
	require.True(t, ok)
	require.Equal(t, int64(14), v)

	e, err = expr.ParseArithmetic("a + 1")
	require.NoError(t, err)

	_, ok = expr.ConstValue(e)
	require.False(t, ok)
}

func TestDottedPathResolutionAcrossScopes(t *testing.T) {
	root := mapctx.New("sphere3d")
	root.Set("number_of_triangles", int64(2))

	child := root.Child("triangle")
	child.Set("index", int64(0))

	e, err := expr.ParseArithmetic("sphere3d.number_of_triangles")
	require.NoError(t, err)

	got, err := expr.Eval(e, child)
	require.NoError(t, err)
	require.Equal(t, int64(2), got)
}
