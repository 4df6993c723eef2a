package expr

import (
	"fmt"

	"dtfabric/dterr"
	"dtfabric/mapctx"
)

// Eval evaluates an arithmetic expression against ctx and returns an
// integer. Evaluation is eager and left-to-right with standard precedence;
// the AST already encodes precedence from parsing, so Eval is a direct
// recursive walk.
func Eval(e Expr, ctx *mapctx.Context) (int64, error) {
	switch v := e.(type) {
	case Const:
		return v.Value, nil

	case Path:
		value, ok := ctx.Get(v.String())
		if !ok {
			return 0, dterr.New(dterr.KindUnboundExpressionPath, "", v.String(),
				"path %q is not bound in the current context", v.String())
		}

		n, err := toInt64(value)
		if err != nil {
			return 0, dterr.New(dterr.KindUnboundExpressionPath, "", v.String(), "%v", err)
		}

		return n, nil

	case Binary:
		if v.Op.isComparison() {
			return 0, fmt.Errorf("comparison operator %s is not valid in an integer expression", v.Op)
		}

		l, err := Eval(v.Left, ctx)
		if err != nil {
			return 0, err
		}

		r, err := Eval(v.Right, ctx)
		if err != nil {
			return 0, err
		}

		result, ok := applyArith(v.Op, l, r)
		if !ok {
			return 0, fmt.Errorf("division by zero in expression %s", v)
		}

		return result, nil

	default:
		return 0, fmt.Errorf("unsupported expression node %T", e)
	}
}

// EvalBool evaluates a condition expression (a top-level comparison) against
// ctx and returns its boolean result.
func EvalBool(e Expr, ctx *mapctx.Context) (bool, error) {
	b, ok := e.(Binary)
	if !ok || !b.Op.isComparison() {
		return false, fmt.Errorf("expression %s is not a condition", e)
	}

	l, err := Eval(b.Left, ctx)
	if err != nil {
		return false, err
	}

	r, err := Eval(b.Right, ctx)
	if err != nil {
		return false, err
	}

	switch b.Op {
	case OpEq:
		return l == r, nil
	case OpNe:
		return l != r, nil
	case OpLt:
		return l < r, nil
	case OpLe:
		return l <= r, nil
	case OpGt:
		return l > r, nil
	case OpGe:
		return l >= r, nil
	default:
		return false, fmt.Errorf("unknown comparison operator %s", b.Op)
	}
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}

		return 0, nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not numeric", value, value)
	}
}
