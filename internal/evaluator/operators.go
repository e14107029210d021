package evaluator

import (
	"fmt"

	"github.com/funvibe/logex/internal/value"
)

// ApplyPrefix evaluates a unary operator.
func ApplyPrefix(op string, right value.Value) (value.Value, error) {
	switch op {
	case "-":
		return value.Neg(right)
	case "+":
		if !right.IsNumber() {
			return value.Value{}, fmt.Errorf("%w: unary + on %s", value.ErrType, right.Type())
		}
		return right, nil
	case "!":
		return value.Bool(!right.Truthy()), nil
	case "~":
		return value.BitNot(right)
	}
	return value.Value{}, fmt.Errorf("unknown operator: %s", op)
}

// ApplyInfix evaluates a binary operator under limits. Both operands are
// always evaluated by the caller; the logical layers do not short-circuit.
func ApplyInfix(limits value.Limits, op string, left, right value.Value) (value.Value, error) {
	switch op {
	case "+":
		return limits.Add(left, right)
	case "-":
		return limits.Sub(left, right)
	case "*":
		return limits.Mul(left, right)
	case "/":
		return limits.Div(left, right, limits.Precision)
	case "%":
		return limits.Mod(left, right)
	case "**":
		return limits.Pow(left, right, limits.Precision)

	case "==", "!=":
		if left.Type() != right.Type() {
			return value.Value{}, fmt.Errorf("%w: %s on %s and %s", value.ErrType, op, left.Type(), right.Type())
		}
		eq := value.Equal(left, right)
		return value.Bool(eq == (op == "==")), nil
	case "<", "<=", ">", ">=":
		c, err := value.Compare(left, right)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(ordered(op, c)), nil

	case "<<":
		return limits.ShiftLeft(left, right)
	case ">>":
		return value.ShiftRight(left, right)

	case "&":
		return value.BitAnd(left, right)
	case "^":
		if left.IsBitmap() && right.IsBitmap() {
			return value.BitXor(left, right)
		}
		return value.Bool(left.Truthy() && right.Truthy()), nil
	case "|":
		return value.BitOr(left, right)
	case "v":
		return value.Bool(left.Truthy() || right.Truthy()), nil

	case "→":
		return value.Bool(!left.Truthy() || right.Truthy()), nil
	case "↔":
		return value.Bool(left.Truthy() == right.Truthy()), nil
	case "⊽":
		return value.Bool(left.Truthy() != right.Truthy()), nil
	}
	return value.Value{}, fmt.Errorf("unknown operator: %s", op)
}

func ordered(op string, c int) bool {
	switch op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	}
	return c >= 0
}
