package modules

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/funvibe/logex/internal/evaluator"
	"github.com/funvibe/logex/internal/value"
)

const (
	piDigits  = "3.14159265358979323846264338327950288419716939937510"
	eDigits   = "2.71828182845904523536028747135266249775724709369995"
	phiDigits = "1.61803398874989484820458683436563811772030917980576"
)

func mathPackage() *Package {
	exact := func(name string, min, max int, impl evaluator.NativeFunc, doc string) *evaluator.Function {
		return &evaluator.Function{Name: name, MinArgs: min, MaxArgs: max, Impl: impl, Doc: doc}
	}
	float1 := func(name string, f func(float64) float64, doc string) *evaluator.Function {
		return exact(name, 1, 1, floatFunc(name, f), doc)
	}

	pi := mustParse(piDigits)
	e := mustParse(eDigits)
	phi := mustParse(phiDigits)

	return &Package{
		Name: "math",
		Functions: []*evaluator.Function{
			float1("sin", math.Sin, "sin(x)"),
			float1("cos", math.Cos, "cos(x)"),
			float1("tan", math.Tan, "tan(x)"),
			float1("asin", math.Asin, "asin(x)"),
			float1("acos", math.Acos, "acos(x)"),
			float1("atan", math.Atan, "atan(x)"),
			exact("atan2", 2, 2, mathAtan2, "atan2(y, x)"),
			float1("exp", math.Exp, "e ** x"),
			float1("ln", math.Log, "natural logarithm"),
			exact("log", 1, 2, mathLog, "log(x) base 10, or log(x, base)"),
			float1("log10", math.Log10, "base 10 logarithm"),
			float1("log2", math.Log2, "base 2 logarithm"),
			float1("cbrt", math.Cbrt, "cube root"),

			exact("sqrt", 1, 1, mathSqrt, "square root, exact to the working precision"),
			exact("floor", 1, 1, mathFloor, "largest integer <= x"),
			exact("ceil", 1, 1, mathCeil, "smallest integer >= x"),
			exact("round", 1, 1, mathRound, "nearest integer, halves away from zero"),
			exact("trunc", 1, 1, mathTrunc, "integer part of x"),
			exact("abs", 1, 1, mathAbs, "|x|"),
			exact("sign", 1, 1, mathSign, "-1, 0 or 1"),
			exact("max", 1, evaluator.Variadic, mathExtreme("max", 1), "max(a, b, ...)"),
			exact("min", 1, evaluator.Variadic, mathExtreme("min", -1), "min(a, b, ...)"),
		},
		Constants: map[string]value.Value{
			"pi":  pi,
			"π":   pi,
			"e":   e,
			"phi": phi,
			"φ":   phi,
		},
	}
}

func mustParse(s string) value.Value {
	v, err := value.ParseNumber(s)
	if err != nil {
		panic(fmt.Sprintf("modules: bad constant %q: %v", s, err))
	}
	return v
}

func toFloat(fn string, v value.Value) (float64, error) {
	if !v.IsNumber() {
		return 0, fmt.Errorf("%w: %s on %s", value.ErrType, fn, v.Type())
	}
	f, err := strconv.ParseFloat(v.Format(30), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %s does not fit a float", value.ErrDomain, fn, v)
	}
	return f, nil
}

// fromFloat converts a float result back, cut to the working precision.
func fromFloat(fn string, f float64, limits value.Limits) (value.Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return value.Value{}, fmt.Errorf("%w: %s result is not finite", value.ErrDomain, fn)
	}
	v, err := limits.ParseNumber(strconv.FormatFloat(f, 'f', -1, 64))
	if err != nil {
		return value.Value{}, err
	}
	return limits.Div(v, value.FromInt(1), limits.Precision)
}

func floatFunc(name string, f func(float64) float64) evaluator.NativeFunc {
	return func(args []value.Value, limits value.Limits) (value.Value, error) {
		x, err := toFloat(name, args[0])
		if err != nil {
			return value.Value{}, err
		}
		return fromFloat(name, f(x), limits)
	}
}

func mathAtan2(args []value.Value, limits value.Limits) (value.Value, error) {
	y, err := toFloat("atan2", args[0])
	if err != nil {
		return value.Value{}, err
	}
	x, err := toFloat("atan2", args[1])
	if err != nil {
		return value.Value{}, err
	}
	return fromFloat("atan2", math.Atan2(y, x), limits)
}

func mathLog(args []value.Value, limits value.Limits) (value.Value, error) {
	x, err := toFloat("log", args[0])
	if err != nil {
		return value.Value{}, err
	}
	if len(args) == 1 {
		return fromFloat("log", math.Log10(x), limits)
	}
	base, err := toFloat("log", args[1])
	if err != nil {
		return value.Value{}, err
	}
	if base <= 0 || base == 1 {
		return value.Value{}, fmt.Errorf("%w: log base %s", value.ErrDomain, args[1])
	}
	return fromFloat("log", math.Log(x)/math.Log(base), limits)
}

func pow10(n int) value.Value {
	v, _ := value.FromDigits("1"+strings.Repeat("0", n), 0, false)
	return v
}

// isqrt returns floor(sqrt(n)) for a non-negative integer n by Newton's
// method, starting above the root.
func isqrt(n value.Value) (value.Value, error) {
	if n.IsZero() {
		return n, nil
	}
	intDigits := len(n.Digits()) - n.DecimalPos()
	x := pow10((intDigits + 1) / 2)
	two := value.FromInt(2)
	for {
		q, err := value.Div(n, x, 0)
		if err != nil {
			return value.Value{}, err
		}
		sum, err := value.Add(x, q)
		if err != nil {
			return value.Value{}, err
		}
		y, err := value.Div(sum, two, 0)
		if err != nil {
			return value.Value{}, err
		}
		if c, _ := value.Compare(y, x); c >= 0 {
			return x, nil
		}
		x = y
	}
}

// mathSqrt computes floor(sqrt(x * 10^2p)) / 10^p, so perfect squares are exact.
func mathSqrt(args []value.Value, limits value.Limits) (value.Value, error) {
	precision := limits.Precision
	x, err := numberArg("sqrt", args, 0)
	if err != nil {
		return value.Value{}, err
	}
	if x.Negative() && !x.IsZero() {
		return value.Value{}, fmt.Errorf("%w: sqrt of negative %s", value.ErrDomain, x)
	}
	scaled, err := limits.Mul(x, pow10(2*precision))
	if err != nil {
		return value.Value{}, err
	}
	scaled, err = value.Div(scaled, value.FromInt(1), 0)
	if err != nil {
		return value.Value{}, err
	}
	root, err := isqrt(scaled)
	if err != nil {
		return value.Value{}, err
	}
	return limits.Div(root, pow10(precision), precision)
}

// split returns the integer part of x, whether x has a fraction and the
// first fractional digit.
func split(x value.Value) (value.Value, bool, byte, error) {
	d := x.Digits()
	n := len(d) - x.DecimalPos()
	intPart := "0"
	if n > 0 {
		intPart = d[:n]
	}
	var first byte = '0'
	if x.DecimalPos() > 0 && n >= 0 {
		first = d[n]
	}
	v, err := value.FromDigits(intPart, 0, x.Negative())
	return v, x.DecimalPos() > 0, first, err
}

func rounding(name string, adjust func(neg, frac bool, first byte) int) evaluator.NativeFunc {
	return func(args []value.Value, _ value.Limits) (value.Value, error) {
		x, err := numberArg(name, args, 0)
		if err != nil {
			return value.Value{}, err
		}
		t, frac, first, err := split(x)
		if err != nil {
			return value.Value{}, err
		}
		if step := adjust(x.Negative(), frac, first); step != 0 {
			return value.Add(t, value.FromInt(int64(step)))
		}
		return t, nil
	}
}

var (
	mathTrunc = rounding("trunc", func(bool, bool, byte) int { return 0 })
	mathFloor = rounding("floor", func(neg, frac bool, _ byte) int {
		if neg && frac {
			return -1
		}
		return 0
	})
	mathCeil = rounding("ceil", func(neg, frac bool, _ byte) int {
		if !neg && frac {
			return 1
		}
		return 0
	})
	mathRound = rounding("round", func(neg, frac bool, first byte) int {
		switch {
		case !frac || first < '5':
			return 0
		case neg:
			return -1
		}
		return 1
	})
)

func mathAbs(args []value.Value, _ value.Limits) (value.Value, error) {
	x, err := numberArg("abs", args, 0)
	if err != nil {
		return value.Value{}, err
	}
	if x.Negative() {
		return value.Neg(x)
	}
	return x, nil
}

func mathSign(args []value.Value, _ value.Limits) (value.Value, error) {
	x, err := numberArg("sign", args, 0)
	if err != nil {
		return value.Value{}, err
	}
	switch {
	case x.IsZero():
		return value.FromInt(0), nil
	case x.Negative():
		return value.FromInt(-1), nil
	}
	return value.FromInt(1), nil
}

// mathExtreme keeps the argument whose comparison against the best so far
// has the sign want.
func mathExtreme(name string, want int) evaluator.NativeFunc {
	return func(args []value.Value, _ value.Limits) (value.Value, error) {
		best, err := numberArg(name, args, 0)
		if err != nil {
			return value.Value{}, err
		}
		for i := 1; i < len(args); i++ {
			x, err := numberArg(name, args, i)
			if err != nil {
				return value.Value{}, err
			}
			if c, _ := value.Compare(x, best); c == want {
				best = x
			}
		}
		return best, nil
	}
}
