package evaluator

import (
	"fmt"
	"sort"

	"github.com/funvibe/logex/internal/diagnostics"
	"github.com/funvibe/logex/internal/value"
)

// builtins are resolved before the registry and cannot be shadowed.
var builtins = map[string]*Function{
	"list": {Name: "list", MinArgs: 0, MaxArgs: 0, Impl: builtinList,
		Doc: "list() -> empty list"},
	"lpush": {Name: "lpush", MinArgs: 2, MaxArgs: 2, Impl: builtinLpush,
		Doc: "lpush(l, v) -> l with v prepended"},
	"rpush": {Name: "rpush", MinArgs: 2, MaxArgs: 2, Impl: builtinRpush,
		Doc: "rpush(l, v) -> l with v appended"},
	"lpop": {Name: "lpop", MinArgs: 1, MaxArgs: 1, Impl: builtinLpop,
		Doc: "lpop(l) -> first element"},
	"rpop": {Name: "rpop", MinArgs: 1, MaxArgs: 1, Impl: builtinRpop,
		Doc: "rpop(l) -> last element"},
	"lget": {Name: "lget", MinArgs: 2, MaxArgs: 2, Impl: builtinLget,
		Doc: "lget(l, i) -> element at index i"},
	"llen": {Name: "llen", MinArgs: 1, MaxArgs: 1, Impl: builtinLlen,
		Doc: "llen(l) -> number of elements"},
	"num": {Name: "num", MinArgs: 1, MaxArgs: 1, Impl: builtinNum,
		Doc: "num(v) -> v as a number"},
	"str": {Name: "str", MinArgs: 1, MaxArgs: 1, Impl: builtinStr,
		Doc: "str(v) -> v as a string"},
	"bmp": {Name: "bmp", MinArgs: 1, MaxArgs: 1, Impl: builtinBmp,
		Doc: "bmp(v) -> v as a bitmap, least significant bit first"},
	"bset": {Name: "bset", MinArgs: 3, MaxArgs: 3, Impl: builtinBset,
		Doc: "bset(b, i, bit) -> b with bit i set to bit"},
	"bget": {Name: "bget", MinArgs: 2, MaxArgs: 2, Impl: builtinBget,
		Doc: "bget(b, i) -> bit i of b"},
	"bcount": {Name: "bcount", MinArgs: 3, MaxArgs: 3, Impl: builtinBcount,
		Doc: "bcount(b, start, end) -> set bits in [start, end]"},
}

// LookupBuiltin returns the built-in function called name.
func LookupBuiltin(name string) (*Function, bool) {
	fn, ok := builtins[name]
	return fn, ok
}

// BuiltinNames returns the built-in function names in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CallBuiltin invokes a built-in by name after checking its arity.
func CallBuiltin(name string, args []value.Value, limits value.Limits) (value.Value, error) {
	fn, ok := builtins[name]
	if !ok {
		return value.Value{}, fmt.Errorf("%w %q", diagnostics.ErrUndefinedFunction, name)
	}
	return callFunction(fn, args, limits)
}

func builtinList(args []value.Value, _ value.Limits) (value.Value, error) {
	return value.NewList(), nil
}

func builtinLpush(args []value.Value, _ value.Limits) (value.Value, error) {
	return value.PushFront(args[0], args[1])
}

func builtinRpush(args []value.Value, _ value.Limits) (value.Value, error) {
	return value.PushBack(args[0], args[1])
}

func builtinLpop(args []value.Value, _ value.Limits) (value.Value, error) {
	elem, _, err := value.PopFront(args[0])
	return elem, err
}

func builtinRpop(args []value.Value, _ value.Limits) (value.Value, error) {
	elem, _, err := value.PopBack(args[0])
	return elem, err
}

func builtinLget(args []value.Value, _ value.Limits) (value.Value, error) {
	i, err := args[1].Index()
	if err != nil {
		return value.Value{}, err
	}
	return value.Index(args[0], i)
}

func builtinLlen(args []value.Value, _ value.Limits) (value.Value, error) {
	if !args[0].IsList() {
		return value.Value{}, fmt.Errorf("%w: llen on %s", value.ErrType, args[0].Type())
	}
	return value.FromInt(int64(len(args[0].Elements()))), nil
}

func builtinNum(args []value.Value, limits value.Limits) (value.Value, error) {
	return limits.ToNumber(args[0])
}

func builtinStr(args []value.Value, limits value.Limits) (value.Value, error) {
	return value.ToString(args[0], limits.Precision)
}

func builtinBmp(args []value.Value, _ value.Limits) (value.Value, error) {
	return value.ToBitmap(args[0])
}

func builtinBset(args []value.Value, _ value.Limits) (value.Value, error) {
	offset, err := args[1].Index()
	if err != nil {
		return value.Value{}, err
	}
	return value.SetBit(args[0], offset, args[2].Truthy())
}

func builtinBget(args []value.Value, _ value.Limits) (value.Value, error) {
	offset, err := args[1].Index()
	if err != nil {
		return value.Value{}, err
	}
	bit, err := value.GetBit(args[0], offset)
	if err != nil {
		return value.Value{}, err
	}
	return value.FromInt(int64(bit)), nil
}

func builtinBcount(args []value.Value, _ value.Limits) (value.Value, error) {
	start, err := args[1].Index()
	if err != nil {
		return value.Value{}, err
	}
	end, err := args[2].Index()
	if err != nil {
		return value.Value{}, err
	}
	n, err := value.CountBits(args[0], start, end)
	if err != nil {
		return value.Value{}, err
	}
	return value.FromInt(int64(n)), nil
}
