package modules

import (
	"strings"

	"github.com/funvibe/logex/internal/evaluator"
	"github.com/funvibe/logex/internal/value"
)

func stringPackage() *Package {
	return &Package{
		Name: "string",
		Functions: []*evaluator.Function{
			{Name: "len", MinArgs: 1, MaxArgs: 1, Impl: stringLen, Doc: "byte length of s"},
			{Name: "upper", MinArgs: 1, MaxArgs: 1, Impl: stringCase("upper", strings.ToUpper), Doc: "s in upper case"},
			{Name: "lower", MinArgs: 1, MaxArgs: 1, Impl: stringCase("lower", strings.ToLower), Doc: "s in lower case"},
			{Name: "concat", MinArgs: 1, MaxArgs: evaluator.Variadic, Impl: stringConcat, Doc: "concat(a, b, ...) joins the text of every argument"},
			{Name: "substr", MinArgs: 2, MaxArgs: 3, Impl: stringSubstr, Doc: "substr(s, start [, length]) by byte offset"},
		},
	}
}

func stringLen(args []value.Value, _ value.Limits) (value.Value, error) {
	s, err := stringArg("len", args, 0)
	if err != nil {
		return value.Value{}, err
	}
	return value.FromInt(int64(len(s))), nil
}

func stringCase(name string, f func(string) string) evaluator.NativeFunc {
	return func(args []value.Value, _ value.Limits) (value.Value, error) {
		s, err := stringArg(name, args, 0)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewString(f(s)), nil
	}
}

// stringConcat formats non-string arguments at the caller's precision.
func stringConcat(args []value.Value, limits value.Limits) (value.Value, error) {
	var sb strings.Builder
	for _, a := range args {
		if a.IsString() {
			sb.WriteString(a.Text())
		} else {
			sb.WriteString(a.Format(limits.Precision))
		}
	}
	return value.NewString(sb.String()), nil
}

// stringSubstr clips start and length to the string bounds.
func stringSubstr(args []value.Value, _ value.Limits) (value.Value, error) {
	s, err := stringArg("substr", args, 0)
	if err != nil {
		return value.Value{}, err
	}
	start, err := args[1].Index()
	if err != nil {
		return value.Value{}, err
	}
	start = min(start, len(s))
	end := len(s)
	if len(args) == 3 {
		n, err := args[2].Index()
		if err != nil {
			return value.Value{}, err
		}
		end = min(start+n, len(s))
	}
	return value.NewString(s[start:end]), nil
}
