package evaluator

import (
	"fmt"
	"sort"

	"github.com/funvibe/logex/internal/diagnostics"
	"github.com/funvibe/logex/internal/lexer"
	"github.com/funvibe/logex/internal/value"
)

// Variadic as MaxArgs accepts any number of arguments above MinArgs.
const Variadic = -1

// NativeFunc implements a callable. Arguments are already evaluated; limits
// are the caller's ceilings and working precision.
type NativeFunc func(args []value.Value, limits value.Limits) (value.Value, error)

// Function is a named native callable with an arity range.
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int
	Impl    NativeFunc
	Doc     string
}

// Accepts reports whether n arguments satisfy the arity range.
func (f *Function) Accepts(n int) bool {
	if n < f.MinArgs {
		return false
	}
	return f.MaxArgs == Variadic || n <= f.MaxArgs
}

func (f *Function) arity() string {
	switch {
	case f.MaxArgs == Variadic:
		return fmt.Sprintf("at least %d", f.MinArgs)
	case f.MinArgs == f.MaxArgs:
		return fmt.Sprintf("%d", f.MinArgs)
	}
	return fmt.Sprintf("%d to %d", f.MinArgs, f.MaxArgs)
}

// PackageLoader installs a named package into a registry and context and
// returns how many names it bound.
type PackageLoader interface {
	Load(name string, reg *Registry, ctx Context) (int, error)
}

// Registry holds functions callable by name from scripts.
type Registry struct {
	funcs map[string]*Function
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]*Function)}
}

func (r *Registry) Lookup(name string) (*Function, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Register adds fn, replacing any function of the same name.
func (r *Registry) Register(fn *Function) error {
	if fn == nil || fn.Impl == nil {
		return fmt.Errorf("register: function has no implementation")
	}
	if !lexer.IsIdentifier(fn.Name) {
		return fmt.Errorf("register: invalid function name %q", fn.Name)
	}
	if fn.MinArgs < 0 || (fn.MaxArgs != Variadic && fn.MaxArgs < fn.MinArgs) {
		return fmt.Errorf("register %s: invalid arity %d..%d", fn.Name, fn.MinArgs, fn.MaxArgs)
	}
	if _, builtin := builtins[fn.Name]; builtin {
		return fmt.Errorf("register: %s is a built-in", fn.Name)
	}
	r.funcs[fn.Name] = fn
	return nil
}

// Call checks the arity of fn and invokes it.
func (r *Registry) Call(fn *Function, args []value.Value, limits value.Limits) (value.Value, error) {
	return callFunction(fn, args, limits)
}

func callFunction(fn *Function, args []value.Value, limits value.Limits) (value.Value, error) {
	if !fn.Accepts(len(args)) {
		return value.Value{}, fmt.Errorf("%w: %s expects %s, got %d",
			diagnostics.ErrArity, fn.Name, fn.arity(), len(args))
	}
	return fn.Impl(args, limits)
}

// Names returns the registered function names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
