// Package logex embeds the Logex language in Go programs.
package logex

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/funvibe/logex/internal/backend"
	"github.com/funvibe/logex/internal/config"
	"github.com/funvibe/logex/internal/evaluator"
	"github.com/funvibe/logex/internal/lexer"
	"github.com/funvibe/logex/internal/logging"
	"github.com/funvibe/logex/internal/modules"
	"github.com/funvibe/logex/internal/parser"
	"github.com/funvibe/logex/internal/pipeline"
	"github.com/funvibe/logex/internal/value"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// VM wraps a Logex runtime and provides a high-level embedding API.
// Variables and bound functions persist across Eval calls.
type VM struct {
	runtime    *backend.Runtime
	backend    backend.Backend
	marshaller *Marshaller
	log        commonlog.Logger
}

// New creates a VM with default settings, the standard packages and the
// bytecode backend.
func New() *VM {
	v, _ := NewWithSettings(nil)
	return v
}

// NewWithSettings creates a VM configured by settings. A nil settings value
// means the defaults.
func NewWithSettings(settings *config.Settings) (*VM, error) {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	rt := backend.NewRuntime(settings, modules.Default())
	b, err := backend.New(settings.Backend, rt)
	if err != nil {
		return nil, err
	}
	m := NewMarshaller()
	m.Precision = rt.Limits.Precision
	v := &VM{
		runtime:    rt,
		backend:    b,
		marshaller: m,
		log:        logging.GetLogger(logging.Embed),
	}
	if err := rt.Import(settings.AutoImport...); err != nil {
		return nil, err
	}
	return v, nil
}

// Backend returns the name of the execution backend in use.
func (v *VM) Backend() string { return v.backend.Name() }

// Bind registers a Go function so scripts can call it by name. Arguments
// and results go through the Marshaller. A trailing error result is
// returned to the script as a failure.
func (v *VM) Bind(name string, fn interface{}) error {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return fmt.Errorf("bind %s: %T is not a function", name, fn)
	}
	t := rv.Type()
	results := t.NumOut()
	if results > 0 && t.Out(results-1) == errorType {
		results--
	}
	if results > 1 {
		return fmt.Errorf("bind %s: function returns %d values, want at most one and an error", name, results)
	}

	minArgs, maxArgs := t.NumIn(), t.NumIn()
	if t.IsVariadic() {
		minArgs, maxArgs = t.NumIn()-1, evaluator.Variadic
	}
	err := v.runtime.Registry.Register(&evaluator.Function{
		Name:    name,
		MinArgs: minArgs,
		MaxArgs: maxArgs,
		Impl: func(args []value.Value, _ value.Limits) (value.Value, error) {
			return v.hostCall(rv, args)
		},
		Doc: "bound " + t.String(),
	})
	if err != nil {
		return fmt.Errorf("bind %s: %w", name, err)
	}
	v.log.Debugf("bound %s as %s", name, t)
	return nil
}

func (v *VM) hostCall(fn reflect.Value, args []value.Value) (value.Value, error) {
	fnType := fn.Type()
	numIn := fnType.NumIn()

	goArgs := make([]reflect.Value, len(args))
	for i, arg := range args {
		// Determine target type
		var targetType reflect.Type
		if fnType.IsVariadic() && i >= numIn-1 {
			targetType = fnType.In(numIn - 1).Elem()
		} else {
			targetType = fnType.In(i)
		}

		val, err := v.marshaller.FromValue(arg, targetType)
		if err != nil {
			return value.Value{}, fmt.Errorf("argument %d: %w", i+1, err)
		}
		rv := reflect.ValueOf(val)
		if !rv.Type().AssignableTo(targetType) {
			if !rv.Type().ConvertibleTo(targetType) {
				return value.Value{}, fmt.Errorf("argument %d: cannot convert %s to %s", i+1, arg.Type(), targetType)
			}
			rv = rv.Convert(targetType)
		}
		goArgs[i] = rv
	}

	out := fn.Call(goArgs)
	if n := len(out); n > 0 && fnType.Out(n-1) == errorType {
		if err, _ := out[n-1].Interface().(error); err != nil {
			return value.Value{}, err
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return value.FromInt(0), nil
	}
	return v.marshaller.ToValue(out[0].Interface())
}

// Set assigns a script variable.
func (v *VM) Set(name string, val interface{}) error {
	lv, err := v.marshaller.ToValue(val)
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return v.runtime.Env.Set(name, lv)
}

// Get retrieves a script variable.
func (v *VM) Get(name string) (interface{}, error) {
	lv, ok := v.runtime.Env.Get(name)
	if !ok {
		return nil, fmt.Errorf("variable '%s' not found", name)
	}
	return v.marshaller.FromValue(lv, nil)
}

// GetValue retrieves a script variable without conversion.
func (v *VM) GetValue(name string) (value.Value, bool) {
	lv, ok := v.runtime.Env.Get(name)
	if !ok {
		return value.Value{}, false
	}
	return lv.Copy(), true
}

// Call calls a built-in, imported or bound function by name.
func (v *VM) Call(funcName string, args ...interface{}) (interface{}, error) {
	values := make([]value.Value, len(args))
	for i, arg := range args {
		lv, err := v.marshaller.ToValue(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		values[i] = lv
	}

	var (
		result value.Value
		err    error
	)
	if fn, ok := v.runtime.Registry.Lookup(funcName); ok {
		result, err = v.runtime.Registry.Call(fn, values, v.runtime.Limits)
	} else if _, ok := evaluator.LookupBuiltin(funcName); ok {
		result, err = evaluator.CallBuiltin(funcName, values, v.runtime.Limits)
	} else {
		return nil, fmt.Errorf("function '%s' not found", funcName)
	}
	if err != nil {
		return nil, err
	}
	return v.marshaller.FromValue(result, nil)
}

// Import loads standard packages, as `import name` would in a script.
func (v *VM) Import(names ...string) error {
	return v.runtime.Import(names...)
}

// Eval executes Logex code and converts the last statement's value.
// It returns nil when no statement produced a value.
func (v *VM) Eval(code string) (interface{}, error) {
	result, err := v.run(code, "<eval>")
	if err != nil || result == nil {
		return nil, err
	}
	return v.marshaller.FromValue(*result, nil)
}

// Exec executes Logex code for its effects on the script variables.
func (v *VM) Exec(code string) error {
	_, err := v.run(code, "<exec>")
	return err
}

// LoadFile executes a script file.
func (v *VM) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = v.run(string(content), path)
	return err
}

func (v *VM) run(code, file string) (*value.Value, error) {
	ctx := pipeline.NewPipelineContext(code)
	ctx.FilePath = file

	p := pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		backend.NewExecutionProcessor(v.backend),
	)
	ctx = p.Run(ctx)

	if len(ctx.Errors) > 0 {
		if len(ctx.Errors) == 1 {
			return nil, ctx.Errors[0]
		}
		var sb strings.Builder
		sb.WriteString("errors in " + file + ":")
		for _, e := range ctx.Errors {
			sb.WriteString("\n" + e.Error())
		}
		return nil, fmt.Errorf("%s: %w", sb.String(), ctx.Errors[0])
	}
	return ctx.Result, nil
}
