package backend

import (
	"errors"
	"testing"

	"github.com/funvibe/logex/internal/config"
	"github.com/funvibe/logex/internal/diagnostics"
	"github.com/funvibe/logex/internal/lexer"
	"github.com/funvibe/logex/internal/modules"
	"github.com/funvibe/logex/internal/parser"
	"github.com/funvibe/logex/internal/pipeline"
	"github.com/funvibe/logex/internal/value"
)

func run(t *testing.T, b Backend, src string) *pipeline.PipelineContext {
	t.Helper()
	ctx := pipeline.NewPipelineContext(src)
	ctx.FilePath = "test.lx"
	return pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		NewExecutionProcessor(b),
	).Run(ctx)
}

func backends(t *testing.T) []Backend {
	t.Helper()
	var out []Backend
	for _, name := range []string{config.BackendTree, config.BackendVM} {
		b, err := New(name, NewRuntime(nil, modules.Default()))
		if err != nil {
			t.Fatalf("New(%s): %v", name, err)
		}
		out = append(out, b)
	}
	return out
}

func TestBackendResults(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "7"},
		{"s = 0\nfor i in range(0, 5): s = s + i end\ns", "10"},
		{"x = 2 ** 10", "1024"},
		{"import math", "28"},
		{"import math\nmax(3, 9, 4)", "9"},
		{"if 0: 1 end", "0"},
		{"x = 5\nwhile 0: 1 end", "0"},
		{"for i in range(3, 1): 7 end", "0"},
	}
	for _, b := range backends(t) {
		for _, tt := range tests {
			t.Run(b.Name()+"/"+tt.input, func(t *testing.T) {
				ctx := run(t, b, tt.input)
				if len(ctx.Errors) > 0 {
					t.Fatalf("unexpected error: %v", ctx.Errors[0])
				}
				if ctx.Result == nil || ctx.Result.String() != tt.expected {
					t.Errorf("result = %v, want %s", ctx.Result, tt.expected)
				}
			})
		}
	}
}

func TestBackendErrors(t *testing.T) {
	tests := []struct {
		input    string
		code     diagnostics.ErrorCode
		category diagnostics.Category
		cause    error
	}{
		{"x = 1\nx / 0", diagnostics.ErrR007, diagnostics.DivisionByZero, value.ErrDivisionByZero},
		{"y + 1", diagnostics.ErrR002, diagnostics.Name, diagnostics.ErrUndefinedVariable},
		{"B1 < 2", diagnostics.ErrR005, diagnostics.Type, value.ErrType},
		{"1 +", diagnostics.ErrP001, diagnostics.Syntax, nil},
	}
	for _, b := range backends(t) {
		for _, tt := range tests {
			t.Run(b.Name()+"/"+tt.input, func(t *testing.T) {
				ctx := run(t, b, tt.input)
				if len(ctx.Errors) != 1 {
					t.Fatalf("got %d errors, want 1", len(ctx.Errors))
				}
				de := ctx.Errors[0]
				if de.Code != tt.code {
					t.Errorf("code = %s, want %s (%v)", de.Code, tt.code, de)
				}
				if got := diagnostics.Classify(de); got != tt.category {
					t.Errorf("category = %s, want %s", got, tt.category)
				}
				if tt.cause != nil && !errors.Is(de, tt.cause) {
					t.Errorf("error %v does not wrap %v", de, tt.cause)
				}
				if de.File != "test.lx" {
					t.Errorf("file = %q, want test.lx", de.File)
				}
				if ctx.Result != nil {
					t.Errorf("result = %v after a failure", ctx.Result)
				}
			})
		}
	}
}

func TestRuntimeErrorPosition(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.Name(), func(t *testing.T) {
			ctx := run(t, b, "x = 1\ny = x / 0")
			if len(ctx.Errors) != 1 {
				t.Fatalf("got %d errors, want 1", len(ctx.Errors))
			}
			tok := ctx.Errors[0].Token
			if tok.Line != 2 || tok.Column != 7 {
				t.Errorf("position = %d:%d, want 2:7", tok.Line, tok.Column)
			}
		})
	}
}

func TestStatePersistsAcrossRuns(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.Name(), func(t *testing.T) {
			if ctx := run(t, b, "import math\nr = sqrt(9)"); len(ctx.Errors) > 0 {
				t.Fatalf("first run: %v", ctx.Errors[0])
			}
			ctx := run(t, b, "r + abs(-1)")
			if len(ctx.Errors) > 0 {
				t.Fatalf("second run: %v", ctx.Errors[0])
			}
			if ctx.Result.String() != "4" {
				t.Errorf("result = %s, want 4", ctx.Result)
			}
		})
	}
}

func TestEmptyProgram(t *testing.T) {
	for _, b := range backends(t) {
		ctx := run(t, b, "")
		if len(ctx.Errors) > 0 || ctx.Result != nil {
			t.Errorf("%s: result %v, errors %v", b.Name(), ctx.Result, ctx.Errors)
		}
	}
}

func TestVMBackendKeepsProgram(t *testing.T) {
	b := NewVM(NewRuntime(nil, nil))
	run(t, b, "1 + 1")
	if b.Program == nil || b.Program.Source != "test.lx" {
		t.Fatalf("compiled program not kept: %+v", b.Program)
	}
	result, err := b.Execute(b.Program)
	if err != nil || result.String() != "2" {
		t.Errorf("Execute = %v, %v", result, err)
	}
}

func TestNewBackend(t *testing.T) {
	if _, err := New("jit", NewRuntime(nil, nil)); err == nil {
		t.Error("expected error for unknown backend")
	}
	settings := config.DefaultSettings()
	settings.StackSize = 4
	rt := NewRuntime(settings, nil)
	if rt.StackSize != 4 || rt.Limits.Precision != value.DefaultPrecision {
		t.Errorf("runtime = %+v", rt)
	}
	ctx := run(t, NewVM(rt), "1 + (2 + (3 + (4 + (5 + 6))))")
	if len(ctx.Errors) != 1 || ctx.Errors[0].Code != diagnostics.ErrV002 {
		t.Errorf("errors = %v, want stack overflow", ctx.Errors)
	}
}

func TestRuntimeImport(t *testing.T) {
	rt := NewRuntime(nil, modules.Default())
	if err := rt.Import("math", "string"); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if _, ok := rt.Registry.Lookup("upper"); !ok {
		t.Error("string package not loaded")
	}
	if err := rt.Import("missing"); err == nil {
		t.Error("expected error for unknown package")
	}
	if err := NewRuntime(nil, nil).Import("math"); err == nil {
		t.Error("expected error without a loader")
	}
}
