package backend

import (
	"fmt"

	"github.com/funvibe/logex/internal/ast"
	"github.com/funvibe/logex/internal/config"
	"github.com/funvibe/logex/internal/logging"
	"github.com/funvibe/logex/internal/pipeline"
	"github.com/funvibe/logex/internal/value"
	"github.com/funvibe/logex/internal/vm"
)

// VMBackend executes programs using the bytecode VM
type VMBackend struct {
	rt *Runtime

	// Program is the last compiled program
	Program *vm.Program
}

func NewVM(rt *Runtime) *VMBackend {
	return &VMBackend{rt: rt}
}

func (b *VMBackend) Name() string { return config.BackendVM }

// Run compiles and executes the program using the VM
func (b *VMBackend) Run(ctx *pipeline.PipelineContext) (*value.Value, error) {
	if ctx.AstRoot == nil {
		return nil, fmt.Errorf("no AST to compile")
	}
	program, ok := ctx.AstRoot.(*ast.Program)
	if !ok {
		return nil, fmt.Errorf("AST root is not a Program: %T", ctx.AstRoot)
	}

	compiled, err := vm.Compile(program, b.rt.Limits)
	if err != nil {
		return nil, err
	}
	if ctx.FilePath != "" {
		compiled.Source = ctx.FilePath
	}
	b.Program = compiled
	logging.GetLogger(logging.Backend).Infof("compiled %s: %d instructions, %d constants",
		sourceName(compiled.Source), compiled.Len(), len(compiled.Constants))

	return b.Execute(compiled)
}

// Execute runs an already compiled program against the shared runtime.
func (b *VMBackend) Execute(p *vm.Program) (*value.Value, error) {
	machine := vm.New(b.rt.Env, b.rt.Registry, b.rt.Loader, b.rt.StackSize)
	machine.Limits = b.rt.Limits
	machine.Context = b.rt.Context
	return machine.Run(p)
}

func sourceName(s string) string {
	if s == "" {
		return "<stdin>"
	}
	return s
}
