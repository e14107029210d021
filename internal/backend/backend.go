// Package backend provides an interface for different execution backends.
// This allows switching between tree-walk interpreter and VM.
package backend

import (
	"context"
	"fmt"

	"github.com/funvibe/logex/internal/config"
	"github.com/funvibe/logex/internal/evaluator"
	"github.com/funvibe/logex/internal/pipeline"
	"github.com/funvibe/logex/internal/value"
)

// Backend is the interface for execution backends
type Backend interface {
	// Run executes the program in ctx.AstRoot. A nil value means no
	// statement produced one.
	Run(ctx *pipeline.PipelineContext) (*value.Value, error)

	// Name returns the backend name for display
	Name() string
}

// Runtime is the state shared by both backends. Variables and imported
// functions persist across Run calls.
type Runtime struct {
	// Context for cancellation of long loops (optional)
	Context context.Context

	Env       evaluator.Context
	Registry  *evaluator.Registry
	Loader    evaluator.PackageLoader
	Limits    value.Limits
	StackSize int
}

// NewRuntime builds a Runtime from settings with a fresh environment and
// registry.
func NewRuntime(settings *config.Settings, loader evaluator.PackageLoader) *Runtime {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	return &Runtime{
		Env:       evaluator.NewEnvironment(),
		Registry:  evaluator.NewRegistry(),
		Loader:    loader,
		Limits:    settings.Limits(),
		StackSize: settings.StackSize,
	}
}

// New returns the backend called name sharing rt.
func New(name string, rt *Runtime) (Backend, error) {
	switch name {
	case config.BackendVM:
		return NewVM(rt), nil
	case config.BackendTree:
		return NewTreeWalk(rt), nil
	}
	return nil, fmt.Errorf("unknown backend %q (want %s or %s)", name, config.BackendVM, config.BackendTree)
}

// Import loads each named package into the runtime, as `import name` would.
func (rt *Runtime) Import(names ...string) error {
	for _, name := range names {
		if rt.Loader == nil {
			return fmt.Errorf("import %s: no package loader configured", name)
		}
		if _, err := rt.Loader.Load(name, rt.Registry, rt.Env); err != nil {
			return fmt.Errorf("import %s: %w", name, err)
		}
	}
	return nil
}
