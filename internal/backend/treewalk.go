package backend

import (
	"fmt"

	"github.com/funvibe/logex/internal/ast"
	"github.com/funvibe/logex/internal/config"
	"github.com/funvibe/logex/internal/evaluator"
	"github.com/funvibe/logex/internal/pipeline"
	"github.com/funvibe/logex/internal/value"
)

// TreeWalkBackend interprets the AST directly.
type TreeWalkBackend struct {
	rt *Runtime
}

func NewTreeWalk(rt *Runtime) *TreeWalkBackend {
	return &TreeWalkBackend{rt: rt}
}

func (b *TreeWalkBackend) Name() string { return config.BackendTree }

// Run evaluates the program. An import yields the number of bound names.
func (b *TreeWalkBackend) Run(ctx *pipeline.PipelineContext) (*value.Value, error) {
	if ctx.AstRoot == nil {
		return nil, fmt.Errorf("no AST to execute")
	}
	if len(ctx.Errors) > 0 {
		return nil, ctx.Errors[0]
	}
	program, ok := ctx.AstRoot.(*ast.Program)
	if !ok {
		return nil, fmt.Errorf("AST root is not a Program: %T", ctx.AstRoot)
	}

	eval := evaluator.New(b.rt.Env, b.rt.Registry, b.rt.Loader)
	eval.Limits = b.rt.Limits
	eval.Context = b.rt.Context
	eval.File = ctx.FilePath

	res := eval.Eval(program)
	switch res.Kind {
	case evaluator.ResultError:
		return nil, res.Err
	case evaluator.ResultValue, evaluator.ResultAssign:
		return &res.Value, nil
	case evaluator.ResultImport:
		v := value.FromInt(int64(res.Count))
		return &v, nil
	}
	return nil, nil
}
