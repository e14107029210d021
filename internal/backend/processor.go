package backend

import (
	"errors"

	"github.com/funvibe/logex/internal/diagnostics"
	"github.com/funvibe/logex/internal/pipeline"
	"github.com/funvibe/logex/internal/token"
	"github.com/funvibe/logex/internal/vm"
)

// ExecutionProcessor implements pipeline.Processor to run a Backend
type ExecutionProcessor struct {
	Backend Backend
}

// NewExecutionProcessor creates a new pipeline step for the given backend
func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.AstRoot == nil || len(ctx.Errors) > 0 {
		return ctx
	}

	result, err := p.Backend.Run(ctx)
	if err != nil {
		ctx.Errors = append(ctx.Errors, toDiagnostic(ctx, err))
		return ctx
	}
	ctx.Result = result
	return ctx
}

// toDiagnostic reduces any backend failure to one DiagnosticError.
func toDiagnostic(ctx *pipeline.PipelineContext, err error) *diagnostics.DiagnosticError {
	var de *diagnostics.DiagnosticError
	if errors.As(err, &de) {
		if de.File == "" {
			de.File = ctx.FilePath
		}
		return de
	}

	var re *vm.RuntimeError
	if errors.As(err, &re) {
		tok := token.Token{Line: re.Line, Column: re.Column}
		de = diagnostics.NewError(re.Code, tok, re.Op.String()+": ", re.Err)
		de.Category = re.Category
		de.File = ctx.FilePath
		return de
	}

	de = diagnostics.NewError(diagnostics.CodeFor(err), token.Token{}, err)
	de.File = ctx.FilePath
	return de
}
