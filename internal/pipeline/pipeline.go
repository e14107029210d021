package pipeline

import (
	"github.com/funvibe/logex/internal/ast"
	"github.com/funvibe/logex/internal/diagnostics"
	"github.com/funvibe/logex/internal/token"
	"github.com/funvibe/logex/internal/value"
)

// TokenStream is a pull-model token source with one token of lookahead.
type TokenStream interface {
	NextToken() token.Token
	PeekToken() token.Token
}

// Processor is a single pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries one source text through the stages.
type PipelineContext struct {
	SourceCode  string
	FilePath    string
	TokenStream TokenStream
	AstRoot     ast.Node
	Errors      []*diagnostics.DiagnosticError
	// Result is the value of the last executed statement, nil when none ran.
	Result *value.Value
}

func NewPipelineContext(source string) *PipelineContext {
	return &PipelineContext{SourceCode: source}
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Stages skip their work once an earlier stage
// has recorded an error.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}
