package evaluator

import (
	"github.com/funvibe/logex/internal/ast"
	"github.com/funvibe/logex/internal/lexer"
	"github.com/funvibe/logex/internal/parser"
	"github.com/funvibe/logex/internal/pipeline"
	"github.com/funvibe/logex/internal/token"
	"github.com/funvibe/logex/internal/value"
)

// Session keeps variables and imported functions across Exec calls.
type Session struct {
	Env       *Environment
	Registry  *Registry
	evaluator *Evaluator
}

func NewSession(loader PackageLoader, limits value.Limits) *Session {
	env := NewEnvironment()
	reg := NewRegistry()
	ev := New(env, reg, loader)
	ev.Limits = limits
	return &Session{Env: env, Registry: reg, evaluator: ev}
}

// Evaluator exposes the session's evaluator for configuration.
func (s *Session) Evaluator() *Evaluator { return s.evaluator }

// Parse lexes and parses src, returning the first syntax error.
func Parse(src, file string) (*ast.Program, error) {
	ctx := pipeline.NewPipelineContext(src)
	ctx.FilePath = file
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	if len(ctx.Errors) > 0 {
		return nil, ctx.Errors[0]
	}
	return ctx.AstRoot.(*ast.Program), nil
}

// Exec parses and runs src. Every failure is reduced to a ResultError.
func (s *Session) Exec(src string) Result {
	program, err := Parse(src, s.evaluator.File)
	if err != nil {
		res := errorResult(err)
		res.precision = s.evaluator.Limits.Precision
		return res
	}
	return s.evaluator.Eval(program)
}

// Import loads a package as if `import name` had run.
func (s *Session) Import(name string) Result {
	tok := token.Token{Type: token.IDENT, Lexeme: name, Literal: name}
	return s.evaluator.Eval(&ast.ImportStatement{
		Token: token.Token{Type: token.IMPORT, Lexeme: "import"},
		Name:  &ast.Identifier{Token: tok, Value: name},
	})
}
