package lexer

import (
	"github.com/funvibe/logex/internal/pipeline"
	"github.com/funvibe/logex/internal/token"
)

// LexerProcessor installs a lexer over the source as the token stream.
type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	ctx.TokenStream = New(ctx.SourceCode)
	return ctx
}

// Tokenize drains input into a slice ending with EOF.
func Tokenize(input string) []token.Token {
	l := New(input)
	var out []token.Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out
		}
	}
}
