package parser

import (
	"fmt"

	"github.com/funvibe/logex/internal/ast"
	"github.com/funvibe/logex/internal/diagnostics"
	"github.com/funvibe/logex/internal/pipeline"
	"github.com/funvibe/logex/internal/token"
)

// MaxRecursionDepth bounds expression and block nesting.
const MaxRecursionDepth = 256

// Precedence layers, loosest first.
const (
	_ int = iota
	LOWEST
	XOR        // ⊽
	IFF        // ↔
	IMPLIES    // →
	OR         // v
	DUAL       // ^
	BITOR      // |
	BITAND     // &
	COMPARISON // == != < <= > >=
	SHIFT      // << >>
	SUM        // + -
	PRODUCT    // * / %
	POWER      // ** (right-assoc)
	PREFIX     // ! - + ~
)

var precedences = map[token.TokenType]int{
	token.XOR:       XOR,
	token.IFF:       IFF,
	token.IMPLIES:   IMPLIES,
	token.OR:        OR,
	token.PIPE:      BITOR,
	token.CARET:     DUAL,
	token.AMPERSAND: BITAND,
	token.EQ:        COMPARISON,
	token.NOT_EQ:    COMPARISON,
	token.LT:        COMPARISON,
	token.LTE:       COMPARISON,
	token.GT:        COMPARISON,
	token.GTE:       COMPARISON,
	token.LSHIFT:    SHIFT,
	token.RSHIFT:    SHIFT,
	token.PLUS:      SUM,
	token.MINUS:     SUM,
	token.ASTERISK:  PRODUCT,
	token.SLASH:     PRODUCT,
	token.PERCENT:   PRODUCT,
	token.POWER:     POWER,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser is a recursive-descent parser over a token stream. The first
// syntax error is recorded on the pipeline context and parsing stops.
type Parser struct {
	stream pipeline.TokenStream
	ctx    *pipeline.PipelineContext

	curToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn

	depth  int
	failed bool
}

func New(stream pipeline.TokenStream, ctx *pipeline.PipelineContext) *Parser {
	p := &Parser{stream: stream, ctx: ctx}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.IDENT:  p.parseIdentifier,
		token.NUMBER: p.parseNumberLiteral,
		token.STRING: p.parseStringLiteral,
		token.BITMAP: p.parseBitmapLiteral,
		token.BANG:   p.parsePrefixExpression,
		token.MINUS:  p.parsePrefixExpression,
		token.PLUS:   p.parsePrefixExpression,
		token.TILDE:  p.parsePrefixExpression,
		token.LPAREN: p.parseGroupedExpression,
	}

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for tt := range precedences {
		p.infixParseFns[tt] = p.parseInfixExpression
	}
	p.infixParseFns[token.POWER] = p.parseRightAssocInfixExpression

	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.stream.NextToken()
}

// peekToken is the stream's one-token lookahead; it does not advance.
func (p *Parser) peekToken() token.Token {
	return p.stream.PeekToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken().Type == t }

// expectPeek advances when the next token has type t and reports P002 otherwise.
func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) addError(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	if p.failed {
		return
	}
	p.failed = true
	err := diagnostics.NewError(code, tok, fmt.Sprintf(format, args...))
	err.File = p.ctx.FilePath
	p.ctx.Errors = append(p.ctx.Errors, err)
}

func (p *Parser) peekError(t token.TokenType) {
	if p.peekTokenIs(token.ILLEGAL) {
		p.illegalError(p.peekToken())
		return
	}
	p.addError(diagnostics.ErrP002, p.peekToken(), "expected %s, got %s", describe(t), describeToken(p.peekToken()))
}

// illegalError reports a lexer failure carried by an ILLEGAL token.
func (p *Parser) illegalError(tok token.Token) {
	if tok.Literal == diagnostics.ErrL002 {
		p.addError(diagnostics.ErrL002, tok, "unterminated string")
		return
	}
	p.addError(diagnostics.ErrL001, tok, "illegal character %q", tok.Lexeme)
}

func (p *Parser) unexpected(tok token.Token) {
	if tok.Type == token.ILLEGAL {
		p.illegalError(tok)
		return
	}
	p.addError(diagnostics.ErrP001, tok, "unexpected %s", describeToken(tok))
}

func describe(t token.TokenType) string {
	switch t {
	case token.IDENT:
		return "identifier"
	case token.EOF:
		return "end of input"
	case token.NEWLINE:
		return "newline"
	}
	if kw, ok := token.Keyword(t); ok {
		return fmt.Sprintf("'%s'", kw)
	}
	return fmt.Sprintf("'%s'", t)
}

func describeToken(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.NEWLINE:
		return "newline"
	}
	return fmt.Sprintf("'%s'", tok.Lexeme)
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken().Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// ParseProgram parses statements until EOF or the first error.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{File: p.ctx.FilePath}
	program.Statements = p.parseStatements(func() bool { return false })
	if !p.failed && !p.curTokenIs(token.EOF) {
		p.unexpected(p.curToken)
	}
	return program
}

// parseStatements collects statements until EOF or stop reports true. On
// return curToken is the stopping token.
func (p *Parser) parseStatements(stop func() bool) []ast.Statement {
	statements := []ast.Statement{}
	for !p.curTokenIs(token.EOF) && !stop() {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if p.failed {
			return statements
		}
		statements = append(statements, stmt)
		p.nextToken()
		if !p.curTokenIs(token.NEWLINE) && !p.curTokenIs(token.SEMICOLON) &&
			!p.curTokenIs(token.EOF) && !stop() {
			p.unexpected(p.curToken)
			return statements
		}
	}
	return statements
}
