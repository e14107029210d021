package parser

import (
	"github.com/funvibe/logex/internal/ast"
	"github.com/funvibe/logex/internal/diagnostics"
	"github.com/funvibe/logex/internal/token"
)

// parseStatement leaves curToken on the last token of the statement.
func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.IMPORT:
		return p.parseImportStatement()
	case token.LET, token.STATIC:
		return p.parseLetStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.DO:
		return p.parseDoWhileStatement()
	case token.IDENT:
		if p.peekTokenIs(token.ASSIGN) {
			return p.parseAssignStatement(p.curToken)
		}
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	return stmt
}

// parseAssignStatement parses name = value with curToken on the name.
func (p *Parser) parseAssignStatement(start token.Token) *ast.AssignStatement {
	stmt := &ast.AssignStatement{
		Token: start,
		Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
	}
	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	return stmt
}

// parseLetStatement handles let and static prefixes. Both may appear once.
func (p *Parser) parseLetStatement() ast.Statement {
	start := p.curToken
	let, static := false, false
	for p.curTokenIs(token.LET) || p.curTokenIs(token.STATIC) {
		if p.curTokenIs(token.LET) {
			if let {
				p.unexpected(p.curToken)
				return nil
			}
			let = true
		} else {
			if static {
				p.unexpected(p.curToken)
				return nil
			}
			static = true
		}
		if !p.peekTokenIs(token.LET) && !p.peekTokenIs(token.STATIC) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt := p.parseAssignStatement(start)
	if stmt == nil {
		return nil
	}
	stmt.Let, stmt.Static = let, static
	return stmt
}

func (p *Parser) parseImportStatement() ast.Statement {
	stmt := &ast.ImportStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	return stmt
}

// parseBlock parses statements after a ':' until one of the terminators.
// curToken is left on the terminator.
func (p *Parser) parseBlock(terminators ...token.TokenType) *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}

	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxRecursionDepth {
		p.addError(diagnostics.ErrP004, p.curToken, "blocks nested too deeply")
		return nil
	}

	p.nextToken() // consume ':'
	block.Statements = p.parseStatements(func() bool {
		for _, t := range terminators {
			if p.curTokenIs(t) {
				return true
			}
		}
		return false
	})
	if p.failed {
		return nil
	}
	return block
}

// expectCur checks that curToken has type t without advancing.
func (p *Parser) expectCur(t token.TokenType) bool {
	if p.curTokenIs(t) {
		return true
	}
	if p.curTokenIs(token.ILLEGAL) {
		p.illegalError(p.curToken)
		return false
	}
	p.addError(diagnostics.ErrP002, p.curToken, "expected %s, got %s", describe(t), describeToken(p.curToken))
	return false
}

// if cond : block [else : block] end
func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}

	p.nextToken() // consume 'if'
	stmt.Condition = p.parseExpression(LOWEST)
	if p.failed || !p.expectPeek(token.COLON) {
		return nil
	}

	stmt.Consequence = p.parseBlock(token.ELSE, token.END)
	if stmt.Consequence == nil {
		return nil
	}

	if p.curTokenIs(token.ELSE) {
		if !p.expectPeek(token.COLON) {
			return nil
		}
		stmt.Alternative = p.parseBlock(token.END)
		if stmt.Alternative == nil {
			return nil
		}
	}

	if !p.expectCur(token.END) {
		return nil
	}
	return stmt
}

// for ident in range(start, end [, step]) : block end
func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Variable = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if !p.expectPeek(token.IN) || !p.expectPeek(token.RANGE) || !p.expectPeek(token.LPAREN) {
		return nil
	}

	p.nextToken()
	stmt.Start = p.parseExpression(LOWEST)
	if p.failed || !p.expectPeek(token.COMMA) {
		return nil
	}
	p.nextToken()
	stmt.End = p.parseExpression(LOWEST)
	if p.failed {
		return nil
	}
	if p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		stmt.Step = p.parseExpression(LOWEST)
		if p.failed {
			return nil
		}
	}
	if !p.expectPeek(token.RPAREN) || !p.expectPeek(token.COLON) {
		return nil
	}

	stmt.Body = p.parseBlock(token.END)
	if stmt.Body == nil || !p.expectCur(token.END) {
		return nil
	}
	return stmt
}

// while cond : block end
func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}

	p.nextToken() // consume 'while'
	stmt.Condition = p.parseExpression(LOWEST)
	if p.failed || !p.expectPeek(token.COLON) {
		return nil
	}

	stmt.Body = p.parseBlock(token.END)
	if stmt.Body == nil || !p.expectCur(token.END) {
		return nil
	}
	return stmt
}

// do : block while cond
//
// A 'while' at the start of a statement inside the body closes the body.
func (p *Parser) parseDoWhileStatement() ast.Statement {
	stmt := &ast.DoWhileStatement{Token: p.curToken}

	if !p.expectPeek(token.COLON) {
		return nil
	}
	stmt.Body = p.parseBlock(token.WHILE)
	if stmt.Body == nil || !p.expectCur(token.WHILE) {
		return nil
	}

	p.nextToken() // consume 'while'
	stmt.Condition = p.parseExpression(LOWEST)
	if p.failed {
		return nil
	}
	return stmt
}
