package ast

import (
	"github.com/funvibe/logex/internal/token"
)

// TokenProvider is an interface for any AST node that can provide its primary token.
// This is useful for error reporting.
type TokenProvider interface {
	GetToken() token.Token
}

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	Accept(v Visitor)
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
	GetToken() token.Token
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
	GetToken() token.Token
}

// Visitor is implemented by every AST walker.
type Visitor interface {
	VisitProgram(p *Program)
	VisitExpressionStatement(s *ExpressionStatement)
	VisitAssignStatement(s *AssignStatement)
	VisitBlockStatement(s *BlockStatement)
	VisitIfStatement(s *IfStatement)
	VisitForStatement(s *ForStatement)
	VisitWhileStatement(s *WhileStatement)
	VisitDoWhileStatement(s *DoWhileStatement)
	VisitImportStatement(s *ImportStatement)

	VisitNumberLiteral(e *NumberLiteral)
	VisitStringLiteral(e *StringLiteral)
	VisitBitmapLiteral(e *BitmapLiteral)
	VisitIdentifier(e *Identifier)
	VisitPrefixExpression(e *PrefixExpression)
	VisitInfixExpression(e *InfixExpression)
	VisitCallExpression(e *CallExpression)
}

// Program is the root node of every AST our parser produces.
type Program struct {
	File       string // Source file path
	Statements []Statement
}

func (p *Program) Accept(v Visitor) { v.VisitProgram(p) }
func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

// Identifier names a variable or a function.
type Identifier struct {
	Token token.Token // the token.IDENT token
	Value string
}

func (i *Identifier) Accept(v Visitor)     { v.VisitIdentifier(i) }
func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Lexeme }
func (i *Identifier) GetToken() token.Token {
	if i == nil {
		return token.Token{}
	}
	return i.Token
}
