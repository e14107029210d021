package ast

import "github.com/funvibe/logex/internal/token"

// NumberLiteral keeps the literal text. Parsing to a value is left to the
// consumer so that the configured digit ceiling applies.
type NumberLiteral struct {
	Token token.Token
	Value string
}

func (nl *NumberLiteral) Accept(v Visitor)      { v.VisitNumberLiteral(nl) }
func (nl *NumberLiteral) expressionNode()       {}
func (nl *NumberLiteral) TokenLiteral() string  { return nl.Token.Lexeme }
func (nl *NumberLiteral) GetToken() token.Token { return nl.Token }

type StringLiteral struct {
	Token token.Token
	Value string // escapes resolved
}

func (sl *StringLiteral) Accept(v Visitor)      { v.VisitStringLiteral(sl) }
func (sl *StringLiteral) expressionNode()       {}
func (sl *StringLiteral) TokenLiteral() string  { return sl.Token.Lexeme }
func (sl *StringLiteral) GetToken() token.Token { return sl.Token }

// BitmapLiteral holds the 0/1 digits after the B, bit 0 first.
type BitmapLiteral struct {
	Token token.Token
	Bits  string
}

func (bl *BitmapLiteral) Accept(v Visitor)      { v.VisitBitmapLiteral(bl) }
func (bl *BitmapLiteral) expressionNode()       {}
func (bl *BitmapLiteral) TokenLiteral() string  { return bl.Token.Lexeme }
func (bl *BitmapLiteral) GetToken() token.Token { return bl.Token }

// PrefixExpression represents a unary operation: ! - + ~
type PrefixExpression struct {
	Token    token.Token // The prefix token, e.g. !
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) Accept(v Visitor)      { v.VisitPrefixExpression(pe) }
func (pe *PrefixExpression) expressionNode()       {}
func (pe *PrefixExpression) TokenLiteral() string  { return pe.Token.Lexeme }
func (pe *PrefixExpression) GetToken() token.Token { return pe.Token }

// InfixExpression represents an infix operation, e.g., 5 + 5.
type InfixExpression struct {
	Token    token.Token // The operator token, e.g. +
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) Accept(v Visitor)      { v.VisitInfixExpression(ie) }
func (ie *InfixExpression) expressionNode()       {}
func (ie *InfixExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *InfixExpression) GetToken() token.Token { return ie.Token }

// CallExpression calls a function by name.
type CallExpression struct {
	Token     token.Token // The '(' token
	Function  *Identifier
	Arguments []Expression
}

func (ce *CallExpression) Accept(v Visitor)      { v.VisitCallExpression(ce) }
func (ce *CallExpression) expressionNode()       {}
func (ce *CallExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *CallExpression) GetToken() token.Token { return ce.Token }
