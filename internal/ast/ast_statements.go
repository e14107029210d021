package ast

import "github.com/funvibe/logex/internal/token"

// ExpressionStatement wraps an expression used as a statement.
type ExpressionStatement struct {
	Token      token.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) Accept(v Visitor)      { v.VisitExpressionStatement(es) }
func (es *ExpressionStatement) statementNode()        {}
func (es *ExpressionStatement) TokenLiteral() string  { return es.Token.Lexeme }
func (es *ExpressionStatement) GetToken() token.Token { return es.Token }

// AssignStatement binds a name: [let|static] name = value
type AssignStatement struct {
	Token  token.Token // the identifier, or the let/static keyword
	Name   *Identifier
	Value  Expression
	Let    bool
	Static bool
}

func (as *AssignStatement) Accept(v Visitor)      { v.VisitAssignStatement(as) }
func (as *AssignStatement) statementNode()        {}
func (as *AssignStatement) TokenLiteral() string  { return as.Token.Lexeme }
func (as *AssignStatement) GetToken() token.Token { return as.Token }

// BlockStatement is the body of a control construct.
type BlockStatement struct {
	Token      token.Token // ':' opening the block
	Statements []Statement
}

func (bs *BlockStatement) Accept(v Visitor)      { v.VisitBlockStatement(bs) }
func (bs *BlockStatement) statementNode()        {}
func (bs *BlockStatement) TokenLiteral() string  { return bs.Token.Lexeme }
func (bs *BlockStatement) GetToken() token.Token { return bs.Token }

// IfStatement: if cond : block [else : block] end
type IfStatement struct {
	Token       token.Token
	Condition   Expression
	Consequence *BlockStatement
	Alternative *BlockStatement // nil without else
}

func (is *IfStatement) Accept(v Visitor)      { v.VisitIfStatement(is) }
func (is *IfStatement) statementNode()        {}
func (is *IfStatement) TokenLiteral() string  { return is.Token.Lexeme }
func (is *IfStatement) GetToken() token.Token { return is.Token }

// ForStatement: for var in range(start, end [, step]) : block end
type ForStatement struct {
	Token    token.Token
	Variable *Identifier
	Start    Expression
	End      Expression
	Step     Expression // nil means 1
	Body     *BlockStatement
}

func (fs *ForStatement) Accept(v Visitor)      { v.VisitForStatement(fs) }
func (fs *ForStatement) statementNode()        {}
func (fs *ForStatement) TokenLiteral() string  { return fs.Token.Lexeme }
func (fs *ForStatement) GetToken() token.Token { return fs.Token }

// WhileStatement: while cond : block end
type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStatement
}

func (ws *WhileStatement) Accept(v Visitor)      { v.VisitWhileStatement(ws) }
func (ws *WhileStatement) statementNode()        {}
func (ws *WhileStatement) TokenLiteral() string  { return ws.Token.Lexeme }
func (ws *WhileStatement) GetToken() token.Token { return ws.Token }

// DoWhileStatement: do : block while cond
type DoWhileStatement struct {
	Token     token.Token
	Body      *BlockStatement
	Condition Expression
}

func (ds *DoWhileStatement) Accept(v Visitor)      { v.VisitDoWhileStatement(ds) }
func (ds *DoWhileStatement) statementNode()        {}
func (ds *DoWhileStatement) TokenLiteral() string  { return ds.Token.Lexeme }
func (ds *DoWhileStatement) GetToken() token.Token { return ds.Token }

// ImportStatement: import name
type ImportStatement struct {
	Token token.Token // The 'import' token
	Name  *Identifier
}

func (is *ImportStatement) Accept(v Visitor)      { v.VisitImportStatement(is) }
func (is *ImportStatement) statementNode()        {}
func (is *ImportStatement) TokenLiteral() string  { return is.Token.Lexeme }
func (is *ImportStatement) GetToken() token.Token { return is.Token }
