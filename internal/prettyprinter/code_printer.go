package prettyprinter

import (
	"bytes"
	"strings"

	"github.com/funvibe/logex/internal/ast"
)

// --- Code Printer (Output looks like source code) ---

// Operator precedence (higher = binds tighter), mirroring the parser layers.
var operatorPrecedence = map[string]int{
	"⊽":  1,
	"↔":  2,
	"→":  3,
	"v":  4,
	"^":  5,
	"|":  6,
	"&":  7,
	"==": 8,
	"!=": 8,
	"<":  8,
	">":  8,
	"<=": 8,
	">=": 8,
	"<<": 9,
	">>": 9,
	"+":  10,
	"-":  10,
	"*":  11,
	"/":  11,
	"%":  11,
	"**": 12,
}

const prefixPrecedence = 13

func getPrecedence(op string) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return prefixPrecedence
}

// Right-associative operators
var rightAssoc = map[string]bool{
	"**": true,
}

var stringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)

type CodePrinter struct {
	buf    bytes.Buffer
	indent int
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

// Print renders node as canonical source text.
func Print(node ast.Node) string {
	p := NewCodePrinter()
	node.Accept(p)
	return p.String()
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
}

// printExpr prints an expression, adding parentheses only if needed
func (p *CodePrinter) printExpr(expr ast.Expression, parentPrec int, isRight bool) {
	if expr == nil {
		p.write("<???>")
		return
	}
	infix, ok := expr.(*ast.InfixExpression)
	if !ok {
		expr.Accept(p)
		return
	}
	prec := getPrecedence(infix.Operator)
	needParens := prec < parentPrec
	// For same precedence, check associativity
	if prec == parentPrec {
		needParens = isRight != rightAssoc[infix.Operator]
	}
	if needParens {
		p.write("(")
	}
	infix.Accept(p)
	if needParens {
		p.write(")")
	}
}

func (p *CodePrinter) printBlock(n *ast.BlockStatement) {
	p.write(":\n")
	p.indent++
	if n != nil {
		for _, stmt := range n.Statements {
			p.writeIndent()
			stmt.Accept(p)
			p.write("\n")
		}
	}
	p.indent--
	p.writeIndent()
}

func (p *CodePrinter) VisitProgram(n *ast.Program) {
	for _, stmt := range n.Statements {
		if stmt != nil {
			stmt.Accept(p)
		} else {
			p.write("<???>")
		}
		p.write("\n")
	}
}

func (p *CodePrinter) VisitExpressionStatement(n *ast.ExpressionStatement) {
	p.printExpr(n.Expression, 0, false)
}

func (p *CodePrinter) VisitAssignStatement(n *ast.AssignStatement) {
	if n.Let {
		p.write("let ")
	}
	if n.Static {
		p.write("static ")
	}
	p.write(n.Name.Value)
	p.write(" = ")
	p.printExpr(n.Value, 0, false)
}

func (p *CodePrinter) VisitBlockStatement(n *ast.BlockStatement) {
	for i, stmt := range n.Statements {
		if i > 0 {
			p.write("; ")
		}
		stmt.Accept(p)
	}
}

func (p *CodePrinter) VisitIfStatement(n *ast.IfStatement) {
	p.write("if ")
	p.printExpr(n.Condition, 0, false)
	p.write(" ")
	p.printBlock(n.Consequence)
	if n.Alternative != nil {
		p.write("else ")
		p.printBlock(n.Alternative)
	}
	p.write("end")
}

func (p *CodePrinter) VisitForStatement(n *ast.ForStatement) {
	p.write("for ")
	p.write(n.Variable.Value)
	p.write(" in range(")
	p.printExpr(n.Start, 0, false)
	p.write(", ")
	p.printExpr(n.End, 0, false)
	if n.Step != nil {
		p.write(", ")
		p.printExpr(n.Step, 0, false)
	}
	p.write(") ")
	p.printBlock(n.Body)
	p.write("end")
}

func (p *CodePrinter) VisitWhileStatement(n *ast.WhileStatement) {
	p.write("while ")
	p.printExpr(n.Condition, 0, false)
	p.write(" ")
	p.printBlock(n.Body)
	p.write("end")
}

func (p *CodePrinter) VisitDoWhileStatement(n *ast.DoWhileStatement) {
	p.write("do ")
	p.printBlock(n.Body)
	p.write("while ")
	p.printExpr(n.Condition, 0, false)
}

func (p *CodePrinter) VisitImportStatement(n *ast.ImportStatement) {
	p.write("import ")
	p.write(n.Name.Value)
}

func (p *CodePrinter) VisitNumberLiteral(n *ast.NumberLiteral) {
	p.write(n.Value)
}

func (p *CodePrinter) VisitStringLiteral(n *ast.StringLiteral) {
	p.write(`"` + stringEscaper.Replace(n.Value) + `"`)
}

func (p *CodePrinter) VisitBitmapLiteral(n *ast.BitmapLiteral) {
	p.write("B" + n.Bits)
}

func (p *CodePrinter) VisitIdentifier(n *ast.Identifier) {
	p.write(n.Value)
}

func (p *CodePrinter) VisitPrefixExpression(n *ast.PrefixExpression) {
	p.write(n.Operator)
	p.printExpr(n.Right, prefixPrecedence, true)
}

func (p *CodePrinter) VisitInfixExpression(n *ast.InfixExpression) {
	prec := getPrecedence(n.Operator)
	p.printExpr(n.Left, prec, false)
	p.write(" " + n.Operator + " ")
	p.printExpr(n.Right, prec, true)
}

func (p *CodePrinter) VisitCallExpression(n *ast.CallExpression) {
	p.write(n.Function.Value)
	p.write("(")
	for i, arg := range n.Arguments {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(arg, 0, false)
	}
	p.write(")")
}
