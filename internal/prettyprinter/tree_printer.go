package prettyprinter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/funvibe/logex/internal/ast"
)

// TreePrinter dumps the AST one node per line, children indented.
type TreePrinter struct {
	buf   bytes.Buffer
	depth int
}

func NewTreePrinter() *TreePrinter {
	return &TreePrinter{}
}

// Tree renders node as an indented node listing.
func Tree(node ast.Node) string {
	p := NewTreePrinter()
	node.Accept(p)
	return p.String()
}

func (p *TreePrinter) String() string { return p.buf.String() }

func (p *TreePrinter) line(format string, args ...interface{}) {
	p.buf.WriteString(strings.Repeat("  ", p.depth))
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteByte('\n')
}

func (p *TreePrinter) child(label string, n ast.Node) {
	p.depth++
	if label != "" {
		p.line("%s:", label)
		p.depth++
	}
	if n == nil {
		p.line("<nil>")
	} else {
		n.Accept(p)
	}
	if label != "" {
		p.depth--
	}
	p.depth--
}

func (p *TreePrinter) VisitProgram(n *ast.Program) {
	p.line("Program")
	for _, s := range n.Statements {
		p.child("", s)
	}
}

func (p *TreePrinter) VisitExpressionStatement(n *ast.ExpressionStatement) {
	p.line("ExpressionStatement")
	p.child("", n.Expression)
}

func (p *TreePrinter) VisitAssignStatement(n *ast.AssignStatement) {
	p.line("AssignStatement %s let=%v static=%v", n.Name.Value, n.Let, n.Static)
	p.child("", n.Value)
}

func (p *TreePrinter) VisitBlockStatement(n *ast.BlockStatement) {
	p.line("Block")
	for _, s := range n.Statements {
		p.child("", s)
	}
}

func (p *TreePrinter) VisitIfStatement(n *ast.IfStatement) {
	p.line("IfStatement")
	p.child("condition", n.Condition)
	p.child("then", n.Consequence)
	if n.Alternative != nil {
		p.child("else", n.Alternative)
	}
}

func (p *TreePrinter) VisitForStatement(n *ast.ForStatement) {
	p.line("ForStatement %s", n.Variable.Value)
	p.child("start", n.Start)
	p.child("end", n.End)
	if n.Step != nil {
		p.child("step", n.Step)
	}
	p.child("body", n.Body)
}

func (p *TreePrinter) VisitWhileStatement(n *ast.WhileStatement) {
	p.line("WhileStatement")
	p.child("condition", n.Condition)
	p.child("body", n.Body)
}

func (p *TreePrinter) VisitDoWhileStatement(n *ast.DoWhileStatement) {
	p.line("DoWhileStatement")
	p.child("body", n.Body)
	p.child("condition", n.Condition)
}

func (p *TreePrinter) VisitImportStatement(n *ast.ImportStatement) {
	p.line("ImportStatement %s", n.Name.Value)
}

func (p *TreePrinter) VisitNumberLiteral(n *ast.NumberLiteral) {
	p.line("Number %s", n.Value)
}

func (p *TreePrinter) VisitStringLiteral(n *ast.StringLiteral) {
	p.line("String %q", n.Value)
}

func (p *TreePrinter) VisitBitmapLiteral(n *ast.BitmapLiteral) {
	p.line("Bitmap B%s", n.Bits)
}

func (p *TreePrinter) VisitIdentifier(n *ast.Identifier) {
	p.line("Identifier %s", n.Value)
}

func (p *TreePrinter) VisitPrefixExpression(n *ast.PrefixExpression) {
	p.line("Prefix %s", n.Operator)
	p.child("", n.Right)
}

func (p *TreePrinter) VisitInfixExpression(n *ast.InfixExpression) {
	p.line("Infix %s", n.Operator)
	p.child("", n.Left)
	p.child("", n.Right)
}

func (p *TreePrinter) VisitCallExpression(n *ast.CallExpression) {
	p.line("Call %s/%d", n.Function.Value, len(n.Arguments))
	for _, a := range n.Arguments {
		p.child("", a)
	}
}
