package vm

import (
	"fmt"

	"github.com/funvibe/logex/internal/ast"
	"github.com/funvibe/logex/internal/config"
	"github.com/funvibe/logex/internal/diagnostics"
	"github.com/funvibe/logex/internal/token"
	"github.com/funvibe/logex/internal/value"
)

// label is a jump target that may not be known yet.
type label int

// fixup records a jump whose operand must be patched with a label's position.
type fixup struct {
	pos   int
	label label
}

// Compiler lowers an AST to a Program in a single pass. Forward jumps are
// emitted with a placeholder operand and patched from the fixup list once
// every label is bound.
type Compiler struct {
	program *Program
	limits  value.Limits

	// constants deduplicates pool entries; identifiers share one slot per name
	constants map[string]int

	labels []int // label -> position, -1 while unbound
	fixups []fixup

	forCount int
	tok      token.Token // position of the node being compiled
}

func NewCompiler(limits value.Limits) *Compiler {
	return &Compiler{limits: limits}
}

// Compile lowers program. Every statement leaves exactly one value on the
// stack; the top-level sequence keeps only the last one and ends in HALT.
func (c *Compiler) Compile(program *ast.Program) (*Program, error) {
	c.program = NewProgram(program.File)
	c.constants = make(map[string]int)
	c.labels = c.labels[:0]
	c.fixups = c.fixups[:0]
	c.forCount = 0

	for i, stmt := range program.Statements {
		if i > 0 {
			c.emit(OP_POP, 0)
		}
		if err := c.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	c.emit(OP_HALT, 0)

	if err := c.resolve(); err != nil {
		return nil, err
	}
	return c.program, nil
}

// Compile is a shortcut for NewCompiler(limits).Compile(program).
func Compile(program *ast.Program, limits value.Limits) (*Program, error) {
	return NewCompiler(limits).Compile(program)
}

func (c *Compiler) emit(op Opcode, operand uint64) int {
	return c.program.Emit(op, operand, c.tok.Line, c.tok.Column)
}

func (c *Compiler) newLabel() label {
	c.labels = append(c.labels, -1)
	return label(len(c.labels) - 1)
}

// bind places l at the next instruction.
func (c *Compiler) bind(l label) {
	c.labels[l] = len(c.program.Code)
}

// emitJump emits a jump to l, which may be bound later.
func (c *Compiler) emitJump(op Opcode, l label) {
	pos := c.emit(op, 0)
	c.fixups = append(c.fixups, fixup{pos: pos, label: l})
}

// resolve patches every recorded jump with its label's position.
func (c *Compiler) resolve() error {
	for _, f := range c.fixups {
		target := c.labels[f.label]
		if target < 0 {
			return fmt.Errorf("compiler: jump at %d targets unbound label %d", f.pos, f.label)
		}
		c.program.Code[f.pos].Operand = uint64(target)
	}
	c.fixups = c.fixups[:0]
	return nil
}

func (c *Compiler) constant(k Constant) int {
	key := k.key()
	if idx, ok := c.constants[key]; ok {
		return idx
	}
	idx := c.program.AddConstant(k)
	c.constants[key] = idx
	return idx
}

// symbol returns the pool slot of an identifier.
func (c *Compiler) symbol(name string) uint64 {
	return uint64(c.constant(Constant{Tag: ConstIdent, Name: name}))
}

func (c *Compiler) pushNumber(v value.Value) {
	c.emit(OP_PUSH_NUM, uint64(c.constant(Constant{Tag: ConstNumber, Value: v})))
}

func (c *Compiler) fail(tok token.Token, err error) error {
	de := diagnostics.Wrap(err, tok)
	if de.File == "" {
		de.File = c.program.Source
	}
	return de
}

func (c *Compiler) at(node interface{ GetToken() token.Token }) {
	if tok := node.GetToken(); tok.Line > 0 {
		c.tok = tok
	}
}

func (c *Compiler) compileStatement(stmt ast.Statement) error {
	c.at(stmt)
	switch stmt := stmt.(type) {
	case *ast.ExpressionStatement:
		return c.compileExpression(stmt.Expression)
	case *ast.AssignStatement:
		if err := c.compileExpression(stmt.Value); err != nil {
			return err
		}
		c.at(stmt.Name)
		c.emit(OP_STORE_VAR, c.symbol(stmt.Name.Value))
	case *ast.ImportStatement:
		c.emit(OP_IMPORT, c.symbol(stmt.Name.Value))
	case *ast.BlockStatement:
		return c.compileBlock(stmt)
	case *ast.IfStatement:
		return c.compileIf(stmt)
	case *ast.ForStatement:
		return c.compileFor(stmt)
	case *ast.WhileStatement:
		return c.compileWhile(stmt)
	case *ast.DoWhileStatement:
		return c.compileDoWhile(stmt)
	default:
		return fmt.Errorf("compiler: unsupported statement %T", stmt)
	}
	return nil
}

// compileBlock keeps the last statement's value. An empty block yields 0.
func (c *Compiler) compileBlock(block *ast.BlockStatement) error {
	if block == nil || len(block.Statements) == 0 {
		c.pushNumber(value.FromInt(0))
		return nil
	}
	for i, stmt := range block.Statements {
		if i > 0 {
			c.emit(OP_POP, 0)
		}
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileIf(stmt *ast.IfStatement) error {
	elseLabel := c.newLabel()
	endLabel := c.newLabel()

	if err := c.compileExpression(stmt.Condition); err != nil {
		return err
	}
	c.at(stmt)
	c.emitJump(OP_JMP_IF_FALSE, elseLabel)
	if err := c.compileBlock(stmt.Consequence); err != nil {
		return err
	}
	c.emitJump(OP_JMP, endLabel)
	c.bind(elseLabel)
	if stmt.Alternative != nil {
		if err := c.compileBlock(stmt.Alternative); err != nil {
			return err
		}
	} else {
		c.pushNumber(value.FromInt(0))
	}
	c.bind(endLabel)
	return nil
}

// Loops keep a running result below the body's value and replace it after
// every iteration with SWAP; POP.
func (c *Compiler) compileWhile(stmt *ast.WhileStatement) error {
	startLabel := c.newLabel()
	endLabel := c.newLabel()

	c.pushNumber(value.FromInt(0))
	c.bind(startLabel)
	if err := c.compileExpression(stmt.Condition); err != nil {
		return err
	}
	c.at(stmt)
	c.emitJump(OP_JMP_IF_FALSE, endLabel)
	if err := c.compileBlock(stmt.Body); err != nil {
		return err
	}
	c.emit(OP_SWAP, 0)
	c.emit(OP_POP, 0)
	c.emitJump(OP_JMP, startLabel)
	c.bind(endLabel)
	return nil
}

func (c *Compiler) compileDoWhile(stmt *ast.DoWhileStatement) error {
	startLabel := c.newLabel()

	c.pushNumber(value.FromInt(0))
	c.bind(startLabel)
	if err := c.compileBlock(stmt.Body); err != nil {
		return err
	}
	c.at(stmt)
	c.emit(OP_SWAP, 0)
	c.emit(OP_POP, 0)
	if err := c.compileExpression(stmt.Condition); err != nil {
		return err
	}
	c.at(stmt)
	c.emitJump(OP_JMP_IF_TRUE, startLabel)
	return nil
}

// compileFor keeps the counter, bound and step in hidden variables so that
// writes to the loop variable inside the body do not affect iteration.
func (c *Compiler) compileFor(stmt *ast.ForStatement) error {
	prefix := fmt.Sprintf("%sfor%d.", config.HiddenPrefix, c.forCount)
	c.forCount++
	cur := c.symbol(prefix + "cur")
	end := c.symbol(prefix + "end")
	step := c.symbol(prefix + "step")

	if err := c.compileExpression(stmt.Start); err != nil {
		return err
	}
	if err := c.compileExpression(stmt.End); err != nil {
		return err
	}
	if stmt.Step != nil {
		if err := c.compileExpression(stmt.Step); err != nil {
			return err
		}
	} else {
		c.pushNumber(value.FromInt(1))
	}

	c.at(stmt)
	c.emit(OP_RANGE_CHECK, 0)
	for _, slot := range []uint64{step, end, cur} {
		c.emit(OP_STORE_VAR, slot)
		c.emit(OP_POP, 0)
	}

	startLabel := c.newLabel()
	endLabel := c.newLabel()

	c.pushNumber(value.FromInt(0))
	c.bind(startLabel)
	c.emit(OP_LOAD_VAR, cur)
	c.emit(OP_LOAD_VAR, end)
	c.emit(OP_LT, 0)
	c.emitJump(OP_JMP_IF_FALSE, endLabel)

	c.emit(OP_LOAD_VAR, cur)
	c.at(stmt.Variable)
	c.emit(OP_STORE_VAR, c.symbol(stmt.Variable.Value))
	c.emit(OP_POP, 0)

	if err := c.compileBlock(stmt.Body); err != nil {
		return err
	}
	c.at(stmt)
	c.emit(OP_SWAP, 0)
	c.emit(OP_POP, 0)

	c.emit(OP_LOAD_VAR, cur)
	c.emit(OP_LOAD_VAR, step)
	c.emit(OP_ADD, 0)
	c.emit(OP_STORE_VAR, cur)
	c.emit(OP_POP, 0)
	c.emitJump(OP_JMP, startLabel)
	c.bind(endLabel)
	return nil
}

func (c *Compiler) compileExpression(expr ast.Expression) error {
	if expr == nil {
		return fmt.Errorf("compiler: missing expression")
	}
	c.at(expr)
	switch expr := expr.(type) {
	case *ast.NumberLiteral:
		v, err := c.limits.ParseNumber(expr.Value)
		if err != nil {
			return c.fail(expr.Token, err)
		}
		c.pushNumber(v)
	case *ast.StringLiteral:
		c.emit(OP_PUSH_STR, uint64(c.constant(Constant{Tag: ConstString, Value: value.NewString(expr.Value)})))
	case *ast.BitmapLiteral:
		v, err := value.ParseBitmap(expr.Bits)
		if err != nil {
			return c.fail(expr.Token, err)
		}
		c.emit(OP_PUSH_BMP, uint64(c.constant(Constant{Tag: ConstBitmap, Value: v})))
	case *ast.Identifier:
		c.emit(OP_LOAD_VAR, c.symbol(expr.Value))
	case *ast.PrefixExpression:
		op, ok := prefixOps[expr.Operator]
		if !ok {
			return c.fail(expr.Token, fmt.Errorf("unknown operator: %s", expr.Operator))
		}
		if err := c.compileExpression(expr.Right); err != nil {
			return err
		}
		c.at(expr)
		c.emit(op, 0)
	case *ast.InfixExpression:
		op, ok := infixOps[expr.Operator]
		if !ok {
			return c.fail(expr.Token, fmt.Errorf("unknown operator: %s", expr.Operator))
		}
		if err := c.compileExpression(expr.Left); err != nil {
			return err
		}
		if err := c.compileExpression(expr.Right); err != nil {
			return err
		}
		c.at(expr)
		c.emit(op, 0)
	case *ast.CallExpression:
		return c.compileCall(expr)
	default:
		return fmt.Errorf("compiler: unsupported expression %T", expr)
	}
	return nil
}

// compileCall resolves built-in names to their opcodes at compile time.
// Anything else becomes CALL_EXTERNAL and is looked up when it runs.
func (c *Compiler) compileCall(call *ast.CallExpression) error {
	for _, arg := range call.Arguments {
		if err := c.compileExpression(arg); err != nil {
			return err
		}
	}
	c.at(call.Function)
	name := call.Function.Value
	argc := len(call.Arguments)
	if op, ok := builtinOps[name]; ok {
		c.emit(op, uint64(argc))
		return nil
	}
	c.emit(OP_CALL_EXTERNAL, packCall(int(c.symbol(name)), argc))
	return nil
}
