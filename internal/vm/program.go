package vm

import (
	"fmt"

	"github.com/funvibe/logex/internal/value"
)

// ConstTag identifies the kind of a constant pool entry.
type ConstTag byte

const (
	ConstNumber ConstTag = iota
	ConstString
	ConstIdent
	ConstBitmap
)

func (t ConstTag) String() string {
	switch t {
	case ConstNumber:
		return "NUM"
	case ConstString:
		return "STR"
	case ConstIdent:
		return "IDENT"
	case ConstBitmap:
		return "BMP"
	}
	return fmt.Sprintf("TAG_%d", byte(t))
}

// Constant is a pool entry. Identifiers keep their name in Name; the other
// tags carry a Value.
type Constant struct {
	Tag   ConstTag
	Value value.Value
	Name  string
}

func (c Constant) String() string {
	if c.Tag == ConstIdent {
		return c.Name
	}
	return c.Value.String()
}

// key identifies equal constants for deduplication.
func (c Constant) key() string {
	switch c.Tag {
	case ConstIdent:
		return "i:" + c.Name
	case ConstNumber:
		return fmt.Sprintf("n:%s/%d/%t", c.Value.Digits(), c.Value.DecimalPos(), c.Value.Negative())
	case ConstString:
		return "s:" + c.Value.Text()
	}
	return fmt.Sprintf("%d:%s", c.Tag, c.Value.String())
}

// Instruction is one fixed-width record: an opcode and a 64-bit operand.
type Instruction struct {
	Op      Opcode
	Operand uint64
}

// Program flags
const (
	FlagDebugInfo uint32 = 1 << iota
)

// Program is a compiled unit: one constant pool and one instruction stream.
type Program struct {
	Constants []Constant
	Code      []Instruction

	// Lines and Columns map each instruction to its source position.
	// Present when Flags has FlagDebugInfo.
	Lines   []int
	Columns []int

	Source     string
	EntryPoint uint32
	Flags      uint32
}

// NewProgram creates an empty program for source.
func NewProgram(source string) *Program {
	return &Program{
		Constants: make([]Constant, 0, 16),
		Code:      make([]Instruction, 0, 64),
		Lines:     make([]int, 0, 64),
		Columns:   make([]int, 0, 64),
		Source:    source,
		Flags:     FlagDebugInfo,
	}
}

// Emit appends an instruction and returns its position.
func (p *Program) Emit(op Opcode, operand uint64, line, col int) int {
	p.Code = append(p.Code, Instruction{Op: op, Operand: operand})
	p.Lines = append(p.Lines, line)
	p.Columns = append(p.Columns, col)
	return len(p.Code) - 1
}

// AddConstant appends a constant and returns its index.
func (p *Program) AddConstant(c Constant) int {
	p.Constants = append(p.Constants, c)
	return len(p.Constants) - 1
}

// Position returns the source line and column of the instruction at pc, or
// zeros when the program carries no debug info.
func (p *Program) Position(pc int) (int, int) {
	if p.Flags&FlagDebugInfo == 0 || pc < 0 || pc >= len(p.Lines) || pc >= len(p.Columns) {
		return 0, 0
	}
	return p.Lines[pc], p.Columns[pc]
}

// StripDebugInfo drops the source position tables.
func (p *Program) StripDebugInfo() {
	p.Flags &^= FlagDebugInfo
	p.Lines = nil
	p.Columns = nil
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Code)
}
