package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the constant pool and the
// code.
func Disassemble(p *Program) string {
	var sb strings.Builder

	name := p.Source
	if name == "" {
		name = "<script>"
	}
	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	sb.WriteString(fmt.Sprintf("constants (%d):\n", len(p.Constants)))
	for i, c := range p.Constants {
		sb.WriteString(fmt.Sprintf("  %04d %-5s %s\n", i, c.Tag, c))
	}

	sb.WriteString(fmt.Sprintf("code (%d):\n", len(p.Code)))
	for offset := range p.Code {
		disassembleInstruction(&sb, p, offset)
	}
	return sb.String()
}

// disassembleInstruction writes one line: offset, source line ("|" when
// unchanged), opcode and a decoded operand.
func disassembleInstruction(sb *strings.Builder, p *Program, offset int) {
	sb.WriteString(fmt.Sprintf("%04d ", offset))

	line, _ := p.Position(offset)
	prev, _ := p.Position(offset - 1)
	if offset > 0 && line == prev {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", line))
	}

	ins := p.Code[offset]
	switch op := ins.Op; {
	case op == OP_PUSH_NUM || op == OP_PUSH_STR || op == OP_PUSH_BMP ||
		op == OP_LOAD_VAR || op == OP_STORE_VAR || op == OP_IMPORT:
		constantInstruction(sb, p, ins)
	case op == OP_JMP || op == OP_JMP_IF_FALSE || op == OP_JMP_IF_TRUE:
		sb.WriteString(fmt.Sprintf("%-16s -> %04d\n", op, ins.Operand))
	case op == OP_CALL_EXTERNAL:
		nameIdx, argc := unpackCall(ins.Operand)
		sb.WriteString(fmt.Sprintf("%-16s %4d '%s' argc=%d\n", op, nameIdx, constantText(p, uint64(nameIdx)), argc))
	case isBuiltinCall(op):
		sb.WriteString(fmt.Sprintf("%-16s argc=%d\n", op, ins.Operand))
	default:
		sb.WriteString(fmt.Sprintf("%s\n", op))
	}
}

func constantInstruction(sb *strings.Builder, p *Program, ins Instruction) {
	sb.WriteString(fmt.Sprintf("%-16s %4d '%s'\n", ins.Op, ins.Operand, constantText(p, ins.Operand)))
}

func constantText(p *Program, idx uint64) string {
	if idx >= uint64(len(p.Constants)) {
		return "<invalid>"
	}
	return p.Constants[idx].String()
}
