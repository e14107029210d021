// Package vm compiles Logex programs to bytecode and runs them on a stack
// machine.
package vm

import "fmt"

// Opcode represents a single VM instruction
type Opcode byte

const (
	OP_NOP Opcode = iota

	// Stack manipulation
	OP_PUSH_NUM // Push Number constant
	OP_PUSH_STR // Push String constant
	OP_PUSH_BMP // Push Bitmap constant
	OP_POP      // Discard top of stack
	OP_DUP      // Duplicate top of stack
	OP_SWAP     // Swap the top two items

	// Arithmetic
	OP_ADD // +
	OP_SUB // -
	OP_MUL // *
	OP_DIV // /
	OP_MOD // %
	OP_POW // **
	OP_NEG // Unary minus
	OP_POS // Unary plus

	// Comparison
	OP_EQ // ==
	OP_NE // !=
	OP_LT // <
	OP_LE // <=
	OP_GT // >
	OP_GE // >=

	// Logic
	OP_AND     // ^ (bitwise XOR on two Bitmaps)
	OP_OR      // v
	OP_NOT     // !
	OP_XOR     // ⊽
	OP_IMPLIES // →
	OP_IFF     // ↔

	// Bitmaps
	OP_BAND   // &
	OP_BOR    // |
	OP_BNOT   // ~
	OP_LSHIFT // <<
	OP_RSHIFT // >>

	// Variables
	OP_LOAD_VAR  // Push variable named by an Identifier constant
	OP_STORE_VAR // Pop, store, push the stored value back

	// Control flow
	OP_JMP           // Unconditional jump
	OP_JMP_IF_FALSE  // Pop, jump if not truthy
	OP_JMP_IF_TRUE   // Pop, jump if truthy
	OP_RANGE_CHECK   // Validate [start, end, step] of a for loop in place
	OP_CALL_EXTERNAL // Call registry function: operand = name index | argc<<32
	OP_IMPORT        // Load package named by an Identifier constant, push count

	// Built-in calls, operand = argc
	OP_CALL_LIST
	OP_CALL_LPUSH
	OP_CALL_RPUSH
	OP_CALL_LPOP
	OP_CALL_RPOP
	OP_CALL_LGET
	OP_CALL_LLEN
	OP_CALL_NUM
	OP_CALL_STR
	OP_CALL_BMP
	OP_CALL_BSET
	OP_CALL_BGET
	OP_CALL_BCOUNT

	// Halt
	OP_HALT // Stop execution
)

// OpcodeNames maps opcodes to their string names (for debugging)
var OpcodeNames = map[Opcode]string{
	OP_NOP:           "NOP",
	OP_PUSH_NUM:      "PUSH_NUM",
	OP_PUSH_STR:      "PUSH_STR",
	OP_PUSH_BMP:      "PUSH_BMP",
	OP_POP:           "POP",
	OP_DUP:           "DUP",
	OP_SWAP:          "SWAP",
	OP_ADD:           "ADD",
	OP_SUB:           "SUB",
	OP_MUL:           "MUL",
	OP_DIV:           "DIV",
	OP_MOD:           "MOD",
	OP_POW:           "POW",
	OP_NEG:           "NEG",
	OP_POS:           "POS",
	OP_EQ:            "EQ",
	OP_NE:            "NE",
	OP_LT:            "LT",
	OP_LE:            "LE",
	OP_GT:            "GT",
	OP_GE:            "GE",
	OP_AND:           "AND",
	OP_OR:            "OR",
	OP_NOT:           "NOT",
	OP_XOR:           "XOR",
	OP_IMPLIES:       "IMPLIES",
	OP_IFF:           "IFF",
	OP_BAND:          "BAND",
	OP_BOR:           "BOR",
	OP_BNOT:          "BNOT",
	OP_LSHIFT:        "LSHIFT",
	OP_RSHIFT:        "RSHIFT",
	OP_LOAD_VAR:      "LOAD_VAR",
	OP_STORE_VAR:     "STORE_VAR",
	OP_JMP:           "JMP",
	OP_JMP_IF_FALSE:  "JMP_IF_FALSE",
	OP_JMP_IF_TRUE:   "JMP_IF_TRUE",
	OP_RANGE_CHECK:   "RANGE_CHECK",
	OP_CALL_EXTERNAL: "CALL_EXTERNAL",
	OP_IMPORT:        "IMPORT",
	OP_CALL_LIST:     "CALL_LIST",
	OP_CALL_LPUSH:    "CALL_LPUSH",
	OP_CALL_RPUSH:    "CALL_RPUSH",
	OP_CALL_LPOP:     "CALL_LPOP",
	OP_CALL_RPOP:     "CALL_RPOP",
	OP_CALL_LGET:     "CALL_LGET",
	OP_CALL_LLEN:     "CALL_LLEN",
	OP_CALL_NUM:      "CALL_NUM",
	OP_CALL_STR:      "CALL_STR",
	OP_CALL_BMP:      "CALL_BMP",
	OP_CALL_BSET:     "CALL_BSET",
	OP_CALL_BGET:     "CALL_BGET",
	OP_CALL_BCOUNT:   "CALL_BCOUNT",
	OP_HALT:          "HALT",
}

func (op Opcode) String() string {
	if name, ok := OpcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_%d", byte(op))
}

// infixOps maps source operators to their opcodes.
var infixOps = map[string]Opcode{
	"+":  OP_ADD,
	"-":  OP_SUB,
	"*":  OP_MUL,
	"/":  OP_DIV,
	"%":  OP_MOD,
	"**": OP_POW,
	"==": OP_EQ,
	"!=": OP_NE,
	"<":  OP_LT,
	"<=": OP_LE,
	">":  OP_GT,
	">=": OP_GE,
	"^":  OP_AND,
	"v":  OP_OR,
	"|":  OP_BOR,
	"⊽":  OP_XOR,
	"→":  OP_IMPLIES,
	"↔":  OP_IFF,
	"&":  OP_BAND,
	"<<": OP_LSHIFT,
	">>": OP_RSHIFT,
}

var prefixOps = map[string]Opcode{
	"-": OP_NEG,
	"+": OP_POS,
	"!": OP_NOT,
	"~": OP_BNOT,
}

// operatorText is the inverse of infixOps and prefixOps, used by the VM to
// hand operators to the shared evaluator.
var operatorText = func() map[Opcode]string {
	m := make(map[Opcode]string, len(infixOps)+len(prefixOps))
	for text, op := range infixOps {
		m[op] = text
	}
	for text, op := range prefixOps {
		m[op] = text
	}
	return m
}()

// builtinOps maps built-in function names to their dedicated opcodes.
var builtinOps = map[string]Opcode{
	"list":   OP_CALL_LIST,
	"lpush":  OP_CALL_LPUSH,
	"rpush":  OP_CALL_RPUSH,
	"lpop":   OP_CALL_LPOP,
	"rpop":   OP_CALL_RPOP,
	"lget":   OP_CALL_LGET,
	"llen":   OP_CALL_LLEN,
	"num":    OP_CALL_NUM,
	"str":    OP_CALL_STR,
	"bmp":    OP_CALL_BMP,
	"bset":   OP_CALL_BSET,
	"bget":   OP_CALL_BGET,
	"bcount": OP_CALL_BCOUNT,
}

var builtinNames = func() map[Opcode]string {
	m := make(map[Opcode]string, len(builtinOps))
	for name, op := range builtinOps {
		m[op] = name
	}
	return m
}()

// isBuiltinCall reports whether op is one of OP_CALL_LIST..OP_CALL_BCOUNT.
func isBuiltinCall(op Opcode) bool {
	return op >= OP_CALL_LIST && op <= OP_CALL_BCOUNT
}

// packCall encodes a CALL_EXTERNAL operand.
func packCall(nameIdx, argc int) uint64 {
	return uint64(uint32(nameIdx)) | uint64(uint32(argc))<<32
}

func unpackCall(operand uint64) (nameIdx, argc int) {
	return int(uint32(operand)), int(uint32(operand >> 32))
}
