package vm

import (
	"errors"
	"fmt"

	"github.com/funvibe/logex/internal/diagnostics"
)

var (
	errStackUnderflow       = errors.New("stack underflow")
	errStackOverflow        = errors.New("stack overflow")
	errUnknownOpcode        = errors.New("unknown opcode")
	errInvalidConstantIndex = errors.New("invalid constant index")
	errInvalidJump          = errors.New("jump target out of range")
	errNoLoader             = errors.New("no package loader configured")
	errImport               = errors.New("import failed")
)

// RuntimeError is a failure raised while executing an instruction.
type RuntimeError struct {
	Code     diagnostics.ErrorCode
	Category diagnostics.Category
	Op       Opcode
	PC       int
	Line     int
	Column   int
	File     string
	Err      error
}

func (e *RuntimeError) Error() string {
	pos := ""
	if e.Line > 0 {
		pos = fmt.Sprintf("%d:%d: ", e.Line, e.Column)
		if e.File != "" {
			pos = e.File + ":" + pos
		}
	}
	return fmt.Sprintf("[%s] %s%s at pc %d: %v", e.Code, pos, e.Op, e.PC, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// newRuntimeError picks the code and category from the cause.
func newRuntimeError(p *Program, op Opcode, pc int, err error) *RuntimeError {
	code := diagnostics.CodeFor(err)
	switch {
	case errors.Is(err, errStackUnderflow):
		code = diagnostics.ErrV001
	case errors.Is(err, errStackOverflow):
		code = diagnostics.ErrV002
	case errors.Is(err, errUnknownOpcode):
		code = diagnostics.ErrV003
	case errors.Is(err, errInvalidConstantIndex), errors.Is(err, errInvalidJump):
		code = diagnostics.ErrV004
	case errors.Is(err, errImport):
		code = diagnostics.ErrR008
	}
	line, col := p.Position(pc)
	return &RuntimeError{
		Code:     code,
		Category: diagnostics.Classify(err),
		Op:       op,
		PC:       pc,
		Line:     line,
		Column:   col,
		File:     p.Source,
		Err:      err,
	}
}
