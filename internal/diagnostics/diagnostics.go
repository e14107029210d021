package diagnostics

import (
	"errors"
	"fmt"

	"github.com/funvibe/logex/internal/token"
	"github.com/funvibe/logex/internal/value"
)

type ErrorCode string

const (
	// Lexer
	ErrL001 ErrorCode = "L001" // illegal character
	ErrL002 ErrorCode = "L002" // unterminated string

	// Parser
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // expected token
	ErrP003 ErrorCode = "P003" // invalid literal
	ErrP004 ErrorCode = "P004" // nesting too deep

	// Runtime
	ErrR001 ErrorCode = "R001"
	ErrR002 ErrorCode = "R002" // undefined variable
	ErrR003 ErrorCode = "R003" // undefined function
	ErrR004 ErrorCode = "R004" // wrong argument count
	ErrR005 ErrorCode = "R005" // type mismatch
	ErrR006 ErrorCode = "R006" // arithmetic
	ErrR007 ErrorCode = "R007" // division by zero
	ErrR008 ErrorCode = "R008" // import failure

	// VM
	ErrV001 ErrorCode = "V001" // stack underflow
	ErrV002 ErrorCode = "V002" // stack overflow
	ErrV003 ErrorCode = "V003" // unknown opcode
	ErrV004 ErrorCode = "V004" // bad bytecode
)

// Category groups failures for the statement result surface.
type Category int

const (
	Runtime Category = iota
	Syntax
	Type
	Name
	Arithmetic
	DivisionByZero
)

func (c Category) String() string {
	switch c {
	case Syntax:
		return "Syntax"
	case Type:
		return "Type"
	case Name:
		return "Name"
	case Arithmetic:
		return "Arithmetic"
	case DivisionByZero:
		return "DivisionByZero"
	}
	return "Runtime"
}

var (
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrUndefinedFunction = errors.New("undefined function")
	ErrArity             = errors.New("wrong number of arguments")
)

var codeCategory = map[ErrorCode]Category{
	ErrL001: Syntax, ErrL002: Syntax,
	ErrP001: Syntax, ErrP002: Syntax, ErrP003: Syntax, ErrP004: Syntax,
	ErrR002: Name, ErrR003: Name, ErrR004: Runtime,
	ErrR005: Type, ErrR006: Arithmetic, ErrR007: DivisionByZero,
}

// DiagnosticError is a failure tied to a source position.
type DiagnosticError struct {
	Code     ErrorCode
	Category Category
	File     string
	Token    token.Token
	Message  string
	Err      error
}

func (e *DiagnosticError) Error() string {
	pos := ""
	if e.Token.Line > 0 {
		pos = fmt.Sprintf("%d:%d: ", e.Token.Line, e.Token.Column)
	}
	if e.File != "" {
		pos = e.File + ":" + pos
	}
	return fmt.Sprintf("[%s] %s%s", e.Code, pos, e.Message)
}

func (e *DiagnosticError) Unwrap() error { return e.Err }

// NewError builds a diagnostic. An error argument becomes the wrapped cause;
// anything else is formatted into the message.
func NewError(code ErrorCode, tok token.Token, args ...interface{}) *DiagnosticError {
	e := &DiagnosticError{Code: code, Token: tok}
	var parts []interface{}
	for _, a := range args {
		if err, ok := a.(error); ok && e.Err == nil {
			e.Err = err
		}
		parts = append(parts, a)
	}
	e.Message = fmt.Sprint(parts...)
	if cat, ok := codeCategory[code]; ok {
		e.Category = cat
	} else {
		e.Category = Classify(e.Err)
	}
	return e
}

// Wrap converts err into a DiagnosticError, picking the code from its cause.
func Wrap(err error, tok token.Token) *DiagnosticError {
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de
	}
	return NewError(CodeFor(err), tok, err)
}

// CodeFor maps a cause to its runtime error code.
func CodeFor(err error) ErrorCode {
	switch {
	case errors.Is(err, value.ErrDivisionByZero):
		return ErrR007
	case errors.Is(err, value.ErrType):
		return ErrR005
	case errors.Is(err, value.ErrMalformed), errors.Is(err, value.ErrCeiling),
		errors.Is(err, value.ErrDomain), errors.Is(err, value.ErrIndex):
		return ErrR006
	case errors.Is(err, ErrUndefinedVariable):
		return ErrR002
	case errors.Is(err, ErrUndefinedFunction):
		return ErrR003
	case errors.Is(err, ErrArity):
		return ErrR004
	}
	return ErrR001
}

// Classify maps any error to a Category.
func Classify(err error) Category {
	if err == nil {
		return Runtime
	}
	var de *DiagnosticError
	if errors.As(err, &de) && (de.Err == nil || de.Category != Runtime) {
		return de.Category
	}
	switch {
	case errors.Is(err, value.ErrDivisionByZero):
		return DivisionByZero
	case errors.Is(err, value.ErrType):
		return Type
	case errors.Is(err, value.ErrMalformed), errors.Is(err, value.ErrCeiling),
		errors.Is(err, value.ErrDomain), errors.Is(err, value.ErrIndex):
		return Arithmetic
	case errors.Is(err, ErrUndefinedVariable), errors.Is(err, ErrUndefinedFunction):
		return Name
	}
	return Runtime
}
