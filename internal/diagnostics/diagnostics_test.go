package diagnostics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/funvibe/logex/internal/token"
	"github.com/funvibe/logex/internal/value"
)

func TestErrorRendering(t *testing.T) {
	tok := token.Token{Type: token.IDENT, Lexeme: "x", Line: 3, Column: 7}
	err := NewError(ErrR002, tok, "undefined variable: x")
	if got := err.Error(); got != "[R002] 3:7: undefined variable: x" {
		t.Errorf("got %q", got)
	}
	if err.Category != Name {
		t.Errorf("category = %s", err.Category)
	}

	err.File = "main.lgx"
	if got := err.Error(); got != "[R002] main.lgx:3:7: undefined variable: x" {
		t.Errorf("got %q", got)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("dividing: %w", value.ErrDivisionByZero)
	de := Wrap(cause, token.Token{Line: 1, Column: 1})
	if de.Code != ErrR007 || de.Category != DivisionByZero {
		t.Errorf("code=%s category=%s", de.Code, de.Category)
	}
	if !errors.Is(de, value.ErrDivisionByZero) {
		t.Error("cause is not reachable through Unwrap")
	}
	if Wrap(de, token.Token{}) != de {
		t.Error("wrapping a diagnostic should return it unchanged")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err      error
		expected Category
	}{
		{value.ErrType, Type},
		{value.ErrCeiling, Arithmetic},
		{value.ErrIndex, Arithmetic},
		{fmt.Errorf("x: %w", ErrUndefinedVariable), Name},
		{ErrArity, Runtime},
		{errors.New("boom"), Runtime},
		{NewError(ErrP001, token.Token{}, "unexpected"), Syntax},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.expected {
			t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.expected)
		}
	}
}
