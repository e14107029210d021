package parser_test

import (
	"strings"
	"testing"

	"github.com/funvibe/logex/internal/diagnostics"
	"github.com/funvibe/logex/internal/lexer"
	"github.com/funvibe/logex/internal/parser"
	"github.com/funvibe/logex/internal/pipeline"
)

// parseWithErrors runs the lexer+parser and returns all diagnostic errors.
func parseWithErrors(input string) []*diagnostics.DiagnosticError {
	ctx := &pipeline.PipelineContext{SourceCode: input}
	lp := &lexer.LexerProcessor{}
	ctx = lp.Process(ctx)
	pp := &parser.ParserProcessor{}
	ctx = pp.Process(ctx)
	return ctx.Errors
}

// expectError asserts an error with the given code was reported.
func expectError(t *testing.T, input string, code diagnostics.ErrorCode) *diagnostics.DiagnosticError {
	t.Helper()
	errs := parseWithErrors(input)
	if len(errs) == 0 {
		t.Fatalf("expected error %s, but got none\ninput: %s", code, input)
	}
	for _, e := range errs {
		if e.Code == code {
			return e
		}
	}
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	t.Fatalf("expected error %s, got:\n%s\ninput: %s", code, strings.Join(msgs, "\n"), input)
	return nil
}

// expectNoErrors asserts parsing succeeds without errors.
func expectNoErrors(t *testing.T, input string) {
	t.Helper()
	errs := parseWithErrors(input)
	if len(errs) > 0 {
		var msgs []string
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		t.Fatalf("expected no errors, got:\n%s\ninput: %s", strings.Join(msgs, "\n"), input)
	}
}

// ---------------------------------------------------------------------------
// L001/L002: Lexer failures surface through the parser
// ---------------------------------------------------------------------------

func TestL001_IllegalCharacter(t *testing.T) {
	err := expectError(t, "x = 1 @ 2", diagnostics.ErrL001)
	if err.Token.Column != 7 {
		t.Errorf("column = %d, want 7", err.Token.Column)
	}
}

func TestL001_IllegalAtStatementStart(t *testing.T) {
	expectError(t, "$", diagnostics.ErrL001)
}

func TestL002_UnterminatedString(t *testing.T) {
	expectError(t, `s = "abc`, diagnostics.ErrL002)
}

// ---------------------------------------------------------------------------
// P001: Unexpected token
// ---------------------------------------------------------------------------

func TestP001_DanglingOperator(t *testing.T) {
	expectError(t, "1 +", diagnostics.ErrP001)
}

func TestP001_TwoExpressionsOnOneLine(t *testing.T) {
	expectError(t, "1 2", diagnostics.ErrP001)
}

func TestP001_StrayEnd(t *testing.T) {
	expectError(t, "end", diagnostics.ErrP001)
}

func TestP001_DuplicateLet(t *testing.T) {
	expectError(t, "let let x = 1", diagnostics.ErrP001)
}

func TestP001_DuplicateStatic(t *testing.T) {
	expectError(t, "static let static x = 1", diagnostics.ErrP001)
}

// ---------------------------------------------------------------------------
// P002: Expected token missing
// ---------------------------------------------------------------------------

func TestP002_MissingCloseParen(t *testing.T) {
	expectError(t, "(1 + 2", diagnostics.ErrP002)
}

func TestP002_IfWithoutColon(t *testing.T) {
	expectError(t, "if 1 x = 2 end", diagnostics.ErrP002)
}

func TestP002_IfWithoutEnd(t *testing.T) {
	expectError(t, "if 1:\n x = 2\n", diagnostics.ErrP002)
}

func TestP002_ForWithoutRange(t *testing.T) {
	expectError(t, "for i in (0, 3): x = i end", diagnostics.ErrP002)
}

func TestP002_ForMissingEndBound(t *testing.T) {
	expectError(t, "for i in range(0): x = i end", diagnostics.ErrP002)
}

func TestP002_ImportWithoutName(t *testing.T) {
	expectError(t, "import 5", diagnostics.ErrP002)
}

func TestP002_LetWithoutName(t *testing.T) {
	expectError(t, "let = 5", diagnostics.ErrP002)
}

func TestP002_DoWithoutWhile(t *testing.T) {
	expectError(t, "do:\n x = 1\n", diagnostics.ErrP002)
}

func TestP002_UnclosedCall(t *testing.T) {
	expectError(t, "f(1, 2", diagnostics.ErrP002)
}

// ---------------------------------------------------------------------------
// P004: Nesting limit
// ---------------------------------------------------------------------------

func TestP004_DeepParentheses(t *testing.T) {
	depth := parser.MaxRecursionDepth + 10
	input := strings.Repeat("(", depth) + "1" + strings.Repeat(")", depth)
	expectError(t, input, diagnostics.ErrP004)
}

func TestP004_DeepBlocks(t *testing.T) {
	depth := parser.MaxRecursionDepth + 10
	input := strings.Repeat("if 1:\n", depth) + "x = 1\n" + strings.Repeat("end\n", depth)
	expectError(t, input, diagnostics.ErrP004)
}

func TestNestingWithinLimit(t *testing.T) {
	input := strings.Repeat("(", 50) + "1" + strings.Repeat(")", 50)
	expectNoErrors(t, input)
}

// ---------------------------------------------------------------------------
// Only the first error is reported
// ---------------------------------------------------------------------------

func TestOnlyFirstErrorReported(t *testing.T) {
	errs := parseWithErrors("1 +\n2 +\n(")
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if errs[0].Token.Line != 1 {
		t.Errorf("error line = %d, want 1", errs[0].Token.Line)
	}
}

func TestErrorCarriesFilePath(t *testing.T) {
	ctx := pipeline.NewPipelineContext("x = (1")
	ctx.FilePath = "prog.lx"
	ctx = (&lexer.LexerProcessor{}).Process(ctx)
	ctx = (&parser.ParserProcessor{}).Process(ctx)
	if len(ctx.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(ctx.Errors))
	}
	if ctx.AstRoot != nil {
		t.Errorf("AstRoot should be nil after a syntax error")
	}
	if !strings.HasPrefix(ctx.Errors[0].Error(), "[P002] prog.lx:1:") {
		t.Errorf("unexpected rendering %q", ctx.Errors[0].Error())
	}
}

func TestValidPrograms(t *testing.T) {
	inputs := []string{
		"",
		"# only a comment\n",
		"x = 1; y = 2",
		"let static x = 1",
		"static let x = 1",
		"import math",
		"if x > 1: y = 2 else: y = 3 end",
		"for i in range(0, 10, 2):\n s = s + i\nend",
		"while x < 3:\n x = x + 1\nend",
		"do:\n x = x + 1\nwhile x < 3",
		"f()",
		"lpush(list(), 1)",
		"a → b ↔ c ⊽ d",
		"~B1010 & B0110 | B1",
	}
	for _, input := range inputs {
		expectNoErrors(t, input)
	}
}
