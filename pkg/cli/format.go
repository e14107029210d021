package cli

import (
	"fmt"
	"os"

	"github.com/funvibe/logex/internal/lexer"
	"github.com/funvibe/logex/internal/parser"
	"github.com/funvibe/logex/internal/pipeline"
	"github.com/funvibe/logex/internal/prettyprinter"
)

// handleFormat prints a script either as canonical source or as a node tree.
func (a *App) handleFormat(args []string, tree bool) int {
	if len(args) != 1 {
		fmt.Fprintln(a.Stderr, "Usage: logex -fmt|-ast <file>")
		return 2
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error reading input: %s\n", err)
		return 1
	}

	ctx := pipeline.NewPipelineContext(string(src))
	ctx.FilePath = args[0]
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	if len(ctx.Errors) > 0 {
		a.printErrors(ctx)
		return 1
	}

	if tree {
		fmt.Fprint(a.Stdout, prettyprinter.Tree(ctx.AstRoot))
	} else {
		fmt.Fprint(a.Stdout, prettyprinter.Print(ctx.AstRoot))
	}
	return 0
}
