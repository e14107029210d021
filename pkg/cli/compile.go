package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/funvibe/logex/internal/backend"
	"github.com/funvibe/logex/internal/config"
	"github.com/funvibe/logex/internal/evaluator"
	"github.com/funvibe/logex/internal/vm"
)

// compileFile parses and compiles a source file.
func (a *App) compileFile(sourcePath string) (*vm.Program, error) {
	src, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, err
	}
	program, err := evaluator.Parse(string(src), sourcePath)
	if err != nil {
		return nil, err
	}
	compiled, err := vm.Compile(program, a.settings.Limits())
	if err != nil {
		return nil, err
	}
	compiled.Source = sourcePath
	return compiled, nil
}

// handleCompile compiles a source file to bytecode (.lxc file).
// Usage: logex -c <source> [-o <output>] [-strip]
func (a *App) handleCompile(args []string) int {
	var sourcePath, outputPath string
	strip := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-o":
			if i+1 >= len(args) {
				fmt.Fprintln(a.Stderr, "Usage: logex -c <source> [-o <output>] [-strip]")
				return 2
			}
			i++
			outputPath = args[i]
		case "-strip", "--strip":
			strip = true
		default:
			if sourcePath != "" {
				fmt.Fprintf(a.Stderr, "Unexpected argument: %s\n", args[i])
				return 2
			}
			sourcePath = args[i]
		}
	}
	if sourcePath == "" {
		fmt.Fprintln(a.Stderr, "Usage: logex -c <source> [-o <output>] [-strip]")
		return 2
	}

	program, err := a.compileFile(sourcePath)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Compilation error: %s\n", err)
		return 1
	}
	if strip {
		program.StripDebugInfo()
	}

	// Determine output path
	if outputPath == "" {
		outputPath = strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + config.BytecodeFileExt
	}
	if err := program.SaveFile(outputPath); err != nil {
		fmt.Fprintf(a.Stderr, "Error writing bytecode file: %s\n", err)
		return 1
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error writing bytecode file: %s\n", err)
		return 1
	}
	a.log.Infof("compiled %s: %d instructions, %d constants", sourcePath, program.Len(), len(program.Constants))
	fmt.Fprintf(a.Stdout, "Compiled %s -> %s (%d bytes)\n", sourcePath, outputPath, info.Size())
	return 0
}

// handleRunCompiled runs a pre-compiled .lxc bytecode file.
func (a *App) handleRunCompiled(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(a.Stderr, "Usage: logex -r <file"+config.BytecodeFileExt+">")
		return 2
	}

	program, err := vm.LoadFile(args[0], a.settings.Limits())
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error loading bytecode: %s\n", err)
		return 1
	}
	rt, err := a.newRuntime()
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %s\n", err)
		return 1
	}

	result, err := backend.NewVM(rt).Execute(program)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Runtime error: %s\n", err)
		return 1
	}
	if result != nil {
		fmt.Fprintln(a.Stdout, result.Format(a.settings.Precision))
	}
	return 0
}

// handleDisassemble prints the bytecode listing of a source or .lxc file.
func (a *App) handleDisassemble(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(a.Stderr, "Usage: logex -d <file>")
		return 2
	}

	var (
		program *vm.Program
		err     error
	)
	if strings.HasSuffix(args[0], config.BytecodeFileExt) {
		program, err = vm.LoadFile(args[0], a.settings.Limits())
	} else {
		program, err = a.compileFile(args[0])
	}
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %s\n", err)
		return 1
	}
	fmt.Fprint(a.Stdout, vm.Disassemble(program))
	return 0
}
