package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/logex/internal/config"
	"github.com/funvibe/logex/internal/evaluator"
	"github.com/funvibe/logex/internal/modules"
)

const usage = `Usage:
  logex [flags] <file.lx>           run a script and print its value
  logex [flags] -e <code>           run code given on the command line
  logex [flags] -c <file.lx> [-o <out.lxc>] [-strip]
                                    compile to bytecode
  logex [flags] -r <file.lxc>       run compiled bytecode
  logex [flags] -d <file>           disassemble a source or bytecode file
  logex -fmt <file.lx>              print the script in canonical form
  logex -ast <file.lx>              print the syntax tree of a script
  logex [flags]                     start the REPL (or run stdin when piped)
  logex -help [builtins|packages|<package>]
  logex -version

Flags:
  -tree | -vm        choose the execution backend for scripts and -e;
                     the REPL always uses the tree-walking evaluator
  -config <path>     settings file (default: logex.yaml, logex.yml or logex.toml
                     searched upward from the script directory)
  -verbose | -debug  raise the log level
`

const precedence = `Operator precedence, loosest first:
  ⊽              xor
  ↔              iff
  →              implies
  v              or
  ^              and (Numbers), bit-xor (Bitmaps)
  |              bit-or
  &              bit-and
  == != < <= > >=
  << >>          shifts (Bitmap on the left)
  + -
  * / %
  **             power, right-associative
  ! - + ~        unary
`

func (a *App) handleHelp(args []string) int {
	if len(args) == 0 {
		fmt.Fprintf(a.Stdout, "logex %s\n\n%s", config.Version, usage)
		return 0
	}

	switch topic := args[0]; topic {
	case "packages":
		table := modules.Default()
		fmt.Fprintln(a.Stdout, "Available packages:")
		for _, name := range table.Names() {
			pkg, _ := table.Get(name)
			fmt.Fprintf(a.Stdout, "  %-10s %d functions, %d constants\n", name, len(pkg.Functions), len(pkg.Constants))
		}
	case "builtins":
		fmt.Fprintln(a.Stdout, "Built-in functions:")
		for _, name := range evaluator.BuiltinNames() {
			fn, _ := evaluator.LookupBuiltin(name)
			fmt.Fprintf(a.Stdout, "  %-10s %s\n", name, fn.Doc)
		}
	case "precedence":
		fmt.Fprint(a.Stdout, precedence)
	default:
		pkg, ok := modules.Default().Get(topic)
		if !ok {
			fmt.Fprintf(a.Stdout, "Unknown topic: %s\n", topic)
			fmt.Fprintln(a.Stdout, "Use '-help packages' to see available packages")
			return 1
		}
		fmt.Fprint(a.Stdout, formatPackage(pkg))
	}
	return 0
}

func formatPackage(pkg *modules.Package) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "package %s (import %s)\n", pkg.Name, pkg.Name)
	for _, fn := range pkg.Functions {
		fmt.Fprintf(&sb, "  %-10s %s\n", fn.Name, fn.Doc)
	}
	if len(pkg.Constants) > 0 {
		names := make([]string, 0, len(pkg.Constants))
		for name := range pkg.Constants {
			names = append(names, name)
		}
		sort.Strings(names)
		sb.WriteString("constants:\n")
		for _, name := range names {
			fmt.Fprintf(&sb, "  %-10s %s\n", name, pkg.Constants[name].Format(20))
		}
	}
	return sb.String()
}
