package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/funvibe/logex/internal/config"
	"github.com/funvibe/logex/internal/diagnostics"
	"github.com/funvibe/logex/internal/evaluator"
	"github.com/funvibe/logex/internal/modules"
	"github.com/funvibe/logex/internal/token"
)

const (
	prompt         = "logex> "
	continuePrompt = "  ...> "
)

// runREPL reads statements line by line. A construct left open at the end
// of a line continues on the next one; an empty line submits it as is.
func (a *App) runREPL() int {
	session := evaluator.NewSession(modules.Default(), a.settings.Limits())
	session.Evaluator().File = "<repl>"
	for _, name := range a.settings.AutoImport {
		if res := session.Import(name); res.IsError() {
			fmt.Fprintln(a.Stderr, res.Display())
			return 1
		}
	}

	fmt.Fprintf(a.Stdout, "logex %s (type :help for commands)\n", config.Version)
	scanner := bufio.NewScanner(a.Stdin)
	var pending []string
	for {
		if len(pending) == 0 {
			fmt.Fprint(a.Stdout, prompt)
		} else {
			fmt.Fprint(a.Stdout, continuePrompt)
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		if len(pending) == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, ":") {
				if a.replCommand(session, trimmed) {
					return 0
				}
				continue
			}
		}

		if len(pending) > 0 && strings.TrimSpace(line) == "" {
			a.replExec(session, strings.Join(pending, "\n"))
			pending = nil
			continue
		}
		pending = append(pending, line)
		src := strings.Join(pending, "\n")
		if incomplete(src) {
			continue
		}
		a.replExec(session, src)
		pending = nil
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(a.Stderr, "Error reading input: %s\n", err)
		return 1
	}
	fmt.Fprintln(a.Stdout)
	return 0
}

// incomplete reports whether src fails to parse only because it ends early.
func incomplete(src string) bool {
	_, err := evaluator.Parse(src, "<repl>")
	var de *diagnostics.DiagnosticError
	return errors.As(err, &de) && de.Token.Type == token.EOF
}

func (a *App) replExec(session *evaluator.Session, src string) {
	res := session.Exec(src)
	if res.IsError() {
		fmt.Fprintln(a.Stderr, res.Display())
		return
	}
	if out := res.Display(); out != "" {
		fmt.Fprintln(a.Stdout, out)
	}
}

// replCommand runs a ':' command and reports whether the REPL should exit.
func (a *App) replCommand(session *evaluator.Session, cmd string) bool {
	switch cmd {
	case ":q", ":quit", ":exit":
		return true
	case ":vars":
		for _, name := range session.Env.Names() {
			v, _ := session.Env.Get(name)
			fmt.Fprintf(a.Stdout, "%s = %s\n", name, v.Format(a.settings.Precision))
		}
	case ":funcs":
		fmt.Fprintln(a.Stdout, strings.Join(evaluator.BuiltinNames(), " "))
		if names := session.Registry.Names(); len(names) > 0 {
			fmt.Fprintln(a.Stdout, strings.Join(names, " "))
		}
	case ":help":
		fmt.Fprintln(a.Stdout, ":vars   list variables")
		fmt.Fprintln(a.Stdout, ":funcs  list callable functions")
		fmt.Fprintln(a.Stdout, ":quit   leave the REPL")
	default:
		fmt.Fprintf(a.Stderr, "unknown command %s (try :help)\n", cmd)
	}
	return false
}
