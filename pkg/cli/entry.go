package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"

	"github.com/funvibe/logex/internal/backend"
	"github.com/funvibe/logex/internal/config"
	"github.com/funvibe/logex/internal/lexer"
	"github.com/funvibe/logex/internal/logging"
	"github.com/funvibe/logex/internal/modules"
	"github.com/funvibe/logex/internal/parser"
	"github.com/funvibe/logex/internal/pipeline"
)

// BackendType overrides the configured execution backend.
// Can be set at build time using: -ldflags "-X github.com/funvibe/logex/pkg/cli.BackendType=tree"
var BackendType = ""

// App is one invocation of the command line tool.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Interactive selects the REPL when no script is given.
	Interactive bool

	// ConfigPath names a settings file. When empty, settings are searched
	// for upward from the script's directory.
	ConfigPath string

	backendName string
	verbosity   int
	settings    *config.Settings
	log         commonlog.Logger
}

// NewApp returns an App bound to the process's standard streams.
func NewApp() *App {
	fd := os.Stdin.Fd()
	return &App{
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

// isSourceFile checks if a file has a recognized source extension
func isSourceFile(path string) bool {
	for _, ext := range config.SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Run executes the command line in os.Args and exits.
func Run() {
	os.Exit(NewApp().Main(os.Args))
}

// Main runs the command line args (args[0] is the program name) and returns
// the process exit code.
func (a *App) Main(args []string) (code int) {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r) // Re-panic to get stack trace
			}
			fmt.Fprintf(a.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(a.Stderr, "This is a bug. Please report it.")
			code = 1
		}
	}()

	rest, err := a.parseGlobalFlags(args[1:])
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %s\n", err)
		fmt.Fprint(a.Stderr, usage)
		return 2
	}

	if len(rest) > 0 {
		switch rest[0] {
		case "-v", "-version", "--version":
			fmt.Fprintln(a.Stdout, "logex "+config.Version)
			return 0
		case "-h", "-help", "--help", "help":
			return a.handleHelp(rest[1:])
		case "-c", "--compile":
			return a.withSettings(scriptDir(rest, 1), func() int { return a.handleCompile(rest[1:]) })
		case "-r", "--run":
			return a.withSettings(scriptDir(rest, 1), func() int { return a.handleRunCompiled(rest[1:]) })
		case "-d", "--disasm":
			return a.withSettings(scriptDir(rest, 1), func() int { return a.handleDisassemble(rest[1:]) })
		case "-fmt", "--fmt":
			return a.handleFormat(rest[1:], false)
		case "-ast", "--ast":
			return a.handleFormat(rest[1:], true)
		case "-e", "--eval":
			if len(rest) != 2 {
				fmt.Fprintln(a.Stderr, "Usage: logex -e <code>")
				return 2
			}
			return a.withSettings(".", func() int { return a.runSource(rest[1], "<eval>") })
		}
		if strings.HasPrefix(rest[0], "-") {
			fmt.Fprintf(a.Stderr, "Unknown flag: %s\n", rest[0])
			fmt.Fprint(a.Stderr, usage)
			return 2
		}
		if len(rest) > 1 {
			fmt.Fprintf(a.Stderr, "Unexpected arguments after %s: %s\n", rest[0], strings.Join(rest[1:], " "))
			return 2
		}
		return a.withSettings(filepath.Dir(rest[0]), func() int { return a.runFile(rest[0]) })
	}

	if a.Interactive {
		return a.withSettings(".", a.runREPL)
	}
	return a.withSettings(".", func() int {
		src, err := io.ReadAll(a.Stdin)
		if err != nil {
			fmt.Fprintf(a.Stderr, "Error reading input: %s\n", err)
			return 1
		}
		return a.runSource(string(src), "<stdin>")
	})
}

// parseGlobalFlags strips the flags that apply to every mode.
func (a *App) parseGlobalFlags(args []string) ([]string, error) {
	var rest []string
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "-tree", "--tree":
			a.backendName = config.BackendTree
		case "-vm", "--vm":
			a.backendName = config.BackendVM
		case "-debug", "--debug":
			a.verbosity = 2
		case "-verbose", "--verbose":
			a.verbosity = 1
		case "-config", "--config":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s needs a path", arg)
			}
			i++
			a.ConfigPath = args[i]
		default:
			rest = append(rest, arg)
		}
	}
	return rest, nil
}

func scriptDir(args []string, i int) string {
	if i < len(args) {
		return filepath.Dir(args[i])
	}
	return "."
}

// withSettings loads the settings for scripts in dir, configures logging
// and runs fn.
func (a *App) withSettings(dir string, fn func() int) int {
	settings, err := a.loadSettings(dir)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Configuration error: %s\n", err)
		return 1
	}
	a.settings = settings
	verbosity := settings.Log.Verbosity
	if a.verbosity > verbosity {
		verbosity = a.verbosity
	}
	logging.Configure(verbosity, settings.Log.File)
	a.log = logging.GetLogger(logging.CLI)
	if a.ConfigPath != "" {
		a.log.Infof("using settings %s", a.ConfigPath)
	}
	a.log.Debugf("backend %s, precision %d, stack %d", settings.Backend, settings.Precision, settings.StackSize)
	return fn()
}

func (a *App) loadSettings(dir string) (*config.Settings, error) {
	if a.ConfigPath == "" {
		found, err := config.FindSettings(dir)
		if err != nil {
			return nil, err
		}
		a.ConfigPath = found
	}

	settings := config.DefaultSettings()
	if a.ConfigPath != "" {
		loaded, err := config.LoadSettings(a.ConfigPath)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}
	if err := settings.ApplyEnv(); err != nil {
		return nil, err
	}
	if BackendType != "" {
		settings.Backend = BackendType
	}
	if a.backendName != "" {
		settings.Backend = a.backendName
	}
	return settings, nil
}

// newRuntime builds the shared runtime and runs the auto imports.
func (a *App) newRuntime() (*backend.Runtime, error) {
	rt := backend.NewRuntime(a.settings, modules.Default())
	if err := rt.Import(a.settings.AutoImport...); err != nil {
		return nil, fmt.Errorf("auto import: %w", err)
	}
	return rt, nil
}

func (a *App) runFile(path string) int {
	if !isSourceFile(path) {
		a.log.Warningf("%s has no %s extension", path, config.SourceFileExt)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error reading input: %s\n", err)
		return 1
	}
	return a.runSource(string(src), path)
}

// runSource runs src on the configured backend and prints the final value.
func (a *App) runSource(src, filePath string) int {
	rt, err := a.newRuntime()
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %s\n", err)
		return 1
	}
	execBackend, err := backend.New(a.settings.Backend, rt)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %s\n", err)
		return 1
	}

	ctx := pipeline.NewPipelineContext(src)
	ctx.FilePath = filePath
	processingPipeline := pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		backend.NewExecutionProcessor(execBackend),
	)
	ctx = processingPipeline.Run(ctx)

	if len(ctx.Errors) > 0 {
		a.printErrors(ctx)
		return 1
	}
	if ctx.Result != nil {
		fmt.Fprintln(a.Stdout, ctx.Result.Format(a.settings.Precision))
	}
	return 0
}

func (a *App) printErrors(ctx *pipeline.PipelineContext) {
	fmt.Fprintln(a.Stderr, "Processing failed with errors:")
	for _, err := range ctx.Errors {
		fmt.Fprintf(a.Stderr, "- %s error %s\n", err.Category, err.Error())
	}
}
