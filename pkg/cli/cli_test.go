package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/logex/internal/config"
)

type output struct {
	code   int
	stdout string
	stderr string
}

func runApp(t *testing.T, stdin string, interactive bool, args ...string) output {
	t.Helper()
	t.Setenv(config.BackendEnvVar, "")
	var stdout, stderr bytes.Buffer
	app := &App{
		Stdin:       strings.NewReader(stdin),
		Stdout:      &stdout,
		Stderr:      &stderr,
		Interactive: interactive,
	}
	code := app.Main(append([]string{"logex"}, args...))
	return output{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionAndHelp(t *testing.T) {
	tests := []struct {
		args     []string
		code     int
		contains string
	}{
		{[]string{"-version"}, 0, "logex " + config.Version},
		{[]string{"-help"}, 0, "Usage:"},
		{[]string{"-help"}, 0, "the REPL always uses the tree-walking evaluator"},
		{[]string{"help", "packages"}, 0, "math"},
		{[]string{"help", "builtins"}, 0, "bcount"},
		{[]string{"help", "precedence"}, 0, "right-associative"},
		{[]string{"help", "math"}, 0, "sqrt"},
		{[]string{"help", "nothing"}, 1, "Unknown topic"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out := runApp(t, "", false, tt.args...)
			if out.code != tt.code {
				t.Errorf("exit code = %d, want %d (stderr %q)", out.code, tt.code, out.stderr)
			}
			if !strings.Contains(out.stdout, tt.contains) {
				t.Errorf("stdout %q does not contain %q", out.stdout, tt.contains)
			}
		})
	}
}

func TestRunScript(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "main.lx", "s = 0\nfor i in range(0, 5): s = s + i end\ns * 7\n")

	for _, flag := range []string{"-vm", "-tree"} {
		t.Run(flag, func(t *testing.T) {
			out := runApp(t, "", false, flag, script)
			if out.code != 0 {
				t.Fatalf("exit code %d: %s", out.code, out.stderr)
			}
			if out.stdout != "70\n" {
				t.Errorf("stdout = %q, want 70", out.stdout)
			}
		})
	}
}

func TestScriptErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		src      string
		contains string
	}{
		{"div.lx", "x = 1\nx / 0\n", "[R007]"},
		{"syntax.lx", "x = (1 +\n", "[P00"},
		{"name.lx", "y + 1\n", "[R002]"},
	}
	for _, tt := range tests {
		for _, flag := range []string{"-vm", "-tree"} {
			t.Run(flag+"/"+tt.name, func(t *testing.T) {
				path := writeFile(t, dir, tt.name, tt.src)
				out := runApp(t, "", false, flag, path)
				if out.code != 1 {
					t.Errorf("exit code = %d, want 1", out.code)
				}
				if !strings.Contains(out.stderr, tt.contains) || !strings.Contains(out.stderr, tt.name) {
					t.Errorf("stderr %q does not name %s and %s", out.stderr, tt.contains, tt.name)
				}
			})
		}
	}

	out := runApp(t, "", false, filepath.Join(dir, "missing.lx"))
	if out.code != 1 {
		t.Errorf("missing file: exit code %d", out.code)
	}
}

func TestEvalFlag(t *testing.T) {
	out := runApp(t, "", false, "-e", "2 ** 3 ** 2")
	if out.code != 0 || out.stdout != "512\n" {
		t.Errorf("got %d %q %q", out.code, out.stdout, out.stderr)
	}
	out = runApp(t, "", false, "-e")
	if out.code != 2 {
		t.Errorf("missing code: exit code %d", out.code)
	}
}

func TestPipedStdin(t *testing.T) {
	out := runApp(t, "a = 4\na * a\n", false)
	if out.code != 0 || out.stdout != "16\n" {
		t.Errorf("got %d %q %q", out.code, out.stdout, out.stderr)
	}
}

func TestBadArguments(t *testing.T) {
	tests := [][]string{
		{"-bogus"},
		{"-config"},
		{"a.lx", "b.lx"},
		{"-c"},
		{"-r"},
		{"-d"},
	}
	for _, args := range tests {
		out := runApp(t, "", false, args...)
		if out.code != 2 {
			t.Errorf("%v: exit code = %d, want 2", args, out.code)
		}
	}
}

func TestCompileAndRun(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "prog.lx", "import math\nx = max(3, 9, 4)\nif x > 5: x * 2 else: 0 end\n")

	out := runApp(t, "", false, "-c", src)
	if out.code != 0 {
		t.Fatalf("compile: %s", out.stderr)
	}
	compiled := filepath.Join(dir, "prog"+config.BytecodeFileExt)
	if !strings.Contains(out.stdout, compiled) {
		t.Errorf("stdout %q does not name %s", out.stdout, compiled)
	}

	out = runApp(t, "", false, "-r", compiled)
	if out.code != 0 || out.stdout != "18\n" {
		t.Errorf("run compiled: %d %q %q", out.code, out.stdout, out.stderr)
	}

	stripped := filepath.Join(dir, "small.lxc")
	out = runApp(t, "", false, "-c", src, "-o", stripped, "-strip")
	if out.code != 0 {
		t.Fatalf("compile -strip: %s", out.stderr)
	}
	full, _ := os.Stat(compiled)
	small, _ := os.Stat(stripped)
	if small.Size() >= full.Size() {
		t.Errorf("stripped size %d not below %d", small.Size(), full.Size())
	}

	for _, path := range []string{src, compiled} {
		out = runApp(t, "", false, "-d", path)
		if out.code != 0 {
			t.Fatalf("disassemble %s: %s", path, out.stderr)
		}
		for _, want := range []string{"== " + src + " ==", "CALL_EXTERNAL", "HALT"} {
			if !strings.Contains(out.stdout, want) {
				t.Errorf("disassembly of %s lacks %q:\n%s", path, want, out.stdout)
			}
		}
	}

	bad := writeFile(t, dir, "bad.lxc", "not bytecode")
	if out = runApp(t, "", false, "-r", bad); out.code != 1 {
		t.Errorf("bad bytecode: exit code %d", out.code)
	}
	broken := writeFile(t, dir, "broken.lx", "1 +\n")
	if out = runApp(t, "", false, "-c", broken); out.code != 1 {
		t.Errorf("broken source: exit code %d", out.code)
	}
}

func TestFormatAndTree(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "messy.lx", "x=(1+2)*3\nif x>5:y=x else:y=0 end\n")

	out := runApp(t, "", false, "-fmt", src)
	if out.code != 0 {
		t.Fatalf("fmt: %s", out.stderr)
	}
	formatted := writeFile(t, dir, "clean.lx", out.stdout)
	again := runApp(t, "", false, "-fmt", formatted)
	if again.stdout != out.stdout {
		t.Errorf("formatting is not stable:\n%s\n---\n%s", out.stdout, again.stdout)
	}
	if !strings.Contains(out.stdout, "x = (1 + 2) * 3") {
		t.Errorf("formatted source:\n%s", out.stdout)
	}
	if run := runApp(t, "", false, formatted); run.stdout != "9\n" {
		t.Errorf("formatted script printed %q, want 9", run.stdout)
	}

	out = runApp(t, "", false, "-ast", src)
	if out.code != 0 || !strings.HasPrefix(out.stdout, "Program\n") || !strings.Contains(out.stdout, "Infix *") {
		t.Errorf("ast: %d %q", out.code, out.stdout)
	}

	broken := writeFile(t, dir, "broken.lx", "x = (1 +\n")
	if out = runApp(t, "", false, "-fmt", broken); out.code != 1 || !strings.Contains(out.stderr, "[P00") {
		t.Errorf("broken source: %d %q", out.code, out.stderr)
	}
	if out = runApp(t, "", false, "-ast"); out.code != 2 {
		t.Errorf("missing file: exit code %d", out.code)
	}
}

func TestSettingsDiscovery(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "logex.yaml", "precision: 3\nauto_import:\n  - math\n")
	sub := filepath.Join(dir, "scripts")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	script := writeFile(t, sub, "root.lx", "sqrt(2)\n")

	out := runApp(t, "", false, script)
	if out.code != 0 || out.stdout != "1.414\n" {
		t.Errorf("got %d %q %q", out.code, out.stdout, out.stderr)
	}

	toml := writeFile(t, dir, "other.toml", "precision = 1\n")
	out = runApp(t, "", false, "-config", toml, "-e", "10 / 4")
	if out.code != 0 || out.stdout != "2.5\n" {
		t.Errorf("toml settings: %d %q %q", out.code, out.stdout, out.stderr)
	}

	broken := writeFile(t, dir, "broken.yaml", "stack_size: -1\n")
	out = runApp(t, "", false, "-config", broken, "-e", "1")
	if out.code != 1 || !strings.Contains(out.stderr, "Configuration error") {
		t.Errorf("broken settings: %d %q", out.code, out.stderr)
	}
}

func TestLogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logex.log")
	cfg := writeFile(t, dir, "log.yaml", "log:\n  verbosity: 1\n  file: "+logPath+"\n")

	out := runApp(t, "", false, "-verbose", "-config", cfg, "-e", "import math")
	if out.code != 0 || out.stdout != "28\n" {
		t.Fatalf("got %d %q %q", out.code, out.stdout, out.stderr)
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestBackendEnvVar(t *testing.T) {
	t.Setenv(config.BackendEnvVar, "bogus")
	var stderr bytes.Buffer
	app := &App{Stdin: strings.NewReader(""), Stdout: &bytes.Buffer{}, Stderr: &stderr}
	if code := app.Main([]string{"logex", "-e", "1"}); code != 1 {
		t.Errorf("exit code = %d, want 1 (%s)", code, stderr.String())
	}
}

func TestREPL(t *testing.T) {
	input := strings.Join([]string{
		"x = 2",
		"x * 5",
		"if x > 1:",
		"  y = 1",
		"end",
		"1 / 0",
		"import string",
		":vars",
		":funcs",
		":nope",
		":quit",
		"x",
	}, "\n")
	out := runApp(t, input, true)
	if out.code != 0 {
		t.Fatalf("exit code %d: %s", out.code, out.stderr)
	}
	for _, want := range []string{"x = 2", "10", continuePrompt, "imported string (5 names)", "y = 1", "upper"} {
		if !strings.Contains(out.stdout, want) {
			t.Errorf("stdout lacks %q:\n%s", want, out.stdout)
		}
	}
	for _, want := range []string{"DivisionByZero error", "unknown command :nope"} {
		if !strings.Contains(out.stderr, want) {
			t.Errorf("stderr lacks %q:\n%s", want, out.stderr)
		}
	}
}

func TestREPLEmptyLineSubmits(t *testing.T) {
	out := runApp(t, "(1 +\n\n3\n", true)
	if !strings.Contains(out.stderr, "Syntax error") {
		t.Errorf("stderr = %q, want a syntax error", out.stderr)
	}
	if !strings.Contains(out.stdout, "3\n") {
		t.Errorf("stdout = %q, want 3", out.stdout)
	}
}
