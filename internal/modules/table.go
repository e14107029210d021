package modules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/funvibe/logex/internal/evaluator"
	"github.com/funvibe/logex/internal/logging"
	"github.com/funvibe/logex/internal/value"
)

// Package is a named set of functions and constants installed by import.
type Package struct {
	Name      string
	Functions []*evaluator.Function
	Constants map[string]value.Value
}

// Table maps package names to packages. It implements
// evaluator.PackageLoader.
type Table struct {
	packages map[string]*Package
}

func NewTable() *Table {
	return &Table{packages: make(map[string]*Package)}
}

// Register adds pkg, replacing a package of the same name.
func (t *Table) Register(pkg *Package) {
	t.packages[pkg.Name] = pkg
}

func (t *Table) Get(name string) (*Package, bool) {
	pkg, ok := t.packages[name]
	return pkg, ok
}

// Names returns the package names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.packages))
	for name := range t.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load registers the package's functions and binds its constants. It
// returns the number of names installed.
func (t *Table) Load(name string, reg *evaluator.Registry, ctx evaluator.Context) (int, error) {
	pkg, ok := t.packages[name]
	if !ok {
		return 0, fmt.Errorf("unknown package %q", name)
	}

	count := 0
	for _, fn := range pkg.Functions {
		if err := reg.Register(fn); err != nil {
			return count, fmt.Errorf("package %s: %w", name, err)
		}
		count++
	}

	consts := make([]string, 0, len(pkg.Constants))
	for k := range pkg.Constants {
		consts = append(consts, k)
	}
	sort.Strings(consts)
	for _, k := range consts {
		if err := ctx.Set(k, pkg.Constants[k]); err != nil {
			return count, fmt.Errorf("package %s: %w", name, err)
		}
		count++
	}

	logging.GetLogger(logging.Modules).Infof("imported %s: %d names", name, count)
	return count, nil
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// Default returns the process-wide table with the math, string, sys and bin
// packages. It is built once.
func Default() *Table {
	defaultTableOnce.Do(func() {
		t := NewTable()
		t.Register(mathPackage())
		t.Register(stringPackage())
		t.Register(sysPackage())
		t.Register(binPackage())
		defaultTable = t
	})
	return defaultTable
}

func numberArg(fn string, args []value.Value, i int) (value.Value, error) {
	if !args[i].IsNumber() {
		return value.Value{}, fmt.Errorf("%w: %s argument %d is %s, want Number", value.ErrType, fn, i+1, args[i].Type())
	}
	return args[i], nil
}

func stringArg(fn string, args []value.Value, i int) (string, error) {
	if !args[i].IsString() {
		return "", fmt.Errorf("%w: %s argument %d is %s, want String", value.ErrType, fn, i+1, args[i].Type())
	}
	return args[i].Text(), nil
}

func bitmapArg(fn string, args []value.Value, i int) (value.Value, error) {
	if !args[i].IsBitmap() {
		return value.Value{}, fmt.Errorf("%w: %s argument %d is %s, want Bitmap", value.ErrType, fn, i+1, args[i].Type())
	}
	return args[i], nil
}
