package evaluator

import (
	"fmt"
	"sort"

	"github.com/funvibe/logex/internal/lexer"
	"github.com/funvibe/logex/internal/value"
)

// Context resolves and stores variables for an evaluation.
type Context interface {
	Get(name string) (value.Value, bool)
	Set(name string, val value.Value) error
}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]value.Value)}
}

// Environment is the default Context: one flat variable table.
type Environment struct {
	store map[string]value.Value
}

func (e *Environment) Get(name string) (value.Value, bool) {
	val, ok := e.store[name]
	return val, ok
}

// Set binds name to val. The name must lex as a single identifier.
func (e *Environment) Set(name string, val value.Value) error {
	if !lexer.IsIdentifier(name) {
		return fmt.Errorf("invalid variable name %q", name)
	}
	e.store[name] = val
	return nil
}

func (e *Environment) Delete(name string) {
	delete(e.store, name)
}

// Names returns the bound variable names in sorted order.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.store))
	for k := range e.store {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (e *Environment) Len() int { return len(e.store) }
