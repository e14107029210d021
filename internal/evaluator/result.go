package evaluator

import (
	"fmt"

	"github.com/funvibe/logex/internal/diagnostics"
	"github.com/funvibe/logex/internal/value"
)

type ResultKind int

const (
	ResultNone ResultKind = iota
	ResultValue
	ResultAssign
	ResultImport
	ResultError
)

func (k ResultKind) String() string {
	switch k {
	case ResultValue:
		return "Value"
	case ResultAssign:
		return "Assign"
	case ResultImport:
		return "Import"
	case ResultError:
		return "Error"
	}
	return "None"
}

// Result is the outcome of evaluating one statement or program.
type Result struct {
	Kind  ResultKind
	Value value.Value
	// Name is the assigned variable or imported package.
	Name  string
	Count int
	Err   error

	precision int
}

// zeroResult is the value of a construct whose body never ran.
func zeroResult() Result {
	return Result{Kind: ResultValue, Value: value.FromInt(0)}
}

func errorResult(err error) Result {
	return Result{Kind: ResultError, Err: err}
}

// IsError reports whether evaluation failed.
func (r Result) IsError() bool { return r.Kind == ResultError }

// HasValue reports whether the result carries a Value.
func (r Result) HasValue() bool {
	return r.Kind == ResultValue || r.Kind == ResultAssign
}

// Category classifies a failed result. Successful results report Runtime.
func (r Result) Category() diagnostics.Category {
	return diagnostics.Classify(r.Err)
}

// Display renders the result for a REPL line.
func (r Result) Display() string {
	precision := r.precision
	if precision <= 0 {
		precision = value.DefaultPrecision
	}
	switch r.Kind {
	case ResultValue:
		return r.Value.Format(precision)
	case ResultAssign:
		return fmt.Sprintf("%s = %s", r.Name, r.Value.Format(precision))
	case ResultImport:
		return fmt.Sprintf("imported %s (%d names)", r.Name, r.Count)
	case ResultError:
		return fmt.Sprintf("%s error: %v", r.Category(), r.Err)
	}
	return ""
}
