package evaluator

import (
	"context"
	"fmt"

	"github.com/funvibe/logex/internal/ast"
	"github.com/funvibe/logex/internal/diagnostics"
	"github.com/funvibe/logex/internal/token"
	"github.com/funvibe/logex/internal/value"
)

// Evaluator walks the AST directly. It is not safe for concurrent use.
type Evaluator struct {
	// Context for cancellation of long loops (optional)
	Context context.Context

	Env      Context
	Registry *Registry
	Loader   PackageLoader
	Limits   value.Limits
	// File is reported in diagnostics.
	File string
}

func New(env Context, reg *Registry, loader PackageLoader) *Evaluator {
	if env == nil {
		env = NewEnvironment()
	}
	if reg == nil {
		reg = NewRegistry()
	}
	return &Evaluator{
		Env:      env,
		Registry: reg,
		Loader:   loader,
		Limits:   value.DefaultLimits,
	}
}

// Eval executes a statement, block or program. A failure stops evaluation
// and comes back as a ResultError.
func (e *Evaluator) Eval(node ast.Node) Result {
	res := e.evalCore(node)
	res.precision = e.Limits.Precision
	return res
}

func (e *Evaluator) evalCore(node ast.Node) Result {
	switch node := node.(type) {
	case *ast.Program:
		return e.evalStatements(node.Statements)
	case *ast.BlockStatement:
		if node == nil || len(node.Statements) == 0 {
			return zeroResult()
		}
		return e.evalStatements(node.Statements)
	case *ast.ExpressionStatement:
		val, err := e.evalExpression(node.Expression)
		if err != nil {
			return errorResult(err)
		}
		return Result{Kind: ResultValue, Value: val}
	case *ast.AssignStatement:
		return e.evalAssignStatement(node)
	case *ast.ImportStatement:
		return e.evalImportStatement(node)
	case *ast.IfStatement:
		return e.evalIfStatement(node)
	case *ast.ForStatement:
		return e.evalForStatement(node)
	case *ast.WhileStatement:
		return e.evalWhileStatement(node)
	case *ast.DoWhileStatement:
		return e.evalDoWhileStatement(node)
	case ast.Expression:
		val, err := e.evalExpression(node)
		if err != nil {
			return errorResult(err)
		}
		return Result{Kind: ResultValue, Value: val}
	}
	return errorResult(fmt.Errorf("cannot evaluate %T", node))
}

// evalStatements yields the result of the last statement run.
func (e *Evaluator) evalStatements(stmts []ast.Statement) Result {
	var result Result
	for _, stmt := range stmts {
		result = e.evalCore(stmt)
		if result.IsError() {
			return result
		}
	}
	return result
}

func (e *Evaluator) evalAssignStatement(node *ast.AssignStatement) Result {
	val, err := e.evalExpression(node.Value)
	if err != nil {
		return errorResult(err)
	}
	if err := e.Env.Set(node.Name.Value, val); err != nil {
		return errorResult(e.fail(node.Name.Token, err))
	}
	return Result{Kind: ResultAssign, Name: node.Name.Value, Value: val}
}

func (e *Evaluator) evalImportStatement(node *ast.ImportStatement) Result {
	name := node.Name.Value
	if e.Loader == nil {
		return errorResult(e.failCode(diagnostics.ErrR008, node.Token,
			fmt.Sprintf("import %s: no package loader configured", name)))
	}
	n, err := e.Loader.Load(name, e.Registry, e.Env)
	if err != nil {
		return errorResult(e.failCode(diagnostics.ErrR008, node.Token, fmt.Errorf("import %s: %w", name, err)))
	}
	return Result{Kind: ResultImport, Name: name, Count: n}
}

func (e *Evaluator) evalIfStatement(node *ast.IfStatement) Result {
	cond, err := e.evalExpression(node.Condition)
	if err != nil {
		return errorResult(err)
	}
	if cond.Truthy() {
		return e.evalCore(node.Consequence)
	}
	if node.Alternative != nil {
		return e.evalCore(node.Alternative)
	}
	return zeroResult()
}

func (e *Evaluator) evalForStatement(node *ast.ForStatement) Result {
	bounds := make([]value.Value, 0, 3)
	for _, expr := range []ast.Expression{node.Start, node.End, node.Step} {
		if expr == nil {
			bounds = append(bounds, value.FromInt(1))
			continue
		}
		v, err := e.evalExpression(expr)
		if err != nil {
			return errorResult(err)
		}
		if !v.IsNumber() {
			return errorResult(e.fail(expr.GetToken(),
				fmt.Errorf("%w: range bound is %s", value.ErrType, v.Type())))
		}
		bounds = append(bounds, v)
	}
	cur, end, step := bounds[0], bounds[1], bounds[2]
	if step.Negative() || step.IsZero() {
		return errorResult(e.fail(node.Token,
			fmt.Errorf("%w: for step must be positive, got %s", value.ErrDomain, step)))
	}

	result := zeroResult()
	for {
		if c, _ := value.Compare(cur, end); c >= 0 {
			break
		}
		if err := e.Env.Set(node.Variable.Value, cur); err != nil {
			return errorResult(e.fail(node.Variable.Token, err))
		}
		result = e.evalCore(node.Body)
		if result.IsError() {
			return result
		}
		if err := e.checkCancelled(node.Token); err != nil {
			return errorResult(err)
		}
		next, err := e.Limits.Add(cur, step)
		if err != nil {
			return errorResult(e.fail(node.Token, err))
		}
		cur = next
	}
	return result
}

func (e *Evaluator) evalWhileStatement(node *ast.WhileStatement) Result {
	result := zeroResult()
	for {
		cond, err := e.evalExpression(node.Condition)
		if err != nil {
			return errorResult(err)
		}
		if !cond.Truthy() {
			return result
		}
		result = e.evalCore(node.Body)
		if result.IsError() {
			return result
		}
		if err := e.checkCancelled(node.Token); err != nil {
			return errorResult(err)
		}
	}
}

func (e *Evaluator) evalDoWhileStatement(node *ast.DoWhileStatement) Result {
	for {
		result := e.evalCore(node.Body)
		if result.IsError() {
			return result
		}
		if err := e.checkCancelled(node.Token); err != nil {
			return errorResult(err)
		}
		cond, err := e.evalExpression(node.Condition)
		if err != nil {
			return errorResult(err)
		}
		if !cond.Truthy() {
			return result
		}
	}
}

func (e *Evaluator) evalExpression(node ast.Expression) (value.Value, error) {
	switch node := node.(type) {
	case *ast.NumberLiteral:
		v, err := e.Limits.ParseNumber(node.Value)
		if err != nil {
			return value.Value{}, e.fail(node.Token, err)
		}
		return v, nil
	case *ast.StringLiteral:
		return value.NewString(node.Value), nil
	case *ast.BitmapLiteral:
		v, err := value.ParseBitmap(node.Bits)
		if err != nil {
			return value.Value{}, e.fail(node.Token, err)
		}
		return v, nil
	case *ast.Identifier:
		if v, ok := e.Env.Get(node.Value); ok {
			return v, nil
		}
		return value.Value{}, e.fail(node.Token, fmt.Errorf("%w %q", diagnostics.ErrUndefinedVariable, node.Value))
	case *ast.PrefixExpression:
		right, err := e.evalExpression(node.Right)
		if err != nil {
			return value.Value{}, err
		}
		v, err := ApplyPrefix(node.Operator, right)
		if err != nil {
			return value.Value{}, e.fail(node.Token, err)
		}
		return v, nil
	case *ast.InfixExpression:
		left, err := e.evalExpression(node.Left)
		if err != nil {
			return value.Value{}, err
		}
		right, err := e.evalExpression(node.Right)
		if err != nil {
			return value.Value{}, err
		}
		v, err := ApplyInfix(e.Limits, node.Operator, left, right)
		if err != nil {
			return value.Value{}, e.fail(node.Token, err)
		}
		return v, nil
	case *ast.CallExpression:
		return e.evalCallExpression(node)
	case nil:
		return value.Value{}, fmt.Errorf("missing expression")
	}
	return value.Value{}, fmt.Errorf("cannot evaluate %T", node)
}

// evalCallExpression resolves built-ins first, then the registry.
func (e *Evaluator) evalCallExpression(node *ast.CallExpression) (value.Value, error) {
	name := node.Function.Value
	fn, ok := builtins[name]
	if !ok {
		fn, ok = e.Registry.Lookup(name)
	}
	if !ok {
		return value.Value{}, e.fail(node.Token, fmt.Errorf("%w %q", diagnostics.ErrUndefinedFunction, name))
	}

	args := make([]value.Value, 0, len(node.Arguments))
	for _, arg := range node.Arguments {
		v, err := e.evalExpression(arg)
		if err != nil {
			return value.Value{}, err
		}
		args = append(args, v)
	}

	v, err := callFunction(fn, args, e.Limits)
	if err != nil {
		return value.Value{}, e.fail(node.Function.Token, err)
	}
	return v, nil
}

func (e *Evaluator) checkCancelled(tok token.Token) error {
	if e.Context == nil {
		return nil
	}
	select {
	case <-e.Context.Done():
		return e.fail(tok, fmt.Errorf("execution cancelled: %w", e.Context.Err()))
	default:
		return nil
	}
}

// fail attaches a source position to err unless it already carries one.
func (e *Evaluator) fail(tok token.Token, err error) *diagnostics.DiagnosticError {
	de := diagnostics.Wrap(err, tok)
	if de.File == "" {
		de.File = e.File
	}
	return de
}

func (e *Evaluator) failCode(code diagnostics.ErrorCode, tok token.Token, args ...interface{}) *diagnostics.DiagnosticError {
	de := diagnostics.NewError(code, tok, args...)
	de.File = e.File
	return de
}
