package vm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/funvibe/logex/internal/config"
	"github.com/funvibe/logex/internal/diagnostics"
	"github.com/funvibe/logex/internal/evaluator"
	"github.com/funvibe/logex/internal/logging"
	"github.com/funvibe/logex/internal/value"
)

// VM executes a Program on a fixed-capacity value stack. It is not safe for
// concurrent use.
type VM struct {
	// Context for cancellation of long loops (optional)
	Context context.Context

	Env      evaluator.Context
	Registry *evaluator.Registry
	Loader   evaluator.PackageLoader
	Limits   value.Limits

	stack []value.Value
	sp    int // Stack pointer (points to next free slot)
	pc    int

	// hidden holds compiler-generated variables, which the Context would
	// reject as identifiers.
	hidden map[string]value.Value

	program *Program
	log     commonlog.Logger
}

// New creates a VM with a stack of stackSize slots. Non-positive sizes use
// config.DefaultStackSize; nil env and reg get fresh instances.
func New(env evaluator.Context, reg *evaluator.Registry, loader evaluator.PackageLoader, stackSize int) *VM {
	if stackSize <= 0 {
		stackSize = config.DefaultStackSize
	}
	if env == nil {
		env = evaluator.NewEnvironment()
	}
	if reg == nil {
		reg = evaluator.NewRegistry()
	}
	return &VM{
		Env:      env,
		Registry: reg,
		Loader:   loader,
		Limits:   value.DefaultLimits,
		stack:    make([]value.Value, stackSize),
		hidden:   make(map[string]value.Value),
		log:      logging.GetLogger(logging.VM),
	}
}

// StackSize returns the stack capacity.
func (vm *VM) StackSize() int { return len(vm.stack) }

// Run executes p from its entry point until HALT. The top of the stack at
// HALT is the result; nil means the program left nothing.
func (vm *VM) Run(p *Program) (*value.Value, error) {
	vm.program = p
	vm.sp = 0
	vm.pc = int(p.EntryPoint)
	clear(vm.hidden)

	for {
		if vm.pc < 0 || vm.pc >= len(p.Code) {
			return nil, newRuntimeError(p, OP_HALT, vm.pc, fmt.Errorf("%w: pc %d", errInvalidJump, vm.pc))
		}
		pc := vm.pc
		ins := p.Code[pc]
		vm.pc++

		done, err := vm.step(ins)
		if err != nil {
			return nil, newRuntimeError(p, ins.Op, pc, err)
		}
		if done {
			break
		}
	}

	if vm.sp == 0 {
		return nil, nil
	}
	result := vm.stack[vm.sp-1]
	return &result, nil
}

// step executes one instruction. done is true after HALT.
func (vm *VM) step(ins Instruction) (done bool, err error) {
	// Stack discipline violations surface as errors, never as panics
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && (e == errStackUnderflow || e == errStackOverflow) {
				err = e
				done = false
				return
			}
			panic(r)
		}
	}()

	if vm.log.AllowLevel(commonlog.Debug) {
		vm.log.Debugf("%04d %-14s %d sp=%d", vm.pc-1, ins.Op, ins.Operand, vm.sp)
	}

	switch op := ins.Op; op {
	case OP_NOP:

	case OP_HALT:
		return true, nil

	case OP_PUSH_NUM, OP_PUSH_STR, OP_PUSH_BMP:
		c, err := vm.constant(ins.Operand)
		if err != nil {
			return false, err
		}
		if c.Tag == ConstIdent {
			return false, fmt.Errorf("%w: %d holds an identifier", errInvalidConstantIndex, ins.Operand)
		}
		vm.push(c.Value.Copy())

	case OP_POP:
		vm.pop()
	case OP_DUP:
		vm.push(vm.peek(0).Copy())
	case OP_SWAP:
		b := vm.pop()
		a := vm.pop()
		vm.push(b)
		vm.push(a)

	case OP_NEG, OP_POS, OP_NOT, OP_BNOT:
		right := vm.pop()
		res, err := evaluator.ApplyPrefix(operatorText[op], right)
		if err != nil {
			return false, err
		}
		vm.push(res)

	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_MOD, OP_POW,
		OP_EQ, OP_NE, OP_LT, OP_LE, OP_GT, OP_GE,
		OP_AND, OP_OR, OP_XOR, OP_IMPLIES, OP_IFF,
		OP_BAND, OP_BOR, OP_LSHIFT, OP_RSHIFT:
		right := vm.pop()
		left := vm.pop()
		res, err := evaluator.ApplyInfix(vm.Limits, operatorText[op], left, right)
		if err != nil {
			return false, err
		}
		vm.push(res)

	case OP_LOAD_VAR:
		name, err := vm.identifier(ins.Operand)
		if err != nil {
			return false, err
		}
		v, ok := vm.load(name)
		if !ok {
			return false, fmt.Errorf("%w %q", diagnostics.ErrUndefinedVariable, name)
		}
		vm.push(v.Copy())

	case OP_STORE_VAR:
		name, err := vm.identifier(ins.Operand)
		if err != nil {
			return false, err
		}
		v := vm.pop()
		if err := vm.store(name, v.Copy()); err != nil {
			return false, err
		}
		vm.push(v)

	case OP_JMP:
		return false, vm.jump(ins.Operand)
	case OP_JMP_IF_FALSE:
		if !vm.pop().Truthy() {
			return false, vm.jump(ins.Operand)
		}
	case OP_JMP_IF_TRUE:
		if vm.pop().Truthy() {
			return false, vm.jump(ins.Operand)
		}

	case OP_RANGE_CHECK:
		return false, vm.rangeCheck()

	case OP_IMPORT:
		name, err := vm.identifier(ins.Operand)
		if err != nil {
			return false, err
		}
		if vm.Loader == nil {
			return false, fmt.Errorf("%w: import %s: %w", errImport, name, errNoLoader)
		}
		n, err := vm.Loader.Load(name, vm.Registry, vm.Env)
		if err != nil {
			return false, fmt.Errorf("%w: import %s: %w", errImport, name, err)
		}
		vm.push(value.FromInt(int64(n)))

	case OP_CALL_EXTERNAL:
		nameIdx, argc := unpackCall(ins.Operand)
		name, err := vm.identifier(uint64(nameIdx))
		if err != nil {
			return false, err
		}
		args := vm.popArgs(argc)
		var res value.Value
		if fn, ok := vm.Registry.Lookup(name); ok {
			res, err = vm.Registry.Call(fn, args, vm.Limits)
		} else if _, ok := evaluator.LookupBuiltin(name); ok {
			res, err = evaluator.CallBuiltin(name, args, vm.Limits)
		} else {
			err = fmt.Errorf("%w %q", diagnostics.ErrUndefinedFunction, name)
		}
		if err != nil {
			return false, err
		}
		vm.push(res)

	default:
		if !isBuiltinCall(op) {
			return false, fmt.Errorf("%w %d", errUnknownOpcode, byte(op))
		}
		args := vm.popArgs(int(uint32(ins.Operand)))
		res, err := evaluator.CallBuiltin(builtinNames[op], args, vm.Limits)
		if err != nil {
			return false, err
		}
		vm.push(res)
	}
	return false, nil
}

// rangeCheck validates the [start, end, step] triple of a for loop.
func (vm *VM) rangeCheck() error {
	vm.checkStack(3)
	for i := 0; i < 3; i++ {
		if v := vm.peek(i); !v.IsNumber() {
			return fmt.Errorf("%w: range bound is %s", value.ErrType, v.Type())
		}
	}
	if step := vm.peek(0); step.Negative() || step.IsZero() {
		return fmt.Errorf("%w: for step must be positive, got %s", value.ErrDomain, step)
	}
	return nil
}

func (vm *VM) jump(target uint64) error {
	if target >= uint64(len(vm.program.Code)) {
		return fmt.Errorf("%w: %d", errInvalidJump, target)
	}
	backward := int(target) < vm.pc
	vm.pc = int(target)
	if backward && vm.Context != nil {
		select {
		case <-vm.Context.Done():
			return fmt.Errorf("execution cancelled: %w", vm.Context.Err())
		default:
		}
	}
	return nil
}

func (vm *VM) constant(idx uint64) (Constant, error) {
	if idx >= uint64(len(vm.program.Constants)) {
		return Constant{}, fmt.Errorf("%w: %d", errInvalidConstantIndex, idx)
	}
	return vm.program.Constants[idx], nil
}

func (vm *VM) identifier(idx uint64) (string, error) {
	c, err := vm.constant(idx)
	if err != nil {
		return "", err
	}
	if c.Tag != ConstIdent {
		return "", fmt.Errorf("%w: %d is not an identifier", errInvalidConstantIndex, idx)
	}
	return c.Name, nil
}

func (vm *VM) load(name string) (value.Value, bool) {
	if strings.HasPrefix(name, config.HiddenPrefix) {
		v, ok := vm.hidden[name]
		return v, ok
	}
	return vm.Env.Get(name)
}

func (vm *VM) store(name string, v value.Value) error {
	if strings.HasPrefix(name, config.HiddenPrefix) {
		vm.hidden[name] = v
		return nil
	}
	return vm.Env.Set(name, v)
}

// Stack operations
func (vm *VM) push(v value.Value) {
	if vm.sp >= len(vm.stack) {
		panic(errStackOverflow)
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() value.Value {
	if vm.sp <= 0 {
		panic(errStackUnderflow)
	}
	vm.sp--
	v := vm.stack[vm.sp]
	vm.stack[vm.sp] = value.Value{}
	return v
}

func (vm *VM) peek(distance int) value.Value {
	idx := vm.sp - 1 - distance
	if idx < 0 {
		panic(errStackUnderflow)
	}
	return vm.stack[idx]
}

// checkStack ensures there are at least n elements on the stack
func (vm *VM) checkStack(n int) {
	if vm.sp < n {
		panic(errStackUnderflow)
	}
}

// popArgs pops argc values, first argument first.
func (vm *VM) popArgs(argc int) []value.Value {
	vm.checkStack(argc)
	args := make([]value.Value, argc)
	copy(args, vm.stack[vm.sp-argc:vm.sp])
	for i := vm.sp - argc; i < vm.sp; i++ {
		vm.stack[i] = value.Value{}
	}
	vm.sp -= argc
	return args
}
