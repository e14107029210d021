package value

import (
	"errors"
	"fmt"
)

var (
	ErrMalformed      = errors.New("malformed number")
	ErrCeiling        = errors.New("digit ceiling exceeded")
	ErrDivisionByZero = errors.New("division by zero")
	ErrDomain         = errors.New("argument out of domain")
	ErrType           = errors.New("type mismatch")
	ErrIndex          = errors.New("index out of range")
)

func typeError(op string, operands ...Value) error {
	switch len(operands) {
	case 1:
		return fmt.Errorf("%w: %s on %s", ErrType, op, operands[0].kind)
	case 2:
		return fmt.Errorf("%w: %s on %s and %s", ErrType, op, operands[0].kind, operands[1].kind)
	}
	return fmt.Errorf("%w: %s", ErrType, op)
}
