package value

import "fmt"

// Package-level arithmetic runs under DefaultLimits.

func Add(a, b Value) (Value, error) { return DefaultLimits.Add(a, b) }
func Sub(a, b Value) (Value, error) { return DefaultLimits.Sub(a, b) }
func Mul(a, b Value) (Value, error) { return DefaultLimits.Mul(a, b) }
func Mod(a, b Value) (Value, error) { return DefaultLimits.Mod(a, b) }

func Div(a, b Value, precision int) (Value, error) { return DefaultLimits.Div(a, b, precision) }
func Pow(a, b Value, precision int) (Value, error) { return DefaultLimits.Pow(a, b, precision) }

func numbers(op string, a, b Value) error {
	if a.kind != NUMBER || b.kind != NUMBER {
		return typeError(op, a, b)
	}
	return nil
}

// fit enforces the digit ceiling, shedding fractional digits first.
func (l Limits) fit(d []byte, decimal int, negative bool) (Value, error) {
	d, decimal = trimDigits(d, decimal)
	if over := len(d) - l.MaxDigits; over > 0 {
		if over > decimal {
			return Value{}, fmt.Errorf("%w: %d integer digits", ErrCeiling, len(d)-decimal)
		}
		d, decimal = d[over:], decimal-over
	}
	return newNumber(d, decimal, negative), nil
}

func truncate(d []byte, decimal, keep int) ([]byte, int) {
	if keep < 0 {
		keep = 0
	}
	if decimal <= keep {
		return d, decimal
	}
	return d[decimal-keep:], keep
}

func addAbs(a []byte, da int, b []byte, db int) ([]byte, int) {
	decimal := max(da, db)
	hi := max(len(a)-da, len(b)-db)
	out := make([]byte, 0, decimal+hi+1)
	var carry byte
	for pos := -decimal; pos < hi; pos++ {
		s := digitAt(a, da, pos) + digitAt(b, db, pos) + carry
		out = append(out, s%10)
		carry = s / 10
	}
	if carry > 0 {
		out = append(out, carry)
	}
	return out, decimal
}

// subAbs computes |a| - |b| where |a| >= |b|.
func subAbs(a []byte, da int, b []byte, db int) ([]byte, int) {
	decimal := max(da, db)
	hi := max(len(a)-da, len(b)-db)
	out := make([]byte, 0, decimal+hi)
	borrow := 0
	for pos := -decimal; pos < hi; pos++ {
		x := int(digitAt(a, da, pos)) - int(digitAt(b, db, pos)) - borrow
		borrow = 0
		if x < 0 {
			x += 10
			borrow = 1
		}
		out = append(out, byte(x))
	}
	return out, decimal
}

func (l Limits) addSigned(a, b Value, bNegative bool) (Value, error) {
	ad, bd := a.digits(), b.digits()
	if a.negative == bNegative {
		d, dec := addAbs(ad, a.decimal, bd, b.decimal)
		return l.fit(d, dec, a.negative)
	}
	if compareAbs(ad, a.decimal, bd, b.decimal) >= 0 {
		d, dec := subAbs(ad, a.decimal, bd, b.decimal)
		return l.fit(d, dec, a.negative)
	}
	d, dec := subAbs(bd, b.decimal, ad, a.decimal)
	return l.fit(d, dec, bNegative)
}

// Add sums two Numbers or concatenates two Strings.
func (l Limits) Add(a, b Value) (Value, error) {
	if a.kind == STRING && b.kind == STRING {
		return NewString(string(a.bytes()) + string(b.bytes())), nil
	}
	if err := numbers("add", a, b); err != nil {
		return Value{}, err
	}
	return l.addSigned(a, b, b.negative)
}

func (l Limits) Sub(a, b Value) (Value, error) {
	if err := numbers("subtract", a, b); err != nil {
		return Value{}, err
	}
	return l.addSigned(a, b, !b.negative)
}

func (l Limits) Mul(a, b Value) (Value, error) {
	if err := numbers("multiply", a, b); err != nil {
		return Value{}, err
	}
	return l.mul(a, b, l.Precision)
}

func (l Limits) mul(a, b Value, precision int) (Value, error) {
	ad, bd := a.digits(), b.digits()
	acc := make([]int, len(ad)+len(bd))
	for i, x := range ad {
		if x == 0 {
			continue
		}
		for j, y := range bd {
			acc[i+j] += int(x) * int(y)
		}
	}
	out := make([]byte, len(acc)+1)
	carry := 0
	for i, s := range acc {
		s += carry
		out[i] = byte(s % 10)
		carry = s / 10
	}
	out[len(acc)] = byte(carry)
	d, dec := truncate(out, a.decimal+b.decimal, precision)
	return l.fit(d, dec, a.negative != b.negative)
}

// Div computes a/b truncated to precision fractional digits.
func (l Limits) Div(a, b Value, precision int) (Value, error) {
	if err := numbers("divide", a, b); err != nil {
		return Value{}, err
	}
	if b.IsZero() {
		return Value{}, ErrDivisionByZero
	}
	if precision < 0 {
		precision = 0
	}
	scale := precision + GuardDigits
	num := make([]byte, scale, scale+a.Len())
	num = append(num, a.digits()...)
	q, _ := longDivide(num, stripHigh(b.digits()))
	dec := scale + a.decimal - b.decimal
	if dec < 0 {
		q = append(make([]byte, -dec, len(q)-dec), q...)
		dec = 0
	}
	q, dec = truncate(q, dec, precision)
	return l.fit(q, dec, a.negative != b.negative)
}

// Mod returns the remainder of integer division. The sign follows a.
func (l Limits) Mod(a, b Value) (Value, error) {
	if err := numbers("modulo", a, b); err != nil {
		return Value{}, err
	}
	if b.IsZero() {
		return Value{}, ErrDivisionByZero
	}
	if !a.IsInteger() || !b.IsInteger() {
		return Value{}, fmt.Errorf("%w: modulo needs integer operands", ErrDomain)
	}
	_, r := longDivide(a.digits(), stripHigh(b.digits()))
	return newNumber(r, 0, a.negative), nil
}

// Pow raises a to a non-negative integer exponent by square-and-multiply,
// truncating to precision after every multiplication.
func (l Limits) Pow(a, b Value, precision int) (Value, error) {
	if err := numbers("power", a, b); err != nil {
		return Value{}, err
	}
	if b.negative && !b.IsZero() {
		return Value{}, fmt.Errorf("%w: negative exponent %s", ErrDomain, b)
	}
	if !b.IsInteger() {
		return Value{}, fmt.Errorf("%w: fractional exponent %s", ErrDomain, b)
	}
	n, ok := b.Int64()
	if !ok || n > int64(l.MaxExponent) {
		return Value{}, fmt.Errorf("%w: exponent %s above %d", ErrCeiling, b, l.MaxExponent)
	}
	result := FromInt(1)
	base := a
	var err error
	for n > 0 {
		if n&1 == 1 {
			if result, err = l.mul(result, base, precision); err != nil {
				return Value{}, err
			}
		}
		n >>= 1
		if n > 0 {
			if base, err = l.mul(base, base, precision); err != nil {
				return Value{}, err
			}
		}
	}
	return result, nil
}

func stripHigh(d []byte) []byte {
	for len(d) > 0 && d[len(d)-1] == 0 {
		d = d[:len(d)-1]
	}
	return d
}

func compareInt(a, b []byte) int {
	if len(a) != len(b) {
		if len(a) > len(b) {
			return 1
		}
		return -1
	}
	for i := len(a) - 1; i >= 0; i-- {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// subInt subtracts b from a in place. Both are stripped and a >= b.
func subInt(a, b []byte) []byte {
	borrow := byte(0)
	for i := range a {
		var y byte
		if i < len(b) {
			y = b[i]
		}
		y += borrow
		if a[i] < y {
			a[i] = a[i] + 10 - y
			borrow = 1
		} else {
			a[i] -= y
			borrow = 0
		}
	}
	return stripHigh(a)
}

// longDivide divides the integer num by the non-zero integer den, one
// quotient digit at a time with at most nine subtractions per digit.
func longDivide(num, den []byte) (q, r []byte) {
	q = make([]byte, len(num))
	var rem []byte
	for i := len(num) - 1; i >= 0; i-- {
		rem = stripHigh(append([]byte{num[i]}, rem...))
		var count byte
		for compareInt(rem, den) >= 0 {
			rem = subInt(rem, den)
			count++
		}
		q[i] = count
	}
	return q, rem
}
