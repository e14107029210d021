package value

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultPrecision   = 100
	DefaultMaxDigits   = 10000
	DefaultMaxExponent = 100000
	// GuardDigits extra quotient digits are produced before truncation.
	GuardDigits = 10
)

// Limits bounds the arithmetic engine.
type Limits struct {
	Precision   int
	MaxDigits   int
	MaxExponent int
}

var DefaultLimits = Limits{
	Precision:   DefaultPrecision,
	MaxDigits:   DefaultMaxDigits,
	MaxExponent: DefaultMaxExponent,
}

// trimDigits drops trailing fractional zeros and leading integer zeros.
// The result is never empty and decimal never exceeds its length.
func trimDigits(d []byte, decimal int) ([]byte, int) {
	for decimal > 0 && len(d) > 0 && d[0] == 0 {
		d = d[1:]
		decimal--
	}
	for len(d) > 1 && d[len(d)-1] == 0 && len(d) > decimal {
		d = d[:len(d)-1]
	}
	if len(d) == 0 {
		return zeroDigits, 0
	}
	return d, decimal
}

func allZero(d []byte) bool {
	for _, x := range d {
		if x != 0 {
			return false
		}
	}
	return true
}

// newNumber builds a canonical Number from little-endian digits.
func newNumber(d []byte, decimal int, negative bool) Value {
	d, decimal = trimDigits(d, decimal)
	if allZero(d) {
		d, decimal, negative = zeroDigits, 0, false
	}
	return Value{kind: NUMBER, data: newStorage(d), length: len(d), decimal: decimal, negative: negative}
}

// FromInt builds a Number from n.
func FromInt(n int64) Value {
	return newNumber(reverseASCII(strconv.FormatInt(n, 10)), 0, n < 0)
}

// FromDigits builds a Number from most-significant-first ASCII digits. No
// digit ceiling applies; see Limits.FromDigits.
func FromDigits(msb string, decimal int, negative bool) (Value, error) {
	if msb == "" || decimal < 0 || decimal > len(msb) {
		return Value{}, fmt.Errorf("%w: digits %q with decimal position %d", ErrMalformed, msb, decimal)
	}
	for i := 0; i < len(msb); i++ {
		if msb[i] < '0' || msb[i] > '9' {
			return Value{}, fmt.Errorf("%w: %q", ErrMalformed, msb)
		}
	}
	return newNumber(reverseASCII(msb), decimal, negative), nil
}

// FromDigits is FromDigits held to MaxDigits.
func (l Limits) FromDigits(msb string, decimal int, negative bool) (Value, error) {
	if len(msb) > l.MaxDigits {
		return Value{}, fmt.Errorf("%w: %d digits", ErrCeiling, len(msb))
	}
	return FromDigits(msb, decimal, negative)
}

func reverseASCII(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i]-'0')
		}
	}
	return out
}

// Digits returns the digits most significant first.
func (v Value) Digits() string {
	d := v.digits()
	b := make([]byte, len(d))
	for i, x := range d {
		b[len(d)-1-i] = x + '0'
	}
	return string(b)
}

func (v Value) DecimalPos() int { return v.decimal }
func (v Value) Negative() bool  { return v.negative }

func (v Value) IsZero() bool {
	return v.kind == NUMBER && allZero(v.digits())
}

// IsInteger reports whether a Number has no fractional digits.
func (v Value) IsInteger() bool {
	return v.kind == NUMBER && v.decimal == 0
}

// Int64 converts an integer Number that fits in int64.
func (v Value) Int64() (int64, bool) {
	if !v.IsInteger() || len(v.digits()) > 18 {
		return 0, false
	}
	n, err := strconv.ParseInt(v.Digits(), 10, 64)
	if err != nil {
		return 0, false
	}
	if v.negative {
		n = -n
	}
	return n, true
}

// Index converts v to a non-negative int offset.
func (v Value) Index() (int, error) {
	if v.kind != NUMBER {
		return 0, typeError("index", v)
	}
	n, ok := v.Int64()
	if !ok || n < 0 {
		return 0, fmt.Errorf("%w: %s is not a non-negative integer", ErrDomain, v)
	}
	return int(n), nil
}

// Neg returns -v for a Number.
func Neg(v Value) (Value, error) {
	if v.kind != NUMBER {
		return Value{}, typeError("negate", v)
	}
	return newNumber(v.digits(), v.decimal, !v.negative), nil
}

// ParseNumber parses text under DefaultLimits.
func ParseNumber(s string) (Value, error) { return DefaultLimits.ParseNumber(s) }

// ParseNumber accepts an optional sign, digits and at most one '.'.
func (l Limits) ParseNumber(s string) (Value, error) {
	body := s
	negative := false
	if body != "" && (body[0] == '-' || body[0] == '+') {
		negative = body[0] == '-'
		body = body[1:]
	}
	digits := make([]byte, 0, len(body))
	decimal := -1
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c >= '0' && c <= '9':
			digits = append(digits, c-'0')
		case c == '.' && decimal < 0:
			decimal = len(digits)
		default:
			return Value{}, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
	}
	if len(digits) == 0 {
		return Value{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	if len(digits) > l.MaxDigits {
		return Value{}, fmt.Errorf("%w: %d digits", ErrCeiling, len(digits))
	}
	frac := 0
	if decimal >= 0 {
		frac = len(digits) - decimal
	}
	rev := make([]byte, len(digits))
	for i, d := range digits {
		rev[len(digits)-1-i] = d
	}
	return newNumber(rev, frac, negative), nil
}

func (v Value) formatNumber(precision int) string {
	d := v.digits()
	var sb strings.Builder
	if v.decimal >= len(d) {
		sb.WriteByte('0')
	} else {
		for i := len(d) - 1; i >= v.decimal; i-- {
			sb.WriteByte('0' + d[i])
		}
	}
	shown := min(v.decimal, max(precision, 0))
	frac := make([]byte, 0, shown)
	for i := v.decimal - 1; i >= v.decimal-shown; i-- {
		frac = append(frac, '0'+d[i])
	}
	for len(frac) > 0 && frac[len(frac)-1] == '0' {
		frac = frac[:len(frac)-1]
	}
	if len(frac) > 0 {
		sb.WriteByte('.')
		sb.Write(frac)
	}
	text := sb.String()
	if v.negative && strings.Trim(text, "0.") != "" {
		return "-" + text
	}
	return text
}

// digitAt returns the digit weighing 10^pos.
func digitAt(d []byte, decimal, pos int) byte {
	i := pos + decimal
	if i < 0 || i >= len(d) {
		return 0
	}
	return d[i]
}

func intLen(d []byte, decimal int) int {
	n := len(d) - decimal
	for n > 0 && d[decimal+n-1] == 0 {
		n--
	}
	return n
}

// compareAbs orders |a| and |b|: integer length first, then digits from the
// most significant, then the longer fraction.
func compareAbs(a []byte, da int, b []byte, db int) int {
	la, lb := intLen(a, da), intLen(b, db)
	if la != lb {
		if la > lb {
			return 1
		}
		return -1
	}
	for pos := la - 1; pos >= -max(da, db); pos-- {
		x, y := digitAt(a, da, pos), digitAt(b, db, pos)
		if x != y {
			if x > y {
				return 1
			}
			return -1
		}
	}
	return 0
}

func compareNumbers(a, b Value) int {
	az, bz := a.IsZero(), b.IsZero()
	an, bn := a.negative && !az, b.negative && !bz
	if an != bn {
		if an {
			return -1
		}
		return 1
	}
	c := compareAbs(a.digits(), a.decimal, b.digits(), b.decimal)
	if an {
		return -c
	}
	return c
}
