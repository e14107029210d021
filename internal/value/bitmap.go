package value

import (
	"fmt"
	"strings"
)

func newBitmap(packed []byte, length int) Value {
	n := (length + 7) / 8
	buf := make([]byte, n)
	copy(buf, packed)
	if r := length % 8; r != 0 {
		buf[n-1] &= byte(1<<r) - 1
	}
	return Value{kind: BITMAP, data: newStorage(buf), length: length}
}

// NewBitmap builds a Bitmap from bits, bit 0 first.
func NewBitmap(bits []bool) Value {
	packed := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			packed[i/8] |= 1 << (i % 8)
		}
	}
	return newBitmap(packed, len(bits))
}

// ParseBitmap reads 0/1 characters, bit 0 first. A leading 'B' is skipped.
func ParseBitmap(s string) (Value, error) {
	body := strings.TrimPrefix(s, "B")
	if body == "" {
		return Value{}, fmt.Errorf("%w: empty bitmap %q", ErrMalformed, s)
	}
	bits := make([]bool, len(body))
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '0':
		case '1':
			bits[i] = true
		default:
			return Value{}, fmt.Errorf("%w: invalid bit %q in %q", ErrMalformed, body[i], s)
		}
	}
	return NewBitmap(bits), nil
}

func (v Value) bit(i int) bool {
	if i < 0 || i >= v.length {
		return false
	}
	return v.bytes()[i/8]&(1<<(i%8)) != 0
}

// Bits returns the bitmap content, bit 0 first.
func (v Value) Bits() []bool {
	out := make([]bool, v.length)
	for i := range out {
		out[i] = v.bit(i)
	}
	return out
}

// Packed returns a copy of the packed bytes.
func (v Value) Packed() []byte {
	return append([]byte(nil), v.bytes()...)
}

func (v Value) formatBitmap() string {
	var sb strings.Builder
	sb.Grow(v.length + 1)
	sb.WriteByte('B')
	for i := 0; i < v.length; i++ {
		if v.bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func bitmaps(op string, a, b Value) error {
	if a.kind != BITMAP || b.kind != BITMAP {
		return typeError(op, a, b)
	}
	return nil
}

func combine(a, b Value, length int, f func(x, y bool) bool) Value {
	bits := make([]bool, length)
	for i := range bits {
		bits[i] = f(a.bit(i), b.bit(i))
	}
	return NewBitmap(bits)
}

// BitAnd keeps the shorter length.
func BitAnd(a, b Value) (Value, error) {
	if err := bitmaps("bitwise and", a, b); err != nil {
		return Value{}, err
	}
	return combine(a, b, min(a.length, b.length), func(x, y bool) bool { return x && y }), nil
}

// BitOr zero-extends the shorter operand.
func BitOr(a, b Value) (Value, error) {
	if err := bitmaps("bitwise or", a, b); err != nil {
		return Value{}, err
	}
	return combine(a, b, max(a.length, b.length), func(x, y bool) bool { return x || y }), nil
}

func BitXor(a, b Value) (Value, error) {
	if err := bitmaps("bitwise xor", a, b); err != nil {
		return Value{}, err
	}
	return combine(a, b, max(a.length, b.length), func(x, y bool) bool { return x != y }), nil
}

func BitNot(a Value) (Value, error) {
	if a.kind != BITMAP {
		return Value{}, typeError("bitwise not", a)
	}
	src := a.bytes()
	packed := make([]byte, len(src))
	for i, b := range src {
		packed[i] = ^b
	}
	return newBitmap(packed, a.length), nil
}

func shiftAmount(op string, a, n Value) (int, error) {
	if a.kind != BITMAP || n.kind != NUMBER {
		return 0, typeError(op, a, n)
	}
	return n.Index()
}

func ShiftLeft(a, n Value) (Value, error) { return DefaultLimits.ShiftLeft(a, n) }

// ShiftLeft moves bit i to i+n and grows the bitmap by n. The shift is
// capped at MaxDigits*8 bits.
func (l Limits) ShiftLeft(a, n Value) (Value, error) {
	k, err := shiftAmount("shift left", a, n)
	if err != nil {
		return Value{}, err
	}
	if k > l.MaxDigits*8 {
		return Value{}, fmt.Errorf("%w: shift by %d", ErrCeiling, k)
	}
	bits := make([]bool, a.length+k)
	for i := 0; i < a.length; i++ {
		bits[i+k] = a.bit(i)
	}
	return NewBitmap(bits), nil
}

// ShiftRight moves bit i+n to i. Shifting everything out leaves B0.
func ShiftRight(a, n Value) (Value, error) {
	k, err := shiftAmount("shift right", a, n)
	if err != nil {
		return Value{}, err
	}
	if k >= a.length {
		return NewBitmap([]bool{false}), nil
	}
	bits := make([]bool, a.length-k)
	for i := range bits {
		bits[i] = a.bit(i + k)
	}
	return NewBitmap(bits), nil
}

// SetBit returns a copy of a with bit offset set, growing it when needed.
func SetBit(a Value, offset int, on bool) (Value, error) {
	if a.kind != BITMAP {
		return Value{}, typeError("set bit", a)
	}
	if offset < 0 {
		return Value{}, fmt.Errorf("%w: bit %d", ErrIndex, offset)
	}
	bits := a.Bits()
	if offset >= len(bits) {
		bits = append(bits, make([]bool, offset+1-len(bits))...)
	}
	bits[offset] = on
	return NewBitmap(bits), nil
}

// GetBit reads one bit. Offsets past the end are an ErrIndex.
func GetBit(a Value, offset int) (int, error) {
	if a.kind != BITMAP {
		return 0, typeError("get bit", a)
	}
	if offset < 0 || offset >= a.length {
		return 0, fmt.Errorf("%w: bit %d of %d", ErrIndex, offset, a.length)
	}
	if a.bit(offset) {
		return 1, nil
	}
	return 0, nil
}

// CountBits counts set bits in the inclusive range [start, end], clipped to
// the bitmap length.
func CountBits(a Value, start, end int) (int, error) {
	if a.kind != BITMAP {
		return 0, typeError("count bits", a)
	}
	end = min(end, a.length-1)
	n := 0
	for i := max(start, 0); i <= end; i++ {
		if a.bit(i) {
			n++
		}
	}
	return n, nil
}
