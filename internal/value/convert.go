package value

import "fmt"

func ToNumber(v Value) (Value, error) { return DefaultLimits.ToNumber(v) }

// ToNumber converts a String by parsing its text and a Bitmap by summing
// 2^i for every set bit i. Either result is held to MaxDigits.
func (l Limits) ToNumber(v Value) (Value, error) {
	switch v.kind {
	case NUMBER:
		return v, nil
	case STRING:
		return l.ParseNumber(string(v.bytes()))
	case BITMAP:
		n := bitmapToNumber(v)
		if n.length > l.MaxDigits {
			return Value{}, fmt.Errorf("%w: bitmap of %d bits is %d digits", ErrCeiling, v.length, n.length)
		}
		return n, nil
	}
	return Value{}, typeError("num", v)
}

func bitmapToNumber(v Value) Value {
	d := []byte{0}
	for i := v.length - 1; i >= 0; i-- {
		d = doubleInt(d)
		if v.bit(i) {
			d = incInt(d)
		}
	}
	return newNumber(d, 0, false)
}

func doubleInt(d []byte) []byte {
	out := make([]byte, 0, len(d)+1)
	var carry byte
	for _, x := range d {
		s := x*2 + carry
		out = append(out, s%10)
		carry = s / 10
	}
	if carry > 0 {
		out = append(out, carry)
	}
	return out
}

func incInt(d []byte) []byte {
	for i := range d {
		if d[i] < 9 {
			d[i]++
			return d
		}
		d[i] = 0
	}
	return append(d, 1)
}

// halveInt divides a little-endian integer by two and returns the remainder.
func halveInt(d []byte) ([]byte, bool) {
	out := make([]byte, len(d))
	var rem byte
	for i := len(d) - 1; i >= 0; i-- {
		cur := rem*10 + d[i]
		out[i] = cur / 2
		rem = cur % 2
	}
	return stripHigh(out), rem == 1
}

// ToString renders a Number, or a Bitmap read as a Number, as a String.
func ToString(v Value, precision int) (Value, error) {
	switch v.kind {
	case STRING:
		return v, nil
	case NUMBER:
		return NewString(v.Format(precision)), nil
	case BITMAP:
		return NewString(bitmapToNumber(v).Format(precision)), nil
	}
	return Value{}, typeError("str", v)
}

// ToBitmap writes the integer part of a non-negative Number in binary,
// least significant bit first. Strings are parsed as Numbers first.
func ToBitmap(v Value) (Value, error) {
	switch v.kind {
	case BITMAP:
		return v, nil
	case STRING:
		n, err := ParseNumber(string(v.bytes()))
		if err != nil {
			return Value{}, err
		}
		return ToBitmap(n)
	case NUMBER:
		if v.negative && !v.IsZero() {
			return Value{}, fmt.Errorf("%w: negative number %s to bitmap", ErrDomain, v)
		}
		d := stripHigh(append([]byte(nil), v.digits()[v.decimal:]...))
		if len(d) == 0 {
			return NewBitmap([]bool{false}), nil
		}
		var bits []bool
		for len(d) > 0 {
			var odd bool
			d, odd = halveInt(d)
			bits = append(bits, odd)
		}
		return NewBitmap(bits), nil
	}
	return Value{}, typeError("bmp", v)
}
