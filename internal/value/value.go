// Package value implements the Logex runtime value: an arbitrary-precision
// decimal Number, a byte String, a packed Bitmap or a List of values.
package value

import "strings"

// Type is the tag carried by every Value.
type Type uint8

const (
	NUMBER Type = iota
	STRING
	BITMAP
	LIST
)

func (t Type) String() string {
	switch t {
	case NUMBER:
		return "Number"
	case STRING:
		return "String"
	case BITMAP:
		return "Bitmap"
	case LIST:
		return "List"
	}
	return "Unknown"
}

// InlineCapacity is the largest payload held without a separate heap slice.
const InlineCapacity = 32

// storage is the payload of a Value. Exactly two variants exist.
type storage interface {
	raw() []byte
	capacity() int
}

type inline struct {
	n   uint8
	buf [InlineCapacity]byte
}

func (s inline) raw() []byte   { return s.buf[:s.n:s.n] }
func (s inline) capacity() int { return InlineCapacity }

type heap []byte

func (s heap) raw() []byte   { return s }
func (s heap) capacity() int { return cap(s) }

// newStorage copies b into the variant that fits it.
func newStorage(b []byte) storage {
	if len(b) <= InlineCapacity {
		s := inline{n: uint8(len(b))}
		copy(s.buf[:], b)
		return s
	}
	h := make(heap, len(b))
	copy(h, b)
	return h
}

// Value is immutable once built. Operations return fresh Values.
//
// For a Number the payload holds base-10 digits least significant first and
// decimal counts how many of them are fractional. For a Bitmap the payload
// holds packed bits, bit i in byte i/8 under mask 1<<(i%8), and length is the
// bit count.
type Value struct {
	kind     Type
	data     storage
	length   int
	decimal  int
	negative bool
	list     *List
}

var zeroDigits = []byte{0}

func (v Value) Type() Type { return v.kind }

func (v Value) IsNumber() bool { return v.kind == NUMBER }
func (v Value) IsString() bool { return v.kind == STRING }
func (v Value) IsBitmap() bool { return v.kind == BITMAP }
func (v Value) IsList() bool   { return v.kind == LIST }

// IsLarge reports whether the payload lives in the heap variant.
func (v Value) IsLarge() bool {
	_, ok := v.data.(heap)
	return ok
}

// Capacity returns the byte capacity of the payload storage.
func (v Value) Capacity() int {
	if v.data == nil {
		return InlineCapacity
	}
	return v.data.capacity()
}

func (v Value) bytes() []byte {
	if v.data == nil {
		return nil
	}
	return v.data.raw()
}

// digits returns the Number digits, never empty.
func (v Value) digits() []byte {
	d := v.bytes()
	if len(d) == 0 {
		return zeroDigits
	}
	return d
}

// Len returns the digit count, byte count, bit count or element count.
func (v Value) Len() int {
	switch v.kind {
	case NUMBER:
		return len(v.digits())
	case LIST:
		return v.list.Len()
	}
	return v.length
}

// Copy returns a deep copy. List elements are copied recursively.
func (v Value) Copy() Value {
	out := v
	if v.data != nil {
		out.data = newStorage(v.data.raw())
	}
	if v.kind == LIST {
		out.list = v.list.Clone()
	}
	return out
}

// Truthy reports the boolean reading of v.
func (v Value) Truthy() bool {
	switch v.kind {
	case NUMBER:
		return !v.IsZero()
	case STRING:
		for _, b := range v.bytes() {
			if b != 0 {
				return true
			}
		}
		return false
	case BITMAP:
		for _, b := range v.bytes() {
			if b != 0 {
				return true
			}
		}
		return false
	case LIST:
		return v.list.Len() > 0
	}
	return false
}

// Bool returns the Number 1 or 0.
func Bool(b bool) Value {
	if b {
		return FromInt(1)
	}
	return FromInt(0)
}

// NewString builds a String value holding s.
func NewString(s string) Value {
	return Value{kind: STRING, data: newStorage([]byte(s)), length: len(s)}
}

// Text returns the raw string content. Non-strings are formatted.
func (v Value) Text() string {
	if v.kind == STRING {
		return string(v.bytes())
	}
	return v.Format(DefaultPrecision)
}

// String renders v at the default precision.
func (v Value) String() string { return v.Format(DefaultPrecision) }

// Format renders v, cutting Number fractions to precision digits.
func (v Value) Format(precision int) string {
	switch v.kind {
	case NUMBER:
		return v.formatNumber(precision)
	case STRING:
		return `"` + string(v.bytes()) + `"`
	case BITMAP:
		return v.formatBitmap()
	case LIST:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, e := range v.list.Items() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.Format(precision))
		}
		sb.WriteByte(']')
		return sb.String()
	}
	return ""
}

// Equal reports structural equality. Numbers compare numerically.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case NUMBER:
		return compareNumbers(a, b) == 0
	case STRING:
		return string(a.bytes()) == string(b.bytes())
	case BITMAP:
		if a.length != b.length {
			return false
		}
		for i := 0; i < a.length; i++ {
			if a.bit(i) != b.bit(i) {
				return false
			}
		}
		return true
	case LIST:
		if a.list.Len() != b.list.Len() {
			return false
		}
		ai, bi := a.list.Items(), b.list.Items()
		for i := range ai {
			if !Equal(ai[i], bi[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare orders two values of the same type. Bitmaps and Lists only
// support equality and report ErrType for ordering.
func Compare(a, b Value) (int, error) {
	if a.kind != b.kind {
		return 0, typeError("compare", a, b)
	}
	switch a.kind {
	case NUMBER:
		return compareNumbers(a, b), nil
	case STRING:
		return strings.Compare(string(a.bytes()), string(b.bytes())), nil
	}
	return 0, typeError("order", a, b)
}
