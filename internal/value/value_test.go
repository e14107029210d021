package value

import (
	"errors"
	"strings"
	"testing"
)

func num(t *testing.T, s string) Value {
	t.Helper()
	v, err := ParseNumber(s)
	if err != nil {
		t.Fatalf("ParseNumber(%q): %v", s, err)
	}
	return v
}

func bmp(t *testing.T, s string) Value {
	t.Helper()
	v, err := ParseBitmap(s)
	if err != nil {
		t.Fatalf("ParseBitmap(%q): %v", s, err)
	}
	return v
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0", "0"},
		{"-0", "0"},
		{"-0.000", "0"},
		{"007.500", "7.5"},
		{"-1.25", "-1.25"},
		{"+42", "42"},
		{".5", "0.5"},
		{"5.", "5"},
		{"0.050", "0.05"},
		{"100", "100"},
		{"123456789012345678901234567890123456789", "123456789012345678901234567890123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := num(t, tt.input).String()
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	for _, input := range []string{"", "-", "+", ".", "1.2.3", "12a", "1 2", "--1"} {
		if _, err := ParseNumber(input); !errors.Is(err, ErrMalformed) {
			t.Errorf("ParseNumber(%q): expected ErrMalformed, got %v", input, err)
		}
	}

	small := Limits{Precision: 10, MaxDigits: 5, MaxExponent: 10}
	if _, err := small.ParseNumber("123456"); !errors.Is(err, ErrCeiling) {
		t.Errorf("expected ErrCeiling, got %v", err)
	}
}

func TestFormatPrecision(t *testing.T) {
	tests := []struct {
		input     string
		precision int
		expected  string
	}{
		{"3.14159", 2, "3.14"},
		{"-0.001", 2, "0"},
		{"1.10", 5, "1.1"},
		{"2.999", 0, "2"},
		{"-2.5", 0, "-2"},
	}

	for _, tt := range tests {
		got := num(t, tt.input).Format(tt.precision)
		if got != tt.expected {
			t.Errorf("Format(%q, %d) = %q, want %q", tt.input, tt.precision, got, tt.expected)
		}
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		op       string
		a, b     string
		expected string
	}{
		{"+", "1", "2", "3"},
		{"+", "0.1", "0.2", "0.3"},
		{"+", "-5", "3", "-2"},
		{"+", "5", "-5", "0"},
		{"+", "999", "1", "1000"},
		{"-", "1.5", "2.25", "-0.75"},
		{"-", "-1", "-1", "0"},
		{"-", "100", "0.01", "99.99"},
		{"*", "1.5", "-2", "-3"},
		{"*", "123456789", "987654321", "121932631112635269"},
		{"*", "0.1", "0.1", "0.01"},
		{"/", "10", "4", "2.5"},
		{"/", "-7", "2", "-3.5"},
		{"/", "1", "8", "0.125"},
		{"/", "2", "0.5", "4"},
		{"/", "0.001", "1000", "0.000001"},
		{"**", "2", "10", "1024"},
		{"**", "2", "0", "1"},
		{"**", "0.5", "2", "0.25"},
		{"**", "-2", "3", "-8"},
		{"**", "1.5", "2", "2.25"},
		{"%", "7", "3", "1"},
		{"%", "-7", "3", "-1"},
		{"%", "7", "-3", "1"},
		{"%", "-6", "3", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.a+tt.op+tt.b, func(t *testing.T) {
			a, b := num(t, tt.a), num(t, tt.b)
			var got Value
			var err error
			switch tt.op {
			case "+":
				got, err = Add(a, b)
			case "-":
				got, err = Sub(a, b)
			case "*":
				got, err = Mul(a, b)
			case "/":
				got, err = Div(a, b, DefaultPrecision)
			case "**":
				got, err = Pow(a, b, DefaultPrecision)
			case "%":
				got, err = Mod(a, b)
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestDivisionPrecision(t *testing.T) {
	got, err := Div(num(t, "1"), num(t, "3"), 5)
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "0.33333" {
		t.Errorf("1/3 = %s", got)
	}

	// The quotient scale goes negative and zeros are shifted in.
	got, err = Div(num(t, "1"), num(t, "0.000000000000001"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "1000000000000000" {
		t.Errorf("got %s", got)
	}
}

func TestArithmeticErrors(t *testing.T) {
	one, zero := num(t, "1"), num(t, "0")
	small := Limits{Precision: 100, MaxDigits: 4, MaxExponent: 10}

	tests := []struct {
		name string
		run  func() (Value, error)
		want error
	}{
		{"div zero", func() (Value, error) { return Div(one, zero, 10) }, ErrDivisionByZero},
		{"mod zero", func() (Value, error) { return Mod(one, zero) }, ErrDivisionByZero},
		{"mod fraction", func() (Value, error) { return Mod(num(t, "1.5"), one) }, ErrDomain},
		{"pow negative", func() (Value, error) { return Pow(one, num(t, "-1"), 10) }, ErrDomain},
		{"pow fraction", func() (Value, error) { return Pow(one, num(t, "0.5"), 10) }, ErrDomain},
		{"pow ceiling", func() (Value, error) { return small.Pow(one, num(t, "11"), 10) }, ErrCeiling},
		{"mul ceiling", func() (Value, error) { return small.Mul(num(t, "999"), num(t, "999")) }, ErrCeiling},
		{"shift ceiling", func() (Value, error) { return small.ShiftLeft(bmp(t, "B1"), num(t, "33")) }, ErrCeiling},
		{"bitmap number ceiling", func() (Value, error) { return small.ToNumber(bmp(t, "B"+strings.Repeat("0", 14)+"1")) }, ErrCeiling},
		{"digits ceiling", func() (Value, error) { return small.FromDigits("12345", 0, false) }, ErrCeiling},
		{"add type", func() (Value, error) { return Add(one, NewString("x")) }, ErrType},
		{"sub strings", func() (Value, error) { return Sub(NewString("a"), NewString("b")) }, ErrType},
		{"mul bitmap", func() (Value, error) { return Mul(bmp(t, "B1"), one) }, ErrType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.run()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCeilingDropsFractionFirst(t *testing.T) {
	small := Limits{Precision: 100, MaxDigits: 4, MaxExponent: 10}
	got, err := small.Mul(num(t, "12.34"), num(t, "1.1"))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "13.57" {
		t.Errorf("got %s, want 13.57", got)
	}

	narrow := Limits{Precision: 2, MaxDigits: 100, MaxExponent: 10}
	got, err = narrow.Mul(num(t, "0.123"), num(t, "0.5"))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "0.06" {
		t.Errorf("got %s, want 0.06", got)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"-1", "0.5", -1},
		{"0.5", "0", 1},
		{"10", "9.99", 1},
		{"1.50", "1.5", 0},
		{"-2", "-1", -1},
		{"0", "-0", 0},
		{"0.05", "0.5", -1},
		{"123", "1234", -1},
	}

	for _, tt := range tests {
		got, err := Compare(num(t, tt.a), num(t, tt.b))
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.expected {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.expected)
		}
	}

	if c, _ := Compare(NewString("abc"), NewString("abd")); c != -1 {
		t.Errorf("string compare = %d", c)
	}
	if _, err := Compare(bmp(t, "B1"), bmp(t, "B1")); !errors.Is(err, ErrType) {
		t.Errorf("bitmap ordering should be a type error, got %v", err)
	}
	if !Equal(bmp(t, "B10"), bmp(t, "B10")) || Equal(bmp(t, "B10"), bmp(t, "B100")) {
		t.Error("bitmap equality is wrong")
	}
}

func TestArithmeticProperties(t *testing.T) {
	inputs := []string{"0", "1", "-3.75", "12345.6789", "0.0001", "-99999999999999999999"}
	for _, as := range inputs {
		for _, bs := range inputs {
			a, b := num(t, as), num(t, bs)
			sum, _ := Add(a, b)
			back, _ := Sub(sum, b)
			if !Equal(back, a) {
				t.Errorf("(%s + %s) - %s = %s", as, bs, bs, back)
			}
			c, _ := Compare(a, b)
			d, _ := Compare(b, a)
			if c != -d {
				t.Errorf("compare is not antisymmetric for %s, %s", as, bs)
			}
		}
		a := num(t, as)
		prod, _ := Mul(a, FromInt(1))
		if !Equal(prod, a) {
			t.Errorf("%s * 1 = %s", as, prod)
		}
		if !a.IsZero() {
			q, err := Div(a, a, 20)
			if err != nil || q.String() != "1" {
				t.Errorf("%s / %s = %s (%v)", as, as, q, err)
			}
		}
	}
}

func TestStorageVariants(t *testing.T) {
	short := NewString("hello")
	if short.IsLarge() || short.Capacity() != InlineCapacity {
		t.Errorf("short string should be inline")
	}
	long := NewString(strings.Repeat("x", InlineCapacity+1))
	if !long.IsLarge() {
		t.Errorf("long string should be on the heap")
	}
	big := num(t, strings.Repeat("7", 40))
	if !big.IsLarge() || big.Len() != 40 {
		t.Errorf("40-digit number: large=%v len=%d", big.IsLarge(), big.Len())
	}
	c := big.Copy()
	if !Equal(c, big) || !c.IsLarge() {
		t.Errorf("copy differs from source")
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		v        Value
		expected bool
	}{
		{FromInt(0), false},
		{num(t, "0.001"), true},
		{NewString(""), false},
		{NewString("\x00"), false},
		{NewString("a"), true},
		{bmp(t, "B000"), false},
		{bmp(t, "B001"), true},
		{NewList(), false},
		{NewList(FromInt(0)), true},
	}
	for _, tt := range tests {
		if got := tt.v.Truthy(); got != tt.expected {
			t.Errorf("Truthy(%s) = %v", tt.v, got)
		}
	}
}

func TestBitmapOps(t *testing.T) {
	check := func(name string, got Value, err error, expected string) {
		t.Helper()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got.String() != expected {
			t.Errorf("%s = %s, want %s", name, got, expected)
		}
	}

	got, err := BitAnd(bmp(t, "B1100"), bmp(t, "B1010"))
	check("and", got, err, "B1000")
	got, err = BitAnd(bmp(t, "B11"), bmp(t, "B1111"))
	check("and short", got, err, "B11")
	got, err = BitOr(bmp(t, "B11"), bmp(t, "B1001"))
	check("or", got, err, "B1101")
	got, err = BitXor(bmp(t, "B11"), bmp(t, "B1001"))
	check("xor", got, err, "B0101")
	got, err = BitNot(bmp(t, "B0110"))
	check("not", got, err, "B1001")
	got, err = ShiftLeft(bmp(t, "B11"), FromInt(2))
	check("shl", got, err, "B0011")
	got, err = ShiftRight(bmp(t, "B0011"), FromInt(2))
	check("shr", got, err, "B11")
	got, err = ShiftRight(bmp(t, "B0011"), FromInt(10))
	check("shr all", got, err, "B0")
	got, err = SetBit(bmp(t, "B0"), 3, true)
	check("set grows", got, err, "B0001")

	if bit, err := GetBit(bmp(t, "B0001"), 3); err != nil || bit != 1 {
		t.Errorf("GetBit = %d, %v", bit, err)
	}
	if _, err := GetBit(bmp(t, "B0001"), 4); !errors.Is(err, ErrIndex) {
		t.Errorf("expected ErrIndex, got %v", err)
	}
	if n, _ := CountBits(bmp(t, "B1101"), 0, 10); n != 3 {
		t.Errorf("CountBits = %d, want 3", n)
	}
	if n, _ := CountBits(bmp(t, "B1101"), 1, 2); n != 1 {
		t.Errorf("CountBits range = %d, want 1", n)
	}
	if _, err := ShiftLeft(FromInt(1), FromInt(1)); !errors.Is(err, ErrType) {
		t.Errorf("shift of a number should be a type error, got %v", err)
	}
	if _, err := ShiftLeft(bmp(t, "B1"), FromInt(-1)); !errors.Is(err, ErrDomain) {
		t.Errorf("negative shift should be a domain error, got %v", err)
	}
	if _, err := ParseBitmap("B012"); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestConversions(t *testing.T) {
	b, err := ToBitmap(FromInt(6))
	if err != nil || b.String() != "B011" {
		t.Errorf("ToBitmap(6) = %s, %v", b, err)
	}
	n, err := ToNumber(b)
	if err != nil || n.String() != "6" {
		t.Errorf("ToNumber(B011) = %s, %v", n, err)
	}
	if z, _ := ToBitmap(FromInt(0)); z.String() != "B0" {
		t.Errorf("ToBitmap(0) = %s", z)
	}
	if s, _ := ToBitmap(NewString("5")); s.String() != "B101" {
		t.Errorf("ToBitmap(\"5\") = %s", s)
	}
	if v, _ := ToNumber(NewString("12.5")); v.String() != "12.5" {
		t.Errorf("ToNumber(\"12.5\") = %s", v)
	}
	if s, _ := ToString(num(t, "3.50"), 10); s.Text() != "3.5" || !s.IsString() {
		t.Errorf("ToString(3.50) = %s", s)
	}
	if s, _ := ToString(bmp(t, "B11"), 10); s.Text() != "3" {
		t.Errorf("ToString(B11) = %s", s)
	}
	if _, err := ToBitmap(FromInt(-1)); !errors.Is(err, ErrDomain) {
		t.Errorf("expected ErrDomain, got %v", err)
	}
	if _, err := ToNumber(NewList()); !errors.Is(err, ErrType) {
		t.Errorf("expected ErrType, got %v", err)
	}
	if _, err := ToNumber(NewString("abc")); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}

	// Shifting left by n multiplies the numeric reading by 2^n.
	shifted, _ := ShiftLeft(bmp(t, "B101"), FromInt(3))
	if v, _ := ToNumber(shifted); v.String() != "40" {
		t.Errorf("B101 << 3 reads as %s, want 40", v)
	}
}

func TestListOps(t *testing.T) {
	l := NewList()
	l, _ = PushBack(l, FromInt(1))
	l, _ = PushBack(l, FromInt(2))
	l, _ = PushFront(l, FromInt(0))
	if l.String() != "[0, 1, 2]" || l.Len() != 3 {
		t.Fatalf("list = %s", l)
	}

	head, rest, err := PopFront(l)
	if err != nil || head.String() != "0" || rest.String() != "[1, 2]" {
		t.Errorf("PopFront = %s, %s, %v", head, rest, err)
	}
	tail, rest, err := PopBack(l)
	if err != nil || tail.String() != "2" || rest.String() != "[0, 1]" {
		t.Errorf("PopBack = %s, %s, %v", tail, rest, err)
	}
	if l.String() != "[0, 1, 2]" {
		t.Errorf("source list changed: %s", l)
	}
	if e, _ := Index(l, 1); e.String() != "1" {
		t.Errorf("Index(1) = %s", e)
	}
	if _, err := Index(l, 5); !errors.Is(err, ErrIndex) {
		t.Errorf("expected ErrIndex, got %v", err)
	}
	if _, _, err := PopBack(NewList()); !errors.Is(err, ErrIndex) {
		t.Errorf("expected ErrIndex, got %v", err)
	}
	if _, err := PushBack(FromInt(1), FromInt(2)); !errors.Is(err, ErrType) {
		t.Errorf("expected ErrType, got %v", err)
	}
}

func TestFromDigits(t *testing.T) {
	v, err := FromDigits("12345", 2, true)
	if err != nil || v.String() != "-123.45" {
		t.Errorf("FromDigits = %s, %v", v, err)
	}
	if v.Digits() != "12345" || v.DecimalPos() != 2 || !v.Negative() {
		t.Errorf("accessors: %s %d %v", v.Digits(), v.DecimalPos(), v.Negative())
	}
	small := Limits{Precision: 10, MaxDigits: 5, MaxExponent: 10}
	if v, err := small.FromDigits("12345", 5, false); err != nil || v.String() != "0.12345" {
		t.Errorf("FromDigits within the ceiling = %s, %v", v, err)
	}
	if v, err := small.ToNumber(bmp(t, "B00000000000001")); err != nil || v.String() != "8192" {
		t.Errorf("ToNumber within the ceiling = %s, %v", v, err)
	}
	if _, err := FromDigits("1x", 0, false); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
	if n, ok := FromInt(-42).Int64(); !ok || n != -42 {
		t.Errorf("Int64 = %d, %v", n, ok)
	}
}
