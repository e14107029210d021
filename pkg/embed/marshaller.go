package logex

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"

	"github.com/funvibe/logex/internal/value"
)

var (
	valueType  = reflect.TypeOf(value.Value{})
	bigIntType = reflect.TypeOf((*big.Int)(nil))
)

// Marshaller handles conversion between Go and Logex values.
type Marshaller struct {
	// Precision used when rendering Numbers as floats or strings
	Precision int
}

func NewMarshaller() *Marshaller {
	return &Marshaller{Precision: value.DefaultPrecision}
}

// ToValue converts a Go value to a Logex Value.
// Booleans become the Numbers 1 and 0, []bool becomes a Bitmap and other
// slices become Lists.
func (m *Marshaller) ToValue(val interface{}) (value.Value, error) {
	if val == nil {
		return value.Value{}, fmt.Errorf("cannot convert nil to a Logex value")
	}
	switch x := val.(type) {
	case value.Value:
		return x.Copy(), nil
	case *big.Int:
		if x == nil {
			return value.Value{}, fmt.Errorf("cannot convert nil *big.Int")
		}
		return value.ParseNumber(x.String())
	case []bool:
		return value.NewBitmap(x), nil
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.FromInt(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return value.ParseNumber(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return value.Value{}, fmt.Errorf("%w: %v has no decimal form", value.ErrDomain, f)
		}
		bits := 64
		if v.Kind() == reflect.Float32 {
			bits = 32
		}
		return value.ParseNumber(strconv.FormatFloat(f, 'f', -1, bits))
	case reflect.Bool:
		return value.Bool(v.Bool()), nil
	case reflect.String:
		return value.NewString(v.String()), nil
	case reflect.Slice, reflect.Array:
		return m.sliceToList(v)
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return value.Value{}, fmt.Errorf("cannot convert nil %s", v.Type())
		}
		return m.ToValue(v.Elem().Interface())
	}
	return value.Value{}, fmt.Errorf("unsupported Go type %s", v.Type())
}

func (m *Marshaller) sliceToList(v reflect.Value) (value.Value, error) {
	items := make([]value.Value, v.Len())
	for i := 0; i < v.Len(); i++ {
		item, err := m.ToValue(v.Index(i).Interface())
		if err != nil {
			return value.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		items[i] = item
	}
	return value.NewList(items...), nil
}

// FromValue converts a Logex Value to a Go value.
// targetType is optional; if provided, tries to convert to that type.
// Without one, integers that fit become int, larger integers *big.Int and
// fractions float64.
func (m *Marshaller) FromValue(v value.Value, targetType reflect.Type) (interface{}, error) {
	if targetType == valueType {
		return v.Copy(), nil
	}
	if targetType != nil && targetType.Kind() == reflect.Interface {
		targetType = nil
	}

	switch v.Type() {
	case value.NUMBER:
		return m.numberFrom(v, targetType)
	case value.STRING:
		if targetType != nil && targetType.Kind() != reflect.String {
			return nil, fmt.Errorf("cannot convert String to %s", targetType)
		}
		if targetType != nil {
			return reflect.ValueOf(v.Text()).Convert(targetType).Interface(), nil
		}
		return v.Text(), nil
	case value.BITMAP:
		if targetType != nil && targetType.Kind() == reflect.String {
			return v.String(), nil
		}
		return v.Bits(), nil
	case value.LIST:
		return m.listToSlice(v, targetType)
	}
	return nil, fmt.Errorf("unsupported value type %s", v.Type())
}

func (m *Marshaller) numberFrom(v value.Value, targetType reflect.Type) (interface{}, error) {
	if targetType == nil {
		if n, ok := v.Int64(); ok && n >= math.MinInt && n <= math.MaxInt {
			return int(n), nil
		}
		if v.IsInteger() {
			return m.bigInt(v)
		}
		return strconv.ParseFloat(v.Format(m.Precision), 64)
	}
	if targetType == bigIntType {
		if !v.IsInteger() {
			return nil, fmt.Errorf("%w: %s is not an integer", value.ErrDomain, v)
		}
		return m.bigInt(v)
	}

	out := reflect.New(targetType).Elem()
	switch targetType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.Int64()
		if !ok || out.OverflowInt(n) {
			return nil, fmt.Errorf("%w: %s does not fit %s", value.ErrDomain, v, targetType)
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if !v.IsInteger() || v.Negative() {
			return nil, fmt.Errorf("%w: %s does not fit %s", value.ErrDomain, v, targetType)
		}
		n, err := strconv.ParseUint(v.Digits(), 10, 64)
		if err != nil || out.OverflowUint(n) {
			return nil, fmt.Errorf("%w: %s does not fit %s", value.ErrDomain, v, targetType)
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(v.Format(m.Precision), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s does not fit %s", value.ErrDomain, v, targetType)
		}
		out.SetFloat(f)
	case reflect.Bool:
		out.SetBool(v.Truthy())
	case reflect.String:
		out.SetString(v.Format(m.Precision))
	default:
		return nil, fmt.Errorf("cannot convert Number to %s", targetType)
	}
	return out.Interface(), nil
}

func (m *Marshaller) bigInt(v value.Value) (*big.Int, error) {
	n, ok := new(big.Int).SetString(v.Digits(), 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s", value.ErrMalformed, v)
	}
	if v.Negative() {
		n.Neg(n)
	}
	return n, nil
}

func (m *Marshaller) listToSlice(v value.Value, targetType reflect.Type) (interface{}, error) {
	// If targetType is nil, default to []interface{}
	elemType := reflect.TypeOf((*interface{})(nil)).Elem()
	if targetType != nil {
		if targetType.Kind() != reflect.Slice {
			return nil, fmt.Errorf("cannot convert List to %s", targetType)
		}
		elemType = targetType.Elem()
	}

	items := v.Elements()
	slice := reflect.MakeSlice(reflect.SliceOf(elemType), 0, len(items))
	for i, item := range items {
		val, err := m.FromValue(item, elemType)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		rv := reflect.ValueOf(val)
		switch {
		case rv.Type().AssignableTo(elemType):
			slice = reflect.Append(slice, rv)
		case rv.Type().ConvertibleTo(elemType):
			slice = reflect.Append(slice, rv.Convert(elemType))
		default:
			return nil, fmt.Errorf("cannot convert %s to %s", rv.Type(), elemType)
		}
	}
	return slice.Interface(), nil
}
