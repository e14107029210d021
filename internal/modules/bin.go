package modules

import (
	"fmt"

	"github.com/funvibe/funbit/pkg/funbit"

	"github.com/funvibe/logex/internal/evaluator"
	"github.com/funvibe/logex/internal/value"
)

// The bin package round-trips Bitmaps through funbit bit strings. Bit 0 of
// a Bitmap is the first bit of the bit string.
func binPackage() *Package {
	return &Package{
		Name: "bin",
		Functions: []*evaluator.Function{
			{Name: "blen", MinArgs: 1, MaxArgs: 1, Impl: binLen, Doc: "bit length of b"},
			{Name: "bstr", MinArgs: 1, MaxArgs: 1, Impl: binStr, Doc: "b rendered as a binary string"},
			{Name: "bcat", MinArgs: 1, MaxArgs: evaluator.Variadic, Impl: binCat, Doc: "bcat(a, b, ...) joins bitmaps, a first"},
		},
	}
}

func toBitString(bm value.Value) (*funbit.BitString, error) {
	bits := bm.Bits()
	if len(bits) == 0 {
		return funbit.NewBitString(), nil
	}
	builder := funbit.NewBuilder()
	for _, on := range bits {
		var n int64
		if on {
			n = 1
		}
		funbit.AddInteger(builder, n, funbit.WithSize(1))
	}
	bs, err := funbit.Build(builder)
	if err != nil {
		return nil, fmt.Errorf("building bit string: %w", err)
	}
	return bs, nil
}

func fromBitString(bs *funbit.BitString) (value.Value, error) {
	n := int(bs.Length())
	if n == 0 {
		return value.NewBitmap([]bool{false}), nil
	}
	matcher := funbit.NewMatcher()
	cells := make([]uint, n)
	for i := range cells {
		funbit.Integer(matcher, &cells[i], funbit.WithSize(1))
	}
	if _, err := funbit.Match(matcher, bs); err != nil {
		return value.Value{}, fmt.Errorf("reading bit string: %w", err)
	}
	bits := make([]bool, n)
	for i, c := range cells {
		bits[i] = c == 1
	}
	return value.NewBitmap(bits), nil
}

func binLen(args []value.Value, _ value.Limits) (value.Value, error) {
	bm, err := bitmapArg("blen", args, 0)
	if err != nil {
		return value.Value{}, err
	}
	bs, err := toBitString(bm)
	if err != nil {
		return value.Value{}, err
	}
	return value.FromInt(int64(bs.Length())), nil
}

func binStr(args []value.Value, _ value.Limits) (value.Value, error) {
	bm, err := bitmapArg("bstr", args, 0)
	if err != nil {
		return value.Value{}, err
	}
	bs, err := toBitString(bm)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewString(funbit.ToBinaryString(bs)), nil
}

func binCat(args []value.Value, _ value.Limits) (value.Value, error) {
	builder := funbit.NewBuilder()
	for i := range args {
		bm, err := bitmapArg("bcat", args, i)
		if err != nil {
			return value.Value{}, err
		}
		bs, err := toBitString(bm)
		if err != nil {
			return value.Value{}, err
		}
		if bs.Length() > 0 {
			funbit.AddBitstring(builder, bs)
		}
	}
	joined, err := funbit.Build(builder)
	if err != nil {
		return value.Value{}, fmt.Errorf("building bit string: %w", err)
	}
	return fromBitString(joined)
}
