package dtype

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"math/bits"
	"unicode/utf8"
)

// Common errors returned by codec and registry operations.
var (
	ErrUnknownType   = errors.New("dtype: unknown type code")
	ErrDuplicateCode = errors.New("dtype: type code already registered")
	ErrInvalidCode   = errors.New("dtype: type code reserved for built-in types")
	ErrValueTooLarge = errors.New("dtype: value too large for field width")
	ErrInvalidValue  = errors.New("dtype: value not representable by type")
)

// Built-in type codes. Codes below UserMin are reserved; callers extend
// a registry with codes from UserMin upward.
const (
	Bytes uint8 = 0  // []byte, right-padded with 0x00
	ASCII uint8 = 10 // string of ASCII bytes, right-padded with ' '
	UTF8  uint8 = 20 // string of valid UTF-8, right-padded with ' '
	Uint  uint8 = 50 // uint64, big-endian, widths 1-8
	Int   uint8 = 51 // int64, two's complement big-endian, widths 1-8

	UserMin uint8 = 100
)

// A Type describes how one field value moves between its Go
// representation and a fixed number of bytes on disk.
//
// Encode must produce exactly width bytes for every value it accepts,
// and Decode(Encode(v, w)) must return v for every value in the type's
// valid domain. For the padded types that domain excludes values ending
// in the pad byte: padding is stripped on decode, so a trailing pad byte
// belonging to the value itself cannot be told apart from the padding.
//
// WidthOf reports the smallest width able to hold a value. It is
// optional; types without it cannot be used in auto-width schema fields.
// Compare orders two decoded values. It is optional; types without it
// cannot serve as a record's key field.
type Type struct {
	Name    string
	Encode  func(v any, width int) ([]byte, error)
	Decode  func(p []byte) (any, error)
	WidthOf func(v any) (int, error)
	Compare func(a, b any) (int, error)
}

// Keyable reports whether the type can order records, i.e. may be used
// for a schema's key field.
func (t Type) Keyable() bool { return t.Compare != nil }

// Sizable reports whether the type can size a column from values, i.e.
// may be used in auto-width schema fields.
func (t Type) Sizable() bool { return t.WidthOf != nil }

func builtins() map[uint8]Type {
	return map[uint8]Type{
		Bytes: {
			Name:    "bytes",
			Encode:  encodeBytes,
			Decode:  decodeBytes,
			WidthOf: widthOfBytes,
			Compare: compareOf(func(a, b []byte) int { return bytes.Compare(a, b) }),
		},
		ASCII: {
			Name:    "ascii",
			Encode:  encodeASCII,
			Decode:  decodeText,
			WidthOf: widthOfASCII,
			Compare: compareOf(cmp.Compare[string]),
		},
		UTF8: {
			Name:    "utf8",
			Encode:  encodeUTF8,
			Decode:  decodeText,
			WidthOf: widthOfUTF8,
			Compare: compareOf(cmp.Compare[string]),
		},
		Uint: {
			Name:    "uint",
			Encode:  encodeUint,
			Decode:  decodeUint,
			WidthOf: widthOfUint,
			Compare: compareOf(cmp.Compare[uint64]),
		},
		Int: {
			Name:    "int",
			Encode:  encodeInt,
			Decode:  decodeInt,
			WidthOf: widthOfInt,
			Compare: compareOf(cmp.Compare[int64]),
		},
	}
}

// compareOf adapts a typed comparison to the Compare contract,
// rejecting operands of the wrong dynamic type.
func compareOf[T any](compare func(a, b T) int) func(a, b any) (int, error) {
	return func(a, b any) (int, error) {
		av, ok := a.(T)
		if !ok {
			return 0, fmt.Errorf("%w: got %T, want %T", ErrInvalidValue, a, av)
		}
		bv, ok := b.(T)
		if !ok {
			return 0, fmt.Errorf("%w: got %T, want %T", ErrInvalidValue, b, bv)
		}
		return compare(av, bv), nil
	}
}

func encodeBytes(v any, width int) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: got %T, want []byte", ErrInvalidValue, v)
	}
	if len(b) > width {
		return nil, fmt.Errorf("%w: %d bytes into %d", ErrValueTooLarge, len(b), width)
	}
	out := make([]byte, width)
	copy(out, b)
	return out, nil
}

func decodeBytes(p []byte) (any, error) {
	return bytes.Clone(bytes.TrimRight(p, "\x00")), nil
}

func widthOfBytes(v any) (int, error) {
	b, ok := v.([]byte)
	if !ok {
		return 0, fmt.Errorf("%w: got %T, want []byte", ErrInvalidValue, v)
	}
	return max(1, len(b)), nil
}

const pad = ' '

func encodeASCII(v any, width int) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: got %T, want string", ErrInvalidValue, v)
	}
	if !isASCII(s) {
		return nil, fmt.Errorf("%w: %q is not ASCII", ErrInvalidValue, s)
	}
	return padText(s, width)
}

func encodeUTF8(v any, width int) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: got %T, want string", ErrInvalidValue, v)
	}
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrInvalidValue)
	}
	return padText(s, width)
}

func padText(s string, width int) ([]byte, error) {
	if len(s) > width {
		return nil, fmt.Errorf("%w: %d bytes into %d", ErrValueTooLarge, len(s), width)
	}
	out := bytes.Repeat([]byte{pad}, width)
	copy(out, s)
	return out, nil
}

func decodeText(p []byte) (any, error) {
	return string(bytes.TrimRight(p, string(pad))), nil
}

func widthOfASCII(v any) (int, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("%w: got %T, want string", ErrInvalidValue, v)
	}
	if !isASCII(s) {
		return 0, fmt.Errorf("%w: %q is not ASCII", ErrInvalidValue, s)
	}
	return max(1, len(s)), nil
}

func widthOfUTF8(v any) (int, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("%w: got %T, want string", ErrInvalidValue, v)
	}
	if !utf8.ValidString(s) {
		return 0, fmt.Errorf("%w: invalid UTF-8", ErrInvalidValue)
	}
	return max(1, len(s)), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func encodeUint(v any, width int) ([]byte, error) {
	u, ok := v.(uint64)
	if !ok {
		return nil, fmt.Errorf("%w: got %T, want uint64", ErrInvalidValue, v)
	}
	if width < 1 || width > 8 {
		return nil, fmt.Errorf("%w: uint fields take widths 1-8, not %d", ErrInvalidValue, width)
	}
	if width < 8 && u>>(8*width) != 0 {
		return nil, fmt.Errorf("%w: %d into %d bytes", ErrValueTooLarge, u, width)
	}
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte(u)
		u >>= 8
	}
	return out, nil
}

func decodeUint(p []byte) (any, error) {
	if len(p) < 1 || len(p) > 8 {
		return nil, fmt.Errorf("%w: uint fields take widths 1-8, not %d", ErrInvalidValue, len(p))
	}
	var u uint64
	for _, b := range p {
		u = u<<8 | uint64(b)
	}
	return u, nil
}

func widthOfUint(v any) (int, error) {
	u, ok := v.(uint64)
	if !ok {
		return 0, fmt.Errorf("%w: got %T, want uint64", ErrInvalidValue, v)
	}
	return max(1, (bits.Len64(u)+7)/8), nil
}

func encodeInt(v any, width int) ([]byte, error) {
	i, ok := v.(int64)
	if !ok {
		return nil, fmt.Errorf("%w: got %T, want int64", ErrInvalidValue, v)
	}
	if width < 1 || width > 8 {
		return nil, fmt.Errorf("%w: int fields take widths 1-8, not %d", ErrInvalidValue, width)
	}
	if width < 8 {
		lo := int64(-1) << (8*width - 1)
		hi := int64(1)<<(8*width-1) - 1
		if i < lo || i > hi {
			return nil, fmt.Errorf("%w: %d into %d bytes", ErrValueTooLarge, i, width)
		}
	}
	u := uint64(i)
	out := make([]byte, width)
	for idx := width - 1; idx >= 0; idx-- {
		out[idx] = byte(u)
		u >>= 8
	}
	return out, nil
}

func decodeInt(p []byte) (any, error) {
	if len(p) < 1 || len(p) > 8 {
		return nil, fmt.Errorf("%w: int fields take widths 1-8, not %d", ErrInvalidValue, len(p))
	}
	var u uint64
	for _, b := range p {
		u = u<<8 | uint64(b)
	}
	shift := 64 - 8*uint(len(p))
	return int64(u<<shift) >> shift, nil
}

func widthOfInt(v any) (int, error) {
	i, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("%w: got %T, want int64", ErrInvalidValue, v)
	}
	mag := uint64(i)
	if i < 0 {
		mag = ^mag
	}
	return (bits.Len64(mag) + 8) / 8, nil
}
