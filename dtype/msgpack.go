package dtype

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackType builds a user type that stores values of T as MessagePack.
// It is the quickest way to put a struct into a field without writing a
// codec by hand.
//
// MessagePack is self-delimiting, so values shorter than the field are
// zero-padded and the padding is ignored on decode. Pass a nil compare
// to get a non-keyable type; pass one to allow T as the key field.
func MsgpackType[T any](name string, compare func(a, b T) int) Type {
	t := Type{
		Name: name,
		Encode: func(v any, width int) ([]byte, error) {
			tv, ok := v.(T)
			if !ok {
				return nil, fmt.Errorf("%w: got %T, want %T", ErrInvalidValue, v, tv)
			}
			raw, err := msgpack.Marshal(tv)
			if err != nil {
				return nil, fmt.Errorf("dtype: marshal %s: %w", name, err)
			}
			if len(raw) > width {
				return nil, fmt.Errorf("%w: %d bytes into %d", ErrValueTooLarge, len(raw), width)
			}
			out := make([]byte, width)
			copy(out, raw)
			return out, nil
		},
		Decode: func(p []byte) (any, error) {
			var tv T
			if err := msgpack.Unmarshal(p, &tv); err != nil {
				return nil, fmt.Errorf("dtype: unmarshal %s: %w", name, err)
			}
			return tv, nil
		},
		WidthOf: func(v any) (int, error) {
			tv, ok := v.(T)
			if !ok {
				return 0, fmt.Errorf("%w: got %T, want %T", ErrInvalidValue, v, tv)
			}
			raw, err := msgpack.Marshal(tv)
			if err != nil {
				return 0, fmt.Errorf("dtype: marshal %s: %w", name, err)
			}
			return len(raw), nil
		},
	}
	if compare != nil {
		t.Compare = compareOf(compare)
	}
	return t
}
