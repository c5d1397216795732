package dtype_test

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trichter/binarysearchfile/dtype"
)

func TestRegistry(t *testing.T) {
	t.Run("holds builtins", func(t *testing.T) {
		reg := dtype.NewRegistry()
		for _, code := range []uint8{dtype.Bytes, dtype.ASCII, dtype.UTF8, dtype.Uint, dtype.Int} {
			typ, err := reg.Lookup(code)
			require.NoError(t, err)
			assert.True(t, typ.Keyable(), "builtin %d should be keyable", code)
			assert.True(t, typ.Sizable(), "builtin %d should be sizable", code)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := dtype.NewRegistry().Lookup(42)
		assert.ErrorIs(t, err, dtype.ErrUnknownType)
	})

	t.Run("register user type", func(t *testing.T) {
		reg := dtype.NewRegistry()
		err := reg.Register(100, dtype.Type{
			Name:   "noop",
			Encode: func(v any, width int) ([]byte, error) { return make([]byte, width), nil },
			Decode: func(p []byte) (any, error) { return nil, nil },
		})
		require.NoError(t, err)

		typ, err := reg.Lookup(100)
		require.NoError(t, err)
		assert.Equal(t, "noop", typ.Name)
		assert.False(t, typ.Keyable())
		assert.False(t, typ.Sizable())
	})

	t.Run("rejects reserved codes", func(t *testing.T) {
		err := dtype.NewRegistry().Register(99, dtype.Type{
			Name:   "nope",
			Encode: func(v any, width int) ([]byte, error) { return nil, nil },
			Decode: func(p []byte) (any, error) { return nil, nil },
		})
		assert.ErrorIs(t, err, dtype.ErrInvalidCode)
	})

	t.Run("rejects overwriting builtins", func(t *testing.T) {
		err := dtype.NewRegistry().Register(dtype.Uint, dtype.Type{
			Name:   "fake-uint",
			Encode: func(v any, width int) ([]byte, error) { return nil, nil },
			Decode: func(p []byte) (any, error) { return nil, nil },
		})
		assert.ErrorIs(t, err, dtype.ErrDuplicateCode)
	})

	t.Run("rejects duplicate codes", func(t *testing.T) {
		reg := dtype.NewRegistry()
		typ := dtype.Type{
			Name:   "dup",
			Encode: func(v any, width int) ([]byte, error) { return nil, nil },
			Decode: func(p []byte) (any, error) { return nil, nil },
		}
		require.NoError(t, reg.Register(100, typ))
		assert.ErrorIs(t, reg.Register(100, typ), dtype.ErrDuplicateCode)
	})

	t.Run("rejects incomplete types", func(t *testing.T) {
		err := dtype.NewRegistry().Register(100, dtype.Type{Name: "empty"})
		assert.ErrorIs(t, err, dtype.ErrInvalidValue)
	})

	t.Run("with panics on error", func(t *testing.T) {
		assert.Panics(t, func() {
			dtype.NewRegistry().With(0, dtype.Type{Name: "reserved"})
		})
	})

	t.Run("clone is independent", func(t *testing.T) {
		orig := dtype.NewRegistry()
		clone := orig.Clone()
		require.NoError(t, clone.Register(100, dtype.Type{
			Name:   "only-in-clone",
			Encode: func(v any, width int) ([]byte, error) { return nil, nil },
			Decode: func(p []byte) (any, error) { return nil, nil },
		}))

		_, err := clone.Lookup(100)
		assert.NoError(t, err)
		_, err = orig.Lookup(100)
		assert.ErrorIs(t, err, dtype.ErrUnknownType)
	})
}

func TestMsgpackType(t *testing.T) {
	type point struct {
		X, Y int32
	}

	t.Run("round trips structs", func(t *testing.T) {
		typ := dtype.MsgpackType[point]("point", nil)
		w, err := typ.WidthOf(point{X: 3, Y: -7})
		require.NoError(t, err)

		p, err := typ.Encode(point{X: 3, Y: -7}, w+4) // room for padding
		require.NoError(t, err)
		assert.Len(t, p, w+4)

		v, err := typ.Decode(p)
		require.NoError(t, err)
		assert.Equal(t, point{X: 3, Y: -7}, v)
	})

	t.Run("rejects oversize value", func(t *testing.T) {
		typ := dtype.MsgpackType[string]("name", nil)
		_, err := typ.Encode("a rather long value", 3)
		assert.ErrorIs(t, err, dtype.ErrValueTooLarge)
	})

	t.Run("keyable with compare", func(t *testing.T) {
		typ := dtype.MsgpackType[string]("name", cmp.Compare[string])
		require.True(t, typ.Keyable())

		c, err := typ.Compare("alice", "bob")
		require.NoError(t, err)
		assert.Negative(t, c)
	})

	t.Run("rejects wrong go type", func(t *testing.T) {
		typ := dtype.MsgpackType[point]("point", nil)
		_, err := typ.Encode("not a point", 8)
		assert.ErrorIs(t, err, dtype.ErrInvalidValue)
	})
}
