package dtype_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trichter/binarysearchfile/dtype"
)

func lookup(t *testing.T, code uint8) dtype.Type {
	t.Helper()
	typ, err := dtype.NewRegistry().Lookup(code)
	require.NoError(t, err)
	return typ
}

func TestBytes(t *testing.T) {
	typ := lookup(t, dtype.Bytes)

	t.Run("pads with zero bytes", func(t *testing.T) {
		p, err := typ.Encode([]byte{0xab, 0xcd}, 4)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xab, 0xcd, 0x00, 0x00}, p)
	})

	t.Run("round trips", func(t *testing.T) {
		p, err := typ.Encode([]byte("abc"), 8)
		require.NoError(t, err)
		v, err := typ.Decode(p)
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), v)
	})

	t.Run("rejects oversize value", func(t *testing.T) {
		_, err := typ.Encode([]byte("abcdef"), 4)
		assert.ErrorIs(t, err, dtype.ErrValueTooLarge)
	})

	t.Run("rejects wrong go type", func(t *testing.T) {
		_, err := typ.Encode("abc", 4)
		assert.ErrorIs(t, err, dtype.ErrInvalidValue)
	})

	t.Run("trims trailing zeros on decode", func(t *testing.T) {
		// A value that itself ends in 0x00 loses that byte; only the
		// part before the padding survives the round trip.
		p, err := typ.Encode([]byte{0x01, 0x00}, 4)
		require.NoError(t, err)
		v, err := typ.Decode(p)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01}, v)
	})

	t.Run("width of", func(t *testing.T) {
		w, err := typ.WidthOf([]byte("abc"))
		require.NoError(t, err)
		assert.Equal(t, 3, w)

		w, err = typ.WidthOf([]byte{})
		require.NoError(t, err)
		assert.Equal(t, 1, w, "empty values still occupy one byte")
	})
}

func TestASCII(t *testing.T) {
	typ := lookup(t, dtype.ASCII)

	t.Run("pads with spaces", func(t *testing.T) {
		p, err := typ.Encode("hi", 5)
		require.NoError(t, err)
		assert.Equal(t, []byte("hi   "), p)
	})

	t.Run("round trips", func(t *testing.T) {
		p, err := typ.Encode("hello", 8)
		require.NoError(t, err)
		v, err := typ.Decode(p)
		require.NoError(t, err)
		assert.Equal(t, "hello", v)
	})

	t.Run("rejects non-ascii", func(t *testing.T) {
		_, err := typ.Encode("héllo", 8)
		assert.ErrorIs(t, err, dtype.ErrInvalidValue)

		_, err = typ.WidthOf("héllo")
		assert.ErrorIs(t, err, dtype.ErrInvalidValue)
	})

	t.Run("rejects oversize value", func(t *testing.T) {
		_, err := typ.Encode("toolong", 4)
		assert.ErrorIs(t, err, dtype.ErrValueTooLarge)
	})

	t.Run("compare orders lexically", func(t *testing.T) {
		c, err := typ.Compare("abc", "abd")
		require.NoError(t, err)
		assert.Negative(t, c)
	})
}

func TestUTF8(t *testing.T) {
	typ := lookup(t, dtype.UTF8)

	t.Run("accepts multibyte runes", func(t *testing.T) {
		p, err := typ.Encode("héllo", 8)
		require.NoError(t, err)
		assert.Len(t, p, 8)

		v, err := typ.Decode(p)
		require.NoError(t, err)
		assert.Equal(t, "héllo", v)
	})

	t.Run("width counts bytes not runes", func(t *testing.T) {
		w, err := typ.WidthOf("héllo")
		require.NoError(t, err)
		assert.Equal(t, 6, w)
	})

	t.Run("rejects invalid utf-8", func(t *testing.T) {
		_, err := typ.Encode(string([]byte{0xff, 0xfe}), 4)
		assert.ErrorIs(t, err, dtype.ErrInvalidValue)
	})

	t.Run("rejects value larger than width", func(t *testing.T) {
		_, err := typ.Encode("héllo", 5)
		assert.ErrorIs(t, err, dtype.ErrValueTooLarge)
	})
}

func TestUint(t *testing.T) {
	typ := lookup(t, dtype.Uint)

	t.Run("encodes big endian", func(t *testing.T) {
		p, err := typ.Encode(uint64(0x0102), 4)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0x00, 0x01, 0x02}, p)
	})

	t.Run("round trips extremes", func(t *testing.T) {
		for _, u := range []uint64{0, 1, 255, 256, math.MaxUint64} {
			p, err := typ.Encode(u, 8)
			require.NoError(t, err)
			v, err := typ.Decode(p)
			require.NoError(t, err)
			assert.Equal(t, u, v)
		}
	})

	t.Run("narrow widths", func(t *testing.T) {
		p, err := typ.Encode(uint64(255), 1)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xff}, p)

		_, err = typ.Encode(uint64(256), 1)
		assert.ErrorIs(t, err, dtype.ErrValueTooLarge)
	})

	t.Run("rejects bad widths", func(t *testing.T) {
		_, err := typ.Encode(uint64(1), 0)
		assert.ErrorIs(t, err, dtype.ErrInvalidValue)

		_, err = typ.Encode(uint64(1), 9)
		assert.ErrorIs(t, err, dtype.ErrInvalidValue)

		_, err = typ.Decode(make([]byte, 9))
		assert.ErrorIs(t, err, dtype.ErrInvalidValue)
	})

	t.Run("width of", func(t *testing.T) {
		for _, tc := range []struct {
			v    uint64
			want int
		}{
			{0, 1},
			{255, 1},
			{256, 2},
			{math.MaxUint32, 4},
			{math.MaxUint64, 8},
		} {
			w, err := typ.WidthOf(tc.v)
			require.NoError(t, err)
			assert.Equal(t, tc.want, w, "width of %d", tc.v)
		}
	})

	t.Run("rejects signed ints", func(t *testing.T) {
		_, err := typ.Encode(int64(1), 4)
		assert.ErrorIs(t, err, dtype.ErrInvalidValue)
	})
}

func TestInt(t *testing.T) {
	typ := lookup(t, dtype.Int)

	t.Run("sign extends on decode", func(t *testing.T) {
		p, err := typ.Encode(int64(-1), 2)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xff, 0xff}, p)

		v, err := typ.Decode(p)
		require.NoError(t, err)
		assert.Equal(t, int64(-1), v)
	})

	t.Run("round trips extremes", func(t *testing.T) {
		for _, i := range []int64{0, 1, -1, 127, -128, math.MaxInt64, math.MinInt64} {
			p, err := typ.Encode(i, 8)
			require.NoError(t, err)
			v, err := typ.Decode(p)
			require.NoError(t, err)
			assert.Equal(t, i, v)
		}
	})

	t.Run("narrow width bounds", func(t *testing.T) {
		for _, tc := range []struct {
			v  int64
			ok bool
		}{
			{127, true},
			{128, false},
			{-128, true},
			{-129, false},
		} {
			_, err := typ.Encode(tc.v, 1)
			if tc.ok {
				assert.NoError(t, err, "encode %d width 1", tc.v)
			} else {
				assert.ErrorIs(t, err, dtype.ErrValueTooLarge, "encode %d width 1", tc.v)
			}
		}
	})

	t.Run("width of", func(t *testing.T) {
		for _, tc := range []struct {
			v    int64
			want int
		}{
			{0, 1},
			{127, 1},
			{128, 2},
			{-128, 1},
			{-129, 2},
			{math.MaxInt64, 8},
			{math.MinInt64, 8},
		} {
			w, err := typ.WidthOf(tc.v)
			require.NoError(t, err)
			assert.Equal(t, tc.want, w, "width of %d", tc.v)
		}
	})

	t.Run("compare orders negatives first", func(t *testing.T) {
		c, err := typ.Compare(int64(-5), int64(3))
		require.NoError(t, err)
		assert.Negative(t, c)
	})
}
