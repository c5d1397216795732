package binarysearchfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binarysearchfile "github.com/trichter/binarysearchfile"
	"github.com/trichter/binarysearchfile/dtype"
	"github.com/trichter/binarysearchfile/header"
	"github.com/trichter/binarysearchfile/record"
)

func TestFormatHeader(t *testing.T) {
	t.Run("defaults sub-version", func(t *testing.T) {
		f := binarysearchfile.Format{Name: "x"}
		assert.Equal(t, header.DefaultSub, f.Header().Sub)
	})

	t.Run("keeps caller sub-version", func(t *testing.T) {
		f := binarysearchfile.Format{Sub: [2]byte{9, 9}}
		assert.Equal(t, [2]byte{9, 9}, f.Header().Sub)
	})

	t.Run("copies schema", func(t *testing.T) {
		schema := record.Schema{{Code: dtype.Uint, Width: 4}}
		h := binarysearchfile.Format{Schema: schema}.Header()
		h.Schema[0].Width = 8
		assert.Equal(t, uint16(4), schema[0].Width)
	})
}

func TestFormatRegistry(t *testing.T) {
	t.Run("defaults to builtins", func(t *testing.T) {
		_, err := binarysearchfile.Format{}.Registry().Lookup(dtype.Uint)
		assert.NoError(t, err)
	})

	t.Run("keeps caller registry", func(t *testing.T) {
		reg := dtype.NewRegistry().With(100, dtype.Type{
			Name:   "custom",
			Encode: func(v any, width int) ([]byte, error) { return make([]byte, width), nil },
			Decode: func(p []byte) (any, error) { return nil, nil },
		})
		f := binarysearchfile.Format{Types: reg}
		_, err := f.Registry().Lookup(100)
		assert.NoError(t, err)
	})
}

func TestCheckMagic(t *testing.T) {
	write := func(t *testing.T, p []byte) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "probe.bin")
		require.NoError(t, os.WriteFile(path, p, 0o644))
		return path
	}

	t.Run("accepts sentinel bytes", func(t *testing.T) {
		path := write(t, []byte{0xfe, 0x00, 0x01, 0x00, 'r', 'e', 's', 't'})
		assert.NoError(t, binarysearchfile.CheckMagic(path))
	})

	t.Run("rejects other files", func(t *testing.T) {
		path := write(t, []byte("PK\x03\x04 not ours"))
		assert.ErrorIs(t, binarysearchfile.CheckMagic(path), header.ErrBadMagic)
	})

	t.Run("rejects short files", func(t *testing.T) {
		path := write(t, []byte{0xfe})
		assert.ErrorIs(t, binarysearchfile.CheckMagic(path), header.ErrCorruptHeader)
	})

	t.Run("missing file", func(t *testing.T) {
		err := binarysearchfile.CheckMagic(filepath.Join(t.TempDir(), "absent.bin"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
