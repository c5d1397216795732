package header

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/trichter/binarysearchfile/record"
)

// Common errors returned when reading or writing file headers.
var (
	ErrBadMagic       = errors.New("header: bad magic")
	ErrCorruptHeader  = errors.New("header: corrupt header")
	ErrSchemaMismatch = errors.New("header: schema mismatch")
	ErrNameTooLong    = errors.New("header: format name too long")
	ErrSchemaTooLarge = errors.New("header: schema exceeds field-count range")
)

// Magic layout: bytes 0 and 2 are fixed sentinels, bytes 1 and 3 carry
// the caller's sub-version. DefaultSub reproduces the classic magic
// FE FE 01 01.
const (
	sentinel0 byte = 0xFE
	sentinel2 byte = 0x01
)

// DefaultSub is the sub-version written when callers leave it unset.
var DefaultSub = [2]byte{0xFE, 0x01}

// A Header is the self-describing prologue every file starts with. The
// name and sub-version are caller data: they are stored and returned
// but never validated, so readers cannot break on a renamed format.
type Header struct {
	Sub    [2]byte
	Name   string
	Schema record.Schema
}

// Size returns the encoded header length in bytes. Records start at
// exactly this offset.
func (h Header) Size() int {
	return 4 + 2 + len(h.Name) + 2 + 3*len(h.Schema)
}

// CheckMagic verifies the two sentinel bytes of a magic block.
func CheckMagic(magic [4]byte) error {
	if magic[0] != sentinel0 || magic[2] != sentinel2 {
		return fmt.Errorf("%w: % x", ErrBadMagic, magic[:])
	}
	return nil
}

// Write encodes h to w. Schemas must be non-empty and concrete: a field
// of width 0 has no defined encoding and is rejected.
func Write(w io.Writer, h Header) error {
	if len(h.Name) > math.MaxUint16 {
		return fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(h.Name))
	}
	if len(h.Schema) == 0 {
		return record.ErrEmptySchema
	}
	if len(h.Schema) > math.MaxUint16 {
		return fmt.Errorf("%w: %d fields", ErrSchemaTooLarge, len(h.Schema))
	}
	buf := make([]byte, 0, h.Size())
	buf = append(buf, sentinel0, h.Sub[0], sentinel2, h.Sub[1])
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(h.Name)))
	buf = append(buf, h.Name...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(h.Schema)))
	for i, f := range h.Schema {
		if f.Width == 0 {
			return fmt.Errorf("%w: field %d", record.ErrAutoWidth, i)
		}
		buf = append(buf, f.Code)
		buf = binary.BigEndian.AppendUint16(buf, f.Width)
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("header: write: %w", err)
	}
	return nil
}

// Read decodes a header from the front of r. It returns ErrBadMagic
// when the sentinel bytes are wrong and ErrCorruptHeader when the
// prologue is truncated or internally inconsistent.
func Read(r io.Reader) (Header, error) {
	var fixed [6]byte // magic + name length
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return Header{}, fmt.Errorf("%w: truncated magic: %v", ErrCorruptHeader, err)
	}
	if err := CheckMagic([4]byte(fixed[:4])); err != nil {
		return Header{}, err
	}
	h := Header{Sub: [2]byte{fixed[1], fixed[3]}}

	name := make([]byte, binary.BigEndian.Uint16(fixed[4:6]))
	if _, err := io.ReadFull(r, name); err != nil {
		return Header{}, fmt.Errorf("%w: truncated name: %v", ErrCorruptHeader, err)
	}
	h.Name = string(name)

	var cnt [2]byte
	if _, err := io.ReadFull(r, cnt[:]); err != nil {
		return Header{}, fmt.Errorf("%w: truncated field count: %v", ErrCorruptHeader, err)
	}
	n := binary.BigEndian.Uint16(cnt[:])
	if n == 0 {
		return Header{}, fmt.Errorf("%w: zero fields", ErrCorruptHeader)
	}

	desc := make([]byte, 3*int(n))
	if _, err := io.ReadFull(r, desc); err != nil {
		return Header{}, fmt.Errorf("%w: truncated field descriptors: %v", ErrCorruptHeader, err)
	}
	h.Schema = make(record.Schema, n)
	for i := range h.Schema {
		h.Schema[i] = record.Field{
			Code:  desc[3*i],
			Width: binary.BigEndian.Uint16(desc[3*i+1 : 3*i+3]),
		}
		if h.Schema[i].Width == 0 {
			return Header{}, fmt.Errorf("%w: field %d has zero width", ErrCorruptHeader, i)
		}
	}
	return h, nil
}
