package binarysearchfile

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/trichter/binarysearchfile/dtype"
	"github.com/trichter/binarysearchfile/header"
	"github.com/trichter/binarysearchfile/record"
)

// A Format describes a file flavor: the magic sub-version, the stored
// format name, the record schema, and the type registry resolving the
// schema's codes. The zero Sub means header.DefaultSub; a nil Types
// means built-in types only.
//
// On open, a nil Schema adopts whatever the file declares; a non-nil
// Schema is enforced against the file. Schema widths of 0 are sized
// from the data when writing and act as wildcards when checking.
type Format struct {
	Sub    [2]byte
	Name   string
	Schema record.Schema
	Types  *dtype.Registry
}

// Header returns the file prologue this format writes. Auto-width
// schema fields must be resolved before the header can be encoded.
func (f Format) Header() header.Header {
	sub := f.Sub
	if sub == ([2]byte{}) {
		sub = header.DefaultSub
	}
	return header.Header{Sub: sub, Name: f.Name, Schema: slices.Clone(f.Schema)}
}

// Registry returns the format's type registry, defaulting to the
// built-in types.
func (f Format) Registry() *dtype.Registry {
	if f.Types == nil {
		return dtype.NewRegistry()
	}
	return f.Types
}

// CheckMagic reports whether the file at path starts with the magic
// sentinel bytes. It reads four bytes and nothing else, making it a
// cheap way to probe candidate files before opening them.
func CheckMagic(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("binarysearchfile: %w", err)
	}
	defer f.Close()

	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return fmt.Errorf("%w: %v", header.ErrCorruptHeader, err)
	}
	return header.CheckMagic(magic)
}
