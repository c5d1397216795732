// Package bsfile reads and writes binary search files: sorted,
// fixed-stride record files that answer key lookups in O(log n) reads
// without being loaded into memory.
//
// A file is written in one shot. The Writer buffers added records in a
// tree ordered by key, so callers may add in any order; Close fits any
// auto-width columns, writes the self-describing header, and streams
// the records out sorted. Records with equal keys keep the order they
// were added in.
//
// Reading goes through an io.ReaderAt. Every lookup seeks directly to
// record offsets computed from the header, reading only key-width
// probes, which keeps Search cheap on files far larger than memory.
//
// Basic usage:
//
//	err := bsfile.Create("ports.bin", format, recs, nil)
//
//	f, err := bsfile.OpenFile("ports.bin", format, nil)
//	defer f.Close()
//
//	i, err := f.Search(uint64(443))  // index of first match
//	rec, err := f.Get(uint64(443))   // the record itself
package bsfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	binarysearchfile "github.com/trichter/binarysearchfile"
	"github.com/trichter/binarysearchfile/record"
)

// Common errors returned by binary search file operations.
var (
	ErrClosed          = errors.New("bsfile: file already closed")
	ErrEmptyWrite      = errors.New("bsfile: no records to write")
	ErrKeyNotFound     = errors.New("bsfile: key not found")
	ErrIndexOutOfRange = errors.New("bsfile: record index out of range")
	ErrCorruptFile     = errors.New("bsfile: corrupt file")
)

// WriteAll writes recs to w as one sorted file.
func WriteAll(w io.Writer, format binarysearchfile.Format, recs []record.Record, opts *Options) error {
	bw, err := NewWriter(w, format, opts)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := bw.Add(rec); err != nil {
			return err
		}
	}
	return bw.Close()
}

// Create writes recs to a new sorted file at path. Records go to a
// temporary file in the same directory first, which replaces path only
// after a successful write, so readers never observe a partial file.
func Create(path string, format binarysearchfile.Format, recs []record.Record, opts *Options) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("bsfile: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = WriteAll(tmp, format, recs, opts); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("bsfile: sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("bsfile: close: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("bsfile: publish: %w", err)
	}
	return nil
}

// Update rewrites the file at path with its existing records plus recs,
// re-sorting the whole set, so the new keys may fall anywhere in the
// order. A missing file is treated as empty. The rewrite is atomic the
// same way Create is.
func Update(path string, format binarysearchfile.Format, recs []record.Record, opts *Options) error {
	existing, err := readPath(path, format, opts)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return Create(path, format, append(existing, recs...), opts)
}

func readPath(path string, format binarysearchfile.Format, opts *Options) ([]record.Record, error) {
	f, err := OpenFile(path, format, opts)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.ReadAll()
}
