// Package seqfile reads and writes sequential record files: the same
// self-describing fixed-stride layout the bsfile package searches, but
// grown record by record with no ordering requirement.
//
// A sequential file is a plain positional store. Records append at the
// end, read back by index, and can be overwritten in place, all through
// pread/pwrite style offsets, so an open file never needs loading. The
// two flavors share the layout byte for byte: a sequential file whose
// records happen to be sorted can be opened with bsfile and searched.
//
// Basic usage:
//
//	f, err := seqfile.OpenFile("events.bin", format, nil) // creates if missing
//	defer f.Close()
//
//	err = f.Append(record.Record{uint64(17), "started"})
//	rec, err := f.At(0)
package seqfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	binarysearchfile "github.com/trichter/binarysearchfile"
	"github.com/trichter/binarysearchfile/header"
	"github.com/trichter/binarysearchfile/record"
)

// Common errors returned by sequential file operations.
var (
	ErrClosed          = errors.New("seqfile: file already closed")
	ErrIndexOutOfRange = errors.New("seqfile: record index out of range")
	ErrCorruptFile     = errors.New("seqfile: corrupt file")
)

// A ReadWriterAt is the random-access handle a sequential file runs on.
// os.File satisfies it.
type ReadWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

// A File is an append-and-index record store. All methods are safe for
// concurrent use.
type File struct {
	mu      sync.RWMutex
	rw      ReadWriterAt
	closer  io.Closer // set when the File owns the handle
	syncer  interface{ Sync() error }
	codec   *record.Codec
	hdr     header.Header
	dataOff int64
	count   int64
	closed  bool
	log     *zap.Logger
}

// Open prepares rw for appends and positional reads. A size of 0 means
// a fresh file: the header is written from the format, whose schema
// must be concrete — appends cannot size columns from values still to
// come, so auto-width fields are rejected with record.ErrAutoWidth.
// Any other size means an existing file: the header is parsed and
// validated the same way bsfile.Open does it.
func Open(rw ReadWriterAt, size int64, format binarysearchfile.Format, opts *Options) (*File, error) {
	if rw == nil {
		return nil, errors.New("seqfile: handle cannot be nil")
	}

	var hdr header.Header
	if size == 0 {
		hdr = format.Header()
		var buf bytes.Buffer
		if err := header.Write(&buf, hdr); err != nil {
			return nil, err
		}
		if _, err := rw.WriteAt(buf.Bytes(), 0); err != nil {
			return nil, fmt.Errorf("seqfile: write header: %w", err)
		}
		size = int64(buf.Len())
	} else {
		var err error
		hdr, err = header.Read(io.NewSectionReader(rw, 0, size))
		if err != nil {
			return nil, err
		}
		if format.Schema != nil && !format.Schema.Matches(hdr.Schema) {
			return nil, fmt.Errorf("%w: want %v, file has %v", header.ErrSchemaMismatch, format.Schema, hdr.Schema)
		}
	}

	codec, err := record.NewCodec(format.Registry(), hdr.Schema)
	if err != nil {
		return nil, fmt.Errorf("seqfile: %w", err)
	}
	dataOff := int64(hdr.Size())
	width := int64(codec.Width())
	if size < dataOff || (size-dataOff)%width != 0 {
		return nil, fmt.Errorf("%w: %d data bytes, record width %d", ErrCorruptFile, size-dataOff, width)
	}

	f := &File{
		rw:      rw,
		codec:   codec,
		hdr:     hdr,
		dataOff: dataOff,
		count:   (size - dataOff) / width,
		log:     opts.logger(),
	}
	f.log.Debug("opened sequential file",
		zap.String("name", hdr.Name),
		zap.Int64("records", f.count),
		zap.Int("record_width", codec.Width()),
	)
	return f, nil
}

// OpenFile opens the file at path read-write, creating it with a fresh
// header when missing or empty. Closing the File syncs and closes the
// handle.
func OpenFile(path string, format binarysearchfile.Format, opts *Options) (*File, error) {
	fh, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("seqfile: %w", err)
	}
	info, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("seqfile: %w", err)
	}
	f, err := Open(fh, info.Size(), format, opts)
	if err != nil {
		fh.Close()
		return nil, err
	}
	f.closer = fh
	f.syncer = fh
	return f, nil
}

// Close syncs and releases the handle when the File owns one. All
// methods on a closed File return ErrClosed.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.syncer != nil {
		if err := f.syncer.Sync(); err != nil {
			if f.closer != nil {
				f.closer.Close()
			}
			return fmt.Errorf("seqfile: sync: %w", err)
		}
	}
	if f.closer != nil {
		if err := f.closer.Close(); err != nil {
			return fmt.Errorf("seqfile: close: %w", err)
		}
	}
	return nil
}

// Append encodes recs and writes them at the end of the file. All
// records are encoded before anything is written, so an invalid value
// leaves the file untouched.
func (f *File) Append(recs ...record.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if len(recs) == 0 {
		return nil
	}

	block := make([]byte, 0, len(recs)*f.codec.Width())
	for i, rec := range recs {
		p, err := f.codec.Encode(rec)
		if err != nil {
			return fmt.Errorf("seqfile: record %d: %w", i, err)
		}
		block = append(block, p...)
	}
	if _, err := f.rw.WriteAt(block, f.offset(f.count)); err != nil {
		return fmt.Errorf("seqfile: append: %w", err)
	}
	f.count += int64(len(recs))

	f.log.Debug("appended records",
		zap.Int("records", len(recs)),
		zap.Int64("total", f.count),
	)
	return nil
}

// Set overwrites record i in place.
func (f *File) Set(i int64, rec record.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if i < 0 || i >= f.count {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, f.count)
	}
	p, err := f.codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("seqfile: record %d: %w", i, err)
	}
	if _, err := f.rw.WriteAt(p, f.offset(i)); err != nil {
		return fmt.Errorf("seqfile: set record %d: %w", i, err)
	}
	return nil
}

// At returns record i.
func (f *File) At(i int64) (record.Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, ErrClosed
	}
	if i < 0 || i >= f.count {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, f.count)
	}
	return f.at(i)
}

// Range returns records [i, j).
func (f *File) Range(i, j int64) ([]record.Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, ErrClosed
	}
	if i < 0 || j < i || j > f.count {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrIndexOutOfRange, i, j, f.count)
	}
	recs := make([]record.Record, 0, j-i)
	for ; i < j; i++ {
		rec, err := f.at(i)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// ReadAll returns every record in file order.
func (f *File) ReadAll() ([]record.Record, error) {
	return f.Range(0, f.Len())
}

// All iterates records in file order, observing each record at the
// moment it is read. Iteration stops after yielding the first error.
func (f *File) All() iter.Seq2[record.Record, error] {
	return func(yield func(record.Record, error) bool) {
		for i := int64(0); i < f.Len(); i++ {
			rec, err := f.At(i)
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// Len returns the number of records.
func (f *File) Len() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.count
}

// Name returns the format name stored in the header.
func (f *File) Name() string { return f.hdr.Name }

// Schema returns the file's schema.
func (f *File) Schema() record.Schema { return f.codec.Schema() }

// String summarizes the file: name, record count, total size, and the
// record layout.
func (f *File) String() string {
	widths := make([]string, len(f.hdr.Schema))
	for i, fd := range f.hdr.Schema {
		widths[i] = fmt.Sprintf("%d", fd.Width)
	}
	n := f.Len()
	return fmt.Sprintf("%q: %d records, %s, record width %d (%s)",
		f.hdr.Name, n,
		humanBytes(f.dataOff+n*int64(f.codec.Width())),
		f.codec.Width(), strings.Join(widths, "+"))
}

func (f *File) offset(i int64) int64 {
	return f.dataOff + i*int64(f.codec.Width())
}

func (f *File) at(i int64) (record.Record, error) {
	p := make([]byte, f.codec.Width())
	if _, err := f.rw.ReadAt(p, f.offset(i)); err != nil {
		return nil, fmt.Errorf("seqfile: read record %d: %w", i, err)
	}
	return f.codec.Decode(p)
}

func humanBytes(size int64) string {
	s := float64(size)
	suffixes := []string{"", "k", "M", "G", "T"}
	i := 0
	for s > 1024 && i < len(suffixes)-1 {
		s /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %sByte", s, suffixes[i])
}
