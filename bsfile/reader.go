package bsfile

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	binarysearchfile "github.com/trichter/binarysearchfile"
	"github.com/trichter/binarysearchfile/header"
	"github.com/trichter/binarysearchfile/record"
)

// A File provides random access to a sorted file through an
// io.ReaderAt. Lookups read a handful of key-sized probes; nothing is
// cached or loaded up front. Files are safe for concurrent readers.
type File struct {
	mu      sync.RWMutex
	r       io.ReaderAt
	closer  io.Closer // set when the File owns the handle
	codec   *record.Codec
	hdr     header.Header
	dataOff int64
	count   int64
	closed  bool
	log     *zap.Logger
}

// Open reads the header from r and prepares lookups. A non-nil
// format.Schema is enforced against the file's schema (width 0 matching
// any width); a nil one adopts whatever the file declares. The file's
// key type must have an ordering.
func Open(r io.ReaderAt, size int64, format binarysearchfile.Format, opts *Options) (*File, error) {
	if r == nil {
		return nil, errors.New("bsfile: reader cannot be nil")
	}
	hdr, err := header.Read(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, err
	}
	if format.Schema != nil && !format.Schema.Matches(hdr.Schema) {
		return nil, fmt.Errorf("%w: want %v, file has %v", header.ErrSchemaMismatch, format.Schema, hdr.Schema)
	}
	codec, err := record.NewCodec(format.Registry(), hdr.Schema)
	if err != nil {
		return nil, fmt.Errorf("bsfile: %w", err)
	}
	if !codec.Keyable() {
		return nil, fmt.Errorf("%w: key field", record.ErrNotKeyable)
	}

	dataOff := int64(hdr.Size())
	width := int64(codec.Width())
	if size < dataOff || (size-dataOff)%width != 0 {
		return nil, fmt.Errorf("%w: %d data bytes, record width %d", ErrCorruptFile, size-dataOff, width)
	}

	f := &File{
		r:       r,
		codec:   codec,
		hdr:     hdr,
		dataOff: dataOff,
		count:   (size - dataOff) / width,
		log:     opts.logger(),
	}
	f.log.Debug("opened file",
		zap.String("name", hdr.Name),
		zap.Int64("records", f.count),
		zap.Int("record_width", codec.Width()),
	)
	return f, nil
}

// OpenFile opens the file at path for lookups. Closing the File closes
// the underlying handle.
func OpenFile(path string, format binarysearchfile.Format, opts *Options) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bsfile: %w", err)
	}
	info, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("bsfile: %w", err)
	}
	f, err := Open(fh, info.Size(), format, opts)
	if err != nil {
		fh.Close()
		return nil, err
	}
	f.closer = fh
	return f, nil
}

// Close releases the file handle when the File owns one. Lookups on a
// closed File return ErrClosed.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.closer != nil {
		if err := f.closer.Close(); err != nil {
			return fmt.Errorf("bsfile: close: %w", err)
		}
	}
	return nil
}

// Len returns the number of records.
func (f *File) Len() int64 { return f.count }

// Name returns the format name stored in the header.
func (f *File) Name() string { return f.hdr.Name }

// Schema returns the file's resolved schema.
func (f *File) Schema() record.Schema { return f.codec.Schema() }

// Search returns the index of the first record whose key equals key.
// Absent keys return index -1 and ErrKeyNotFound.
func (f *File) Search(key any) (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.checkKey(key); err != nil {
		return -1, err
	}
	i, err := f.searchLeft(key)
	if err != nil {
		return -1, err
	}
	if i >= f.count {
		return -1, notFound(key)
	}
	k, err := f.keyAt(i)
	if err != nil {
		return -1, err
	}
	if c, err := f.codec.CompareKeys(k, key); err != nil || c != 0 {
		if err != nil {
			return -1, err
		}
		return -1, notFound(key)
	}
	return i, nil
}

// SearchLast returns the index of the last record whose key equals key.
// With unique keys it agrees with Search; with duplicates it finds the
// rightmost. Absent keys return index -1 and ErrKeyNotFound.
func (f *File) SearchLast(key any) (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.checkKey(key); err != nil {
		return -1, err
	}
	i, err := f.searchRight(key)
	if err != nil {
		return -1, err
	}
	i-- // last record <= key
	if i < 0 {
		return -1, notFound(key)
	}
	k, err := f.keyAt(i)
	if err != nil {
		return -1, err
	}
	if c, err := f.codec.CompareKeys(k, key); err != nil || c != 0 {
		if err != nil {
			return -1, err
		}
		return -1, notFound(key)
	}
	return i, nil
}

// Get returns the first record whose key equals key.
func (f *File) Get(key any) (record.Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.checkKey(key); err != nil {
		return nil, err
	}
	i, err := f.searchLeft(key)
	if err != nil {
		return nil, err
	}
	if i >= f.count {
		return nil, notFound(key)
	}
	rec, err := f.at(i)
	if err != nil {
		return nil, err
	}
	if c, err := f.codec.CompareKeys(rec[0], key); err != nil || c != 0 {
		if err != nil {
			return nil, err
		}
		return nil, notFound(key)
	}
	return rec, nil
}

// GetAll returns every record whose key equals key, in file order.
func (f *File) GetAll(key any) ([]record.Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.checkKey(key); err != nil {
		return nil, err
	}
	i, err := f.searchLeft(key)
	if err != nil {
		return nil, err
	}
	var recs []record.Record
	for ; i < f.count; i++ {
		rec, err := f.at(i)
		if err != nil {
			return nil, err
		}
		c, err := f.codec.CompareKeys(rec[0], key)
		if err != nil {
			return nil, err
		}
		if c != 0 {
			break
		}
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return nil, notFound(key)
	}
	return recs, nil
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
	return f.Range(0, f.count)
}

// All iterates records in file order. Iteration stops after yielding
// the first error.
func (f *File) All() iter.Seq2[record.Record, error] {
	return func(yield func(record.Record, error) bool) {
		for i := int64(0); i < f.count; i++ {
			rec, err := f.At(i)
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// String summarizes the file: name, record count, total size, and the
// record layout.
func (f *File) String() string {
	widths := make([]string, len(f.hdr.Schema))
	for i, fd := range f.hdr.Schema {
		widths[i] = fmt.Sprintf("%d", fd.Width)
	}
	return fmt.Sprintf("%q: %d records, %s, record width %d (%s)",
		f.hdr.Name, f.count,
		humanBytes(f.dataOff+f.count*int64(f.codec.Width())),
		f.codec.Width(), strings.Join(widths, "+"))
}

func notFound(key any) error {
	return fmt.Errorf("%w: %v", ErrKeyNotFound, key)
}

// checkKey rejects lookups on closed files and keys of the wrong Go
// type. A wrong-typed key would otherwise fail on every probe; checking
// once up front gives one clear error instead.
func (f *File) checkKey(key any) error {
	if f.closed {
		return ErrClosed
	}
	if _, err := f.codec.CompareKeys(key, key); err != nil {
		return fmt.Errorf("bsfile: key: %w", err)
	}
	return nil
}

// searchLeft returns the index of the first record with key >= key,
// or count when all records order below it.
func (f *File) searchLeft(key any) (int64, error) {
	var probeErr error
	i := sort.Search(int(f.count), func(i int) bool {
		if probeErr != nil {
			return true
		}
		k, err := f.keyAt(int64(i))
		if err != nil {
			probeErr = err
			return true
		}
		c, err := f.codec.CompareKeys(k, key)
		if err != nil {
			probeErr = err
			return true
		}
		return c >= 0
	})
	if probeErr != nil {
		return 0, probeErr
	}
	return int64(i), nil
}

// searchRight returns the index of the first record with key > key.
func (f *File) searchRight(key any) (int64, error) {
	var probeErr error
	i := sort.Search(int(f.count), func(i int) bool {
		if probeErr != nil {
			return true
		}
		k, err := f.keyAt(int64(i))
		if err != nil {
			probeErr = err
			return true
		}
		c, err := f.codec.CompareKeys(k, key)
		if err != nil {
			probeErr = err
			return true
		}
		return c > 0
	})
	if probeErr != nil {
		return 0, probeErr
	}
	return int64(i), nil
}

// keyAt reads and decodes only record i's key field.
func (f *File) keyAt(i int64) (any, error) {
	p, err := f.readAt(i, f.codec.KeyWidth())
	if err != nil {
		return nil, err
	}
	return f.codec.DecodeKey(p)
}

// at reads and decodes record i. Bounds are the caller's business.
func (f *File) at(i int64) (record.Record, error) {
	p, err := f.readAt(i, f.codec.Width())
	if err != nil {
		return nil, err
	}
	return f.codec.Decode(p)
}

func (f *File) readAt(i int64, n int) ([]byte, error) {
	p := make([]byte, n)
	if _, err := f.r.ReadAt(p, f.dataOff+i*int64(f.codec.Width())); err != nil {
		return nil, fmt.Errorf("bsfile: read record %d: %w", i, err)
	}
	return p, nil
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
