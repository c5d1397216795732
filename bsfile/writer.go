package bsfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/btree"
	"go.uber.org/zap"

	binarysearchfile "github.com/trichter/binarysearchfile"
	"github.com/trichter/binarysearchfile/dtype"
	"github.com/trichter/binarysearchfile/header"
	"github.com/trichter/binarysearchfile/record"
)

const btreeDegree = 32

// item carries one buffered record. The insertion sequence breaks key
// ties, so equal keys never collide in the tree and flush in Add order.
type item struct {
	rec record.Record
	key any
	seq uint64
}

// A Writer accumulates records and writes them out sorted in one shot
// on Close. Writers are write-once: after Close every method returns
// ErrClosed.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	format  binarysearchfile.Format
	reg     *dtype.Registry
	keyType dtype.Type
	tree    *btree.BTreeG[item]
	seq     uint64
	closed  bool
	bufSize int
	log     *zap.Logger
}

// NewWriter prepares a sorted write to w. The schema must resolve
// against the format's registry and its key field must have an
// ordering. Nothing is written until Close.
func NewWriter(w io.Writer, format binarysearchfile.Format, opts *Options) (*Writer, error) {
	if w == nil {
		return nil, errors.New("bsfile: writer cannot be nil")
	}
	if len(format.Schema) == 0 {
		return nil, record.ErrEmptySchema
	}
	reg := format.Registry()
	for i, f := range format.Schema {
		if _, err := reg.Lookup(f.Code); err != nil {
			return nil, fmt.Errorf("bsfile: field %d: %w", i, err)
		}
	}
	keyType, _ := reg.Lookup(format.Schema[0].Code)
	if !keyType.Keyable() {
		return nil, fmt.Errorf("%w: key type %s", record.ErrNotKeyable, keyType.Name)
	}

	// Keys are type-checked at Add, so Compare cannot fail here.
	less := func(a, b item) bool {
		if c, _ := keyType.Compare(a.key, b.key); c != 0 {
			return c < 0
		}
		return a.seq < b.seq
	}
	return &Writer{
		w:       w,
		format:  format,
		reg:     reg,
		keyType: keyType,
		tree:    btree.NewG(btreeDegree, less),
		bufSize: opts.bufferSize(),
		log:     opts.logger(),
	}, nil
}

// Add buffers one record. Records may arrive in any key order; the key
// value must have the key type's canonical Go type. Field values are
// encoded, and so fully validated, at Close.
func (w *Writer) Add(rec record.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if len(rec) != len(w.format.Schema) {
		return fmt.Errorf("%w: %d values, %d fields", record.ErrShapeMismatch, len(rec), len(w.format.Schema))
	}
	if _, err := w.keyType.Compare(rec[0], rec[0]); err != nil {
		return fmt.Errorf("bsfile: key: %w", err)
	}
	w.tree.ReplaceOrInsert(item{rec: rec, key: rec[0], seq: w.seq})
	w.seq++
	return nil
}

// Len returns the number of buffered records.
func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree.Len()
}

// Close sizes auto-width columns over the buffered records, writes the
// header, and streams the records out in key order. Closing a Writer
// with no records returns ErrEmptyWrite: an empty file cannot answer
// searches and this flavor refuses to produce one.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	if w.tree.Len() == 0 {
		return ErrEmptyWrite
	}

	recs := make([]record.Record, 0, w.tree.Len())
	w.tree.Ascend(func(it item) bool {
		recs = append(recs, it.rec)
		return true
	})

	schema, err := record.Fit(w.reg, w.format.Schema, recs)
	if err != nil {
		return fmt.Errorf("bsfile: %w", err)
	}
	codec, err := record.NewCodec(w.reg, schema)
	if err != nil {
		return fmt.Errorf("bsfile: %w", err)
	}

	h := w.format.Header()
	h.Schema = schema
	buf := bufio.NewWriterSize(w.w, w.bufSize)
	if err := header.Write(buf, h); err != nil {
		return err
	}
	for i, rec := range recs {
		p, err := codec.Encode(rec)
		if err != nil {
			return fmt.Errorf("bsfile: record %d: %w", i, err)
		}
		if _, err := buf.Write(p); err != nil {
			return fmt.Errorf("bsfile: write record %d: %w", i, err)
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("bsfile: flush: %w", err)
	}

	w.log.Debug("wrote sorted file",
		zap.String("name", h.Name),
		zap.Int("records", len(recs)),
		zap.Int("record_width", codec.Width()),
		zap.Int("bytes", h.Size()+len(recs)*codec.Width()),
	)
	return nil
}
