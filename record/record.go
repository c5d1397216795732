package record

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/trichter/binarysearchfile/dtype"
)

// Common errors returned by codec operations.
var (
	ErrShapeMismatch = errors.New("record: value count does not match schema")
	ErrEmptySchema   = errors.New("record: schema has no fields")
	ErrAutoWidth     = errors.New("record: schema field width unresolved")
	ErrNotKeyable    = errors.New("record: key type has no ordering")
)

// A Field pairs a type code with the number of bytes the field occupies
// in every record. Width 0 marks an auto-width field whose final width
// is taken from the data via Fit before any encoding happens.
type Field struct {
	Code  uint8
	Width uint16
}

// A Schema is an ordered list of fields. Field 0 is the key: the field
// records are sorted by and searched on.
type Schema []Field

// Width returns the encoded record size in bytes.
func (s Schema) Width() int {
	var w int
	for _, f := range s {
		w += int(f.Width)
	}
	return w
}

// Equal reports whether both schemas have the same fields in the same
// order, codes and widths alike.
func (s Schema) Equal(other Schema) bool {
	return slices.Equal(s, other)
}

// Matches reports whether a persisted schema satisfies this one. Codes
// must agree field by field; a width of 0 on the receiver acts as a
// wildcard, accepting whatever width the file sized that column to.
func (s Schema) Matches(got Schema) bool {
	if len(s) != len(got) {
		return false
	}
	for i := range s {
		if s[i].Code != got[i].Code {
			return false
		}
		if s[i].Width != 0 && s[i].Width != got[i].Width {
			return false
		}
	}
	return true
}

// A Record holds one value per schema field, index-aligned. Values use
// each type's canonical Go representation (uint64 for uint fields,
// string for text, []byte for raw bytes).
type Record []any

// A Codec encodes and decodes records against one resolved schema. It
// is built once per file and is safe for concurrent reads.
type Codec struct {
	schema  Schema
	types   []dtype.Type
	offsets []int // offsets[i] is where field i starts; offsets[len] == width
	width   int
}

// NewCodec resolves every schema field against the registry. Schemas
// must be non-empty and concrete; auto-width fields return ErrAutoWidth
// (run Fit first).
func NewCodec(reg *dtype.Registry, schema Schema) (*Codec, error) {
	if len(schema) == 0 {
		return nil, ErrEmptySchema
	}
	c := &Codec{
		schema:  slices.Clone(schema),
		types:   make([]dtype.Type, len(schema)),
		offsets: make([]int, len(schema)+1),
	}
	for i, f := range schema {
		if f.Width == 0 {
			return nil, fmt.Errorf("%w: field %d", ErrAutoWidth, i)
		}
		t, err := reg.Lookup(f.Code)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		c.types[i] = t
		c.offsets[i] = c.width
		c.width += int(f.Width)
	}
	c.offsets[len(schema)] = c.width
	return c, nil
}

// Schema returns a copy of the resolved schema.
func (c *Codec) Schema() Schema { return slices.Clone(c.schema) }

// Width returns the encoded record size in bytes.
func (c *Codec) Width() int { return c.width }

// KeyWidth returns the key field's size in bytes. The key occupies the
// first KeyWidth bytes of every encoded record, which is all a search
// probe has to read.
func (c *Codec) KeyWidth() int { return int(c.schema[0].Width) }

// Keyable reports whether the key field's type defines an ordering.
func (c *Codec) Keyable() bool { return c.types[0].Keyable() }

// Encode turns one record into its fixed-width block.
func (c *Codec) Encode(rec Record) ([]byte, error) {
	if len(rec) != len(c.schema) {
		return nil, fmt.Errorf("%w: %d values, %d fields", ErrShapeMismatch, len(rec), len(c.schema))
	}
	out := make([]byte, 0, c.width)
	for i, v := range rec {
		p, err := c.types[i].Encode(v, int(c.schema[i].Width))
		if err != nil {
			return nil, fmt.Errorf("field %d (%s): %w", i, c.types[i].Name, err)
		}
		if len(p) != int(c.schema[i].Width) {
			return nil, fmt.Errorf("%w: field %d (%s) encoded to %d bytes, want %d",
				ErrShapeMismatch, i, c.types[i].Name, len(p), c.schema[i].Width)
		}
		out = append(out, p...)
	}
	return out, nil
}

// Decode turns one fixed-width block back into a record.
func (c *Codec) Decode(p []byte) (Record, error) {
	if len(p) != c.width {
		return nil, fmt.Errorf("%w: %d bytes, record width is %d", ErrShapeMismatch, len(p), c.width)
	}
	rec := make(Record, len(c.schema))
	for i := range c.schema {
		v, err := c.types[i].Decode(p[c.offsets[i]:c.offsets[i+1]])
		if err != nil {
			return nil, fmt.Errorf("field %d (%s): %w", i, c.types[i].Name, err)
		}
		rec[i] = v
	}
	return rec, nil
}

// DecodeKey decodes only the key field from the front of an encoded
// record. p may be the full record or just its first KeyWidth bytes.
func (c *Codec) DecodeKey(p []byte) (any, error) {
	kw := c.KeyWidth()
	if len(p) < kw {
		return nil, fmt.Errorf("%w: %d bytes, key width is %d", ErrShapeMismatch, len(p), kw)
	}
	v, err := c.types[0].Decode(p[:kw])
	if err != nil {
		return nil, fmt.Errorf("key field (%s): %w", c.types[0].Name, err)
	}
	return v, nil
}

// CompareKeys orders two decoded key values using the key type's
// ordering. Keys of a type without Compare return ErrNotKeyable.
func (c *Codec) CompareKeys(a, b any) (int, error) {
	if !c.Keyable() {
		return 0, fmt.Errorf("%w: %s", ErrNotKeyable, c.types[0].Name)
	}
	return c.types[0].Compare(a, b)
}

// Fit resolves every auto-width field to the smallest width holding all
// of recs, leaving concrete fields untouched. The returned schema is a
// copy; the input is never modified.
//
// Fields of a type without WidthOf, or auto-width fields with no
// records to size from, return ErrAutoWidth.
func Fit(reg *dtype.Registry, schema Schema, recs []Record) (Schema, error) {
	if len(schema) == 0 {
		return nil, ErrEmptySchema
	}
	fitted := slices.Clone(schema)
	for i, f := range fitted {
		if f.Width != 0 {
			continue
		}
		t, err := reg.Lookup(f.Code)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		if !t.Sizable() {
			return nil, fmt.Errorf("%w: field %d type %q cannot size values", ErrAutoWidth, i, t.Name)
		}
		if len(recs) == 0 {
			return nil, fmt.Errorf("%w: field %d has no records to size from", ErrAutoWidth, i)
		}
		width := 1
		for n, rec := range recs {
			if len(rec) != len(fitted) {
				return nil, fmt.Errorf("record %d: %w: %d values, %d fields", n, ErrShapeMismatch, len(rec), len(fitted))
			}
			w, err := t.WidthOf(rec[i])
			if err != nil {
				return nil, fmt.Errorf("record %d field %d (%s): %w", n, i, t.Name, err)
			}
			width = max(width, w)
		}
		if width > math.MaxUint16 {
			return nil, fmt.Errorf("field %d (%s): width %d: %w", i, t.Name, width, dtype.ErrValueTooLarge)
		}
		fitted[i].Width = uint16(width)
	}
	return fitted, nil
}
