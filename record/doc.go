// Package record maps tuples of Go values onto fixed-width byte blocks.
//
// A Schema names each field's type code and width; a Codec built from a
// schema and a dtype.Registry encodes records to blocks of exactly
// Width bytes and back. Because every record occupies the same number
// of bytes, record i always lives at byte offset i*Width after the
// header, which is what makes positional reads and binary search
// possible without an index.
//
// Schemas may declare fields with width 0, meaning "size this column
// from the data": Fit scans a dataset and replaces each zero with the
// widest value's size. Files never persist a zero width.
package record
