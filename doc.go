// Package binarysearchfile stores sorted fixed-width records in a
// self-describing binary file and finds them again with O(log n) reads,
// no index structure and no loading required.
//
// A file is a short header followed by records of identical byte width:
//
//	magic (4 B) | name length (2 B) | name | field count (2 B)
//	| per field: type code (1 B) + width (2 B) | records...
//
// Because every record has the same width, record i sits at a known
// offset and the key field occupies each record's first bytes. Lookups
// binary-search the file through an io.ReaderAt, reading only a few
// key-sized probes. The header carries everything needed to decode, so
// any reader can open a file knowing nothing but its path.
//
// Two file flavors share the layout:
//
//   - bsfile: written in one sorted shot, searched by key.
//   - seqfile: appended to record by record, read by position.
//
// Basic usage:
//
//	format := binarysearchfile.Format{
//		Name: "ports",
//		Schema: record.Schema{
//			{Code: dtype.Uint, Width: 0}, // key, sized from data
//			{Code: dtype.ASCII, Width: 0},
//		},
//	}
//
//	err := bsfile.Create("ports.bin", format, []record.Record{
//		{uint64(22), "ssh"},
//		{uint64(80), "http"},
//		{uint64(443), "https"},
//	}, nil)
//
//	f, err := bsfile.OpenFile("ports.bin", format, nil)
//	defer f.Close()
//	rec, err := f.Get(uint64(443)) // {uint64(443), "https"}
//
// Records are tuples typed by a schema; the dtype package defines the
// built-in field types and the extension registry for custom codecs.
package binarysearchfile
