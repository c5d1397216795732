// Package header reads and writes the self-describing file prologue:
// a four-byte magic block, a length-prefixed format name, and the field
// descriptors that let any reader reconstruct the record layout without
// outside knowledge.
//
// All multi-byte header integers are big-endian, matching the record
// integer encodings.
package header
