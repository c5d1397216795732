// Package dtype defines the field type system: codecs that move single
// values between their Go representation and a fixed number of bytes.
//
// Every field in a file carries a one-byte type code. Codes below 100
// are reserved for the built-in types (raw bytes, ASCII and UTF-8 text,
// unsigned and signed big-endian integers); codes from 100 up are free
// for callers to claim on a Registry.
//
// Basic usage:
//
//	reg := dtype.NewRegistry()
//	t, err := reg.Lookup(dtype.Uint)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	p, _ := t.Encode(uint64(42), 4) // [0 0 0 42]
//	v, _ := t.Decode(p)             // uint64(42)
//
// Registering a custom type:
//
//	reg := dtype.NewRegistry().With(100, dtype.Type{
//		Name:   "flag",
//		Encode: encodeFlag,
//		Decode: decodeFlag,
//	})
//
// Each type decodes to one canonical Go type (uint64 for uint fields,
// string for text, and so on); Encode only accepts that same type, so
// values round-trip exactly.
package dtype
