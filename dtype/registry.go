package dtype

import "fmt"

// A Registry maps type codes to codecs. The zero value is not usable;
// call NewRegistry, which seeds the built-in types.
//
// Registries are not safe for concurrent mutation. Build one up front,
// share it read-only afterwards.
type Registry struct {
	types map[uint8]Type
}

// NewRegistry returns a registry holding the built-in types.
func NewRegistry() *Registry {
	return &Registry{types: builtins()}
}

// With is a chainable Register for building a registry in one
// expression. It panics on a registration error, which is always a
// programming mistake (duplicate or reserved code, incomplete type).
func (r *Registry) With(code uint8, t Type) *Registry {
	if err := r.Register(code, t); err != nil {
		panic(err)
	}
	return r
}

// Register adds a user type under code. Overwriting an assigned code —
// built-in or extension — returns ErrDuplicateCode; unassigned codes
// below UserMin are reserved and rejected with ErrInvalidCode. The type
// must provide Encode and Decode.
func (r *Registry) Register(code uint8, t Type) error {
	if _, ok := r.types[code]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateCode, code)
	}
	if code < UserMin {
		return fmt.Errorf("%w: %d is below %d", ErrInvalidCode, code, UserMin)
	}
	if t.Encode == nil || t.Decode == nil {
		return fmt.Errorf("%w: type %q needs Encode and Decode", ErrInvalidValue, t.Name)
	}
	r.types[code] = t
	return nil
}

// Lookup returns the type registered under code.
func (r *Registry) Lookup(code uint8) (Type, error) {
	t, ok := r.types[code]
	if !ok {
		return Type{}, fmt.Errorf("%w: %d", ErrUnknownType, code)
	}
	return t, nil
}

// Clone returns an independent copy of the registry. Registering on
// the clone does not affect the original.
func (r *Registry) Clone() *Registry {
	types := make(map[uint8]Type, len(r.types))
	for code, t := range r.types {
		types[code] = t
	}
	return &Registry{types: types}
}
