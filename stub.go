package factory

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Stub is the plain attribute bag produced by the stub strategy: the fully
// resolved arguments of a build, with no target-type instantiation. The
// attribute order matches the resolution order, which msgpack and JSON
// encodings preserve so stubs can serve as golden fixtures.
type Stub struct {
	names  []string
	values map[string]any
}

func newStub(names []string, values map[string]any) *Stub {
	return &Stub{names: names, values: values}
}

// Attr returns the named attribute and whether it exists.
func (s *Stub) Attr(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns the attribute names in resolution order.
func (s *Stub) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Map returns a copy of the attributes.
func (s *Stub) Map() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// String returns a compact representation for debugging.
func (s *Stub) String() string {
	return fmt.Sprintf("Stub%v", s.names)
}

// MarshalJSON encodes the attributes as a JSON object.
func (s *Stub) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.values)
}

// EncodeMsgpack implements msgpack.CustomEncoder, preserving attribute order.
func (s *Stub) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(s.names)); err != nil {
		return err
	}
	for _, name := range s.names {
		if err := enc.EncodeString(name); err != nil {
			return err
		}
		if err := enc.Encode(s.values[name]); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (s *Stub) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	s.names = make([]string, 0, n)
	s.values = make(map[string]any, n)
	for i := 0; i < n; i++ {
		name, err := dec.DecodeString()
		if err != nil {
			return err
		}
		v, err := dec.DecodeInterface()
		if err != nil {
			return err
		}
		s.names = append(s.names, name)
		s.values[name] = v
	}
	return nil
}

var (
	_ msgpack.CustomEncoder = (*Stub)(nil)
	_ msgpack.CustomDecoder = (*Stub)(nil)
)
