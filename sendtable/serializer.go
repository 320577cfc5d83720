// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package sendtable

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/hax0r31337/demoinfocs2-lite/fieldpath"
	"github.com/hax0r31337/demoinfocs2-lite/support/bitreader"
)

// ErrUnregisteredPolymorphicField is returned when an entity update reaches
// a polymorphic field no caller binding was registered for. Continuing
// would desynchronize the bitstream for every later command, so the parse
// must stop here.
var ErrUnregisteredPolymorphicField = errors.New("sendtable: decode reached an unregistered polymorphic field")

// containerKind is the shape the wire wraps a field's element in.
type containerKind int

const (
	// A single element.
	scalarKind containerKind = iota
	// An element behind a presence bit; an empty tail path toggles it.
	pointerKind
	// A fixed-size array; the path carries the element index.
	fixedArrayKind
	// A dynamically sized vector; an empty tail path resizes it, otherwise
	// the path carries the element index.
	vectorKind
)

// Field is one slot of a Serializer.
type Field struct {
	Name string
	Type *FieldType

	kind      containerKind
	arraySize int

	// Exactly one of leaf, nested, variants is set: a terminal value
	// decoder, an embedded serializer, or a polymorphic variant table.
	leaf     ValueDecoder
	nested   *Serializer
	variants []*Serializer

	// bound is set once a caller registers a polymorphic binding for this
	// field.
	bound bool
}

// Polymorphic reports whether the field selects its serializer per entity.
func (f *Field) Polymorphic() bool { return f.variants != nil }

// Variants returns the serializer table of a polymorphic field.
func (f *Field) Variants() []*Serializer { return f.variants }

// Serializer is one named flattened serializer: an ordered field list
// addressed by field-path indices.
type Serializer struct {
	Name    string
	Version int32
	Fields  []*Field
}

// A Sink receives the decode results for one field path. The caller binds a
// sink to (entity, full path) before handing it to DecodeField; all
// callbacks refer to that path.
type Sink interface {
	// Materialize reports whether the decoded value should be produced.
	// When false the decoder consumes the exact same bits and discards the
	// result, keeping the shared cursor aligned.
	Materialize() bool

	// SetValue delivers the decoded leaf value.
	SetValue(v interface{})

	// Resize delivers a dynamic vector's new length.
	Resize(n int)

	// SetPresence delivers a pointer field's presence bit.
	SetPresence(present bool)

	// PinVariant records the active variant of the polymorphic field at
	// the current path.
	PinVariant(idx int)

	// VariantAt returns the variant pinned at the prefix of the bound path
	// with the given length, if any.
	VariantAt(prefixLen int) (int, bool)
}

// DecodeField decodes the single value addressed by p, routing results
// through sink. The bits consumed are identical whether or not the sink
// materializes.
func (s *Serializer) DecodeField(r *bitreader.R, p fieldpath.Path, sink Sink) error {
	if err := s.decodeAt(r, p.Slice(), 0, sink); err != nil {
		return errors.Wrapf(err, "class %s, path %v", s.Name, p.Slice())
	}
	return nil
}

func (s *Serializer) decodeAt(r *bitreader.R, rest []int32, consumed int, sink Sink) error {
	if len(rest) == 0 {
		return errors.Errorf("path terminates inside serializer %s", s.Name)
	}

	idx := int(rest[0])
	if idx < 0 || idx >= len(s.Fields) {
		return errors.Errorf("field index %d out of range in serializer %s", idx, s.Name)
	}

	return s.Fields[idx].decode(r, rest[1:], consumed+1, sink)
}

func (f *Field) decode(r *bitreader.R, rest []int32, consumed int, sink Sink) error {
	switch f.kind {
	case pointerKind:
		if len(rest) == 0 {
			present, err := r.ReadBit()
			if err != nil {
				return err
			}
			sink.SetPresence(present)
			return nil
		}
		// The pointer is transparent to deeper paths.
		return f.decodeElement(r, rest, consumed, sink)

	case vectorKind:
		if len(rest) == 0 {
			size, err := r.ReadVarUint64()
			if err != nil {
				return err
			}
			sink.Resize(int(size))
			return nil
		}
		if rest[0] < 0 {
			return errors.Errorf("negative vector index %d in field %s", rest[0], f.Name)
		}
		return f.decodeElement(r, rest[1:], consumed+1, sink)

	case fixedArrayKind:
		if len(rest) == 0 {
			return errors.Errorf("path terminates at fixed array field %s", f.Name)
		}
		if idx := int(rest[0]); idx < 0 || idx >= f.arraySize {
			return errors.Errorf("array index %d out of range in field %s", idx, f.Name)
		}
		return f.decodeElement(r, rest[1:], consumed+1, sink)

	default:
		return f.decodeElement(r, rest, consumed, sink)
	}
}

func (f *Field) decodeElement(r *bitreader.R, rest []int32, consumed int, sink Sink) error {
	switch {
	case f.leaf != nil:
		if len(rest) != 0 {
			return errors.Errorf("path continues past leaf field %s", f.Name)
		}
		if !sink.Materialize() {
			return f.leaf.Skip(r)
		}
		v, err := f.leaf.Decode(r)
		if err != nil {
			return err
		}
		sink.SetValue(v)
		return nil

	case f.variants != nil:
		return f.decodePolymorphic(r, rest, consumed, sink)

	case f.nested != nil:
		return f.nested.decodeAt(r, rest, consumed, sink)

	default:
		return errors.Errorf("field %s has no element decoder", f.Name)
	}
}

func (f *Field) decodePolymorphic(r *bitreader.R, rest []int32, consumed int, sink Sink) error {
	if !f.bound {
		return errors.Wrap(ErrUnregisteredPolymorphicField, fmt.Sprintf("field %s", f.Name))
	}

	if len(rest) == 0 {
		// Variant selection: presence bit, then the serializer index.
		if _, err := r.ReadBit(); err != nil {
			return err
		}
		idx, err := r.ReadUBitVar()
		if err != nil {
			return err
		}
		if int(idx) >= len(f.variants) {
			return errors.Errorf("polymorphic variant %d out of range in field %s", idx, f.Name)
		}
		sink.PinVariant(int(idx))
		return nil
	}

	variant := 0
	if v, ok := sink.VariantAt(consumed); ok {
		variant = v
	}
	if variant >= len(f.variants) || f.variants[variant] == nil {
		return errors.Errorf("polymorphic variant %d unavailable in field %s", variant, f.Name)
	}
	return f.variants[variant].decodeAt(r, rest, consumed, sink)
}
