// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package sendtable builds the per-demo serializer schema and decodes the
// leaf values entity updates carry.
//
// The schema arrives once per demo as a flattened serializer block: a
// symbol table, a field table, and serializers referencing both by index.
// The Registry turns that into a tree of Serializer values addressed by
// field paths, plus the class-id to serializer mapping entity creation
// consults.
package sendtable

import (
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/hax0r31337/demoinfocs2-lite/demo/demopb"
)

// ErrDuplicateSchema is returned when a schema definition arrives for a
// (name, version) pair that is already registered, or when a second schema
// block arrives in the same demo. Silently overwriting would mask malformed
// input, so the parse fails instead.
var ErrDuplicateSchema = errors.New("sendtable: duplicate schema definition")

type serializerKey struct {
	name    string
	version int32
}

// Registry holds one demo's serializer schema and class table. It is owned
// by a single parse session and is not safe for concurrent use.
type Registry struct {
	latest  map[string]*Serializer
	all     map[serializerKey]*Serializer
	classes map[int32]string

	classIDBits uint
	built       bool
}

func NewRegistry() *Registry {
	return &Registry{
		latest:  make(map[string]*Serializer),
		all:     make(map[serializerKey]*Serializer),
		classes: make(map[int32]string),
	}
}

// SetMaxClasses fixes the bit width entity creation reads class ids with.
func (reg *Registry) SetMaxClasses(n int32) {
	if n <= 0 {
		return
	}
	reg.classIDBits = uint(math.Log2(float64(n))) + 1
}

// ClassIDBits returns the class-id field width, or zero if no server info
// has arrived yet.
func (reg *Registry) ClassIDBits() uint { return reg.classIDBits }

// ApplyClassInfo records the class-id to serializer-name table.
func (reg *Registry) ApplyClassInfo(msg *demopb.CDemoClassInfo) error {
	for _, class := range msg.GetClasses() {
		if class.ClassId == nil || class.NetworkName == nil {
			return errors.New("sendtable: class info entry missing id or name")
		}
		reg.classes[class.GetClassId()] = class.GetNetworkName()
	}
	return nil
}

// ClassName resolves a class id to its network name.
func (reg *Registry) ClassName(classID int32) (string, bool) {
	name, ok := reg.classes[classID]
	return name, ok
}

// SerializerForClass returns the serializer bound to a class id.
func (reg *Registry) SerializerForClass(classID int32) (*Serializer, error) {
	name, ok := reg.classes[classID]
	if !ok {
		return nil, errors.Errorf("sendtable: unknown class id %d", classID)
	}
	s, ok := reg.latest[name]
	if !ok {
		return nil, errors.Errorf("sendtable: no serializer for class %s", name)
	}
	return s, nil
}

// Serializer returns the latest registered serializer with the given name.
func (reg *Registry) Serializer(name string) (*Serializer, bool) {
	s, ok := reg.latest[name]
	return s, ok
}

// Serializers returns every registered serializer, ordered by name then
// version. It exists for schema introspection (accessor code generation).
func (reg *Registry) Serializers() []*Serializer {
	out := make([]*Serializer, 0, len(reg.all))
	for _, s := range reg.all {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version < out[j].Version
	})
	return out
}

// BindPolymorphic registers a caller binding for the named polymorphic
// field, permitting entity updates to decode through it.
func (reg *Registry) BindPolymorphic(serializerName, fieldName string) error {
	s, ok := reg.latest[serializerName]
	if !ok {
		return errors.Errorf("sendtable: unknown serializer %s", serializerName)
	}
	for _, f := range s.Fields {
		if f.Name != fieldName {
			continue
		}
		if !f.Polymorphic() {
			return errors.Errorf("sendtable: field %s.%s is not polymorphic", serializerName, fieldName)
		}
		f.bound = true
		return nil
	}
	return errors.Errorf("sendtable: no field %s in serializer %s", fieldName, serializerName)
}

// Build constructs the serializer tree from one flattened serializer block.
// A second block in the same demo is rejected with ErrDuplicateSchema.
func (reg *Registry) Build(msg *demopb.CSVCMsg_FlattenedSerializer) error {
	if reg.built {
		return errors.Wrap(ErrDuplicateSchema, "schema block already processed")
	}

	symbols := msg.GetSymbols()
	symbol := func(idx *int32) (string, bool) {
		if idx == nil || int(*idx) < 0 || int(*idx) >= len(symbols) {
			return "", false
		}
		return symbols[*idx], true
	}

	fieldsCache := make([]*Field, len(msg.GetFields()))
	typeCache := make(map[string]*FieldType)

	for _, spb := range msg.GetSerializers() {
		name, ok := symbol(spb.SerializerNameSym)
		if !ok {
			return errors.New("sendtable: serializer name symbol out of range")
		}
		version := spb.GetSerializerVersion()

		key := serializerKey{name, version}
		if _, exists := reg.all[key]; exists {
			return errors.Wrapf(ErrDuplicateSchema, "serializer %s version %d", name, version)
		}

		s := &Serializer{
			Name:    name,
			Version: version,
			Fields:  make([]*Field, 0, len(spb.GetFieldsIndex())),
		}

		for _, fieldIdx := range spb.GetFieldsIndex() {
			if int(fieldIdx) < 0 || int(fieldIdx) >= len(fieldsCache) {
				return errors.Errorf("sendtable: field index %d out of range in serializer %s", fieldIdx, name)
			}
			if cached := fieldsCache[fieldIdx]; cached != nil {
				s.Fields = append(s.Fields, cached)
				continue
			}

			f, err := reg.buildField(msg.GetFields()[fieldIdx], symbol, typeCache)
			if err != nil {
				return errors.Wrapf(err, "serializer %s", name)
			}
			fieldsCache[fieldIdx] = f
			s.Fields = append(s.Fields, f)
		}

		reg.all[key] = s
		if prev, ok := reg.latest[name]; !ok || prev.Version < version {
			reg.latest[name] = s
		}
	}

	reg.built = true
	return nil
}

func (reg *Registry) buildField(
	fpb *demopb.ProtoFlattenedSerializerFieldT,
	symbol func(*int32) (string, bool),
	typeCache map[string]*FieldType,
) (*Field, error) {
	varType, ok := symbol(fpb.VarTypeSym)
	if !ok {
		return nil, errors.New("missing field type symbol")
	}
	varName, ok := symbol(fpb.VarNameSym)
	if !ok {
		return nil, errors.New("missing field name symbol")
	}

	ft, cached := typeCache[varType]
	if !cached {
		parsed, err := ParseFieldType(varType)
		if err != nil {
			return nil, err
		}
		typeCache[varType] = parsed
		ft = parsed
	}

	f := &Field{
		Name: varName,
		Type: ft,
		kind: containerOf(ft),
	}
	if f.kind == fixedArrayKind {
		f.arraySize = ft.ArraySize
	}

	if poly := fpb.GetPolymorphicTypes(); len(poly) > 0 {
		// Polymorphic fields carry their own selection coding; the declared
		// container does not apply to the selector node.
		f.kind = scalarKind
		f.variants = make([]*Serializer, 0, len(poly))
		for _, pt := range poly {
			variantName, ok := symbol(pt.PolymorphicFieldSerializerNameSym)
			if !ok {
				return nil, errors.Errorf("field %s: missing polymorphic serializer symbol", varName)
			}
			variant, ok := reg.latest[variantName]
			if !ok {
				return nil, errors.Errorf("field %s: unknown polymorphic serializer %s", varName, variantName)
			}
			f.variants = append(f.variants, variant)
		}
		return f, nil
	}

	if nestedName, ok := symbol(fpb.FieldSerializerNameSym); ok {
		nested, exists := reg.latest[nestedName]
		if !exists {
			return nil, errors.Errorf("field %s: unknown serializer %s", varName, nestedName)
		}
		f.nested = nested
		return f, nil
	}

	encoder, _ := symbol(fpb.VarEncoderSym)
	leaf, err := newValueDecoder(ft, &fieldSchema{
		varName:     varName,
		encoder:     encoder,
		bitCount:    fpb.GetBitCount(),
		lowValue:    fpb.GetLowValue(),
		highValue:   fpb.GetHighValue(),
		encodeFlags: uint32(fpb.GetEncodeFlags()),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "field %s", varName)
	}
	f.leaf = leaf
	return f, nil
}

func containerOf(ft *FieldType) containerKind {
	switch {
	case ft.Pointer:
		return pointerKind
	case ft.ArraySize > 0 && ft.Base != "char":
		return fixedArrayKind
	case ft.isVector():
		return vectorKind
	default:
		return scalarKind
	}
}

// PathOf resolves a dotted field name to the index-path prefix addressing
// it, for subscription setup. The name descends through nested serializers;
// a container of serializers can only be named as a whole, since element
// indices are per-entity data, not schema.
func (s *Serializer) PathOf(dotted string) ([]int32, error) {
	segments := strings.Split(dotted, ".")
	prefix := make([]int32, 0, len(segments))

	cur := s
	for i, seg := range segments {
		idx := -1
		for j, f := range cur.Fields {
			if f.Name == seg {
				idx = j
				break
			}
		}
		if idx < 0 {
			return nil, errors.Errorf("sendtable: no field %s in serializer %s", seg, cur.Name)
		}
		prefix = append(prefix, int32(idx))

		f := cur.Fields[idx]
		if i == len(segments)-1 {
			return prefix, nil
		}

		if f.nested == nil {
			return nil, errors.Errorf("sendtable: field %s.%s has no named children", cur.Name, seg)
		}
		if f.kind == vectorKind || f.kind == fixedArrayKind {
			return nil, errors.Errorf("sendtable: field %s.%s is a container, subscribe to it as a whole", cur.Name, seg)
		}
		cur = f.nested
	}
	return prefix, nil
}
